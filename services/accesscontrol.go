package services

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/wf4ever/rodl-go"
	"github.com/wf4ever/rodl-go/client"
	"github.com/wf4ever/rodl-go/vocab"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleReader Role = "reader"
)

type Mode string

const (
	ModePublic  Mode = "public"
	ModePrivate Mode = "private"
	ModeOpen    Mode = "open"
)

// Permission grants a role on a research object to a user.
type Permission struct {
	URI  string `json:"uri,omitempty"`
	RO   string `json:"ro"`
	Role Role   `json:"role"`
	User string `json:"user"`
}

// AccessMode is the visibility of a research object.
type AccessMode struct {
	URI  string `json:"uri,omitempty"`
	RO   string `json:"ro"`
	Mode Mode   `json:"mode"`
}

type AccessControlService struct {
	client      *client.Client
	description *Description
}

func NewAccessControl(c *client.Client, d *Description) *AccessControlService {
	return &AccessControlService{client: c, description: d}
}

func (s *AccessControlService) getJSON(ctx context.Context, op, uri string, v any) error {
	req, err := s.client.NewRequest(ctx, http.MethodGet, uri, nil, "")
	if err != nil {
		return err
	}
	req.Header.Set("Accept", vocab.MediaTypeJSON)
	resp, err := s.client.Do(op, req, http.StatusOK)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return errors.Wrapf(err, "failed to decode %s response", op)
	}
	return nil
}

// postJSON sends v and returns the Location of what was created.
func (s *AccessControlService) postJSON(ctx context.Context, op, uri string, v any) (string, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	req, err := s.client.NewRequest(ctx, http.MethodPost, uri, body, vocab.MediaTypeJSON)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(op, req, http.StatusCreated, http.StatusOK)
	if err != nil {
		return "", err
	}
	return resp.Location(), nil
}

// Permissions lists who may do what with ro.
func (s *AccessControlService) Permissions(ctx context.Context, ro string) ([]Permission, error) {
	ctx, span := tracer.Start(ctx, "AccessControl.Permissions")
	defer span.End()

	uri, err := s.description.Expand(vocab.ROSRSPermissions, map[string]string{"ro": ro})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	var out []Permission
	if err := s.getJSON(ctx, "GetPermissions", uri, &out); err != nil {
		span.RecordError(errors.Wrap(err, "AccessControl.Permissions"))
		return nil, err
	}
	return out, nil
}

// Grant gives user role on ro.
func (s *AccessControlService) Grant(ctx context.Context, ro, user string, role Role) (*Permission, error) {
	ctx, span := tracer.Start(ctx, "AccessControl.Grant")
	defer span.End()

	uri, err := s.description.Expand(vocab.ROSRSPermissions, nil)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	p := &Permission{RO: ro, Role: role, User: user}
	location, err := s.postJSON(ctx, "GrantPermission", uri, p)
	if err != nil {
		span.RecordError(errors.Wrap(err, "AccessControl.Grant"))
		return nil, err
	}
	p.URI = location
	return p, nil
}

// Revoke deletes a permission. Revoking an unknown permission succeeds.
func (s *AccessControlService) Revoke(ctx context.Context, p *Permission) error {
	ctx, span := tracer.Start(ctx, "AccessControl.Revoke")
	defer span.End()

	if p.URI == "" {
		return errors.New("permission has no URI")
	}
	req, err := s.client.NewRequest(ctx, http.MethodDelete, p.URI, nil, "")
	if err != nil {
		span.RecordError(err)
		return err
	}
	if _, err := s.client.Do("RevokePermission", req, http.StatusNoContent, http.StatusNotFound); err != nil {
		span.RecordError(errors.Wrap(err, "AccessControl.Revoke"))
		return err
	}
	return nil
}

// Mode returns the access mode of ro.
func (s *AccessControlService) Mode(ctx context.Context, ro string) (*AccessMode, error) {
	ctx, span := tracer.Start(ctx, "AccessControl.Mode")
	defer span.End()

	uri, err := s.description.Expand(vocab.ROSRSModes, map[string]string{"ro": ro})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	var m AccessMode
	if err := s.getJSON(ctx, "GetMode", uri, &m); err != nil {
		span.RecordError(errors.Wrap(err, "AccessControl.Mode"))
		return nil, err
	}
	if m.RO == "" {
		m.RO = ro
	}
	return &m, nil
}

// SetMode changes the access mode of ro.
func (s *AccessControlService) SetMode(ctx context.Context, ro string, mode Mode) (*AccessMode, error) {
	ctx, span := tracer.Start(ctx, "AccessControl.SetMode")
	defer span.End()

	switch mode {
	case ModePublic, ModePrivate, ModeOpen:
	default:
		return nil, errors.Errorf("unknown access mode %q", mode)
	}
	uri, err := s.description.Expand(vocab.ROSRSModes, nil)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	m := &AccessMode{RO: ro, Mode: mode}
	location, err := s.postJSON(ctx, "SetMode", uri, m)
	if err != nil {
		span.RecordError(errors.Wrap(err, "AccessControl.SetMode"))
		return nil, err
	}
	m.URI = location
	return m, nil
}

// ParseRole accepts the role names case-insensitively.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(s)); r {
	case RoleOwner, RoleEditor, RoleReader:
		return r, nil
	}
	return "", rodl.NotFoundError{Resource: "role " + s}
}
