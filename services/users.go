package services

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/wf4ever/rodl-go"
	"github.com/wf4ever/rodl-go/client"
	"github.com/wf4ever/rodl-go/vocab"
)

// UserManagementService manages accounts and access tokens. The service
// only accepts it from an administrator token.
type UserManagementService struct {
	client *client.Client
	users  string
	tokens string
}

// NewUserManagement uses the users and access token collections advertised
// in d.
func NewUserManagement(c *client.Client, d *Description) (*UserManagementService, error) {
	users, err := d.Expand(vocab.ROSRSUsers, nil)
	if err != nil {
		return nil, err
	}
	tokens, err := d.Expand(vocab.ROSRSAccessTokens, nil)
	if err != nil {
		return nil, err
	}
	return &UserManagementService{
		client: c,
		users:  rodl.EnsureTrailingSlash(users),
		tokens: rodl.EnsureTrailingSlash(tokens),
	}, nil
}

func (s *UserManagementService) userURI(id string) string {
	return s.users + url.PathEscape(id)
}

// CreateUser creates or renames the user id.
func (s *UserManagementService) CreateUser(ctx context.Context, id, name string) error {
	ctx, span := tracer.Start(ctx, "Users.CreateUser")
	defer span.End()

	req, err := s.client.NewRequest(ctx, http.MethodPut, s.userURI(id), []byte(name), vocab.MediaTypeText)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if _, err := s.client.Do("CreateUser", req, http.StatusOK, http.StatusCreated); err != nil {
		span.RecordError(errors.Wrap(err, "Users.CreateUser"))
		return err
	}
	return nil
}

func (s *UserManagementService) DeleteUser(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Users.DeleteUser")
	defer span.End()

	req, err := s.client.NewRequest(ctx, http.MethodDelete, s.userURI(id), nil, "")
	if err != nil {
		span.RecordError(err)
		return err
	}
	if _, err := s.client.Do("DeleteUser", req, http.StatusNoContent, http.StatusNotFound); err != nil {
		span.RecordError(errors.Wrap(err, "Users.DeleteUser"))
		return err
	}
	return nil
}

// AccessToken is a bearer token issued to a client application for a user.
type AccessToken struct {
	URI   string
	Token string
}

// CreateAccessToken issues a token for userID to use with clientID.
func (s *UserManagementService) CreateAccessToken(ctx context.Context, clientID, userID string) (*AccessToken, error) {
	ctx, span := tracer.Start(ctx, "Users.CreateAccessToken")
	defer span.End()

	body := []byte(clientID + "\n" + userID)
	req, err := s.client.NewRequest(ctx, http.MethodPost, s.tokens, body, vocab.MediaTypeText)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	resp, err := s.client.Do("CreateAccessToken", req, http.StatusCreated)
	if err != nil {
		span.RecordError(errors.Wrap(err, "Users.CreateAccessToken"))
		return nil, err
	}
	location := resp.Location()
	if location == "" {
		return nil, errors.New("access token created without Location")
	}
	return &AccessToken{URI: location, Token: rodl.DisplayName(location)}, nil
}

func (s *UserManagementService) DeleteAccessToken(ctx context.Context, token *AccessToken) error {
	ctx, span := tracer.Start(ctx, "Users.DeleteAccessToken")
	defer span.End()

	req, err := s.client.NewRequest(ctx, http.MethodDelete, token.URI, nil, "")
	if err != nil {
		span.RecordError(err)
		return err
	}
	if _, err := s.client.Do("DeleteAccessToken", req, http.StatusNoContent, http.StatusNotFound); err != nil {
		span.RecordError(errors.Wrap(err, "Users.DeleteAccessToken"))
		return err
	}
	return nil
}
