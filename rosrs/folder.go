package rosrs

import (
	"context"
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"github.com/wf4ever/rodl-go"
	"github.com/wf4ever/rodl-go/vocab"
)

// Entry describes a folder entry to create together with a folder.
type Entry struct {
	Resource string
	Name     string
}

// Link returns the target of a link relation of the response, accepting both
// the full and the prefixed relation name.
func (c *Created) Link(term string) (string, bool) {
	return linkTo(c.Links, term)
}

// CreateFolder creates a folder of ro at path, optionally with initial
// entries. The folder's resource map is advertised with an ore:isDescribedBy
// link, see Created.Link.
func (s *Service) CreateFolder(ctx context.Context, ro, path string, entries ...Entry) (*Created, error) {
	ctx, span := tracer.Start(ctx, "ROSRS.CreateFolder")
	defer span.End()

	target, err := rodl.ResolveURI(ro, rodl.EnsureTrailingSlash(path))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	statements := []rodl.Statement{
		rodl.NewResourceStatement(target, vocab.RDFType, vocab.ROFolder),
	}
	for i, entry := range entries {
		id := "entry" + strconv.Itoa(i)
		statements = append(statements,
			rodl.NewResourceStatement(target, vocab.OREAggregates, entry.Resource),
			rodl.Statement{Subject: id, SubjectBlank: true, Property: vocab.RDFType, Object: vocab.ROFolderEntry, ObjectIsURI: true},
			rodl.Statement{Subject: id, SubjectBlank: true, Property: vocab.OREProxyFor, Object: entry.Resource, ObjectIsURI: true},
			rodl.Statement{Subject: id, SubjectBlank: true, Property: vocab.ROEntryName, Object: entry.Name},
		)
	}
	body, err := encodeDescription(statements)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	req, err := s.request(ctx, http.MethodPost, ro, body, vocab.MediaTypeFolder)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	req.Header.Set("Slug", path)

	resp, err := s.client.Do("CreateFolder", req, http.StatusCreated, http.StatusConflict)
	if err != nil {
		span.RecordError(errors.Wrap(err, "ROSRS.CreateFolder"))
		return nil, err
	}
	s.client.Invalidate(ctx, ro)

	if resp.StatusCode == http.StatusConflict {
		return &Created{URI: target, Existing: true, Links: resp.Links()}, nil
	}
	return s.created(ctx, resp, target), nil
}

// AddFolderEntry puts resource into folder under name. The created entry
// URI is returned in Created.URI; a 409 means the entry already exists.
func (s *Service) AddFolderEntry(ctx context.Context, folder, resource, name string) (*Created, error) {
	ctx, span := tracer.Start(ctx, "ROSRS.AddFolderEntry")
	defer span.End()

	body, err := encodeDescription([]rodl.Statement{
		{Subject: "entry", SubjectBlank: true, Property: vocab.RDFType, Object: vocab.ROFolderEntry, ObjectIsURI: true},
		{Subject: "entry", SubjectBlank: true, Property: vocab.OREProxyFor, Object: resource, ObjectIsURI: true},
		{Subject: "entry", SubjectBlank: true, Property: vocab.ROEntryName, Object: name},
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	req, err := s.request(ctx, http.MethodPost, folder, body, vocab.MediaTypeFolderEntry)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	resp, err := s.client.Do("AddFolderEntry", req, http.StatusCreated, http.StatusConflict)
	if err != nil {
		span.RecordError(errors.Wrap(err, "ROSRS.AddFolderEntry"))
		return nil, err
	}
	s.client.Invalidate(ctx, folder)

	result := &Created{
		URI:      resp.Location(),
		Location: resp.Location(),
		Links:    resp.Links(),
		Existing: resp.StatusCode == http.StatusConflict,
	}
	if !result.Existing {
		result.Creator, result.Created = describe(ctx, resp, result.URI)
	}
	return result, nil
}

// DeleteFolderEntry removes an entry from its folder. The resource itself
// stays aggregated.
func (s *Service) DeleteFolderEntry(ctx context.Context, entry string) error {
	ctx, span := tracer.Start(ctx, "ROSRS.DeleteFolderEntry")
	defer span.End()

	err := s.delete(ctx, "DeleteFolderEntry", entry)
	if err != nil {
		span.RecordError(errors.Wrap(err, "ROSRS.DeleteFolderEntry"))
		return err
	}
	return nil
}
