package rosrs

import (
	"context"
	"net/http"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/pkg/errors"

	"github.com/wf4ever/rodl-go"
	"github.com/wf4ever/rodl-go/client"
	"github.com/wf4ever/rodl-go/internal/graph"
	"github.com/wf4ever/rodl-go/vocab"
)

// descriptionFormat is the syntax of the small RDF documents sent as request
// bodies for proxies, folders, entries and annotations.
const descriptionFormat = rdf.FormatRDFXML

func encodeDescription(statements []rodl.Statement) ([]byte, error) {
	data, err := graph.Encode(statements, descriptionFormat)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode description")
	}
	return data, nil
}

func (s *Service) created(ctx context.Context, resp *client.Response, fallback string) *Created {
	links := resp.Links()
	location := resp.Location()
	uri, ok := linkTo(links, vocab.OREProxyFor)
	if ok {
		if abs, err := rodl.ResolveURI(resp.URL, uri); err == nil {
			uri = abs
		}
	} else if fallback != "" {
		uri = fallback
	} else {
		uri = location
	}
	creator, created := describe(ctx, resp, uri, location)
	return &Created{
		URI:      uri,
		Location: location,
		Creator:  creator,
		Created:  created,
		Links:    links,
	}
}

// AggregateInternalResource uploads content as a new resource of ro stored at
// path. A 409 means the resource is already aggregated and is reported with
// Existing set.
func (s *Service) AggregateInternalResource(ctx context.Context, ro, path string, content []byte, contentType string) (*Created, error) {
	ctx, span := tracer.Start(ctx, "ROSRS.AggregateInternalResource")
	defer span.End()

	target, err := rodl.ResolveURI(ro, path)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	req, err := s.request(ctx, http.MethodPost, ro, content, contentType)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	req.Header.Set("Slug", path)

	resp, err := s.client.Do("AggregateInternalResource", req, http.StatusCreated, http.StatusConflict)
	if err != nil {
		span.RecordError(errors.Wrap(err, "ROSRS.AggregateInternalResource"))
		return nil, err
	}
	s.client.Invalidate(ctx, ro)

	if resp.StatusCode == http.StatusConflict {
		return &Created{URI: target, Existing: true, Links: resp.Links()}, nil
	}
	return s.created(ctx, resp, target), nil
}

// AggregateExternalResource aggregates a resource that lives outside of the
// service by creating a proxy for it.
func (s *Service) AggregateExternalResource(ctx context.Context, ro, uri string) (*Created, error) {
	ctx, span := tracer.Start(ctx, "ROSRS.AggregateExternalResource")
	defer span.End()

	body, err := encodeDescription([]rodl.Statement{
		{Subject: "proxy", SubjectBlank: true, Property: vocab.RDFType, Object: vocab.OREProxy, ObjectIsURI: true},
		{Subject: "proxy", SubjectBlank: true, Property: vocab.OREProxyFor, Object: uri, ObjectIsURI: true},
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	req, err := s.request(ctx, http.MethodPost, ro, body, vocab.MediaTypeProxy)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	resp, err := s.client.Do("AggregateExternalResource", req, http.StatusCreated)
	if err != nil {
		span.RecordError(errors.Wrap(err, "ROSRS.AggregateExternalResource"))
		return nil, err
	}
	s.client.Invalidate(ctx, ro)
	return s.created(ctx, resp, uri), nil
}

// UpdateResource replaces the content of an aggregated resource.
func (s *Service) UpdateResource(ctx context.Context, uri string, content []byte, contentType string) error {
	ctx, span := tracer.Start(ctx, "ROSRS.UpdateResource")
	defer span.End()

	req, err := s.request(ctx, http.MethodPut, uri, content, contentType)
	if err != nil {
		span.RecordError(err)
		return err
	}
	_, err = s.client.Do("UpdateResource", req, http.StatusOK)
	s.client.Invalidate(ctx, uri)
	if err != nil {
		span.RecordError(errors.Wrap(err, "ROSRS.UpdateResource"))
		return err
	}
	return nil
}

// DeleteResource removes an aggregated resource. uri may be the resource or
// its proxy. A 404 is treated as already deleted.
func (s *Service) DeleteResource(ctx context.Context, uri string) error {
	ctx, span := tracer.Start(ctx, "ROSRS.DeleteResource")
	defer span.End()

	err := s.delete(ctx, "DeleteResource", uri)
	if err != nil {
		span.RecordError(errors.Wrap(err, "ROSRS.DeleteResource"))
		return err
	}
	return nil
}
