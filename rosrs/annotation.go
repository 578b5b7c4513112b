package rosrs

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/pkg/errors"

	"github.com/wf4ever/rodl-go"
	"github.com/wf4ever/rodl-go/vocab"
)

func annotationDescription(subject string, blank bool, body string, targets []string) []rodl.Statement {
	statements := []rodl.Statement{
		{Subject: subject, SubjectBlank: blank, Property: vocab.RDFType, Object: vocab.ROAggregatedAnnotation, ObjectIsURI: true},
		{Subject: subject, SubjectBlank: blank, Property: vocab.AOBody, Object: body, ObjectIsURI: true},
	}
	for _, target := range targets {
		statements = append(statements, rodl.Statement{
			Subject:      subject,
			SubjectBlank: blank,
			Property:     vocab.ROAnnotatesAggregatedResource,
			Object:       target,
			ObjectIsURI:  true,
		})
	}
	return statements
}

func annotationCreated(uri, body string, links rodl.Links) *Created {
	if b, ok := linkTo(links, vocab.AOBody); ok {
		body = b
	} else if b, ok := linkTo(links, vocab.OAHasBody); ok {
		body = b
	}
	return &Created{
		URI:      uri,
		Location: uri,
		Body:     body,
		Links:    links,
	}
}

// AddAnnotation creates an annotation of ro stating that body annotates
// targets. The body is usually already aggregated.
func (s *Service) AddAnnotation(ctx context.Context, ro string, targets []string, body string) (*Created, error) {
	ctx, span := tracer.Start(ctx, "ROSRS.AddAnnotation")
	defer span.End()

	data, err := encodeDescription(annotationDescription("annotation", true, body, targets))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	req, err := s.request(ctx, http.MethodPost, ro, data, vocab.MediaTypeAnnotation)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	resp, err := s.client.Do("AddAnnotation", req, http.StatusCreated)
	if err != nil {
		span.RecordError(errors.Wrap(err, "ROSRS.AddAnnotation"))
		return nil, err
	}
	s.client.Invalidate(ctx, ro)

	created := annotationCreated(resp.Location(), body, resp.Links())
	created.Creator, created.Created = describe(ctx, resp, created.URI)
	return created, nil
}

// AnnotateWithContent uploads content as the body of a new annotation of
// targets. The service aggregates the body at path and creates the
// annotation in one step; targets are passed as ao:annotatesResource links.
func (s *Service) AnnotateWithContent(ctx context.Context, ro string, targets []string, path string, content []byte, contentType string) (*Created, error) {
	ctx, span := tracer.Start(ctx, "ROSRS.AnnotateWithContent")
	defer span.End()

	req, err := s.request(ctx, http.MethodPost, ro, content, contentType)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	req.Header.Set("Slug", path)
	for _, target := range targets {
		req.Header.Add("Link", rodl.FormatLink(target, vocab.AOAnnotatesResource))
	}

	resp, err := s.client.Do("AnnotateWithContent", req, http.StatusCreated)
	if err != nil {
		span.RecordError(errors.Wrap(err, "ROSRS.AnnotateWithContent"))
		return nil, err
	}
	s.client.Invalidate(ctx, ro)

	body, err := rodl.ResolveURI(ro, path)
	if err != nil {
		body = path
	}
	created := annotationCreated(resp.Location(), body, resp.Links())
	created.Creator, created.Created = describe(ctx, resp, created.URI)
	return created, nil
}

// UpdateAnnotation replaces the body and targets of an annotation.
func (s *Service) UpdateAnnotation(ctx context.Context, annotation, body string, targets []string) error {
	ctx, span := tracer.Start(ctx, "ROSRS.UpdateAnnotation")
	defer span.End()

	data, err := encodeDescription(annotationDescription(annotation, false, body, targets))
	if err != nil {
		span.RecordError(err)
		return err
	}
	req, err := s.request(ctx, http.MethodPut, annotation, data, vocab.MediaTypeAnnotation)
	if err != nil {
		span.RecordError(err)
		return err
	}
	_, err = s.client.Do("UpdateAnnotation", req, http.StatusOK)
	s.client.Invalidate(ctx, annotation)
	if err != nil {
		span.RecordError(errors.Wrap(err, "ROSRS.UpdateAnnotation"))
		return err
	}
	return nil
}

// DeleteAnnotationAndBody deletes an annotation and its body. The body is
// discovered from the 303 the service answers for the annotation; a failure
// to delete the body is logged and does not stop the annotation delete.
func (s *Service) DeleteAnnotationAndBody(ctx context.Context, annotation string) error {
	ctx, span := tracer.Start(ctx, "ROSRS.DeleteAnnotationAndBody")
	defer span.End()

	req, err := s.request(ctx, http.MethodGet, annotation, nil, "")
	if err != nil {
		span.RecordError(err)
		return err
	}
	resp, err := s.client.DoNoRedirect("GetAnnotation", req)
	if err != nil {
		span.RecordError(errors.Wrap(err, "ROSRS.DeleteAnnotationAndBody"))
		return err
	}

	if body := resp.Location(); resp.StatusCode == http.StatusSeeOther && body != "" {
		if err := s.delete(ctx, "DeleteAnnotationBody", body); err != nil {
			slog.WarnContext(
				ctx,
				"failed to delete annotation body",
				slog.String("error", err.Error()),
				slog.String("annotation", annotation),
				slog.String("body", body),
				slog.String("module", "rosrs"),
			)
		}
	}

	if err := s.delete(ctx, "DeleteAnnotation", annotation); err != nil {
		span.RecordError(errors.Wrap(err, "ROSRS.DeleteAnnotationAndBody"))
		return err
	}
	return nil
}
