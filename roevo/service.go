// Package roevo submits snapshot and archive jobs to the research object
// evolution service and reads evolution information.
package roevo

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/wf4ever/rodl-go"
	"github.com/wf4ever/rodl-go/client"
	"github.com/wf4ever/rodl-go/internal/graph"
	"github.com/wf4ever/rodl-go/vocab"
)

var tracer = otel.Tracer("roevo")

type Service struct {
	client *client.Client
	uri    string
}

func New(c *client.Client, uri string) *Service {
	return &Service{
		client: c,
		uri:    rodl.EnsureTrailingSlash(uri),
	}
}

func (s *Service) URI() string {
	return s.uri
}

// CreateSnapshot starts copying live into a snapshot named target.
func (s *Service) CreateSnapshot(ctx context.Context, live, target string, finalize bool) (*JobStatus, error) {
	ctx, span := tracer.Start(ctx, "ROEVO.CreateSnapshot")
	defer span.End()

	job, err := s.submit(ctx, "copy/", Job{CopyFrom: live, Target: target, Type: TypeSnapshot, Finalize: finalize})
	if err != nil {
		span.RecordError(errors.Wrap(err, "ROEVO.CreateSnapshot"))
		return nil, err
	}
	return job, nil
}

// CreateArchive starts copying live into an archive named target.
func (s *Service) CreateArchive(ctx context.Context, live, target string, finalize bool) (*JobStatus, error) {
	ctx, span := tracer.Start(ctx, "ROEVO.CreateArchive")
	defer span.End()

	job, err := s.submit(ctx, "copy/", Job{CopyFrom: live, Target: target, Type: TypeArchive, Finalize: finalize})
	if err != nil {
		span.RecordError(errors.Wrap(err, "ROEVO.CreateArchive"))
		return nil, err
	}
	return job, nil
}

// Finalize freezes a snapshot or archive created without finalize.
func (s *Service) Finalize(ctx context.Context, target string) (*JobStatus, error) {
	ctx, span := tracer.Start(ctx, "ROEVO.Finalize")
	defer span.End()

	job, err := s.submit(ctx, "finalize/", Job{Target: target})
	if err != nil {
		span.RecordError(errors.Wrap(err, "ROEVO.Finalize"))
		return nil, err
	}
	return job, nil
}

func (s *Service) submit(ctx context.Context, path string, job Job) (*JobStatus, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode job")
	}
	req, err := s.client.NewRequest(ctx, http.MethodPost, s.uri+path, body, vocab.MediaTypeJSON)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do("SubmitJob", req, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	location := resp.Location()
	if location == "" {
		return nil, errors.New("job created without Location")
	}

	status := &JobStatus{
		service:  s,
		Location: location,
		Job:      job,
		Status:   StateRunning,
	}
	if len(resp.Body) > 0 {
		if err := status.decode(resp.Body); err != nil {
			return nil, err
		}
	}
	return status, nil
}

// GetEvolutionInformation returns the evolution history of ro as described
// by the service: snapshots, archives and their live research objects.
func (s *Service) GetEvolutionInformation(ctx context.Context, ro string) (*graph.Graph, error) {
	ctx, span := tracer.Start(ctx, "ROEVO.GetEvolutionInformation")
	defer span.End()

	uri := s.uri + "info?ro=" + url.QueryEscape(ro)
	req, err := s.client.NewRequest(ctx, http.MethodGet, uri, nil, "")
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	req.Header.Set("Accept", vocab.MediaTypeTurtle)

	resp, err := s.client.Do("GetEvolutionInformation", req, http.StatusOK)
	if err != nil {
		span.RecordError(errors.Wrap(err, "ROEVO.GetEvolutionInformation"))
		return nil, err
	}
	format, ok := graph.FormatForMediaType(resp.ContentType())
	if !ok {
		format = rdf.FormatTurtle
	}
	g, err := graph.Parse(ctx, bytes.NewReader(resp.Body), format, ro)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return g, nil
}
