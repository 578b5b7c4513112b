// Package rosrs talks to the research object storage and retrieval service.
// Every method maps one domain action to one HTTP call with a fixed set of
// success statuses; anything else comes back as a *rodl.StatusError.
package rosrs

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/wf4ever/rodl-go"
	"github.com/wf4ever/rodl-go/client"
	"github.com/wf4ever/rodl-go/internal/graph"
	"github.com/wf4ever/rodl-go/vocab"
)

var tracer = otel.Tracer("rosrs")

// ManifestAccept is the Accept header used when fetching manifests.
const ManifestAccept = vocab.MediaTypeRDFXML + ", " + vocab.MediaTypeTriG + ";q=0.9, " + vocab.MediaTypeTurtle + ";q=0.8"

type Service struct {
	client *client.Client
	uri    string
}

// New binds a service to the RODL endpoint at uri, e.g.
// "http://sandbox.wf4ever-project.org/rodl/ROs/".
func New(c *client.Client, uri string) *Service {
	return &Service{
		client: c,
		uri:    rodl.EnsureTrailingSlash(uri),
	}
}

func (s *Service) URI() string {
	return s.uri
}

func (s *Service) Client() *client.Client {
	return s.client
}

// Created is what the service tells about something it just created or
// already had.
type Created struct {
	// URI of the created thing. For aggregated resources this is the
	// ore:proxyFor target, not the proxy.
	URI string
	// Location header, the proxy for aggregated resources.
	Location string
	// Body document of a created annotation.
	Body     string
	Creator  *rodl.Person
	Created  *time.Time
	Links    rodl.Links
	// Existing is set when the service answered 409.
	Existing bool
}

func linkTo(links rodl.Links, term string) (string, bool) {
	return links.First(term, vocab.Compact(term))
}

// describe reads creator and creation date of the first subject found in the
// response body. Unparseable bodies are ignored.
func describe(ctx context.Context, resp *client.Response, subjects ...string) (*rodl.Person, *time.Time) {
	if len(resp.Body) == 0 {
		return nil, nil
	}
	format, ok := graph.FormatForMediaType(resp.ContentType())
	if !ok {
		return nil, nil
	}
	g, err := graph.Parse(ctx, bytes.NewReader(resp.Body), format, resp.URL)
	if err != nil {
		slog.DebugContext(
			ctx,
			"ignoring unparseable response body",
			slog.String("error", err.Error()),
			slog.String("url", resp.URL),
			slog.String("module", "rosrs"),
		)
		return nil, nil
	}
	for _, subject := range subjects {
		if subject == "" {
			continue
		}
		creator := g.Creator(subject)
		created, _ := g.Time(subject, vocab.DCTermsCreated)
		if creator != nil || created != nil {
			return creator, created
		}
	}
	return nil, nil
}

func (s *Service) request(ctx context.Context, method, uri string, body []byte, contentType string) (*http.Request, error) {
	return s.client.NewRequest(ctx, method, uri, body, contentType)
}

// CreateResearchObject creates an empty research object named id and returns
// its URI.
func (s *Service) CreateResearchObject(ctx context.Context, id string) (*Created, error) {
	ctx, span := tracer.Start(ctx, "ROSRS.CreateResearchObject")
	defer span.End()

	req, err := s.request(ctx, http.MethodPost, s.uri, nil, "")
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	req.Header.Set("Slug", id)
	req.Header.Set("Accept", vocab.MediaTypeRDFXML)

	resp, err := s.client.Do("CreateResearchObject", req, http.StatusCreated)
	if err != nil {
		span.RecordError(errors.Wrap(err, "ROSRS.CreateResearchObject"))
		return nil, err
	}

	uri := resp.Location()
	if uri == "" {
		err := errors.New("ROSRS.CreateResearchObject: response has no Location")
		span.RecordError(err)
		return nil, err
	}
	creator, created := describe(ctx, resp, uri)
	return &Created{
		URI:      uri,
		Location: uri,
		Creator:  creator,
		Created:  created,
		Links:    resp.Links(),
	}, nil
}

// DeleteResearchObject deletes a research object. Deleting one that does not
// exist is not an error.
func (s *Service) DeleteResearchObject(ctx context.Context, ro string) error {
	ctx, span := tracer.Start(ctx, "ROSRS.DeleteResearchObject")
	defer span.End()

	err := s.delete(ctx, "DeleteResearchObject", ro)
	if err != nil {
		span.RecordError(errors.Wrap(err, "ROSRS.DeleteResearchObject"))
		return err
	}
	return nil
}

func (s *Service) delete(ctx context.Context, op, uri string) error {
	req, err := s.request(ctx, http.MethodDelete, uri, nil, "")
	if err != nil {
		return err
	}
	_, err = s.client.Do(op, req, http.StatusNoContent, http.StatusNotFound)
	s.client.Invalidate(ctx, uri)
	return err
}

// GetResearchObjectManifest fetches the manifest of ro. The service answers
// the research object URI with a 303 to the manifest, which is followed.
func (s *Service) GetResearchObjectManifest(ctx context.Context, ro string) (*client.Document, error) {
	ctx, span := tracer.Start(ctx, "ROSRS.GetResearchObjectManifest")
	defer span.End()

	doc, err := s.client.GetRDF(ctx, "GetResearchObjectManifest", ro, ManifestAccept)
	if err != nil {
		span.RecordError(errors.Wrap(err, "ROSRS.GetResearchObjectManifest"))
		return nil, err
	}
	return doc, nil
}

// GetResource fetches any aggregated document. An empty accept leaves
// content negotiation to the server.
func (s *Service) GetResource(ctx context.Context, uri, accept string) (*client.Document, error) {
	ctx, span := tracer.Start(ctx, "ROSRS.GetResource")
	defer span.End()

	doc, err := s.client.GetRDF(ctx, "GetResource", uri, accept)
	if err != nil {
		span.RecordError(errors.Wrap(err, "ROSRS.GetResource"))
		return nil, err
	}
	return doc, nil
}

// WhoAmI returns the user the configured token belongs to.
func (s *Service) WhoAmI(ctx context.Context) (*rodl.Person, error) {
	ctx, span := tracer.Start(ctx, "ROSRS.WhoAmI")
	defer span.End()

	uri, err := rodl.ResolveURI(s.uri, "../whoami")
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	doc, err := s.client.GetRDF(ctx, "WhoAmI", uri, vocab.MediaTypeRDFXML+", "+vocab.MediaTypeTurtle+";q=0.9")
	if err != nil {
		span.RecordError(errors.Wrap(err, "ROSRS.WhoAmI"))
		return nil, err
	}
	g, err := ParseDocument(ctx, doc)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	for _, st := range g.Statements() {
		if st.Property == vocab.FOAFName && !st.SubjectBlank {
			return &rodl.Person{URI: st.Subject, Name: st.Object}, nil
		}
	}
	if people := g.Subjects(vocab.RDFType, vocab.FOAFPerson); len(people) > 0 {
		return &rodl.Person{URI: people[0]}, nil
	}
	err = rodl.NotFoundError{Resource: "user in " + uri}
	span.RecordError(err)
	return nil, err
}

// ParseDocument parses a fetched RDF document, choosing the syntax from its
// content type and falling back to its file extension.
func ParseDocument(ctx context.Context, doc *client.Document) (*graph.Graph, error) {
	format, ok := graph.FormatForMediaType(doc.ContentType)
	if !ok {
		format = graph.FormatForPath(doc.URI)
	}
	g, err := graph.Parse(ctx, bytes.NewReader(doc.Body), format, doc.URI)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", doc.URI)
	}
	return g, nil
}
