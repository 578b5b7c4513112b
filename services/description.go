// Package services reads the RODL service description and talks to the
// auxiliary services it advertises: access control, notifications and user
// management.
package services

import (
	"bytes"
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/yosida95/uritemplate/v3"
	"go.opentelemetry.io/otel"

	"github.com/wf4ever/rodl-go"
	"github.com/wf4ever/rodl-go/client"
	"github.com/wf4ever/rodl-go/internal/graph"
	"github.com/wf4ever/rodl-go/vocab"
)

var tracer = otel.Tracer("services")

var describedTerms = []string{
	vocab.ROSRSPermissions,
	vocab.ROSRSModes,
	vocab.ROSRSNotifications,
	vocab.ROSRSCopy,
	vocab.ROSRSFinalize,
	vocab.ROSRSInfo,
	vocab.ROSRSUsers,
	vocab.ROSRSAccessTokens,
}

// Description lists the endpoints of a RODL deployment. Values are RFC 6570
// URI templates; plain URIs are templates without variables.
type Description struct {
	URI       string
	templates map[string]*uritemplate.Template
}

// FetchDescription downloads and parses the service description at uri.
func FetchDescription(ctx context.Context, c *client.Client, uri string) (*Description, error) {
	ctx, span := tracer.Start(ctx, "Services.FetchDescription")
	defer span.End()

	doc, err := c.GetRDF(ctx, "GetServiceDescription", uri, vocab.MediaTypeRDFXML+", "+vocab.MediaTypeTurtle+";q=0.9")
	if err != nil {
		span.RecordError(errors.Wrap(err, "Services.FetchDescription"))
		return nil, err
	}
	format, ok := graph.FormatForMediaType(doc.ContentType)
	if !ok {
		format = graph.FormatForPath(doc.URI)
	}
	g, err := graph.Parse(ctx, bytes.NewReader(doc.Body), format, doc.URI)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return ParseDescription(g, uri)
}

// ParseDescription reads the endpoints described for subject. Relative
// templates are taken relative to subject.
func ParseDescription(g *graph.Graph, subject string) (*Description, error) {
	d := &Description{URI: subject, templates: make(map[string]*uritemplate.Template)}
	for _, term := range describedTerms {
		value, ok := g.Object(subject, term)
		if !ok {
			continue
		}
		if !strings.Contains(value, "://") {
			value = rodl.EnsureTrailingSlash(subject) + strings.TrimPrefix(value, "/")
		}
		t, err := uritemplate.New(value)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid template for %s", vocab.Compact(term))
		}
		d.templates[term] = t
	}
	return d, nil
}

// Has reports whether the description advertises term.
func (d *Description) Has(term string) bool {
	_, ok := d.templates[term]
	return ok
}

// Expand fills the template of term. Variables left out are dropped from
// the result as RFC 6570 prescribes.
func (d *Description) Expand(term string, vars map[string]string) (string, error) {
	t, ok := d.templates[term]
	if !ok {
		return "", rodl.NotFoundError{Resource: vocab.Compact(term)}
	}
	values := uritemplate.Values{}
	for name, value := range vars {
		if value != "" {
			values.Set(name, uritemplate.String(value))
		}
	}
	return t.Expand(values)
}
