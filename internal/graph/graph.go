// Package graph keeps a parsed RDF document in memory and answers the simple
// triple patterns the research object loader needs.
package graph

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/pkg/errors"

	"github.com/wf4ever/rodl-go"
	"github.com/wf4ever/rodl-go/vocab"
)

// Graph is an indexed, insertion ordered set of statements.
type Graph struct {
	base       string
	statements []rodl.Statement
	seen       map[rodl.Statement]struct{}
	bySubject  map[string][]int
	byObject   map[string][]int
}

func New(base string) *Graph {
	return &Graph{
		base:      base,
		seen:      make(map[rodl.Statement]struct{}),
		bySubject: make(map[string][]int),
		byObject:  make(map[string][]int),
	}
}

// Parse reads a whole document. Relative IRIs are resolved against base.
func Parse(ctx context.Context, r io.Reader, format rdf.Format, base string) (*Graph, error) {
	reader, err := rdf.NewReader(r, format, rdf.OptContext(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create rdf reader")
	}
	defer reader.Close()

	g := New(base)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		st, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s document %s", format, base)
		}
		s, ok := rodl.StatementFromRDF(st)
		if !ok {
			continue
		}
		g.Add(g.resolve(s))
	}
	return g, nil
}

func (g *Graph) resolve(s rodl.Statement) rodl.Statement {
	if g.base == "" {
		return s
	}
	if !s.SubjectBlank {
		if abs, err := rodl.ResolveURI(g.base, s.Subject); err == nil {
			s.Subject = abs
		}
	}
	if s.ObjectIsURI {
		if abs, err := rodl.ResolveURI(g.base, s.Object); err == nil {
			s.Object = abs
		}
	}
	return s
}

// Base is the document URI the graph was loaded from.
func (g *Graph) Base() string {
	return g.base
}

func subjectKey(s rodl.Statement) string {
	if s.SubjectBlank {
		return "_:" + s.Subject
	}
	return s.Subject
}

// Add inserts s unless the same triple is already present. Unlike
// Statement.Equal, a literal and an IRI with the same text are different
// triples here, as are literals differing in language or datatype.
func (g *Graph) Add(s rodl.Statement) {
	if _, ok := g.seen[s]; ok {
		return
	}
	g.seen[s] = struct{}{}
	idx := len(g.statements)
	g.statements = append(g.statements, s)
	g.bySubject[subjectKey(s)] = append(g.bySubject[subjectKey(s)], idx)
	if s.ObjectIsURI {
		g.byObject[s.Object] = append(g.byObject[s.Object], idx)
	}
}

// Len returns the number of statements.
func (g *Graph) Len() int {
	return len(g.statements)
}

// Statements returns a copy of every statement in insertion order.
func (g *Graph) Statements() []rodl.Statement {
	out := make([]rodl.Statement, len(g.statements))
	copy(out, g.statements)
	return out
}

// About returns the statements whose subject is the given URI.
func (g *Graph) About(subject string) []rodl.Statement {
	var out []rodl.Statement
	for _, idx := range g.bySubject[subject] {
		out = append(out, g.statements[idx])
	}
	return out
}

// Objects returns the object values of (subject, property, ?o).
func (g *Graph) Objects(subject, property string) []string {
	var out []string
	for _, idx := range g.bySubject[subject] {
		if st := g.statements[idx]; st.Property == property {
			out = append(out, st.Object)
		}
	}
	return out
}

// Object returns the first object of (subject, property, ?o).
func (g *Graph) Object(subject, property string) (string, bool) {
	values := g.Objects(subject, property)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Literal returns the first literal object of (subject, property, ?o).
func (g *Graph) Literal(subject, property string) (string, bool) {
	for _, idx := range g.bySubject[subject] {
		if st := g.statements[idx]; st.Property == property && st.IsLiteral() {
			return st.Object, true
		}
	}
	return "", false
}

// Subjects returns the URI subjects of (?s, property, object).
func (g *Graph) Subjects(property, object string) []string {
	var out []string
	for _, idx := range g.byObject[object] {
		if st := g.statements[idx]; st.Property == property && !st.SubjectBlank {
			out = append(out, st.Subject)
		}
	}
	return out
}

// Types returns the rdf:type values of subject.
func (g *Graph) Types(subject string) []string {
	return g.Objects(subject, vocab.RDFType)
}

// HasType reports whether subject is typed with class.
func (g *Graph) HasType(subject, class string) bool {
	for _, t := range g.Types(subject) {
		if t == class {
			return true
		}
	}
	return false
}

// Time parses the first literal of (subject, property) as an xsd:dateTime.
func (g *Graph) Time(subject, property string) (*time.Time, bool) {
	value, ok := g.Literal(subject, property)
	if !ok {
		return nil, false
	}
	t, err := ParseDateTime(value)
	if err != nil {
		return nil, false
	}
	return &t, true
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02",
}

// ParseDateTime accepts the xsd:dateTime forms seen in manifests.
func ParseDateTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	var lastErr error
	for _, layout := range dateTimeLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Creator reads dcterms:creator of subject together with the creator's
// foaf:name when the document carries it.
func (g *Graph) Creator(subject string) *rodl.Person {
	creator, ok := g.Object(subject, vocab.DCTermsCreator)
	if !ok {
		return nil
	}
	person := &rodl.Person{URI: creator}
	if name, ok := g.Literal(creator, vocab.FOAFName); ok {
		person.Name = name
	}
	return person
}
