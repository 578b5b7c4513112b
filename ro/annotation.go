package ro

import (
	"context"
	"sort"
	"strings"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/wf4ever/rodl-go"
	"github.com/wf4ever/rodl-go/internal/graph"
	"github.com/wf4ever/rodl-go/rosrs"
	"github.com/wf4ever/rodl-go/vocab"
)

// Annotation links a body document with statements to the resources the
// statements are about.
type Annotation struct {
	rodl.Thing

	ro      *ResearchObject
	body    string
	targets map[string]struct{}

	loaded     bool
	format     rdf.Format
	statements []rodl.Statement
}

func (a *Annotation) ResearchObject() *ResearchObject {
	return a.ro
}

// Body is the URI of the annotation body document.
func (a *Annotation) Body() string {
	a.ro.mu.RLock()
	defer a.ro.mu.RUnlock()
	return a.body
}

// Targets returns the annotated URIs, sorted.
func (a *Annotation) Targets() []string {
	a.ro.mu.RLock()
	defer a.ro.mu.RUnlock()
	out := make([]string, 0, len(a.targets))
	for t := range a.targets {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (a *Annotation) IsLoaded() bool {
	a.ro.mu.RLock()
	defer a.ro.mu.RUnlock()
	return a.loaded
}

// Load fetches and parses the body document.
func (a *Annotation) Load(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "RO.Annotation.Load")
	defer span.End()

	body := a.Body()
	doc, err := a.ro.rosrs.GetResource(ctx, body, rosrs.ManifestAccept)
	if err != nil {
		span.RecordError(errors.Wrap(err, "RO.Annotation.Load"))
		return err
	}
	g, err := rosrs.ParseDocument(ctx, doc)
	if err != nil {
		span.RecordError(err)
		return err
	}
	format, ok := graph.FormatForMediaType(doc.ContentType)
	if !ok {
		format = graph.FormatForPath(body)
	}

	a.ro.mu.Lock()
	defer a.ro.mu.Unlock()
	a.statements = g.Statements()
	a.format = format
	a.loaded = true
	return nil
}

// Statements returns the statements of the body. It fails with
// rodl.ErrNotLoaded before Load.
func (a *Annotation) Statements() ([]rodl.Statement, error) {
	a.ro.mu.RLock()
	defer a.ro.mu.RUnlock()
	if !a.loaded {
		return nil, rodl.NotLoadedError{Object: "annotation " + a.URI}
	}
	return append([]rodl.Statement(nil), a.statements...), nil
}

// Triples returns one AnnotationTriple per value of property about subject.
func (a *Annotation) Triples(subject, property string) ([]*AnnotationTriple, error) {
	statements, err := a.Statements()
	if err != nil {
		return nil, err
	}
	var out []*AnnotationTriple
	for _, st := range statements {
		if st.Subject == subject && !st.SubjectBlank && st.Property == property {
			out = append(out, &AnnotationTriple{Annotation: a, statement: st})
		}
	}
	return out, nil
}

// PropertyValues lists the values of property about subject.
func (a *Annotation) PropertyValues(subject, property string) ([]string, error) {
	triples, err := a.Triples(subject, property)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(triples))
	for _, t := range triples {
		out = append(out, t.Value())
	}
	return out, nil
}

// MergedValue joins the values of property about subject for display.
func (a *Annotation) MergedValue(subject, property string) (string, error) {
	values, err := a.PropertyValues(subject, property)
	if err != nil {
		return "", err
	}
	return strings.Join(values, "; "), nil
}

// upload replaces the body document with the current statements.
func (a *Annotation) upload(ctx context.Context, statements []rodl.Statement, format rdf.Format) error {
	data, err := graph.Encode(statements, format)
	if err != nil {
		return err
	}
	return a.ro.rosrs.UpdateResource(ctx, a.Body(), data, graph.MediaTypeForFormat(format))
}

// Delete deletes the annotation and its body and removes it from the
// research object.
func (a *Annotation) Delete(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "RO.Annotation.Delete")
	defer span.End()

	if err := a.ro.ensureLoaded(ctx); err != nil {
		span.RecordError(err)
		return err
	}
	if err := a.ro.rosrs.DeleteAnnotationAndBody(ctx, a.URI); err != nil {
		span.RecordError(errors.Wrap(err, "RO.Annotation.Delete"))
		return err
	}
	a.ro.rosrs.Client().Invalidate(ctx, a.ro.URI, a.Body())

	a.ro.mu.Lock()
	defer a.ro.mu.Unlock()
	delete(a.ro.annotations, a.URI)
	delete(a.ro.resources, a.body)
	a.ro.recompute()
	return nil
}

// RemoveTarget stops annotating target. The annotation is kept even when
// no target is left.
func (a *Annotation) RemoveTarget(ctx context.Context, target string) error {
	ctx, span := tracer.Start(ctx, "RO.Annotation.RemoveTarget")
	defer span.End()

	var remaining []string
	for _, t := range a.Targets() {
		if t != target {
			remaining = append(remaining, t)
		}
	}
	if err := a.ro.rosrs.UpdateAnnotation(ctx, a.URI, a.Body(), remaining); err != nil {
		span.RecordError(errors.Wrap(err, "RO.Annotation.RemoveTarget"))
		return err
	}
	a.ro.rosrs.Client().Invalidate(ctx, a.ro.URI)

	a.ro.mu.Lock()
	defer a.ro.mu.Unlock()
	delete(a.targets, target)
	return nil
}

// AnnotationTriple is one property value inside an annotation body.
type AnnotationTriple struct {
	Annotation *Annotation
	statement  rodl.Statement
}

func (t *AnnotationTriple) Subject() string {
	return t.statement.Subject
}

func (t *AnnotationTriple) Property() string {
	return t.statement.Property
}

func (t *AnnotationTriple) Value() string {
	return t.statement.Object
}

// IsLiteral reports whether the value is a literal rather than a URI.
func (t *AnnotationTriple) IsLiteral() bool {
	return t.statement.IsLiteral()
}

// SetValue replaces the value with a literal and uploads the body. A language
// tag on the old literal is kept; a datatype is not, since the new lexical
// form need not be valid for it.
func (t *AnnotationTriple) SetValue(ctx context.Context, value string) error {
	ctx, span := tracer.Start(ctx, "RO.AnnotationTriple.SetValue")
	defer span.End()

	a := t.Annotation
	a.ro.mu.RLock()
	if !a.loaded {
		a.ro.mu.RUnlock()
		return rodl.NotLoadedError{Object: "annotation " + a.URI}
	}
	replacement := rodl.NewLiteralStatement(t.statement.Subject, t.statement.Property, value)
	if t.statement.IsLiteral() {
		replacement.Lang = t.statement.Lang
	}
	next := make([]rodl.Statement, 0, len(a.statements)+1)
	seen := make(map[rodl.StatementKey]struct{})
	replaced := false
	for _, st := range a.statements {
		if st.Equal(t.statement) {
			st = replacement
			replaced = true
		}
		if _, dup := seen[st.Key()]; dup {
			continue
		}
		seen[st.Key()] = struct{}{}
		next = append(next, st)
	}
	if !replaced {
		if _, dup := seen[replacement.Key()]; !dup {
			next = append(next, replacement)
		}
	}
	format := a.format
	a.ro.mu.RUnlock()

	if err := a.upload(ctx, next, format); err != nil {
		span.RecordError(errors.Wrap(err, "RO.AnnotationTriple.SetValue"))
		return err
	}

	a.ro.mu.Lock()
	defer a.ro.mu.Unlock()
	a.statements = next
	t.statement = replacement
	return nil
}

// Delete removes the value from the body. Only literal values are removed;
// for a URI value Delete does nothing. When the last statement goes the
// whole annotation is deleted with its body instead of uploading an empty
// document.
func (t *AnnotationTriple) Delete(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "RO.AnnotationTriple.Delete")
	defer span.End()

	if !t.statement.IsLiteral() {
		return nil
	}
	a := t.Annotation
	a.ro.mu.RLock()
	if !a.loaded {
		a.ro.mu.RUnlock()
		return rodl.NotLoadedError{Object: "annotation " + a.URI}
	}
	next := make([]rodl.Statement, 0, len(a.statements))
	for _, st := range a.statements {
		if !st.Equal(t.statement) {
			next = append(next, st)
		}
	}
	format := a.format
	a.ro.mu.RUnlock()

	if len(next) == 0 {
		return a.Delete(ctx)
	}
	if err := a.upload(ctx, next, format); err != nil {
		span.RecordError(errors.Wrap(err, "RO.AnnotationTriple.Delete"))
		return err
	}

	a.ro.mu.Lock()
	defer a.ro.mu.Unlock()
	a.statements = next
	return nil
}

// Annotate uploads content as an annotation body at path annotating
// targets.
func (ro *ResearchObject) Annotate(ctx context.Context, targets []string, path string, content []byte, contentType string) (*Annotation, error) {
	ctx, span := tracer.Start(ctx, "RO.Annotate")
	defer span.End()

	if err := ro.ensureLoaded(ctx); err != nil {
		span.RecordError(err)
		return nil, err
	}
	created, err := ro.rosrs.AnnotateWithContent(ctx, ro.URI, targets, path, content, contentType)
	if err != nil {
		span.RecordError(errors.Wrap(err, "RO.Annotate"))
		return nil, err
	}

	ann := &Annotation{
		Thing: rodl.Thing{
			URI:     created.URI,
			Creator: created.Creator,
			Created: created.Created,
		},
		ro:      ro,
		body:    created.Body,
		targets: make(map[string]struct{}, len(targets)),
	}
	for _, t := range targets {
		ann.targets[t] = struct{}{}
	}

	ro.mu.Lock()
	defer ro.mu.Unlock()
	ro.annotations[ann.URI] = ann
	return ann, nil
}

// AnnotateStatements creates an annotation of target whose body holds
// statements, serialised as Turtle under .ro/ with a random name.
func (ro *ResearchObject) AnnotateStatements(ctx context.Context, target string, statements []rodl.Statement) (*Annotation, error) {
	data, err := graph.Encode(statements, rdf.FormatTurtle)
	if err != nil {
		return nil, err
	}
	path := ".ro/" + uuid.NewString() + ".ttl"
	ann, err := ro.Annotate(ctx, []string{target}, path, data, vocab.MediaTypeTurtle)
	if err != nil {
		return nil, err
	}

	ro.mu.Lock()
	defer ro.mu.Unlock()
	ann.statements = append([]rodl.Statement(nil), statements...)
	ann.format = rdf.FormatTurtle
	ann.loaded = true
	return ann, nil
}
