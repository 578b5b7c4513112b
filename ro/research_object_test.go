package ro

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wf4ever/rodl-go"
	"github.com/wf4ever/rodl-go/client"
	"github.com/wf4ever/rodl-go/internal/graph"
	"github.com/wf4ever/rodl-go/internal/testserver"
	"github.com/wf4ever/rodl-go/roevo"
	"github.com/wf4ever/rodl-go/rosrs"
	"github.com/wf4ever/rodl-go/vocab"
)

const prefixes = `@prefix rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#> .
@prefix ore: <http://www.openarchives.org/ore/terms/> .
@prefix ro: <http://purl.org/wf4ever/ro#> .
@prefix ao: <http://purl.org/ao/> .
@prefix dcterms: <http://purl.org/dc/terms/> .
@prefix foaf: <http://xmlns.com/foaf/0.1/> .
`

const scenarioManifest = prefixes + `
<http://x/ro1/> a ro:ResearchObject ;
    ore:aggregates <http://x/ro1/res1.txt>, <http://x/ro1/.ro/manifest.ttl#ann1> ;
    dcterms:creator <http://x/users/alice> ;
    dcterms:created "2012-03-01T10:00:00Z" .

<http://x/users/alice> foaf:name "Alice" .

<http://x/ro1/proxies/1> a ore:Proxy ;
    ore:proxyFor <http://x/ro1/res1.txt> ;
    ore:proxyIn <http://x/ro1/> .

<http://x/ro1/res1.txt> a ro:Resource ;
    ro:filesize "5" .

<http://x/ro1/.ro/manifest.ttl#ann1> a ro:AggregatedAnnotation ;
    ao:body <http://x/ro1/body.rdf> ;
    ro:annotatesAggregatedResource <http://x/ro1/res1.txt> .
`

const countsManifest = prefixes + `
<http://x/ro2/> a ro:ResearchObject ;
    ore:aggregates <http://x/ro2/a.txt>, <http://x/ro2/b.txt>, <http://x/ro2/f/> ,
        <http://x/ro2/ann/1>, <http://x/ro2/ann/2> ;
    ro:rootFolder <http://x/ro2/f/> .

<http://x/ro2/a.txt> a ro:Resource .
<http://x/ro2/b.txt> a ro:Resource .

<http://x/ro2/f/> a ro:Resource, ro:Folder ;
    ore:isDescribedBy <http://x/ro2/f/.folder.ttl> .

<http://x/ro2/ann/1> a ro:AggregatedAnnotation ;
    ao:body <http://x/ro2/ann/1.ttl> ;
    ro:annotatesAggregatedResource <http://x/ro2/a.txt> ;
    ro:annotatesAggregatedResource <http://x/ro2/b.txt> ;
    ao:annotatesResource <http://x/ro2/a.txt> .

<http://x/ro2/ann/2> a ro:AggregatedAnnotation ;
    ao:body <http://x/ro2/ann/2.ttl> ;
    ro:annotatesAggregatedResource <http://x/ro2/> .
`

const countsResourceMap = prefixes + `
<http://x/ro2/f/> a ro:Folder .

<http://x/ro2/entries/1> a ro:FolderEntry ;
    ore:proxyIn <http://x/ro2/f/> ;
    ore:proxyFor <http://x/ro2/b.txt> ;
    ro:entryName "bee" .
`

type fixture struct {
	srv   *testserver.Server
	c     *client.Client
	rosrs *rosrs.Service
	roevo *roevo.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := testserver.New("http://rodl.test/ROs/")
	c := client.New(client.WithTransport(srv.Transport()), client.WithCache(client.NewMemoryCache(time.Minute)))
	return &fixture{
		srv:   srv,
		c:     c,
		rosrs: rosrs.New(c, srv.Base()),
		roevo: roevo.New(c, srv.EvoURI()),
	}
}

// serve publishes a static research object whose manifest is doc.
func (f *fixture) serve(uri, doc string) {
	manifest := uri + ".ro/manifest.ttl"
	f.srv.Redirect(uri, manifest)
	f.srv.Put(manifest, vocab.MediaTypeTurtle, []byte(doc))
}

func assertPartition(t *testing.T, r *ResearchObject) {
	t.Helper()
	contained := make(map[string]bool)
	for _, f := range r.Folders() {
		for _, e := range f.Entries() {
			contained[e.Resource] = true
		}
	}
	roots := make(map[string]bool)
	for _, res := range r.RootResources() {
		roots[res.URI] = true
		if contained[res.URI] {
			t.Fatalf("root resource %s is inside a folder", res.URI)
		}
	}
	for uri := range r.Resources() {
		if !roots[uri] && !contained[uri] {
			t.Fatalf("resource %s is neither a root nor in a folder", uri)
		}
	}
	for _, f := range r.RootFolders() {
		if contained[f.URI] {
			t.Fatalf("root folder %s is inside a folder", f.URI)
		}
	}
}

func TestLoadScenario(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	fx.serve("http://x/ro1/", scenarioManifest)

	r := New("http://x/ro1/", fx.rosrs, nil)
	require.NoError(t, r.Load(ctx))
	assert.True(t, r.IsLoaded())

	resources := r.Resources()
	require.Len(t, resources, 1)
	res, ok := resources["http://x/ro1/res1.txt"]
	require.True(t, ok)
	assert.Equal(t, "http://x/ro1/proxies/1", res.ProxyURI())
	assert.Equal(t, int64(5), res.Size())
	assert.Equal(t, "res1.txt", res.Path())

	index := r.Annotations()
	require.Len(t, index["http://x/ro1/res1.txt"], 1)
	ann := index["http://x/ro1/res1.txt"][0]
	assert.Equal(t, "http://x/ro1/.ro/manifest.ttl#ann1", ann.URI)
	assert.Equal(t, "http://x/ro1/body.rdf", ann.Body())

	require.NotNil(t, r.Creator)
	assert.Equal(t, "Alice", r.Creator.Name)
	require.NotNil(t, r.Created)
	assert.Equal(t, 2012, r.Created.Year())
}

func TestLoadCounts(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	fx.serve("http://x/ro2/", countsManifest)
	fx.srv.Put("http://x/ro2/f/.folder.ttl", vocab.MediaTypeTurtle, []byte(countsResourceMap))

	r := New("http://x/ro2/", fx.rosrs, nil)
	require.NoError(t, r.Load(ctx))

	assert.Len(t, r.Resources(), 2)
	assert.Len(t, r.Folders(), 1)
	assert.Len(t, r.AllAnnotations(), 2)

	pairs := 0
	for _, anns := range r.Annotations() {
		pairs += len(anns)
	}
	assert.Equal(t, 3, pairs)

	ann, err := r.Annotation("http://x/ro2/ann/1")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://x/ro2/a.txt", "http://x/ro2/b.txt"}, ann.Targets())

	folder, err := r.Folder("http://x/ro2/f/")
	require.NoError(t, err)
	assert.True(t, folder.IsRoot())
	assert.True(t, folder.IsLoaded())
	require.Len(t, folder.Entries(), 1)
	assert.Equal(t, "bee", folder.Entries()[0].Name)

	roots := r.RootResources()
	require.Len(t, roots, 1)
	assert.Equal(t, "http://x/ro2/a.txt", roots[0].URI)
	assertPartition(t, r)

	_, err = r.Resource("http://x/ro2/missing")
	assert.ErrorIs(t, err, rodl.ErrNotFound)
}

func TestLoadRejectsUntypedResearchObject(t *testing.T) {
	fx := newFixture(t)
	fx.serve("http://x/ro3/", prefixes+`
<http://x/ro3/> ore:aggregates <http://x/ro3/a.txt> .
`)

	r := New("http://x/ro3/", fx.rosrs, nil)
	err := r.Load(context.Background())
	assert.ErrorIs(t, err, rodl.ErrInvalidManifest)
	assert.False(t, r.IsLoaded())
}

func TestFolderMembership(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	uri := fx.srv.CreateResearchObject("ro1")

	r := New(uri, fx.rosrs, nil)
	a, err := r.Aggregate(ctx, "a.txt", []byte("a"), "text/plain")
	require.NoError(t, err)
	b, err := r.Aggregate(ctx, "b.txt", []byte("b"), "text/plain")
	require.NoError(t, err)
	_, err = r.Aggregate(ctx, "c.txt", []byte("c"), "text/plain")
	require.NoError(t, err)

	outer, err := r.CreateFolder(ctx, "outer")
	require.NoError(t, err)
	inner, err := r.CreateFolder(ctx, "inner")
	require.NoError(t, err)
	assert.Len(t, r.RootFolders(), 2)

	_, err = outer.AddEntry(ctx, a, "")
	require.NoError(t, err)
	_, err = outer.AddEntry(ctx, &inner.Resource, "")
	require.NoError(t, err)
	entry, err := inner.AddEntry(ctx, b, "bee")
	require.NoError(t, err)
	assert.Equal(t, "bee", entry.Name)

	assertPartition(t, r)
	roots := r.RootResources()
	require.Len(t, roots, 1)
	assert.Equal(t, uri+"c.txt", roots[0].URI)
	require.Len(t, r.RootFolders(), 1)
	assert.Equal(t, outer.URI, r.RootFolders()[0].URI)
	assert.Equal(t, []*Folder{inner}, outer.Subfolders())
	assert.Equal(t, []*Resource{a}, outer.Resources())

	// the service agrees after a fresh load
	fresh := New(uri, fx.rosrs, nil)
	require.NoError(t, fresh.Load(ctx))
	assert.Len(t, fresh.Resources(), 3)
	assert.Len(t, fresh.AllFolders(), 2)
	assertPartition(t, fresh)
	require.Len(t, fresh.RootResources(), 1)
	assert.Equal(t, uri+"c.txt", fresh.RootResources()[0].URI)

	require.NoError(t, inner.RemoveEntry(ctx, entry))
	assertPartition(t, r)
	assert.Len(t, r.RootResources(), 2)

	require.NoError(t, outer.Delete(ctx))
	assertPartition(t, r)
	assert.Len(t, r.RootResources(), 3)
	require.Len(t, r.RootFolders(), 1)
	assert.Equal(t, inner.URI, r.RootFolders()[0].URI)
}

func TestAddEntryConflictWithoutLocation(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	uri := fx.srv.CreateResearchObject("ro1")

	r := New(uri, fx.rosrs, nil)
	a, err := r.Aggregate(ctx, "a.txt", []byte("a"), "text/plain")
	require.NoError(t, err)
	folder, err := r.CreateFolder(ctx, "docs")
	require.NoError(t, err)

	// another client files the resource first
	other := New(uri, fx.rosrs, nil)
	require.NoError(t, other.Load(ctx))
	otherFolder, err := other.Folder(folder.URI)
	require.NoError(t, err)
	otherA, err := other.Resource(a.URI)
	require.NoError(t, err)
	existing, err := otherFolder.AddEntry(ctx, otherA, "first")
	require.NoError(t, err)

	fx.srv.BareConflicts(true)
	entry, err := folder.AddEntry(ctx, a, "second")
	require.NoError(t, err)
	assert.Equal(t, existing.URI, entry.URI)
	assert.Equal(t, "first", entry.Name)
	assert.Equal(t, a.URI, entry.Resource)

	entries := folder.Entries()
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].URI)
	assertPartition(t, r)
	assert.Empty(t, r.RootResources())
}

func TestDeleteResourceKeepsOrphanedAnnotation(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	uri := fx.srv.CreateResearchObject("ro1")

	r := New(uri, fx.rosrs, nil)
	res, err := r.Aggregate(ctx, "res1.txt", []byte("hello"), "text/plain")
	require.NoError(t, err)
	folder, err := r.CreateFolder(ctx, "folder")
	require.NoError(t, err)
	_, err = folder.AddEntry(ctx, res, "")
	require.NoError(t, err)
	ann, err := r.AnnotateStatements(ctx, res.URI, []rodl.Statement{
		rodl.NewLiteralStatement(res.URI, vocab.DCTermsTitle, "Hello"),
	})
	require.NoError(t, err)
	require.Len(t, res.Annotations(), 1)

	require.NoError(t, res.Delete(ctx))

	if _, ok := r.Resources()[res.URI]; ok {
		t.Fatalf("resource still aggregated")
	}
	for _, root := range r.RootResources() {
		if root.URI == res.URI {
			t.Fatalf("resource still a root resource")
		}
	}
	assert.Empty(t, folder.Entries())
	assert.Empty(t, ann.Targets())
	assert.Empty(t, r.AnnotationsFor(res.URI))
	assert.Equal(t, []*Annotation{ann}, r.AllAnnotations())
	assert.False(t, fx.srv.Exists(res.URI))
}

func TestAnnotationBody(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	uri := fx.srv.CreateResearchObject("ro1")

	r := New(uri, fx.rosrs, nil)
	res, err := r.Aggregate(ctx, "res1.txt", []byte("hello"), "text/plain")
	require.NoError(t, err)
	body := prefixes + `
<` + res.URI + `> dcterms:title "First", "Second" ;
    dcterms:subject <http://example.org/topic> .
`
	_, err = r.Annotate(ctx, []string{res.URI}, "meta.ttl", []byte(body), vocab.MediaTypeTurtle)
	require.NoError(t, err)

	fresh := New(uri, fx.rosrs, nil)
	require.NoError(t, fresh.Load(ctx))
	anns := fresh.AnnotationsFor(res.URI)
	require.Len(t, anns, 1)
	ann := anns[0]
	assert.Equal(t, uri+"meta.ttl", ann.Body())

	_, err = ann.Statements()
	assert.ErrorIs(t, err, rodl.ErrNotLoaded)
	_, err = ann.MergedValue(res.URI, vocab.DCTermsTitle)
	assert.ErrorIs(t, err, rodl.ErrNotLoaded)

	require.NoError(t, ann.Load(ctx))
	values, err := ann.PropertyValues(res.URI, vocab.DCTermsTitle)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"First", "Second"}, values)
	merged, err := ann.MergedValue(res.URI, vocab.DCTermsTitle)
	require.NoError(t, err)
	assert.Len(t, merged, len("First; Second"))
	assert.Contains(t, merged, "; ")

	triples, err := ann.Triples(res.URI, vocab.DCTermsSubject)
	require.NoError(t, err)
	require.Len(t, triples, 1)
	assert.False(t, triples[0].IsLiteral())

	before := len(fx.srv.Requests())
	require.NoError(t, triples[0].Delete(ctx))
	assert.Len(t, fx.srv.Requests(), before)
}

func TestAnnotationTripleEditing(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	uri := fx.srv.CreateResearchObject("ro1")

	r := New(uri, fx.rosrs, nil)
	res, err := r.Aggregate(ctx, "res1.txt", []byte("hello"), "text/plain")
	require.NoError(t, err)
	ann, err := r.AnnotateStatements(ctx, res.URI, []rodl.Statement{
		rodl.NewLiteralStatement(res.URI, vocab.DCTermsTitle, "Title"),
		rodl.NewLiteralStatement(res.URI, vocab.DCTermsDescription, "Description"),
	})
	require.NoError(t, err)
	require.True(t, ann.IsLoaded())

	titles, err := ann.Triples(res.URI, vocab.DCTermsTitle)
	require.NoError(t, err)
	require.Len(t, titles, 1)
	require.NoError(t, titles[0].SetValue(ctx, "Better title"))
	assert.Equal(t, 1, fx.srv.Count(http.MethodPut, ann.Body()))
	value, err := ann.MergedValue(res.URI, vocab.DCTermsTitle)
	require.NoError(t, err)
	assert.Equal(t, "Better title", value)
	content, ok := fx.srv.Content(ann.Body())
	require.True(t, ok)
	assert.Contains(t, string(content), "Better title")

	// one of two statements goes: the reduced body is uploaded
	require.NoError(t, titles[0].Delete(ctx))
	assert.Equal(t, 2, fx.srv.Count(http.MethodPut, ann.Body()))
	assert.True(t, fx.srv.Exists(ann.URI))
	statements, err := ann.Statements()
	require.NoError(t, err)
	require.Len(t, statements, 1)

	// the last statement goes: the annotation and its body are deleted
	descriptions, err := ann.Triples(res.URI, vocab.DCTermsDescription)
	require.NoError(t, err)
	require.Len(t, descriptions, 1)
	require.NoError(t, descriptions[0].Delete(ctx))
	assert.Equal(t, 2, fx.srv.Count(http.MethodPut, ann.Body()))
	assert.Equal(t, 1, fx.srv.Count(http.MethodDelete, ann.URI))
	assert.False(t, fx.srv.Exists(ann.URI))
	assert.False(t, fx.srv.Exists(ann.Body()))
	assert.Empty(t, r.AllAnnotations())
}

func TestEditingKeepsOtherLiterals(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	uri := fx.srv.CreateResearchObject("ro1")

	r := New(uri, fx.rosrs, nil)
	res, err := r.Aggregate(ctx, "res1.txt", []byte("hello"), "text/plain")
	require.NoError(t, err)
	body := prefixes + `@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .
<` + res.URI + `> dcterms:title "Titel"@de ;
    dcterms:created "2012-03-01T10:00:00Z"^^xsd:dateTime ;
    dcterms:description "old"@en .
`
	_, err = r.Annotate(ctx, []string{res.URI}, "meta.ttl", []byte(body), vocab.MediaTypeTurtle)
	require.NoError(t, err)

	fresh := New(uri, fx.rosrs, nil)
	require.NoError(t, fresh.Load(ctx))
	anns := fresh.AnnotationsFor(res.URI)
	require.Len(t, anns, 1)
	ann := anns[0]
	require.NoError(t, ann.Load(ctx))

	descriptions, err := ann.Triples(res.URI, vocab.DCTermsDescription)
	require.NoError(t, err)
	require.Len(t, descriptions, 1)
	require.NoError(t, descriptions[0].SetValue(ctx, "new"))

	content, ok := fx.srv.Content(ann.Body())
	require.True(t, ok)
	uploaded, err := graph.Parse(ctx, bytes.NewReader(content), graph.FormatForPath(ann.Body()), ann.Body())
	require.NoError(t, err)

	byProperty := make(map[string]rodl.Statement)
	for _, st := range uploaded.Statements() {
		byProperty[st.Property] = st
	}
	require.Len(t, byProperty, 3)
	assert.Equal(t, "Titel", byProperty[vocab.DCTermsTitle].Object)
	assert.Equal(t, "de", byProperty[vocab.DCTermsTitle].Lang)
	assert.Equal(t, "2012-03-01T10:00:00Z", byProperty[vocab.DCTermsCreated].Object)
	assert.Equal(t, vocab.XSDNamespace+"dateTime", byProperty[vocab.DCTermsCreated].Datatype)
	assert.Equal(t, "new", byProperty[vocab.DCTermsDescription].Object)
	assert.Equal(t, "en", byProperty[vocab.DCTermsDescription].Lang)

	// deleting a value re-uploads the rest untouched as well
	require.NoError(t, descriptions[0].Delete(ctx))
	content, ok = fx.srv.Content(ann.Body())
	require.True(t, ok)
	uploaded, err = graph.Parse(ctx, bytes.NewReader(content), graph.FormatForPath(ann.Body()), ann.Body())
	require.NoError(t, err)
	require.Equal(t, 2, uploaded.Len())
	for _, st := range uploaded.Statements() {
		switch st.Property {
		case vocab.DCTermsTitle:
			assert.Equal(t, "de", st.Lang)
		case vocab.DCTermsCreated:
			assert.Equal(t, vocab.XSDNamespace+"dateTime", st.Datatype)
		default:
			t.Fatalf("unexpected statement %+v", st)
		}
	}
}

func TestRemoveTarget(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	uri := fx.srv.CreateResearchObject("ro1")

	r := New(uri, fx.rosrs, nil)
	res, err := r.Aggregate(ctx, "res1.txt", []byte("hello"), "text/plain")
	require.NoError(t, err)
	ann, err := r.Annotate(ctx, []string{res.URI, uri}, "about.txt", []byte("about"), "text/plain")
	require.NoError(t, err)
	require.Len(t, r.AnnotationsFor(uri), 1)

	require.NoError(t, ann.RemoveTarget(ctx, uri))
	assert.Equal(t, []string{res.URI}, ann.Targets())
	assert.Empty(t, r.AnnotationsFor(uri))
	assert.Len(t, r.AnnotationsFor(res.URI), 1)
}

func TestCreateAndDelete(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	r, err := Create(ctx, fx.rosrs, nil, "fresh")
	require.NoError(t, err)
	assert.Equal(t, fx.srv.Base()+"fresh/", r.URI)
	assert.True(t, r.IsLoaded())
	require.NotNil(t, r.Creator)
	assert.Equal(t, testserver.User, r.Creator.URI)

	_, err = r.Aggregate(ctx, "a.txt", []byte("a"), "text/plain")
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx))
	assert.False(t, r.IsLoaded())
	assert.Empty(t, r.Resources())
	assert.False(t, fx.srv.Exists(fx.srv.Base()+"fresh/"))
}

func TestMutatorLoadsFirst(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	uri := fx.srv.CreateResearchObject("ro1")
	_, err := fx.rosrs.AggregateInternalResource(ctx, uri, "old.txt", []byte("old"), "text/plain")
	require.NoError(t, err)

	r := New(uri, fx.rosrs, nil)
	_, err = r.Aggregate(ctx, "new.txt", []byte("new"), "text/plain")
	require.NoError(t, err)
	assert.True(t, r.IsManifestLoaded())
	assert.Len(t, r.Resources(), 2)
}

func TestResolveCreator(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	person := "http://rodl.test/users/bob"
	fx.srv.Put(person, vocab.MediaTypeTurtle, []byte(prefixes+`<`+person+`> foaf:name "Bob" .`))

	l := ResolveCreator(ctx, fx.c, person)
	select {
	case <-l.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("creator lookup did not finish")
	}
	assert.False(t, l.Loading())
	require.NoError(t, l.Err())
	assert.Equal(t, "Bob", l.Name())
	assert.Equal(t, &rodl.Person{URI: person, Name: "Bob"}, l.Person())

	// the second lookup is answered from memory
	before := len(fx.srv.Requests())
	again := ResolveCreator(ctx, fx.c, person)
	<-again.Done()
	assert.Equal(t, "Bob", again.Name())
	assert.Len(t, fx.srv.Requests(), before)
}

func TestResolveCreatorFailure(t *testing.T) {
	fx := newFixture(t)
	person := "http://rodl.test/users/nobody"

	l := ResolveCreator(context.Background(), fx.c, person)
	<-l.Done()
	assert.Error(t, l.Err())
	assert.Equal(t, person, l.Name())
}

func TestEvolution(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	uri := fx.srv.CreateResearchObject("live")

	live := New(uri, fx.rosrs, fx.roevo)
	job, err := live.Snapshot(ctx, "snap1", true)
	require.NoError(t, err)
	assert.Equal(t, roevo.StateRunning, job.Status)
	require.NoError(t, job.Wait(ctx, time.Millisecond))
	assert.Equal(t, roevo.StateDone, job.Status)

	job, err = live.Snapshot(ctx, "snap2", true)
	require.NoError(t, err)
	require.NoError(t, job.Wait(ctx, time.Millisecond))

	job, err = live.Archive(ctx, "arch1", true)
	require.NoError(t, err)
	require.NoError(t, job.Wait(ctx, time.Millisecond))

	require.NoError(t, live.LoadEvolutionInformation(ctx))
	assert.True(t, live.IsEvolutionLoaded())
	assert.Equal(t, roevo.TypeLive, live.EvoType())
	base := fx.srv.Base()
	assert.Equal(t, []string{base + "snap1/", base + "snap2/"}, live.Snapshots())
	assert.Equal(t, []string{base + "arch1/"}, live.Archives())
	assert.Nil(t, live.LiveRO())

	snap := New(base+"snap2/", fx.rosrs, fx.roevo)
	require.NoError(t, snap.LoadEvolutionInformation(ctx))
	assert.Equal(t, roevo.TypeSnapshot, snap.EvoType())
	require.NotNil(t, snap.LiveRO())
	assert.Equal(t, uri, snap.LiveRO().URI)
	assert.False(t, snap.LiveRO().IsLoaded())
	assert.Equal(t, base+"snap1/", snap.PreviousSnapshot())

	require.NoError(t, snap.Load(ctx))
	assert.Equal(t, roevo.TypeSnapshot, snap.EvoType())
}

func TestEvolutionWithoutService(t *testing.T) {
	fx := newFixture(t)
	r := New(fx.srv.CreateResearchObject("ro1"), fx.rosrs, nil)
	assert.ErrorIs(t, r.LoadEvolutionInformation(context.Background()), ErrNoEvolutionService)
	_, err := r.Snapshot(context.Background(), "s", false)
	assert.ErrorIs(t, err, ErrNoEvolutionService)
}
