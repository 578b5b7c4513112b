package graph

import (
	"context"
	"strings"
	"testing"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wf4ever/rodl-go"
	"github.com/wf4ever/rodl-go/vocab"
)

const turtleDoc = `@prefix ore: <http://www.openarchives.org/ore/terms/> .
@prefix ro: <http://purl.org/wf4ever/ro#> .
@prefix dcterms: <http://purl.org/dc/terms/> .
@prefix foaf: <http://xmlns.com/foaf/0.1/> .

<http://x/ro1/> a ro:ResearchObject ;
    ore:aggregates <http://x/ro1/a.txt>, <http://x/ro1/b.txt> ;
    dcterms:creator <http://x/people/alice> ;
    dcterms:created "2012-03-01T10:00:00Z" .

<http://x/people/alice> foaf:name "Alice" .
<http://x/ro1/a.txt> a ro:Resource .
<http://x/ro1/b.txt> a ro:Resource .
`

func TestParseTurtle(t *testing.T) {
	g, err := Parse(context.Background(), strings.NewReader(turtleDoc), rdf.FormatTurtle, "http://x/ro1/")
	require.NoError(t, err)

	assert.True(t, g.HasType("http://x/ro1/", vocab.ROResearchObject))
	assert.Equal(t, []string{"http://x/ro1/a.txt", "http://x/ro1/b.txt"}, g.Objects("http://x/ro1/", vocab.OREAggregates))
	assert.Equal(t, []string{"http://x/ro1/"}, g.Subjects(vocab.OREAggregates, "http://x/ro1/b.txt"))

	created, ok := g.Time("http://x/ro1/", vocab.DCTermsCreated)
	require.True(t, ok)
	assert.Equal(t, 2012, created.Year())

	creator := g.Creator("http://x/ro1/")
	require.NotNil(t, creator)
	assert.Equal(t, "http://x/people/alice", creator.URI)
	assert.Equal(t, "Alice", creator.Name)
}

func TestAddDeduplicates(t *testing.T) {
	g := New("")
	st := rodl.NewLiteralStatement("http://x/a", vocab.DCTermsTitle, "A")
	g.Add(st)
	g.Add(st)
	assert.Equal(t, 1, g.Len())

	title, ok := g.Literal("http://x/a", vocab.DCTermsTitle)
	assert.True(t, ok)
	assert.Equal(t, "A", title)

	_, ok = g.Literal("http://x/a", vocab.DCTermsDescription)
	assert.False(t, ok)
}

func TestAddKeepsLiteralAndIRIApart(t *testing.T) {
	g := New("")
	g.Add(rodl.NewLiteralStatement("http://x/a", vocab.DCTermsSubject, "http://x/b"))
	g.Add(rodl.NewResourceStatement("http://x/a", vocab.DCTermsSubject, "http://x/b"))
	tagged := rodl.NewLiteralStatement("http://x/a", vocab.DCTermsSubject, "http://x/b")
	tagged.Lang = "en"
	g.Add(tagged)
	require.Equal(t, 3, g.Len())

	assert.Equal(t, []string{"http://x/a"}, g.Subjects(vocab.DCTermsSubject, "http://x/b"))
	data, err := Encode(g.Statements(), rdf.FormatNTriples)
	require.NoError(t, err)
	back, err := Parse(context.Background(), strings.NewReader(string(data)), rdf.FormatNTriples, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, g.Statements(), back.Statements())
}

func TestEncodeRoundTrip(t *testing.T) {
	statements := []rodl.Statement{
		rodl.NewLiteralStatement("http://x/ro1/a.txt", vocab.DCTermsTitle, "A title"),
		rodl.NewResourceStatement("http://x/ro1/a.txt", vocab.DCTermsCreator, "http://x/people/alice"),
	}
	data, err := Encode(statements, rdf.FormatTurtle)
	require.NoError(t, err)

	g, err := Parse(context.Background(), strings.NewReader(string(data)), rdf.FormatTurtle, "")
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())
	assert.ElementsMatch(t, statements, g.Statements())
}

func TestFormatForMediaType(t *testing.T) {
	format, ok := FormatForMediaType("application/rdf+xml; charset=UTF-8")
	assert.True(t, ok)
	assert.Equal(t, rdf.FormatRDFXML, format)

	format, ok = FormatForMediaType("application/trig")
	assert.True(t, ok)
	assert.Equal(t, rdf.FormatTriG, format)

	_, ok = FormatForMediaType("image/png")
	assert.False(t, ok)

	assert.Equal(t, rdf.FormatTurtle, FormatForPath("body.ttl"))
	assert.Equal(t, rdf.FormatRDFXML, FormatForPath("body"))
}

func TestParseDateTime(t *testing.T) {
	for _, value := range []string{"2012-03-01T10:00:00Z", "2012-03-01T10:00:00.123+01:00", "2012-03-01"} {
		_, err := ParseDateTime(value)
		assert.NoError(t, err, value)
	}
	_, err := ParseDateTime("yesterday")
	assert.Error(t, err)
}
