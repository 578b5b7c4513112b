package search

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wf4ever/rodl-go/client"
)

func serve(t *testing.T, register func(e *echo.Echo)) string {
	t.Helper()
	e := echo.New()
	register(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv.URL
}

const solrBody = `{
  "response": {
    "numFound": 42,
    "start": 0,
    "docs": [
      {
        "uri": "http://sandbox/ROs/ro1/",
        "title": ["Workflow results"],
        "creator": ["Alice", "Bob"],
        "created": "2012-03-01T10:00:00Z",
        "description": "Outputs of a run",
        "score": 1.5
      },
      {"uri": "http://sandbox/ROs/ro2/", "score": 0.5}
    ]
  },
  "facet_counts": {
    "facet_fields": {"creator": ["Alice", 3, "Bob", 1]}
  }
}`

func TestSolrSearch(t *testing.T) {
	var query url.Values
	base := serve(t, func(e *echo.Echo) {
		e.GET("/solr/select", func(c echo.Context) error {
			query = c.QueryParams()
			return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(solrBody))
		})
	})

	s := NewSolr(client.New(), base+"/solr")
	result, err := s.Search(context.Background(), Query{Text: "workflow", Rows: 2, Start: 4, Facets: []string{"creator"}})
	require.NoError(t, err)

	assert.Equal(t, "workflow", query.Get("q"))
	assert.Equal(t, "json", query.Get("wt"))
	assert.Equal(t, "2", query.Get("rows"))
	assert.Equal(t, "4", query.Get("start"))
	assert.Equal(t, []string{"creator"}, query["facet.field"])

	assert.Equal(t, 42, result.Total)
	require.Len(t, result.Items, 2)
	first := result.Items[0]
	assert.Equal(t, "http://sandbox/ROs/ro1/", first.URI)
	assert.Equal(t, "Workflow results", first.Title)
	assert.Equal(t, []string{"Alice", "Bob"}, first.Creators)
	assert.Equal(t, "Outputs of a run", first.Description)
	assert.InDelta(t, 1.5, first.Score, 1e-9)
	require.NotNil(t, first.Created)
	assert.Equal(t, 2012, first.Created.Year())
	assert.Nil(t, result.Items[1].Created)

	assert.Equal(t, []FacetValue{{Value: "Alice", Count: 3}, {Value: "Bob", Count: 1}}, result.Facets["creator"])
}

func TestSolrError(t *testing.T) {
	base := serve(t, func(e *echo.Echo) {
		e.GET("/solr/select", func(c echo.Context) error {
			return c.String(http.StatusInternalServerError, "boom")
		})
	})
	_, err := NewSolr(client.New(), base+"/solr/").Search(context.Background(), Query{Text: "x"})
	assert.Error(t, err)
}

const atomBody = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"
      xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/"
      xmlns:relevance="http://a9.com/-/opensearch/extensions/relevance/1.0/">
  <title>Search results</title>
  <id>urn:search</id>
  <updated>2012-03-02T00:00:00Z</updated>
  <opensearch:totalResults>7</opensearch:totalResults>
  <entry>
    <title>Genomics study</title>
    <id>urn:ro1</id>
    <link href="http://sandbox/ROs/ro1/"/>
    <author><name>Alice</name></author>
    <published>2012-03-01T10:00:00Z</published>
    <updated>2012-03-01T11:00:00Z</updated>
    <summary>A study</summary>
    <relevance:score>0.75</relevance:score>
  </entry>
</feed>`

func TestOpenSearch(t *testing.T) {
	var query url.Values
	base := serve(t, func(e *echo.Echo) {
		e.GET("/opensearch", func(c echo.Context) error {
			query = c.QueryParams()
			return c.Blob(http.StatusOK, "application/atom+xml", []byte(atomBody))
		})
	})

	s, err := NewOpenSearch(client.New(), base+"/opensearch?q={searchTerms}&count={count}&startIndex={startIndex}")
	require.NoError(t, err)
	result, err := s.Search(context.Background(), Query{Text: "genomics study"})
	require.NoError(t, err)

	assert.Equal(t, "genomics study", query.Get("q"))
	assert.Equal(t, "20", query.Get("count"))
	assert.Equal(t, 7, result.Total)
	require.Len(t, result.Items, 1)
	item := result.Items[0]
	assert.Equal(t, "http://sandbox/ROs/ro1/", item.URI)
	assert.Equal(t, "Genomics study", item.Title)
	assert.Equal(t, []string{"Alice"}, item.Creators)
	assert.InDelta(t, 0.75, item.Score, 1e-9)
	require.NotNil(t, item.Created)
	assert.Equal(t, 10, item.Created.Hour())
}

func TestOpenSearchInvalidTemplate(t *testing.T) {
	_, err := NewOpenSearch(client.New(), "http://x/{searchTerms")
	assert.Error(t, err)
}

const sparqlBody = `{
  "head": {"vars": ["ro", "title", "description", "creator", "created"]},
  "results": {"bindings": [
    {"ro": {"type": "uri", "value": "http://sandbox/ROs/b/"},
     "title": {"type": "literal", "value": "Beta"},
     "creator": {"type": "uri", "value": "http://sandbox/users/alice"}},
    {"ro": {"type": "uri", "value": "http://sandbox/ROs/b/"},
     "title": {"type": "literal", "value": "Beta"},
     "creator": {"type": "uri", "value": "http://sandbox/users/bob"},
     "created": {"type": "literal", "value": "2013-01-01T00:00:00Z"}},
    {"ro": {"type": "uri", "value": "http://sandbox/ROs/a/"},
     "title": {"type": "literal", "value": "Alpha"}}
  ]}
}`

func TestSparqlSearch(t *testing.T) {
	var received string
	base := serve(t, func(e *echo.Echo) {
		e.POST("/sparql", func(c echo.Context) error {
			body, _ := io.ReadAll(c.Request().Body)
			form, _ := url.ParseQuery(string(body))
			received = form.Get("query")
			if !strings.Contains(c.Request().Header.Get("Accept"), mediaTypeSparqlResults) {
				return c.NoContent(http.StatusNotAcceptable)
			}
			return c.Blob(http.StatusOK, mediaTypeSparqlResults, []byte(sparqlBody))
		})
	})

	s := NewSparql(client.New(), base+"/sparql")
	result, err := s.Search(context.Background(), Query{Text: `say "hi"`})
	require.NoError(t, err)
	assert.Contains(t, received, `LCASE("say \"hi\"")`)

	assert.Equal(t, 2, result.Total)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "http://sandbox/ROs/a/", result.Items[0].URI)
	beta := result.Items[1]
	assert.Equal(t, "Beta", beta.Title)
	assert.Equal(t, []string{"http://sandbox/users/alice", "http://sandbox/users/bob"}, beta.Creators)
	require.NotNil(t, beta.Created)

	paged, err := s.Search(context.Background(), Query{Text: "x", Rows: 1, Start: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, paged.Total)
	require.Len(t, paged.Items, 1)
	assert.Equal(t, "http://sandbox/ROs/b/", paged.Items[0].URI)
}
