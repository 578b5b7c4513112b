package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/wf4ever/rodl-go/client"
	"github.com/wf4ever/rodl-go/internal/graph"
	"github.com/wf4ever/rodl-go/vocab"
)

const mediaTypeSparqlResults = "application/sparql-results+json"

// SparqlSearcher matches research object titles and descriptions with a
// SELECT over a SPARQL endpoint.
type SparqlSearcher struct {
	client   *client.Client
	endpoint string
}

func NewSparql(c *client.Client, endpoint string) *SparqlSearcher {
	return &SparqlSearcher{client: c, endpoint: endpoint}
}

type sparqlResults struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]sparqlValue `json:"bindings"`
	} `json:"results"`
}

type sparqlValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func escapeLiteral(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`)
	return r.Replace(s)
}

// selectQuery builds the query. Paging is applied client-side after
// grouping because one research object spans several result rows.
func selectQuery(text string) string {
	return fmt.Sprintf(`SELECT ?ro ?title ?description ?creator ?created WHERE {
  ?ro a <%s> .
  OPTIONAL { ?ro <%s> ?title }
  OPTIONAL { ?ro <%s> ?description }
  OPTIONAL { ?ro <%s> ?creator }
  OPTIONAL { ?ro <%s> ?created }
  FILTER (CONTAINS(LCASE(STR(?title)), LCASE("%s")) || CONTAINS(LCASE(STR(?description)), LCASE("%s")))
}`,
		vocab.ROResearchObject, vocab.DCTermsTitle, vocab.DCTermsDescription,
		vocab.DCTermsCreator, vocab.DCTermsCreated,
		escapeLiteral(text), escapeLiteral(text))
}

func (s *SparqlSearcher) Search(ctx context.Context, q Query) (*SearchResult, error) {
	ctx, span := tracer.Start(ctx, "Search.Sparql")
	defer span.End()

	form := url.Values{}
	form.Set("query", selectQuery(q.Text))
	req, err := s.client.NewRequest(ctx, http.MethodPost, s.endpoint, []byte(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	req.Header.Set("Accept", mediaTypeSparqlResults)
	resp, err := s.client.Do("SparqlSearch", req, http.StatusOK)
	if err != nil {
		span.RecordError(errors.Wrap(err, "Search.Sparql"))
		return nil, err
	}

	var body sparqlResults
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to decode sparql results")
	}

	byURI := make(map[string]*FoundRO)
	for _, row := range body.Results.Bindings {
		uri := row["ro"].Value
		if uri == "" {
			continue
		}
		found, ok := byURI[uri]
		if !ok {
			found = &FoundRO{URI: uri}
			byURI[uri] = found
		}
		if v, ok := row["title"]; ok && found.Title == "" {
			found.Title = v.Value
		}
		if v, ok := row["description"]; ok && found.Description == "" {
			found.Description = v.Value
		}
		if v, ok := row["creator"]; ok && !contains(found.Creators, v.Value) {
			found.Creators = append(found.Creators, v.Value)
		}
		if v, ok := row["created"]; ok && found.Created == nil {
			if t, err := graph.ParseDateTime(v.Value); err == nil {
				found.Created = &t
			}
		}
	}

	all := make([]FoundRO, 0, len(byURI))
	for _, found := range byURI {
		all = append(all, *found)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].URI < all[j].URI })

	result := &SearchResult{Total: len(all)}
	start := min(max(q.Start, 0), len(all))
	end := min(start+q.rows(), len(all))
	result.Items = all[start:end]
	return result, nil
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
