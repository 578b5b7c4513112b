package search

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/wf4ever/rodl-go"
	"github.com/wf4ever/rodl-go/client"
	"github.com/wf4ever/rodl-go/internal/graph"
	"github.com/wf4ever/rodl-go/vocab"
)

// SolrSearcher queries the select handler of a Solr core indexing research
// objects.
type SolrSearcher struct {
	client *client.Client
	uri    string
}

func NewSolr(c *client.Client, uri string) *SolrSearcher {
	return &SolrSearcher{client: c, uri: rodl.EnsureTrailingSlash(uri)}
}

type solrResponse struct {
	Response struct {
		NumFound int       `json:"numFound"`
		Docs     []solrDoc `json:"docs"`
	} `json:"response"`
	FacetCounts struct {
		FacetFields map[string][]json.RawMessage `json:"facet_fields"`
	} `json:"facet_counts"`
}

type solrDoc struct {
	URI         multi   `json:"uri"`
	Title       multi   `json:"title"`
	Creator     multi   `json:"creator"`
	Created     multi   `json:"created"`
	Description multi   `json:"description"`
	Score       float64 `json:"score"`
}

// multi accepts a single-valued or multi-valued Solr field.
type multi []string

func (m *multi) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*m = many
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*m = multi{one}
	return nil
}

func (m multi) first() string {
	if len(m) == 0 {
		return ""
	}
	return m[0]
}

func (s *SolrSearcher) Search(ctx context.Context, q Query) (*SearchResult, error) {
	ctx, span := tracer.Start(ctx, "Search.Solr")
	defer span.End()

	params := url.Values{}
	params.Set("q", q.Text)
	params.Set("wt", "json")
	params.Set("fl", "*,score")
	params.Set("rows", strconv.Itoa(q.rows()))
	params.Set("start", strconv.Itoa(q.Start))
	if len(q.Facets) > 0 {
		params.Set("facet", "true")
		params.Set("facet.mincount", "1")
		for _, field := range q.Facets {
			params.Add("facet.field", field)
		}
	}

	req, err := s.client.NewRequest(ctx, http.MethodGet, s.uri+"select?"+params.Encode(), nil, "")
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	req.Header.Set("Accept", vocab.MediaTypeJSON)
	resp, err := s.client.Do("SolrSearch", req, http.StatusOK)
	if err != nil {
		span.RecordError(errors.Wrap(err, "Search.Solr"))
		return nil, err
	}

	var body solrResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to decode solr response")
	}

	result := &SearchResult{
		Total:  body.Response.NumFound,
		Items:  make([]FoundRO, 0, len(body.Response.Docs)),
		Facets: make(map[string][]FacetValue),
	}
	for _, doc := range body.Response.Docs {
		found := FoundRO{
			URI:         doc.URI.first(),
			Title:       doc.Title.first(),
			Creators:    doc.Creator,
			Description: doc.Description.first(),
			Score:       doc.Score,
		}
		if created := doc.Created.first(); created != "" {
			if t, err := graph.ParseDateTime(created); err == nil {
				found.Created = &t
			}
		}
		result.Items = append(result.Items, found)
	}
	for field, pairs := range body.FacetCounts.FacetFields {
		result.Facets[field] = facetValues(ctx, field, pairs)
	}
	return result, nil
}

// facetValues reads Solr's flat [value, count, value, count...] list.
func facetValues(ctx context.Context, field string, pairs []json.RawMessage) []FacetValue {
	var out []FacetValue
	for i := 0; i+1 < len(pairs); i += 2 {
		var fv FacetValue
		if err := json.Unmarshal(pairs[i], &fv.Value); err != nil {
			slog.DebugContext(ctx, "skipping facet value",
				slog.String("field", field),
				slog.String("error", err.Error()),
				slog.String("module", "search"),
			)
			continue
		}
		if err := json.Unmarshal(pairs[i+1], &fv.Count); err != nil {
			continue
		}
		out = append(out, fv)
	}
	return out
}
