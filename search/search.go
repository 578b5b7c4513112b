// Package search finds research objects through the search endpoints a RODL
// deployment exposes. Backends do not agree on ranking or totals.
package search

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("search")

const defaultRows = 20

type Searcher interface {
	Search(ctx context.Context, q Query) (*SearchResult, error)
}

// Query is a free-text query with paging. Facets names the fields to count
// values for; backends without faceting ignore it.
type Query struct {
	Text   string
	Rows   int
	Start  int
	Facets []string
}

func (q Query) rows() int {
	if q.Rows <= 0 {
		return defaultRows
	}
	return q.Rows
}

type SearchResult struct {
	Total  int
	Items  []FoundRO
	Facets map[string][]FacetValue
}

// FoundRO is a research object matching a query.
type FoundRO struct {
	URI         string
	Title       string
	Creators    []string
	Created     *time.Time
	Score       float64
	Description string
}

type FacetValue struct {
	Value string
	Count int
}
