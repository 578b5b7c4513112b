package search

import (
	"bytes"
	"context"
	"net/http"
	"strconv"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/pkg/errors"
	"github.com/yosida95/uritemplate/v3"

	"github.com/wf4ever/rodl-go/client"
	"github.com/wf4ever/rodl-go/vocab"
)

// OpenSearchSearcher queries an OpenSearch endpoint answering Atom feeds.
// The template uses the OpenSearch parameter names searchTerms, count and
// startIndex.
type OpenSearchSearcher struct {
	client   *client.Client
	template *uritemplate.Template
}

func NewOpenSearch(c *client.Client, template string) (*OpenSearchSearcher, error) {
	t, err := uritemplate.New(template)
	if err != nil {
		return nil, errors.Wrap(err, "invalid opensearch template")
	}
	return &OpenSearchSearcher{client: c, template: t}, nil
}

func (s *OpenSearchSearcher) Search(ctx context.Context, q Query) (*SearchResult, error) {
	ctx, span := tracer.Start(ctx, "Search.OpenSearch")
	defer span.End()

	values := uritemplate.Values{}
	values.Set("searchTerms", uritemplate.String(q.Text))
	values.Set("count", uritemplate.String(strconv.Itoa(q.rows())))
	values.Set("startIndex", uritemplate.String(strconv.Itoa(q.Start)))
	uri, err := s.template.Expand(values)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to expand opensearch template")
	}

	req, err := s.client.NewRequest(ctx, http.MethodGet, uri, nil, "")
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	req.Header.Set("Accept", vocab.MediaTypeAtom)
	resp, err := s.client.Do("OpenSearch", req, http.StatusOK)
	if err != nil {
		span.RecordError(errors.Wrap(err, "Search.OpenSearch"))
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(resp.Body))
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to parse opensearch feed")
	}

	result := &SearchResult{Items: make([]FoundRO, 0, len(feed.Items))}
	for _, item := range feed.Items {
		found := FoundRO{
			URI:         item.Link,
			Title:       item.Title,
			Description: item.Description,
			Created:     item.PublishedParsed,
		}
		if found.URI == "" {
			found.URI = item.GUID
		}
		if found.Created == nil {
			found.Created = item.UpdatedParsed
		}
		for _, author := range item.Authors {
			if author != nil && author.Name != "" {
				found.Creators = append(found.Creators, author.Name)
			}
		}
		if score, ok := extensionValue(item.Extensions, "relevance", "score"); ok {
			found.Score, _ = strconv.ParseFloat(score, 64)
		}
		result.Items = append(result.Items, found)
	}

	result.Total = len(result.Items)
	if total, ok := extensionValue(feed.Extensions, "opensearch", "totalResults"); ok {
		if n, err := strconv.Atoi(total); err == nil {
			result.Total = n
		}
	}
	return result, nil
}

func extensionValue(extensions ext.Extensions, prefix, name string) (string, bool) {
	values := extensions[prefix][name]
	if len(values) == 0 {
		return "", false
	}
	return values[0].Value, true
}
