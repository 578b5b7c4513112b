package client

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/zeebo/xxh3"
)

// Document is an RDF document fetched from the service.
type Document struct {
	URI         string `json:"uri"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// DocumentCache stores fetched documents keyed by CacheKey.
type DocumentCache interface {
	Get(ctx context.Context, key string) (*Document, bool)
	Set(ctx context.Context, key string, doc *Document)
	Delete(ctx context.Context, key string)
}

// CacheKey derives the cache key of a document URI.
func CacheKey(uri string) string {
	return "rodl:doc:" + strconv.FormatUint(xxh3.HashString(uri), 16)
}

// MemoryCache is an in-process DocumentCache.
type MemoryCache struct {
	cache *cache.Cache
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{cache: cache.New(ttl, ttl+ttl/2)}
}

func (m *MemoryCache) Get(ctx context.Context, key string) (*Document, bool) {
	x, found := m.cache.Get(key)
	if !found {
		return nil, false
	}
	return x.(*Document), true
}

func (m *MemoryCache) Set(ctx context.Context, key string, doc *Document) {
	m.cache.Set(key, doc, cache.DefaultExpiration)
}

func (m *MemoryCache) Delete(ctx context.Context, key string) {
	m.cache.Delete(key)
}

// GetRDF fetches an RDF document with content negotiation, following the
// 303 redirect the service answers for research objects and annotations.
func (c *Client) GetRDF(ctx context.Context, op, uri, accept string) (*Document, error) {
	key := CacheKey(uri)
	if c.cache != nil {
		if doc, found := c.cache.Get(ctx, key); found {
			return doc, nil
		}
	}

	req, err := c.NewRequest(ctx, http.MethodGet, uri, nil, "")
	if err != nil {
		return nil, err
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := c.Do(op, req, http.StatusOK)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		URI:         resp.URL,
		ContentType: resp.ContentType(),
		Body:        resp.Body,
	}
	if c.cache != nil {
		c.cache.Set(ctx, key, doc)
	}
	return doc, nil
}

// Invalidate drops cached copies of the given documents.
func (c *Client) Invalidate(ctx context.Context, uris ...string) {
	if c.cache == nil {
		return
	}
	for _, uri := range uris {
		c.cache.Delete(ctx, CacheKey(uri))
	}
}
