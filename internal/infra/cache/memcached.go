package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/wf4ever/rodl-go/client"
)

// Expirations above this many seconds are read by memcached as unix times.
const memcachedRelativeLimit = 30 * 24 * time.Hour

func NewMemcached(server string) *memcache.Client {
	return memcache.New(server)
}

// Memcached stores fetched documents in memcached. Documents bigger than the
// server item size limit are silently not cached.
type Memcached struct {
	mc  *memcache.Client
	ttl time.Duration
}

func NewMemcachedCache(mc *memcache.Client, ttl time.Duration) *Memcached {
	return &Memcached{mc: mc, ttl: ttl}
}

func (m *Memcached) Get(ctx context.Context, key string) (*client.Document, bool) {
	item, err := m.mc.Get(key)
	if err != nil {
		if !errors.Is(err, memcache.ErrCacheMiss) {
			slog.WarnContext(
				ctx,
				"failed to read document from memcached",
				slog.String("error", err.Error()),
				slog.String("module", "cache"),
			)
		}
		return nil, false
	}
	var doc client.Document
	if err := json.Unmarshal(item.Value, &doc); err != nil {
		return nil, false
	}
	return &doc, true
}

func (m *Memcached) Set(ctx context.Context, key string, doc *client.Document) {
	data, err := json.Marshal(doc)
	if err != nil {
		return
	}
	err = m.mc.Set(&memcache.Item{
		Key:        key,
		Value:      data,
		Expiration: memcachedExpiration(m.ttl, time.Now()),
	})
	if err != nil {
		slog.DebugContext(
			ctx,
			"document not cached in memcached",
			slog.String("error", err.Error()),
			slog.String("module", "cache"),
		)
	}
}

// memcachedExpiration converts ttl to the item expiration field. Zero means
// no expiry.
func memcachedExpiration(ttl time.Duration, now time.Time) int32 {
	switch {
	case ttl <= 0:
		return 0
	case ttl < time.Second:
		return 1
	case ttl > memcachedRelativeLimit:
		return int32(now.Add(ttl).Unix())
	}
	return int32(ttl / time.Second)
}

func (m *Memcached) Delete(ctx context.Context, key string) {
	err := m.mc.Delete(key)
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		slog.WarnContext(
			ctx,
			"failed to delete document from memcached",
			slog.String("error", err.Error()),
			slog.String("module", "cache"),
		)
	}
}
