package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wf4ever/rodl-go/client"
)

func NewRedis(addr string, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Redis shares fetched documents between processes through a redis server.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) (*client.Document, bool) {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.WarnContext(
				ctx,
				"failed to read document from redis",
				slog.String("error", err.Error()),
				slog.String("module", "cache"),
			)
		}
		return nil, false
	}
	var doc client.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false
	}
	return &doc, true
}

func (r *Redis) Set(ctx context.Context, key string, doc *client.Document) {
	data, err := json.Marshal(doc)
	if err != nil {
		return
	}
	if err := r.rdb.Set(ctx, key, data, r.ttl).Err(); err != nil {
		slog.WarnContext(
			ctx,
			"failed to store document in redis",
			slog.String("error", err.Error()),
			slog.String("module", "cache"),
		)
	}
}

func (r *Redis) Delete(ctx context.Context, key string) {
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		slog.WarnContext(
			ctx,
			"failed to delete document from redis",
			slog.String("error", err.Error()),
			slog.String("module", "cache"),
		)
	}
}
