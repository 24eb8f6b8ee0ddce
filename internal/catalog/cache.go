package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/rakhimart/internal/cache"
)

// Cache is a versioned read-through cache for catalog reads. Keys embed the
// catalog version so one INCR retires every cached page.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	loads  singleflight.Group
}

// NewCache constructs a cache. A nil client or non-positive ttl disables it.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Version returns the current catalog version; zero when never bumped.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	v, err := c.client.Get(ctx, cache.KeyCatalogVersion()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Bump retires every cached entry by advancing the version.
func (c *Cache) Bump(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Incr(ctx, cache.KeyCatalogVersion()).Err()
}

// readThrough serves key from Redis or runs load, storing its result.
// Concurrent misses on one key share a single load. Redis failures only
// cost a trip to the database.
func readThrough[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	if !c.enabled() {
		return load(ctx)
	}
	log := zerolog.Ctx(ctx)
	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var hit T
		if err := json.Unmarshal(data, &hit); err == nil {
			return hit, nil
		}
		log.Warn().Str("key", key).Msg("catalog cache entry unreadable")
	} else if !errors.Is(err, redis.Nil) {
		log.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	}

	v, err, _ := c.loads.Do(key, func() (any, error) {
		fresh, err := load(ctx)
		if err != nil {
			return fresh, err
		}
		if data, err := json.Marshal(fresh); err == nil {
			if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
			}
		}
		return fresh, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
