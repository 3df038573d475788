// Package dedup implements the short-lived, best-effort TTL flags
// used to suppress re-processing of recently-seen URLs and content
// (spec.md §4.4).
package dedup

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the keyed TTL store used for URL and content-hash dedup.
type Cache interface {
	// Get returns the stored value and true if key is present and
	// unexpired, or "", false if absent.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// TTLs from spec.md §3/§6.
const (
	URLHashTTL       = 12 * time.Hour
	ContentHashTTL   = 30 * 24 * time.Hour
	RenderURLHashTTL = 12 * time.Hour
)

// RedisCache is the production Cache backed by Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to dsn (a redis:// URL) and returns a Cache.
func NewRedisCache(dsn string) (*RedisCache, error) {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Close releases the underlying Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Key helpers, matching the exact namespaces from spec.md §3/§6.
func URLHashKey(urlHash string) string       { return "url_hash:" + urlHash }
func ContentHashKey(urlHash string) string   { return "content_hash:" + urlHash }
func RenderURLHashKey(urlHash string) string { return "render:url_hash:" + urlHash }
