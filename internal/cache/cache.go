// Package cache provides the query-answer cache: an in-process TTL map by
// default, or Redis-backed when a Redis URL is configured, falling back to
// the in-process map if Redis is unreachable.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rag-engine/ragctl/internal/errors"
	"github.com/rag-engine/ragctl/internal/logger"
)

// DefaultTTL matches the reference implementation's 5-minute cache window.
const DefaultTTL = 5 * time.Minute

// Cache stores string values under a key for a bounded time.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
}

// MemoryCache is an in-process, mutex-guarded TTL cache.
type MemoryCache struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time
	data map[string]memoryEntry
}

type memoryEntry struct {
	value   string
	expires time.Time
}

// NewMemory builds a MemoryCache with the given TTL.
func NewMemory(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{ttl: ttl, now: time.Now, data: make(map[string]memoryEntry)}
}

var _ Cache = (*MemoryCache)(nil)

// Get returns the cached value for key if present and unexpired.
func (c *MemoryCache) Get(ctx context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.data[key]
	if !ok || c.now().After(entry.expires) {
		return "", false
	}
	return entry.value, true
}

// Set stores value under key with the cache's configured TTL.
func (c *MemoryCache) Set(ctx context.Context, key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = memoryEntry{value: value, expires: c.now().Add(c.ttl)}
}

// RedisCache is a Redis-backed Cache that falls back to an in-process
// MemoryCache whenever a Redis call fails, so a transient Redis outage
// degrades answer caching rather than breaking the query path.
type RedisCache struct {
	client   *redis.Client
	ttl      time.Duration
	fallback *MemoryCache
}

// NewRedis builds a RedisCache against redisURL (a redis:// connection
// string), with fallback to an in-process cache on error.
func NewRedis(redisURL string, ttl time.Duration) (*RedisCache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.CacheUnavailable(err)
	}
	return &RedisCache{
		client:   redis.NewClient(opts),
		ttl:      ttl,
		fallback: NewMemory(ttl),
	}, nil
}

var _ Cache = (*RedisCache)(nil)

// Get returns the cached value for key, checking Redis first and the
// in-process fallback if Redis is unreachable.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("redis cache get failed, using in-process fallback", "error", errors.CacheUnavailable(err))
			return c.fallback.Get(ctx, key)
		}
		return "", false
	}
	return val, true
}

// Set stores value under key in Redis, and in the in-process fallback if
// Redis is unreachable.
func (c *RedisCache) Set(ctx context.Context, key, value string) {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		logger.Warn("redis cache set failed, using in-process fallback", "error", errors.CacheUnavailable(err))
		c.fallback.Set(ctx, key, value)
	}
}
