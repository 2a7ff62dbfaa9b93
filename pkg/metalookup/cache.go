package metalookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss indicates the requested key was not found in cache.
var ErrCacheMiss = errors.New("lookup cache miss")

// Cache stores lookup responses in redis with per-entry TTL.
type Cache struct {
	redis *redis.Client
}

// NewCache creates a lookup cache on the given redis client.
func NewCache(redisClient *redis.Client) *Cache {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Cache{redis: redisClient}
}

// cacheKey derives a deterministic key from a search query.
func cacheKey(query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	return fmt.Sprintf("trackerfeed:lookup:%s", normalized)
}

// Get retrieves a cached lookup response. Returns ErrCacheMiss when the key
// doesn't exist or the entry has expired.
func (c *Cache) Get(ctx context.Context, query string) (*Entry, error) {
	data, err := c.redis.Get(ctx, cacheKey(query)).Bytes()
	if err != nil {
		if err == redis.Nil {
			LookupCacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		LookupErrors.WithLabelValues("cache_get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		LookupErrors.WithLabelValues("cache_get").Inc()
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}

	if entry.IsExpired() {
		_ = c.redis.Del(ctx, cacheKey(query)).Err()
		LookupCacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	LookupCacheHits.Inc()
	return &entry, nil
}

// Set stores a lookup response. The redis TTL matches the entry's Expires
// field so stale entries evict themselves. Already-expired entries are not
// written.
func (c *Cache) Set(ctx context.Context, query string, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	ttl := entry.TTL()
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		LookupErrors.WithLabelValues("cache_set").Inc()
		return fmt.Errorf("encode cache entry: %w", err)
	}

	if err := c.redis.Set(ctx, cacheKey(query), data, ttl).Err(); err != nil {
		LookupErrors.WithLabelValues("cache_set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}
