package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides typed caching utilities
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// Enabled reports whether values actually reach Redis
func (c *Cache) Enabled() bool {
	return c.client != nil && c.client.Enabled()
}

func (c *Cache) key(kind, key string) string {
	return fmt.Sprintf("%s:%s:%s", c.prefix, kind, key)
}

// Get retrieves a cached value. A miss is (false, nil).
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.key("cache", key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	return c.client.Redis().Set(ctx, c.key("cache", key), data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.Enabled() {
		return nil
	}

	return c.client.Redis().Del(ctx, c.key("cache", key)).Err()
}

// Incr atomically bumps a counter and returns the new value
func (c *Cache) Incr(ctx context.Context, key string) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}

	v, err := c.client.Redis().Incr(ctx, c.key("counter", key)).Result()
	if err != nil {
		return 0, fmt.Errorf("cache incr: %w", err)
	}
	return v, nil
}

// Counters reads several counters at once; missing counters read as 0
func (c *Cache) Counters(ctx context.Context, keys []string) ([]int64, error) {
	out := make([]int64, len(keys))
	if !c.Enabled() || len(keys) == 0 {
		return out, nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key("counter", k)
	}

	vals, err := c.client.Redis().MGet(ctx, full...).Result()
	if err != nil {
		return nil, fmt.Errorf("cache mget: %w", err)
	}

	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var n int64
		if _, err := fmt.Sscan(s, &n); err == nil {
			out[i] = n
		}
	}
	return out, nil
}

// GetOrSet retrieves from cache or calls fn to populate it
func (c *Cache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, fn func() (interface{}, error)) error {
	found, err := c.Get(ctx, key, dest)
	if err == nil && found {
		return nil
	}

	value, err := fn()
	if err != nil {
		return err
	}

	// cache write failures only cost a recomputation
	_ = c.Set(ctx, key, value, ttl)

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	return json.Unmarshal(data, dest)
}

// Predefined TTLs
const (
	TTLShort  = 1 * time.Minute
	TTLMedium = 10 * time.Minute // 집계 결과
	TTLLong   = 1 * time.Hour    // 식단, 학생 명단
	TTLDaily  = 24 * time.Hour
)

// DateVersionKey names the write counter for a service date
func DateVersionKey(date string) string {
	return fmt.Sprintf("version:%s", date)
}

// AggregateKey names a cached aggregate for a scope/anchor at a version stamp
func AggregateKey(scope, anchor, stamp string) string {
	return fmt.Sprintf("aggregate:%s:%s:%s", scope, anchor, stamp)
}

// MenuKey names a cached menu calendar for a range at a version stamp
func MenuKey(from, to, stamp string) string {
	return fmt.Sprintf("menu:%s:%s:%s", from, to, stamp)
}
