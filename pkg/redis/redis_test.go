package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssafy/baperang/backend/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), &config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "test")

	allowed, remaining, err := limiter.Allow(context.Background(), MenuImportRateLimit)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, MenuImportRateLimit.Limit, remaining)
	assert.NoError(t, limiter.Wait(context.Background(), MenuImportRateLimit))
}

func TestCache_Disabled(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(disabledClient(t), "test")

	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(ctx, "key", "value", TTLShort))

	n, err := cache.Incr(ctx, DateVersionKey("2024-03-04"))
	require.NoError(t, err)
	assert.Zero(t, n)

	counters, err := cache.Counters(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 0}, counters)
}

func TestCache_GetOrSetDisabledCallsLoader(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")

	calls := 0
	var out map[string]float64
	err := cache.GetOrSet(context.Background(), "k", &out, TTLShort, func() (interface{}, error) {
		calls++
		return map[string]float64{"rate": 0.25}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0.25, out["rate"])
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "version:2024-03-04", DateVersionKey("2024-03-04"))
	assert.Equal(t, "aggregate:week:2024-03-04:1.0.2", AggregateKey("week", "2024-03-04", "1.0.2"))
	assert.Equal(t, "menu:2024-03-04:2024-03-08:7", MenuKey("2024-03-04", "2024-03-08", "7"))
}
