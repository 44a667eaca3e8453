package query

import (
	"context"
	"sync"
	"time"

	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/pkg/redis"
)

// VersionStore counts writes per service date plus one global counter.
// Counters only grow, so the sum over a range changes whenever any date
// inside it is written; that sum is folded into cache keys.
type VersionStore interface {
	Bump(ctx context.Context, dates ...time.Time) error
	BumpAll(ctx context.Context) error
	Stamp(ctx context.Context, dr contracts.DateRange) (int64, error)
}

const globalVersionKey = "all"

// MemoryVersions keeps date counters in process
type MemoryVersions struct {
	mu       sync.RWMutex
	counters map[string]int64
}

// NewMemoryVersions creates an empty in-process version store
func NewMemoryVersions() *MemoryVersions {
	return &MemoryVersions{counters: make(map[string]int64)}
}

// Bump implements VersionStore
func (v *MemoryVersions) Bump(ctx context.Context, dates ...time.Time) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, d := range dates {
		v.counters[contracts.FormatDate(d)]++
	}
	return nil
}

// BumpAll implements VersionStore
func (v *MemoryVersions) BumpAll(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.counters[globalVersionKey]++
	return nil
}

// Stamp implements VersionStore
func (v *MemoryVersions) Stamp(ctx context.Context, dr contracts.DateRange) (int64, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	sum := v.counters[globalVersionKey]
	for _, d := range dr.Days() {
		sum += v.counters[contracts.FormatDate(d)]
	}
	return sum, nil
}

// RedisVersions shares date counters across API instances
type RedisVersions struct {
	cache *redis.Cache
}

// NewRedisVersions creates a Redis-backed version store
func NewRedisVersions(cache *redis.Cache) *RedisVersions {
	return &RedisVersions{cache: cache}
}

// Bump implements VersionStore
func (v *RedisVersions) Bump(ctx context.Context, dates ...time.Time) error {
	for _, d := range dates {
		if _, err := v.cache.Incr(ctx, redis.DateVersionKey(contracts.FormatDate(d))); err != nil {
			return err
		}
	}
	return nil
}

// BumpAll implements VersionStore
func (v *RedisVersions) BumpAll(ctx context.Context) error {
	_, err := v.cache.Incr(ctx, redis.DateVersionKey(globalVersionKey))
	return err
}

// Stamp implements VersionStore
func (v *RedisVersions) Stamp(ctx context.Context, dr contracts.DateRange) (int64, error) {
	days := dr.Days()
	keys := make([]string, 0, len(days)+1)
	keys = append(keys, redis.DateVersionKey(globalVersionKey))
	for _, d := range days {
		keys = append(keys, redis.DateVersionKey(contracts.FormatDate(d)))
	}
	counters, err := v.cache.Counters(ctx, keys)
	if err != nil {
		return 0, err
	}
	var sum int64
	for _, c := range counters {
		sum += c
	}
	return sum, nil
}
