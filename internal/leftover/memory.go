package leftover

import (
	"context"
	"sort"
	"sync"

	"github.com/ssafy/baperang/backend/internal/contracts"
)

// MemoryRepository keeps one measurement per (date, dish) in memory
type MemoryRepository struct {
	mu           sync.RWMutex
	measurements map[contracts.LeftoverKey]contracts.LeftoverMeasurement
}

// NewMemoryRepository creates an empty measurement store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{measurements: make(map[contracts.LeftoverKey]contracts.LeftoverMeasurement)}
}

// UpsertBatch implements contracts.LeftoverRepository; the whole batch lands under one lock
func (r *MemoryRepository) UpsertBatch(ctx context.Context, batch []contracts.LeftoverMeasurement) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range batch {
		if m.PreferenceScore != nil {
			p := *m.PreferenceScore
			m.PreferenceScore = &p
		}
		r.measurements[m.Key()] = m
	}
	return nil
}

// Query implements contracts.LeftoverRepository; ordered by date then dish
func (r *MemoryRepository) Query(ctx context.Context, dr contracts.DateRange, dishFilter []string) ([]contracts.LeftoverMeasurement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := dishSet(dishFilter)
	var out []contracts.LeftoverMeasurement
	for _, m := range r.measurements {
		if !dr.Contains(m.Date) {
			continue
		}
		if wanted != nil && !wanted[m.DishName] {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].DishName < out[j].DishName
	})
	return out, nil
}

func dishSet(dishes []string) map[string]bool {
	if len(dishes) == 0 {
		return nil
	}
	set := make(map[string]bool, len(dishes))
	for _, d := range dishes {
		set[d] = true
	}
	return set
}
