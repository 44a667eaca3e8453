package tagging

import (
	"context"
	"sort"
	"sync"

	"github.com/ssafy/baperang/backend/internal/contracts"
)

// MemoryRepository holds the latest tag state per key in memory.
// A single mutex serializes compare-and-set per key.
type MemoryRepository struct {
	mu     sync.RWMutex
	events map[contracts.TagKey]contracts.TagEvent
}

// NewMemoryRepository creates an empty ledger store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{events: make(map[contracts.TagKey]contracts.TagEvent)}
}

// CompareAndSet implements contracts.TagRepository
func (r *MemoryRepository) CompareAndSet(ctx context.Context, ev contracts.TagEvent) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ev.Key()
	if existing, ok := r.events[key]; ok {
		if ok, err := supersedes(existing, ev); !ok {
			return false, err
		}
	}

	r.events[key] = ev
	return true, nil
}

// Query implements contracts.TagRepository; ordered by date, student, slot
func (r *MemoryRepository) Query(ctx context.Context, dr contracts.DateRange, filter contracts.TagFilter) ([]contracts.TagEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []contracts.TagEvent
	for _, ev := range r.events {
		if dr.Contains(ev.Date) && filter.Matches(ev) {
			out = append(out, ev)
		}
	}
	sortEvents(out)
	return out, nil
}

// supersedes decides whether incoming replaces existing under last-write-wins
func supersedes(existing, incoming contracts.TagEvent) (bool, error) {
	switch {
	case incoming.RecordedAt.After(existing.RecordedAt):
		return true, nil
	case incoming.RecordedAt.Equal(existing.RecordedAt):
		if incoming.IsTagged != existing.IsTagged || incoming.Status != existing.Status {
			return false, &contracts.ConflictError{
				Key:     incoming.Key().String(),
				Message: "a different outcome was recorded with the same timestamp",
			}
		}
		return false, nil
	default:
		return false, nil
	}
}

func sortEvents(events []contracts.TagEvent) {
	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.StudentID != b.StudentID {
			return a.StudentID < b.StudentID
		}
		return a.MealSlot < b.MealSlot
	})
}
