package menu

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/ssafy/baperang/backend/internal/contracts"
)

// MemoryRepository keeps published menus in memory
type MemoryRepository struct {
	mu     sync.RWMutex
	byID   map[int64]*contracts.MenuItem
	byDate map[string]int64
}

// NewMemoryRepository creates an empty menu store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:   make(map[int64]*contracts.MenuItem),
		byDate: make(map[string]int64),
	}
}

// Publish implements contracts.MenuRepository
func (r *MemoryRepository) Publish(ctx context.Context, m *contracts.MenuItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	date := contracts.FormatDate(m.Date)
	if id, ok := r.byDate[date]; ok {
		return publishedAlready(r.byID[id], m)
	}
	if existing, ok := r.byID[m.MenuID]; ok {
		return publishedAlready(existing, m)
	}

	cp := copyMenu(m)
	r.byID[m.MenuID] = cp
	r.byDate[date] = m.MenuID
	return nil
}

// Get implements contracts.MenuRepository
func (r *MemoryRepository) Get(ctx context.Context, menuID int64) (*contracts.MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byID[menuID]
	if !ok {
		return nil, &contracts.NotFoundError{Kind: "menu", Key: strconv.FormatInt(menuID, 10)}
	}
	return copyMenu(m), nil
}

// GetByDate implements contracts.MenuRepository
func (r *MemoryRepository) GetByDate(ctx context.Context, date time.Time) (*contracts.MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := contracts.FormatDate(date)
	id, ok := r.byDate[key]
	if !ok {
		return nil, &contracts.NotFoundError{Kind: "menu", Key: key}
	}
	return copyMenu(r.byID[id]), nil
}

// Range implements contracts.MenuRepository; ordered by date
func (r *MemoryRepository) Range(ctx context.Context, dr contracts.DateRange) ([]*contracts.MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*contracts.MenuItem
	for _, m := range r.byID {
		if dr.Contains(m.Date) {
			out = append(out, copyMenu(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// publishedAlready treats an identical republish as a no-op
func publishedAlready(existing, incoming *contracts.MenuItem) error {
	if existing.Equal(incoming) {
		return nil
	}
	return &contracts.ConflictError{
		Key:     "menu/" + contracts.FormatDate(existing.Date),
		Message: "a different menu is already published for this date",
	}
}

func copyMenu(m *contracts.MenuItem) *contracts.MenuItem {
	cp := *m
	cp.Dishes = append([]string(nil), m.Dishes...)
	cp.Holiday = append([]string(nil), m.Holiday...)
	if m.Nutrients != nil {
		cp.Nutrients = make(map[string]contracts.NutrientInfo, len(m.Nutrients))
		for k, v := range m.Nutrients {
			cp.Nutrients[k] = v
		}
	}
	return &cp
}
