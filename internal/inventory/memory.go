package inventory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ssafy/baperang/backend/internal/contracts"
)

// MemoryRepository keeps inventory records in memory
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*contracts.InventoryItem
}

// NewMemoryRepository creates an empty inventory store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[uuid.UUID]*contracts.InventoryItem)}
}

// Save implements contracts.InventoryRepository
func (r *MemoryRepository) Save(ctx context.Context, item *contracts.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

// List implements contracts.InventoryRepository; ordered by date then product
func (r *MemoryRepository) List(ctx context.Context, dr contracts.DateRange) ([]*contracts.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*contracts.InventoryItem
	for _, it := range r.items {
		if dr.Contains(it.Date) {
			cp := *it
			out = append(out, &cp)
		}
	}
	sortItems(out)
	return out, nil
}

func sortItems(items []*contracts.InventoryItem) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.Before(items[j].Date)
		}
		if items[i].ProductName != items[j].ProductName {
			return items[i].ProductName < items[j].ProductName
		}
		return items[i].ID.String() < items[j].ID.String()
	})
}
