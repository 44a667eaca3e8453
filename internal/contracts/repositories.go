package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// RosterRepository stores students
type RosterRepository interface {
	// Upsert inserts a student or refreshes enrollment dates of an identical one.
	// A differing identity for an existing ID is a ConflictError.
	Upsert(ctx context.Context, s *Student) error
	Get(ctx context.Context, id int64) (*Student, error)
	List(ctx context.Context, filter RosterFilter) ([]*Student, error)
	UpdatePhysical(ctx context.Context, id int64, upd PhysicalUpdate) error
}

// TagRepository stores the latest tag state per (student, date, slot)
type TagRepository interface {
	// CompareAndSet stores ev if it is newer than the stored record for its key.
	// Returns applied=false for an older write; a same-timestamp write with a
	// different outcome is a ConflictError.
	CompareAndSet(ctx context.Context, ev TagEvent) (applied bool, err error)
	Query(ctx context.Context, r DateRange, filter TagFilter) ([]TagEvent, error)
}

// MenuRepository stores published menus
type MenuRepository interface {
	// Publish stores a menu; republishing different content for a date is a ConflictError
	Publish(ctx context.Context, m *MenuItem) error
	Get(ctx context.Context, menuID int64) (*MenuItem, error)
	GetByDate(ctx context.Context, date time.Time) (*MenuItem, error)
	Range(ctx context.Context, r DateRange) ([]*MenuItem, error)
}

// LeftoverRepository stores one measurement per (date, dish).
// UpsertBatch applies all rows or none.
type LeftoverRepository interface {
	UpsertBatch(ctx context.Context, batch []LeftoverMeasurement) error
	Query(ctx context.Context, r DateRange, dishFilter []string) ([]LeftoverMeasurement, error)
}

// SatisfactionRepository stores votes, one per (menu, voter)
type SatisfactionRepository interface {
	Vote(ctx context.Context, v SatisfactionVote) (SatisfactionSummary, error)
	Summary(ctx context.Context, menuID int64) (SatisfactionSummary, error)
}

// InventoryRepository stores inventory facts
type InventoryRepository interface {
	Save(ctx context.Context, item *InventoryItem) error
	List(ctx context.Context, r DateRange) ([]*InventoryItem, error)
}

// ChangeListener is told which service dates a committed write touched.
// A call without dates means every date may have changed (e.g. roster import).
type ChangeListener interface {
	DatesChanged(ctx context.Context, dates ...time.Time)
}

// ChangeListenerFunc adapts a function to ChangeListener
type ChangeListenerFunc func(ctx context.Context, dates ...time.Time)

// DatesChanged calls f
func (f ChangeListenerFunc) DatesChanged(ctx context.Context, dates ...time.Time) {
	f(ctx, dates...)
}
