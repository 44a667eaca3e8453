package tagging

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

// Ledger is the append-only record of NFC scans. Corrections are new writes
// with newer timestamps; nothing is ever deleted.
// ⭐ SSOT: 태깅 상태 변경은 이 Ledger를 통해서만
type Ledger struct {
	repo      contracts.TagRepository
	roster    contracts.RosterRepository
	slots     map[string]bool
	order     []string
	listeners []contracts.ChangeListener
	now       func() time.Time
	logger    *logger.Logger
}

// NewLedger creates a ledger accepting the given meal slots
func NewLedger(repo contracts.TagRepository, roster contracts.RosterRepository, mealSlots []string, log *logger.Logger) *Ledger {
	slots := make(map[string]bool, len(mealSlots))
	for _, s := range mealSlots {
		slots[s] = true
	}
	return &Ledger{
		repo:   repo,
		roster: roster,
		slots:  slots,
		order:  append([]string(nil), mealSlots...),
		now:    time.Now,
		logger: log,
	}
}

// WithClock overrides the timestamp source for events recorded without one
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Subscribe registers a listener notified after every applied write
func (l *Ledger) Subscribe(listener contracts.ChangeListener) {
	l.listeners = append(l.listeners, listener)
}

// RecordTag stores a scan outcome. Idempotent per (student, date, slot);
// the newest RecordedAt wins and older writes are dropped without error.
func (l *Ledger) RecordTag(ctx context.Context, ev contracts.TagEvent) error {
	if ev.Date.IsZero() {
		return &contracts.ValidationError{Field: "date", Message: "date is required"}
	}
	ev.Date = contracts.DateOf(ev.Date)
	if err := contracts.ValidateStruct(ev); err != nil {
		return err
	}
	if err := ev.CheckStatus(); err != nil {
		return err
	}
	if !l.slots[ev.MealSlot] {
		return &contracts.ValidationError{Field: "mealSlot", Message: fmt.Sprintf("unknown meal slot %q", ev.MealSlot)}
	}
	if ev.RecordedAt.IsZero() {
		ev.RecordedAt = l.now()
	}
	if ev.Status == "" {
		ev.Status = contracts.TagStatusAbsent
		if ev.IsTagged {
			ev.Status = contracts.TagStatusPresent
		}
	}

	if _, err := l.roster.Get(ctx, ev.StudentID); err != nil {
		if contracts.IsNotFound(err) {
			return err
		}
		return fmt.Errorf("check student %d: %w", ev.StudentID, err)
	}

	applied, err := l.repo.CompareAndSet(ctx, ev)
	if err != nil {
		return fmt.Errorf("record tag %s: %w", ev.Key(), err)
	}

	log := l.logger.WithDate(ev.Date).WithFields(map[string]interface{}{
		"student_id": ev.StudentID,
		"meal_slot":  ev.MealSlot,
		"is_tagged":  ev.IsTagged,
	})
	if !applied {
		log.Debug("Stale tag event ignored")
		return nil
	}
	log.Debug("Tag event recorded")

	for _, listener := range l.listeners {
		listener.DatesChanged(ctx, ev.Date)
	}
	return nil
}

// QueryTags returns the current tag state in range, filtered
func (l *Ledger) QueryTags(ctx context.Context, dr contracts.DateRange, filter contracts.TagFilter) ([]contracts.TagEvent, error) {
	events, err := l.repo.Query(ctx, dr, filter)
	if err != nil {
		return nil, fmt.Errorf("query tags %s: %w", dr, err)
	}
	return events, nil
}

// MealSlots lists accepted slots in configured order
func (l *Ledger) MealSlots() []string {
	return append([]string(nil), l.order...)
}

// DefaultSlot is the first configured slot
func (l *Ledger) DefaultSlot() string {
	if len(l.order) == 0 {
		return ""
	}
	return l.order[0]
}

// ParseStudentKey turns an NFC card payload (pk) into a student ID
func ParseStudentKey(pk string) (int64, error) {
	id, err := strconv.ParseInt(pk, 10, 64)
	if err != nil || id <= 0 {
		return 0, &contracts.ValidationError{Field: "pk", Message: fmt.Sprintf("invalid student key %q", pk)}
	}
	return id, nil
}
