package leftover

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

// Store is the Leftover Measurement Store: one waste rate per (date, dish)
// ⭐ SSOT: 잔반 측정값 쓰기는 이 Store를 통해서만
type Store struct {
	repo      contracts.LeftoverRepository
	listeners []contracts.ChangeListener
	logger    *logger.Logger
}

// NewStore creates a measurement store
func NewStore(repo contracts.LeftoverRepository, log *logger.Logger) *Store {
	return &Store{repo: repo, logger: log}
}

// Subscribe registers a listener notified after every committed write
func (s *Store) Subscribe(listener contracts.ChangeListener) {
	s.listeners = append(s.listeners, listener)
}

// UpsertMeasurement validates and stores m, overwriting any previous
// measurement for the same (date, dish). Invalid input changes nothing.
func (s *Store) UpsertMeasurement(ctx context.Context, m contracts.LeftoverMeasurement) error {
	return s.UpsertMeasurements(ctx, []contracts.LeftoverMeasurement{m})
}

// UpsertMeasurements stores a batch. Every entry is validated before any write,
// so one invalid entry rejects the whole batch.
func (s *Store) UpsertMeasurements(ctx context.Context, batch []contracts.LeftoverMeasurement) error {
	normalized := make([]contracts.LeftoverMeasurement, len(batch))
	for i, m := range batch {
		m.DishName = strings.TrimSpace(m.DishName)
		m.Category = strings.TrimSpace(m.Category)
		if err := m.Validate(); err != nil {
			return err
		}
		m.Date = contracts.DateOf(m.Date)
		normalized[i] = m
	}

	if len(normalized) == 0 {
		return nil
	}

	touched := distinctDates(normalized)
	// a failed commit may still have landed, so listeners hear about every
	// date the batch tried to write, even after the caller gave up
	defer s.notify(context.WithoutCancel(ctx), touched)

	if err := s.repo.UpsertBatch(ctx, normalized); err != nil {
		return fmt.Errorf("store measurements: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"measurements": len(normalized),
		"dates":        len(touched),
	}).Debug("Leftover measurements stored")
	return nil
}

func (s *Store) notify(ctx context.Context, dates []time.Time) {
	for _, listener := range s.listeners {
		listener.DatesChanged(ctx, dates...)
	}
}

func distinctDates(batch []contracts.LeftoverMeasurement) []time.Time {
	var out []time.Time
	seen := make(map[string]bool)
	for _, m := range batch {
		if day := contracts.FormatDate(m.Date); !seen[day] {
			seen[day] = true
			out = append(out, m.Date)
		}
	}
	return out
}

// QueryMeasurements returns measurements in range; an empty filter matches all dishes
func (s *Store) QueryMeasurements(ctx context.Context, dr contracts.DateRange, dishFilter []string) ([]contracts.LeftoverMeasurement, error) {
	out, err := s.repo.Query(ctx, dr, dishFilter)
	if err != nil {
		return nil, fmt.Errorf("query measurements %s: %w", dr, err)
	}
	return out, nil
}
