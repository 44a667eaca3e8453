package roster

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

// Service is the Roster Store: student identity and classification
// ⭐ SSOT: 학생 명단 접근은 이 서비스를 통해서만
type Service struct {
	repo      contracts.RosterRepository
	listeners []contracts.ChangeListener
	logger    *logger.Logger
}

// NewService creates a roster service
func NewService(repo contracts.RosterRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// Subscribe registers a listener told when enrollment changes; a roster
// change can move the completion denominator of any date.
func (s *Service) Subscribe(listener contracts.ChangeListener) {
	s.listeners = append(s.listeners, listener)
}

func (s *Service) notifyAll(ctx context.Context) {
	for _, listener := range s.listeners {
		listener.DatesChanged(ctx)
	}
}

// ImportResult summarizes a roster import
type ImportResult struct {
	Imported int        `json:"imported"`
	Failed   []RowError `json:"failed,omitempty"`
}

// Import validates and upserts students. Invalid or conflicting rows are
// reported in the result and skipped; storage failures abort.
func (s *Service) Import(ctx context.Context, students []*contracts.Student) (*ImportResult, error) {
	result := &ImportResult{}

	for i, st := range students {
		if err := contracts.ValidateStruct(st); err != nil {
			result.Failed = append(result.Failed, RowError{Row: i + 1, Message: err.Error()})
			continue
		}

		if err := s.repo.Upsert(ctx, st); err != nil {
			if contracts.IsConflict(err) {
				result.Failed = append(result.Failed, RowError{Row: i + 1, Message: err.Error()})
				continue
			}
			if result.Imported > 0 {
				s.notifyAll(ctx)
			}
			return result, fmt.Errorf("import student %d: %w", st.ID, err)
		}
		result.Imported++
	}

	if result.Imported > 0 {
		s.notifyAll(ctx)
	}

	s.logger.WithFields(map[string]interface{}{
		"imported": result.Imported,
		"failed":   len(result.Failed),
	}).Info("Roster imported")

	return result, nil
}

// ImportXLSX parses a workbook and imports its rows
func (s *Service) ImportXLSX(ctx context.Context, r io.Reader) (*ImportResult, error) {
	students, rowErrs, err := ParseXLSX(r)
	if err != nil {
		return nil, err
	}

	result, err := s.Import(ctx, students)
	if result != nil {
		result.Failed = append(rowErrs, result.Failed...)
	}
	return result, err
}

// Get returns one student or a NotFoundError
func (s *Service) Get(ctx context.Context, id int64) (*contracts.Student, error) {
	return s.repo.Get(ctx, id)
}

// List returns students matching filter
func (s *Service) List(ctx context.Context, filter contracts.RosterFilter) ([]*contracts.Student, error) {
	return s.repo.List(ctx, filter)
}

// ActiveOn returns students enrolled on date
func (s *Service) ActiveOn(ctx context.Context, date time.Time) ([]*contracts.Student, error) {
	all, err := s.repo.List(ctx, contracts.RosterFilter{})
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}

	active := make([]*contracts.Student, 0, len(all))
	for _, st := range all {
		if st.ActiveOn(date) {
			active = append(active, st)
		}
	}
	return active, nil
}

// UpdatePhysical records a height/weight measurement
func (s *Service) UpdatePhysical(ctx context.Context, id int64, upd contracts.PhysicalUpdate) error {
	if err := contracts.ValidateStruct(upd); err != nil {
		return err
	}
	if upd.MeasuredOn.IsZero() {
		upd.MeasuredOn = contracts.DateOf(time.Now())
	}
	return s.repo.UpdatePhysical(ctx, id, upd)
}
