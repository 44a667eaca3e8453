package roster

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/ssafy/baperang/backend/internal/contracts"
)

// MemoryRepository keeps the roster in process memory
type MemoryRepository struct {
	mu       sync.RWMutex
	students map[int64]*contracts.Student
}

// NewMemoryRepository creates an empty in-memory roster
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{students: make(map[int64]*contracts.Student)}
}

// Upsert implements contracts.RosterRepository
func (r *MemoryRepository) Upsert(ctx context.Context, s *contracts.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.students[s.ID]; ok {
		if !existing.SameIdentity(s) {
			return &contracts.ConflictError{
				Key:     "student/" + strconv.FormatInt(s.ID, 10),
				Message: "identity fields differ from the existing roster entry",
			}
		}
		updated := *existing
		updated.EnrolledOn = s.EnrolledOn
		updated.WithdrawnOn = s.WithdrawnOn
		r.students[s.ID] = &updated
		return nil
	}

	cp := *s
	r.students[s.ID] = &cp
	return nil
}

// Get implements contracts.RosterRepository
func (r *MemoryRepository) Get(ctx context.Context, id int64) (*contracts.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.students[id]
	if !ok {
		return nil, &contracts.NotFoundError{Kind: "student", Key: strconv.FormatInt(id, 10)}
	}
	cp := *s
	return &cp, nil
}

// List implements contracts.RosterRepository; ordered by grade, class, number
func (r *MemoryRepository) List(ctx context.Context, filter contracts.RosterFilter) ([]*contracts.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*contracts.Student, 0, len(r.students))
	for _, s := range r.students {
		if filter.Matches(s) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sortStudents(out)
	return out, nil
}

// UpdatePhysical implements contracts.RosterRepository
func (r *MemoryRepository) UpdatePhysical(ctx context.Context, id int64, upd contracts.PhysicalUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.students[id]
	if !ok {
		return &contracts.NotFoundError{Kind: "student", Key: strconv.FormatInt(id, 10)}
	}

	updated := *s
	h, w, on := upd.Height, upd.Weight, upd.MeasuredOn
	updated.Height, updated.Weight, updated.MeasuredOn = &h, &w, &on
	r.students[id] = &updated
	return nil
}

func sortStudents(students []*contracts.Student) {
	sort.Slice(students, func(i, j int) bool {
		a, b := students[i], students[j]
		if a.Grade != b.Grade {
			return a.Grade < b.Grade
		}
		if a.ClassNum != b.ClassNum {
			return a.ClassNum < b.ClassNum
		}
		if a.Number != b.Number {
			return a.Number < b.Number
		}
		return a.ID < b.ID
	})
}
