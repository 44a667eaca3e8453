package roster

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ssafy/baperang/backend/internal/contracts"
)

// Repository persists the roster in PostgreSQL
// ⭐ SSOT: 학생 명단 저장/조회
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new roster repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const studentColumns = `
	student_id, name, grade, class_num, number, gender,
	height, weight, measured_on, enrolled_on, withdrawn_on`

// Upsert implements contracts.RosterRepository
func (r *Repository) Upsert(ctx context.Context, s *contracts.Student) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin roster upsert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	existing, err := scanStudent(tx.QueryRow(ctx,
		`SELECT`+studentColumns+` FROM meal.students WHERE student_id = $1 FOR UPDATE`, s.ID))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		_, err = tx.Exec(ctx, `
			INSERT INTO meal.students (
				student_id, name, grade, class_num, number, gender,
				height, weight, measured_on, enrolled_on, withdrawn_on
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			s.ID, s.Name, s.Grade, s.ClassNum, s.Number, s.Gender,
			s.Height, s.Weight, s.MeasuredOn, s.EnrolledOn, s.WithdrawnOn,
		)
		if err != nil {
			return fmt.Errorf("insert student: %w", err)
		}
	case err != nil:
		return fmt.Errorf("load student: %w", err)
	default:
		if !existing.SameIdentity(s) {
			return &contracts.ConflictError{
				Key:     "student/" + strconv.FormatInt(s.ID, 10),
				Message: "identity fields differ from the existing roster entry",
			}
		}
		_, err = tx.Exec(ctx, `
			UPDATE meal.students
			SET enrolled_on = $2, withdrawn_on = $3, updated_at = NOW()
			WHERE student_id = $1`,
			s.ID, s.EnrolledOn, s.WithdrawnOn,
		)
		if err != nil {
			return fmt.Errorf("update enrollment: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit roster upsert: %w", err)
	}
	return nil
}

// Get implements contracts.RosterRepository
func (r *Repository) Get(ctx context.Context, id int64) (*contracts.Student, error) {
	s, err := scanStudent(r.pool.QueryRow(ctx,
		`SELECT`+studentColumns+` FROM meal.students WHERE student_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &contracts.NotFoundError{Kind: "student", Key: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	return s, nil
}

// List implements contracts.RosterRepository
func (r *Repository) List(ctx context.Context, filter contracts.RosterFilter) ([]*contracts.Student, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+studentColumns+`
		FROM meal.students
		WHERE ($1 = 0 OR grade = $1) AND ($2 = 0 OR class_num = $2)
		ORDER BY grade, class_num, number, student_id`,
		filter.Grade, filter.ClassNum,
	)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var out []*contracts.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdatePhysical implements contracts.RosterRepository
func (r *Repository) UpdatePhysical(ctx context.Context, id int64, upd contracts.PhysicalUpdate) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE meal.students
		SET height = $2, weight = $3, measured_on = $4, updated_at = NOW()
		WHERE student_id = $1`,
		id, upd.Height, upd.Weight, upd.MeasuredOn,
	)
	if err != nil {
		return fmt.Errorf("update physical: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &contracts.NotFoundError{Kind: "student", Key: strconv.FormatInt(id, 10)}
	}
	return nil
}

func scanStudent(row pgx.Row) (*contracts.Student, error) {
	var s contracts.Student
	err := row.Scan(
		&s.ID, &s.Name, &s.Grade, &s.ClassNum, &s.Number, &s.Gender,
		&s.Height, &s.Weight, &s.MeasuredOn, &s.EnrolledOn, &s.WithdrawnOn,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
