package tagging

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ssafy/baperang/backend/internal/contracts"
)

// Repository persists tag state in PostgreSQL
// ⭐ SSOT: NFC 태깅 기록 저장/조회
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new tag repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CompareAndSet implements contracts.TagRepository.
// The conditional upsert applies atomically only when the incoming event is newer.
func (r *Repository) CompareAndSet(ctx context.Context, ev contracts.TagEvent) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO meal.tag_events (student_id, service_date, meal_slot, is_tagged, status, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (student_id, service_date, meal_slot) DO UPDATE SET
			is_tagged = EXCLUDED.is_tagged,
			status = EXCLUDED.status,
			recorded_at = EXCLUDED.recorded_at
		WHERE meal.tag_events.recorded_at < EXCLUDED.recorded_at`,
		ev.StudentID, ev.Date, ev.MealSlot, ev.IsTagged, string(ev.Status), ev.RecordedAt,
	)
	if err != nil {
		return false, fmt.Errorf("upsert tag event: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	// Not applied: either older, or same timestamp. Check for a conflicting outcome.
	var existing contracts.TagEvent
	var status string
	err = r.pool.QueryRow(ctx, `
		SELECT is_tagged, status, recorded_at
		FROM meal.tag_events
		WHERE student_id = $1 AND service_date = $2 AND meal_slot = $3`,
		ev.StudentID, ev.Date, ev.MealSlot,
	).Scan(&existing.IsTagged, &status, &existing.RecordedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load tag event: %w", err)
	}
	existing.StudentID, existing.Date, existing.MealSlot = ev.StudentID, ev.Date, ev.MealSlot
	existing.Status = contracts.TagStatus(status)

	_, err = supersedes(existing, ev)
	return false, err
}

// Query implements contracts.TagRepository
func (r *Repository) Query(ctx context.Context, dr contracts.DateRange, filter contracts.TagFilter) ([]contracts.TagEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT student_id, service_date, meal_slot, is_tagged, status, recorded_at
		FROM meal.tag_events
		WHERE service_date BETWEEN $1 AND $2
		  AND ($3 = 0 OR student_id = $3)
		  AND ($4 = '' OR meal_slot = $4)
		  AND (NOT $5 OR is_tagged)
		ORDER BY service_date, student_id, meal_slot`,
		dr.From, dr.To, filter.StudentID, filter.MealSlot, filter.TaggedOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("query tag events: %w", err)
	}
	defer rows.Close()

	var out []contracts.TagEvent
	for rows.Next() {
		var ev contracts.TagEvent
		var status string
		if err := rows.Scan(&ev.StudentID, &ev.Date, &ev.MealSlot, &ev.IsTagged, &status, &ev.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan tag event: %w", err)
		}
		ev.Status = contracts.TagStatus(status)
		out = append(out, ev)
	}
	return out, rows.Err()
}
