package leftover

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/pkg/database"
)

// Repository persists leftover measurements in PostgreSQL
// ⭐ SSOT: 잔반 측정값 저장/조회
type Repository struct {
	db *database.DB
}

// NewRepository creates a new leftover repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

const upsertLeftoverSQL = `
	INSERT INTO meal.leftover_measurements (service_date, dish_name, waste_rate, preference_score, category, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW())
	ON CONFLICT (service_date, dish_name) DO UPDATE SET
		waste_rate = EXCLUDED.waste_rate,
		preference_score = EXCLUDED.preference_score,
		category = EXCLUDED.category,
		updated_at = NOW()`

// UpsertBatch implements contracts.LeftoverRepository in a single transaction
func (r *Repository) UpsertBatch(ctx context.Context, batch []contracts.LeftoverMeasurement) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		for _, m := range batch {
			b.Queue(upsertLeftoverSQL, m.Date, m.DishName, m.WasteRate, m.PreferenceScore, m.Category)
		}

		results := tx.SendBatch(ctx, b)
		for _, m := range batch {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("upsert leftover %s/%s: %w", contracts.FormatDate(m.Date), m.DishName, err)
			}
		}
		return results.Close()
	})
}

// Query implements contracts.LeftoverRepository
func (r *Repository) Query(ctx context.Context, dr contracts.DateRange, dishFilter []string) ([]contracts.LeftoverMeasurement, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT service_date, dish_name, waste_rate, preference_score, category
		FROM meal.leftover_measurements
		WHERE service_date BETWEEN $1 AND $2
		  AND (cardinality($3::text[]) = 0 OR dish_name = ANY($3))
		ORDER BY service_date, dish_name`,
		dr.From, dr.To, dishFilter,
	)
	if err != nil {
		return nil, fmt.Errorf("query leftover measurements: %w", err)
	}
	defer rows.Close()

	var out []contracts.LeftoverMeasurement
	for rows.Next() {
		var m contracts.LeftoverMeasurement
		if err := rows.Scan(&m.Date, &m.DishName, &m.WasteRate, &m.PreferenceScore, &m.Category); err != nil {
			return nil, fmt.Errorf("scan leftover measurement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
