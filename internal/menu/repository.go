package menu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ssafy/baperang/backend/internal/contracts"
)

// Repository persists published menus in PostgreSQL
// ⭐ SSOT: 식단 저장/조회
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new menu repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectMenu = `
	SELECT menu_id, menu_name, service_date, dishes, holidays, nutrient
	FROM meal.menus`

// Publish implements contracts.MenuRepository
func (r *Repository) Publish(ctx context.Context, m *contracts.MenuItem) error {
	nutrient, err := json.Marshal(m.Nutrients)
	if err != nil {
		return fmt.Errorf("marshal nutrients: %w", err)
	}
	if m.Nutrients == nil {
		nutrient = nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO meal.menus (menu_id, menu_name, service_date, dishes, holidays, nutrient)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING`,
		m.MenuID, m.MenuName, m.Date, nonNil(m.Dishes), nonNil(m.Holiday), nutrient,
	)
	if err != nil {
		return fmt.Errorf("insert menu: %w", err)
	}

	if tag.RowsAffected() == 0 {
		existing, err := scanMenu(tx.QueryRow(ctx, selectMenu+`
			WHERE menu_id = $1 OR service_date = $2
			LIMIT 1`, m.MenuID, m.Date))
		if err != nil {
			return fmt.Errorf("load published menu: %w", err)
		}
		if err := publishedAlready(existing, m); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Get implements contracts.MenuRepository
func (r *Repository) Get(ctx context.Context, menuID int64) (*contracts.MenuItem, error) {
	m, err := scanMenu(r.pool.QueryRow(ctx, selectMenu+` WHERE menu_id = $1`, menuID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &contracts.NotFoundError{Kind: "menu", Key: strconv.FormatInt(menuID, 10)}
	}
	if err != nil {
		return nil, fmt.Errorf("get menu: %w", err)
	}
	return m, nil
}

// GetByDate implements contracts.MenuRepository
func (r *Repository) GetByDate(ctx context.Context, date time.Time) (*contracts.MenuItem, error) {
	m, err := scanMenu(r.pool.QueryRow(ctx, selectMenu+` WHERE service_date = $1`, contracts.DateOf(date)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &contracts.NotFoundError{Kind: "menu", Key: contracts.FormatDate(date)}
	}
	if err != nil {
		return nil, fmt.Errorf("get menu by date: %w", err)
	}
	return m, nil
}

// Range implements contracts.MenuRepository
func (r *Repository) Range(ctx context.Context, dr contracts.DateRange) ([]*contracts.MenuItem, error) {
	rows, err := r.pool.Query(ctx, selectMenu+`
		WHERE service_date BETWEEN $1 AND $2
		ORDER BY service_date`, dr.From, dr.To)
	if err != nil {
		return nil, fmt.Errorf("query menus: %w", err)
	}
	defer rows.Close()

	var out []*contracts.MenuItem
	for rows.Next() {
		m, err := scanMenu(rows)
		if err != nil {
			return nil, fmt.Errorf("scan menu: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMenu(row pgx.Row) (*contracts.MenuItem, error) {
	var m contracts.MenuItem
	var nutrient []byte
	if err := row.Scan(&m.MenuID, &m.MenuName, &m.Date, &m.Dishes, &m.Holiday, &nutrient); err != nil {
		return nil, err
	}
	if len(nutrient) > 0 {
		if err := json.Unmarshal(nutrient, &m.Nutrients); err != nil {
			return nil, fmt.Errorf("unmarshal nutrients: %w", err)
		}
	}
	return &m, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
