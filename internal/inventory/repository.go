package inventory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ssafy/baperang/backend/internal/contracts"
)

// Repository persists inventory records in PostgreSQL
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new inventory repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save implements contracts.InventoryRepository
func (r *Repository) Save(ctx context.Context, item *contracts.InventoryItem) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO meal.inventory_items
			(id, service_date, product_name, supplier, price, ordered_quantity, used_quantity, unit, order_unit, use_unit)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			service_date = EXCLUDED.service_date,
			product_name = EXCLUDED.product_name,
			supplier = EXCLUDED.supplier,
			price = EXCLUDED.price,
			ordered_quantity = EXCLUDED.ordered_quantity,
			used_quantity = EXCLUDED.used_quantity,
			unit = EXCLUDED.unit,
			order_unit = EXCLUDED.order_unit,
			use_unit = EXCLUDED.use_unit`,
		item.ID.String(), item.Date, item.ProductName, item.Supplier, item.Price.String(),
		item.OrderedQuantity, item.UsedQuantity, item.Unit, item.OrderUnit, item.UseUnit,
	)
	if err != nil {
		return fmt.Errorf("save inventory item: %w", err)
	}
	return nil
}

// List implements contracts.InventoryRepository
func (r *Repository) List(ctx context.Context, dr contracts.DateRange) ([]*contracts.InventoryItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, service_date, product_name, supplier, price::text,
		       ordered_quantity, used_quantity, unit, order_unit, use_unit
		FROM meal.inventory_items
		WHERE service_date BETWEEN $1 AND $2
		ORDER BY service_date, product_name, id`,
		dr.From, dr.To,
	)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	var out []*contracts.InventoryItem
	for rows.Next() {
		var it contracts.InventoryItem
		var id, price string
		if err := rows.Scan(&id, &it.Date, &it.ProductName, &it.Supplier, &price,
			&it.OrderedQuantity, &it.UsedQuantity, &it.Unit, &it.OrderUnit, &it.UseUnit); err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		if it.ID, err = uuidParse(id); err != nil {
			return nil, err
		}
		if it.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse price %q: %w", price, err)
		}
		out = append(out, &it)
	}
	return out, rows.Err()
}
