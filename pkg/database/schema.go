package database

import (
	"context"
	"fmt"
)

// migrations are applied in order; each statement is idempotent.
var migrations = []string{
	`CREATE SCHEMA IF NOT EXISTS meal`,

	`CREATE TABLE IF NOT EXISTS meal.students (
		student_id    BIGINT PRIMARY KEY,
		name          TEXT NOT NULL,
		grade         INT NOT NULL,
		class_num     INT NOT NULL,
		number        INT NOT NULL,
		gender        TEXT NOT NULL DEFAULT '',
		height        DOUBLE PRECISION,
		weight        DOUBLE PRECISION,
		measured_on   DATE,
		enrolled_on   DATE,
		withdrawn_on  DATE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS meal.tag_events (
		student_id   BIGINT NOT NULL REFERENCES meal.students(student_id),
		service_date DATE NOT NULL,
		meal_slot    TEXT NOT NULL,
		is_tagged    BOOLEAN NOT NULL,
		status       TEXT NOT NULL DEFAULT '',
		recorded_at  TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (student_id, service_date, meal_slot)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tag_events_date ON meal.tag_events (service_date)`,

	`CREATE TABLE IF NOT EXISTS meal.menus (
		menu_id      BIGINT PRIMARY KEY,
		menu_name    TEXT NOT NULL,
		service_date DATE NOT NULL UNIQUE,
		dishes       TEXT[] NOT NULL DEFAULT '{}',
		holidays     TEXT[] NOT NULL DEFAULT '{}',
		nutrient     JSONB,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS meal.leftover_measurements (
		service_date     DATE NOT NULL,
		dish_name        TEXT NOT NULL,
		waste_rate       DOUBLE PRECISION NOT NULL CHECK (waste_rate >= 0 AND waste_rate <= 1),
		preference_score DOUBLE PRECISION,
		category         TEXT NOT NULL DEFAULT '',
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (service_date, dish_name)
	)`,

	`CREATE TABLE IF NOT EXISTS meal.satisfaction_votes (
		menu_id    BIGINT NOT NULL REFERENCES meal.menus(menu_id),
		voter_id   TEXT NOT NULL,
		score      INT NOT NULL CHECK (score BETWEEN 1 AND 5),
		voted_at   TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (menu_id, voter_id)
	)`,

	`CREATE TABLE IF NOT EXISTS meal.inventory_items (
		id                UUID PRIMARY KEY,
		service_date      DATE NOT NULL,
		product_name      TEXT NOT NULL,
		supplier          TEXT NOT NULL DEFAULT '',
		price             NUMERIC(14,2) NOT NULL,
		ordered_quantity  DOUBLE PRECISION NOT NULL,
		used_quantity     DOUBLE PRECISION NOT NULL,
		unit              TEXT NOT NULL DEFAULT '',
		order_unit        TEXT NOT NULL DEFAULT '',
		use_unit          TEXT NOT NULL DEFAULT '',
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_inventory_date ON meal.inventory_items (service_date)`,
}

// Migrate applies the schema
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// MigrationCount reports how many statements Migrate applies
func MigrationCount() int {
	return len(migrations)
}
