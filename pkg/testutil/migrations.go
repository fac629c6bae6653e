package testutil

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// InventoryMigrations returns the inventory service schema for tests.
// It matches the production schema: an item catalog plus an append-only
// movement ledger that restricts item deletion.
func InventoryMigrations() []string {
	return []string{
		// Item catalog
		`CREATE TABLE IF NOT EXISTS items (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT,
			unit TEXT NOT NULL DEFAULT 'un',
			min_stock INTEGER NOT NULL DEFAULT 0 CHECK (min_stock >= 0),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// Names are unique case-insensitively
		`CREATE UNIQUE INDEX IF NOT EXISTS items_name_lower_key ON items (LOWER(name))`,

		// Append-only movement ledger
		`CREATE TABLE IF NOT EXISTS stock_movements (
			id UUID PRIMARY KEY,
			item_id UUID NOT NULL REFERENCES items(id) ON DELETE RESTRICT,
			type TEXT NOT NULL CHECK (type IN ('IN', 'OUT')),
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			reason TEXT,
			lot TEXT,
			expiration_date DATE,
			user_id UUID,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS stock_movements_item_idx ON stock_movements (item_id)`,

		`CREATE INDEX IF NOT EXISTS stock_movements_expiry_idx ON stock_movements (expiration_date)
			WHERE expiration_date IS NOT NULL`,
	}
}

// ApplyMigrations runs the given DDL statements in order
func ApplyMigrations(ctx context.Context, db *sqlx.DB, migrations []string) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
