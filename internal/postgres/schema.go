package postgres

import (
	"context"
	"fmt"
	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied statement by statement; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS members (
		id            BIGSERIAL PRIMARY KEY,
		name          TEXT        NOT NULL,
		email         TEXT        NOT NULL UNIQUE,
		password_hash TEXT        NOT NULL,
		address       TEXT        NOT NULL,
		role          TEXT        NOT NULL DEFAULT 'USER' CHECK (role IN ('USER', 'ADMIN')),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT        NOT NULL,
		price       BIGINT      NOT NULL CHECK (price >= 0),
		detail      TEXT        NOT NULL DEFAULT '',
		sell_status TEXT        NOT NULL CHECK (sell_status IN ('ON_SALE', 'SOLD_OUT')),
		stock       INTEGER     NOT NULL CHECK (stock >= 0),
		created_by  TEXT        NOT NULL DEFAULT '',
		modified_by TEXT        NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_items_created_at ON items (created_at)`,
	`CREATE TABLE IF NOT EXISTS item_images (
		id             BIGSERIAL PRIMARY KEY,
		item_id        BIGINT      NOT NULL REFERENCES items (id) ON DELETE RESTRICT,
		original_name  TEXT        NOT NULL DEFAULT '',
		stored_name    TEXT        NOT NULL DEFAULT '',
		url            TEXT        NOT NULL DEFAULT '',
		representative BOOLEAN     NOT NULL DEFAULT FALSE,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_item_images_item ON item_images (item_id)`,
	// one representative image per item
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_item_images_representative ON item_images (item_id) WHERE representative`,
	`CREATE TABLE IF NOT EXISTS orders (
		id         BIGSERIAL PRIMARY KEY,
		member_id  BIGINT      NOT NULL REFERENCES members (id),
		status     TEXT        NOT NULL CHECK (status IN ('ORDER', 'CANCEL')),
		ordered_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_member ON orders (member_id, id DESC)`,
	`CREATE TABLE IF NOT EXISTS order_lines (
		id         BIGSERIAL PRIMARY KEY,
		order_id   BIGINT  NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
		item_id    BIGINT  NOT NULL REFERENCES items (id) ON DELETE RESTRICT,
		quantity   INTEGER NOT NULL CHECK (quantity > 0),
		unit_price BIGINT  NOT NULL CHECK (unit_price >= 0)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_lines_order ON order_lines (order_id)`,
}

// Migrate creates the shop tables if they don't exist yet.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	return nil
}
