package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// order_items.product_id carries no FK: line items are historical snapshots and
// must survive deletion of the product they pointed at.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		price DOUBLE PRECISION NOT NULL,
		original_price DOUBLE PRECISION,
		image TEXT NOT NULL DEFAULT '',
		images TEXT[] NOT NULL DEFAULT '{}',
		category_id BIGINT NOT NULL REFERENCES categories(id),
		description TEXT NOT NULL DEFAULT '',
		features TEXT[] NOT NULL DEFAULT '{}',
		rating DOUBLE PRECISION NOT NULL DEFAULT 0,
		reviews INT NOT NULL DEFAULT 0,
		in_stock BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id BIGSERIAL PRIMARY KEY,
		customer TEXT NOT NULL,
		email TEXT NOT NULL,
		total DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		user_id BIGINT REFERENCES users(id),
		date TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id BIGSERIAL PRIMARY KEY,
		order_id BIGINT NOT NULL REFERENCES orders(id),
		product_id BIGINT NOT NULL,
		quantity INT NOT NULL CHECK (quantity >= 1),
		price DOUBLE PRECISION NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		product_id BIGINT NOT NULL REFERENCES products(id),
		rating INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
		comment TEXT NOT NULL DEFAULT '',
		approved BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, product_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_product_approved ON reviews(product_id, approved)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id)`,
}

func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
