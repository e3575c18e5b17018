package repository

import (
	"context"
	"fmt"

	"github.com/Brandonkhumalo/ShopSync/internal/db"
	"golang.org/x/crypto/bcrypt"
)

// millisDefault is the column default for epoch-millisecond timestamps.
const millisDefault = "(EXTRACT(EPOCH FROM NOW()) * 1000)::BIGINT"

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS shops (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		owner_name TEXT NOT NULL,
		owner_surname TEXT NOT NULL,
		phone_number TEXT NOT NULL,
		services TEXT,
		address TEXT,
		pin TEXT,
		subscription_start BIGINT,
		subscription_end BIGINT,
		last_payment_date BIGINT,
		payment_status TEXT DEFAULT 'pending',
		created_at BIGINT DEFAULT ` + millisDefault + `,
		updated_at BIGINT DEFAULT ` + millisDefault + `
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		local_id TEXT UNIQUE,
		shop_id TEXT NOT NULL REFERENCES shops(id),
		name TEXT NOT NULL,
		category TEXT,
		price_usd REAL DEFAULT 0,
		price_zwg REAL DEFAULT 0,
		quantity INTEGER DEFAULT 0,
		created_at BIGINT DEFAULT ` + millisDefault + `,
		updated_at BIGINT DEFAULT ` + millisDefault + `
	)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		local_id TEXT UNIQUE,
		shop_id TEXT NOT NULL REFERENCES shops(id),
		item_id TEXT,
		item_name TEXT,
		quantity INTEGER DEFAULT 0,
		total_usd REAL DEFAULT 0,
		total_zwg REAL DEFAULT 0,
		payment_method TEXT DEFAULT 'CASH',
		debt_used_usd REAL DEFAULT 0,
		debt_used_zwg REAL DEFAULT 0,
		debt_id TEXT,
		sale_date BIGINT DEFAULT ` + millisDefault + `,
		created_at BIGINT DEFAULT ` + millisDefault + `
	)`,
	`CREATE TABLE IF NOT EXISTS debts (
		id TEXT PRIMARY KEY,
		local_id TEXT UNIQUE,
		shop_id TEXT NOT NULL REFERENCES shops(id),
		customer_name TEXT NOT NULL,
		amount_usd REAL DEFAULT 0,
		amount_zwg REAL DEFAULT 0,
		type TEXT DEFAULT 'CREDIT_USED',
		notes TEXT,
		cleared BOOLEAN DEFAULT FALSE,
		cleared_at BIGINT,
		created_at BIGINT DEFAULT ` + millisDefault + `,
		updated_at BIGINT DEFAULT ` + millisDefault + `
	)`,
	`CREATE TABLE IF NOT EXISTS sync_logs (
		id SERIAL PRIMARY KEY,
		shop_id TEXT NOT NULL REFERENCES shops(id),
		sync_time BIGINT DEFAULT ` + millisDefault + `,
		success BOOLEAN DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS product_keys (
		id TEXT PRIMARY KEY,
		product_key TEXT UNIQUE NOT NULL,
		status TEXT DEFAULT 'unused',
		created_at BIGINT DEFAULT ` + millisDefault + `,
		activated_at BIGINT,
		expires_at BIGINT,
		shop_id TEXT REFERENCES shops(id),
		app_id TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS shop_devices (
		id TEXT PRIMARY KEY,
		app_id TEXT UNIQUE NOT NULL,
		shop_id TEXT NOT NULL REFERENCES shops(id),
		device_slot INTEGER NOT NULL,
		status TEXT DEFAULT 'pending',
		product_key TEXT,
		registered_at BIGINT DEFAULT ` + millisDefault + `,
		activated_at BIGINT,
		expires_at BIGINT,
		last_seen BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS admin_users (
		id SERIAL PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at BIGINT DEFAULT ` + millisDefault + `,
		last_login_at BIGINT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_items_shop ON items(shop_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_shop ON sales(shop_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_date ON sales(sale_date)`,
	`CREATE INDEX IF NOT EXISTS idx_debts_shop ON debts(shop_id)`,
	`CREATE INDEX IF NOT EXISTS idx_product_keys_status ON product_keys(status)`,
	`CREATE INDEX IF NOT EXISTS idx_shop_devices_shop ON shop_devices(shop_id)`,
	`CREATE INDEX IF NOT EXISTS idx_shop_devices_app ON shop_devices(app_id)`,
}

// InitSchema creates the table set idempotently.
func InitSchema(ctx context.Context, pg *db.Postgres) error {
	for _, stmt := range schemaStatements {
		if _, err := pg.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// SeedAdmin ensures the dashboard account from config exists.
func SeedAdmin(ctx context.Context, pg *db.Postgres, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	_, err = pg.Pool.Exec(ctx, `
		INSERT INTO admin_users (email, password_hash)
		VALUES ($1, $2)
		ON CONFLICT (email) DO NOTHING
	`, email, string(hash))
	return err
}
