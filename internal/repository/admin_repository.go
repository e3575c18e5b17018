package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Brandonkhumalo/ShopSync/internal/db"
	"github.com/Brandonkhumalo/ShopSync/internal/domain"
	"github.com/jackc/pgx/v5"
)

// AdminRepository serves the dashboard: auth, key minting, stats and the
// administrative shop cascade.
type AdminRepository struct {
	DB *db.Postgres
}

func (r AdminRepository) AdminByEmail(ctx context.Context, email string) (*domain.AdminUser, error) {
	var u domain.AdminUser
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at, last_login_at
		FROM admin_users WHERE email=$1
	`, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.LastLoginAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r AdminRepository) TouchAdminLogin(ctx context.Context, id int64, at int64) error {
	_, err := r.DB.Pool.Exec(ctx, `UPDATE admin_users SET last_login_at=$1 WHERE id=$2`, at, id)
	return err
}

func (r AdminRepository) InsertProductKey(ctx context.Context, key domain.ProductKey) error {
	_, err := r.DB.Pool.Exec(ctx, `
		INSERT INTO product_keys (id, product_key, status, created_at)
		VALUES ($1,$2,$3,$4)
	`, key.ID, key.Key, key.Status, key.CreatedAt)
	return err
}

func (r AdminRepository) ListProductKeys(ctx context.Context) ([]domain.ProductKey, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, product_key, status, created_at, activated_at, expires_at, shop_id, app_id
		FROM product_keys ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []domain.ProductKey
	for rows.Next() {
		var k domain.ProductKey
		if err := rows.Scan(&k.ID, &k.Key, &k.Status, &k.CreatedAt, &k.ActivatedAt, &k.ExpiresAt, &k.ShopID, &k.AppID); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (r AdminRepository) ListShops(ctx context.Context) ([]domain.Shop, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, name, owner_name, owner_surname, phone_number, services, address, pin,
		       payment_status, subscription_start, subscription_end, last_payment_date,
		       created_at, updated_at
		FROM shops ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shops []domain.Shop
	for rows.Next() {
		shop, err := scanShop(rows)
		if err != nil {
			return nil, err
		}
		shops = append(shops, *shop)
	}
	return shops, rows.Err()
}

func (r AdminRepository) ListAllDevices(ctx context.Context) ([]domain.Device, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT ` + deviceColumns + ` FROM shop_devices ORDER BY registered_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDevices(rows)
}

func (r AdminRepository) Stats(ctx context.Context) (*domain.AdminStats, error) {
	var s domain.AdminStats
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM shops),
		       (SELECT COUNT(*) FROM product_keys),
		       (SELECT COUNT(*) FROM product_keys WHERE status='used'),
		       (SELECT COUNT(*) FROM shop_devices),
		       (SELECT COUNT(*) FROM shop_devices WHERE status='active')
	`).Scan(&s.TotalShops, &s.TotalKeys, &s.UsedKeys, &s.TotalDevices, &s.ActiveDevices)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteShopCascade removes a shop and everything referencing it in
// foreign-key dependency order, atomically.
func (r AdminRepository) DeleteShopCascade(ctx context.Context, shopID string) error {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{"sync_logs", "debts", "sales", "items", "shop_devices", "product_keys"} {
		if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE shop_id=$1`, table), shopID); err != nil {
			return fmt.Errorf("cascade %s: %w", table, err)
		}
	}

	ct, err := tx.Exec(ctx, `DELETE FROM shops WHERE id=$1`, shopID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}
