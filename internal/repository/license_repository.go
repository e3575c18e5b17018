package repository

import (
	"context"
	"errors"

	"github.com/Brandonkhumalo/ShopSync/internal/db"
	"github.com/Brandonkhumalo/ShopSync/internal/domain"
	"github.com/Brandonkhumalo/ShopSync/internal/ports"
	"github.com/jackc/pgx/v5"
)

// LicenseRepository backs the licensing state machine.
type LicenseRepository struct {
	DB *db.Postgres
}

const deviceColumns = `id, app_id, shop_id, device_slot, status, product_key,
	registered_at, activated_at, expires_at, last_seen`

func (r LicenseRepository) Begin(ctx context.Context) (ports.LicenseTx, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &licenseTx{tx: tx}, nil
}

func (r LicenseRepository) DeviceByAppID(ctx context.Context, shopID, appID string) (*domain.Device, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT `+deviceColumns+` FROM shop_devices WHERE app_id=$1 AND shop_id=$2
	`, appID, shopID)
	return scanDevice(row)
}

// TouchDevice records a guard-check heartbeat.
func (r LicenseRepository) TouchDevice(ctx context.Context, appID string, lastSeen int64) error {
	_, err := r.DB.Pool.Exec(ctx, `
		UPDATE shop_devices SET last_seen=$1 WHERE app_id=$2
	`, lastSeen, appID)
	return err
}

func (r LicenseRepository) ListDevices(ctx context.Context, shopID string) ([]domain.Device, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+deviceColumns+` FROM shop_devices WHERE shop_id=$1 ORDER BY device_slot ASC
	`, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDevices(rows)
}

type licenseTx struct {
	tx pgx.Tx
}

func (t *licenseTx) ShopExists(ctx context.Context, shopID string) (bool, error) {
	var found bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM shops WHERE id=$1)`, shopID).Scan(&found)
	return found, err
}

func (t *licenseTx) DeviceByAppID(ctx context.Context, shopID, appID string) (*domain.Device, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT `+deviceColumns+` FROM shop_devices WHERE app_id=$1 AND shop_id=$2
	`, appID, shopID)
	return scanDevice(row)
}

func (t *licenseTx) CountDevices(ctx context.Context, shopID string) (int, error) {
	var count int
	err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM shop_devices WHERE shop_id=$1`, shopID).Scan(&count)
	return count, err
}

// MaxDeviceSlot returns 0 for a shop with no devices. Slots only grow;
// a slot freed by an administrative delete is never reissued.
func (t *licenseTx) MaxDeviceSlot(ctx context.Context, shopID string) (int, error) {
	var max int
	err := t.tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(device_slot), 0) FROM shop_devices WHERE shop_id=$1
	`, shopID).Scan(&max)
	return max, err
}

func (t *licenseTx) InsertDevice(ctx context.Context, d domain.Device) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO shop_devices (id, app_id, shop_id, device_slot, status, registered_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, d.ID, d.AppID, d.ShopID, d.Slot, d.Status, d.RegisteredAt)
	return err
}

func (t *licenseTx) ProductKeyByValue(ctx context.Context, key string) (*domain.ProductKey, error) {
	var k domain.ProductKey
	err := t.tx.QueryRow(ctx, `
		SELECT id, product_key, status, created_at, activated_at, expires_at, shop_id, app_id
		FROM product_keys WHERE product_key=$1
	`, key).Scan(&k.ID, &k.Key, &k.Status, &k.CreatedAt, &k.ActivatedAt, &k.ExpiresAt, &k.ShopID, &k.AppID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &k, nil
}

// ConsumeProductKey is the exchange-once step. The status predicate and
// the write are one statement, so of two concurrent activations exactly
// one sees RowsAffected==1; the loser gets false and must fail.
func (t *licenseTx) ConsumeProductKey(ctx context.Context, key, shopID, appID string, activatedAt, expiresAt int64) (bool, error) {
	ct, err := t.tx.Exec(ctx, `
		UPDATE product_keys
		SET status=$1, shop_id=$2, app_id=$3, activated_at=$4, expires_at=$5
		WHERE product_key=$6 AND status=$7
	`, domain.KeyUsed, shopID, appID, activatedAt, expiresAt, key, domain.KeyUnused)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (t *licenseTx) ActivateDevice(ctx context.Context, shopID, appID, key string, activatedAt, expiresAt, lastSeen int64) error {
	ct, err := t.tx.Exec(ctx, `
		UPDATE shop_devices
		SET status=$1, product_key=$2, activated_at=$3, expires_at=$4, last_seen=$5
		WHERE app_id=$6 AND shop_id=$7
	`, domain.DeviceActive, key, activatedAt, expiresAt, lastSeen, appID, shopID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *licenseTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *licenseTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

type deviceRow interface {
	Scan(dest ...any) error
}

func scanDevice(row deviceRow) (*domain.Device, error) {
	var d domain.Device
	err := row.Scan(&d.ID, &d.AppID, &d.ShopID, &d.Slot, &d.Status, &d.ProductKey,
		&d.RegisteredAt, &d.ActivatedAt, &d.ExpiresAt, &d.LastSeen)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func collectDevices(rows pgx.Rows) ([]domain.Device, error) {
	var devices []domain.Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *device)
	}
	return devices, rows.Err()
}
