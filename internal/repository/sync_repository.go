package repository

import (
	"context"
	"errors"

	"github.com/Brandonkhumalo/ShopSync/internal/db"
	"github.com/Brandonkhumalo/ShopSync/internal/domain"
	"github.com/Brandonkhumalo/ShopSync/internal/identity"
	"github.com/Brandonkhumalo/ShopSync/internal/ports"
	"github.com/jackc/pgx/v5"
)

// SyncRepository opens merge transactions for the reconciliation engine.
type SyncRepository struct {
	DB *db.Postgres
}

func (r SyncRepository) Begin(ctx context.Context) (ports.SyncTx, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &syncTx{tx: tx}, nil
}

func (r SyncRepository) LastSyncLog(ctx context.Context, shopID string) (*domain.SyncLog, error) {
	var log domain.SyncLog
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT id, shop_id, sync_time, success FROM sync_logs
		WHERE shop_id=$1 ORDER BY sync_time DESC LIMIT 1
	`, shopID).Scan(&log.ID, &log.ShopID, &log.SyncTime, &log.Success)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &log, nil
}

type syncTx struct {
	tx pgx.Tx
}

func (t *syncTx) ShopExists(ctx context.Context, shopID string) (bool, error) {
	var found bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM shops WHERE id=$1)`, shopID).Scan(&found)
	return found, err
}

// UpsertItem merges by (local_id, shop_id). On update the server merge
// time wins over any client timestamp; on insert a client created_at is
// preserved when present.
func (t *syncTx) UpsertItem(ctx context.Context, shopID string, change domain.ItemChange, mergeTime int64) (bool, error) {
	ct, err := t.tx.Exec(ctx, `
		UPDATE items SET name=$1, category=$2, price_usd=$3, price_zwg=$4, quantity=$5, updated_at=$6
		WHERE local_id=$7 AND shop_id=$8
	`, change.Name, change.Category, change.PriceUSD, change.PriceZWG, change.Quantity, mergeTime,
		change.LocalID, shopID)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() > 0 {
		return false, nil
	}

	createdAt := mergeTime
	if change.CreatedAt != nil {
		createdAt = *change.CreatedAt
	}
	_, err = t.tx.Exec(ctx, `
		INSERT INTO items (id, local_id, shop_id, name, category, price_usd, price_zwg, quantity, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9)
	`, identity.NewID(identity.PrefixItem), change.LocalID, shopID, change.Name, change.Category,
		change.PriceUSD, change.PriceZWG, change.Quantity, createdAt)
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertSale skips local_ids that already exist; sales are append-only.
func (t *syncTx) InsertSale(ctx context.Context, shopID string, change domain.SaleChange, mergeTime int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM sales WHERE local_id=$1 AND shop_id=$2)
	`, change.LocalID, shopID).Scan(&exists)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	method := change.PaymentMethod
	if method == "" {
		method = "CASH"
	}
	saleDate := mergeTime
	if change.SaleDate != nil {
		saleDate = *change.SaleDate
	}
	_, err = t.tx.Exec(ctx, `
		INSERT INTO sales (id, local_id, shop_id, item_id, item_name, quantity, total_usd, total_zwg,
		                   payment_method, debt_used_usd, debt_used_zwg, debt_id, sale_date, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, identity.NewID(identity.PrefixSale), change.LocalID, shopID, change.ItemID, change.ItemName,
		change.Quantity, change.TotalUSD, change.TotalZWG, method,
		change.DebtUsedUSD, change.DebtUsedZWG, change.DebtID, saleDate, mergeTime)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *syncTx) UpsertDebt(ctx context.Context, shopID string, change domain.DebtChange, mergeTime int64) (bool, error) {
	ct, err := t.tx.Exec(ctx, `
		UPDATE debts SET customer_name=$1, amount_usd=$2, amount_zwg=$3, type=$4, notes=$5,
		                 cleared=$6, cleared_at=$7, updated_at=$8
		WHERE local_id=$9 AND shop_id=$10
	`, change.CustomerName, change.AmountUSD, change.AmountZWG, debtType(change), change.Notes,
		change.Cleared, change.ClearedAt, mergeTime, change.LocalID, shopID)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() > 0 {
		return false, nil
	}

	createdAt := mergeTime
	if change.CreatedAt != nil {
		createdAt = *change.CreatedAt
	}
	_, err = t.tx.Exec(ctx, `
		INSERT INTO debts (id, local_id, shop_id, customer_name, amount_usd, amount_zwg, type, notes,
		                   cleared, cleared_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11)
	`, identity.NewID(identity.PrefixDebt), change.LocalID, shopID, change.CustomerName,
		change.AmountUSD, change.AmountZWG, debtType(change), change.Notes,
		change.Cleared, change.ClearedAt, createdAt)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *syncTx) AppendSyncLog(ctx context.Context, shopID string, syncTime int64, success bool) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO sync_logs (shop_id, sync_time, success) VALUES ($1,$2,$3)
	`, shopID, syncTime, success)
	return err
}

func (t *syncTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *syncTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

func debtType(change domain.DebtChange) domain.DebtType {
	if change.Type == "" {
		return domain.DebtCreditUsed
	}
	return change.Type
}
