package repository

import (
	"context"

	"github.com/Brandonkhumalo/ShopSync/internal/db"
	"github.com/Brandonkhumalo/ShopSync/internal/domain"
	"github.com/Brandonkhumalo/ShopSync/internal/identity"
)

type SaleRepository struct {
	DB *db.Postgres
}

type CreateSaleParams struct {
	LocalID       string
	ItemID        *string
	ItemName      string
	Quantity      int
	TotalUSD      float64
	TotalZWG      float64
	PaymentMethod string
	DebtUsedUSD   float64
	DebtUsedZWG   float64
	DebtID        *string
	SaleDate      *int64
}

const saleColumns = `id, local_id, shop_id, item_id, item_name, quantity, total_usd, total_zwg,
	payment_method, debt_used_usd, debt_used_zwg, debt_id, sale_date, created_at`

func (r SaleRepository) List(ctx context.Context, shopID string, dates DateRange) ([]domain.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE shop_id=$1`
	args := []any{shopID}
	clause, clauseArgs := dates.Clause("sale_date", 2)
	query += clause
	args = append(args, clauseArgs...)
	query += ` ORDER BY sale_date DESC`

	rows, err := r.DB.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []domain.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, *sale)
	}
	return sales, rows.Err()
}

func (r SaleRepository) Create(ctx context.Context, shopID string, in CreateSaleParams, now int64) (*domain.Sale, error) {
	id := identity.NewID(identity.PrefixSale)
	localID := in.LocalID
	if localID == "" {
		localID = id
	}
	method := in.PaymentMethod
	if method == "" {
		method = "CASH"
	}
	saleDate := now
	if in.SaleDate != nil {
		saleDate = *in.SaleDate
	}
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO sales (id, local_id, shop_id, item_id, item_name, quantity, total_usd, total_zwg,
		                   payment_method, debt_used_usd, debt_used_zwg, debt_id, sale_date, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING `+saleColumns+`
	`, id, localID, shopID, in.ItemID, in.ItemName, in.Quantity, in.TotalUSD, in.TotalZWG,
		method, in.DebtUsedUSD, in.DebtUsedZWG, in.DebtID, saleDate, now)
	return scanSale(row)
}

// Report aggregates the sales window into a summary plus top ten items.
func (r SaleRepository) Report(ctx context.Context, shopID string, dates DateRange) (*domain.SalesSummary, []domain.TopItem, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(total_usd), 0),
		       COALESCE(SUM(total_zwg), 0),
		       COALESCE(SUM(quantity), 0)
		FROM sales WHERE shop_id=$1`
	args := []any{shopID}
	clause, clauseArgs := dates.Clause("sale_date", 2)
	query += clause
	args = append(args, clauseArgs...)

	var summary domain.SalesSummary
	if err := r.DB.Pool.QueryRow(ctx, query, args...).
		Scan(&summary.TotalTransactions, &summary.TotalUSD, &summary.TotalZWG, &summary.TotalItemsSold); err != nil {
		return nil, nil, err
	}

	topQuery := `
		SELECT item_name, SUM(quantity), SUM(total_usd)
		FROM sales WHERE shop_id=$1`
	topArgs := []any{shopID}
	clause, clauseArgs = dates.Clause("sale_date", 2)
	topQuery += clause
	topArgs = append(topArgs, clauseArgs...)
	topQuery += ` GROUP BY item_name ORDER BY SUM(quantity) DESC LIMIT 10`

	rows, err := r.DB.Pool.Query(ctx, topQuery, topArgs...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var top []domain.TopItem
	for rows.Next() {
		var t domain.TopItem
		var name *string
		if err := rows.Scan(&name, &t.TotalQty, &t.RevenueUSD); err != nil {
			return nil, nil, err
		}
		if name != nil {
			t.ItemName = *name
		}
		top = append(top, t)
	}
	return &summary, top, rows.Err()
}

type saleRow interface {
	Scan(dest ...any) error
}

func scanSale(row saleRow) (*domain.Sale, error) {
	var s domain.Sale
	var itemName *string
	err := row.Scan(&s.ID, &s.LocalID, &s.ShopID, &s.ItemID, &itemName, &s.Quantity,
		&s.TotalUSD, &s.TotalZWG, &s.PaymentMethod, &s.DebtUsedUSD, &s.DebtUsedZWG,
		&s.DebtID, &s.SaleDate, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if itemName != nil {
		s.ItemName = *itemName
	}
	return &s, nil
}
