package repository

import (
	"context"
	"errors"

	"github.com/Brandonkhumalo/ShopSync/internal/db"
	"github.com/Brandonkhumalo/ShopSync/internal/domain"
	"github.com/Brandonkhumalo/ShopSync/internal/identity"
	"github.com/jackc/pgx/v5"
)

type DebtRepository struct {
	DB *db.Postgres
}

type CreateDebtParams struct {
	LocalID      string
	CustomerName string
	AmountUSD    float64
	AmountZWG    float64
	Type         domain.DebtType
	Notes        string
	CreatedAt    *int64
}

type UpdateDebtParams struct {
	CustomerName *string
	AmountUSD    *float64
	AmountZWG    *float64
	Type         *domain.DebtType
	Notes        *string
}

const debtColumns = `id, local_id, shop_id, customer_name, amount_usd, amount_zwg, type, notes,
	cleared, cleared_at, created_at, updated_at`

func (r DebtRepository) List(ctx context.Context, shopID string, includeCleared bool) ([]domain.Debt, error) {
	query := `SELECT ` + debtColumns + ` FROM debts WHERE shop_id=$1`
	if !includeCleared {
		query += ` AND cleared = FALSE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.DB.Pool.Query(ctx, query, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var debts []domain.Debt
	for rows.Next() {
		debt, err := scanDebt(rows)
		if err != nil {
			return nil, err
		}
		debts = append(debts, *debt)
	}
	return debts, rows.Err()
}

func (r DebtRepository) Create(ctx context.Context, shopID string, in CreateDebtParams, now int64) (*domain.Debt, error) {
	id := identity.NewID(identity.PrefixDebt)
	localID := in.LocalID
	if localID == "" {
		localID = id
	}
	debtType := in.Type
	if debtType == "" {
		debtType = domain.DebtCreditUsed
	}
	createdAt := now
	if in.CreatedAt != nil {
		createdAt = *in.CreatedAt
	}
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO debts (id, local_id, shop_id, customer_name, amount_usd, amount_zwg, type, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9)
		RETURNING `+debtColumns+`
	`, id, localID, shopID, in.CustomerName, in.AmountUSD, in.AmountZWG, debtType, in.Notes, createdAt)
	return scanDebt(row)
}

func (r DebtRepository) Update(ctx context.Context, shopID, debtID string, in UpdateDebtParams, updatedAt int64) (*domain.Debt, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		UPDATE debts SET
			customer_name = COALESCE($1, customer_name),
			amount_usd = COALESCE($2, amount_usd),
			amount_zwg = COALESCE($3, amount_zwg),
			type = COALESCE($4, type),
			notes = COALESCE($5, notes),
			updated_at = $6
		WHERE (id=$7 OR local_id=$7) AND shop_id=$8
		RETURNING `+debtColumns+`
	`, in.CustomerName, in.AmountUSD, in.AmountZWG, in.Type, in.Notes, updatedAt, debtID, shopID)
	debt, err := scanDebt(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return debt, nil
}

// Clear marks a debt settled. Clearing is monotonic: a cleared debt
// keeps its original cleared_at on repeat calls.
func (r DebtRepository) Clear(ctx context.Context, shopID, debtID string, clearedAt int64) error {
	ct, err := r.DB.Pool.Exec(ctx, `
		UPDATE debts SET
			cleared = TRUE,
			cleared_at = COALESCE(cleared_at, $1),
			updated_at = $1
		WHERE (id=$2 OR local_id=$2) AND shop_id=$3
	`, clearedAt, debtID, shopID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r DebtRepository) Delete(ctx context.Context, shopID, debtID string) error {
	ct, err := r.DB.Pool.Exec(ctx, `
		DELETE FROM debts WHERE (id=$1 OR local_id=$1) AND shop_id=$2
	`, debtID, shopID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r DebtRepository) Summary(ctx context.Context, shopID string) (*domain.DebtsSummary, error) {
	var s domain.DebtsSummary
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE cleared = FALSE),
		       COALESCE(SUM(amount_usd) FILTER (WHERE cleared = FALSE), 0),
		       COALESCE(SUM(amount_zwg) FILTER (WHERE cleared = FALSE), 0)
		FROM debts WHERE shop_id=$1
	`, shopID).Scan(&s.TotalDebts, &s.ActiveDebts, &s.TotalUSD, &s.TotalZWG)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

type debtRow interface {
	Scan(dest ...any) error
}

func scanDebt(row debtRow) (*domain.Debt, error) {
	var d domain.Debt
	var notes *string
	err := row.Scan(&d.ID, &d.LocalID, &d.ShopID, &d.CustomerName, &d.AmountUSD, &d.AmountZWG,
		&d.Type, &notes, &d.Cleared, &d.ClearedAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if notes != nil {
		d.Notes = *notes
	}
	return &d, nil
}
