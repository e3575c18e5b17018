package repository

import (
	"context"
	"errors"

	"github.com/Brandonkhumalo/ShopSync/internal/db"
	"github.com/Brandonkhumalo/ShopSync/internal/domain"
	"github.com/Brandonkhumalo/ShopSync/internal/identity"
	"github.com/jackc/pgx/v5"
)

type ItemRepository struct {
	DB *db.Postgres
}

type CreateItemParams struct {
	LocalID   string
	Name      string
	Category  string
	PriceUSD  float64
	PriceZWG  float64
	Quantity  int
	CreatedAt *int64
}

type UpdateItemParams struct {
	Name     *string
	Category *string
	PriceUSD *float64
	PriceZWG *float64
	Quantity *int
}

const itemColumns = `id, local_id, shop_id, name, category, price_usd, price_zwg, quantity, created_at, updated_at`

func (r ItemRepository) List(ctx context.Context, shopID string, category *string) ([]domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE shop_id=$1`
	args := []any{shopID}
	if category != nil {
		query += ` AND category=$2`
		args = append(args, *category)
	}
	query += ` ORDER BY name ASC`

	rows, err := r.DB.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r ItemRepository) Create(ctx context.Context, shopID string, in CreateItemParams, now int64) (*domain.Item, error) {
	id := identity.NewID(identity.PrefixItem)
	localID := in.LocalID
	if localID == "" {
		localID = id
	}
	createdAt := now
	if in.CreatedAt != nil {
		createdAt = *in.CreatedAt
	}
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO items (id, local_id, shop_id, name, category, price_usd, price_zwg, quantity, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9)
		RETURNING `+itemColumns+`
	`, id, localID, shopID, in.Name, in.Category, in.PriceUSD, in.PriceZWG, in.Quantity, createdAt)
	return scanItem(row)
}

// Update resolves the item by server id or client local_id.
func (r ItemRepository) Update(ctx context.Context, shopID, itemID string, in UpdateItemParams, updatedAt int64) (*domain.Item, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		UPDATE items SET
			name = COALESCE($1, name),
			category = COALESCE($2, category),
			price_usd = COALESCE($3, price_usd),
			price_zwg = COALESCE($4, price_zwg),
			quantity = COALESCE($5, quantity),
			updated_at = $6
		WHERE (id=$7 OR local_id=$7) AND shop_id=$8
		RETURNING `+itemColumns+`
	`, in.Name, in.Category, in.PriceUSD, in.PriceZWG, in.Quantity, updatedAt, itemID, shopID)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r ItemRepository) Delete(ctx context.Context, shopID, itemID string) error {
	ct, err := r.DB.Pool.Exec(ctx, `
		DELETE FROM items WHERE (id=$1 OR local_id=$1) AND shop_id=$2
	`, itemID, shopID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r ItemRepository) Categories(ctx context.Context, shopID string) ([]string, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT DISTINCT category FROM items
		WHERE shop_id=$1 AND category IS NOT NULL AND category <> ''
		ORDER BY category ASC
	`, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

type itemRow interface {
	Scan(dest ...any) error
}

func scanItem(row itemRow) (*domain.Item, error) {
	var it domain.Item
	var category *string
	err := row.Scan(&it.ID, &it.LocalID, &it.ShopID, &it.Name, &category,
		&it.PriceUSD, &it.PriceZWG, &it.Quantity, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if category != nil {
		it.Category = *category
	}
	return &it, nil
}
