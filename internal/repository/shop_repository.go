package repository

import (
	"context"
	"errors"

	"github.com/Brandonkhumalo/ShopSync/internal/db"
	"github.com/Brandonkhumalo/ShopSync/internal/domain"
	"github.com/Brandonkhumalo/ShopSync/internal/identity"
	"github.com/jackc/pgx/v5"
)

type ShopRepository struct {
	DB *db.Postgres
}

type CreateShopParams struct {
	Name         string
	OwnerName    string
	OwnerSurname string
	PhoneNumber  string
	Services     string
	Address      string
	PIN          *string
}

// UpdateShopParams carries only the fields to change; nil leaves the
// stored value untouched.
type UpdateShopParams struct {
	Name         *string
	OwnerName    *string
	OwnerSurname *string
	PhoneNumber  *string
	Services     *string
	Address      *string
	PIN          *string
}

func (r ShopRepository) Create(ctx context.Context, in CreateShopParams) (*domain.Shop, error) {
	id := identity.NewID(identity.PrefixShop)
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO shops (id, name, owner_name, owner_surname, phone_number, services, address, pin)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, name, owner_name, owner_surname, phone_number, services, address, pin,
		          payment_status, subscription_start, subscription_end, last_payment_date,
		          created_at, updated_at
	`, id, in.Name, in.OwnerName, in.OwnerSurname, in.PhoneNumber, in.Services, in.Address, in.PIN)
	return scanShop(row)
}

func (r ShopRepository) GetByID(ctx context.Context, shopID string) (*domain.Shop, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, name, owner_name, owner_surname, phone_number, services, address, pin,
		       payment_status, subscription_start, subscription_end, last_payment_date,
		       created_at, updated_at
		FROM shops
		WHERE id=$1
	`, shopID)
	shop, err := scanShop(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return shop, nil
}

func (r ShopRepository) Update(ctx context.Context, shopID string, in UpdateShopParams, updatedAt int64) (*domain.Shop, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		UPDATE shops SET
			name = COALESCE($1, name),
			owner_name = COALESCE($2, owner_name),
			owner_surname = COALESCE($3, owner_surname),
			phone_number = COALESCE($4, phone_number),
			services = COALESCE($5, services),
			address = COALESCE($6, address),
			pin = COALESCE($7, pin),
			updated_at = $8
		WHERE id=$9
		RETURNING id, name, owner_name, owner_surname, phone_number, services, address, pin,
		          payment_status, subscription_start, subscription_end, last_payment_date,
		          created_at, updated_at
	`, in.Name, in.OwnerName, in.OwnerSurname, in.PhoneNumber, in.Services, in.Address, in.PIN, updatedAt, shopID)
	shop, err := scanShop(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return shop, nil
}

func (r ShopRepository) Exists(ctx context.Context, shopID string) (bool, error) {
	var found bool
	err := r.DB.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM shops WHERE id=$1)`, shopID).Scan(&found)
	return found, err
}

type shopRow interface {
	Scan(dest ...any) error
}

func scanShop(row shopRow) (*domain.Shop, error) {
	var s domain.Shop
	var services, address *string
	err := row.Scan(
		&s.ID, &s.Name, &s.OwnerName, &s.OwnerSurname, &s.PhoneNumber, &services, &address, &s.PIN,
		&s.PaymentStatus, &s.SubscriptionStart, &s.SubscriptionEnd, &s.LastPaymentDate,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if services != nil {
		s.Services = *services
	}
	if address != nil {
		s.Address = *address
	}
	return &s, nil
}
