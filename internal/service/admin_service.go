package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Brandonkhumalo/ShopSync/internal/config"
	"github.com/Brandonkhumalo/ShopSync/internal/domain"
	"github.com/Brandonkhumalo/ShopSync/internal/identity"
	"github.com/Brandonkhumalo/ShopSync/internal/ports"
	"github.com/Brandonkhumalo/ShopSync/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// maxKeysPerMint bounds one dashboard mint request.
const maxKeysPerMint = 50

type AdminService struct {
	Config config.Config
	Store  ports.AdminStore
	Logger *slog.Logger
	Now    func() time.Time
}

type AdminAuthResult struct {
	Token     string
	ExpiresAt time.Time
}

func (s AdminService) Login(ctx context.Context, email, password string) (*AdminAuthResult, error) {
	admin, err := s.Store.AdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.Store.TouchAdminLogin(ctx, admin.ID, now.UnixMilli()); err != nil && s.Logger != nil {
		s.Logger.Warn("update admin last login failed", "err", err)
	}

	expiresAt := now.Add(s.Config.AdminTokenTTL)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        fmt.Sprintf("%d", admin.ID),
		"email":      admin.Email,
		"token_type": "admin",
		"exp":        expiresAt.Unix(),
		"iat":        now.Unix(),
	}).SignedString([]byte(s.Config.JWTSecret))
	if err != nil {
		return nil, err
	}
	return &AdminAuthResult{Token: token, ExpiresAt: expiresAt}, nil
}

// MintKeys creates count fresh unused product keys.
func (s AdminService) MintKeys(ctx context.Context, count int) ([]domain.ProductKey, error) {
	if count <= 0 {
		count = 1
	}
	if count > maxKeysPerMint {
		count = maxKeysPerMint
	}

	now := s.now().UnixMilli()
	keys := make([]domain.ProductKey, 0, count)
	for i := 0; i < count; i++ {
		value, err := identity.NewProductKey()
		if err != nil {
			return nil, err
		}
		key := domain.ProductKey{
			ID:        identity.NewID(identity.PrefixKey),
			Key:       value,
			Status:    domain.KeyUnused,
			CreatedAt: now,
		}
		if err := s.Store.InsertProductKey(ctx, key); err != nil {
			return nil, fmt.Errorf("insert product key: %w", err)
		}
		keys = append(keys, key)
	}

	if s.Logger != nil {
		s.Logger.Info("product keys minted", "count", len(keys))
	}
	return keys, nil
}

func (s AdminService) Stats(ctx context.Context) (*domain.AdminStats, error) {
	return s.Store.Stats(ctx)
}

func (s AdminService) ListKeys(ctx context.Context) ([]domain.ProductKey, error) {
	return s.Store.ListProductKeys(ctx)
}

func (s AdminService) ListShops(ctx context.Context) ([]domain.Shop, error) {
	return s.Store.ListShops(ctx)
}

func (s AdminService) ListDevices(ctx context.Context) ([]domain.Device, error) {
	return s.Store.ListAllDevices(ctx)
}

// DeleteShop removes the shop and all dependent rows.
func (s AdminService) DeleteShop(ctx context.Context, shopID string) error {
	err := s.Store.DeleteShopCascade(ctx, shopID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrShopNotFound
		}
		return err
	}
	if s.Logger != nil {
		s.Logger.Info("shop deleted", "shop_id", shopID)
	}
	return nil
}

func (s AdminService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
