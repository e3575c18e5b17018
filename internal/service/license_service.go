package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Brandonkhumalo/ShopSync/internal/domain"
	"github.com/Brandonkhumalo/ShopSync/internal/identity"
	"github.com/Brandonkhumalo/ShopSync/internal/ports"
	"github.com/Brandonkhumalo/ShopSync/internal/repository"
)

// LicenseService governs the (shop, device) lifecycle: registration,
// product-key activation, renewal and the per-request access guard.
// Devices move pending -> active exactly once and never regress; expiry
// is computed from expires_at at read time, never stored as a status.
type LicenseService struct {
	Store  ports.LicenseStore
	Logger *slog.Logger
	Now    func() time.Time
}

// LicenseInfo is a derived view for the client's profile screen.
type LicenseInfo struct {
	Device        domain.Device
	MaskedKey     string
	DaysRemaining int
}

// RegisterDevice adds a device slot to a shop. The first device needs
// no authorization; each subsequent one must be vouched for by an
// active, non-expired device of the same shop.
func (s LicenseService) RegisterDevice(ctx context.Context, shopID, requestingAppID string) (*domain.Device, error) {
	tx, err := s.Store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin register: %w", err)
	}
	defer tx.Rollback(ctx)

	exists, err := tx.ShopExists(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrShopNotFound
	}

	count, err := tx.CountDevices(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if count >= domain.MaxDevicesPerShop {
		return nil, ErrDeviceLimit
	}
	if count > 0 {
		if err := s.authorizeRegistrar(ctx, tx, shopID, requestingAppID); err != nil {
			return nil, err
		}
	}

	maxSlot, err := tx.MaxDeviceSlot(ctx, shopID)
	if err != nil {
		return nil, err
	}

	device := domain.Device{
		ID:           identity.NewID(identity.PrefixDevice),
		AppID:        identity.NewID(identity.PrefixApp),
		ShopID:       shopID,
		Slot:         maxSlot + 1,
		Status:       domain.DevicePending,
		RegisteredAt: s.now().UnixMilli(),
	}
	if err := tx.InsertDevice(ctx, device); err != nil {
		return nil, fmt.Errorf("insert device: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit register: %w", err)
	}

	if s.Logger != nil {
		s.Logger.Info("device registered", "shop_id", shopID, "app_id", device.AppID, "slot", device.Slot)
	}
	return &device, nil
}

func (s LicenseService) authorizeRegistrar(ctx context.Context, tx ports.LicenseTx, shopID, requestingAppID string) error {
	if requestingAppID == "" {
		return ErrUnauthorizedDevice
	}
	registrar, err := tx.DeviceByAppID(ctx, shopID, requestingAppID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnauthorizedDevice
		}
		return err
	}
	if registrar.Status != domain.DeviceActive {
		return ErrUnauthorizedDevice
	}
	if registrar.ExpiresAt != nil && *registrar.ExpiresAt < s.now().UnixMilli() {
		return ErrUnauthorizedDevice
	}
	return nil
}

// Activate exchanges an unused product key for 30 days of license on
// the given device. The unused->used transition is a single conditional
// update, so concurrent attempts on one key cannot both succeed.
func (s LicenseService) Activate(ctx context.Context, shopID, appID, key string) (*domain.Device, error) {
	tx, err := s.Store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin activate: %w", err)
	}
	defer tx.Rollback(ctx)

	exists, err := tx.ShopExists(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrShopNotFound
	}

	device, err := tx.DeviceByAppID(ctx, shopID, appID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}

	productKey, err := tx.ProductKeyByValue(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	if productKey.Status == domain.KeyUsed {
		return nil, ErrKeyUsed
	}

	now := s.now()
	activatedAt := now.UnixMilli()
	// Calendar-day arithmetic, not millisecond addition, so month and
	// DST boundaries land where the user expects.
	expiresAt := now.AddDate(0, 0, domain.LicenseDays).UnixMilli()

	consumed, err := tx.ConsumeProductKey(ctx, key, shopID, appID, activatedAt, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("consume key: %w", err)
	}
	if !consumed {
		return nil, ErrKeyUsed
	}

	if err := tx.ActivateDevice(ctx, shopID, appID, key, activatedAt, expiresAt, activatedAt); err != nil {
		return nil, fmt.Errorf("activate device: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit activate: %w", err)
	}

	device.Status = domain.DeviceActive
	device.ProductKey = &key
	device.ActivatedAt = &activatedAt
	device.ExpiresAt = &expiresAt
	device.LastSeen = &activatedAt

	if s.Logger != nil {
		s.Logger.Info("device activated", "shop_id", shopID, "app_id", appID, "expires_at", expiresAt)
	}
	return device, nil
}

// Renew extends an already-registered device. Renewal always consumes a
// fresh unused key; there is no renew-with-same-key path.
func (s LicenseService) Renew(ctx context.Context, shopID, appID, key string) (*domain.Device, error) {
	return s.Activate(ctx, shopID, appID, key)
}

// Authorize is the access guard for licensed requests. On success it
// records a best-effort last_seen heartbeat that never fails the
// guarded request.
func (s LicenseService) Authorize(ctx context.Context, shopID, appID string) (*domain.Device, error) {
	device, err := s.Store.DeviceByAppID(ctx, shopID, appID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, err
	}
	if device.Status != domain.DeviceActive {
		return nil, &NotActivatedError{Status: device.Status}
	}
	now := s.now().UnixMilli()
	if device.ExpiresAt != nil && *device.ExpiresAt < now {
		return nil, ErrLicenseExpired
	}

	if err := s.Store.TouchDevice(ctx, appID, now); err != nil && s.Logger != nil {
		s.Logger.Warn("heartbeat update failed", "app_id", appID, "err", err)
	}
	return device, nil
}

// Info derives the masked key and whole-days-remaining view.
func (s LicenseService) Info(ctx context.Context, shopID, appID string) (*LicenseInfo, error) {
	device, err := s.Store.DeviceByAppID(ctx, shopID, appID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, err
	}

	info := &LicenseInfo{Device: *device}
	if device.ProductKey != nil {
		info.MaskedKey = identity.MaskProductKey(*device.ProductKey)
	}
	if device.ExpiresAt != nil {
		remaining := *device.ExpiresAt - s.now().UnixMilli()
		if remaining > 0 {
			info.DaysRemaining = int(remaining / millisPerDay)
		}
	}
	return info, nil
}

func (s LicenseService) ListDevices(ctx context.Context, shopID string) ([]domain.Device, error) {
	return s.Store.ListDevices(ctx, shopID)
}

const millisPerDay = 24 * 60 * 60 * 1000

func (s LicenseService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
