package ports

import (
	"context"

	"github.com/Brandonkhumalo/ShopSync/internal/domain"
)

// HealthChecker is used to probe dependencies.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// SyncTx is one open merge transaction. Every mutation inside it is
// committed or rolled back as a unit; a batch never partially applies.
type SyncTx interface {
	ShopExists(ctx context.Context, shopID string) (bool, error)
	// UpsertItem merges one item by (local_id, shop_id) and reports
	// whether a new row was created.
	UpsertItem(ctx context.Context, shopID string, change domain.ItemChange, mergeTime int64) (created bool, err error)
	// InsertSale inserts a sale only when its local_id is unseen;
	// existing sales are never touched.
	InsertSale(ctx context.Context, shopID string, change domain.SaleChange, mergeTime int64) (created bool, err error)
	UpsertDebt(ctx context.Context, shopID string, change domain.DebtChange, mergeTime int64) (created bool, err error)
	AppendSyncLog(ctx context.Context, shopID string, syncTime int64, success bool) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// SyncStore provides transactional access to the merge tables.
type SyncStore interface {
	Begin(ctx context.Context) (SyncTx, error)
	LastSyncLog(ctx context.Context, shopID string) (*domain.SyncLog, error)
}

// LicenseTx spans one registration or activation attempt.
type LicenseTx interface {
	ShopExists(ctx context.Context, shopID string) (bool, error)
	DeviceByAppID(ctx context.Context, shopID, appID string) (*domain.Device, error)
	CountDevices(ctx context.Context, shopID string) (int, error)
	MaxDeviceSlot(ctx context.Context, shopID string) (int, error)
	InsertDevice(ctx context.Context, device domain.Device) error
	ProductKeyByValue(ctx context.Context, key string) (*domain.ProductKey, error)
	// ConsumeProductKey flips the key unused->used with a single
	// conditional update; false means another request already spent it.
	ConsumeProductKey(ctx context.Context, key, shopID, appID string, activatedAt, expiresAt int64) (bool, error)
	ActivateDevice(ctx context.Context, shopID, appID, key string, activatedAt, expiresAt, lastSeen int64) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// LicenseStore backs the licensing state machine and the access guard.
type LicenseStore interface {
	Begin(ctx context.Context) (LicenseTx, error)
	DeviceByAppID(ctx context.Context, shopID, appID string) (*domain.Device, error)
	TouchDevice(ctx context.Context, appID string, lastSeen int64) error
	ListDevices(ctx context.Context, shopID string) ([]domain.Device, error)
}

// AdminStore backs the dashboard collaborator.
type AdminStore interface {
	AdminByEmail(ctx context.Context, email string) (*domain.AdminUser, error)
	TouchAdminLogin(ctx context.Context, id int64, at int64) error
	InsertProductKey(ctx context.Context, key domain.ProductKey) error
	ListProductKeys(ctx context.Context) ([]domain.ProductKey, error)
	ListShops(ctx context.Context) ([]domain.Shop, error)
	ListAllDevices(ctx context.Context) ([]domain.Device, error)
	Stats(ctx context.Context) (*domain.AdminStats, error)
	DeleteShopCascade(ctx context.Context, shopID string) error
}
