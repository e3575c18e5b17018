package service

import (
	"context"
	"errors"

	"github.com/Brandonkhumalo/ShopSync/internal/domain"
	"github.com/Brandonkhumalo/ShopSync/internal/ports"
	"github.com/Brandonkhumalo/ShopSync/internal/repository"
)

// In-memory stores implementing the ports interfaces. Transactions
// operate on snapshots and publish them on Commit, so aborted merges
// leave the store untouched, mirroring the Postgres behavior.

type fakeSyncStore struct {
	shops    map[string]bool
	items    map[string]domain.Item
	sales    map[string]domain.Sale
	debts    map[string]domain.Debt
	syncLogs []domain.SyncLog

	failItemLocalID string

	commits   int
	rollbacks int
}

func newFakeSyncStore(shopIDs ...string) *fakeSyncStore {
	s := &fakeSyncStore{
		shops: make(map[string]bool),
		items: make(map[string]domain.Item),
		sales: make(map[string]domain.Sale),
		debts: make(map[string]domain.Debt),
	}
	for _, id := range shopIDs {
		s.shops[id] = true
	}
	return s
}

func (s *fakeSyncStore) Begin(ctx context.Context) (ports.SyncTx, error) {
	return &fakeSyncTx{
		store: s,
		items: cloneMap(s.items),
		sales: cloneMap(s.sales),
		debts: cloneMap(s.debts),
	}, nil
}

func (s *fakeSyncStore) LastSyncLog(ctx context.Context, shopID string) (*domain.SyncLog, error) {
	var latest *domain.SyncLog
	for i := range s.syncLogs {
		log := s.syncLogs[i]
		if log.ShopID != shopID {
			continue
		}
		if latest == nil || log.SyncTime > latest.SyncTime {
			latest = &log
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	return latest, nil
}

type fakeSyncTx struct {
	store *fakeSyncStore
	items map[string]domain.Item
	sales map[string]domain.Sale
	debts map[string]domain.Debt
	logs  []domain.SyncLog
	done  bool
}

func (t *fakeSyncTx) ShopExists(ctx context.Context, shopID string) (bool, error) {
	return t.store.shops[shopID], nil
}

func (t *fakeSyncTx) UpsertItem(ctx context.Context, shopID string, change domain.ItemChange, mergeTime int64) (bool, error) {
	if change.LocalID == t.store.failItemLocalID {
		return false, errors.New("constraint violation")
	}
	if existing, ok := t.items[change.LocalID]; ok && existing.ShopID == shopID {
		existing.Name = change.Name
		existing.Category = change.Category
		existing.PriceUSD = change.PriceUSD
		existing.PriceZWG = change.PriceZWG
		existing.Quantity = change.Quantity
		existing.UpdatedAt = mergeTime
		t.items[change.LocalID] = existing
		return false, nil
	}
	createdAt := mergeTime
	if change.CreatedAt != nil {
		createdAt = *change.CreatedAt
	}
	t.items[change.LocalID] = domain.Item{
		ID: "ITEM_fake", LocalID: change.LocalID, ShopID: shopID,
		Name: change.Name, Category: change.Category,
		PriceUSD: change.PriceUSD, PriceZWG: change.PriceZWG, Quantity: change.Quantity,
		CreatedAt: createdAt, UpdatedAt: createdAt,
	}
	return true, nil
}

func (t *fakeSyncTx) InsertSale(ctx context.Context, shopID string, change domain.SaleChange, mergeTime int64) (bool, error) {
	if existing, ok := t.sales[change.LocalID]; ok && existing.ShopID == shopID {
		return false, nil
	}
	saleDate := mergeTime
	if change.SaleDate != nil {
		saleDate = *change.SaleDate
	}
	t.sales[change.LocalID] = domain.Sale{
		ID: "SALE_fake", LocalID: change.LocalID, ShopID: shopID,
		ItemName: change.ItemName, Quantity: change.Quantity,
		TotalUSD: change.TotalUSD, TotalZWG: change.TotalZWG,
		SaleDate: saleDate, CreatedAt: mergeTime,
	}
	return true, nil
}

func (t *fakeSyncTx) UpsertDebt(ctx context.Context, shopID string, change domain.DebtChange, mergeTime int64) (bool, error) {
	if existing, ok := t.debts[change.LocalID]; ok && existing.ShopID == shopID {
		existing.CustomerName = change.CustomerName
		existing.AmountUSD = change.AmountUSD
		existing.AmountZWG = change.AmountZWG
		existing.Notes = change.Notes
		existing.Cleared = change.Cleared
		existing.ClearedAt = change.ClearedAt
		existing.UpdatedAt = mergeTime
		t.debts[change.LocalID] = existing
		return false, nil
	}
	createdAt := mergeTime
	if change.CreatedAt != nil {
		createdAt = *change.CreatedAt
	}
	t.debts[change.LocalID] = domain.Debt{
		ID: "DEBT_fake", LocalID: change.LocalID, ShopID: shopID,
		CustomerName: change.CustomerName, AmountUSD: change.AmountUSD, AmountZWG: change.AmountZWG,
		Cleared: change.Cleared, ClearedAt: change.ClearedAt,
		CreatedAt: createdAt, UpdatedAt: createdAt,
	}
	return true, nil
}

func (t *fakeSyncTx) AppendSyncLog(ctx context.Context, shopID string, syncTime int64, success bool) error {
	t.logs = append(t.logs, domain.SyncLog{ShopID: shopID, SyncTime: syncTime, Success: success})
	return nil
}

func (t *fakeSyncTx) Commit(ctx context.Context) error {
	t.done = true
	t.store.items = t.items
	t.store.sales = t.sales
	t.store.debts = t.debts
	t.store.syncLogs = append(t.store.syncLogs, t.logs...)
	t.store.commits++
	return nil
}

func (t *fakeSyncTx) Rollback(ctx context.Context) error {
	if !t.done {
		t.done = true
		t.store.rollbacks++
	}
	return nil
}

type fakeLicenseStore struct {
	shops   map[string]bool
	devices map[string]domain.Device
	keys    map[string]domain.ProductKey

	// consumeLoses simulates losing the conditional update to a
	// concurrent activation despite having read the key as unused.
	consumeLoses bool
	touchErr     error
	touched      []string

	commits int
}

func newFakeLicenseStore(shopIDs ...string) *fakeLicenseStore {
	s := &fakeLicenseStore{
		shops:   make(map[string]bool),
		devices: make(map[string]domain.Device),
		keys:    make(map[string]domain.ProductKey),
	}
	for _, id := range shopIDs {
		s.shops[id] = true
	}
	return s
}

func (s *fakeLicenseStore) Begin(ctx context.Context) (ports.LicenseTx, error) {
	return &fakeLicenseTx{
		store:   s,
		devices: cloneMap(s.devices),
		keys:    cloneMap(s.keys),
	}, nil
}

func (s *fakeLicenseStore) DeviceByAppID(ctx context.Context, shopID, appID string) (*domain.Device, error) {
	return deviceByAppID(s.devices, shopID, appID)
}

func (s *fakeLicenseStore) TouchDevice(ctx context.Context, appID string, lastSeen int64) error {
	if s.touchErr != nil {
		return s.touchErr
	}
	s.touched = append(s.touched, appID)
	if d, ok := s.devices[appID]; ok {
		d.LastSeen = &lastSeen
		s.devices[appID] = d
	}
	return nil
}

func (s *fakeLicenseStore) ListDevices(ctx context.Context, shopID string) ([]domain.Device, error) {
	var devices []domain.Device
	for _, d := range s.devices {
		if d.ShopID == shopID {
			devices = append(devices, d)
		}
	}
	return devices, nil
}

type fakeLicenseTx struct {
	store   *fakeLicenseStore
	devices map[string]domain.Device
	keys    map[string]domain.ProductKey
	done    bool
}

func (t *fakeLicenseTx) ShopExists(ctx context.Context, shopID string) (bool, error) {
	return t.store.shops[shopID], nil
}

func (t *fakeLicenseTx) DeviceByAppID(ctx context.Context, shopID, appID string) (*domain.Device, error) {
	return deviceByAppID(t.devices, shopID, appID)
}

func (t *fakeLicenseTx) CountDevices(ctx context.Context, shopID string) (int, error) {
	count := 0
	for _, d := range t.devices {
		if d.ShopID == shopID {
			count++
		}
	}
	return count, nil
}

func (t *fakeLicenseTx) MaxDeviceSlot(ctx context.Context, shopID string) (int, error) {
	max := 0
	for _, d := range t.devices {
		if d.ShopID == shopID && d.Slot > max {
			max = d.Slot
		}
	}
	return max, nil
}

func (t *fakeLicenseTx) InsertDevice(ctx context.Context, device domain.Device) error {
	t.devices[device.AppID] = device
	return nil
}

func (t *fakeLicenseTx) ProductKeyByValue(ctx context.Context, key string) (*domain.ProductKey, error) {
	k, ok := t.keys[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &k, nil
}

func (t *fakeLicenseTx) ConsumeProductKey(ctx context.Context, key, shopID, appID string, activatedAt, expiresAt int64) (bool, error) {
	if t.store.consumeLoses {
		return false, nil
	}
	k, ok := t.keys[key]
	if !ok || k.Status != domain.KeyUnused {
		return false, nil
	}
	k.Status = domain.KeyUsed
	k.ShopID = &shopID
	k.AppID = &appID
	k.ActivatedAt = &activatedAt
	k.ExpiresAt = &expiresAt
	t.keys[key] = k
	return true, nil
}

func (t *fakeLicenseTx) ActivateDevice(ctx context.Context, shopID, appID, key string, activatedAt, expiresAt, lastSeen int64) error {
	d, err := deviceByAppID(t.devices, shopID, appID)
	if err != nil {
		return err
	}
	d.Status = domain.DeviceActive
	d.ProductKey = &key
	d.ActivatedAt = &activatedAt
	d.ExpiresAt = &expiresAt
	d.LastSeen = &lastSeen
	t.devices[appID] = *d
	return nil
}

func (t *fakeLicenseTx) Commit(ctx context.Context) error {
	t.done = true
	t.store.devices = t.devices
	t.store.keys = t.keys
	t.store.commits++
	return nil
}

func (t *fakeLicenseTx) Rollback(ctx context.Context) error {
	t.done = true
	return nil
}

type fakeAdminStore struct {
	admins  map[string]domain.AdminUser
	keys    []domain.ProductKey
	shops   []domain.Shop
	devices []domain.Device
	deleted []string
}

func newFakeAdminStore() *fakeAdminStore {
	return &fakeAdminStore{admins: make(map[string]domain.AdminUser)}
}

func (s *fakeAdminStore) AdminByEmail(ctx context.Context, email string) (*domain.AdminUser, error) {
	u, ok := s.admins[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *fakeAdminStore) TouchAdminLogin(ctx context.Context, id int64, at int64) error {
	return nil
}

func (s *fakeAdminStore) InsertProductKey(ctx context.Context, key domain.ProductKey) error {
	s.keys = append(s.keys, key)
	return nil
}

func (s *fakeAdminStore) ListProductKeys(ctx context.Context) ([]domain.ProductKey, error) {
	return s.keys, nil
}

func (s *fakeAdminStore) ListShops(ctx context.Context) ([]domain.Shop, error) {
	return s.shops, nil
}

func (s *fakeAdminStore) ListAllDevices(ctx context.Context) ([]domain.Device, error) {
	return s.devices, nil
}

func (s *fakeAdminStore) Stats(ctx context.Context) (*domain.AdminStats, error) {
	return &domain.AdminStats{TotalShops: len(s.shops), TotalKeys: len(s.keys)}, nil
}

func (s *fakeAdminStore) DeleteShopCascade(ctx context.Context, shopID string) error {
	for _, sh := range s.shops {
		if sh.ID == shopID {
			s.deleted = append(s.deleted, shopID)
			return nil
		}
	}
	return repository.ErrNotFound
}

func deviceByAppID(devices map[string]domain.Device, shopID, appID string) (*domain.Device, error) {
	d, ok := devices[appID]
	if !ok || d.ShopID != shopID {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func cloneMap[V any](src map[string]V) map[string]V {
	dst := make(map[string]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
