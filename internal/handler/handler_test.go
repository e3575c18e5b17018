package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Brandonkhumalo/ShopSync/internal/domain"
	"github.com/Brandonkhumalo/ShopSync/internal/ports"
	"github.com/Brandonkhumalo/ShopSync/internal/repository"
)

// Minimal in-memory stores backing the HTTP tests. Transactions mutate
// the store directly; rollback isolation is covered by the service
// tests.

type memSyncStore struct {
	shops map[string]bool
	items map[string]domain.Item
	sales map[string]domain.Sale
	debts map[string]domain.Debt
	logs  []domain.SyncLog
}

func newMemSyncStore(shopIDs ...string) *memSyncStore {
	s := &memSyncStore{
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

func (s *memSyncStore) Begin(ctx context.Context) (ports.SyncTx, error) {
	return &memSyncTx{store: s}, nil
}

func (s *memSyncStore) LastSyncLog(ctx context.Context, shopID string) (*domain.SyncLog, error) {
	for i := len(s.logs) - 1; i >= 0; i-- {
		if s.logs[i].ShopID == shopID {
			return &s.logs[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

type memSyncTx struct {
	store *memSyncStore
}

func (t *memSyncTx) ShopExists(ctx context.Context, shopID string) (bool, error) {
	return t.store.shops[shopID], nil
}

func (t *memSyncTx) UpsertItem(ctx context.Context, shopID string, change domain.ItemChange, mergeTime int64) (bool, error) {
	if _, ok := t.store.items[change.LocalID]; ok {
		item := t.store.items[change.LocalID]
		item.Name = change.Name
		item.Quantity = change.Quantity
		item.UpdatedAt = mergeTime
		t.store.items[change.LocalID] = item
		return false, nil
	}
	t.store.items[change.LocalID] = domain.Item{
		LocalID: change.LocalID, ShopID: shopID, Name: change.Name,
		Quantity: change.Quantity, CreatedAt: mergeTime, UpdatedAt: mergeTime,
	}
	return true, nil
}

func (t *memSyncTx) InsertSale(ctx context.Context, shopID string, change domain.SaleChange, mergeTime int64) (bool, error) {
	if _, ok := t.store.sales[change.LocalID]; ok {
		return false, nil
	}
	t.store.sales[change.LocalID] = domain.Sale{LocalID: change.LocalID, ShopID: shopID, ItemName: change.ItemName}
	return true, nil
}

func (t *memSyncTx) UpsertDebt(ctx context.Context, shopID string, change domain.DebtChange, mergeTime int64) (bool, error) {
	if _, ok := t.store.debts[change.LocalID]; ok {
		return false, nil
	}
	t.store.debts[change.LocalID] = domain.Debt{LocalID: change.LocalID, ShopID: shopID}
	return true, nil
}

func (t *memSyncTx) AppendSyncLog(ctx context.Context, shopID string, syncTime int64, success bool) error {
	t.store.logs = append(t.store.logs, domain.SyncLog{ShopID: shopID, SyncTime: syncTime, Success: success})
	return nil
}

func (t *memSyncTx) Commit(ctx context.Context) error   { return nil }
func (t *memSyncTx) Rollback(ctx context.Context) error { return nil }

type memLicenseStore struct {
	shops   map[string]bool
	devices map[string]domain.Device
	keys    map[string]domain.ProductKey
}

func newMemLicenseStore(shopIDs ...string) *memLicenseStore {
	s := &memLicenseStore{
		shops:   make(map[string]bool),
		devices: make(map[string]domain.Device),
		keys:    make(map[string]domain.ProductKey),
	}
	for _, id := range shopIDs {
		s.shops[id] = true
	}
	return s
}

func (s *memLicenseStore) Begin(ctx context.Context) (ports.LicenseTx, error) {
	return &memLicenseTx{store: s}, nil
}

func (s *memLicenseStore) DeviceByAppID(ctx context.Context, shopID, appID string) (*domain.Device, error) {
	d, ok := s.devices[appID]
	if !ok || d.ShopID != shopID {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (s *memLicenseStore) TouchDevice(ctx context.Context, appID string, lastSeen int64) error {
	if d, ok := s.devices[appID]; ok {
		d.LastSeen = &lastSeen
		s.devices[appID] = d
	}
	return nil
}

func (s *memLicenseStore) ListDevices(ctx context.Context, shopID string) ([]domain.Device, error) {
	var devices []domain.Device
	for _, d := range s.devices {
		if d.ShopID == shopID {
			devices = append(devices, d)
		}
	}
	return devices, nil
}

type memLicenseTx struct {
	store *memLicenseStore
}

func (t *memLicenseTx) ShopExists(ctx context.Context, shopID string) (bool, error) {
	return t.store.shops[shopID], nil
}

func (t *memLicenseTx) DeviceByAppID(ctx context.Context, shopID, appID string) (*domain.Device, error) {
	return t.store.DeviceByAppID(ctx, shopID, appID)
}

func (t *memLicenseTx) CountDevices(ctx context.Context, shopID string) (int, error) {
	n := 0
	for _, d := range t.store.devices {
		if d.ShopID == shopID {
			n++
		}
	}
	return n, nil
}

func (t *memLicenseTx) MaxDeviceSlot(ctx context.Context, shopID string) (int, error) {
	max := 0
	for _, d := range t.store.devices {
		if d.ShopID == shopID && d.Slot > max {
			max = d.Slot
		}
	}
	return max, nil
}

func (t *memLicenseTx) InsertDevice(ctx context.Context, device domain.Device) error {
	t.store.devices[device.AppID] = device
	return nil
}

func (t *memLicenseTx) ProductKeyByValue(ctx context.Context, key string) (*domain.ProductKey, error) {
	k, ok := t.store.keys[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &k, nil
}

func (t *memLicenseTx) ConsumeProductKey(ctx context.Context, key, shopID, appID string, activatedAt, expiresAt int64) (bool, error) {
	k, ok := t.store.keys[key]
	if !ok || k.Status != domain.KeyUnused {
		return false, nil
	}
	k.Status = domain.KeyUsed
	k.ShopID = &shopID
	k.AppID = &appID
	k.ActivatedAt = &activatedAt
	k.ExpiresAt = &expiresAt
	t.store.keys[key] = k
	return true, nil
}

func (t *memLicenseTx) ActivateDevice(ctx context.Context, shopID, appID, key string, activatedAt, expiresAt, lastSeen int64) error {
	d, ok := t.store.devices[appID]
	if !ok || d.ShopID != shopID {
		return repository.ErrNotFound
	}
	d.Status = domain.DeviceActive
	d.ProductKey = &key
	d.ActivatedAt = &activatedAt
	d.ExpiresAt = &expiresAt
	d.LastSeen = &lastSeen
	t.store.devices[appID] = d
	return nil
}

func (t *memLicenseTx) Commit(ctx context.Context) error   { return nil }
func (t *memLicenseTx) Rollback(ctx context.Context) error { return nil }

func doJSON(t *testing.T, h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func testClock(millis int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(millis) }
}
