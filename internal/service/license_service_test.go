package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Brandonkhumalo/ShopSync/internal/domain"
)

const testShopID = "SHOP_a1b2c3d4e5f6"

func activeDevice(appID string, slot int, expiresAt int64) domain.Device {
	key := "AB12-CD34-EF56-GH78"
	activated := expiresAt - 30*millisPerDay
	return domain.Device{
		ID: "DEV_" + appID, AppID: appID, ShopID: testShopID, Slot: slot,
		Status: domain.DeviceActive, ProductKey: &key,
		RegisteredAt: activated, ActivatedAt: &activated, ExpiresAt: &expiresAt,
	}
}

func pendingDevice(appID string, slot int) domain.Device {
	return domain.Device{
		ID: "DEV_" + appID, AppID: appID, ShopID: testShopID, Slot: slot,
		Status: domain.DevicePending, RegisteredAt: 1_700_000_000_000,
	}
}

func unusedKey(value string) domain.ProductKey {
	return domain.ProductKey{ID: "KEY_" + value[:4], Key: value, Status: domain.KeyUnused, CreatedAt: 1_700_000_000_000}
}

func TestRegisterFirstDeviceNeedsNoRegistrar(t *testing.T) {
	store := newFakeLicenseStore(testShopID)
	svc := LicenseService{Store: store, Now: fixedClock(1_700_000_000_000)}

	device, err := svc.RegisterDevice(context.Background(), testShopID, "")
	if err != nil {
		t.Fatalf("RegisterDevice: %v", err)
	}
	if device.Slot != 1 {
		t.Errorf("slot = %d, want 1", device.Slot)
	}
	if device.Status != domain.DevicePending {
		t.Errorf("status = %s, want pending", device.Status)
	}
	if !strings.HasPrefix(device.ID, "DEV_") || !strings.HasPrefix(device.AppID, "APP_") {
		t.Errorf("ids = %s / %s, want DEV_/APP_ prefixes", device.ID, device.AppID)
	}
	if device.RegisteredAt != 1_700_000_000_000 {
		t.Errorf("registered_at = %d", device.RegisteredAt)
	}
	if store.commits != 1 {
		t.Errorf("commits = %d, want 1", store.commits)
	}
}

func TestRegisterSecondDeviceRequiresActiveRegistrar(t *testing.T) {
	now := int64(1_700_000_000_000)
	tests := []struct {
		name      string
		registrar *domain.Device
		appID     string
		wantErr   error
	}{
		{"missing requesting id", nil, "", ErrUnauthorizedDevice},
		{"unknown requesting id", nil, "APP_unknown00001", ErrUnauthorizedDevice},
		{
			"pending registrar",
			func() *domain.Device { d := pendingDevice("APP_pending00001", 1); return &d }(),
			"APP_pending00001", ErrUnauthorizedDevice,
		},
		{
			"expired registrar",
			func() *domain.Device { d := activeDevice("APP_expired00001", 1, now-1); return &d }(),
			"APP_expired00001", ErrUnauthorizedDevice,
		},
		{
			"active registrar",
			func() *domain.Device { d := activeDevice("APP_active000001", 1, now+millisPerDay); return &d }(),
			"APP_active000001", nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeLicenseStore(testShopID)
			seed := pendingDevice("APP_occupant0001", 1)
			if tt.registrar != nil {
				seed = *tt.registrar
			}
			store.devices[seed.AppID] = seed

			svc := LicenseService{Store: store, Now: fixedClock(now)}
			device, err := svc.RegisterDevice(context.Background(), testShopID, tt.appID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && device.Slot != 2 {
				t.Errorf("slot = %d, want 2", device.Slot)
			}
		})
	}
}

func TestRegisterSlotSkipsGaps(t *testing.T) {
	store := newFakeLicenseStore(testShopID)
	now := int64(1_700_000_000_000)
	registrar := activeDevice("APP_active000001", 1, now+millisPerDay)
	store.devices[registrar.AppID] = registrar
	// Slot 2 was removed at some point; slot numbers are never reused.
	store.devices["APP_third0000001"] = activeDevice("APP_third0000001", 3, now+millisPerDay)

	svc := LicenseService{Store: store, Now: fixedClock(now)}
	device, err := svc.RegisterDevice(context.Background(), testShopID, registrar.AppID)
	if err != nil {
		t.Fatalf("RegisterDevice: %v", err)
	}
	if device.Slot != 4 {
		t.Errorf("slot = %d, want max+1 = 4", device.Slot)
	}
}

func TestRegisterDeviceLimit(t *testing.T) {
	store := newFakeLicenseStore(testShopID)
	now := int64(1_700_000_000_000)
	for i, appID := range []string{"APP_aaaaaaaaaaa1", "APP_aaaaaaaaaaa2", "APP_aaaaaaaaaaa3"} {
		store.devices[appID] = activeDevice(appID, i+1, now+millisPerDay)
	}

	svc := LicenseService{Store: store, Now: fixedClock(now)}
	_, err := svc.RegisterDevice(context.Background(), testShopID, "APP_aaaaaaaaaaa1")
	if !errors.Is(err, ErrDeviceLimit) {
		t.Fatalf("err = %v, want ErrDeviceLimit", err)
	}
	if store.commits != 0 {
		t.Errorf("commits = %d, want 0", store.commits)
	}
}

func TestRegisterUnknownShop(t *testing.T) {
	store := newFakeLicenseStore(testShopID)
	svc := LicenseService{Store: store, Now: fixedClock(1_700_000_000_000)}

	_, err := svc.RegisterDevice(context.Background(), "SHOP_missing", "")
	if !errors.Is(err, ErrShopNotFound) {
		t.Fatalf("err = %v, want ErrShopNotFound", err)
	}
}

func TestActivateGrantsThirtyCalendarDays(t *testing.T) {
	store := newFakeLicenseStore(testShopID)
	store.devices["APP_pending00001"] = pendingDevice("APP_pending00001", 1)
	store.keys["AB12-CD34-EF56-GH78"] = unusedKey("AB12-CD34-EF56-GH78")

	now := time.Date(2026, time.January, 15, 10, 30, 0, 0, time.UTC)
	svc := LicenseService{Store: store, Now: func() time.Time { return now }}

	device, err := svc.Activate(context.Background(), testShopID, "APP_pending00001", "AB12-CD34-EF56-GH78")
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if device.Status != domain.DeviceActive {
		t.Errorf("status = %s, want active", device.Status)
	}
	wantExpiry := now.AddDate(0, 0, 30).UnixMilli()
	if device.ExpiresAt == nil || *device.ExpiresAt != wantExpiry {
		t.Errorf("expires_at = %v, want %d (Feb 14)", device.ExpiresAt, wantExpiry)
	}
	if device.ActivatedAt == nil || *device.ActivatedAt != now.UnixMilli() {
		t.Errorf("activated_at = %v", device.ActivatedAt)
	}

	key := store.keys["AB12-CD34-EF56-GH78"]
	if key.Status != domain.KeyUsed {
		t.Errorf("key status = %s, want used", key.Status)
	}
	if key.ShopID == nil || *key.ShopID != testShopID || key.AppID == nil || *key.AppID != "APP_pending00001" {
		t.Errorf("key binding = %+v", key)
	}
}

func TestActivateUsedKeyRejected(t *testing.T) {
	store := newFakeLicenseStore(testShopID)
	store.devices["APP_pending00001"] = pendingDevice("APP_pending00001", 1)
	used := unusedKey("AB12-CD34-EF56-GH78")
	used.Status = domain.KeyUsed
	store.keys[used.Key] = used

	svc := LicenseService{Store: store, Now: fixedClock(1_700_000_000_000)}
	_, err := svc.Activate(context.Background(), testShopID, "APP_pending00001", used.Key)
	if !errors.Is(err, ErrKeyUsed) {
		t.Fatalf("err = %v, want ErrKeyUsed", err)
	}
	if store.commits != 0 {
		t.Errorf("commits = %d, want 0", store.commits)
	}
}

func TestActivateLosesKeyRace(t *testing.T) {
	store := newFakeLicenseStore(testShopID)
	store.devices["APP_pending00001"] = pendingDevice("APP_pending00001", 1)
	store.keys["AB12-CD34-EF56-GH78"] = unusedKey("AB12-CD34-EF56-GH78")
	store.consumeLoses = true

	svc := LicenseService{Store: store, Now: fixedClock(1_700_000_000_000)}
	_, err := svc.Activate(context.Background(), testShopID, "APP_pending00001", "AB12-CD34-EF56-GH78")
	if !errors.Is(err, ErrKeyUsed) {
		t.Fatalf("err = %v, want ErrKeyUsed when the conditional update loses", err)
	}
	if store.commits != 0 {
		t.Errorf("commits = %d, want 0", store.commits)
	}
	if store.devices["APP_pending00001"].Status != domain.DevicePending {
		t.Errorf("device activated despite lost key race")
	}
}

func TestActivateLookupFailures(t *testing.T) {
	store := newFakeLicenseStore(testShopID)
	store.devices["APP_pending00001"] = pendingDevice("APP_pending00001", 1)
	store.keys["AB12-CD34-EF56-GH78"] = unusedKey("AB12-CD34-EF56-GH78")
	svc := LicenseService{Store: store, Now: fixedClock(1_700_000_000_000)}

	tests := []struct {
		name               string
		shopID, appID, key string
		wantErr            error
	}{
		{"unknown shop", "SHOP_missing", "APP_pending00001", "AB12-CD34-EF56-GH78", ErrShopNotFound},
		{"unknown device", testShopID, "APP_missing00001", "AB12-CD34-EF56-GH78", ErrDeviceNotFound},
		{"unknown key", testShopID, "APP_pending00001", "ZZ99-ZZ99-ZZ99-ZZ99", ErrKeyNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Activate(context.Background(), tt.shopID, tt.appID, tt.key)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRenewConsumesFreshKey(t *testing.T) {
	store := newFakeLicenseStore(testShopID)
	now := time.UnixMilli(1_700_000_000_000)
	device := activeDevice("APP_active000001", 1, now.UnixMilli()+2*millisPerDay)
	store.devices[device.AppID] = device
	store.keys["NEW1-NEW2-NEW3-NEW4"] = unusedKey("NEW1-NEW2-NEW3-NEW4")

	svc := LicenseService{Store: store, Now: func() time.Time { return now }}
	renewed, err := svc.Renew(context.Background(), testShopID, device.AppID, "NEW1-NEW2-NEW3-NEW4")
	if err != nil {
		t.Fatalf("Renew: %v", err)
	}
	wantExpiry := now.AddDate(0, 0, 30).UnixMilli()
	if renewed.ExpiresAt == nil || *renewed.ExpiresAt != wantExpiry {
		t.Errorf("expires_at = %v, want 30 days from renewal, not from old expiry", renewed.ExpiresAt)
	}
	if renewed.ProductKey == nil || *renewed.ProductKey != "NEW1-NEW2-NEW3-NEW4" {
		t.Errorf("product key = %v, want the fresh key", renewed.ProductKey)
	}
	if store.keys["NEW1-NEW2-NEW3-NEW4"].Status != domain.KeyUsed {
		t.Errorf("fresh key not consumed")
	}
}

func TestAuthorizeDecisions(t *testing.T) {
	now := int64(1_700_000_000_000)

	tests := []struct {
		name    string
		seed    *domain.Device
		appID   string
		wantErr error
	}{
		{"unregistered", nil, "APP_missing00001", ErrNotRegistered},
		{
			"pending",
			func() *domain.Device { d := pendingDevice("APP_pending00001", 1); return &d }(),
			"APP_pending00001", &NotActivatedError{},
		},
		{
			"expired one millisecond ago",
			func() *domain.Device { d := activeDevice("APP_expired00001", 1, now-1); return &d }(),
			"APP_expired00001", ErrLicenseExpired,
		},
		{
			"expires exactly now",
			func() *domain.Device { d := activeDevice("APP_edge00000001", 1, now); return &d }(),
			"APP_edge00000001", nil,
		},
		{
			"active with time left",
			func() *domain.Device { d := activeDevice("APP_active000001", 1, now+millisPerDay); return &d }(),
			"APP_active000001", nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeLicenseStore(testShopID)
			if tt.seed != nil {
				store.devices[tt.seed.AppID] = *tt.seed
			}
			svc := LicenseService{Store: store, Now: fixedClock(now)}

			device, err := svc.Authorize(context.Background(), testShopID, tt.appID)
			if _, ok := tt.wantErr.(*NotActivatedError); ok {
				var notActivated *NotActivatedError
				if !errors.As(err, &notActivated) {
					t.Fatalf("err = %v, want NotActivatedError", err)
				}
				if notActivated.Status != domain.DevicePending {
					t.Errorf("carried status = %s, want pending", notActivated.Status)
				}
			} else if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil {
				if device == nil {
					t.Fatal("device = nil on allow")
				}
				if len(store.touched) != 1 || store.touched[0] != tt.appID {
					t.Errorf("heartbeat touched = %v, want [%s]", store.touched, tt.appID)
				}
			} else if len(store.touched) != 0 {
				t.Errorf("heartbeat recorded on deny: %v", store.touched)
			}
		})
	}
}

func TestAuthorizeHeartbeatFailureIsNotFatal(t *testing.T) {
	store := newFakeLicenseStore(testShopID)
	now := int64(1_700_000_000_000)
	device := activeDevice("APP_active000001", 1, now+millisPerDay)
	store.devices[device.AppID] = device
	store.touchErr = errors.New("connection reset")

	svc := LicenseService{Store: store, Now: fixedClock(now)}
	got, err := svc.Authorize(context.Background(), testShopID, device.AppID)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if got.AppID != device.AppID {
		t.Errorf("device = %+v", got)
	}
}

func TestInfoMasksKeyAndFloorsDays(t *testing.T) {
	store := newFakeLicenseStore(testShopID)
	now := int64(1_700_000_000_000)
	// 2 days and a bit remaining floors to 2.
	device := activeDevice("APP_active000001", 1, now+2*millisPerDay+3_600_000)
	store.devices[device.AppID] = device

	svc := LicenseService{Store: store, Now: fixedClock(now)}
	info, err := svc.Info(context.Background(), testShopID, device.AppID)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.MaskedKey != "****-****-****-GH78" {
		t.Errorf("masked key = %q", info.MaskedKey)
	}
	if info.DaysRemaining != 2 {
		t.Errorf("days remaining = %d, want 2", info.DaysRemaining)
	}
}

func TestInfoExpiredShowsZeroDays(t *testing.T) {
	store := newFakeLicenseStore(testShopID)
	now := int64(1_700_000_000_000)
	device := activeDevice("APP_expired00001", 1, now-5*millisPerDay)
	store.devices[device.AppID] = device

	svc := LicenseService{Store: store, Now: fixedClock(now)}
	info, err := svc.Info(context.Background(), testShopID, device.AppID)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.DaysRemaining != 0 {
		t.Errorf("days remaining = %d, want 0 for expired license", info.DaysRemaining)
	}
}
