package service

import (
	"errors"
	"fmt"

	"github.com/Brandonkhumalo/ShopSync/internal/domain"
)

// Sentinels used by handlers to pick status codes and machine-readable
// reason tags. One distinct error per user-visible condition so the
// client can branch without parsing prose.
var (
	ErrShopNotFound   = errors.New("shop not found")
	ErrDeviceNotFound = errors.New("device not found")
	ErrKeyNotFound    = errors.New("product key not found")

	// ErrKeyUsed covers both a key observed as used and a conditional
	// update lost to a concurrent activation.
	ErrKeyUsed = errors.New("product key already used")

	ErrDeviceLimit        = errors.New("device limit reached")
	ErrUnauthorizedDevice = errors.New("device registration not authorized")
	ErrNotRegistered      = errors.New("device not registered")
	ErrLicenseExpired     = errors.New("license expired")

	ErrInvalidCredentials = errors.New("invalid credentials")
)

// NotActivatedError reports a guard rejection for a device that exists
// but has never completed activation; it carries the current status.
type NotActivatedError struct {
	Status domain.DeviceStatus
}

func (e *NotActivatedError) Error() string {
	return fmt.Sprintf("device not activated (status %s)", e.Status)
}
