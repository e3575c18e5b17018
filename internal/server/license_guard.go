package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Brandonkhumalo/ShopSync/internal/handler"
	"github.com/Brandonkhumalo/ShopSync/internal/service"
	"github.com/go-chi/chi/v5"
)

// LicenseGuard gates shop data and sync routes behind an activated,
// unexpired device license. The device identifies itself with the
// X-App-Id header issued at registration.
func LicenseGuard(licenses service.LicenseService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			appID := r.Header.Get(handler.AppIDHeader)
			if appID == "" {
				writeGuardError(w, "not-registered", "missing "+handler.AppIDHeader+" header")
				return
			}

			shopID := chi.URLParam(r, "shopID")
			if _, err := licenses.Authorize(r.Context(), shopID, appID); err != nil {
				var notActivated *service.NotActivatedError
				switch {
				case errors.Is(err, service.ErrNotRegistered):
					writeGuardError(w, "not-registered", "device is not registered to this shop")
				case errors.As(err, &notActivated):
					writeGuardError(w, "not-activated", "device has not been activated")
				case errors.Is(err, service.ErrLicenseExpired):
					writeGuardError(w, "expired", "device license has expired")
				default:
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"status": "error", "reason": "internal", "message": "internal server error",
					})
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeGuardError(w http.ResponseWriter, reason, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "error", "reason": reason, "message": message,
	})
}
