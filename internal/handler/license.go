package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Brandonkhumalo/ShopSync/internal/domain"
	"github.com/Brandonkhumalo/ShopSync/internal/identity"
	"github.com/Brandonkhumalo/ShopSync/internal/service"
	"github.com/go-chi/chi/v5"
)

// AppIDHeader carries the installation identity issued at registration.
const AppIDHeader = "X-App-Id"

// LicenseHandler drives the device lifecycle: register, activate with a
// product key, renew, and the profile views.
type LicenseHandler struct {
	Service service.LicenseService
}

func (h LicenseHandler) RegisterRoutes(r chi.Router) {
	r.Post("/shops/{shopID}/devices/register", h.register)
	r.Get("/shops/{shopID}/devices", h.listDevices)
	r.Get("/shops/{shopID}/license", h.info)
	r.Post("/shops/{shopID}/product-keys/activate", h.activate)
	r.Post("/shops/{shopID}/product-keys/renew", h.renew)
}

func (h LicenseHandler) register(w http.ResponseWriter, r *http.Request) {
	device, err := h.Service.RegisterDevice(r.Context(), chi.URLParam(r, "shopID"),
		r.Header.Get(AppIDHeader))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, deviceView(*device))
}

func (h LicenseHandler) listDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.Service.ListDevices(r.Context(), chi.URLParam(r, "shopID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(devices))
	for _, d := range devices {
		resp = append(resp, deviceView(d))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h LicenseHandler) info(w http.ResponseWriter, r *http.Request) {
	appID := r.Header.Get(AppIDHeader)
	if appID == "" {
		writeError(w, http.StatusForbidden, "not-registered", "missing "+AppIDHeader+" header")
		return
	}
	info, err := h.Service.Info(r.Context(), chi.URLParam(r, "shopID"), appID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	view := deviceView(info.Device)
	view["product_key"] = info.MaskedKey
	view["days_remaining"] = info.DaysRemaining
	writeJSON(w, http.StatusOK, view)
}

func (h LicenseHandler) activate(w http.ResponseWriter, r *http.Request) {
	h.exchangeKey(w, r, h.Service.Activate)
}

func (h LicenseHandler) renew(w http.ResponseWriter, r *http.Request) {
	h.exchangeKey(w, r, h.Service.Renew)
}

func (h LicenseHandler) exchangeKey(w http.ResponseWriter, r *http.Request,
	exchange func(ctx context.Context, shopID, appID, key string) (*domain.Device, error)) {
	var req struct {
		AppID      string `json:"app_id"`
		ProductKey string `json:"product_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid payload")
		return
	}
	if req.AppID == "" {
		req.AppID = r.Header.Get(AppIDHeader)
	}
	if req.AppID == "" || req.ProductKey == "" {
		writeValidationError(w, "app_id and product_key are required")
		return
	}

	device, err := exchange(r.Context(), chi.URLParam(r, "shopID"), req.AppID, req.ProductKey)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deviceView(*device))
}

func deviceView(d domain.Device) map[string]any {
	view := map[string]any{
		"id":            d.ID,
		"app_id":        d.AppID,
		"shop_id":       d.ShopID,
		"slot":          d.Slot,
		"status":        d.Status,
		"registered_at": d.RegisteredAt,
		"activated_at":  d.ActivatedAt,
		"expires_at":    d.ExpiresAt,
		"last_seen":     d.LastSeen,
	}
	// Keys are a paid secret; only the final group ever leaves the
	// server once consumed.
	if d.ProductKey != nil {
		view["product_key"] = identity.MaskProductKey(*d.ProductKey)
	}
	return view
}
