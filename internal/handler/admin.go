package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Brandonkhumalo/ShopSync/internal/domain"
	"github.com/Brandonkhumalo/ShopSync/internal/service"
	"github.com/go-chi/chi/v5"
)

// AdminHandler serves the dashboard. Login is public; everything else
// sits behind the admin bearer middleware.
type AdminHandler struct {
	Service service.AdminService
}

func (h AdminHandler) RegisterLogin(r chi.Router) {
	r.Post("/admin/login", h.login)
}

func (h AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/admin/stats", h.stats)
	r.Get("/admin/product-keys", h.listKeys)
	r.Post("/admin/product-keys", h.mintKeys)
	r.Get("/admin/shops", h.listShops)
	r.Get("/admin/devices", h.listDevices)
	r.Delete("/admin/shops/{shopID}", h.deleteShop)
}

func (h AdminHandler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid payload")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeValidationError(w, "email and password are required")
		return
	}

	result, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      result.Token,
		"expires_at": result.ExpiresAt.UnixMilli(),
	})
}

func (h AdminHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_shops":    stats.TotalShops,
		"total_keys":     stats.TotalKeys,
		"used_keys":      stats.UsedKeys,
		"total_devices":  stats.TotalDevices,
		"active_devices": stats.ActiveDevices,
	})
}

func (h AdminHandler) listKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.Service.ListKeys(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		resp = append(resp, productKeyView(k))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h AdminHandler) mintKeys(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid payload")
		return
	}

	keys, err := h.Service.MintKeys(r.Context(), req.Count)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		resp = append(resp, productKeyView(k))
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h AdminHandler) listShops(w http.ResponseWriter, r *http.Request) {
	shops, err := h.Service.ListShops(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(shops))
	for _, s := range shops {
		resp = append(resp, shopView(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h AdminHandler) listDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.Service.ListDevices(r.Context())
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

func (h AdminHandler) deleteShop(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteShop(r.Context(), chi.URLParam(r, "shopID")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// The dashboard mints and distributes keys, so it sees them unmasked.
func productKeyView(k domain.ProductKey) map[string]any {
	return map[string]any{
		"id":           k.ID,
		"product_key":  k.Key,
		"status":       k.Status,
		"created_at":   k.CreatedAt,
		"activated_at": k.ActivatedAt,
		"expires_at":   k.ExpiresAt,
		"shop_id":      k.ShopID,
		"app_id":       k.AppID,
	}
}
