package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Brandonkhumalo/ShopSync/internal/domain"
	"github.com/Brandonkhumalo/ShopSync/internal/repository"
	"github.com/go-chi/chi/v5"
)

type ShopHandler struct {
	Repo repository.ShopRepository
}

func (h ShopHandler) RegisterRoutes(r chi.Router) {
	r.Post("/shops", h.create)
	r.Get("/shops/{shopID}", h.get)
	r.Put("/shops/{shopID}", h.update)
}

func (h ShopHandler) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string  `json:"name"`
		OwnerName    string  `json:"owner_name"`
		OwnerSurname string  `json:"owner_surname"`
		PhoneNumber  string  `json:"phone_number"`
		Services     string  `json:"services"`
		Address      string  `json:"address"`
		PIN          *string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid payload")
		return
	}
	if req.Name == "" || req.OwnerName == "" || req.OwnerSurname == "" || req.PhoneNumber == "" {
		writeValidationError(w, "name, owner_name, owner_surname and phone_number are required")
		return
	}

	shop, err := h.Repo.Create(r.Context(), repository.CreateShopParams{
		Name:         req.Name,
		OwnerName:    req.OwnerName,
		OwnerSurname: req.OwnerSurname,
		PhoneNumber:  req.PhoneNumber,
		Services:     req.Services,
		Address:      req.Address,
		PIN:          req.PIN,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, shopView(*shop))
}

func (h ShopHandler) get(w http.ResponseWriter, r *http.Request) {
	shop, err := h.Repo.GetByID(r.Context(), chi.URLParam(r, "shopID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shopView(*shop))
}

func (h ShopHandler) update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         *string `json:"name"`
		OwnerName    *string `json:"owner_name"`
		OwnerSurname *string `json:"owner_surname"`
		PhoneNumber  *string `json:"phone_number"`
		Services     *string `json:"services"`
		Address      *string `json:"address"`
		PIN          *string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid payload")
		return
	}

	shop, err := h.Repo.Update(r.Context(), chi.URLParam(r, "shopID"), repository.UpdateShopParams{
		Name:         req.Name,
		OwnerName:    req.OwnerName,
		OwnerSurname: req.OwnerSurname,
		PhoneNumber:  req.PhoneNumber,
		Services:     req.Services,
		Address:      req.Address,
		PIN:          req.PIN,
	}, time.Now().UnixMilli())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not-found", "shop not found")
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shopView(*shop))
}

func shopView(s domain.Shop) map[string]any {
	return map[string]any{
		"id":                 s.ID,
		"name":               s.Name,
		"owner_name":         s.OwnerName,
		"owner_surname":      s.OwnerSurname,
		"phone_number":       s.PhoneNumber,
		"services":           s.Services,
		"address":            s.Address,
		"payment_status":     s.PaymentStatus,
		"subscription_start": s.SubscriptionStart,
		"subscription_end":   s.SubscriptionEnd,
		"last_payment_date":  s.LastPaymentDate,
		"created_at":         s.CreatedAt,
		"updated_at":         s.UpdatedAt,
	}
}
