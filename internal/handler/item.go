package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Brandonkhumalo/ShopSync/internal/domain"
	"github.com/Brandonkhumalo/ShopSync/internal/repository"
	"github.com/go-chi/chi/v5"
)

type ItemHandler struct {
	Repo repository.ItemRepository
}

func (h ItemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/shops/{shopID}/items", h.list)
	r.Post("/shops/{shopID}/items", h.create)
	r.Put("/shops/{shopID}/items/{itemID}", h.update)
	r.Delete("/shops/{shopID}/items/{itemID}", h.delete)
	r.Get("/shops/{shopID}/items/categories", h.categories)
}

func (h ItemHandler) list(w http.ResponseWriter, r *http.Request) {
	var category *string
	if c := r.URL.Query().Get("category"); c != "" {
		category = &c
	}
	items, err := h.Repo.List(r.Context(), chi.URLParam(r, "shopID"), category)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, it := range items {
		resp = append(resp, itemView(it))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h ItemHandler) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LocalID   string  `json:"local_id"`
		Name      string  `json:"name"`
		Category  string  `json:"category"`
		PriceUSD  float64 `json:"price_usd"`
		PriceZWG  float64 `json:"price_zwg"`
		Quantity  int     `json:"quantity"`
		CreatedAt *int64  `json:"created_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid payload")
		return
	}
	if req.Name == "" {
		writeValidationError(w, "name is required")
		return
	}

	item, err := h.Repo.Create(r.Context(), chi.URLParam(r, "shopID"), repository.CreateItemParams{
		LocalID:   req.LocalID,
		Name:      req.Name,
		Category:  req.Category,
		PriceUSD:  req.PriceUSD,
		PriceZWG:  req.PriceZWG,
		Quantity:  req.Quantity,
		CreatedAt: req.CreatedAt,
	}, time.Now().UnixMilli())
	if err != nil {
		if repository.IsDuplicate(err) {
			writeError(w, http.StatusConflict, "validation", "local_id already exists")
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, itemView(*item))
}

func (h ItemHandler) update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     *string  `json:"name"`
		Category *string  `json:"category"`
		PriceUSD *float64 `json:"price_usd"`
		PriceZWG *float64 `json:"price_zwg"`
		Quantity *int     `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid payload")
		return
	}

	item, err := h.Repo.Update(r.Context(), chi.URLParam(r, "shopID"), chi.URLParam(r, "itemID"),
		repository.UpdateItemParams{
			Name:     req.Name,
			Category: req.Category,
			PriceUSD: req.PriceUSD,
			PriceZWG: req.PriceZWG,
			Quantity: req.Quantity,
		}, time.Now().UnixMilli())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemView(*item))
}

func (h ItemHandler) delete(w http.ResponseWriter, r *http.Request) {
	err := h.Repo.Delete(r.Context(), chi.URLParam(r, "shopID"), chi.URLParam(r, "itemID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h ItemHandler) categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Repo.Categories(r.Context(), chi.URLParam(r, "shopID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func itemView(it domain.Item) map[string]any {
	return map[string]any{
		"id":         it.ID,
		"local_id":   it.LocalID,
		"shop_id":    it.ShopID,
		"name":       it.Name,
		"category":   it.Category,
		"price_usd":  it.PriceUSD,
		"price_zwg":  it.PriceZWG,
		"quantity":   it.Quantity,
		"created_at": it.CreatedAt,
		"updated_at": it.UpdatedAt,
	}
}
