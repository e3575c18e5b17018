package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Brandonkhumalo/ShopSync/internal/domain"
	"github.com/Brandonkhumalo/ShopSync/internal/repository"
	"github.com/go-chi/chi/v5"
)

type DebtHandler struct {
	Repo repository.DebtRepository
}

func (h DebtHandler) RegisterRoutes(r chi.Router) {
	r.Get("/shops/{shopID}/debts", h.list)
	r.Post("/shops/{shopID}/debts", h.create)
	r.Put("/shops/{shopID}/debts/{debtID}", h.update)
	r.Post("/shops/{shopID}/debts/{debtID}/clear", h.clear)
	r.Delete("/shops/{shopID}/debts/{debtID}", h.delete)
	r.Get("/shops/{shopID}/debts/summary", h.summary)
}

func (h DebtHandler) list(w http.ResponseWriter, r *http.Request) {
	includeCleared := r.URL.Query().Get("include_cleared") == "true"
	debts, err := h.Repo.List(r.Context(), chi.URLParam(r, "shopID"), includeCleared)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(debts))
	for _, d := range debts {
		resp = append(resp, debtView(d))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h DebtHandler) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LocalID      string          `json:"local_id"`
		CustomerName string          `json:"customer_name"`
		AmountUSD    float64         `json:"amount_usd"`
		AmountZWG    float64         `json:"amount_zwg"`
		Type         domain.DebtType `json:"type"`
		Notes        string          `json:"notes"`
		CreatedAt    *int64          `json:"created_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid payload")
		return
	}
	if req.CustomerName == "" {
		writeValidationError(w, "customer_name is required")
		return
	}

	debt, err := h.Repo.Create(r.Context(), chi.URLParam(r, "shopID"), repository.CreateDebtParams{
		LocalID:      req.LocalID,
		CustomerName: req.CustomerName,
		AmountUSD:    req.AmountUSD,
		AmountZWG:    req.AmountZWG,
		Type:         req.Type,
		Notes:        req.Notes,
		CreatedAt:    req.CreatedAt,
	}, time.Now().UnixMilli())
	if err != nil {
		if repository.IsDuplicate(err) {
			writeError(w, http.StatusConflict, "validation", "local_id already exists")
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, debtView(*debt))
}

func (h DebtHandler) update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerName *string          `json:"customer_name"`
		AmountUSD    *float64         `json:"amount_usd"`
		AmountZWG    *float64         `json:"amount_zwg"`
		Type         *domain.DebtType `json:"type"`
		Notes        *string          `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid payload")
		return
	}

	debt, err := h.Repo.Update(r.Context(), chi.URLParam(r, "shopID"), chi.URLParam(r, "debtID"),
		repository.UpdateDebtParams{
			CustomerName: req.CustomerName,
			AmountUSD:    req.AmountUSD,
			AmountZWG:    req.AmountZWG,
			Type:         req.Type,
			Notes:        req.Notes,
		}, time.Now().UnixMilli())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, debtView(*debt))
}

func (h DebtHandler) clear(w http.ResponseWriter, r *http.Request) {
	err := h.Repo.Clear(r.Context(), chi.URLParam(r, "shopID"), chi.URLParam(r, "debtID"),
		time.Now().UnixMilli())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h DebtHandler) delete(w http.ResponseWriter, r *http.Request) {
	err := h.Repo.Delete(r.Context(), chi.URLParam(r, "shopID"), chi.URLParam(r, "debtID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h DebtHandler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Repo.Summary(r.Context(), chi.URLParam(r, "shopID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_debts":  summary.TotalDebts,
		"active_debts": summary.ActiveDebts,
		"total_usd":    summary.TotalUSD,
		"total_zwg":    summary.TotalZWG,
	})
}

func debtView(d domain.Debt) map[string]any {
	return map[string]any{
		"id":            d.ID,
		"local_id":      d.LocalID,
		"shop_id":       d.ShopID,
		"customer_name": d.CustomerName,
		"amount_usd":    d.AmountUSD,
		"amount_zwg":    d.AmountZWG,
		"type":          d.Type,
		"notes":         d.Notes,
		"cleared":       d.Cleared,
		"cleared_at":    d.ClearedAt,
		"created_at":    d.CreatedAt,
		"updated_at":    d.UpdatedAt,
	}
}
