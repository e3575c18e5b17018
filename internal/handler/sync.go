package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Brandonkhumalo/ShopSync/internal/domain"
	"github.com/Brandonkhumalo/ShopSync/internal/service"
	"github.com/go-chi/chi/v5"
)

// SyncHandler accepts the client's offline batch and reports the last
// reconciliation outcome.
type SyncHandler struct {
	Service service.SyncService
}

func (h SyncHandler) RegisterRoutes(r chi.Router) {
	r.Post("/shops/{shopID}/sync", h.merge)
	r.Get("/shops/{shopID}/sync/status", h.status)
}

type itemChangeRequest struct {
	LocalID   string  `json:"local_id"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	PriceUSD  float64 `json:"price_usd"`
	PriceZWG  float64 `json:"price_zwg"`
	Quantity  int     `json:"quantity"`
	CreatedAt *int64  `json:"created_at"`
}

type saleChangeRequest struct {
	LocalID       string  `json:"local_id"`
	ItemID        *string `json:"item_id"`
	ItemName      string  `json:"item_name"`
	Quantity      int     `json:"quantity"`
	TotalUSD      float64 `json:"total_usd"`
	TotalZWG      float64 `json:"total_zwg"`
	PaymentMethod string  `json:"payment_method"`
	DebtUsedUSD   float64 `json:"debt_used_usd"`
	DebtUsedZWG   float64 `json:"debt_used_zwg"`
	DebtID        *string `json:"debt_id"`
	SaleDate      *int64  `json:"sale_date"`
}

type debtChangeRequest struct {
	LocalID      string          `json:"local_id"`
	CustomerName string          `json:"customer_name"`
	AmountUSD    float64         `json:"amount_usd"`
	AmountZWG    float64         `json:"amount_zwg"`
	Type         domain.DebtType `json:"type"`
	Notes        string          `json:"notes"`
	Cleared      bool            `json:"cleared"`
	ClearedAt    *int64          `json:"cleared_at"`
	CreatedAt    *int64          `json:"created_at"`
}

func (h SyncHandler) merge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []itemChangeRequest `json:"items"`
		Sales []saleChangeRequest `json:"sales"`
		Debts []debtChangeRequest `json:"debts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid payload")
		return
	}

	batch := domain.SyncBatch{
		Items: make([]domain.ItemChange, 0, len(req.Items)),
		Sales: make([]domain.SaleChange, 0, len(req.Sales)),
		Debts: make([]domain.DebtChange, 0, len(req.Debts)),
	}
	for _, c := range req.Items {
		if c.LocalID == "" {
			writeValidationError(w, "every item change needs a local_id")
			return
		}
		batch.Items = append(batch.Items, domain.ItemChange{
			LocalID: c.LocalID, Name: c.Name, Category: c.Category,
			PriceUSD: c.PriceUSD, PriceZWG: c.PriceZWG, Quantity: c.Quantity,
			CreatedAt: c.CreatedAt,
		})
	}
	for _, c := range req.Sales {
		if c.LocalID == "" {
			writeValidationError(w, "every sale change needs a local_id")
			return
		}
		batch.Sales = append(batch.Sales, domain.SaleChange{
			LocalID: c.LocalID, ItemID: c.ItemID, ItemName: c.ItemName,
			Quantity: c.Quantity, TotalUSD: c.TotalUSD, TotalZWG: c.TotalZWG,
			PaymentMethod: c.PaymentMethod,
			DebtUsedUSD:   c.DebtUsedUSD, DebtUsedZWG: c.DebtUsedZWG, DebtID: c.DebtID,
			SaleDate: c.SaleDate,
		})
	}
	for _, c := range req.Debts {
		if c.LocalID == "" {
			writeValidationError(w, "every debt change needs a local_id")
			return
		}
		batch.Debts = append(batch.Debts, domain.DebtChange{
			LocalID: c.LocalID, CustomerName: c.CustomerName,
			AmountUSD: c.AmountUSD, AmountZWG: c.AmountZWG,
			Type: c.Type, Notes: c.Notes,
			Cleared: c.Cleared, ClearedAt: c.ClearedAt, CreatedAt: c.CreatedAt,
		})
	}

	results, err := h.Service.Merge(r.Context(), chi.URLParam(r, "shopID"), batch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": map[string]any{
			"items": map[string]int{
				"created": results.Items.Created,
				"updated": results.Items.Updated,
			},
			"sales": map[string]int{
				"created": results.Sales.Created,
			},
			"debts": map[string]int{
				"created": results.Debts.Created,
				"updated": results.Debts.Updated,
			},
		},
		"sync_time": results.SyncTime,
	})
}

func (h SyncHandler) status(w http.ResponseWriter, r *http.Request) {
	log, err := h.Service.Status(r.Context(), chi.URLParam(r, "shopID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if log == nil {
		writeJSON(w, http.StatusOK, map[string]any{"last_sync": nil, "success": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"last_sync": log.SyncTime,
		"success":   log.Success,
	})
}
