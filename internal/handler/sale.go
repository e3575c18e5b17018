package handler

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Brandonkhumalo/ShopSync/internal/domain"
	"github.com/Brandonkhumalo/ShopSync/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"
)

type SaleHandler struct {
	Repo repository.SaleRepository
}

func (h SaleHandler) RegisterRoutes(r chi.Router) {
	r.Get("/shops/{shopID}/sales", h.list)
	r.Post("/shops/{shopID}/sales", h.create)
	r.Get("/shops/{shopID}/sales/report", h.report)
	r.Get("/shops/{shopID}/sales/report/export", h.export)
}

func (h SaleHandler) list(w http.ResponseWriter, r *http.Request) {
	dates, err := parseDateRange(r)
	if err != nil {
		writeValidationError(w, "start_date and end_date must be epoch milliseconds")
		return
	}
	sales, err := h.Repo.List(r.Context(), chi.URLParam(r, "shopID"), dates)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(sales))
	for _, s := range sales {
		resp = append(resp, saleView(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h SaleHandler) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
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
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid payload")
		return
	}
	if req.ItemName == "" {
		writeValidationError(w, "item_name is required")
		return
	}

	sale, err := h.Repo.Create(r.Context(), chi.URLParam(r, "shopID"), repository.CreateSaleParams{
		LocalID:       req.LocalID,
		ItemID:        req.ItemID,
		ItemName:      req.ItemName,
		Quantity:      req.Quantity,
		TotalUSD:      req.TotalUSD,
		TotalZWG:      req.TotalZWG,
		PaymentMethod: req.PaymentMethod,
		DebtUsedUSD:   req.DebtUsedUSD,
		DebtUsedZWG:   req.DebtUsedZWG,
		DebtID:        req.DebtID,
		SaleDate:      req.SaleDate,
	}, time.Now().UnixMilli())
	if err != nil {
		if repository.IsDuplicate(err) {
			writeError(w, http.StatusConflict, "validation", "local_id already exists")
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saleView(*sale))
}

func (h SaleHandler) report(w http.ResponseWriter, r *http.Request) {
	dates, err := parseDateRange(r)
	if err != nil {
		writeValidationError(w, "start_date and end_date must be epoch milliseconds")
		return
	}
	summary, topItems, err := h.Repo.Report(r.Context(), chi.URLParam(r, "shopID"), dates)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	top := make([]map[string]any, 0, len(topItems))
	for _, it := range topItems {
		top = append(top, map[string]any{
			"item_name":   it.ItemName,
			"total_qty":   it.TotalQty,
			"revenue_usd": it.RevenueUSD,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary": map[string]any{
			"total_transactions": summary.TotalTransactions,
			"total_usd":          summary.TotalUSD,
			"total_zwg":          summary.TotalZWG,
			"total_items_sold":   summary.TotalItemsSold,
		},
		"top_items": top,
	})
}

func (h SaleHandler) export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	dates, err := parseDateRange(r)
	if err != nil {
		writeValidationError(w, "start_date and end_date must be epoch milliseconds")
		return
	}

	sales, err := h.Repo.List(r.Context(), chi.URLParam(r, "shopID"), dates)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	suffix := time.Now().Format("20060102_150405")
	switch format {
	case "csv":
		data, err := exportSalesCSV(sales)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"sales_%s.csv\"", suffix))
		_, _ = w.Write(data)
	case "xlsx", "excel":
		data, err := exportSalesXLSX(sales)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"sales_%s.xlsx\"", suffix))
		_, _ = w.Write(data)
	default:
		writeValidationError(w, "invalid format (use csv or xlsx)")
	}
}

func exportSalesCSV(sales []domain.Sale) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"id", "item_name", "quantity", "total_usd", "total_zwg", "payment_method", "sale_date"})
	for _, s := range sales {
		_ = w.Write([]string{
			s.ID,
			s.ItemName,
			strconv.Itoa(s.Quantity),
			strconv.FormatFloat(s.TotalUSD, 'f', 2, 64),
			strconv.FormatFloat(s.TotalZWG, 'f', 2, 64),
			s.PaymentMethod,
			formatMillis(s.SaleDate),
		})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func exportSalesXLSX(sales []domain.Sale) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "Sales"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	header := []string{"ID", "Item", "Quantity", "Total USD", "Total ZWG", "Payment Method", "Sale Date"}
	for c, v := range header {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(sheet, cell, v)
	}
	for r, s := range sales {
		row := r + 2
		values := []any{
			s.ID,
			s.ItemName,
			s.Quantity,
			s.TotalUSD,
			s.TotalZWG,
			s.PaymentMethod,
			formatMillis(s.SaleDate),
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 20)
	_ = f.SetColWidth(sheet, "B", "B", 28)
	_ = f.SetColWidth(sheet, "C", "E", 12)
	_ = f.SetColWidth(sheet, "F", "G", 18)

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
	})
	_ = f.SetCellStyle(sheet, "A1", "G1", style)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatMillis(millis int64) string {
	return time.UnixMilli(millis).UTC().Format("2006-01-02 15:04")
}

func saleView(s domain.Sale) map[string]any {
	return map[string]any{
		"id":             s.ID,
		"local_id":       s.LocalID,
		"shop_id":        s.ShopID,
		"item_id":        s.ItemID,
		"item_name":      s.ItemName,
		"quantity":       s.Quantity,
		"total_usd":      s.TotalUSD,
		"total_zwg":      s.TotalZWG,
		"payment_method": s.PaymentMethod,
		"debt_used_usd":  s.DebtUsedUSD,
		"debt_used_zwg":  s.DebtUsedZWG,
		"debt_id":        s.DebtID,
		"sale_date":      s.SaleDate,
		"created_at":     s.CreatedAt,
	}
}
