package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"fnh-backend/internal/cache"
	"fnh-backend/internal/services"
	"fnh-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type ReportHandler struct {
	Reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{Reports: reports}
}

// ReceiptPDF renders a payment receipt for printing at the front desk.
func (h *ReportHandler) ReceiptPDF(w http.ResponseWriter, r *http.Request) {
	receiptNumber := mux.Vars(r)["number"]

	pdf, err := h.Reports.GenerateReceiptPDF(r.Context(), receiptNumber)
	if err != nil {
		utils.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=receipt_%s.pdf", receiptNumber))
	w.Write(pdf)
}

func (h *ReportHandler) DailyCashPDF(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")

	pdf, err := h.Reports.GenerateDailyCashPDF(r.Context(), date)
	if err != nil {
		utils.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=daily_cash.pdf")
	w.Write(pdf)
}

func (h *ReportHandler) StatementPDF(w http.ResponseWriter, r *http.Request) {
	patientID, _ := strconv.Atoi(mux.Vars(r)["id"])

	pdf, err := h.Reports.GenerateStatementPDF(r.Context(), patientID)
	if err != nil {
		utils.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=statement_%d.pdf", patientID))
	w.Write(pdf)
}

// Export pushes the daily cash report to the off-site bucket on demand.
// The nightly scheduler does the same thing unattended.
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")

	key, err := h.Reports.ExportDailyReport(r.Context(), date)
	if err != nil {
		utils.Error(w, err)
		return
	}
	if key == "" {
		utils.JSON(w, http.StatusOK, map[string]string{"message": "export skipped, no backup endpoint configured"})
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"key": key})
}

func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if data, ok := cache.GetCached(r.Context(), cache.DashboardKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
		return
	}

	snapshot, err := h.Reports.Dashboard(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}

	if data, err := json.Marshal(snapshot); err == nil {
		cache.SetCached(r.Context(), cache.DashboardKey, data, cache.DashboardTTL)
	}
	utils.JSON(w, http.StatusOK, snapshot)
}
