package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"fnh-backend/internal/cache"
	"fnh-backend/internal/middleware"
	"fnh-backend/internal/models"
	"fnh-backend/internal/services"
	"fnh-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type ShiftHandler struct {
	Shifts *services.ShiftService
}

func NewShiftHandler(shifts *services.ShiftService) *ShiftHandler {
	return &ShiftHandler{Shifts: shifts}
}

// Active returns the caller's open shift, opening one if needed. The
// front desk calls this on login so the drawer is always tracked.
func (h *ShiftHandler) Active(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	shift, err := h.Shifts.Active(r.Context(), userID)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, shift)
}

func (h *ShiftHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	summary, err := h.Shifts.Summary(r.Context(), id)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, summary)
}

func (h *ShiftHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	var req models.CloseShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}
	userName, _ := middleware.GetUserNameFromContext(r.Context())

	summary, err := h.Shifts.Close(r.Context(), id, &req, userID, userName)
	if err != nil {
		utils.Error(w, err)
		return
	}

	cache.InvalidateShiftCaches(r.Context())
	utils.JSON(w, http.StatusOK, summary)
}

// DailyReport aggregates all shifts for one calendar day. Accountants
// use it to sign off the day's cash position.
func (h *ShiftHandler) DailyReport(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")

	report, err := h.Shifts.ReportForDay(r.Context(), date)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, report)
}
