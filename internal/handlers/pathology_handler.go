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

type PathologyHandler struct {
	Billing *services.BillingService
}

func NewPathologyHandler(billing *services.BillingService) *PathologyHandler {
	return &PathologyHandler{Billing: billing}
}

func (h *PathologyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePathologyOrderRequest
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

	order, err := h.Billing.CreatePathologyOrder(r.Context(), &req, userID, userName)
	if err != nil {
		utils.Error(w, err)
		return
	}

	cache.InvalidatePatientCaches(r.Context(), order.PatientID)
	utils.JSON(w, http.StatusCreated, order)
}

func (h *PathologyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	order, err := h.Billing.GetPathologyOrder(r.Context(), id)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, order)
}

func (h *PathologyHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	var req models.EditPathologyOrderRequest
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

	order, err := h.Billing.EditPathologyOrder(r.Context(), id, &req, userID, userName)
	if err != nil {
		utils.Error(w, err)
		return
	}

	cache.InvalidatePatientCaches(r.Context(), order.PatientID)
	utils.JSON(w, http.StatusOK, order)
}

func (h *PathologyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}
	userName, _ := middleware.GetUserNameFromContext(r.Context())

	order, err := h.Billing.GetPathologyOrder(r.Context(), id)
	if err != nil {
		utils.Error(w, err)
		return
	}

	if err := h.Billing.DeletePathologyOrder(r.Context(), id, userID, userName); err != nil {
		utils.Error(w, err)
		return
	}

	cache.InvalidatePatientCaches(r.Context(), order.PatientID)
	utils.JSON(w, http.StatusOK, map[string]string{"message": "pathology order deleted"})
}

func (h *PathologyHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	orders, err := h.Billing.ListPathologyOrders(r.Context(), limit, offset)
	if err != nil {
		utils.Error(w, err)
		return
	}

	if orders == nil {
		orders = []*models.PathologyOrder{}
	}
	utils.JSON(w, http.StatusOK, orders)
}
