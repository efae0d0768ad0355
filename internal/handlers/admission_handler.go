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

type AdmissionHandler struct {
	Billing *services.BillingService
}

func NewAdmissionHandler(billing *services.BillingService) *AdmissionHandler {
	return &AdmissionHandler{Billing: billing}
}

func (h *AdmissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAdmissionRequest
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

	admission, err := h.Billing.CreateAdmission(r.Context(), &req, userID, userName)
	if err != nil {
		utils.Error(w, err)
		return
	}

	cache.InvalidatePatientCaches(r.Context(), admission.PatientID)
	utils.JSON(w, http.StatusCreated, admission)
}

func (h *AdmissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	admission, err := h.Billing.GetAdmission(r.Context(), id)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, admission)
}

func (h *AdmissionHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	var req models.EditAdmissionRequest
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

	admission, err := h.Billing.EditAdmission(r.Context(), id, &req, userID, userName)
	if err != nil {
		utils.Error(w, err)
		return
	}

	cache.InvalidatePatientCaches(r.Context(), admission.PatientID)
	utils.JSON(w, http.StatusOK, admission)
}

func (h *AdmissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}
	userName, _ := middleware.GetUserNameFromContext(r.Context())

	// Fetch first so we know whose caches to drop after the reversal.
	admission, err := h.Billing.GetAdmission(r.Context(), id)
	if err != nil {
		utils.Error(w, err)
		return
	}

	if err := h.Billing.DeleteAdmission(r.Context(), id, userID, userName); err != nil {
		utils.Error(w, err)
		return
	}

	cache.InvalidatePatientCaches(r.Context(), admission.PatientID)
	utils.JSON(w, http.StatusOK, map[string]string{"message": "admission deleted"})
}

func (h *AdmissionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	admissions, err := h.Billing.ListAdmissions(r.Context(), r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		utils.Error(w, err)
		return
	}

	if admissions == nil {
		admissions = []*models.Admission{}
	}
	utils.JSON(w, http.StatusOK, admissions)
}
