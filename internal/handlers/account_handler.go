package handlers

import (
	"net/http"
	"strconv"

	"fnh-backend/internal/models"
	"fnh-backend/internal/services"
	"fnh-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type AccountHandler struct {
	Accounts *services.AccountService
}

func NewAccountHandler(accounts *services.AccountService) *AccountHandler {
	return &AccountHandler{Accounts: accounts}
}

func (h *AccountHandler) Summary(w http.ResponseWriter, r *http.Request) {
	patientID, _ := strconv.Atoi(mux.Vars(r)["id"])

	summary, err := h.Accounts.Summary(r.Context(), patientID)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, summary)
}

func (h *AccountHandler) Statement(w http.ResponseWriter, r *http.Request) {
	patientID, _ := strconv.Atoi(mux.Vars(r)["id"])

	charges, payments, err := h.Accounts.Statement(r.Context(), patientID)
	if err != nil {
		utils.Error(w, err)
		return
	}
	if charges == nil {
		charges = []*models.Charge{}
	}
	if payments == nil {
		payments = []*models.Payment{}
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"charges":  charges,
		"payments": payments,
	})
}

func (h *AccountHandler) Search(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	patients, err := h.Accounts.Search(r.Context(), term, limit)
	if err != nil {
		utils.Error(w, err)
		return
	}
	if patients == nil {
		patients = []*models.Patient{}
	}
	utils.JSON(w, http.StatusOK, patients)
}

// Reconcile cross-checks every account's stored totals against the sum
// of its charges and allocations. Accountant-facing; any row returned
// means a drifted account that needs a manual look.
func (h *AccountHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Accounts.Reconcile(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}
	if rows == nil {
		rows = []*models.ReconciliationRow{}
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"drifted": rows,
		"count":   len(rows),
	})
}

func (h *AccountHandler) VerifyReceipt(w http.ResponseWriter, r *http.Request) {
	receiptNumber := mux.Vars(r)["number"]

	payment, err := h.Accounts.VerifyReceipt(r.Context(), receiptNumber)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, payment)
}
