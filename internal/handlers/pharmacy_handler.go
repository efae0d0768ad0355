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

type PharmacyHandler struct {
	Pharmacy *services.PharmacyService
}

func NewPharmacyHandler(pharmacy *services.PharmacyService) *PharmacyHandler {
	return &PharmacyHandler{Pharmacy: pharmacy}
}

func (h *PharmacyHandler) Sell(w http.ResponseWriter, r *http.Request) {
	var req models.SellMedicineRequest
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

	sale, err := h.Pharmacy.SellMedicine(r.Context(), &req, userID, userName)
	if err != nil {
		utils.Error(w, err)
		return
	}

	cache.InvalidatePatientCaches(r.Context(), sale.PatientID)
	cache.InvalidateStockCaches(r.Context())
	utils.JSON(w, http.StatusCreated, sale)
}

func (h *PharmacyHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	sale, err := h.Pharmacy.GetSale(r.Context(), id)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, sale)
}

func (h *PharmacyHandler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}
	userName, _ := middleware.GetUserNameFromContext(r.Context())

	sale, err := h.Pharmacy.GetSale(r.Context(), id)
	if err != nil {
		utils.Error(w, err)
		return
	}

	if err := h.Pharmacy.DeleteSale(r.Context(), id, userID, userName); err != nil {
		utils.Error(w, err)
		return
	}

	cache.InvalidatePatientCaches(r.Context(), sale.PatientID)
	cache.InvalidateStockCaches(r.Context())
	utils.JSON(w, http.StatusOK, map[string]string{"message": "sale deleted and stock restored"})
}

func (h *PharmacyHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	sales, err := h.Pharmacy.ListSales(r.Context(), limit, offset)
	if err != nil {
		utils.Error(w, err)
		return
	}

	if sales == nil {
		sales = []*models.MedicineSale{}
	}
	utils.JSON(w, http.StatusOK, sales)
}

func (h *PharmacyHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var item models.StockItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Pharmacy.CreateItem(r.Context(), &item); err != nil {
		utils.Error(w, err)
		return
	}

	cache.InvalidateStockCaches(r.Context())
	utils.JSON(w, http.StatusCreated, item)
}

func (h *PharmacyHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	if data, ok := cache.GetCached(r.Context(), cache.StockItemsKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
		return
	}

	items, err := h.Pharmacy.ListItems(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}
	if items == nil {
		items = []*models.StockItem{}
	}

	if data, err := json.Marshal(items); err == nil {
		cache.SetCached(r.Context(), cache.StockItemsKey, data, cache.StockListTTL)
	}
	utils.JSON(w, http.StatusOK, items)
}

func (h *PharmacyHandler) ReceiveStock(w http.ResponseWriter, r *http.Request) {
	var req models.ReceiveStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	batch, err := h.Pharmacy.ReceiveStock(r.Context(), &req)
	if err != nil {
		utils.Error(w, err)
		return
	}

	cache.InvalidateStockCaches(r.Context())
	utils.JSON(w, http.StatusCreated, batch)
}

func (h *PharmacyHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	itemID, _ := strconv.Atoi(mux.Vars(r)["id"])

	batches, err := h.Pharmacy.ListBatches(r.Context(), itemID)
	if err != nil {
		utils.Error(w, err)
		return
	}
	if batches == nil {
		batches = []*models.StockBatch{}
	}
	utils.JSON(w, http.StatusOK, batches)
}

func (h *PharmacyHandler) VerifyStock(w http.ResponseWriter, r *http.Request) {
	itemID, _ := strconv.Atoi(mux.Vars(r)["id"])

	counter, fromBatches, err := h.Pharmacy.VerifyItemStock(r.Context(), itemID)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"item_id":       itemID,
		"current_stock": counter,
		"from_batches":  fromBatches,
		"consistent":    counter == fromBatches,
	})
}
