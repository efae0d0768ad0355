package models

import "time"

type MedicineSale struct {
	ID              int                 `json:"id"`
	RegNumber       string              `json:"reg_number"`
	PatientID       int                 `json:"patient_id"`
	PatientName     string              `json:"patient_name"` // denormalized for historical record
	ItemID          int                 `json:"item_id"`
	ItemName        string              `json:"item_name"`
	Quantity        int                 `json:"quantity"`
	TotalAmount     float64             `json:"total_amount"`
	SaleDate        time.Time           `json:"sale_date"`
	Items           []*MedicineSaleItem `json:"items,omitempty"`
	CreatedByUserID int                 `json:"created_by_user_id"`
	CreatedAt       time.Time           `json:"created_at"`
}

// MedicineSaleItem is one priced line of a sale. A single sale produces
// one line per stock batch touched by the FIFO walk, each at that
// batch's unit price (or the override price if one was supplied).
type MedicineSaleItem struct {
	ID        int     `json:"id"`
	SaleID    int     `json:"sale_id"`
	BatchID   int     `json:"batch_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}

// SellMedicineRequest is one point-of-sale request.
type SellMedicineRequest struct {
	Patient           PatientData `json:"patient"`
	ItemID            int         `json:"item_id"`
	Quantity          int         `json:"quantity"`
	UnitPriceOverride *float64    `json:"unit_price_override,omitempty"`
	SaleDate          string      `json:"sale_date"` // YYYY-MM-DD, defaults to today
	PaidAmount        float64     `json:"paid_amount"`
	PaymentMethod     string      `json:"payment_method"`
}
