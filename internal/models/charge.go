package models

import (
	"time"

	"fnh-backend/internal/apperrors"
)

// ChargeRefType discriminates which clinical record a charge bills for.
type ChargeRefType string

const (
	RefAdmission      ChargeRefType = "admission"
	RefPathologyOrder ChargeRefType = "pathology_order"
	RefMedicineSale   ChargeRefType = "medicine_sale"
)

// ChargeRef is the tagged back-reference from a charge to the clinical
// record that generated it. Exactly one record type is referenced;
// NewChargeRef is the only way to build one.
type ChargeRef struct {
	Type ChargeRefType `json:"type"`
	ID   int           `json:"id"`
}

func NewChargeRef(refType ChargeRefType, id int) (ChargeRef, error) {
	switch refType {
	case RefAdmission, RefPathologyOrder, RefMedicineSale:
	default:
		return ChargeRef{}, apperrors.Validationf("unknown charge reference type %q", refType)
	}
	if id <= 0 {
		return ChargeRef{}, apperrors.Validationf("charge reference id must be positive")
	}
	return ChargeRef{Type: refType, ID: id}, nil
}

// Charge is one billable service instance: an admission fee bundle, a
// pathology test bundle, or a medicine sale.
type Charge struct {
	ID             int       `json:"id"`
	PatientID      int       `json:"patient_id"`
	Ref            ChargeRef `json:"ref"`
	Description    string    `json:"description"`
	OriginalAmount float64   `json:"original_amount"`
	DiscountAmount float64   `json:"discount_amount"`
	FinalAmount    float64   `json:"final_amount"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// LineItem is one priced component of a billable record request.
type LineItem struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// FinancialData is the money portion of a billable-record request.
type FinancialData struct {
	LineItems       []LineItem `json:"line_items"`
	DiscountPercent float64    `json:"discount_percent"`
	DiscountFixed   float64    `json:"discount_fixed"`
	PaidAmount      float64    `json:"paid_amount"`
	PaymentMethod   string     `json:"payment_method"`
}

// Subtotal sums the line items before discount.
func (f *FinancialData) Subtotal() float64 {
	var sum float64
	for _, li := range f.LineItems {
		sum += li.Amount
	}
	return sum
}
