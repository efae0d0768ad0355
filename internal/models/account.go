package models

import "time"

// Account is the per-patient rollup of the billing ledger. The three
// totals are mutated only through atomic deltas applied by the billing
// engine, never written directly. Invariant: TotalDue == TotalCharges - TotalPaid.
type Account struct {
	ID           int       `json:"id"`
	PatientID    int       `json:"patient_id"`
	TotalCharges float64   `json:"total_charges"`
	TotalPaid    float64   `json:"total_paid"`
	TotalDue     float64   `json:"total_due"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AccountSummary is the cached front-desk view of a patient account.
type AccountSummary struct {
	Patient      *Patient  `json:"patient"`
	Account      *Account  `json:"account"`
	Charges      []*Charge `json:"charges"`
	LastPayment  *Payment  `json:"last_payment,omitempty"`
	PaymentCount int       `json:"payment_count"`
}

// ReconciliationRow reports drift between the running totals and a full
// recomputation from the charge/payment rows.
type ReconciliationRow struct {
	PatientID         int     `json:"patient_id"`
	PatientName       string  `json:"patient_name"`
	TotalCharges      float64 `json:"total_charges"`
	TotalPaid         float64 `json:"total_paid"`
	TotalDue          float64 `json:"total_due"`
	RecomputedCharges float64 `json:"recomputed_charges"`
	RecomputedPaid    float64 `json:"recomputed_paid"`
	ChargesDrift      float64 `json:"charges_drift"`
	PaidDrift         float64 `json:"paid_drift"`
}
