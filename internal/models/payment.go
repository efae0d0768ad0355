package models

import "time"

// Payment methods accepted at the front desk.
const (
	MethodCash   = "cash"
	MethodCard   = "card"
	MethodMobile = "mobile" // bKash/Nagad wallets
)

// Payment is one money receipt. Payments are immutable once created;
// corrections are represented by refund cash movements, never by
// editing a payment row.
type Payment struct {
	ID              int       `json:"id"`
	ReceiptNumber   string    `json:"receipt_number"`
	PatientID       int       `json:"patient_id"`
	Amount          float64   `json:"amount"`
	Method          string    `json:"method"`
	ShiftID         int       `json:"shift_id"`
	CollectedByID   int       `json:"collected_by_user_id"`
	CollectedByName string    `json:"collected_by_name,omitempty"` // joined from users
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
}

// PaymentAllocation links a payment to the charge it funds. A payment
// may fund several charges and a charge may be funded by several
// payments; the sum of a payment's allocations never exceeds its amount.
type PaymentAllocation struct {
	ID              int       `json:"id"`
	PaymentID       int       `json:"payment_id"`
	ChargeID        int       `json:"charge_id"`
	AllocatedAmount float64   `json:"allocated_amount"`
	CreatedAt       time.Time `json:"created_at"`
}
