package models

import "time"

const (
	ShiftOpen   = "open"
	ShiftClosed = "closed"
)

// Shift is one cashier session. All cash movements are attributed to
// exactly one open shift; a partial unique index guarantees at most one
// open shift per operator.
type Shift struct {
	ID             int        `json:"id"`
	OperatorID     int        `json:"operator_id"`
	OperatorName   string     `json:"operator_name,omitempty"` // joined from users
	Status         string     `json:"status"`
	OpeningCash    float64    `json:"opening_cash"`
	SystemCash     float64    `json:"system_cash"`
	TotalCollected float64    `json:"total_collected"`
	TotalRefunded  float64    `json:"total_refunded"`
	DeclaredCash   *float64   `json:"declared_cash,omitempty"` // counted by the cashier on close
	Deviation      *float64   `json:"deviation,omitempty"`     // declared - system, set on close
	OpenedAt       time.Time  `json:"opened_at"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
}

// Movement types in a shift's cash trail.
const (
	MovementCollection = "COLLECTION"
	MovementRefund     = "REFUND"
)

// CashMovement is an append-only entry in a shift's cash trail.
// Collections always link to the originating payment; refunds may be
// standalone corrections and link to the affected charge instead.
type CashMovement struct {
	ID           int       `json:"id"`
	ShiftID      int       `json:"shift_id"`
	MovementType string    `json:"movement_type"`
	Amount       float64   `json:"amount"`
	PaymentID    *int      `json:"payment_id,omitempty"`
	ChargeID     *int      `json:"charge_id,omitempty"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
}

// ShiftSummary is the close-of-shift view: the shift row plus its trail.
type ShiftSummary struct {
	Shift     *Shift          `json:"shift"`
	Movements []*CashMovement `json:"movements"`
}

// CloseShiftRequest carries the cash counted by the cashier.
type CloseShiftRequest struct {
	DeclaredCash float64 `json:"declared_cash"`
	Notes        string  `json:"notes"`
}
