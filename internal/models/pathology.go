package models

import "time"

type PathologyOrder struct {
	ID              int              `json:"id"`
	RegNumber       string           `json:"reg_number"`
	PatientID       int              `json:"patient_id"`
	PatientName     string           `json:"patient_name"` // denormalized for historical record
	ReferredBy      string           `json:"referred_by"`
	SampleDate      time.Time        `json:"sample_date"`
	DeliveryDate    *time.Time       `json:"delivery_date,omitempty"`
	Tests           []*PathologyTest `json:"tests,omitempty"`
	CreatedByUserID int              `json:"created_by_user_id"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// PathologyTest is one ordered test line within an order.
type PathologyTest struct {
	ID       int     `json:"id"`
	OrderID  int     `json:"order_id"`
	TestName string  `json:"test_name"`
	Fee      float64 `json:"fee"`
}

// PathologyData is the clinical portion of a pathology order request.
// The ordered tests double as the charge line items.
type PathologyData struct {
	ReferredBy   string `json:"referred_by"`
	SampleDate   string `json:"sample_date"`   // YYYY-MM-DD, defaults to today
	DeliveryDate string `json:"delivery_date"` // optional
}

type CreatePathologyOrderRequest struct {
	Patient    PatientData   `json:"patient"`
	Clinical   PathologyData `json:"clinical"`
	Financials FinancialData `json:"financials"`
}

type EditPathologyOrderRequest struct {
	Clinical   PathologyData `json:"clinical"`
	Financials FinancialData `json:"financials"`
}
