package models

import "time"

// Admission statuses. Cancel and restore are ordinary edits with
// extreme financial deltas; see services.BillingService.
const (
	AdmissionAdmitted   = "admitted"
	AdmissionDischarged = "discharged"
	AdmissionCanceled   = "canceled"
)

type Admission struct {
	ID              int       `json:"id"`
	RegNumber       string    `json:"reg_number"`
	PatientID       int       `json:"patient_id"`
	PatientName     string    `json:"patient_name"` // denormalized for historical record
	Status          string    `json:"status"`
	Ward            string    `json:"ward"`
	BedNumber       string    `json:"bed_number"`
	ReferredBy      string    `json:"referred_by"`
	Diagnosis       string    `json:"diagnosis"`
	AdmissionDate   time.Time `json:"admission_date"`
	CreatedByUserID int       `json:"created_by_user_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AdmissionData is the clinical portion of an admission request.
type AdmissionData struct {
	Ward          string `json:"ward"`
	BedNumber     string `json:"bed_number"`
	ReferredBy    string `json:"referred_by"`
	Diagnosis     string `json:"diagnosis"`
	AdmissionDate string `json:"admission_date"` // YYYY-MM-DD, defaults to today
}

// CreateAdmissionRequest bundles patient, clinical and financial data
// for one atomic create.
type CreateAdmissionRequest struct {
	Patient    PatientData   `json:"patient"`
	Clinical   AdmissionData `json:"clinical"`
	Financials FinancialData `json:"financials"`
}

// EditAdmissionRequest re-states the clinical and financial data; the
// billing engine settles the difference against the existing charge.
// Status drives the cancel/restore transitions.
type EditAdmissionRequest struct {
	Status     string        `json:"status"`
	Clinical   AdmissionData `json:"clinical"`
	Financials FinancialData `json:"financials"`
}
