package models

import "time"

type Patient struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Age          int       `json:"age"`
	Gender       string    `json:"gender"` // 'male', 'female', 'other'
	GuardianName string    `json:"guardian_name"`
	Address      string    `json:"address"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PatientData is the patient portion of a billable-record request.
// Existing patients are matched by ID, then by phone; demographics are
// refreshed on every encounter.
type PatientData struct {
	PatientID    int    `json:"patient_id,omitempty"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Age          int    `json:"age"`
	Gender       string `json:"gender"`
	GuardianName string `json:"guardian_name"`
	Address      string `json:"address"`
}
