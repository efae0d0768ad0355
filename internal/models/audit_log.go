package models

import "time"

// AuditLog is an append-only record of every financial operation.
// Writes go through the async audit sink; a failed write never blocks
// the financial transaction.
type AuditLog struct {
	ID            int       `json:"id"`
	CorrelationID string    `json:"correlation_id"` // uuid, groups entries from one request
	UserID        int       `json:"user_id"`
	UserName      string    `json:"user_name"`
	ActionType    string    `json:"action_type"` // 'create', 'edit', 'delete', 'sell', 'cancel', 'restore'
	TargetType    string    `json:"target_type"` // 'admission', 'pathology_order', 'medicine_sale', 'shift'
	TargetID      *int      `json:"target_id,omitempty"`
	Description   string    `json:"description"`
	Amount        float64   `json:"amount"`
	IPAddress     *string   `json:"ip_address,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
