package repositories

import (
	"context"
	"fmt"

	"fnh-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditLogRepository struct {
	DB *pgxpool.Pool
}

func NewAuditLogRepository(db *pgxpool.Pool) *AuditLogRepository {
	return &AuditLogRepository{DB: db}
}

// Append writes one audit entry. The audit sink calls it
// asynchronously, outside the financial transaction.
func (r *AuditLogRepository) Append(ctx context.Context, entry *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (correlation_id, user_id, user_name, action_type, target_type,
		                        target_id, description, amount, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err := r.DB.QueryRow(ctx, query,
		entry.CorrelationID, entry.UserID, entry.UserName, entry.ActionType, entry.TargetType,
		entry.TargetID, entry.Description, entry.Amount, entry.IPAddress,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append audit log: %w", err)
	}
	return nil
}

// List returns audit entries newest first, optionally filtered by
// action and target type.
func (r *AuditLogRepository) List(ctx context.Context, actionType, targetType string, limit, offset int) ([]*models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, correlation_id, user_id, user_name, action_type, target_type,
		       target_id, description, amount, ip_address, created_at
		FROM audit_logs
		WHERE ($1 = '' OR action_type = $1)
		  AND ($2 = '' OR target_type = $2)
		ORDER BY id DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.DB.Query(ctx, query, actionType, targetType, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.AuditLog
	for rows.Next() {
		e := &models.AuditLog{}
		if err := rows.Scan(&e.ID, &e.CorrelationID, &e.UserID, &e.UserName, &e.ActionType,
			&e.TargetType, &e.TargetID, &e.Description, &e.Amount, &e.IPAddress, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
