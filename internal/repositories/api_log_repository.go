package repositories

import (
	"context"

	"fnh-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type APILogRepository struct {
	DB *pgxpool.Pool
}

func NewAPILogRepository(db *pgxpool.Pool) *APILogRepository {
	return &APILogRepository{DB: db}
}

func (r *APILogRepository) InsertAPILog(ctx context.Context, entry *models.APIRequestLog) error {
	query := `
		INSERT INTO api_request_logs (time, method, path, status_code, duration_ms,
		                              request_size, response_size, user_id, user_role,
		                              ip_address, user_agent, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.DB.Exec(ctx, query,
		entry.Time, entry.Method, entry.Path, entry.StatusCode, entry.DurationMs,
		entry.RequestSize, entry.ResponseSize, entry.UserID, entry.UserRole,
		entry.IPAddress, entry.UserAgent, entry.ErrorMessage,
	)
	return err
}

// Cleanup drops request logs older than the retention window. The
// monitoring server runs this once a day.
func (r *APILogRepository) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	tag, err := r.DB.Exec(ctx,
		`DELETE FROM api_request_logs WHERE time < NOW() - ($1 || ' days')::interval`,
		retentionDays)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// SlowRequests returns the slowest logged requests in the window, for
// the monitoring dashboard.
func (r *APILogRepository) SlowRequests(ctx context.Context, since string, limit int) ([]*models.APIRequestLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT time, method, path, status_code, duration_ms, request_size,
		       response_size, user_id, user_role, ip_address, user_agent, error_message
		FROM api_request_logs
		WHERE time > NOW() - $1::interval
		ORDER BY duration_ms DESC
		LIMIT $2
	`

	rows, err := r.DB.Query(ctx, query, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.APIRequestLog
	for rows.Next() {
		e := &models.APIRequestLog{}
		if err := rows.Scan(&e.Time, &e.Method, &e.Path, &e.StatusCode, &e.DurationMs,
			&e.RequestSize, &e.ResponseSize, &e.UserID, &e.UserRole,
			&e.IPAddress, &e.UserAgent, &e.ErrorMessage); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
