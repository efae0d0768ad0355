package repositories

import (
	"context"
	"fmt"

	"fnh-backend/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RegCounterRepository hands out the per-department, per-year sequence
// numbers behind the human-readable registration numbers.
type RegCounterRepository struct {
	DB *pgxpool.Pool
}

func NewRegCounterRepository(db *pgxpool.Pool) *RegCounterRepository {
	return &RegCounterRepository{DB: db}
}

// Next increments and returns the counter for (deptCode, yearTwoDigit).
// The upsert makes the first draw of a new year implicit.
func (r *RegCounterRepository) Next(ctx context.Context, q database.Querier, deptCode string, yearTwoDigit int) (int, error) {
	var seq int
	err := q.QueryRow(ctx, `
		INSERT INTO reg_counters (dept_code, year_two_digit, last_seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (dept_code, year_two_digit)
		DO UPDATE SET last_seq = reg_counters.last_seq + 1
		RETURNING last_seq
	`, deptCode, yearTwoDigit).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to draw registration number for %s/%02d: %w", deptCode, yearTwoDigit, err)
	}
	return seq, nil
}
