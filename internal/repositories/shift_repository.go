package repositories

import (
	"context"
	"fmt"
	"time"

	"fnh-backend/internal/apperrors"
	"fnh-backend/internal/database"
	"fnh-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ShiftRepository struct {
	DB *pgxpool.Pool
}

func NewShiftRepository(db *pgxpool.Pool) *ShiftRepository {
	return &ShiftRepository{DB: db}
}

const shiftColumns = `s.id, s.operator_id, COALESCE(u.name, ''), s.status, s.opening_cash,
	       s.system_cash, s.total_collected, s.total_refunded, s.declared_cash, s.deviation,
	       s.opened_at, s.closed_at`

func scanShift(row pgx.Row) (*models.Shift, error) {
	s := &models.Shift{}
	err := row.Scan(&s.ID, &s.OperatorID, &s.OperatorName, &s.Status, &s.OpeningCash,
		&s.SystemCash, &s.TotalCollected, &s.TotalRefunded, &s.DeclaredCash, &s.Deviation,
		&s.OpenedAt, &s.ClosedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// EnsureActive returns the operator's open shift, atomically opening a
// new one if none exists. The partial unique index on
// (operator_id) WHERE status = 'open' makes this race-safe: of two
// near-simultaneous calls, one insert wins and the other falls through
// to the select.
func (r *ShiftRepository) EnsureActive(ctx context.Context, q database.Querier, operatorID int) (*models.Shift, error) {
	_, err := q.Exec(ctx, `
		INSERT INTO shifts (operator_id, status, opening_cash, system_cash, total_collected, total_refunded)
		VALUES ($1, 'open', 0, 0, 0, 0)
		ON CONFLICT (operator_id) WHERE status = 'open' DO NOTHING
	`, operatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure shift for operator %d: %w", operatorID, err)
	}

	shift, err := scanShift(q.QueryRow(ctx, `
		SELECT `+shiftColumns+`
		FROM shifts s
		LEFT JOIN users u ON u.id = s.operator_id
		WHERE s.operator_id = $1 AND s.status = 'open'
	`, operatorID))
	if err != nil {
		return nil, fmt.Errorf("failed to load open shift for operator %d: %w", operatorID, err)
	}
	return shift, nil
}

// Get returns a shift by ID.
func (r *ShiftRepository) Get(ctx context.Context, id int) (*models.Shift, error) {
	shift, err := scanShift(r.DB.QueryRow(ctx, `
		SELECT `+shiftColumns+`
		FROM shifts s
		LEFT JOIN users u ON u.id = s.operator_id
		WHERE s.id = $1
	`, id))
	if err == pgx.ErrNoRows {
		return nil, apperrors.NotFoundf("shift %d", id)
	}
	return shift, err
}

// ApplyCashDelta moves cash on an open shift in one atomic statement:
// collectedDelta raises system cash and total collected, refundedDelta
// lowers system cash and raises total refunded. Zero rows affected
// means the shift has been closed in the meantime.
func (r *ShiftRepository) ApplyCashDelta(ctx context.Context, q database.Querier, shiftID int, collectedDelta, refundedDelta float64) error {
	tag, err := q.Exec(ctx, `
		UPDATE shifts
		SET system_cash     = system_cash + $2 - $3,
		    total_collected = total_collected + $2,
		    total_refunded  = total_refunded + $3
		WHERE id = $1 AND status = 'open'
	`, shiftID, collectedDelta, refundedDelta)
	if err != nil {
		return fmt.Errorf("failed to apply cash delta to shift %d: %w", shiftID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: shift %d", apperrors.ErrShiftClosed, shiftID)
	}
	return nil
}

// ReverseCollections decrements system cash and total collected on a
// shift during a cascading reversal, regardless of whether the shift is
// still open. History must stay reversible after the shift closes.
func (r *ShiftRepository) ReverseCollections(ctx context.Context, q database.Querier, shiftID int, amount float64) error {
	if _, err := q.Exec(ctx, `
		UPDATE shifts
		SET system_cash = system_cash - $2, total_collected = total_collected - $2
		WHERE id = $1
	`, shiftID, amount); err != nil {
		return fmt.Errorf("failed to reverse collections on shift %d: %w", shiftID, err)
	}
	return nil
}

// ReverseRefunds puts refunded cash back on a shift's counters when
// the refund itself is being reversed along with its record.
func (r *ShiftRepository) ReverseRefunds(ctx context.Context, q database.Querier, shiftID int, amount float64) error {
	if _, err := q.Exec(ctx, `
		UPDATE shifts
		SET system_cash = system_cash + $2, total_refunded = total_refunded - $2
		WHERE id = $1
	`, shiftID, amount); err != nil {
		return fmt.Errorf("failed to reverse refunds on shift %d: %w", shiftID, err)
	}
	return nil
}

// Close finishes a shift, recording the declared cash count and the
// deviation from the system figure. Closing is terminal.
func (r *ShiftRepository) Close(ctx context.Context, shiftID int, declaredCash float64) (*models.Shift, error) {
	var closedAt time.Time
	err := r.DB.QueryRow(ctx, `
		UPDATE shifts
		SET status = 'closed', declared_cash = $2, deviation = $2 - system_cash, closed_at = NOW()
		WHERE id = $1 AND status = 'open'
		RETURNING closed_at
	`, shiftID, declaredCash).Scan(&closedAt)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("%w: shift %d", apperrors.ErrShiftClosed, shiftID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to close shift %d: %w", shiftID, err)
	}
	return r.Get(ctx, shiftID)
}

// ListForDay returns all shifts opened on the given day, for the daily
// cash report.
func (r *ShiftRepository) ListForDay(ctx context.Context, dayStart, dayEnd time.Time) ([]*models.Shift, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+shiftColumns+`
		FROM shifts s
		LEFT JOIN users u ON u.id = s.operator_id
		WHERE s.opened_at >= $1 AND s.opened_at <= $2
		ORDER BY s.opened_at
	`, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shifts []*models.Shift
	for rows.Next() {
		s := &models.Shift{}
		if err := rows.Scan(&s.ID, &s.OperatorID, &s.OperatorName, &s.Status, &s.OpeningCash,
			&s.SystemCash, &s.TotalCollected, &s.TotalRefunded, &s.DeclaredCash, &s.Deviation,
			&s.OpenedAt, &s.ClosedAt); err != nil {
			return nil, err
		}
		shifts = append(shifts, s)
	}
	return shifts, rows.Err()
}
