package repositories

import (
	"context"
	"fmt"

	"fnh-backend/internal/database"
	"fnh-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CashMovementRepository struct {
	DB *pgxpool.Pool
}

func NewCashMovementRepository(db *pgxpool.Pool) *CashMovementRepository {
	return &CashMovementRepository{DB: db}
}

// Append adds one entry to a shift's cash trail. The trail is
// append-only; entries are removed only by a cascading reversal of the
// payment they belong to.
func (r *CashMovementRepository) Append(ctx context.Context, q database.Querier, m *models.CashMovement) error {
	query := `
		INSERT INTO cash_movements (shift_id, movement_type, amount, payment_id, charge_id, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := q.QueryRow(ctx, query,
		m.ShiftID, m.MovementType, m.Amount, m.PaymentID, m.ChargeID, m.Description,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append cash movement: %w", err)
	}
	return nil
}

// ListByShift returns a shift's cash trail in insertion order.
func (r *CashMovementRepository) ListByShift(ctx context.Context, shiftID int) ([]*models.CashMovement, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, shift_id, movement_type, amount, payment_id, charge_id, COALESCE(description, ''), created_at
		FROM cash_movements
		WHERE shift_id = $1
		ORDER BY id
	`, shiftID)
	if err != nil {
		return nil, err
	}
	return scanCashMovements(rows)
}

// ListByChargeIDs returns the refund movements recorded against the
// given charges, for un-applying them during a cascading reversal.
func (r *CashMovementRepository) ListByChargeIDs(ctx context.Context, q database.Querier, chargeIDs []int) ([]*models.CashMovement, error) {
	rows, err := q.Query(ctx, `
		SELECT id, shift_id, movement_type, amount, payment_id, charge_id, COALESCE(description, ''), created_at
		FROM cash_movements
		WHERE charge_id = ANY($1)
		ORDER BY id
	`, chargeIDs)
	if err != nil {
		return nil, err
	}
	return scanCashMovements(rows)
}

// DeleteByChargeIDs removes refund movements for charges being
// reversed, after their shift effect has been un-applied.
func (r *CashMovementRepository) DeleteByChargeIDs(ctx context.Context, q database.Querier, chargeIDs []int) error {
	if len(chargeIDs) == 0 {
		return nil
	}
	if _, err := q.Exec(ctx, `DELETE FROM cash_movements WHERE charge_id = ANY($1)`, chargeIDs); err != nil {
		return fmt.Errorf("failed to delete cash movements: %w", err)
	}
	return nil
}

// DeleteByPaymentIDs removes the movements tied to payments being
// reversed. Refund movements not linked to a reversed payment or
// charge stay in the trail.
func (r *CashMovementRepository) DeleteByPaymentIDs(ctx context.Context, q database.Querier, paymentIDs []int) error {
	if len(paymentIDs) == 0 {
		return nil
	}
	if _, err := q.Exec(ctx, `DELETE FROM cash_movements WHERE payment_id = ANY($1)`, paymentIDs); err != nil {
		return fmt.Errorf("failed to delete cash movements: %w", err)
	}
	return nil
}

func scanCashMovements(rows pgx.Rows) ([]*models.CashMovement, error) {
	defer rows.Close()
	var movements []*models.CashMovement
	for rows.Next() {
		m := &models.CashMovement{}
		err := rows.Scan(&m.ID, &m.ShiftID, &m.MovementType, &m.Amount, &m.PaymentID, &m.ChargeID, &m.Description, &m.CreatedAt)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}
