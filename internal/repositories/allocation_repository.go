package repositories

import (
	"context"
	"fmt"

	"fnh-backend/internal/database"
	"fnh-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AllocationRepository struct {
	DB *pgxpool.Pool
}

func NewAllocationRepository(db *pgxpool.Pool) *AllocationRepository {
	return &AllocationRepository{DB: db}
}

// Create links a payment to the charge it funds.
func (r *AllocationRepository) Create(ctx context.Context, q database.Querier, a *models.PaymentAllocation) error {
	query := `
		INSERT INTO payment_allocations (payment_id, charge_id, allocated_amount)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := q.QueryRow(ctx, query, a.PaymentID, a.ChargeID, a.AllocatedAmount).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create allocation: %w", err)
	}
	return nil
}

// ListByChargeIDs returns all allocations funding the given charges.
func (r *AllocationRepository) ListByChargeIDs(ctx context.Context, q database.Querier, chargeIDs []int) ([]*models.PaymentAllocation, error) {
	rows, err := q.Query(ctx, `
		SELECT id, payment_id, charge_id, allocated_amount, created_at
		FROM payment_allocations
		WHERE charge_id = ANY($1)
		ORDER BY id
	`, chargeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var allocations []*models.PaymentAllocation
	for rows.Next() {
		a := &models.PaymentAllocation{}
		if err := rows.Scan(&a.ID, &a.PaymentID, &a.ChargeID, &a.AllocatedAmount, &a.CreatedAt); err != nil {
			return nil, err
		}
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}

// ListByPayment returns a payment's allocations.
func (r *AllocationRepository) ListByPayment(ctx context.Context, paymentID int) ([]*models.PaymentAllocation, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, payment_id, charge_id, allocated_amount, created_at
		FROM payment_allocations
		WHERE payment_id = $1
		ORDER BY id
	`, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var allocations []*models.PaymentAllocation
	for rows.Next() {
		a := &models.PaymentAllocation{}
		if err := rows.Scan(&a.ID, &a.PaymentID, &a.ChargeID, &a.AllocatedAmount, &a.CreatedAt); err != nil {
			return nil, err
		}
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}

// UpdateAmount rewrites an allocation's amount after a partial refund.
func (r *AllocationRepository) UpdateAmount(ctx context.Context, q database.Querier, id int, amount float64) error {
	if _, err := q.Exec(ctx, `UPDATE payment_allocations SET allocated_amount = $2 WHERE id = $1`, id, amount); err != nil {
		return fmt.Errorf("failed to update allocation %d: %w", id, err)
	}
	return nil
}

// Delete removes one allocation fully consumed by a refund.
func (r *AllocationRepository) Delete(ctx context.Context, q database.Querier, id int) error {
	if _, err := q.Exec(ctx, `DELETE FROM payment_allocations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete allocation %d: %w", id, err)
	}
	return nil
}

// DeleteByChargeIDs removes allocations first in a cascading reversal;
// they depend on both the payment and the charge rows.
func (r *AllocationRepository) DeleteByChargeIDs(ctx context.Context, q database.Querier, chargeIDs []int) error {
	if len(chargeIDs) == 0 {
		return nil
	}
	if _, err := q.Exec(ctx, `DELETE FROM payment_allocations WHERE charge_id = ANY($1)`, chargeIDs); err != nil {
		return fmt.Errorf("failed to delete allocations: %w", err)
	}
	return nil
}
