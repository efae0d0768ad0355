package repositories

import (
	"context"
	"fmt"

	"fnh-backend/internal/apperrors"
	"fnh-backend/internal/database"
	"fnh-backend/internal/models"
	"fnh-backend/internal/regnum"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository struct {
	DB *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{DB: db}
}

// NextReceiptNumber draws the next receipt number from the database
// sequence. O(1), and gap-tolerant across rolled-back transactions.
func (r *PaymentRepository) NextReceiptNumber(ctx context.Context, q database.Querier) (string, error) {
	var next int
	if err := q.QueryRow(ctx, "SELECT nextval('receipt_number_seq')").Scan(&next); err != nil {
		return "", fmt.Errorf("failed to get next receipt number: %w", err)
	}
	return regnum.Receipt(next), nil
}

// Create inserts a payment row. Payments are immutable after this.
func (r *PaymentRepository) Create(ctx context.Context, q database.Querier, p *models.Payment) error {
	query := `
		INSERT INTO payments (receipt_number, patient_id, amount, method, shift_id, collected_by_user_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := q.QueryRow(ctx, query,
		p.ReceiptNumber, p.PatientID, p.Amount, p.Method, p.ShiftID, p.CollectedByID, p.Notes,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

const paymentColumns = `p.id, p.receipt_number, p.patient_id, p.amount, p.method, p.shift_id,
	       p.collected_by_user_id, COALESCE(u.name, 'System'), COALESCE(p.notes, ''), p.created_at`

func (r *PaymentRepository) scanPayments(rows pgx.Rows) ([]*models.Payment, error) {
	defer rows.Close()
	var payments []*models.Payment
	for rows.Next() {
		p := &models.Payment{}
		err := rows.Scan(&p.ID, &p.ReceiptNumber, &p.PatientID, &p.Amount, &p.Method,
			&p.ShiftID, &p.CollectedByID, &p.CollectedByName, &p.Notes, &p.CreatedAt)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// ListByPatient returns a patient's payments, newest first.
func (r *PaymentRepository) ListByPatient(ctx context.Context, patientID int) ([]*models.Payment, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments p
		LEFT JOIN users u ON u.id = p.collected_by_user_id
		WHERE p.patient_id = $1
		ORDER BY p.id DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	return r.scanPayments(rows)
}

// ListByChargeIDs returns the payments funding any of the given charges,
// resolved through the allocations. Used by the cascading reversal.
func (r *PaymentRepository) ListByChargeIDs(ctx context.Context, q database.Querier, chargeIDs []int) ([]*models.Payment, error) {
	rows, err := q.Query(ctx, `
		SELECT DISTINCT `+paymentColumns+`
		FROM payments p
		JOIN payment_allocations al ON al.payment_id = p.id
		LEFT JOIN users u ON u.id = p.collected_by_user_id
		WHERE al.charge_id = ANY($1)
		ORDER BY p.id
	`, chargeIDs)
	if err != nil {
		return nil, err
	}
	return r.scanPayments(rows)
}

// GetByReceiptNumber looks a payment up for receipt verification.
func (r *PaymentRepository) GetByReceiptNumber(ctx context.Context, receiptNumber string) (*models.Payment, error) {
	p := &models.Payment{}
	err := r.DB.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments p
		LEFT JOIN users u ON u.id = p.collected_by_user_id
		WHERE p.receipt_number = $1
	`, receiptNumber).Scan(&p.ID, &p.ReceiptNumber, &p.PatientID, &p.Amount, &p.Method,
		&p.ShiftID, &p.CollectedByID, &p.CollectedByName, &p.Notes, &p.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, apperrors.NotFoundf("receipt %s", receiptNumber)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteByIDs removes payment rows during a cascading reversal. The
// shift counters must already have been decremented while the amounts
// were still readable.
func (r *PaymentRepository) DeleteByIDs(ctx context.Context, q database.Querier, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := q.Exec(ctx, `DELETE FROM payments WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("failed to delete payments: %w", err)
	}
	return nil
}
