package repositories

import (
	"context"
	"fmt"

	"fnh-backend/internal/apperrors"
	"fnh-backend/internal/database"
	"fnh-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AccountRepository struct {
	DB *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{DB: db}
}

// ApplyDeltas applies signed charge/paid deltas to a patient account in
// one atomic statement. The due delta is always chargeDelta - paidDelta,
// applied in the same step; the totals are never re-read and recomputed
// in application code. First touch creates the account row.
func (r *AccountRepository) ApplyDeltas(ctx context.Context, q database.Querier, patientID int, chargeDelta, paidDelta float64) error {
	query := `
		INSERT INTO accounts (patient_id, total_charges, total_paid, total_due)
		VALUES ($1, $2, $3, $2 - $3)
		ON CONFLICT (patient_id) DO UPDATE SET
			total_charges = accounts.total_charges + EXCLUDED.total_charges,
			total_paid    = accounts.total_paid    + EXCLUDED.total_paid,
			total_due     = accounts.total_due     + EXCLUDED.total_due,
			updated_at    = NOW()
	`

	if _, err := q.Exec(ctx, query, patientID, chargeDelta, paidDelta); err != nil {
		return fmt.Errorf("failed to apply account deltas for patient %d: %w", patientID, err)
	}
	return nil
}

// GetByPatient returns the account for a patient, or NotFound if the
// patient has never been charged.
func (r *AccountRepository) GetByPatient(ctx context.Context, patientID int) (*models.Account, error) {
	query := `
		SELECT id, patient_id, total_charges, total_paid, total_due, created_at, updated_at
		FROM accounts
		WHERE patient_id = $1
	`

	a := &models.Account{}
	err := r.DB.QueryRow(ctx, query, patientID).Scan(
		&a.ID, &a.PatientID, &a.TotalCharges, &a.TotalPaid, &a.TotalDue, &a.CreatedAt, &a.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, apperrors.NotFoundf("account for patient %d", patientID)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Reconcile recomputes every account's totals from the charge and
// allocation rows and reports rows whose running totals drifted. This
// is the verification path only; the hot path never rescans.
func (r *AccountRepository) Reconcile(ctx context.Context) ([]*models.ReconciliationRow, error) {
	query := `
		SELECT a.patient_id, p.name,
		       a.total_charges, a.total_paid, a.total_due,
		       COALESCE(c.sum_charges, 0) AS recomputed_charges,
		       COALESCE(pa.sum_paid, 0) AS recomputed_paid
		FROM accounts a
		JOIN patients p ON p.id = a.patient_id
		LEFT JOIN (
			SELECT patient_id, SUM(final_amount) AS sum_charges
			FROM charges GROUP BY patient_id
		) c ON c.patient_id = a.patient_id
		LEFT JOIN (
			SELECT c.patient_id, SUM(al.allocated_amount) AS sum_paid
			FROM payment_allocations al
			JOIN charges c ON c.id = al.charge_id
			GROUP BY c.patient_id
		) pa ON pa.patient_id = a.patient_id
		ORDER BY a.patient_id
	`

	rows, err := r.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*models.ReconciliationRow
	for rows.Next() {
		row := &models.ReconciliationRow{}
		err := rows.Scan(&row.PatientID, &row.PatientName,
			&row.TotalCharges, &row.TotalPaid, &row.TotalDue,
			&row.RecomputedCharges, &row.RecomputedPaid)
		if err != nil {
			return nil, err
		}
		row.ChargesDrift = row.TotalCharges - row.RecomputedCharges
		row.PaidDrift = row.TotalPaid - row.RecomputedPaid
		result = append(result, row)
	}
	return result, rows.Err()
}
