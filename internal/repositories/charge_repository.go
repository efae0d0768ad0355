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

type ChargeRepository struct {
	DB *pgxpool.Pool
}

func NewChargeRepository(db *pgxpool.Pool) *ChargeRepository {
	return &ChargeRepository{DB: db}
}

const chargeColumns = `id, patient_id, ref_type, ref_id, description, original_amount, discount_amount, final_amount, created_at, updated_at`

func scanCharge(row pgx.Row) (*models.Charge, error) {
	c := &models.Charge{}
	err := row.Scan(&c.ID, &c.PatientID, &c.Ref.Type, &c.Ref.ID, &c.Description,
		&c.OriginalAmount, &c.DiscountAmount, &c.FinalAmount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a charge referencing one clinical record.
func (r *ChargeRepository) Create(ctx context.Context, q database.Querier, c *models.Charge) error {
	query := `
		INSERT INTO charges (patient_id, ref_type, ref_id, description, original_amount, discount_amount, final_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		c.PatientID, c.Ref.Type, c.Ref.ID, c.Description,
		c.OriginalAmount, c.DiscountAmount, c.FinalAmount,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create charge: %w", err)
	}
	return nil
}

// UpdateAmounts rewrites the stored amounts after an edit settles.
func (r *ChargeRepository) UpdateAmounts(ctx context.Context, q database.Querier, id int, original, discount, final float64) error {
	tag, err := q.Exec(ctx, `
		UPDATE charges
		SET original_amount = $2, discount_amount = $3, final_amount = $4, updated_at = NOW()
		WHERE id = $1
	`, id, original, discount, final)
	if err != nil {
		return fmt.Errorf("failed to update charge %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFoundf("charge %d", id)
	}
	return nil
}

// GetByRef returns the charge billing the given clinical record.
func (r *ChargeRepository) GetByRef(ctx context.Context, q database.Querier, ref models.ChargeRef) (*models.Charge, error) {
	c, err := scanCharge(q.QueryRow(ctx,
		`SELECT `+chargeColumns+` FROM charges WHERE ref_type = $1 AND ref_id = $2`, ref.Type, ref.ID))
	if err == pgx.ErrNoRows {
		return nil, apperrors.NotFoundf("charge for %s %d", ref.Type, ref.ID)
	}
	return c, err
}

// ListByRef returns all charges billing the given clinical record.
// Each record normally carries exactly one; deletion still walks the
// whole list.
func (r *ChargeRepository) ListByRef(ctx context.Context, q database.Querier, ref models.ChargeRef) ([]*models.Charge, error) {
	rows, err := q.Query(ctx,
		`SELECT `+chargeColumns+` FROM charges WHERE ref_type = $1 AND ref_id = $2 ORDER BY id`, ref.Type, ref.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var charges []*models.Charge
	for rows.Next() {
		c := &models.Charge{}
		if err := rows.Scan(&c.ID, &c.PatientID, &c.Ref.Type, &c.Ref.ID, &c.Description,
			&c.OriginalAmount, &c.DiscountAmount, &c.FinalAmount, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		charges = append(charges, c)
	}
	return charges, rows.Err()
}

// ListByPatient returns a patient's charges, newest first.
func (r *ChargeRepository) ListByPatient(ctx context.Context, patientID int) ([]*models.Charge, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+chargeColumns+` FROM charges WHERE patient_id = $1 ORDER BY id DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var charges []*models.Charge
	for rows.Next() {
		c := &models.Charge{}
		if err := rows.Scan(&c.ID, &c.PatientID, &c.Ref.Type, &c.Ref.ID, &c.Description,
			&c.OriginalAmount, &c.DiscountAmount, &c.FinalAmount, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		charges = append(charges, c)
	}
	return charges, rows.Err()
}

// Delete removes a charge row. Allocations must be deleted first.
func (r *ChargeRepository) Delete(ctx context.Context, q database.Querier, id int) error {
	if _, err := q.Exec(ctx, `DELETE FROM charges WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete charge %d: %w", id, err)
	}
	return nil
}
