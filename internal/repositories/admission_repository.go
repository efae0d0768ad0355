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

type AdmissionRepository struct {
	DB *pgxpool.Pool
}

func NewAdmissionRepository(db *pgxpool.Pool) *AdmissionRepository {
	return &AdmissionRepository{DB: db}
}

const admissionColumns = `id, reg_number, patient_id, patient_name, status, ward, bed_number,
	       referred_by, diagnosis, admission_date, created_by_user_id, created_at, updated_at`

func scanAdmission(row pgx.Row) (*models.Admission, error) {
	a := &models.Admission{}
	err := row.Scan(&a.ID, &a.RegNumber, &a.PatientID, &a.PatientName, &a.Status, &a.Ward,
		&a.BedNumber, &a.ReferredBy, &a.Diagnosis, &a.AdmissionDate,
		&a.CreatedByUserID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts an admission with its pre-generated registration number.
func (r *AdmissionRepository) Create(ctx context.Context, q database.Querier, a *models.Admission) error {
	query := `
		INSERT INTO admissions (reg_number, patient_id, patient_name, status, ward, bed_number,
		                        referred_by, diagnosis, admission_date, created_by_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		a.RegNumber, a.PatientID, a.PatientName, a.Status, a.Ward, a.BedNumber,
		a.ReferredBy, a.Diagnosis, a.AdmissionDate, a.CreatedByUserID,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create admission: %w", err)
	}
	return nil
}

// Get returns an admission by ID.
func (r *AdmissionRepository) Get(ctx context.Context, q database.Querier, id int) (*models.Admission, error) {
	a, err := scanAdmission(q.QueryRow(ctx, `SELECT `+admissionColumns+` FROM admissions WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, apperrors.NotFoundf("admission %d", id)
	}
	return a, err
}

// Update rewrites the clinical fields and status of an admission.
func (r *AdmissionRepository) Update(ctx context.Context, q database.Querier, a *models.Admission) error {
	tag, err := q.Exec(ctx, `
		UPDATE admissions
		SET status = $2, ward = $3, bed_number = $4, referred_by = $5, diagnosis = $6,
		    admission_date = $7, updated_at = NOW()
		WHERE id = $1
	`, a.ID, a.Status, a.Ward, a.BedNumber, a.ReferredBy, a.Diagnosis, a.AdmissionDate)
	if err != nil {
		return fmt.Errorf("failed to update admission %d: %w", a.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFoundf("admission %d", a.ID)
	}
	return nil
}

// Delete removes the admission row. The billing engine has already
// reversed the financials by the time this runs.
func (r *AdmissionRepository) Delete(ctx context.Context, q database.Querier, id int) error {
	if _, err := q.Exec(ctx, `DELETE FROM admissions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete admission %d: %w", id, err)
	}
	return nil
}

// List returns admissions newest first, optionally filtered by status.
func (r *AdmissionRepository) List(ctx context.Context, status string, limit, offset int) ([]*models.Admission, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `SELECT ` + admissionColumns + ` FROM admissions`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY id DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admissions []*models.Admission
	for rows.Next() {
		a := &models.Admission{}
		if err := rows.Scan(&a.ID, &a.RegNumber, &a.PatientID, &a.PatientName, &a.Status, &a.Ward,
			&a.BedNumber, &a.ReferredBy, &a.Diagnosis, &a.AdmissionDate,
			&a.CreatedByUserID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		admissions = append(admissions, a)
	}
	return admissions, rows.Err()
}
