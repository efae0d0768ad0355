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

type PatientRepository struct {
	DB *pgxpool.Pool
}

func NewPatientRepository(db *pgxpool.Pool) *PatientRepository {
	return &PatientRepository{DB: db}
}

const patientColumns = `id, name, phone, age, gender, guardian_name, address, created_at, updated_at`

func scanPatient(row pgx.Row) (*models.Patient, error) {
	p := &models.Patient{}
	err := row.Scan(&p.ID, &p.Name, &p.Phone, &p.Age, &p.Gender, &p.GuardianName, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Upsert finds the patient by ID, then by phone, and creates one if
// neither matches. Demographics are refreshed on every encounter so the
// latest front-desk data wins.
func (r *PatientRepository) Upsert(ctx context.Context, q database.Querier, data *models.PatientData) (*models.Patient, error) {
	if data.PatientID > 0 {
		patient, err := r.get(ctx, q, data.PatientID)
		if err == nil {
			return r.refresh(ctx, q, patient, data)
		}
	}

	if data.Phone != "" {
		patient, err := r.getByPhone(ctx, q, data.Phone)
		if err == nil {
			return r.refresh(ctx, q, patient, data)
		}
	}

	query := `
		INSERT INTO patients (name, phone, age, gender, guardian_name, address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + patientColumns

	patient, err := scanPatient(q.QueryRow(ctx, query,
		data.Name, data.Phone, data.Age, data.Gender, data.GuardianName, data.Address))
	if err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}
	return patient, nil
}

func (r *PatientRepository) refresh(ctx context.Context, q database.Querier, patient *models.Patient, data *models.PatientData) (*models.Patient, error) {
	query := `
		UPDATE patients
		SET name = $2, phone = $3, age = $4, gender = $5, guardian_name = $6, address = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + patientColumns

	updated, err := scanPatient(q.QueryRow(ctx, query,
		patient.ID, data.Name, data.Phone, data.Age, data.Gender, data.GuardianName, data.Address))
	if err != nil {
		return nil, fmt.Errorf("failed to update patient %d: %w", patient.ID, err)
	}
	return updated, nil
}

func (r *PatientRepository) get(ctx context.Context, q database.Querier, id int) (*models.Patient, error) {
	return scanPatient(q.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id))
}

func (r *PatientRepository) getByPhone(ctx context.Context, q database.Querier, phone string) (*models.Patient, error) {
	return scanPatient(q.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE phone = $1 ORDER BY id LIMIT 1`, phone))
}

// Get returns a patient by ID.
func (r *PatientRepository) Get(ctx context.Context, id int) (*models.Patient, error) {
	patient, err := r.get(ctx, r.DB, id)
	if err == pgx.ErrNoRows {
		return nil, apperrors.NotFoundf("patient %d", id)
	}
	return patient, err
}

// Search finds patients by partial name or phone for the front desk.
func (r *PatientRepository) Search(ctx context.Context, term string, limit int) ([]*models.Patient, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	query := `
		SELECT ` + patientColumns + `
		FROM patients
		WHERE name ILIKE '%' || $1 || '%' OR phone LIKE $1 || '%'
		ORDER BY name
		LIMIT $2
	`

	rows, err := r.DB.Query(ctx, query, term, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patients []*models.Patient
	for rows.Next() {
		p := &models.Patient{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Phone, &p.Age, &p.Gender, &p.GuardianName, &p.Address, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}
