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

type PathologyRepository struct {
	DB *pgxpool.Pool
}

func NewPathologyRepository(db *pgxpool.Pool) *PathologyRepository {
	return &PathologyRepository{DB: db}
}

const pathologyColumns = `id, reg_number, patient_id, patient_name, referred_by, sample_date,
	       delivery_date, created_by_user_id, created_at, updated_at`

// Create inserts a pathology order together with its ordered test lines.
func (r *PathologyRepository) Create(ctx context.Context, q database.Querier, o *models.PathologyOrder) error {
	query := `
		INSERT INTO pathology_orders (reg_number, patient_id, patient_name, referred_by, sample_date,
		                              delivery_date, created_by_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		o.RegNumber, o.PatientID, o.PatientName, o.ReferredBy, o.SampleDate,
		o.DeliveryDate, o.CreatedByUserID,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create pathology order: %w", err)
	}

	for _, test := range o.Tests {
		test.OrderID = o.ID
		if err := r.createTest(ctx, q, test); err != nil {
			return err
		}
	}
	return nil
}

func (r *PathologyRepository) createTest(ctx context.Context, q database.Querier, t *models.PathologyTest) error {
	err := q.QueryRow(ctx, `
		INSERT INTO pathology_tests (order_id, test_name, fee)
		VALUES ($1, $2, $3)
		RETURNING id
	`, t.OrderID, t.TestName, t.Fee).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to create pathology test line: %w", err)
	}
	return nil
}

// Get returns an order with its test lines.
func (r *PathologyRepository) Get(ctx context.Context, q database.Querier, id int) (*models.PathologyOrder, error) {
	o := &models.PathologyOrder{}
	err := q.QueryRow(ctx, `SELECT `+pathologyColumns+` FROM pathology_orders WHERE id = $1`, id).
		Scan(&o.ID, &o.RegNumber, &o.PatientID, &o.PatientName, &o.ReferredBy, &o.SampleDate,
			&o.DeliveryDate, &o.CreatedByUserID, &o.CreatedAt, &o.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, apperrors.NotFoundf("pathology order %d", id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT id, order_id, test_name, fee FROM pathology_tests WHERE order_id = $1 ORDER BY id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		t := &models.PathologyTest{}
		if err := rows.Scan(&t.ID, &t.OrderID, &t.TestName, &t.Fee); err != nil {
			return nil, err
		}
		o.Tests = append(o.Tests, t)
	}
	return o, rows.Err()
}

// Update rewrites the order's clinical fields and replaces its test lines.
func (r *PathologyRepository) Update(ctx context.Context, q database.Querier, o *models.PathologyOrder) error {
	tag, err := q.Exec(ctx, `
		UPDATE pathology_orders
		SET referred_by = $2, sample_date = $3, delivery_date = $4, updated_at = NOW()
		WHERE id = $1
	`, o.ID, o.ReferredBy, o.SampleDate, o.DeliveryDate)
	if err != nil {
		return fmt.Errorf("failed to update pathology order %d: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFoundf("pathology order %d", o.ID)
	}

	if _, err := q.Exec(ctx, `DELETE FROM pathology_tests WHERE order_id = $1`, o.ID); err != nil {
		return fmt.Errorf("failed to replace test lines for order %d: %w", o.ID, err)
	}
	for _, test := range o.Tests {
		test.OrderID = o.ID
		if err := r.createTest(ctx, q, test); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the order and its test lines.
func (r *PathologyRepository) Delete(ctx context.Context, q database.Querier, id int) error {
	if _, err := q.Exec(ctx, `DELETE FROM pathology_tests WHERE order_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete test lines for order %d: %w", id, err)
	}
	if _, err := q.Exec(ctx, `DELETE FROM pathology_orders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete pathology order %d: %w", id, err)
	}
	return nil
}

// List returns orders newest first.
func (r *PathologyRepository) List(ctx context.Context, limit, offset int) ([]*models.PathologyOrder, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.DB.Query(ctx, `
		SELECT `+pathologyColumns+` FROM pathology_orders ORDER BY id DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.PathologyOrder
	for rows.Next() {
		o := &models.PathologyOrder{}
		if err := rows.Scan(&o.ID, &o.RegNumber, &o.PatientID, &o.PatientName, &o.ReferredBy,
			&o.SampleDate, &o.DeliveryDate, &o.CreatedByUserID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
