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

type MedicineSaleRepository struct {
	DB *pgxpool.Pool
}

func NewMedicineSaleRepository(db *pgxpool.Pool) *MedicineSaleRepository {
	return &MedicineSaleRepository{DB: db}
}

const saleColumns = `s.id, s.reg_number, s.patient_id, s.patient_name, s.item_id, i.name,
	       s.quantity, s.total_amount, s.sale_date, s.created_by_user_id, s.created_at`

// Create inserts the sale header. Line items follow via CreateItem once
// the FIFO walk has priced them.
func (r *MedicineSaleRepository) Create(ctx context.Context, q database.Querier, s *models.MedicineSale) error {
	query := `
		INSERT INTO medicine_sales (reg_number, patient_id, patient_name, item_id, quantity,
		                            total_amount, sale_date, created_by_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := q.QueryRow(ctx, query,
		s.RegNumber, s.PatientID, s.PatientName, s.ItemID, s.Quantity,
		s.TotalAmount, s.SaleDate, s.CreatedByUserID,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create medicine sale: %w", err)
	}
	return nil
}

// CreateItem inserts one priced line of a sale.
func (r *MedicineSaleRepository) CreateItem(ctx context.Context, q database.Querier, item *models.MedicineSaleItem) error {
	err := q.QueryRow(ctx, `
		INSERT INTO medicine_sale_items (sale_id, batch_id, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, item.SaleID, item.BatchID, item.Quantity, item.UnitPrice, item.LineTotal).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to create sale line: %w", err)
	}
	return nil
}

// Get returns a sale with its lines.
func (r *MedicineSaleRepository) Get(ctx context.Context, q database.Querier, id int) (*models.MedicineSale, error) {
	s := &models.MedicineSale{}
	err := q.QueryRow(ctx, `
		SELECT `+saleColumns+`
		FROM medicine_sales s
		JOIN stock_items i ON i.id = s.item_id
		WHERE s.id = $1
	`, id).Scan(&s.ID, &s.RegNumber, &s.PatientID, &s.PatientName, &s.ItemID, &s.ItemName,
		&s.Quantity, &s.TotalAmount, &s.SaleDate, &s.CreatedByUserID, &s.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, apperrors.NotFoundf("medicine sale %d", id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT id, sale_id, batch_id, quantity, unit_price, line_total
		FROM medicine_sale_items WHERE sale_id = $1 ORDER BY id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		item := &models.MedicineSaleItem{}
		if err := rows.Scan(&item.ID, &item.SaleID, &item.BatchID, &item.Quantity, &item.UnitPrice, &item.LineTotal); err != nil {
			return nil, err
		}
		s.Items = append(s.Items, item)
	}
	return s, rows.Err()
}

// Delete removes the sale and its lines; the reversal has already
// replayed the consumptions back into their batches.
func (r *MedicineSaleRepository) Delete(ctx context.Context, q database.Querier, id int) error {
	if _, err := q.Exec(ctx, `DELETE FROM medicine_sale_items WHERE sale_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete sale lines for sale %d: %w", id, err)
	}
	if _, err := q.Exec(ctx, `DELETE FROM medicine_sales WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete medicine sale %d: %w", id, err)
	}
	return nil
}

// List returns sales newest first.
func (r *MedicineSaleRepository) List(ctx context.Context, limit, offset int) ([]*models.MedicineSale, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.DB.Query(ctx, `
		SELECT `+saleColumns+`
		FROM medicine_sales s
		JOIN stock_items i ON i.id = s.item_id
		ORDER BY s.id DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []*models.MedicineSale
	for rows.Next() {
		s := &models.MedicineSale{}
		if err := rows.Scan(&s.ID, &s.RegNumber, &s.PatientID, &s.PatientName, &s.ItemID, &s.ItemName,
			&s.Quantity, &s.TotalAmount, &s.SaleDate, &s.CreatedByUserID, &s.CreatedAt); err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}
