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

type StockRepository struct {
	DB *pgxpool.Pool
}

func NewStockRepository(db *pgxpool.Pool) *StockRepository {
	return &StockRepository{DB: db}
}

// CreateItem registers a new stocked medicine.
func (r *StockRepository) CreateItem(ctx context.Context, item *models.StockItem) error {
	query := `
		INSERT INTO stock_items (name, generic_name, unit, current_stock)
		VALUES ($1, $2, $3, 0)
		RETURNING id, created_at, updated_at
	`

	err := r.DB.QueryRow(ctx, query, item.Name, item.GenericName, item.Unit).
		Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create stock item: %w", err)
	}
	item.CurrentStock = 0
	return nil
}

// GetItem returns a stock item by ID.
func (r *StockRepository) GetItem(ctx context.Context, q database.Querier, id int) (*models.StockItem, error) {
	item := &models.StockItem{}
	err := q.QueryRow(ctx, `
		SELECT id, name, COALESCE(generic_name, ''), unit, current_stock, created_at, updated_at
		FROM stock_items WHERE id = $1
	`, id).Scan(&item.ID, &item.Name, &item.GenericName, &item.Unit, &item.CurrentStock, &item.CreatedAt, &item.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, apperrors.NotFoundf("stock item %d", id)
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ListItems returns all stocked items ordered by name.
func (r *StockRepository) ListItems(ctx context.Context) ([]*models.StockItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, COALESCE(generic_name, ''), unit, current_stock, created_at, updated_at
		FROM stock_items ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.StockItem
	for rows.Next() {
		item := &models.StockItem{}
		if err := rows.Scan(&item.ID, &item.Name, &item.GenericName, &item.Unit,
			&item.CurrentStock, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// AdjustItemStock moves the denormalized running counter by delta. The
// check constraint on current_stock catches any drift below zero.
func (r *StockRepository) AdjustItemStock(ctx context.Context, q database.Querier, itemID, delta int) error {
	tag, err := q.Exec(ctx, `
		UPDATE stock_items SET current_stock = current_stock + $2, updated_at = NOW() WHERE id = $1
	`, itemID, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust stock for item %d: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFoundf("stock item %d", itemID)
	}
	return nil
}

// CreateBatch records one intake lot. Lots are never merged; price and
// date provenance stay with the batch.
func (r *StockRepository) CreateBatch(ctx context.Context, q database.Querier, b *models.StockBatch) error {
	query := `
		INSERT INTO stock_batches (item_id, quantity, remaining_qty, unit_price, received_date)
		VALUES ($1, $2, $2, $3, $4)
		RETURNING id, remaining_qty, created_at
	`

	err := q.QueryRow(ctx, query, b.ItemID, b.Quantity, b.UnitPrice, b.ReceivedDate).
		Scan(&b.ID, &b.RemainingQty, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create stock batch: %w", err)
	}
	return nil
}

// OpenBatchesForUpdate selects the item's unexhausted batches oldest
// first and row-locks them for the duration of the FIFO walk, so two
// concurrent sales cannot oversubscribe the same lot.
func (r *StockRepository) OpenBatchesForUpdate(ctx context.Context, q database.Querier, itemID int) ([]*models.StockBatch, error) {
	rows, err := q.Query(ctx, `
		SELECT id, item_id, quantity, remaining_qty, unit_price, received_date, created_at
		FROM stock_batches
		WHERE item_id = $1 AND remaining_qty > 0
		ORDER BY received_date, id
		FOR UPDATE
	`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []*models.StockBatch
	for rows.Next() {
		b := &models.StockBatch{}
		if err := rows.Scan(&b.ID, &b.ItemID, &b.Quantity, &b.RemainingQty, &b.UnitPrice, &b.ReceivedDate, &b.CreatedAt); err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// ListBatches returns an item's batches oldest first, exhausted ones included.
func (r *StockRepository) ListBatches(ctx context.Context, itemID int) ([]*models.StockBatch, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, item_id, quantity, remaining_qty, unit_price, received_date, created_at
		FROM stock_batches
		WHERE item_id = $1
		ORDER BY received_date, id
	`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []*models.StockBatch
	for rows.Next() {
		b := &models.StockBatch{}
		if err := rows.Scan(&b.ID, &b.ItemID, &b.Quantity, &b.RemainingQty, &b.UnitPrice, &b.ReceivedDate, &b.CreatedAt); err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// TakeFromBatch decrements a batch's remaining quantity. The guard in
// the WHERE clause plus the row lock taken by OpenBatchesForUpdate
// make oversubscription impossible.
func (r *StockRepository) TakeFromBatch(ctx context.Context, q database.Querier, batchID, qty int) error {
	tag, err := q.Exec(ctx, `
		UPDATE stock_batches SET remaining_qty = remaining_qty - $2
		WHERE id = $1 AND remaining_qty >= $2
	`, batchID, qty)
	if err != nil {
		return fmt.Errorf("failed to take %d from batch %d: %w", qty, batchID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: batch %d has less than %d remaining", apperrors.ErrInsufficientStock, batchID, qty)
	}
	return nil
}

// ReturnToBatch restores quantity to a batch when a sale is reversed.
// The check constraint keeps remaining_qty within the original quantity.
func (r *StockRepository) ReturnToBatch(ctx context.Context, q database.Querier, batchID, qty int) error {
	if _, err := q.Exec(ctx, `
		UPDATE stock_batches SET remaining_qty = remaining_qty + $2 WHERE id = $1
	`, batchID, qty); err != nil {
		return fmt.Errorf("failed to return %d to batch %d: %w", qty, batchID, err)
	}
	return nil
}

// FirstIntakeDate returns the item's earliest batch date. Sales cannot
// be backdated before stock existed.
func (r *StockRepository) FirstIntakeDate(ctx context.Context, q database.Querier, itemID int) (time.Time, error) {
	var first time.Time
	err := q.QueryRow(ctx, `
		SELECT MIN(received_date) FROM stock_batches WHERE item_id = $1
	`, itemID).Scan(&first)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: item %d has no stock batches", apperrors.ErrDateOutOfRange, itemID)
	}
	return first, nil
}

// CreateConsumption records one batch's contribution to a sale.
func (r *StockRepository) CreateConsumption(ctx context.Context, q database.Querier, c *models.StockConsumption) error {
	query := `
		INSERT INTO stock_consumptions (sale_id, batch_id, item_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := q.QueryRow(ctx, query, c.SaleID, c.BatchID, c.ItemID, c.Quantity, c.UnitPrice).
		Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record stock consumption: %w", err)
	}
	return nil
}

// ListConsumptionsBySale returns the consumption rows for one sale.
func (r *StockRepository) ListConsumptionsBySale(ctx context.Context, q database.Querier, saleID int) ([]*models.StockConsumption, error) {
	rows, err := q.Query(ctx, `
		SELECT id, sale_id, batch_id, item_id, quantity, unit_price, created_at
		FROM stock_consumptions
		WHERE sale_id = $1
		ORDER BY id
	`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var consumptions []*models.StockConsumption
	for rows.Next() {
		c := &models.StockConsumption{}
		if err := rows.Scan(&c.ID, &c.SaleID, &c.BatchID, &c.ItemID, &c.Quantity, &c.UnitPrice, &c.CreatedAt); err != nil {
			return nil, err
		}
		consumptions = append(consumptions, c)
	}
	return consumptions, rows.Err()
}

// DeleteConsumptionsBySale removes a sale's consumption rows after they
// have been replayed back into their batches.
func (r *StockRepository) DeleteConsumptionsBySale(ctx context.Context, q database.Querier, saleID int) error {
	if _, err := q.Exec(ctx, `DELETE FROM stock_consumptions WHERE sale_id = $1`, saleID); err != nil {
		return fmt.Errorf("failed to delete consumptions for sale %d: %w", saleID, err)
	}
	return nil
}

// SumRemaining recomputes an item's stock from its batches, for the
// reconciliation path.
func (r *StockRepository) SumRemaining(ctx context.Context, itemID int) (int, error) {
	var sum int
	err := r.DB.QueryRow(ctx, `
		SELECT COALESCE(SUM(remaining_qty), 0) FROM stock_batches WHERE item_id = $1
	`, itemID).Scan(&sum)
	return sum, err
}
