package models

import "time"

// StockItem is a stocked medicine. CurrentStock is a denormalized
// running counter kept equal to the sum of its batches' RemainingQty.
type StockItem struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	GenericName  string    `json:"generic_name"`
	Unit         string    `json:"unit"` // 'tablet', 'bottle', 'vial', ...
	CurrentStock int       `json:"current_stock"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StockBatch is one purchase/intake lot. Batches are never merged;
// unit price and intake date provenance are preserved per lot.
// Invariant: 0 <= RemainingQty <= Quantity.
type StockBatch struct {
	ID           int       `json:"id"`
	ItemID       int       `json:"item_id"`
	Quantity     int       `json:"quantity"`
	RemainingQty int       `json:"remaining_qty"`
	UnitPrice    float64   `json:"unit_price"`
	ReceivedDate time.Time `json:"received_date"`
	CreatedAt    time.Time `json:"created_at"`
}

// StockConsumption records a quantity taken from one batch by one sale,
// priced at that batch's own unit price.
type StockConsumption struct {
	ID        int       `json:"id"`
	SaleID    int       `json:"sale_id"`
	BatchID   int       `json:"batch_id"`
	ItemID    int       `json:"item_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
	CreatedAt time.Time `json:"created_at"`
}

// BatchTake is one step of a FIFO consumption plan: take Qty from the
// batch at that batch's price.
type BatchTake struct {
	BatchID   int     `json:"batch_id"`
	Qty       int     `json:"qty"`
	UnitPrice float64 `json:"unit_price"`
}

// ReceiveStockRequest creates a new batch for an item.
type ReceiveStockRequest struct {
	ItemID     int     `json:"item_id"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	IntakeDate string  `json:"intake_date"` // YYYY-MM-DD, defaults to today
}
