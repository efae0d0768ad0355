package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fnh-backend/internal/apperrors"
	"fnh-backend/internal/models"
	"fnh-backend/internal/money"
)

func TestPlanFIFOSpansBatchesOldestFirst(t *testing.T) {
	batches := []*models.StockBatch{
		{ID: 1, RemainingQty: 5, UnitPrice: 8},
		{ID: 2, RemainingQty: 10, UnitPrice: 9},
	}

	plan, err := planFIFO(batches, 8)
	require.NoError(t, err)
	require.Len(t, plan, 2)

	assert.Equal(t, 1, plan[0].BatchID)
	assert.Equal(t, 5, plan[0].Qty)
	assert.InDelta(t, 8.0, plan[0].UnitPrice, money.Epsilon)

	assert.Equal(t, 2, plan[1].BatchID)
	assert.Equal(t, 3, plan[1].Qty)
	assert.InDelta(t, 9.0, plan[1].UnitPrice, money.Epsilon)
}

func TestPlanFIFOSingleBatchExact(t *testing.T) {
	batches := []*models.StockBatch{
		{ID: 7, RemainingQty: 4, UnitPrice: 12.5},
	}

	plan, err := planFIFO(batches, 4)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, 4, plan[0].Qty)
}

func TestPlanFIFOSkipsDrainedBatches(t *testing.T) {
	batches := []*models.StockBatch{
		{ID: 1, RemainingQty: 0, UnitPrice: 8},
		{ID: 2, RemainingQty: 6, UnitPrice: 9},
	}

	plan, err := planFIFO(batches, 3)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, 2, plan[0].BatchID)
}

func TestPlanFIFOInsufficientStock(t *testing.T) {
	batches := []*models.StockBatch{
		{ID: 1, RemainingQty: 2, UnitPrice: 8},
	}

	_, err := planFIFO(batches, 10)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "8 short")
}

func TestPlanTotalUsesBatchPrices(t *testing.T) {
	plan := []models.BatchTake{
		{BatchID: 1, Qty: 5, UnitPrice: 8},
		{BatchID: 2, Qty: 3, UnitPrice: 9},
	}

	assert.InDelta(t, 67.0, planTotal(plan, nil), money.Epsilon)
}

func TestPlanTotalOverridePricesEveryUnit(t *testing.T) {
	plan := []models.BatchTake{
		{BatchID: 1, Qty: 5, UnitPrice: 8},
		{BatchID: 2, Qty: 3, UnitPrice: 9},
	}

	override := 10.0
	assert.InDelta(t, 80.0, planTotal(plan, &override), money.Epsilon)
}
