package money_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fnh-backend/internal/money"
)

func TestRound(t *testing.T) {
	assert.Equal(t, 10.56, money.Round(10.555))
	assert.Equal(t, 10.55, money.Round(10.554))
	assert.Equal(t, 0.0, money.Round(0))
	assert.Equal(t, -5.13, money.Round(-5.125))
}

func TestApplyDiscount(t *testing.T) {
	tests := []struct {
		name          string
		subtotal      float64
		pct           float64
		fixed         float64
		wantDiscount  float64
		wantGrandTotal float64
	}{
		{"no discount", 1000, 0, 0, 0, 1000},
		{"percentage", 1000, 10, 0, 100, 900},
		{"percentage rounds", 333, 10, 0, 33.30, 299.70},
		{"fixed", 1000, 0, 250, 250, 750},
		{"fixed capped at subtotal", 300, 0, 500, 300, 0},
		{"pct then fixed", 1000, 10, 50, 150, 850},
		{"pct then fixed capped", 1000, 90, 200, 1000, 0},
		{"pct over 100 capped", 500, 150, 0, 500, 0},
		{"zero subtotal", 0, 10, 50, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			discount, grandTotal := money.ApplyDiscount(tt.subtotal, tt.pct, tt.fixed)
			assert.InDelta(t, tt.wantDiscount, discount, money.Epsilon)
			assert.InDelta(t, tt.wantGrandTotal, grandTotal, money.Epsilon)
			assert.GreaterOrEqual(t, grandTotal, 0.0)
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, money.Equal(0.1+0.2, 0.3))
	assert.False(t, money.Equal(100, 100.01))
}
