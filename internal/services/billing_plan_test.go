package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fnh-backend/internal/apperrors"
	"fnh-backend/internal/models"
	"fnh-backend/internal/money"
)

func fin(items []models.LineItem, pct, fixed, paid float64) *models.FinancialData {
	return &models.FinancialData{
		LineItems:       items,
		DiscountPercent: pct,
		DiscountFixed:   fixed,
		PaidAmount:      paid,
		PaymentMethod:   models.MethodCash,
	}
}

func TestPlanSettlementCreate(t *testing.T) {
	plan, err := planSettlement(0, 0, fin([]models.LineItem{
		{Description: "Bed charge", Amount: 400},
		{Description: "Admission fee", Amount: 100},
	}, 10, 0, 300))
	require.NoError(t, err)

	assert.InDelta(t, 500.0, plan.NewOriginal, money.Epsilon)
	assert.InDelta(t, 50.0, plan.NewDiscount, money.Epsilon)
	assert.InDelta(t, 450.0, plan.NewFinal, money.Epsilon)
	assert.InDelta(t, 450.0, plan.ChargeDelta, money.Epsilon)
	assert.InDelta(t, 300.0, plan.CollectDelta, money.Epsilon)
	assert.Zero(t, plan.RefundAmount)
}

func TestPlanSettlementEditCollectsTheDifference(t *testing.T) {
	// Charge was 300 fully paid; the edit restates it to 450 paid in full.
	plan, err := planSettlement(300, 300, fin([]models.LineItem{
		{Description: "Bed charge", Amount: 450},
	}, 0, 0, 450))
	require.NoError(t, err)

	assert.InDelta(t, 150.0, plan.ChargeDelta, money.Epsilon)
	assert.InDelta(t, 150.0, plan.CollectDelta, money.Epsilon)
	assert.Zero(t, plan.RefundAmount)
}

func TestPlanSettlementEditRefundsTheDifference(t *testing.T) {
	// Charge was 450 fully paid; the edit restates it down to 200.
	plan, err := planSettlement(450, 450, fin([]models.LineItem{
		{Description: "Bed charge", Amount: 200},
	}, 0, 0, 200))
	require.NoError(t, err)

	assert.InDelta(t, -250.0, plan.ChargeDelta, money.Epsilon)
	assert.InDelta(t, 250.0, plan.RefundAmount, money.Epsilon)
	assert.Zero(t, plan.CollectDelta)
}

func TestPlanSettlementCancelRefundsEverything(t *testing.T) {
	// Cancel zeroes the financials; whatever was paid comes back.
	plan, err := planSettlement(450, 300, fin(nil, 0, 0, 0))
	require.NoError(t, err)

	assert.InDelta(t, -450.0, plan.ChargeDelta, money.Epsilon)
	assert.InDelta(t, 300.0, plan.RefundAmount, money.Epsilon)
	assert.Zero(t, plan.CollectDelta)
}

func TestPlanSettlementRejectsOverpayment(t *testing.T) {
	_, err := planSettlement(0, 0, fin([]models.LineItem{
		{Description: "Fee", Amount: 100},
	}, 0, 0, 150))
	assert.True(t, apperrors.IsValidation(err))
}

func TestPlanSettlementRejectsNegativeInputs(t *testing.T) {
	_, err := planSettlement(0, 0, fin([]models.LineItem{
		{Description: "Fee", Amount: -5},
	}, 0, 0, 0))
	assert.True(t, apperrors.IsValidation(err))

	_, err = planSettlement(0, 0, fin([]models.LineItem{
		{Description: "Fee", Amount: 100},
	}, -10, 0, 0))
	assert.True(t, apperrors.IsValidation(err))

	_, err = planSettlement(0, 0, fin([]models.LineItem{
		{Description: "Fee", Amount: 100},
	}, 0, 0, -1))
	assert.True(t, apperrors.IsValidation(err))
}

func TestPlanSettlementPaidEqualToFinalWithinEpsilon(t *testing.T) {
	plan, err := planSettlement(0, 0, fin([]models.LineItem{
		{Description: "Fee", Amount: 99.999},
	}, 0, 0, 100))
	require.NoError(t, err)
	assert.InDelta(t, 100.0, plan.CollectDelta, money.Epsilon)
}

func TestPlanAllocationCutsNewestFirst(t *testing.T) {
	allocs := []*models.PaymentAllocation{
		{ID: 1, AllocatedAmount: 200},
		{ID: 2, AllocatedAmount: 100},
		{ID: 3, AllocatedAmount: 50},
	}

	cuts, err := planAllocationCuts(allocs, 120)
	require.NoError(t, err)
	require.Len(t, cuts, 2)

	// Newest allocation (ID 3) is wiped out first, then ID 2 takes the rest.
	assert.Equal(t, 3, cuts[0].ID)
	assert.Zero(t, cuts[0].NewAmount)
	assert.Equal(t, 2, cuts[1].ID)
	assert.InDelta(t, 30.0, cuts[1].NewAmount, money.Epsilon)
}

func TestPlanAllocationCutsExactWipe(t *testing.T) {
	allocs := []*models.PaymentAllocation{
		{ID: 1, AllocatedAmount: 300},
	}

	cuts, err := planAllocationCuts(allocs, 300)
	require.NoError(t, err)
	require.Len(t, cuts, 1)
	assert.Zero(t, cuts[0].NewAmount)
}

func TestPlanAllocationCutsRefundTooLarge(t *testing.T) {
	allocs := []*models.PaymentAllocation{
		{ID: 1, AllocatedAmount: 100},
	}

	_, err := planAllocationCuts(allocs, 150)
	assert.True(t, apperrors.IsValidation(err))
}

func TestAdmissionTransitions(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{models.AdmissionAdmitted, models.AdmissionAdmitted, true},
		{models.AdmissionAdmitted, models.AdmissionDischarged, true},
		{models.AdmissionAdmitted, models.AdmissionCanceled, true},
		{models.AdmissionDischarged, models.AdmissionAdmitted, true},
		{models.AdmissionDischarged, models.AdmissionCanceled, true},
		{models.AdmissionCanceled, models.AdmissionAdmitted, true},
		{models.AdmissionCanceled, models.AdmissionDischarged, false},
		{models.AdmissionCanceled, models.AdmissionCanceled, true},
		{"", models.AdmissionAdmitted, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, admissionTransitionAllowed(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestParseDateOrToday(t *testing.T) {
	today, err := parseDateOrToday("")
	require.NoError(t, err)
	assert.False(t, today.IsZero())

	parsed, err := parseDateOrToday("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, 2024, parsed.Year())

	_, err = parseDateOrToday("2099-01-01")
	assert.ErrorIs(t, err, apperrors.ErrDateOutOfRange)

	_, err = parseDateOrToday("15/03/2024")
	assert.True(t, apperrors.IsValidation(err))
}

func TestValidPaymentMethod(t *testing.T) {
	assert.True(t, validPaymentMethod(models.MethodCash))
	assert.True(t, validPaymentMethod(models.MethodCard))
	assert.True(t, validPaymentMethod(models.MethodMobile))
	assert.False(t, validPaymentMethod("cheque"))
	assert.False(t, validPaymentMethod(""))
}

func TestTestsFromLineItems(t *testing.T) {
	tests := testsFromLineItems([]models.LineItem{
		{Description: "CBC", Amount: 400},
		{Description: "RBS", Amount: 150},
	})
	require.Len(t, tests, 2)
	assert.Equal(t, "CBC", tests[0].TestName)
	assert.InDelta(t, 400.0, tests[0].Fee, money.Epsilon)
}
