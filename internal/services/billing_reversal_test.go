package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fnh-backend/internal/models"
	"fnh-backend/internal/money"
)

func admissionReq(items []models.LineItem, paid float64, method string) *models.CreateAdmissionRequest {
	return &models.CreateAdmissionRequest{
		Patient: models.PatientData{
			Name:   "Rahima Khatun",
			Phone:  "01711000001",
			Age:    34,
			Gender: "female",
		},
		Clinical: models.AdmissionData{Ward: "General", BedNumber: "12"},
		Financials: models.FinancialData{
			LineItems:     items,
			PaidAmount:    paid,
			PaymentMethod: method,
		},
	}
}

func admissionFees() []models.LineItem {
	return []models.LineItem{
		{Description: "Admission fee", Amount: 300},
		{Description: "Bed charge", Amount: 150},
	}
}

func onlyShift(t *testing.T, books *memBooks) *models.Shift {
	t.Helper()
	require.Len(t, books.shifts, 1)
	for _, sh := range books.shifts {
		return sh
	}
	return nil
}

func TestDeleteAdmissionReversesEverything(t *testing.T) {
	svc, books := newBillingFixture()
	ctx := context.Background()

	adm, err := svc.CreateAdmission(ctx, admissionReq(admissionFees(), 300, models.MethodCash), 7, "Front Desk")
	require.NoError(t, err)

	acct := books.accounts[adm.PatientID]
	require.NotNil(t, acct)
	assert.InDelta(t, 450, acct.TotalCharges, money.Epsilon)
	assert.InDelta(t, 300, acct.TotalPaid, money.Epsilon)
	assert.InDelta(t, 150, acct.TotalDue, money.Epsilon)

	shift := onlyShift(t, books)
	assert.InDelta(t, 300, shift.TotalCollected, money.Epsilon)
	assert.InDelta(t, 300, shift.SystemCash, money.Epsilon)

	require.Len(t, books.charges, 1)
	require.Len(t, books.payments, 1)
	require.Len(t, books.allocs, 1)
	require.Len(t, books.movements, 1)

	require.NoError(t, svc.DeleteAdmission(ctx, adm.ID, 7, "Front Desk"))

	assert.InDelta(t, 0, acct.TotalCharges, money.Epsilon)
	assert.InDelta(t, 0, acct.TotalPaid, money.Epsilon)
	assert.InDelta(t, 0, acct.TotalDue, money.Epsilon)
	assert.InDelta(t, 0, shift.TotalCollected, money.Epsilon)
	assert.InDelta(t, 0, shift.TotalRefunded, money.Epsilon)
	assert.InDelta(t, 0, shift.SystemCash, money.Epsilon)

	assert.Empty(t, books.admissions)
	assert.Empty(t, books.charges)
	assert.Empty(t, books.payments)
	assert.Empty(t, books.allocs)
	assert.Empty(t, books.movements)
}

func TestDeleteAfterPartialRefundReversesBothDirections(t *testing.T) {
	svc, books := newBillingFixture()
	ctx := context.Background()

	adm, err := svc.CreateAdmission(ctx, admissionReq(admissionFees(), 450, models.MethodCash), 7, "Front Desk")
	require.NoError(t, err)

	// Restate the record cheaper and paid 200; the difference of 250
	// leaves the drawer as a refund.
	_, err = svc.EditAdmission(ctx, adm.ID, &models.EditAdmissionRequest{
		Clinical: models.AdmissionData{Ward: "General", BedNumber: "12"},
		Financials: models.FinancialData{
			LineItems:     []models.LineItem{{Description: "Admission fee", Amount: 200}},
			PaidAmount:    200,
			PaymentMethod: models.MethodCash,
		},
	}, 7, "Front Desk")
	require.NoError(t, err)

	shift := onlyShift(t, books)
	assert.InDelta(t, 450, shift.TotalCollected, money.Epsilon)
	assert.InDelta(t, 250, shift.TotalRefunded, money.Epsilon)
	assert.InDelta(t, 200, shift.SystemCash, money.Epsilon)

	require.NoError(t, svc.DeleteAdmission(ctx, adm.ID, 7, "Front Desk"))

	assert.InDelta(t, 0, shift.TotalCollected, money.Epsilon)
	assert.InDelta(t, 0, shift.TotalRefunded, money.Epsilon)
	assert.InDelta(t, 0, shift.SystemCash, money.Epsilon)

	acct := books.accounts[adm.PatientID]
	assert.InDelta(t, 0, acct.TotalCharges, money.Epsilon)
	assert.InDelta(t, 0, acct.TotalPaid, money.Epsilon)
	assert.Empty(t, books.movements)
	assert.Empty(t, books.payments)
}

func TestCancelThenRestoreMovesTheDrawerBothWays(t *testing.T) {
	svc, books := newBillingFixture()
	ctx := context.Background()

	adm, err := svc.CreateAdmission(ctx, admissionReq(admissionFees(), 300, models.MethodCash), 7, "Front Desk")
	require.NoError(t, err)
	require.Equal(t, 1, books.countMovements(models.MovementCollection))

	// Cancel: the financials are zeroed and everything collected comes
	// back through the refund path.
	canceled, err := svc.EditAdmission(ctx, adm.ID, &models.EditAdmissionRequest{
		Status:     models.AdmissionCanceled,
		Clinical:   models.AdmissionData{Ward: "General", BedNumber: "12"},
		Financials: models.FinancialData{LineItems: admissionFees(), PaidAmount: 300, PaymentMethod: models.MethodCash},
	}, 7, "Front Desk")
	require.NoError(t, err)
	assert.Equal(t, models.AdmissionCanceled, canceled.Status)

	acct := books.accounts[adm.PatientID]
	assert.InDelta(t, 0, acct.TotalCharges, money.Epsilon)
	assert.InDelta(t, 0, acct.TotalPaid, money.Epsilon)
	assert.Empty(t, books.allocs)

	shift := onlyShift(t, books)
	assert.InDelta(t, 300, shift.TotalCollected, money.Epsilon)
	assert.InDelta(t, 300, shift.TotalRefunded, money.Epsilon)
	assert.InDelta(t, 0, shift.SystemCash, money.Epsilon)
	assert.Equal(t, 1, books.countMovements(models.MovementCollection))
	assert.Equal(t, 1, books.countMovements(models.MovementRefund))

	// Restore: the financials are re-applied and the payment is taken
	// again as a fresh collection.
	restored, err := svc.EditAdmission(ctx, adm.ID, &models.EditAdmissionRequest{
		Status:     models.AdmissionAdmitted,
		Clinical:   models.AdmissionData{Ward: "General", BedNumber: "12"},
		Financials: models.FinancialData{LineItems: admissionFees(), PaidAmount: 300, PaymentMethod: models.MethodCash},
	}, 7, "Front Desk")
	require.NoError(t, err)
	assert.Equal(t, models.AdmissionAdmitted, restored.Status)

	assert.InDelta(t, 450, acct.TotalCharges, money.Epsilon)
	assert.InDelta(t, 300, acct.TotalPaid, money.Epsilon)
	assert.InDelta(t, 150, acct.TotalDue, money.Epsilon)

	assert.InDelta(t, 600, shift.TotalCollected, money.Epsilon)
	assert.InDelta(t, 300, shift.TotalRefunded, money.Epsilon)
	assert.InDelta(t, 300, shift.SystemCash, money.Epsilon)
	assert.Equal(t, 2, books.countMovements(models.MovementCollection))
	assert.Equal(t, 1, books.countMovements(models.MovementRefund))
}

func TestDeleteLeavesCardPaymentsOutOfTheDrawer(t *testing.T) {
	svc, books := newBillingFixture()
	ctx := context.Background()

	adm, err := svc.CreateAdmission(ctx, admissionReq(admissionFees(), 200, models.MethodCard), 7, "Front Desk")
	require.NoError(t, err)

	// Card money never touches the drawer; the shift exists only for
	// attribution.
	shift := onlyShift(t, books)
	assert.InDelta(t, 0, shift.TotalCollected, money.Epsilon)
	assert.InDelta(t, 0, shift.SystemCash, money.Epsilon)
	require.Len(t, books.payments, 1)
	assert.Empty(t, books.movements)

	require.NoError(t, svc.DeleteAdmission(ctx, adm.ID, 7, "Front Desk"))

	assert.InDelta(t, 0, shift.TotalCollected, money.Epsilon)
	assert.InDelta(t, 0, shift.SystemCash, money.Epsilon)
	assert.Empty(t, books.payments)
	assert.Empty(t, books.allocs)

	acct := books.accounts[adm.PatientID]
	assert.InDelta(t, 0, acct.TotalCharges, money.Epsilon)
	assert.InDelta(t, 0, acct.TotalPaid, money.Epsilon)
}

func TestOpenShiftIsReusedPerOperator(t *testing.T) {
	svc, books := newBillingFixture()
	ctx := context.Background()

	_, err := svc.CreateAdmission(ctx, admissionReq(admissionFees(), 100, models.MethodCash), 7, "Front Desk")
	require.NoError(t, err)
	req := admissionReq(admissionFees(), 100, models.MethodCash)
	req.Patient.Phone = "01711000002"
	_, err = svc.CreateAdmission(ctx, req, 7, "Front Desk")
	require.NoError(t, err)

	// Both collections land on the operator's single open shift.
	shift := onlyShift(t, books)
	assert.InDelta(t, 200, shift.TotalCollected, money.Epsilon)

	req = admissionReq(admissionFees(), 100, models.MethodCash)
	req.Patient.Phone = "01711000003"
	_, err = svc.CreateAdmission(ctx, req, 8, "Night Desk")
	require.NoError(t, err)
	assert.Len(t, books.shifts, 2)
}
