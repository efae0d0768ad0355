package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fnh-backend/internal/models"
)

func newAccountFixture() (*AccountService, *memBooks) {
	books := newMemBooks()
	svc := NewAccountService(memPatients{books}, memAccounts{books}, memCharges{books}, memPayments{books})
	return svc, books
}

func TestSummaryForPatientWithoutChargesIsAllZero(t *testing.T) {
	svc, books := newAccountFixture()
	books.patients[1] = &models.Patient{ID: 1, Name: "Rahima Khatun", Phone: "01711000001"}

	summary, err := svc.Summary(context.Background(), 1)
	require.NoError(t, err)

	require.NotNil(t, summary.Account)
	assert.Equal(t, 1, summary.Account.PatientID)
	assert.Zero(t, summary.Account.TotalCharges)
	assert.Zero(t, summary.Account.TotalPaid)
	assert.Zero(t, summary.Account.TotalDue)
	assert.Empty(t, summary.Charges)
	assert.Zero(t, summary.PaymentCount)
}

func TestSummarySurfacesAccountStorageFailures(t *testing.T) {
	svc, books := newAccountFixture()
	books.patients[1] = &models.Patient{ID: 1, Name: "Rahima Khatun", Phone: "01711000001"}
	books.accountErr = errors.New("connection reset by peer")

	_, err := svc.Summary(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection reset")
}
