package services

import (
	"context"
	"encoding/json"

	"fnh-backend/internal/apperrors"
	"fnh-backend/internal/cache"
	"fnh-backend/internal/models"
	"fnh-backend/internal/money"
)

// AccountService serves the per-patient financial rollup and the
// reconciliation path that cross-checks it.
type AccountService struct {
	Patients PatientStore
	Accounts AccountStore
	Charges  ChargeStore
	Payments PaymentStore
}

func NewAccountService(patients PatientStore, accounts AccountStore, charges ChargeStore, payments PaymentStore) *AccountService {
	return &AccountService{Patients: patients, Accounts: accounts, Charges: charges, Payments: payments}
}

// Summary returns the front-desk view of a patient account, cached for
// a few minutes. Financial operations invalidate the key.
func (s *AccountService) Summary(ctx context.Context, patientID int) (*models.AccountSummary, error) {
	key := cache.AccountSummaryKey(patientID)
	if data, ok := cache.GetCached(ctx, key); ok {
		summary := &models.AccountSummary{}
		if err := json.Unmarshal(data, summary); err == nil {
			return summary, nil
		}
	}

	summary, err := s.buildSummary(ctx, patientID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(summary); err == nil {
		cache.SetCached(ctx, key, data, cache.AccountSummaryTTL)
	}
	return summary, nil
}

func (s *AccountService) buildSummary(ctx context.Context, patientID int) (*models.AccountSummary, error) {
	patient, err := s.Patients.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}

	account, err := s.Accounts.GetByPatient(ctx, patientID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			return nil, err
		}
		// A patient with no charges yet has an all-zero account.
		account = &models.Account{PatientID: patientID}
	}

	charges, err := s.Charges.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	payments, err := s.Payments.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	summary := &models.AccountSummary{
		Patient:      patient,
		Account:      account,
		Charges:      charges,
		PaymentCount: len(payments),
	}
	if len(payments) > 0 {
		summary.LastPayment = payments[0]
	}
	return summary, nil
}

// Statement returns the full charge and payment history for a patient.
func (s *AccountService) Statement(ctx context.Context, patientID int) ([]*models.Charge, []*models.Payment, error) {
	charges, err := s.Charges.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, nil, err
	}
	payments, err := s.Payments.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, nil, err
	}
	return charges, payments, nil
}

// Search finds patients for the front desk.
func (s *AccountService) Search(ctx context.Context, term string, limit int) ([]*models.Patient, error) {
	return s.Patients.Search(ctx, term, limit)
}

// Reconcile recomputes every account from the underlying rows and
// returns only the accounts that drifted. An empty result is the
// expected outcome.
func (s *AccountService) Reconcile(ctx context.Context) ([]*models.ReconciliationRow, error) {
	rows, err := s.Accounts.Reconcile(ctx)
	if err != nil {
		return nil, err
	}

	var drifted []*models.ReconciliationRow
	for _, row := range rows {
		if !money.Equal(row.ChargesDrift, 0) || !money.Equal(row.PaidDrift, 0) {
			drifted = append(drifted, row)
		}
	}
	return drifted, nil
}

// VerifyReceipt looks a payment up by its printed receipt number.
func (s *AccountService) VerifyReceipt(ctx context.Context, receiptNumber string) (*models.Payment, error) {
	return s.Payments.GetByReceiptNumber(ctx, receiptNumber)
}
