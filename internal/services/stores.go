package services

import (
	"context"

	"fnh-backend/internal/database"
	"fnh-backend/internal/models"
)

// Storage interfaces consumed by the billing engine and the account
// rollup. The pgx repositories implement them; tests run the same
// orchestration against in-memory versions.

type PatientStore interface {
	Upsert(ctx context.Context, q database.Querier, data *models.PatientData) (*models.Patient, error)
	Get(ctx context.Context, id int) (*models.Patient, error)
	Search(ctx context.Context, term string, limit int) ([]*models.Patient, error)
}

type AdmissionStore interface {
	Create(ctx context.Context, q database.Querier, a *models.Admission) error
	Get(ctx context.Context, q database.Querier, id int) (*models.Admission, error)
	Update(ctx context.Context, q database.Querier, a *models.Admission) error
	Delete(ctx context.Context, q database.Querier, id int) error
	List(ctx context.Context, status string, limit, offset int) ([]*models.Admission, error)
}

type PathologyStore interface {
	Create(ctx context.Context, q database.Querier, o *models.PathologyOrder) error
	Get(ctx context.Context, q database.Querier, id int) (*models.PathologyOrder, error)
	Update(ctx context.Context, q database.Querier, o *models.PathologyOrder) error
	Delete(ctx context.Context, q database.Querier, id int) error
	List(ctx context.Context, limit, offset int) ([]*models.PathologyOrder, error)
}

type ChargeStore interface {
	Create(ctx context.Context, q database.Querier, c *models.Charge) error
	UpdateAmounts(ctx context.Context, q database.Querier, id int, original, discount, final float64) error
	GetByRef(ctx context.Context, q database.Querier, ref models.ChargeRef) (*models.Charge, error)
	ListByRef(ctx context.Context, q database.Querier, ref models.ChargeRef) ([]*models.Charge, error)
	ListByPatient(ctx context.Context, patientID int) ([]*models.Charge, error)
	Delete(ctx context.Context, q database.Querier, id int) error
}

type PaymentStore interface {
	NextReceiptNumber(ctx context.Context, q database.Querier) (string, error)
	Create(ctx context.Context, q database.Querier, p *models.Payment) error
	ListByChargeIDs(ctx context.Context, q database.Querier, chargeIDs []int) ([]*models.Payment, error)
	ListByPatient(ctx context.Context, patientID int) ([]*models.Payment, error)
	GetByReceiptNumber(ctx context.Context, receiptNumber string) (*models.Payment, error)
	DeleteByIDs(ctx context.Context, q database.Querier, ids []int) error
}

type AllocationStore interface {
	Create(ctx context.Context, q database.Querier, a *models.PaymentAllocation) error
	ListByChargeIDs(ctx context.Context, q database.Querier, chargeIDs []int) ([]*models.PaymentAllocation, error)
	UpdateAmount(ctx context.Context, q database.Querier, id int, amount float64) error
	Delete(ctx context.Context, q database.Querier, id int) error
	DeleteByChargeIDs(ctx context.Context, q database.Querier, chargeIDs []int) error
}

type AccountStore interface {
	ApplyDeltas(ctx context.Context, q database.Querier, patientID int, chargeDelta, paidDelta float64) error
	GetByPatient(ctx context.Context, patientID int) (*models.Account, error)
	Reconcile(ctx context.Context) ([]*models.ReconciliationRow, error)
}

type ShiftStore interface {
	EnsureActive(ctx context.Context, q database.Querier, operatorID int) (*models.Shift, error)
	ApplyCashDelta(ctx context.Context, q database.Querier, shiftID int, collectedDelta, refundedDelta float64) error
	ReverseCollections(ctx context.Context, q database.Querier, shiftID int, amount float64) error
	ReverseRefunds(ctx context.Context, q database.Querier, shiftID int, amount float64) error
}

type MovementStore interface {
	Append(ctx context.Context, q database.Querier, m *models.CashMovement) error
	ListByChargeIDs(ctx context.Context, q database.Querier, chargeIDs []int) ([]*models.CashMovement, error)
	DeleteByChargeIDs(ctx context.Context, q database.Querier, chargeIDs []int) error
	DeleteByPaymentIDs(ctx context.Context, q database.Querier, paymentIDs []int) error
}

type RegCounterStore interface {
	Next(ctx context.Context, q database.Querier, deptCode string, yearTwoDigit int) (int, error)
}

// AuditRecorder is the fire-and-forget audit sink.
type AuditRecorder interface {
	Record(entry *models.AuditLog)
}
