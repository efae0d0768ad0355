package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"fnh-backend/internal/apperrors"
	"fnh-backend/internal/database"
	"fnh-backend/internal/models"
	"fnh-backend/internal/money"
	"fnh-backend/internal/regnum"
)

// memBooks holds the whole financial state used by the service tests:
// every table the billing engine touches, in plain maps. The per-store
// wrapper types below implement the store interfaces against it, so a
// test can run the real orchestration and then inspect the books
// directly.
type memBooks struct {
	nextID     int
	patients   map[int]*models.Patient
	admissions map[int]*models.Admission
	orders     map[int]*models.PathologyOrder
	charges    map[int]*models.Charge
	payments   map[int]*models.Payment
	allocs     map[int]*models.PaymentAllocation
	accounts   map[int]*models.Account // keyed by patient id
	shifts     map[int]*models.Shift
	movements  map[int]*models.CashMovement
	receipts   int
	regSeqs    map[string]int
	audits     []*models.AuditLog
	accountErr error // forced failure for AccountStore.GetByPatient
}

func newMemBooks() *memBooks {
	return &memBooks{
		patients:   map[int]*models.Patient{},
		admissions: map[int]*models.Admission{},
		orders:     map[int]*models.PathologyOrder{},
		charges:    map[int]*models.Charge{},
		payments:   map[int]*models.Payment{},
		allocs:     map[int]*models.PaymentAllocation{},
		accounts:   map[int]*models.Account{},
		shifts:     map[int]*models.Shift{},
		movements:  map[int]*models.CashMovement{},
		regSeqs:    map[string]int{},
	}
}

func (b *memBooks) id() int {
	b.nextID++
	return b.nextID
}

func (b *memBooks) countMovements(movementType string) int {
	var n int
	for _, m := range b.movements {
		if m.MovementType == movementType {
			n++
		}
	}
	return n
}

func newBillingFixture() (*BillingService, *memBooks) {
	books := newMemBooks()
	svc := NewBillingService(
		memDB{books},
		memPatients{books},
		memAdmissions{books},
		memPathology{books},
		memCharges{books},
		memPayments{books},
		memAllocations{books},
		memAccounts{books},
		memShifts{books},
		memMovements{books},
		memRegCounters{books},
		memAudit{books},
	)
	return svc, books
}

// memDB satisfies database.DB. Transactions run the callback against
// the books themselves; rollback is not modeled.
type memDB struct{ *memBooks }

func (d memDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (d memDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

func (d memDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (d memDB) InTx(ctx context.Context, fn func(tx database.Querier) error) error {
	return fn(d)
}

type memPatients struct{ *memBooks }

func (s memPatients) Upsert(ctx context.Context, q database.Querier, data *models.PatientData) (*models.Patient, error) {
	refresh := func(p *models.Patient) *models.Patient {
		p.Name = data.Name
		p.Phone = data.Phone
		p.Age = data.Age
		p.Gender = data.Gender
		p.GuardianName = data.GuardianName
		p.Address = data.Address
		return p
	}
	if data.PatientID != 0 {
		if p, ok := s.patients[data.PatientID]; ok {
			return refresh(p), nil
		}
		return nil, apperrors.NotFoundf("patient %d", data.PatientID)
	}
	if data.Phone != "" {
		for _, p := range s.patients {
			if p.Phone == data.Phone {
				return refresh(p), nil
			}
		}
	}
	p := refresh(&models.Patient{ID: s.id()})
	s.patients[p.ID] = p
	return p, nil
}

func (s memPatients) Get(ctx context.Context, id int) (*models.Patient, error) {
	p, ok := s.patients[id]
	if !ok {
		return nil, apperrors.NotFoundf("patient %d", id)
	}
	return p, nil
}

func (s memPatients) Search(ctx context.Context, term string, limit int) ([]*models.Patient, error) {
	var out []*models.Patient
	for _, p := range s.patients {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(term)) || strings.Contains(p.Phone, term) {
			out = append(out, p)
		}
	}
	return out, nil
}

type memAdmissions struct{ *memBooks }

func (s memAdmissions) Create(ctx context.Context, q database.Querier, a *models.Admission) error {
	a.ID = s.id()
	cp := *a
	s.admissions[a.ID] = &cp
	return nil
}

func (s memAdmissions) Get(ctx context.Context, q database.Querier, id int) (*models.Admission, error) {
	a, ok := s.admissions[id]
	if !ok {
		return nil, apperrors.NotFoundf("admission %d", id)
	}
	cp := *a
	return &cp, nil
}

func (s memAdmissions) Update(ctx context.Context, q database.Querier, a *models.Admission) error {
	if _, ok := s.admissions[a.ID]; !ok {
		return apperrors.NotFoundf("admission %d", a.ID)
	}
	cp := *a
	s.admissions[a.ID] = &cp
	return nil
}

func (s memAdmissions) Delete(ctx context.Context, q database.Querier, id int) error {
	delete(s.admissions, id)
	return nil
}

func (s memAdmissions) List(ctx context.Context, status string, limit, offset int) ([]*models.Admission, error) {
	var out []*models.Admission
	for _, a := range s.admissions {
		if status == "" || a.Status == status {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type memPathology struct{ *memBooks }

func (s memPathology) Create(ctx context.Context, q database.Querier, o *models.PathologyOrder) error {
	o.ID = s.id()
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s memPathology) Get(ctx context.Context, q database.Querier, id int) (*models.PathologyOrder, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, apperrors.NotFoundf("pathology order %d", id)
	}
	cp := *o
	return &cp, nil
}

func (s memPathology) Update(ctx context.Context, q database.Querier, o *models.PathologyOrder) error {
	if _, ok := s.orders[o.ID]; !ok {
		return apperrors.NotFoundf("pathology order %d", o.ID)
	}
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s memPathology) Delete(ctx context.Context, q database.Querier, id int) error {
	delete(s.orders, id)
	return nil
}

func (s memPathology) List(ctx context.Context, limit, offset int) ([]*models.PathologyOrder, error) {
	var out []*models.PathologyOrder
	for _, o := range s.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type memCharges struct{ *memBooks }

func (s memCharges) Create(ctx context.Context, q database.Querier, c *models.Charge) error {
	c.ID = s.id()
	cp := *c
	s.charges[c.ID] = &cp
	return nil
}

func (s memCharges) UpdateAmounts(ctx context.Context, q database.Querier, id int, original, discount, final float64) error {
	c, ok := s.charges[id]
	if !ok {
		return apperrors.NotFoundf("charge %d", id)
	}
	c.OriginalAmount = original
	c.DiscountAmount = discount
	c.FinalAmount = final
	return nil
}

func (s memCharges) GetByRef(ctx context.Context, q database.Querier, ref models.ChargeRef) (*models.Charge, error) {
	charges, _ := s.ListByRef(ctx, q, ref)
	if len(charges) == 0 {
		return nil, apperrors.NotFoundf("charge for %s %d", ref.Type, ref.ID)
	}
	return charges[0], nil
}

func (s memCharges) ListByRef(ctx context.Context, q database.Querier, ref models.ChargeRef) ([]*models.Charge, error) {
	var out []*models.Charge
	for _, c := range s.charges {
		if c.Ref == ref {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memCharges) ListByPatient(ctx context.Context, patientID int) ([]*models.Charge, error) {
	var out []*models.Charge
	for _, c := range s.charges {
		if c.PatientID == patientID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s memCharges) Delete(ctx context.Context, q database.Querier, id int) error {
	delete(s.charges, id)
	return nil
}

type memPayments struct{ *memBooks }

func (s memPayments) NextReceiptNumber(ctx context.Context, q database.Querier) (string, error) {
	s.receipts++
	return regnum.Receipt(s.receipts), nil
}

func (s memPayments) Create(ctx context.Context, q database.Querier, p *models.Payment) error {
	p.ID = s.id()
	cp := *p
	s.payments[p.ID] = &cp
	return nil
}

func (s memPayments) ListByChargeIDs(ctx context.Context, q database.Querier, chargeIDs []int) ([]*models.Payment, error) {
	ids := map[int]bool{}
	for _, a := range s.allocs {
		for _, chargeID := range chargeIDs {
			if a.ChargeID == chargeID {
				ids[a.PaymentID] = true
			}
		}
	}
	var out []*models.Payment
	for id := range ids {
		if p, ok := s.payments[id]; ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memPayments) ListByPatient(ctx context.Context, patientID int) ([]*models.Payment, error) {
	var out []*models.Payment
	for _, p := range s.payments {
		if p.PatientID == patientID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s memPayments) GetByReceiptNumber(ctx context.Context, receiptNumber string) (*models.Payment, error) {
	for _, p := range s.payments {
		if p.ReceiptNumber == receiptNumber {
			return p, nil
		}
	}
	return nil, apperrors.NotFoundf("receipt %s", receiptNumber)
}

func (s memPayments) DeleteByIDs(ctx context.Context, q database.Querier, ids []int) error {
	for _, id := range ids {
		delete(s.payments, id)
	}
	return nil
}

type memAllocations struct{ *memBooks }

func (s memAllocations) Create(ctx context.Context, q database.Querier, a *models.PaymentAllocation) error {
	a.ID = s.id()
	cp := *a
	s.allocs[a.ID] = &cp
	return nil
}

func (s memAllocations) ListByChargeIDs(ctx context.Context, q database.Querier, chargeIDs []int) ([]*models.PaymentAllocation, error) {
	var out []*models.PaymentAllocation
	for _, a := range s.allocs {
		for _, chargeID := range chargeIDs {
			if a.ChargeID == chargeID {
				out = append(out, a)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memAllocations) UpdateAmount(ctx context.Context, q database.Querier, id int, amount float64) error {
	a, ok := s.allocs[id]
	if !ok {
		return apperrors.NotFoundf("allocation %d", id)
	}
	a.AllocatedAmount = amount
	return nil
}

func (s memAllocations) Delete(ctx context.Context, q database.Querier, id int) error {
	delete(s.allocs, id)
	return nil
}

func (s memAllocations) DeleteByChargeIDs(ctx context.Context, q database.Querier, chargeIDs []int) error {
	for id, a := range s.allocs {
		for _, chargeID := range chargeIDs {
			if a.ChargeID == chargeID {
				delete(s.allocs, id)
			}
		}
	}
	return nil
}

type memAccounts struct{ *memBooks }

func (s memAccounts) ApplyDeltas(ctx context.Context, q database.Querier, patientID int, chargeDelta, paidDelta float64) error {
	acct, ok := s.accounts[patientID]
	if !ok {
		acct = &models.Account{ID: s.id(), PatientID: patientID}
		s.accounts[patientID] = acct
	}
	acct.TotalCharges = money.Round(acct.TotalCharges + chargeDelta)
	acct.TotalPaid = money.Round(acct.TotalPaid + paidDelta)
	acct.TotalDue = money.Round(acct.TotalCharges - acct.TotalPaid)
	return nil
}

func (s memAccounts) GetByPatient(ctx context.Context, patientID int) (*models.Account, error) {
	if s.accountErr != nil {
		return nil, s.accountErr
	}
	acct, ok := s.accounts[patientID]
	if !ok {
		return nil, apperrors.NotFoundf("account for patient %d", patientID)
	}
	return acct, nil
}

func (s memAccounts) Reconcile(ctx context.Context) ([]*models.ReconciliationRow, error) {
	return nil, nil
}

type memShifts struct{ *memBooks }

func (s memShifts) EnsureActive(ctx context.Context, q database.Querier, operatorID int) (*models.Shift, error) {
	for _, sh := range s.shifts {
		if sh.OperatorID == operatorID && sh.Status == models.ShiftOpen {
			cp := *sh
			return &cp, nil
		}
	}
	sh := &models.Shift{ID: s.id(), OperatorID: operatorID, Status: models.ShiftOpen}
	s.shifts[sh.ID] = sh
	cp := *sh
	return &cp, nil
}

func (s memShifts) ApplyCashDelta(ctx context.Context, q database.Querier, shiftID int, collectedDelta, refundedDelta float64) error {
	sh, ok := s.shifts[shiftID]
	if !ok || sh.Status != models.ShiftOpen {
		return fmt.Errorf("%w: shift %d", apperrors.ErrShiftClosed, shiftID)
	}
	sh.SystemCash = money.Round(sh.SystemCash + collectedDelta - refundedDelta)
	sh.TotalCollected = money.Round(sh.TotalCollected + collectedDelta)
	sh.TotalRefunded = money.Round(sh.TotalRefunded + refundedDelta)
	return nil
}

func (s memShifts) ReverseCollections(ctx context.Context, q database.Querier, shiftID int, amount float64) error {
	sh, ok := s.shifts[shiftID]
	if !ok {
		return apperrors.NotFoundf("shift %d", shiftID)
	}
	sh.SystemCash = money.Round(sh.SystemCash - amount)
	sh.TotalCollected = money.Round(sh.TotalCollected - amount)
	return nil
}

func (s memShifts) ReverseRefunds(ctx context.Context, q database.Querier, shiftID int, amount float64) error {
	sh, ok := s.shifts[shiftID]
	if !ok {
		return apperrors.NotFoundf("shift %d", shiftID)
	}
	sh.SystemCash = money.Round(sh.SystemCash + amount)
	sh.TotalRefunded = money.Round(sh.TotalRefunded - amount)
	return nil
}

type memMovements struct{ *memBooks }

func (s memMovements) Append(ctx context.Context, q database.Querier, m *models.CashMovement) error {
	m.ID = s.id()
	cp := *m
	s.movements[m.ID] = &cp
	return nil
}

func (s memMovements) ListByChargeIDs(ctx context.Context, q database.Querier, chargeIDs []int) ([]*models.CashMovement, error) {
	var out []*models.CashMovement
	for _, m := range s.movements {
		if m.ChargeID == nil {
			continue
		}
		for _, chargeID := range chargeIDs {
			if *m.ChargeID == chargeID {
				out = append(out, m)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memMovements) DeleteByChargeIDs(ctx context.Context, q database.Querier, chargeIDs []int) error {
	for id, m := range s.movements {
		if m.ChargeID == nil {
			continue
		}
		for _, chargeID := range chargeIDs {
			if *m.ChargeID == chargeID {
				delete(s.movements, id)
			}
		}
	}
	return nil
}

func (s memMovements) DeleteByPaymentIDs(ctx context.Context, q database.Querier, paymentIDs []int) error {
	for id, m := range s.movements {
		if m.PaymentID == nil {
			continue
		}
		for _, paymentID := range paymentIDs {
			if *m.PaymentID == paymentID {
				delete(s.movements, id)
			}
		}
	}
	return nil
}

type memRegCounters struct{ *memBooks }

func (s memRegCounters) Next(ctx context.Context, q database.Querier, deptCode string, yearTwoDigit int) (int, error) {
	key := fmt.Sprintf("%s-%02d", deptCode, yearTwoDigit)
	s.regSeqs[key]++
	return s.regSeqs[key], nil
}

type memAudit struct{ *memBooks }

func (s memAudit) Record(entry *models.AuditLog) {
	s.audits = append(s.audits, entry)
}
