package services

import (
	"context"
	"fmt"
	"time"

	"fnh-backend/internal/apperrors"
	"fnh-backend/internal/database"
	"fnh-backend/internal/metrics"
	"fnh-backend/internal/models"
	"fnh-backend/internal/money"
	"fnh-backend/internal/regnum"
	"fnh-backend/internal/timeutil"
)

// BillingService is the financial engine behind admissions, pathology
// orders and (via PharmacyService) medicine sales. Every operation runs
// in one serializable transaction: the clinical record, its charge, any
// payment with its allocation, the shift cash trail and the patient
// account all commit together or not at all.
type BillingService struct {
	DB          database.DB
	Patients    PatientStore
	Admissions  AdmissionStore
	Pathology   PathologyStore
	Charges     ChargeStore
	Payments    PaymentStore
	Allocations AllocationStore
	Accounts    AccountStore
	Shifts      ShiftStore
	Movements   MovementStore
	RegCounters RegCounterStore
	Audit       AuditRecorder
}

func NewBillingService(
	db database.DB,
	patients PatientStore,
	admissions AdmissionStore,
	pathology PathologyStore,
	charges ChargeStore,
	payments PaymentStore,
	allocations AllocationStore,
	accounts AccountStore,
	shifts ShiftStore,
	movements MovementStore,
	regCounters RegCounterStore,
	audit AuditRecorder,
) *BillingService {
	return &BillingService{
		DB:          db,
		Patients:    patients,
		Admissions:  admissions,
		Pathology:   pathology,
		Charges:     charges,
		Payments:    payments,
		Allocations: allocations,
		Accounts:    accounts,
		Shifts:      shifts,
		Movements:   movements,
		RegCounters: regCounters,
		Audit:       audit,
	}
}

// settlement is the money plan for an edit of a billable record. It is
// computed purely from the old charge state and the restated financials
// before any row is touched.
type settlement struct {
	NewOriginal  float64
	NewDiscount  float64
	NewFinal     float64
	CollectDelta float64 // extra payment to take now
	RefundAmount float64 // cash to hand back now
	ChargeDelta  float64 // signed change to the account's total charges
}

// planSettlement diffs the restated financials against what is already
// on the charge. PaidAmount in an edit restates the TOTAL paid for the
// record, not an increment; the plan collects or refunds the
// difference.
func planSettlement(oldFinal, alreadyPaid float64, fin *models.FinancialData) (settlement, error) {
	subtotal := money.Round(fin.Subtotal())
	for _, li := range fin.LineItems {
		if li.Amount < 0 {
			return settlement{}, apperrors.Validationf("line item %q has a negative amount", li.Description)
		}
	}
	if fin.DiscountPercent < 0 || fin.DiscountFixed < 0 {
		return settlement{}, apperrors.Validationf("discount cannot be negative")
	}

	discount, final := money.ApplyDiscount(subtotal, fin.DiscountPercent, fin.DiscountFixed)

	newPaid := money.Round(fin.PaidAmount)
	if newPaid < 0 {
		return settlement{}, apperrors.Validationf("paid amount cannot be negative")
	}
	if newPaid > final+money.Epsilon {
		return settlement{}, apperrors.Validationf("paid amount %.2f exceeds payable total %.2f", newPaid, final)
	}

	plan := settlement{
		NewOriginal: subtotal,
		NewDiscount: discount,
		NewFinal:    final,
		ChargeDelta: money.Round(final - oldFinal),
	}

	diff := money.Round(newPaid - alreadyPaid)
	switch {
	case diff > money.Epsilon:
		plan.CollectDelta = diff
	case diff < -money.Epsilon:
		plan.RefundAmount = -diff
	}
	return plan, nil
}

// allocationCut is one step of a refund's allocation reduction.
type allocationCut struct {
	ID        int
	NewAmount float64 // 0 means delete the row
}

// planAllocationCuts distributes a refund across a charge's existing
// allocations, newest first, so the remaining allocations always sum to
// the net amount paid on the charge.
func planAllocationCuts(allocs []*models.PaymentAllocation, refund float64) ([]allocationCut, error) {
	var cuts []allocationCut
	remaining := money.Round(refund)

	for i := len(allocs) - 1; i >= 0 && remaining > money.Epsilon; i-- {
		a := allocs[i]
		cut := a.AllocatedAmount
		if cut > remaining {
			cut = remaining
		}
		cuts = append(cuts, allocationCut{ID: a.ID, NewAmount: money.Round(a.AllocatedAmount - cut)})
		remaining = money.Round(remaining - cut)
	}

	if remaining > money.Epsilon {
		return nil, apperrors.Validationf("refund %.2f exceeds the amount paid on this charge", refund)
	}
	return cuts, nil
}

// admissionTransitionAllowed reports whether an admission may move from
// one status to another. Same-status edits are always allowed; a
// canceled admission can only come back by being restored to admitted.
func admissionTransitionAllowed(from, to string) bool {
	if from == to {
		return true
	}
	switch from {
	case models.AdmissionAdmitted:
		return to == models.AdmissionDischarged || to == models.AdmissionCanceled
	case models.AdmissionDischarged:
		return to == models.AdmissionAdmitted || to == models.AdmissionCanceled
	case models.AdmissionCanceled:
		return to == models.AdmissionAdmitted
	}
	return false
}

func validPaymentMethod(m string) bool {
	return m == models.MethodCash || m == models.MethodCard || m == models.MethodMobile
}

// parseDateOrToday parses a YYYY-MM-DD date in clinic local time,
// defaulting to today. Future dates are rejected.
func parseDateOrToday(value string) (time.Time, error) {
	if value == "" {
		return timeutil.StartOfDay(timeutil.Now()), nil
	}
	t, err := timeutil.ParseInBDT(timeutil.DateLayout, value)
	if err != nil {
		return time.Time{}, apperrors.Validationf("invalid date %q, expected YYYY-MM-DD", value)
	}
	if t.After(timeutil.EndOfDay(timeutil.Now())) {
		return time.Time{}, fmt.Errorf("%w: %s is in the future", apperrors.ErrDateOutOfRange, value)
	}
	return t, nil
}

// collect records a payment against a charge inside the caller's
// transaction: receipt number, payment row, allocation, and for cash
// the shift drawer and its trail. Non-cash payments are still tied to
// the operator's shift for attribution but never move drawer cash.
func (s *BillingService) collect(ctx context.Context, tx database.Querier, patientID, chargeID int, amount float64, method string, operatorID int, notes string) (*models.Payment, error) {
	if !validPaymentMethod(method) {
		return nil, apperrors.Validationf("unknown payment method %q", method)
	}

	shift, err := s.Shifts.EnsureActive(ctx, tx, operatorID)
	if err != nil {
		return nil, err
	}

	receiptNo, err := s.Payments.NextReceiptNumber(ctx, tx)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		ReceiptNumber: receiptNo,
		PatientID:     patientID,
		Amount:        amount,
		Method:        method,
		ShiftID:       shift.ID,
		CollectedByID: operatorID,
		Notes:         notes,
	}
	if err := s.Payments.Create(ctx, tx, payment); err != nil {
		return nil, err
	}

	if err := s.Allocations.Create(ctx, tx, &models.PaymentAllocation{
		PaymentID:       payment.ID,
		ChargeID:        chargeID,
		AllocatedAmount: amount,
	}); err != nil {
		return nil, err
	}

	if method == models.MethodCash {
		if err := s.Shifts.ApplyCashDelta(ctx, tx, shift.ID, amount, 0); err != nil {
			return nil, err
		}
		if err := s.Movements.Append(ctx, tx, &models.CashMovement{
			ShiftID:      shift.ID,
			MovementType: models.MovementCollection,
			Amount:       amount,
			PaymentID:    &payment.ID,
			Description:  fmt.Sprintf("Receipt %s", receiptNo),
		}); err != nil {
			return nil, err
		}
	}

	metrics.PaymentsCollectedTotal.WithLabelValues(method).Inc()
	metrics.PaymentsCollectedAmount.WithLabelValues(method).Add(amount)
	return payment, nil
}

// refund hands cash back against a charge: shift drawer, trail entry,
// and allocation cuts so the charge's net paid stays correct. Refunds
// are always cash regardless of how the money originally came in.
func (s *BillingService) refund(ctx context.Context, tx database.Querier, chargeID int, amount float64, operatorID int, description string) error {
	shift, err := s.Shifts.EnsureActive(ctx, tx, operatorID)
	if err != nil {
		return err
	}

	if err := s.Shifts.ApplyCashDelta(ctx, tx, shift.ID, 0, amount); err != nil {
		return err
	}
	if err := s.Movements.Append(ctx, tx, &models.CashMovement{
		ShiftID:      shift.ID,
		MovementType: models.MovementRefund,
		Amount:       amount,
		ChargeID:     &chargeID,
		Description:  description,
	}); err != nil {
		return err
	}

	allocs, err := s.Allocations.ListByChargeIDs(ctx, tx, []int{chargeID})
	if err != nil {
		return err
	}
	cuts, err := planAllocationCuts(allocs, amount)
	if err != nil {
		return err
	}
	for _, cut := range cuts {
		if cut.NewAmount <= money.Epsilon {
			if err := s.Allocations.Delete(ctx, tx, cut.ID); err != nil {
				return err
			}
		} else if err := s.Allocations.UpdateAmount(ctx, tx, cut.ID, cut.NewAmount); err != nil {
			return err
		}
	}

	metrics.RefundsTotal.Inc()
	return nil
}

// createCharge builds and inserts the charge for a new billable record
// and takes the initial payment, returning the created charge.
func (s *BillingService) createCharge(ctx context.Context, tx database.Querier, patientID int, ref models.ChargeRef, description string, fin *models.FinancialData, operatorID int) (*models.Charge, error) {
	plan, err := planSettlement(0, 0, fin)
	if err != nil {
		return nil, err
	}
	if plan.NewFinal <= 0 && plan.NewOriginal <= 0 {
		return nil, apperrors.Validationf("at least one priced line item is required")
	}

	charge := &models.Charge{
		PatientID:      patientID,
		Ref:            ref,
		Description:    description,
		OriginalAmount: plan.NewOriginal,
		DiscountAmount: plan.NewDiscount,
		FinalAmount:    plan.NewFinal,
	}
	if err := s.Charges.Create(ctx, tx, charge); err != nil {
		return nil, err
	}

	if plan.CollectDelta > 0 {
		if _, err := s.collect(ctx, tx, patientID, charge.ID, plan.CollectDelta, fin.PaymentMethod, operatorID, description); err != nil {
			return nil, err
		}
	}

	if err := s.Accounts.ApplyDeltas(ctx, tx, patientID, plan.NewFinal, plan.CollectDelta); err != nil {
		return nil, err
	}

	metrics.ChargesCreatedTotal.WithLabelValues(string(ref.Type)).Inc()
	return charge, nil
}

// settle applies an edit's settlement plan to an existing charge:
// rewrite the amounts, collect or refund the difference, and move the
// account totals by the same deltas.
func (s *BillingService) settle(ctx context.Context, tx database.Querier, charge *models.Charge, plan settlement, fin *models.FinancialData, operatorID int, description string) error {
	if err := s.Charges.UpdateAmounts(ctx, tx, charge.ID, plan.NewOriginal, plan.NewDiscount, plan.NewFinal); err != nil {
		return err
	}

	if plan.CollectDelta > 0 {
		if _, err := s.collect(ctx, tx, charge.PatientID, charge.ID, plan.CollectDelta, fin.PaymentMethod, operatorID, description); err != nil {
			return err
		}
	}
	if plan.RefundAmount > 0 {
		if err := s.refund(ctx, tx, charge.ID, plan.RefundAmount, operatorID, description); err != nil {
			return err
		}
	}

	return s.Accounts.ApplyDeltas(ctx, tx, charge.PatientID, plan.ChargeDelta, plan.CollectDelta-plan.RefundAmount)
}

// paidOnCharge sums the live allocations against a charge.
func (s *BillingService) paidOnCharge(ctx context.Context, tx database.Querier, chargeID int) (float64, error) {
	allocs, err := s.Allocations.ListByChargeIDs(ctx, tx, []int{chargeID})
	if err != nil {
		return 0, err
	}
	var paid float64
	for _, a := range allocs {
		paid += a.AllocatedAmount
	}
	return money.Round(paid), nil
}

// reverseCharges is the cascading financial reversal used by record
// deletion. It walks strictly from the leaves inward: allocations,
// then the shift effects of both collections and refunds, then the
// trail entries, then the payments, then the account totals, and the
// charge rows last. After it returns, the books read as if the record
// never existed; the caller deletes the clinical record itself.
func (s *BillingService) reverseCharges(ctx context.Context, tx database.Querier, patientID int, ref models.ChargeRef) error {
	charges, err := s.Charges.ListByRef(ctx, tx, ref)
	if err != nil {
		return err
	}
	if len(charges) == 0 {
		return nil
	}

	chargeIDs := make([]int, 0, len(charges))
	var finalSum float64
	for _, c := range charges {
		chargeIDs = append(chargeIDs, c.ID)
		finalSum += c.FinalAmount
	}

	allocs, err := s.Allocations.ListByChargeIDs(ctx, tx, chargeIDs)
	if err != nil {
		return err
	}
	var paidSum float64
	for _, a := range allocs {
		paidSum += a.AllocatedAmount
	}

	payments, err := s.Payments.ListByChargeIDs(ctx, tx, chargeIDs)
	if err != nil {
		return err
	}
	refunds, err := s.Movements.ListByChargeIDs(ctx, tx, chargeIDs)
	if err != nil {
		return err
	}

	if err := s.Allocations.DeleteByChargeIDs(ctx, tx, chargeIDs); err != nil {
		return err
	}

	paymentIDs := make([]int, 0, len(payments))
	for _, p := range payments {
		paymentIDs = append(paymentIDs, p.ID)
		if p.Method == models.MethodCash {
			if err := s.Shifts.ReverseCollections(ctx, tx, p.ShiftID, p.Amount); err != nil {
				return err
			}
		}
	}
	for _, m := range refunds {
		if m.MovementType != models.MovementRefund {
			continue
		}
		if err := s.Shifts.ReverseRefunds(ctx, tx, m.ShiftID, m.Amount); err != nil {
			return err
		}
	}

	if err := s.Movements.DeleteByChargeIDs(ctx, tx, chargeIDs); err != nil {
		return err
	}
	if err := s.Movements.DeleteByPaymentIDs(ctx, tx, paymentIDs); err != nil {
		return err
	}
	if err := s.Payments.DeleteByIDs(ctx, tx, paymentIDs); err != nil {
		return err
	}

	if err := s.Accounts.ApplyDeltas(ctx, tx, patientID, -money.Round(finalSum), -money.Round(paidSum)); err != nil {
		return err
	}

	for _, c := range charges {
		if err := s.Charges.Delete(ctx, tx, c.ID); err != nil {
			return err
		}
	}
	return nil
}

// CreateAdmission registers a patient encounter, draws the IPD
// registration number, and books the admission fees in one atomic step.
func (s *BillingService) CreateAdmission(ctx context.Context, req *models.CreateAdmissionRequest, operatorID int, operatorName string) (*models.Admission, error) {
	if req.Patient.Name == "" {
		return nil, apperrors.Validationf("patient name is required")
	}
	admissionDate, err := parseDateOrToday(req.Clinical.AdmissionDate)
	if err != nil {
		return nil, err
	}

	var admission *models.Admission
	err = s.DB.InTx(ctx, func(tx database.Querier) error {
		patient, err := s.Patients.Upsert(ctx, tx, &req.Patient)
		if err != nil {
			return err
		}

		seq, err := s.RegCounters.Next(ctx, tx, regnum.DeptAdmission, timeutil.YearTwoDigit(admissionDate))
		if err != nil {
			return err
		}

		admission = &models.Admission{
			RegNumber:       regnum.Format(regnum.DeptAdmission, timeutil.YearTwoDigit(admissionDate), seq),
			PatientID:       patient.ID,
			PatientName:     patient.Name,
			Status:          models.AdmissionAdmitted,
			Ward:            req.Clinical.Ward,
			BedNumber:       req.Clinical.BedNumber,
			ReferredBy:      req.Clinical.ReferredBy,
			Diagnosis:       req.Clinical.Diagnosis,
			AdmissionDate:   admissionDate,
			CreatedByUserID: operatorID,
		}
		if err := s.Admissions.Create(ctx, tx, admission); err != nil {
			return err
		}

		ref, err := models.NewChargeRef(models.RefAdmission, admission.ID)
		if err != nil {
			return err
		}
		_, err = s.createCharge(ctx, tx, patient.ID, ref,
			fmt.Sprintf("Admission %s", admission.RegNumber), &req.Financials, operatorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Audit.Record(&models.AuditLog{
		UserID:      operatorID,
		UserName:    operatorName,
		ActionType:  "create",
		TargetType:  "admission",
		TargetID:    &admission.ID,
		Description: fmt.Sprintf("Admitted %s (%s)", admission.PatientName, admission.RegNumber),
		Amount:      req.Financials.PaidAmount,
	})
	return admission, nil
}

// EditAdmission restates an admission's clinical and financial data.
// The billing engine settles the money difference; cancel and restore
// travel through the same path with the financials forced to zero or
// re-applied from the request.
func (s *BillingService) EditAdmission(ctx context.Context, id int, req *models.EditAdmissionRequest, operatorID int, operatorName string) (*models.Admission, error) {
	admissionDate, err := parseDateOrToday(req.Clinical.AdmissionDate)
	if err != nil {
		return nil, err
	}

	var admission *models.Admission
	var action string
	var settled settlement
	err = s.DB.InTx(ctx, func(tx database.Querier) error {
		admission, err = s.Admissions.Get(ctx, tx, id)
		if err != nil {
			return err
		}

		newStatus := req.Status
		if newStatus == "" {
			newStatus = admission.Status
		}
		if !admissionTransitionAllowed(admission.Status, newStatus) {
			return apperrors.Validationf("admission cannot move from %s to %s", admission.Status, newStatus)
		}

		switch {
		case newStatus == models.AdmissionCanceled && admission.Status != models.AdmissionCanceled:
			action = "cancel"
		case admission.Status == models.AdmissionCanceled && newStatus != models.AdmissionCanceled:
			action = "restore"
		default:
			action = "edit"
		}

		ref, err := models.NewChargeRef(models.RefAdmission, admission.ID)
		if err != nil {
			return err
		}
		charge, err := s.Charges.GetByRef(ctx, tx, ref)
		if err != nil {
			return err
		}
		alreadyPaid, err := s.paidOnCharge(ctx, tx, charge.ID)
		if err != nil {
			return err
		}

		// A cancellation zeroes the financials; everything collected
		// comes back as a refund through the ordinary settlement path.
		fin := req.Financials
		if newStatus == models.AdmissionCanceled {
			fin = models.FinancialData{PaymentMethod: fin.PaymentMethod}
		}

		settled, err = planSettlement(charge.FinalAmount, alreadyPaid, &fin)
		if err != nil {
			return err
		}
		desc := fmt.Sprintf("Admission %s %s", admission.RegNumber, action)
		if err := s.settle(ctx, tx, charge, settled, &fin, operatorID, desc); err != nil {
			return err
		}

		admission.Status = newStatus
		admission.Ward = req.Clinical.Ward
		admission.BedNumber = req.Clinical.BedNumber
		admission.ReferredBy = req.Clinical.ReferredBy
		admission.Diagnosis = req.Clinical.Diagnosis
		admission.AdmissionDate = admissionDate
		return s.Admissions.Update(ctx, tx, admission)
	})
	if err != nil {
		return nil, err
	}

	s.Audit.Record(&models.AuditLog{
		UserID:      operatorID,
		UserName:    operatorName,
		ActionType:  action,
		TargetType:  "admission",
		TargetID:    &admission.ID,
		Description: fmt.Sprintf("Admission %s: %s", admission.RegNumber, action),
		Amount:      settled.CollectDelta - settled.RefundAmount,
	})
	return admission, nil
}

// DeleteAdmission removes an admission and reverses all of its
// financial history. Cancel is the preferred correction; delete exists
// for records created entirely in error.
func (s *BillingService) DeleteAdmission(ctx context.Context, id int, operatorID int, operatorName string) error {
	var regNumber string
	err := s.DB.InTx(ctx, func(tx database.Querier) error {
		admission, err := s.Admissions.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		regNumber = admission.RegNumber

		ref, err := models.NewChargeRef(models.RefAdmission, admission.ID)
		if err != nil {
			return err
		}
		if err := s.reverseCharges(ctx, tx, admission.PatientID, ref); err != nil {
			return err
		}
		return s.Admissions.Delete(ctx, tx, admission.ID)
	})
	if err != nil {
		return err
	}

	s.Audit.Record(&models.AuditLog{
		UserID:      operatorID,
		UserName:    operatorName,
		ActionType:  "delete",
		TargetType:  "admission",
		TargetID:    &id,
		Description: fmt.Sprintf("Deleted admission %s with full financial reversal", regNumber),
	})
	return nil
}

// GetAdmission returns one admission.
func (s *BillingService) GetAdmission(ctx context.Context, id int) (*models.Admission, error) {
	return s.Admissions.Get(ctx, s.DB, id)
}

// ListAdmissions returns admissions newest first, optionally by status.
func (s *BillingService) ListAdmissions(ctx context.Context, status string, limit, offset int) ([]*models.Admission, error) {
	if status != "" && status != models.AdmissionAdmitted && status != models.AdmissionDischarged && status != models.AdmissionCanceled {
		return nil, apperrors.Validationf("unknown admission status %q", status)
	}
	return s.Admissions.List(ctx, status, limit, offset)
}

// CreatePathologyOrder books a test order. The priced line items double
// as the ordered tests.
func (s *BillingService) CreatePathologyOrder(ctx context.Context, req *models.CreatePathologyOrderRequest, operatorID int, operatorName string) (*models.PathologyOrder, error) {
	if req.Patient.Name == "" {
		return nil, apperrors.Validationf("patient name is required")
	}
	if len(req.Financials.LineItems) == 0 {
		return nil, apperrors.Validationf("at least one test is required")
	}
	sampleDate, err := parseDateOrToday(req.Clinical.SampleDate)
	if err != nil {
		return nil, err
	}
	deliveryDate, err := parseOptionalDate(req.Clinical.DeliveryDate)
	if err != nil {
		return nil, err
	}

	var order *models.PathologyOrder
	err = s.DB.InTx(ctx, func(tx database.Querier) error {
		patient, err := s.Patients.Upsert(ctx, tx, &req.Patient)
		if err != nil {
			return err
		}

		seq, err := s.RegCounters.Next(ctx, tx, regnum.DeptPathology, timeutil.YearTwoDigit(sampleDate))
		if err != nil {
			return err
		}

		order = &models.PathologyOrder{
			RegNumber:       regnum.Format(regnum.DeptPathology, timeutil.YearTwoDigit(sampleDate), seq),
			PatientID:       patient.ID,
			PatientName:     patient.Name,
			ReferredBy:      req.Clinical.ReferredBy,
			SampleDate:      sampleDate,
			DeliveryDate:    deliveryDate,
			Tests:           testsFromLineItems(req.Financials.LineItems),
			CreatedByUserID: operatorID,
		}
		if err := s.Pathology.Create(ctx, tx, order); err != nil {
			return err
		}

		ref, err := models.NewChargeRef(models.RefPathologyOrder, order.ID)
		if err != nil {
			return err
		}
		_, err = s.createCharge(ctx, tx, patient.ID, ref,
			fmt.Sprintf("Pathology %s", order.RegNumber), &req.Financials, operatorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Audit.Record(&models.AuditLog{
		UserID:      operatorID,
		UserName:    operatorName,
		ActionType:  "create",
		TargetType:  "pathology_order",
		TargetID:    &order.ID,
		Description: fmt.Sprintf("Ordered %d tests for %s (%s)", len(order.Tests), order.PatientName, order.RegNumber),
		Amount:      req.Financials.PaidAmount,
	})
	return order, nil
}

// EditPathologyOrder restates an order's tests and financials and
// settles the difference.
func (s *BillingService) EditPathologyOrder(ctx context.Context, id int, req *models.EditPathologyOrderRequest, operatorID int, operatorName string) (*models.PathologyOrder, error) {
	if len(req.Financials.LineItems) == 0 {
		return nil, apperrors.Validationf("at least one test is required")
	}
	sampleDate, err := parseDateOrToday(req.Clinical.SampleDate)
	if err != nil {
		return nil, err
	}
	deliveryDate, err := parseOptionalDate(req.Clinical.DeliveryDate)
	if err != nil {
		return nil, err
	}

	var order *models.PathologyOrder
	var settled settlement
	err = s.DB.InTx(ctx, func(tx database.Querier) error {
		order, err = s.Pathology.Get(ctx, tx, id)
		if err != nil {
			return err
		}

		ref, err := models.NewChargeRef(models.RefPathologyOrder, order.ID)
		if err != nil {
			return err
		}
		charge, err := s.Charges.GetByRef(ctx, tx, ref)
		if err != nil {
			return err
		}
		alreadyPaid, err := s.paidOnCharge(ctx, tx, charge.ID)
		if err != nil {
			return err
		}

		settled, err = planSettlement(charge.FinalAmount, alreadyPaid, &req.Financials)
		if err != nil {
			return err
		}
		desc := fmt.Sprintf("Pathology %s edit", order.RegNumber)
		if err := s.settle(ctx, tx, charge, settled, &req.Financials, operatorID, desc); err != nil {
			return err
		}

		order.ReferredBy = req.Clinical.ReferredBy
		order.SampleDate = sampleDate
		order.DeliveryDate = deliveryDate
		order.Tests = testsFromLineItems(req.Financials.LineItems)
		return s.Pathology.Update(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.Audit.Record(&models.AuditLog{
		UserID:      operatorID,
		UserName:    operatorName,
		ActionType:  "edit",
		TargetType:  "pathology_order",
		TargetID:    &order.ID,
		Description: fmt.Sprintf("Edited pathology order %s", order.RegNumber),
		Amount:      settled.CollectDelta - settled.RefundAmount,
	})
	return order, nil
}

// DeletePathologyOrder removes an order with full financial reversal.
func (s *BillingService) DeletePathologyOrder(ctx context.Context, id int, operatorID int, operatorName string) error {
	var regNumber string
	err := s.DB.InTx(ctx, func(tx database.Querier) error {
		order, err := s.Pathology.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		regNumber = order.RegNumber

		ref, err := models.NewChargeRef(models.RefPathologyOrder, order.ID)
		if err != nil {
			return err
		}
		if err := s.reverseCharges(ctx, tx, order.PatientID, ref); err != nil {
			return err
		}
		return s.Pathology.Delete(ctx, tx, order.ID)
	})
	if err != nil {
		return err
	}

	s.Audit.Record(&models.AuditLog{
		UserID:      operatorID,
		UserName:    operatorName,
		ActionType:  "delete",
		TargetType:  "pathology_order",
		TargetID:    &id,
		Description: fmt.Sprintf("Deleted pathology order %s with full financial reversal", regNumber),
	})
	return nil
}

// GetPathologyOrder returns one order with its test lines.
func (s *BillingService) GetPathologyOrder(ctx context.Context, id int) (*models.PathologyOrder, error) {
	return s.Pathology.Get(ctx, s.DB, id)
}

// ListPathologyOrders returns orders newest first.
func (s *BillingService) ListPathologyOrders(ctx context.Context, limit, offset int) ([]*models.PathologyOrder, error) {
	return s.Pathology.List(ctx, limit, offset)
}

func testsFromLineItems(items []models.LineItem) []*models.PathologyTest {
	tests := make([]*models.PathologyTest, 0, len(items))
	for _, li := range items {
		tests = append(tests, &models.PathologyTest{TestName: li.Description, Fee: money.Round(li.Amount)})
	}
	return tests
}

func parseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := timeutil.ParseInBDT(timeutil.DateLayout, value)
	if err != nil {
		return nil, apperrors.Validationf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return &t, nil
}
