package services

import (
	"context"
	"fmt"
	"time"

	"fnh-backend/internal/apperrors"
	"fnh-backend/internal/models"
	"fnh-backend/internal/money"
	"fnh-backend/internal/repositories"
	"fnh-backend/internal/timeutil"
)

// ShiftService manages cashier sessions. A shift opens implicitly on
// the operator's first cash transaction and closes explicitly with a
// declared cash count.
type ShiftService struct {
	Shifts    *repositories.ShiftRepository
	Movements *repositories.CashMovementRepository
	Audit     *AuditService
}

func NewShiftService(shifts *repositories.ShiftRepository, movements *repositories.CashMovementRepository, audit *AuditService) *ShiftService {
	return &ShiftService{Shifts: shifts, Movements: movements, Audit: audit}
}

// Active returns the operator's open shift, opening one if needed.
func (s *ShiftService) Active(ctx context.Context, operatorID int) (*models.Shift, error) {
	return s.Shifts.EnsureActive(ctx, s.Shifts.DB, operatorID)
}

// Get returns one shift.
func (s *ShiftService) Get(ctx context.Context, id int) (*models.Shift, error) {
	return s.Shifts.Get(ctx, id)
}

// Summary returns a shift with its full cash trail.
func (s *ShiftService) Summary(ctx context.Context, shiftID int) (*models.ShiftSummary, error) {
	shift, err := s.Shifts.Get(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	movements, err := s.Movements.ListByShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	return &models.ShiftSummary{Shift: shift, Movements: movements}, nil
}

// Close ends a shift against the cashier's declared count. The
// deviation between declared and system cash is recorded, never
// silently corrected.
func (s *ShiftService) Close(ctx context.Context, shiftID int, req *models.CloseShiftRequest, operatorID int, operatorName string) (*models.ShiftSummary, error) {
	if req.DeclaredCash < 0 {
		return nil, apperrors.Validationf("declared cash cannot be negative")
	}

	shift, err := s.Shifts.Close(ctx, shiftID, money.Round(req.DeclaredCash))
	if err != nil {
		return nil, err
	}

	var deviation float64
	if shift.Deviation != nil {
		deviation = *shift.Deviation
	}
	s.Audit.Record(&models.AuditLog{
		UserID:      operatorID,
		UserName:    operatorName,
		ActionType:  "close",
		TargetType:  "shift",
		TargetID:    &shift.ID,
		Description: fmt.Sprintf("Closed shift with declared %.2f, deviation %.2f. %s", req.DeclaredCash, deviation, req.Notes),
		Amount:      deviation,
	})

	return s.Summary(ctx, shiftID)
}

// DailyCashReport is the end-of-day view across all shifts of one day.
type DailyCashReport struct {
	Date           string          `json:"date"`
	Shifts         []*models.Shift `json:"shifts"`
	TotalCollected float64         `json:"total_collected"`
	TotalRefunded  float64         `json:"total_refunded"`
	NetCash        float64         `json:"net_cash"`
	TotalDeviation float64         `json:"total_deviation"`
	OpenShifts     int             `json:"open_shifts"`
}

// ReportForDay aggregates every shift opened on the given local day.
func (s *ShiftService) ReportForDay(ctx context.Context, date string) (*DailyCashReport, error) {
	var day time.Time
	if date == "" {
		day = timeutil.Now()
	} else {
		var err error
		day, err = timeutil.ParseInBDT(timeutil.DateLayout, date)
		if err != nil {
			return nil, apperrors.Validationf("invalid date %q, expected YYYY-MM-DD", date)
		}
	}

	shifts, err := s.Shifts.ListForDay(ctx, timeutil.StartOfDay(day), timeutil.EndOfDay(day))
	if err != nil {
		return nil, err
	}

	report := &DailyCashReport{
		Date:   timeutil.FormatBDT(day, timeutil.DateLayout),
		Shifts: shifts,
	}
	for _, sh := range shifts {
		report.TotalCollected += sh.TotalCollected
		report.TotalRefunded += sh.TotalRefunded
		if sh.Deviation != nil {
			report.TotalDeviation += *sh.Deviation
		}
		if sh.Status == models.ShiftOpen {
			report.OpenShifts++
		}
	}
	report.TotalCollected = money.Round(report.TotalCollected)
	report.TotalRefunded = money.Round(report.TotalRefunded)
	report.NetCash = money.Round(report.TotalCollected - report.TotalRefunded)
	report.TotalDeviation = money.Round(report.TotalDeviation)
	return report, nil
}
