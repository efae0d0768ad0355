package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"fnh-backend/internal/config"
	"fnh-backend/internal/timeutil"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jung-kurt/gofpdf/v2"
)

// ReportService renders printable documents and ships the end-of-day
// exports to the backup bucket.
type ReportService struct {
	Accounts *AccountService
	Shifts   *ShiftService
	Backup   *config.Config
}

func NewReportService(accounts *AccountService, shifts *ShiftService, cfg *config.Config) *ReportService {
	return &ReportService{Accounts: accounts, Shifts: shifts, Backup: cfg}
}

// GenerateReceiptPDF renders the printed money receipt for a payment.
func (s *ReportService) GenerateReceiptPDF(ctx context.Context, receiptNumber string) ([]byte, error) {
	payment, err := s.Accounts.VerifyReceipt(ctx, receiptNumber)
	if err != nil {
		return nil, err
	}
	patient, err := s.Accounts.Patients.Get(ctx, payment.PatientID)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(128, 10, "Fatema Nursing Home", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(128, 6, "Money Receipt", "", 1, "C", false, 0, "")
	pdf.CellFormat(128, 6, fmt.Sprintf("Printed: %s", timeutil.FormatBDT(timeutil.Now(), timeutil.DisplayLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(128, 8, fmt.Sprintf("Receipt %s", payment.ReceiptNumber), "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(64, 7, fmt.Sprintf("Patient: %s", patient.Name), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(64, 7, fmt.Sprintf("Phone: %s", patient.Phone), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(64, 7, fmt.Sprintf("Date: %s", timeutil.FormatBDT(payment.CreatedAt, timeutil.DisplayLayout)), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(64, 7, fmt.Sprintf("Method: %s", payment.Method), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(128, 7, fmt.Sprintf("Collected by: %s", payment.CollectedByName), "LRB", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFillColor(200, 255, 200)
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(128, 10, fmt.Sprintf("Amount Received: Tk %.2f", payment.Amount), "1", 1, "C", true, 0, "")

	if payment.Notes != "" {
		pdf.Ln(3)
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(128, 6, fmt.Sprintf("Notes: %s", payment.Notes), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GenerateDailyCashPDF renders the end-of-day cash report across all
// shifts of one local day.
func (s *ReportService) GenerateDailyCashPDF(ctx context.Context, date string) ([]byte, error) {
	report, err := s.Shifts.ReportForDay(ctx, date)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "Fatema Nursing Home - Daily Cash Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Date: %s    Generated: %s", report.Date,
		timeutil.FormatBDT(timeutil.Now(), timeutil.DisplayLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Shift table
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(15, 7, "Shift", "1", 0, "C", true, 0, "")
	pdf.CellFormat(45, 7, "Operator", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Status", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Collected", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Refunded", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "System", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Deviation", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, sh := range report.Shifts {
		deviation := "-"
		if sh.Deviation != nil {
			deviation = fmt.Sprintf("%.2f", *sh.Deviation)
		}
		name := sh.OperatorName
		if len(name) > 22 {
			name = name[:19] + "..."
		}
		pdf.CellFormat(15, 6, fmt.Sprintf("%d", sh.ID), "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, sh.Status, "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", sh.TotalCollected), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.2f", sh.TotalRefunded), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.2f", sh.SystemCash), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, deviation, "1", 1, "R", false, 0, "")
	}
	pdf.Ln(5)

	// Totals
	pdf.SetFont("Arial", "B", 12)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(190, 8, "Day Totals", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(63, 8, fmt.Sprintf("Collected: Tk %.2f", report.TotalCollected), "1", 0, "C", false, 0, "")
	pdf.CellFormat(63, 8, fmt.Sprintf("Refunded: Tk %.2f", report.TotalRefunded), "1", 0, "C", false, 0, "")
	pdf.CellFormat(64, 8, fmt.Sprintf("Net Cash: Tk %.2f", report.NetCash), "1", 1, "C", false, 0, "")

	if report.TotalDeviation < -0.005 || report.TotalDeviation > 0.005 {
		pdf.SetFillColor(255, 200, 200)
	} else {
		pdf.SetFillColor(200, 255, 200)
	}
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(190, 10, fmt.Sprintf("Total Deviation: Tk %.2f", report.TotalDeviation), "1", 1, "C", true, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GenerateStatementPDF renders a patient's charge and payment history.
func (s *ReportService) GenerateStatementPDF(ctx context.Context, patientID int) ([]byte, error) {
	summary, err := s.Accounts.Summary(ctx, patientID)
	if err != nil {
		return nil, err
	}
	charges, payments, err := s.Accounts.Statement(ctx, patientID)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "Fatema Nursing Home - Patient Statement", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", timeutil.FormatBDT(timeutil.Now(), timeutil.DisplayLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Patient", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, fmt.Sprintf("Name: %s", summary.Patient.Name), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Phone: %s", summary.Patient.Phone), "RB", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Charges", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(80, 7, "Description", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Original", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Discount", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 7, "Payable", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, c := range charges {
		desc := c.Description
		if len(desc) > 40 {
			desc = desc[:37] + "..."
		}
		pdf.CellFormat(80, 6, desc, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", c.OriginalAmount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", c.DiscountAmount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", c.FinalAmount), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	if len(payments) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(190, 8, "Payments", "1", 1, "L", true, 0, "")
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(200, 200, 200)
		pdf.CellFormat(45, 7, "Receipt #", "1", 0, "C", true, 0, "")
		pdf.CellFormat(45, 7, "Date", "1", 0, "C", true, 0, "")
		pdf.CellFormat(50, 7, "Method", "1", 0, "C", true, 0, "")
		pdf.CellFormat(50, 7, "Amount", "1", 1, "C", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		for _, p := range payments {
			pdf.CellFormat(45, 6, p.ReceiptNumber, "1", 0, "C", false, 0, "")
			pdf.CellFormat(45, 6, timeutil.FormatBDT(p.CreatedAt, timeutil.DateLayout), "1", 0, "C", false, 0, "")
			pdf.CellFormat(50, 6, p.Method, "1", 0, "C", false, 0, "")
			pdf.CellFormat(50, 6, fmt.Sprintf("%.2f", p.Amount), "1", 1, "R", false, 0, "")
		}
		pdf.Ln(4)
	}

	if summary.Account.TotalDue > 0.005 {
		pdf.SetFillColor(255, 200, 200)
	} else {
		pdf.SetFillColor(200, 255, 200)
	}
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(190, 10, fmt.Sprintf("Balance Due: Tk %.2f", summary.Account.TotalDue), "1", 1, "C", true, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportDailyReport uploads the day's cash report PDF to the backup
// bucket. A missing endpoint disables exports; the day close itself
// never fails on an export error.
func (s *ReportService) ExportDailyReport(ctx context.Context, date string) (string, error) {
	if s.Backup.Backup.Endpoint == "" {
		return "", nil
	}

	pdfBytes, err := s.GenerateDailyCashPDF(ctx, date)
	if err != nil {
		return "", err
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.Backup.Backup.AccessKey,
			s.Backup.Backup.SecretKey,
			"",
		)),
		awsconfig.WithRegion(s.Backup.Backup.Region),
	)
	if err != nil {
		return "", fmt.Errorf("failed to configure backup client: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.Backup.Backup.Endpoint)
	})

	day := date
	if day == "" {
		day = timeutil.FormatBDT(timeutil.Now(), timeutil.DateLayout)
	}
	key := fmt.Sprintf("reports/daily_cash_%s.pdf", day)

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Backup.Backup.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(pdfBytes),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload daily report: %w", err)
	}

	log.Printf("[Report] Exported daily cash report %s (%d bytes)", key, len(pdfBytes))
	return key, nil
}

// ScheduleNightlyExport runs ExportDailyReport shortly after local
// midnight for the day just ended, until ctx is canceled.
func (s *ReportService) ScheduleNightlyExport(ctx context.Context) {
	if s.Backup.Backup.Endpoint == "" {
		log.Println("[Report] Backup endpoint not configured, nightly export disabled")
		return
	}

	go func() {
		for {
			now := timeutil.Now()
			next := timeutil.StartOfDay(now).Add(24*time.Hour + 15*time.Minute)
			select {
			case <-ctx.Done():
				return
			case <-time.After(next.Sub(now)):
			}

			yesterday := timeutil.FormatBDT(timeutil.Now().Add(-12*time.Hour), timeutil.DateLayout)
			exportCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if _, err := s.ExportDailyReport(exportCtx, yesterday); err != nil {
				log.Printf("[Report] Nightly export failed: %v", err)
			}
			cancel()
		}
	}()
}

// DashboardSnapshot is the landing-page aggregate.
type DashboardSnapshot struct {
	Date            string  `json:"date"`
	CashCollected   float64 `json:"cash_collected"`
	CashRefunded    float64 `json:"cash_refunded"`
	NetCash         float64 `json:"net_cash"`
	OpenShifts      int     `json:"open_shifts"`
	DriftedAccounts int     `json:"drifted_accounts"`
}

// Dashboard builds today's snapshot.
func (s *ReportService) Dashboard(ctx context.Context) (*DashboardSnapshot, error) {
	report, err := s.Shifts.ReportForDay(ctx, "")
	if err != nil {
		return nil, err
	}
	drifted, err := s.Accounts.Reconcile(ctx)
	if err != nil {
		return nil, err
	}
	return &DashboardSnapshot{
		Date:            report.Date,
		CashCollected:   report.TotalCollected,
		CashRefunded:    report.TotalRefunded,
		NetCash:         report.NetCash,
		OpenShifts:      report.OpenShifts,
		DriftedAccounts: len(drifted),
	}, nil
}
