package timeutil

import (
	"time"
)

// BDT is the Bangladesh Standard Time location (UTC+6)
var BDT *time.Location

func init() {
	var err error
	BDT, err = time.LoadLocation("Asia/Dhaka")
	if err != nil {
		// Fallback: create fixed zone if Asia/Dhaka not available
		BDT = time.FixedZone("BDT", 6*60*60) // UTC+6
	}
}

// Now returns the current time in BDT
func Now() time.Time {
	return time.Now().In(BDT)
}

// ToBDT converts any time to BDT
func ToBDT(t time.Time) time.Time {
	return t.In(BDT)
}

// ParseInBDT parses a time string and returns it in BDT
func ParseInBDT(layout, value string) (time.Time, error) {
	t, err := time.ParseInLocation(layout, value, BDT)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// FormatBDT formats a time in BDT using the given layout
func FormatBDT(t time.Time, layout string) string {
	return t.In(BDT).Format(layout)
}

// StartOfDay returns the start of day (00:00:00) in BDT for the given time
func StartOfDay(t time.Time) time.Time {
	bdt := t.In(BDT)
	return time.Date(bdt.Year(), bdt.Month(), bdt.Day(), 0, 0, 0, 0, BDT)
}

// EndOfDay returns the end of day (23:59:59) in BDT for the given time
func EndOfDay(t time.Time) time.Time {
	bdt := t.In(BDT)
	return time.Date(bdt.Year(), bdt.Month(), bdt.Day(), 23, 59, 59, 999999999, BDT)
}

// YearTwoDigit returns the two-digit year in BDT, used in registration numbers
func YearTwoDigit(t time.Time) int {
	return t.In(BDT).Year() % 100
}

// Common layouts for BDT formatting
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04:05"
	DateTimeLayout = "2006-01-02 15:04:05"
	DisplayLayout  = "02 Jan 2006, 03:04 PM"
)
