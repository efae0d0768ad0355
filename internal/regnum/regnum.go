// Package regnum formats the human-readable numbers printed on
// registration slips and money receipts. The functions are pure;
// sequence values come from the database.
package regnum

import "fmt"

// Department codes used in registration numbers.
const (
	DeptAdmission = "IPD"
	DeptPathology = "PAT"
	DeptPharmacy  = "MED"
)

// Format builds a department-coded, year-scoped registration number,
// e.g. Format("IPD", 25, 123) -> "IPD25-000123".
func Format(deptCode string, yearTwoDigit, seq int) string {
	return fmt.Sprintf("%s%02d-%06d", deptCode, yearTwoDigit%100, seq)
}

// Receipt builds a money receipt number, e.g. Receipt(42) -> "RCP-000042".
func Receipt(seq int) string {
	return fmt.Sprintf("RCP-%06d", seq)
}
