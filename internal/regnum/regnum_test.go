package regnum_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fnh-backend/internal/regnum"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, "IPD25-000123", regnum.Format(regnum.DeptAdmission, 25, 123))
	assert.Equal(t, "PAT07-000001", regnum.Format(regnum.DeptPathology, 7, 1))
	// Years are always reduced to two digits.
	assert.Equal(t, "MED26-010000", regnum.Format(regnum.DeptPharmacy, 2026, 10000))
}

func TestReceipt(t *testing.T) {
	assert.Equal(t, "RCP-000042", regnum.Receipt(42))
	assert.Equal(t, "RCP-123456", regnum.Receipt(123456))
}
