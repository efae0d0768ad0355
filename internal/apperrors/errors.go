package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the billing engine. Handlers map these to HTTP
// statuses; everything else is treated as an internal error.
var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDateOutOfRange    = errors.New("date out of range")
	ErrShiftClosed       = errors.New("shift closed")
	ErrConflict          = errors.New("concurrency conflict")
)

// Validationf wraps ErrValidation with a user-facing message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

// NotFoundf wraps ErrNotFound with a user-facing message.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrNotFound}, args...)...)
}

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool   { return errors.Is(err, ErrConflict) }
