package money

import "math"

// Epsilon is the tolerance used when comparing monetary values.
// All amounts are stored rounded to 2 decimal places.
const Epsilon = 0.005

// Round rounds an amount to 2 decimal places (taka and paisa).
func Round(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// Equal reports whether two amounts are equal within Epsilon.
func Equal(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// ApplyDiscount computes the discount amount and grand total for a
// pre-discount subtotal. Percentage discount is computed against the
// subtotal; a fixed discount is capped at the subtotal so the grand
// total can never go negative. Only one of pct/fixed is normally set,
// but if both are, the percentage is applied first and the fixed
// amount is capped against the remainder.
func ApplyDiscount(subtotal, pct, fixed float64) (discount, grandTotal float64) {
	subtotal = Round(subtotal)
	if subtotal <= 0 {
		return 0, 0
	}

	if pct > 0 {
		if pct > 100 {
			pct = 100
		}
		discount = Round(subtotal * pct / 100)
	}
	if fixed > 0 {
		remaining := subtotal - discount
		if fixed > remaining {
			fixed = remaining
		}
		discount = Round(discount + fixed)
	}

	grandTotal = Round(subtotal - discount)
	return discount, grandTotal
}
