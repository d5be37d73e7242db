// Package money converts between major currency units and integer cents.
//
// All monetary computation in this codebase happens in int64 minor units;
// conversion to and from major units happens only at the boundary (HTTP
// payloads, report responses). None of these functions error: malformed
// inputs collapse to safe defaults.
package money

import "math"

// ToCents converts a major-unit amount to integer cents, rounding half
// away from zero. NaN and infinite inputs are treated as zero.
func ToCents(amount float64) int64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	return int64(math.Round(amount * 100))
}

// FromCents converts integer cents back to a major-unit amount.
func FromCents(cents int64) float64 {
	return float64(cents) / 100
}

// ClampNonNegative floors a cent amount at zero.
func ClampNonNegative(cents int64) int64 {
	if cents < 0 {
		return 0
	}
	return cents
}
