package service

import "math"

// MonthlyPayment computes the fixed periodic payment that retires principal
// plus compound interest over the given number of months.
//
// Degenerate inputs (principal or months <= 0) return 0 rather than an
// error: a zero payment is the correct answer for "nothing to finance".
// A zero rate is straight-line division, which also keeps the amortization
// formula away from its division by zero.
//
// The result is intentionally not rounded. Rounding happens once, at
// presentation or audit-log time, so reusing the value in follow-up
// arithmetic does not compound rounding error.
func MonthlyPayment(principal, annualRate float64, months int) float64 {
	if principal <= 0 || months <= 0 {
		return 0
	}
	if annualRate == 0 {
		return principal / float64(months)
	}

	monthlyRate := annualRate / 12
	factor := math.Pow(1+monthlyRate, float64(months))
	return principal * monthlyRate * factor / (factor - 1)
}
