// Package money provides currency and calendar-date formatting helpers.
// This is part of the platform layer and contains no business logic.
package money

import (
	"fmt"
	"math"
	"time"
)

// CurrencySuffix is the fixed suffix appended to rendered amounts.
const CurrencySuffix = "Bs"

// dateLayout is the canonical calendar-date form used across the API.
const dateLayout = "2006-01-02"

// Round2 rounds a value to two decimal places.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// Format renders an amount with exactly two decimals and the currency suffix.
func Format(amount float64) string {
	return fmt.Sprintf("%.2f %s", amount, CurrencySuffix)
}

// FormatPercent renders a fractional rate (0.15) as a percentage ("15.00%").
func FormatPercent(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate*100)
}

// ParseDate parses a canonical YYYY-MM-DD calendar date.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(dateLayout, value)
}

// FormatDate renders a time as a canonical YYYY-MM-DD calendar date.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// DateOnly truncates a time to its calendar date in UTC so that range
// comparisons are chronological rather than lexicographic.
func DateOnly(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// WithinRange reports whether day falls inside [start, end], inclusive on
// both ends. All three values are truncated to calendar dates first.
func WithinRange(day, start, end time.Time) bool {
	d := DateOnly(day)
	return !d.Before(DateOnly(start)) && !d.After(DateOnly(end))
}

// DaysUntil returns the number of whole days from today until the given
// date, rounding partial days up. Returns 0 for dates in the past.
func DaysUntil(today, until time.Time) int {
	diff := DateOnly(until).Sub(DateOnly(today))
	if diff < 0 {
		return 0
	}
	return int(math.Ceil(diff.Hours() / 24))
}
