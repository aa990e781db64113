// Package ratio converts absolute figures into percentage-of-base and
// per-unit ratios. Undefined ratios (a zero base) are reported through the
// boolean result; callers decide how to display them.
package ratio

import "github.com/iwvelando/finance-dashboard/pkg/constants"

// PercentOfBase returns value as a percentage of base. ok is false when base
// is zero.
func PercentOfBase(value, base float64) (pct float64, ok bool) {
	if base == 0 {
		return 0, false
	}
	return (value / base) * constants.PercentageMultiplier, true
}

// PerUnit returns value divided by unit, e.g. sales per kilogram. ok is false
// when unit is zero.
func PerUnit(value, unit float64) (perUnit float64, ok bool) {
	if unit == 0 {
		return 0, false
	}
	return value / unit, true
}

// Share returns each value as a percentage of their sum. Entries are
// undefined when the sum is zero.
func Share(values []float64) ([]float64, bool) {
	var total float64
	for _, v := range values {
		total += v
	}
	out := make([]float64, len(values))
	if total == 0 {
		return out, false
	}
	for i, v := range values {
		out[i], _ = PercentOfBase(v, total)
	}
	return out, true
}
