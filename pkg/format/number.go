// Package format renders report figures for display.
package format

import (
	"fmt"

	"github.com/iwvelando/finance-dashboard/pkg/constants"
	"github.com/iwvelando/finance-dashboard/pkg/mathutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Amount returns value with thousands separators and the given number of
// decimals (e.g., "-1,234.56"). Negative decimals are treated as zero.
func Amount(value float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	value = mathutil.RoundTo(value, decimals)
	if value == 0 {
		// Drop the sign of negative zero.
		value = 0
	}
	p := message.NewPrinter(language.English)
	return p.Sprintf(fmt.Sprintf("%%.%df", decimals), value)
}

// Percent returns value as a percentage with the given decimals (e.g., "40.0%").
func Percent(value float64, decimals int) string {
	return Amount(value, decimals) + "%"
}

// Ratio formats a value that may be undefined, returning NotAvailable when
// ok is false.
func Ratio(value float64, ok bool, decimals int) string {
	if !ok {
		return constants.NotAvailable
	}
	return Amount(value, decimals)
}

// PercentRatio is Ratio for percentages.
func PercentRatio(value float64, ok bool, decimals int) string {
	if !ok {
		return constants.NotAvailable
	}
	return Percent(value, decimals)
}
