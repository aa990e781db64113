// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"
	"strings"

	"github.com/iwvelando/finance-dashboard/pkg/constants"
	"github.com/iwvelando/finance-dashboard/pkg/period"
	"github.com/samber/lo"
)

var recordTypes = []string{constants.RecordActual, constants.RecordBudget, constants.RecordForecast}

// ValidatePeriod returns warnings for a period selection that is likely to
// match no columns.
func ValidatePeriod(index int, spec period.Spec) []string {
	var warnings []string
	label := fmt.Sprintf("Period %d (%s)", index, period.DisplayName(spec))

	if spec.Year == 0 {
		warnings = append(warnings, fmt.Sprintf("%s has no year", label))
	}

	if spec.IsCustomRange {
		if len(spec.Months) == 0 {
			warnings = append(warnings, fmt.Sprintf("%s is a custom range without months", label))
		}
		for _, m := range spec.Months {
			if !isMonth(m) {
				warnings = append(warnings, fmt.Sprintf("%s lists unknown month '%s'", label, m))
			}
		}
	} else if !period.IsKnownToken(spec.Token) {
		warnings = append(warnings, fmt.Sprintf("%s has unknown token '%s' and is treated as a single month", label, spec.Token))
	}

	if strings.TrimSpace(spec.RecordType) == "" {
		warnings = append(warnings, fmt.Sprintf("%s has no record type", label))
	} else if !lo.Contains(recordTypes, spec.RecordType) {
		warnings = append(warnings, fmt.Sprintf("%s uses uncommon record type '%s'; record types match exactly", label, spec.RecordType))
	}

	return warnings
}

// ValidateTopN warns about ranking sizes that cannot be honoured.
func ValidateTopN(topN int) []string {
	if topN < 0 {
		return []string{fmt.Sprintf("Report topN is negative (%d); all entities will be listed", topN)}
	}
	return nil
}

func isMonth(label string) bool {
	return lo.Contains(constants.Months, period.CanonicalMonth(label))
}
