// Package validation provides common validation utilities.
package validation

import (
	"fmt"
	"strings"

	"github.com/iwvelando/finance-dashboard/pkg/constants"
	"github.com/samber/lo"
)

var outputFormats = []string{
	constants.OutputFormatPretty,
	constants.OutputFormatCSV,
	constants.OutputFormatYAML,
}

var infiniteStyles = []string{
	constants.InfiniteStyleInfinity,
	constants.InfiniteStyleCapped,
}

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	if !lo.Contains(outputFormats, format) {
		return fmt.Errorf("expected output format of %s, got %q",
			strings.Join(outputFormats, ", "), format)
	}
	return nil
}

// ValidateInfiniteStyle checks how deltas from a zero base are to be displayed.
func ValidateInfiniteStyle(style string) error {
	if !lo.Contains(infiniteStyles, style) {
		return fmt.Errorf("expected infinite style of %s, got %q",
			strings.Join(infiniteStyles, " or "), style)
	}
	return nil
}
