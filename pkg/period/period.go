// Package period resolves reporting periods (a month, quarter, half-year,
// full year or a custom month list) into the set of calendar months they
// cover and matches spreadsheet column headers against them.
package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/iwvelando/finance-dashboard/pkg/constants"
	"github.com/samber/lo"
	"github.com/spf13/cast"
)

// ErrEmptyCustomRange is returned when a custom range carries no months.
var ErrEmptyCustomRange = errors.New("custom period range has no months")

// Spec describes a reporting period.
type Spec struct {
	Year          int      `mapstructure:"year" yaml:"year" json:"year"`
	Token         string   `mapstructure:"token" yaml:"token" json:"token"`
	RecordType    string   `mapstructure:"recordType" yaml:"recordType" json:"recordType"`
	Months        []string `mapstructure:"months" yaml:"months,omitempty" json:"months,omitempty"`
	IsCustomRange bool     `mapstructure:"isCustomRange" yaml:"isCustomRange,omitempty" json:"isCustomRange,omitempty"`
	DisplayName   string   `mapstructure:"displayName" yaml:"displayName,omitempty" json:"displayName,omitempty"`
}

var tokenMonths = map[string][]string{
	constants.TokenQ1:   constants.Months[0:3],
	constants.TokenQ2:   constants.Months[3:6],
	constants.TokenQ3:   constants.Months[6:9],
	constants.TokenQ4:   constants.Months[9:12],
	constants.TokenHY1:  constants.Months[0:6],
	constants.TokenH1:   constants.Months[0:6],
	constants.TokenHY2:  constants.Months[6:12],
	constants.TokenH2:   constants.Months[6:12],
	constants.TokenYear: constants.Months,
}

// ResolveMonths returns the canonical month names covered by spec.
//
// Custom ranges return their own months (deduplicated, input order, blanks
// dropped). Known tokens map to fixed month sets; any other token is taken as
// a single literal month name. A blank token covers no months.
func ResolveMonths(spec Spec) ([]string, error) {
	if spec.IsCustomRange {
		months := lo.FilterMap(spec.Months, func(m string, _ int) (string, bool) {
			canonical := CanonicalMonth(m)
			return canonical, canonical != ""
		})
		if len(months) == 0 {
			return nil, fmt.Errorf("period %q: %w", DisplayName(spec), ErrEmptyCustomRange)
		}
		return lo.Uniq(months), nil
	}

	token := strings.TrimSpace(spec.Token)
	if months, ok := tokenMonths[token]; ok {
		return append([]string(nil), months...), nil
	}
	if token == "" {
		return nil, nil
	}
	return []string{CanonicalMonth(token)}, nil
}

// IsKnownToken reports whether token is a quarter, half-year, year or month name.
func IsKnownToken(token string) bool {
	if _, ok := tokenMonths[strings.TrimSpace(token)]; ok {
		return true
	}
	return lo.Contains(constants.Months, CanonicalMonth(token))
}

// CanonicalMonth maps a month label to its canonical three-letter name
// ("january", "JAN", " Jan " all give "Jan"). Labels that are not months are
// returned trimmed but otherwise unchanged.
func CanonicalMonth(label string) string {
	trimmed := strings.TrimSpace(label)
	if len(trimmed) < 3 {
		return trimmed
	}
	lower := strings.ToLower(trimmed)
	for _, month := range constants.Months {
		short := strings.ToLower(month)
		if lower == short || (strings.HasPrefix(lower, short) && isFullMonthName(lower)) {
			return month
		}
	}
	return trimmed
}

var fullMonthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
	"sept",
}

func isFullMonthName(lower string) bool {
	return lo.Contains(fullMonthNames, lower)
}

// YearEquals compares a header year cell against year loosely, so 2023,
// "2023", 2023.0 and " 2023 " are all equal.
func YearEquals(cell any, year int) bool {
	if cell == nil {
		return false
	}
	if s, ok := cell.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return false
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n == float64(year)
		}
		return s == strconv.Itoa(year)
	}
	n, err := cast.ToFloat64E(cell)
	if err != nil {
		return false
	}
	return n == float64(year)
}

// Matches reports whether a column with the given header triple belongs to spec.
func Matches(spec Spec, year, monthLabel, recordType any) (bool, error) {
	r, err := NewResolver(spec)
	if err != nil {
		return false, err
	}
	return r.Match(year, monthLabel, recordType), nil
}

// Resolver matches header triples against a period whose months have been
// resolved once.
type Resolver struct {
	spec   Spec
	months map[string]struct{}
}

// NewResolver resolves spec's months and returns a reusable matcher.
func NewResolver(spec Spec) (*Resolver, error) {
	months, err := ResolveMonths(spec)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		spec:   spec,
		months: lo.SliceToMap(months, func(m string) (string, struct{}) { return m, struct{}{} }),
	}, nil
}

// Spec returns the period the resolver was built from.
func (r *Resolver) Spec() Spec {
	return r.spec
}

// Match reports whether the header triple satisfies the resolver's period.
// The record type comparison is exact and case-sensitive.
func (r *Resolver) Match(year, monthLabel, recordType any) bool {
	if !YearEquals(year, r.spec.Year) {
		return false
	}
	month := CanonicalMonth(cast.ToString(monthLabel))
	if month == "" {
		return false
	}
	if _, ok := r.months[month]; !ok {
		return false
	}
	return cast.ToString(recordType) == r.spec.RecordType
}

// DisplayName returns the label used for spec in report headers.
func DisplayName(spec Spec) string {
	if spec.DisplayName != "" {
		return spec.DisplayName
	}
	label := strings.TrimSpace(spec.Token)
	if spec.IsCustomRange && len(spec.Months) > 0 {
		first := CanonicalMonth(spec.Months[0])
		last := CanonicalMonth(spec.Months[len(spec.Months)-1])
		label = first
		if first != last {
			label = first + "-" + last
		}
	}
	return strings.TrimSpace(fmt.Sprintf("%s %d %s", label, spec.Year, spec.RecordType))
}
