package table

import (
	"strconv"
	"strings"

	"github.com/iwvelando/finance-dashboard/pkg/constants"
	"github.com/iwvelando/finance-dashboard/pkg/mathutil"
	"github.com/iwvelando/finance-dashboard/pkg/period"
	"github.com/spf13/cast"
)

// Sum is the result of adding up matching cells. Found distinguishes a
// legitimate zero from the absence of any matching data.
type Sum struct {
	Value float64
	Found bool
}

// Add folds other into s.
func (s Sum) Add(other Sum) Sum {
	return Sum{Value: s.Value + other.Value, Found: s.Found || other.Found}
}

// SumEntity adds up the cells of the first row named entityKey across every
// column that belongs to spec.
func SumEntity(t *Table, entityKey string, spec period.Spec) (Sum, error) {
	cols, err := MatchingColumns(t, spec)
	if err != nil {
		return Sum{}, err
	}
	row, ok := t.FindEntity(entityKey)
	if !ok {
		return Sum{}, nil
	}
	return sumColumns(t.Rows[row], cols), nil
}

// SumRow adds up the cells of the entity row at index row across every column
// that belongs to spec.
func SumRow(t *Table, row int, spec period.Spec) (Sum, error) {
	cols, err := MatchingColumns(t, spec)
	if err != nil {
		return Sum{}, err
	}
	if row < constants.HeaderRows || row >= len(t.Rows) {
		return Sum{}, nil
	}
	return sumColumns(t.Rows[row], cols), nil
}

// SumTotal adds up every entity row for spec.
func SumTotal(t *Table, spec period.Spec) (Sum, error) {
	cols, err := MatchingColumns(t, spec)
	if err != nil {
		return Sum{}, err
	}
	var total Sum
	for row := constants.HeaderRows; row < len(t.Rows); row++ {
		total = total.Add(sumColumns(t.Rows[row], cols))
	}
	return total, nil
}

// MatchingColumns validates t and returns the data columns whose header
// triple belongs to spec.
func MatchingColumns(t *Table, spec period.Spec) ([]int, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	resolver, err := period.NewResolver(spec)
	if err != nil {
		return nil, err
	}
	var cols []int
	for col := constants.FirstDataColumn; col < t.Width(); col++ {
		year, month, recordType := t.Header(col)
		if resolver.Match(year, month, recordType) {
			cols = append(cols, col)
		}
	}
	return cols, nil
}

func sumColumns(row []Cell, cols []int) Sum {
	var s Sum
	for _, col := range cols {
		if col >= len(row) {
			continue
		}
		if v, ok := Number(row[col]); ok {
			s.Value += v
			s.Found = true
		}
	}
	return s
}

// Number parses a cell as a finite number. Strings may carry thousands
// separators; blanks, text, NaN and infinities are not numbers.
func Number(c Cell) (float64, bool) {
	switch v := c.(type) {
	case nil:
		return 0, false
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		if s == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil || !mathutil.IsFinite(n) {
			return 0, false
		}
		return n, true
	case bool:
		return 0, false
	}
	n, err := cast.ToFloat64E(c)
	if err != nil || !mathutil.IsFinite(n) {
		return 0, false
	}
	return n, true
}

func cellText(c Cell) string {
	if c == nil {
		return ""
	}
	return cast.ToString(c)
}
