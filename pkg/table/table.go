// Package table defines the three-header-row tabular dataset the dashboard
// reads its figures from and the summation of entity rows over a period.
//
// Row 0 holds the year of each data column, row 1 its month or period label
// and row 2 its record type (Actual, Budget, ...). Column 0 of every later
// row holds the entity name; rows from index 3 onward are entity rows.
package table

import (
	"fmt"
	"strings"

	"github.com/iwvelando/finance-dashboard/pkg/constants"
)

// Cell is a single spreadsheet value: a string, a number or nil.
type Cell = any

// Table is an immutable snapshot of one sheet.
type Table struct {
	Name string
	Rows [][]Cell
}

// ShapeError reports a table that violates the header layout contract.
type ShapeError struct {
	Table  string
	Reason string
}

func (e *ShapeError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("malformed table: %s", e.Reason)
	}
	return fmt.Sprintf("malformed table %q: %s", e.Table, e.Reason)
}

// New returns a table named name holding rows. The rows are not copied and
// must not be modified afterwards.
func New(name string, rows [][]Cell) *Table {
	return &Table{Name: name, Rows: rows}
}

// Validate checks that the table has three header rows of equal length.
func (t *Table) Validate() error {
	if t == nil {
		return &ShapeError{Reason: "nil table"}
	}
	if len(t.Rows) < constants.HeaderRows {
		return &ShapeError{
			Table:  t.Name,
			Reason: fmt.Sprintf("expected %d header rows, got %d", constants.HeaderRows, len(t.Rows)),
		}
	}
	width := len(t.Rows[constants.YearRow])
	for i := 1; i < constants.HeaderRows; i++ {
		if len(t.Rows[i]) != width {
			return &ShapeError{
				Table:  t.Name,
				Reason: fmt.Sprintf("header row %d has %d columns, header row 0 has %d", i, len(t.Rows[i]), width),
			}
		}
	}
	return nil
}

// Width returns the number of columns in the header rows.
func (t *Table) Width() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[constants.YearRow])
}

// EntityCount returns the number of entity rows.
func (t *Table) EntityCount() int {
	if len(t.Rows) <= constants.HeaderRows {
		return 0
	}
	return len(t.Rows) - constants.HeaderRows
}

// Header returns the (year, month label, record type) triple of column col.
func (t *Table) Header(col int) (year, month, recordType Cell) {
	return t.Rows[constants.YearRow][col], t.Rows[constants.MonthRow][col], t.Rows[constants.TypeRow][col]
}

// EntityName returns the trimmed name in column 0 of row, or "" when absent.
func (t *Table) EntityName(row int) string {
	if row < 0 || row >= len(t.Rows) || len(t.Rows[row]) == 0 {
		return ""
	}
	return strings.TrimSpace(cellText(t.Rows[row][0]))
}

// FindEntity returns the index of the first entity row whose name equals key
// ignoring case and surrounding whitespace.
func (t *Table) FindEntity(key string) (int, bool) {
	want := strings.TrimSpace(key)
	for row := constants.HeaderRows; row < len(t.Rows); row++ {
		if strings.EqualFold(t.EntityName(row), want) {
			return row, true
		}
	}
	return 0, false
}

// EntityNames returns the non-blank entity names in row order. Duplicates are
// kept; they are a data-quality condition handled by callers.
func (t *Table) EntityNames() []string {
	var names []string
	for row := constants.HeaderRows; row < len(t.Rows); row++ {
		if name := t.EntityName(row); name != "" {
			names = append(names, name)
		}
	}
	return names
}
