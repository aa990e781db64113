// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/finance-dashboard/pkg/table"
)

// Column is the header triple of one data column.
type Column struct {
	Year       any
	Month      string
	RecordType string
}

// Months returns one column per month label for year and recordType.
func Months(year any, recordType string, months ...string) []Column {
	cols := make([]Column, len(months))
	for i, m := range months {
		cols[i] = Column{Year: year, Month: m, RecordType: recordType}
	}
	return cols
}

// Row is an entity row: a name followed by one value per column.
type Row struct {
	Name   string
	Values []any
}

// BuildTable assembles a three-header-row table from columns and rows.
func BuildTable(name string, columns []Column, rows ...Row) *table.Table {
	years := []table.Cell{""}
	months := []table.Cell{""}
	types := []table.Cell{""}
	for _, c := range columns {
		years = append(years, c.Year)
		months = append(months, c.Month)
		types = append(types, c.RecordType)
	}

	out := [][]table.Cell{years, months, types}
	for _, r := range rows {
		cells := []table.Cell{r.Name}
		cells = append(cells, r.Values...)
		out = append(out, cells)
	}
	return table.New(name, out)
}

// Values is shorthand for building a Row from float64 figures.
func Values(name string, values ...float64) Row {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return Row{Name: name, Values: cells}
}

// FindByName returns the first element of items whose name (as returned by
// nameOf) equals name, or nil.
func FindByName[T any](items []T, name string, nameOf func(T) string) *T {
	for i := range items {
		if nameOf(items[i]) == name {
			return &items[i]
		}
	}
	return nil
}
