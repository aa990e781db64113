// Package sheets supplies the engine with source tables. A Provider hands out
// one table.Table per sheet; the engine itself never sees the file format.
package sheets

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/finance-dashboard/pkg/constants"
	"github.com/iwvelando/finance-dashboard/pkg/table"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ErrSheetNotFound is returned when a provider has no sheet of the requested name.
var ErrSheetNotFound = errors.New("sheet not found")

// Provider supplies tables by sheet name.
type Provider interface {
	Table(sheet string) (*table.Table, error)
	Sheets() []string
}

// sheetSet holds tables keyed by folded sheet name, remembering source order.
type sheetSet struct {
	tables map[string]*table.Table
	names  []string
}

func newSheetSet() sheetSet {
	return sheetSet{tables: make(map[string]*table.Table)}
}

func (s *sheetSet) put(t *table.Table) {
	k := sheetKey(t.Name)
	if _, exists := s.tables[k]; !exists {
		s.names = append(s.names, t.Name)
	}
	s.tables[k] = t
}

// Table returns the sheet called name, ignoring case and surrounding spaces.
func (s sheetSet) Table(name string) (*table.Table, error) {
	t, ok := s.tables[sheetKey(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}
	return t, nil
}

// Sheets returns the sheet names in source order.
func (s sheetSet) Sheets() []string {
	return append([]string(nil), s.names...)
}

func sheetKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// MemoryProvider serves tables held in memory.
type MemoryProvider struct {
	sheetSet
}

// NewMemoryProvider returns a provider over tables, keyed by their names.
func NewMemoryProvider(tables ...*table.Table) *MemoryProvider {
	p := &MemoryProvider{sheetSet: newSheetSet()}
	for _, t := range tables {
		p.put(t)
	}
	return p
}

// ExcelProvider serves the sheets of an .xlsx workbook. The workbook is read
// once when the provider is created.
type ExcelProvider struct {
	sheetSet
	source string
}

// OpenFile reads the workbook at path.
func OpenFile(logger *zap.Logger, path string) (*ExcelProvider, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()
	return load(logger, f, path)
}

// OpenReader reads a workbook from r. source names it in logs and errors.
func OpenReader(logger *zap.Logger, r io.Reader, source string) (*ExcelProvider, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook %s: %w", source, err)
	}
	defer f.Close()
	return load(logger, f, source)
}

func load(logger *zap.Logger, f *excelize.File, source string) (*ExcelProvider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &ExcelProvider{sheetSet: newSheetSet(), source: source}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q of %s: %w", name, source, err)
		}
		labels, err := monthLabels(f, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read month headers of sheet %q of %s: %w", name, source, err)
		}
		if len(rows) > constants.MonthRow {
			rows[constants.MonthRow] = overlay(rows[constants.MonthRow], labels)
		}
		t := table.New(name, convertRows(rows))
		p.put(t)
		logger.Debug("sheet loaded",
			zap.String("op", "sheets.load"),
			zap.String("source", source),
			zap.String("sheet", name),
			zap.Int("entities", t.EntityCount()),
			zap.Int("columns", t.Width()),
		)
	}
	logger.Info("workbook loaded",
		zap.String("op", "sheets.load"),
		zap.String("source", source),
		zap.Int("sheets", len(p.names)),
	)
	return p, nil
}

// Source returns the path or label the workbook was read from.
func (p *ExcelProvider) Source() string {
	return p.source
}

// monthLabels returns the month header row as displayed. Month headers are
// often dates formatted as "mmm", whose raw values are date serials.
func monthLabels(f *excelize.File, sheet string) ([]string, error) {
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for i := 0; rows.Next(); i++ {
		if i == constants.MonthRow {
			return rows.Columns()
		}
	}
	return nil, rows.Error()
}

// overlay replaces the cells of raw with the non-blank cells of shown.
func overlay(raw, shown []string) []string {
	if len(shown) > len(raw) {
		raw = append(raw, make([]string, len(shown)-len(raw))...)
	}
	for i, v := range shown {
		if strings.TrimSpace(v) != "" {
			raw[i] = v
		}
	}
	return raw
}

// convertRows turns the raw string grid of a sheet into table cells. Header
// rows keep their text (padded to a common width), names in column 0 stay
// strings, empty cells become nil and other data cells are parsed as numbers
// where possible.
func convertRows(rows [][]string) [][]table.Cell {
	headerWidth := 0
	for i := 0; i < len(rows) && i < constants.HeaderRows; i++ {
		if len(rows[i]) > headerWidth {
			headerWidth = len(rows[i])
		}
	}

	out := make([][]table.Cell, len(rows))
	for i, row := range rows {
		width := len(row)
		if i < constants.HeaderRows {
			width = headerWidth
		}
		cells := make([]table.Cell, width)
		for j, raw := range row {
			cells[j] = convertCell(raw, i < constants.HeaderRows || j < constants.FirstDataColumn)
		}
		out[i] = cells
	}
	return out
}

func convertCell(raw string, text bool) table.Cell {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	if text {
		return trimmed
	}
	if v, ok := table.Number(trimmed); ok {
		return v
	}
	return trimmed
}
