package testutil

import (
	"bytes"
	"fmt"

	"github.com/iwvelando/finance-dashboard/pkg/table"
	"github.com/xuri/excelize/v2"
)

// Workbook writes tables into a new excelize workbook, one sheet per table in
// the given order. Nil cells are written as empty strings.
func Workbook(tables ...*table.Table) (*excelize.File, error) {
	f := excelize.NewFile()
	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.Name); err != nil {
				return nil, fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return nil, fmt.Errorf("failed to add sheet %q: %w", t.Name, err)
		}
		for r, row := range t.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return nil, err
			}
			values := make([]interface{}, len(row))
			for c, v := range row {
				if v == nil {
					v = ""
				}
				values[c] = v
			}
			if err := f.SetSheetRow(t.Name, cell, &values); err != nil {
				return nil, fmt.Errorf("failed to write row %d of %q: %w", r, t.Name, err)
			}
		}
	}
	return f, nil
}

// WorkbookBytes returns tables encoded as an .xlsx file.
func WorkbookBytes(tables ...*table.Table) ([]byte, error) {
	f, err := Workbook(tables...)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveWorkbook writes tables to an .xlsx file at path.
func SaveWorkbook(path string, tables ...*table.Table) error {
	f, err := Workbook(tables...)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}
