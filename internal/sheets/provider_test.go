package sheets

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/iwvelando/finance-dashboard/pkg/period"
	"github.com/iwvelando/finance-dashboard/pkg/table"
	"github.com/iwvelando/finance-dashboard/pkg/testutil"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type sheetRows struct {
	name string
	rows [][]interface{}
}

func buildWorkbook(t *testing.T, sheets ...sheetRows) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				t.Fatalf("failed to rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			t.Fatalf("failed to add sheet %q: %v", s.name, err)
		}
		for r, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("invalid coordinates: %v", err)
			}
			values := row
			if err := f.SetSheetRow(s.name, cell, &values); err != nil {
				t.Fatalf("failed to write row %d of %q: %v", r, s.name, err)
			}
		}
	}
	return f
}

func countriesSheet() sheetRows {
	return sheetRows{
		name: "FP Countries",
		rows: [][]interface{}{
			{"", 2024, 2024, 2024, 2023},
			{"", "Jan", "Feb", "Mar", "Jan"},
			{"", "Actual", "Actual", "Actual", "Actual"},
			{"UAE", 10.5, 20, 30, 7},
			{"Oman", "1,000", "", 5},
			{"Qatar"},
		},
	}
}

func pnlSheet() sheetRows {
	return sheetRows{
		name: "FP P&L",
		rows: [][]interface{}{
			{"", 2024},
			{"", "Jan"},
			{"", "Budget"},
			{"Sales", 100},
		},
	}
}

func TestOpenReader(t *testing.T) {
	f := buildWorkbook(t, countriesSheet(), pnlSheet())
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("failed to encode workbook: %v", err)
	}

	p, err := OpenReader(zap.NewNop(), bytes.NewReader(buf.Bytes()), "upload.xlsx")
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	if p.Source() != "upload.xlsx" {
		t.Errorf("unexpected source %q", p.Source())
	}

	names := p.Sheets()
	if len(names) != 2 || names[0] != "FP Countries" || names[1] != "FP P&L" {
		t.Errorf("unexpected sheets %v", names)
	}

	tbl, err := p.Table("fp countries ")
	if err != nil {
		t.Fatalf("Table() error = %v", err)
	}
	if err := tbl.Validate(); err != nil {
		t.Fatalf("loaded table is invalid: %v", err)
	}

	q1 := period.Spec{Year: 2024, Token: "Q1", RecordType: "Actual"}
	tests := []struct {
		entity string
		want   table.Sum
	}{
		{"UAE", table.Sum{Value: 60.5, Found: true}},
		{"Oman", table.Sum{Value: 1005, Found: true}},
		{"Qatar", table.Sum{}},
	}
	for _, tt := range tests {
		t.Run(tt.entity, func(t *testing.T) {
			got, err := table.SumEntity(tbl, tt.entity, q1)
			if err != nil {
				t.Fatalf("SumEntity() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("SumEntity(%q) = %+v, want %+v", tt.entity, got, tt.want)
			}
		})
	}

	prior := period.Spec{Year: 2023, Token: "Jan", RecordType: "Actual"}
	got, err := table.SumTotal(tbl, prior)
	if err != nil {
		t.Fatalf("SumTotal() error = %v", err)
	}
	if got.Value != 7 {
		t.Errorf("expected 2023 total 7, got %v", got.Value)
	}
}

func TestOpenReaderDateFormattedMonthHeaders(t *testing.T) {
	f := buildWorkbook(t, sheetRows{
		name: "FP P&L",
		rows: [][]interface{}{
			{"", 2024, 2024, 2024},
			{""},
			{"", "Actual", "Actual", "Actual"},
			{"Sales", 100, 200, 300},
		},
	})
	monthFormat := "mmm"
	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &monthFormat})
	if err != nil {
		t.Fatalf("failed to create style: %v", err)
	}
	for i, month := range []time.Month{time.January, time.February, time.April} {
		cell, _ := excelize.CoordinatesToCellName(i+2, 2)
		if err := f.SetCellValue("FP P&L", cell, time.Date(2024, month, 1, 0, 0, 0, 0, time.UTC)); err != nil {
			t.Fatalf("failed to set %s: %v", cell, err)
		}
		if err := f.SetCellStyle("FP P&L", cell, cell, style); err != nil {
			t.Fatalf("failed to style %s: %v", cell, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("failed to encode workbook: %v", err)
	}

	p, err := OpenReader(zap.NewNop(), bytes.NewReader(buf.Bytes()), "dates.xlsx")
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	tbl, err := p.Table("FP P&L")
	if err != nil {
		t.Fatalf("Table() error = %v", err)
	}
	if _, month, _ := tbl.Header(1); month != "Jan" {
		t.Errorf("expected month header Jan, got %#v", month)
	}

	got, err := table.SumEntity(tbl, "Sales", period.Spec{Year: 2024, Token: "Q1", RecordType: "Actual"})
	if err != nil {
		t.Fatalf("SumEntity() error = %v", err)
	}
	if got != (table.Sum{Value: 300, Found: true}) {
		t.Errorf("expected Jan+Feb = 300, got %+v", got)
	}
}

func TestOverlay(t *testing.T) {
	got := overlay([]string{"", "45292", "Feb"}, []string{"", "Jan", "", "Mar"})
	want := []string{"", "Jan", "Feb", "Mar"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("overlay() = %v, want %v", got, want)
	}
}

func TestOpenFile(t *testing.T) {
	f := buildWorkbook(t, pnlSheet())
	path := filepath.Join(t.TempDir(), "dashboard.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save workbook: %v", err)
	}

	p, err := OpenFile(nil, path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	tbl, err := p.Table("FP P&L")
	if err != nil {
		t.Fatalf("Table() error = %v", err)
	}
	if name := tbl.EntityName(3); name != "Sales" {
		t.Errorf("expected entity Sales, got %q", name)
	}
}

func TestOpenFileMissing(t *testing.T) {
	if _, err := OpenFile(zap.NewNop(), filepath.Join(t.TempDir(), "missing.xlsx")); err == nil {
		t.Error("expected an error for a missing workbook")
	}
}

func TestOpenReaderInvalid(t *testing.T) {
	if _, err := OpenReader(zap.NewNop(), bytes.NewReader([]byte("not a workbook")), "bad"); err == nil {
		t.Error("expected an error for invalid workbook bytes")
	}
}

func TestConvertRows(t *testing.T) {
	rows := convertRows([][]string{
		{"", "2024", "2024"},
		{"", "Jan"},
		{"", "Actual", "Actual"},
		{"123 Trading", " 42 ", "n/a", ""},
	})

	if len(rows[1]) != 3 {
		t.Errorf("expected header rows padded to 3 cells, got %d", len(rows[1]))
	}
	if rows[0][1] != "2024" {
		t.Errorf("header cells should stay text, got %#v", rows[0][1])
	}
	if rows[3][0] != "123 Trading" {
		t.Errorf("names should stay text, got %#v", rows[3][0])
	}
	if rows[3][1] != 42.0 {
		t.Errorf("expected parsed number 42, got %#v", rows[3][1])
	}
	if rows[3][2] != "n/a" {
		t.Errorf("expected text to be kept, got %#v", rows[3][2])
	}
	if rows[3][3] != nil {
		t.Errorf("expected blank cell to be nil, got %#v", rows[3][3])
	}
}

func TestMemoryProvider(t *testing.T) {
	tbl := testutil.BuildTable("FP Customers",
		testutil.Months(2024, "Actual", "Jan"),
		testutil.Values("Alpha", 1),
	)
	p := NewMemoryProvider(tbl)

	var provider Provider = p
	got, err := provider.Table("FP CUSTOMERS")
	if err != nil {
		t.Fatalf("Table() error = %v", err)
	}
	if got != tbl {
		t.Error("expected the same table instance")
	}

	_, err = provider.Table("FP Countries")
	if !errors.Is(err, ErrSheetNotFound) {
		t.Errorf("expected ErrSheetNotFound, got %v", err)
	}
	if names := provider.Sheets(); len(names) != 1 || names[0] != "FP Customers" {
		t.Errorf("unexpected sheets %v", names)
	}
}
