package formula

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/iwvelando/finance-dashboard/pkg/period"
	"github.com/iwvelando/finance-dashboard/pkg/table"
	"github.com/iwvelando/finance-dashboard/pkg/testutil"
	"go.uber.org/zap"
)

var jan2024 = period.Spec{Year: 2024, Token: "Jan", RecordType: "Actual"}

func pnlTable(material float64) *table.Table {
	return testutil.BuildTable("FP P&L",
		testutil.Months(2024, "Actual", "Jan", "Feb"),
		testutil.Values(RowSales, 1000, 1100),
		testutil.Values(RowSalesVolume, 200, 210),
		testutil.Values(RowMaterial, material, 420),
		testutil.Values(RowLabour, 100, 100),
		testutil.Values(RowDepreciation, 50, 50),
		testutil.Values(RowManufacturingOverheads, 50, 55),
		testutil.Values(RowSellingExpenses, 80, 85),
		testutil.Values(RowAdministrationExpenses, 70, 70),
		testutil.Values(RowOtherIncome, 10, 0),
		testutil.Values(RowFinanceCosts, 20, 20),
		testutil.Values(RowTax, 15, 18),
	)
}

func evaluateAll(t *testing.T, tbl *table.Table, spec period.Spec) map[string]float64 {
	t.Helper()
	e := NewEvaluator(zap.NewNop(), DefaultRegistry(), tbl, spec)
	out := make(map[string]float64)
	for _, name := range DefaultRegistry().Names() {
		r, err := e.Evaluate(name)
		if err != nil {
			t.Fatalf("Evaluate(%s) error = %v", name, err)
		}
		out[name] = r.Value
	}
	return out
}

func TestDefaultRegistryValues(t *testing.T) {
	got := evaluateAll(t, pnlTable(400), jan2024)

	expected := map[string]float64{
		RowCostOfSales:        600,
		RowGrossProfit:        400,
		RowGrossProfitPct:     40,
		RowContributionMargin: 600,
		RowOperatingExpenses:  150,
		RowOperatingProfit:    260,
		RowEBITDA:             310,
		RowProfitBeforeTax:    240,
		RowNetProfit:          225,
		RowNetProfitPct:       22.5,
		RowSalesPerKg:         5,
	}
	for name, want := range expected {
		if math.Abs(got[name]-want) > 1e-9 {
			t.Errorf("%s = %v, expected %v", name, got[name], want)
		}
	}
	if len(got) != len(expected) {
		t.Errorf("evaluated %d formulas, expected %d", len(got), len(expected))
	}
}

func TestUpstreamChangePropagatesToDependentsOnly(t *testing.T) {
	before := evaluateAll(t, pnlTable(400), jan2024)
	after := evaluateAll(t, pnlTable(500), jan2024)

	dependents := make(map[string]bool)
	for _, name := range DefaultRegistry().Dependents(RowMaterial) {
		dependents[name] = true
	}
	if len(dependents) == 0 {
		t.Fatalf("Dependents(%s) returned nothing", RowMaterial)
	}

	for _, name := range DefaultRegistry().Names() {
		changed := before[name] != after[name]
		if dependents[name] && !changed {
			t.Errorf("%s depends on %s but did not change (%v)", name, RowMaterial, before[name])
		}
		if !dependents[name] && changed {
			t.Errorf("%s does not depend on %s but changed from %v to %v", name, RowMaterial, before[name], after[name])
		}
	}

	if after[RowNetProfit] != 125 {
		t.Errorf("%s after change = %v, expected 125", RowNetProfit, after[RowNetProfit])
	}
}

func TestDependents(t *testing.T) {
	got := DefaultRegistry().Dependents(RowSalesVolume)
	if !reflect.DeepEqual(got, []string{RowSalesPerKg}) {
		t.Errorf("Dependents(%s) = %v, expected [%s]", RowSalesVolume, got, RowSalesPerKg)
	}
	if got := DefaultRegistry().Dependents("Unrelated"); len(got) != 0 {
		t.Errorf("Dependents(Unrelated) = %v, expected none", got)
	}
}

func TestMemoisationWithinEvaluator(t *testing.T) {
	registry, err := NewRegistry(
		Sum("Top", Plus("X"), Plus("W")),
		Sum("X", Plus("Y"), Plus("B")),
		Sum("W", Plus("Y"), Minus("A")),
		Sum("Y", Plus("A"), Plus("B")),
	)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	tbl := testutil.BuildTable("graph", testutil.Months(2024, "Actual", "Jan"),
		testutil.Values("A", 2),
		testutil.Values("B", 3),
	)

	e := NewEvaluator(nil, registry, tbl, jan2024)
	r, err := e.Evaluate("Top")
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	// Y = 5, X = 8, W = 3, Top = 11
	if r.Value != 11 {
		t.Errorf("Top = %v, expected 11", r.Value)
	}
	if e.Computations() != 4 {
		t.Errorf("Computations() = %d, expected 4 (Y shared by X and W)", e.Computations())
	}

	if _, err := e.Evaluate("y"); err != nil {
		t.Fatalf("Evaluate(y) error = %v", err)
	}
	if e.Computations() != 4 {
		t.Errorf("re-evaluating a memoised formula recomputed it")
	}

	other := NewEvaluator(nil, registry, tbl, period.Spec{Year: 2024, Token: "Feb", RecordType: "Actual"})
	r, err = other.Evaluate("Top")
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if r.Value != 0 || other.Computations() != 4 {
		t.Errorf("fresh evaluator for another period = %v after %d computations", r.Value, other.Computations())
	}
}

func TestMissingInputsPropagateAsZero(t *testing.T) {
	tbl := testutil.BuildTable("partial", testutil.Months(2024, "Actual", "Jan"),
		testutil.Values(RowSales, 1000),
		testutil.Values(RowMaterial, 400),
		testutil.Row{Name: RowLabour, Values: []any{"n/a"}},
	)

	e := NewEvaluator(nil, DefaultRegistry(), tbl, jan2024)
	r, err := e.Evaluate(RowGrossProfit)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if r.Value != 600 {
		t.Errorf("%s = %v, expected 600", RowGrossProfit, r.Value)
	}
	expectedMissing := []string{RowLabour, RowDepreciation, RowManufacturingOverheads}
	if !reflect.DeepEqual(r.Missing, expectedMissing) {
		t.Errorf("Missing = %v, expected %v", r.Missing, expectedMissing)
	}
	if r.Complete() {
		t.Errorf("Complete() = true with missing inputs")
	}

	cm, err := e.Evaluate(RowContributionMargin)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !cm.Complete() || cm.Value != 600 {
		t.Errorf("%s = %+v, expected complete 600", RowContributionMargin, cm)
	}
}

func TestRatioWithZeroDenominator(t *testing.T) {
	tbl := testutil.BuildTable("zero", testutil.Months(2024, "Actual", "Jan"),
		testutil.Values(RowSales, 0),
		testutil.Values(RowMaterial, 10),
	)
	e := NewEvaluator(nil, DefaultRegistry(), tbl, jan2024)

	gp, err := e.Evaluate(RowGrossProfitPct)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if gp.Value != 0 || !gp.Undefined {
		t.Errorf("%s = %+v, expected undefined 0", RowGrossProfitPct, gp)
	}

	perKg, err := e.Evaluate(RowSalesPerKg)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !perKg.Undefined {
		t.Errorf("%s with no volume should be undefined", RowSalesPerKg)
	}
}

func TestEvaluateErrors(t *testing.T) {
	if _, err := Evaluate(DefaultRegistry(), RowSales, pnlTable(400), jan2024); !errors.Is(err, ErrUnknownFormula) {
		t.Errorf("Evaluate(raw row) expected ErrUnknownFormula, got %v", err)
	}

	bad := table.New("bad", [][]table.Cell{{"", 2024}})
	_, err := Evaluate(DefaultRegistry(), RowGrossProfit, bad, jan2024)
	var shapeErr *table.ShapeError
	if !errors.As(err, &shapeErr) {
		t.Errorf("Evaluate() on malformed table expected *table.ShapeError, got %v", err)
	}

	v, err := Evaluate(nil, RowGrossProfit, pnlTable(400), jan2024)
	if err != nil || v != 400 {
		t.Errorf("Evaluate() with default registry = (%v, %v), expected (400, nil)", v, err)
	}
}

func TestEvaluatorRowReadsRawRows(t *testing.T) {
	e := NewEvaluator(nil, nil, pnlTable(400), period.Spec{Year: 2024, Token: "Q1", RecordType: "Actual"})
	r, err := e.Row("sales")
	if err != nil {
		t.Fatalf("Row() error = %v", err)
	}
	if r.Value != 2100 || !r.Complete() {
		t.Errorf("Row(sales) = %+v, expected complete 2100", r)
	}

	r, err = e.Row("Royalties")
	if err != nil {
		t.Fatalf("Row() error = %v", err)
	}
	if r.Value != 0 || !reflect.DeepEqual(r.Missing, []string{"Royalties"}) {
		t.Errorf("Row(Royalties) = %+v, expected missing", r)
	}
}

func TestNewRegistryValidation(t *testing.T) {
	tests := []struct {
		name     string
		formulas []Formula
		isCycle  bool
	}{
		{"Direct cycle", []Formula{Sum("A", Plus("B")), Sum("B", Plus("A"))}, true},
		{"Self reference", []Formula{Sum("A", Plus("A"), Plus("X"))}, true},
		{"Indirect cycle", []Formula{Sum("A", Plus("B")), Sum("B", Plus("C")), Percent("C", "A", "X")}, true},
		{"Case insensitive cycle", []Formula{Sum("Alpha", Plus("beta")), Sum("Beta", Plus("ALPHA"))}, true},
		{"Duplicate", []Formula{Sum("A", Plus("X")), Sum("a", Plus("Y"))}, false},
		{"Empty name", []Formula{Sum(" ", Plus("X"))}, false},
		{"No terms", []Formula{Sum("A")}, false},
		{"Ratio arity", []Formula{{Name: "A", Op: OpPercent, Terms: []Term{Plus("X")}}}, false},
		{"Unknown op", []Formula{{Name: "A", Op: Op(42), Terms: []Term{Plus("X")}}}, false},
		{"Empty term", []Formula{Sum("A", Plus(""))}, false},
		{"Unsigned sum term", []Formula{Sum("A", Plus("X"), Term{Row: "Y"})}, false},
		{"Scaled sum term", []Formula{Sum("A", Term{Row: "X", Sign: 2})}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.formulas...)
			if err == nil {
				t.Fatalf("NewRegistry() expected error but got none")
			}
			if errors.Is(err, ErrCycle) != tt.isCycle {
				t.Errorf("NewRegistry() error = %v, cycle expected = %v", err, tt.isCycle)
			}
		})
	}
}

func TestRegistryOrderRespectsDependencies(t *testing.T) {
	r := DefaultRegistry()
	position := make(map[string]int)
	for i, name := range r.Names() {
		position[name] = i
	}
	for _, name := range r.Names() {
		f, _ := r.Lookup(name)
		for _, input := range f.Inputs() {
			if p, isFormula := position[input]; isFormula && p > position[name] {
				t.Errorf("%s is ordered before its input %s", name, input)
			}
		}
	}

	raw := r.RawInputs()
	if len(raw) != 11 {
		t.Errorf("RawInputs() = %v, expected 11 raw rows", raw)
	}
}

func TestStatementRowsCoverRegistry(t *testing.T) {
	rows := make(map[string]bool)
	for _, name := range StatementRows() {
		rows[name] = true
	}
	for _, name := range DefaultRegistry().Names() {
		if !rows[name] {
			t.Errorf("StatementRows() is missing calculated row %s", name)
		}
	}
	for _, name := range DefaultRegistry().RawInputs() {
		if !rows[name] {
			t.Errorf("StatementRows() is missing raw row %s", name)
		}
	}
}
