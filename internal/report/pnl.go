// Package report builds the dashboard's reports from source sheets: a
// divisional P&L statement and per-entity sales rankings, each evaluated for
// a list of periods.
package report

import (
	"fmt"

	"github.com/iwvelando/finance-dashboard/internal/sheets"
	"github.com/iwvelando/finance-dashboard/pkg/delta"
	"github.com/iwvelando/finance-dashboard/pkg/formula"
	"github.com/iwvelando/finance-dashboard/pkg/period"
	"github.com/iwvelando/finance-dashboard/pkg/ratio"
	"github.com/iwvelando/finance-dashboard/pkg/table"
	"go.uber.org/zap"
)

// Figure is a value that may be undefined (a ratio over a zero base).
type Figure struct {
	Value   float64 `json:"value" yaml:"value"`
	Defined bool    `json:"defined" yaml:"defined"`
}

// Change is the delta between two adjacent period columns. Defined is false
// when either side is undefined.
type Change struct {
	delta.Result `yaml:",inline"`
	Defined      bool `json:"defined" yaml:"defined"`
}

func changeBetween(newer, older Figure) Change {
	if !newer.Defined || !older.Defined {
		return Change{}
	}
	return Change{Result: delta.Compute(newer.Value, older.Value), Defined: true}
}

// Line is one row of a P&L statement.
type Line struct {
	Name       string `json:"name" yaml:"name"`
	Calculated bool   `json:"calculated" yaml:"calculated"`

	// Ratio marks rows that are themselves ratios; they carry no % of sales
	// or per-kg figures.
	Ratio bool `json:"ratio,omitempty" yaml:"ratio,omitempty"`

	// Op is the formula operation of calculated lines ("sum", "percent",
	// "per-unit").
	Op string `json:"op,omitempty" yaml:"op,omitempty"`

	Values         []Figure `json:"values" yaml:"values"`
	PercentOfSales []Figure `json:"percentOfSales,omitempty" yaml:"percentOfSales,omitempty"`
	PerKg          []Figure `json:"perKg,omitempty" yaml:"perKg,omitempty"`

	// Changes[i] compares column i with column i+1.
	Changes []Change `json:"changes,omitempty" yaml:"changes,omitempty"`

	// Missing lists, per column, the raw rows that had no data.
	Missing [][]string `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// PnLReport is a P&L statement evaluated for a list of periods.
type PnLReport struct {
	Sheet   string        `json:"sheet" yaml:"sheet"`
	Columns []string      `json:"columns" yaml:"columns"`
	Periods []period.Spec `json:"periods" yaml:"periods"`
	Lines   []Line        `json:"lines" yaml:"lines"`
}

// Line returns the line called name, or nil.
func (r *PnLReport) Line(name string) *Line {
	for i := range r.Lines {
		if r.Lines[i].Name == name {
			return &r.Lines[i]
		}
	}
	return nil
}

// BuildPnL evaluates the statement rows of registry (DefaultRegistry when
// nil) on sheet for every period.
func BuildPnL(logger *zap.Logger, provider sheets.Provider, sheet string, periods []period.Spec, registry *formula.Registry) (*PnLReport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rows := formula.StatementRows()
	if registry == nil {
		registry = formula.DefaultRegistry()
	} else if registry != formula.DefaultRegistry() {
		rows = append(registry.RawInputs(), registry.Names()...)
	}

	tbl, err := loadTable(provider, sheet)
	if err != nil {
		return nil, err
	}

	units := unitRows(registry)
	report := &PnLReport{
		Sheet:   sheet,
		Columns: columnNames(periods),
		Periods: append([]period.Spec(nil), periods...),
		Lines:   make([]Line, len(rows)),
	}
	for i, name := range rows {
		f, isFormula := registry.Lookup(name)
		report.Lines[i] = Line{
			Name:       name,
			Calculated: isFormula,
			Ratio:      isFormula && f.Op != formula.OpSum,
		}
		if isFormula {
			report.Lines[i].Op = f.Op.String()
		}
	}

	for col, spec := range periods {
		ev := formula.NewEvaluator(logger, registry, tbl, spec)
		sales, err := ev.Row(formula.RowSales)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate %s for %s: %w", formula.RowSales, report.Columns[col], err)
		}
		volume, err := ev.Row(formula.RowSalesVolume)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate %s for %s: %w", formula.RowSalesVolume, report.Columns[col], err)
		}

		var incomplete []string
		for i := range report.Lines {
			line := &report.Lines[i]
			r, err := ev.Row(line.Name)
			if err != nil {
				return nil, fmt.Errorf("failed to evaluate %s for %s: %w", line.Name, report.Columns[col], err)
			}
			line.Values = append(line.Values, Figure{Value: r.Value, Defined: !r.Undefined})
			line.Missing = append(line.Missing, r.Missing)
			if len(r.Missing) > 0 && line.Calculated {
				incomplete = append(incomplete, line.Name)
			}

			if line.Ratio || units[line.Name] {
				continue
			}
			pct, ok := ratio.PercentOfBase(r.Value, sales.Value)
			line.PercentOfSales = append(line.PercentOfSales, Figure{Value: pct, Defined: ok})
			perKg, ok := ratio.PerUnit(r.Value, volume.Value)
			line.PerKg = append(line.PerKg, Figure{Value: perKg, Defined: ok})
		}

		if len(incomplete) > 0 {
			logger.Warn("calculated rows use missing inputs",
				zap.String("op", "report.BuildPnL"),
				zap.String("sheet", sheet),
				zap.String("period", report.Columns[col]),
				zap.Strings("rows", incomplete),
			)
		}
		logger.Debug("period evaluated",
			zap.String("op", "report.BuildPnL"),
			zap.String("sheet", sheet),
			zap.String("period", report.Columns[col]),
			zap.Int("formulas", ev.Computations()),
		)
	}

	for i := range report.Lines {
		line := &report.Lines[i]
		for col := 0; col+1 < len(line.Values); col++ {
			line.Changes = append(line.Changes, changeBetween(line.Values[col], line.Values[col+1]))
		}
	}

	logger.Info("P&L built",
		zap.String("op", "report.BuildPnL"),
		zap.String("sheet", sheet),
		zap.Int("lines", len(report.Lines)),
		zap.Int("periods", len(periods)),
	)
	return report, nil
}

// unitRows returns the denominators of per-unit formulas, e.g. the sales
// volume row. They are quantities, not money.
func unitRows(registry *formula.Registry) map[string]bool {
	units := make(map[string]bool)
	for _, name := range registry.Names() {
		f, _ := registry.Lookup(name)
		if f.Op == formula.OpPerUnit && len(f.Terms) == 2 {
			units[f.Terms[1].Row] = true
		}
	}
	return units
}

func loadTable(provider sheets.Provider, sheet string) (*table.Table, error) {
	tbl, err := provider.Table(sheet)
	if err != nil {
		return nil, err
	}
	if err := tbl.Validate(); err != nil {
		return nil, err
	}
	return tbl, nil
}

func columnNames(periods []period.Spec) []string {
	names := make([]string, len(periods))
	for i, spec := range periods {
		names[i] = period.DisplayName(spec)
	}
	return names
}
