package formula

import "fmt"

// Raw P&L rows as they appear in column 0 of a division's P&L sheet.
const (
	RowSales                  = "Sales"
	RowSalesVolume            = "Sales Volume (Kg)"
	RowMaterial               = "Material"
	RowLabour                 = "Labour"
	RowDepreciation           = "Depreciation"
	RowManufacturingOverheads = "Manufacturing Overheads"
	RowSellingExpenses        = "Selling Expenses"
	RowAdministrationExpenses = "Administration Expenses"
	RowOtherIncome            = "Other Income"
	RowFinanceCosts           = "Finance Costs"
	RowTax                    = "Tax"
)

// Calculated P&L rows.
const (
	RowCostOfSales        = "Cost of Sales"
	RowGrossProfit        = "Gross Profit"
	RowGrossProfitPct     = "Gross Profit %"
	RowContributionMargin = "Contribution Margin"
	RowOperatingExpenses  = "Operating Expenses"
	RowOperatingProfit    = "Operating Profit"
	RowEBITDA             = "EBITDA"
	RowProfitBeforeTax    = "Net Profit Before Tax"
	RowNetProfit          = "Net Profit"
	RowNetProfitPct       = "Net Profit %"
	RowSalesPerKg         = "Sales per Kg"
)

// PnLFormulas returns the calculated rows of the divisional P&L.
func PnLFormulas() []Formula {
	return []Formula{
		Sum(RowCostOfSales,
			Plus(RowMaterial), Plus(RowLabour), Plus(RowDepreciation), Plus(RowManufacturingOverheads)),
		Sum(RowGrossProfit, Plus(RowSales), Minus(RowCostOfSales)),
		Percent(RowGrossProfitPct, RowGrossProfit, RowSales),
		Sum(RowContributionMargin, Plus(RowSales), Minus(RowMaterial)),
		Sum(RowOperatingExpenses, Plus(RowSellingExpenses), Plus(RowAdministrationExpenses)),
		Sum(RowOperatingProfit, Plus(RowGrossProfit), Minus(RowOperatingExpenses), Plus(RowOtherIncome)),
		Sum(RowEBITDA, Plus(RowOperatingProfit), Plus(RowDepreciation)),
		Sum(RowProfitBeforeTax, Plus(RowOperatingProfit), Minus(RowFinanceCosts)),
		Sum(RowNetProfit, Plus(RowProfitBeforeTax), Minus(RowTax)),
		Percent(RowNetProfitPct, RowNetProfit, RowSales),
		PerUnit(RowSalesPerKg, RowSales, RowSalesVolume),
	}
}

var defaultRegistry = mustRegistry(PnLFormulas()...)

func mustRegistry(formulas ...Formula) *Registry {
	r, err := NewRegistry(formulas...)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in formulas: %v", err))
	}
	return r
}

// DefaultRegistry returns the built-in P&L formulas. The registry is
// immutable and safe for concurrent use.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// StatementRows returns the rows of a P&L statement in display order: raw
// rows followed by the calculated rows that build on them.
func StatementRows() []string {
	return []string{
		RowSales,
		RowSalesVolume,
		RowMaterial,
		RowContributionMargin,
		RowLabour,
		RowDepreciation,
		RowManufacturingOverheads,
		RowCostOfSales,
		RowGrossProfit,
		RowGrossProfitPct,
		RowSellingExpenses,
		RowAdministrationExpenses,
		RowOperatingExpenses,
		RowOtherIncome,
		RowOperatingProfit,
		RowEBITDA,
		RowFinanceCosts,
		RowProfitBeforeTax,
		RowTax,
		RowNetProfit,
		RowNetProfitPct,
		RowSalesPerKg,
	}
}
