// Package output provides utilities for formatting and displaying dashboard reports.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/iwvelando/finance-dashboard/internal/report"
	"github.com/iwvelando/finance-dashboard/pkg/constants"
	"github.com/iwvelando/finance-dashboard/pkg/delta"
	"github.com/iwvelando/finance-dashboard/pkg/format"
	"github.com/iwvelando/finance-dashboard/pkg/formula"
	"gopkg.in/yaml.v3"
)

// Options controls how figures are displayed.
type Options struct {
	Decimals      int
	InfiniteStyle delta.InfiniteStyle
}

func (o Options) normalized() Options {
	if o.Decimals < 0 {
		o.Decimals = 0
	}
	if o.InfiniteStyle != delta.StyleCapped {
		o.InfiniteStyle = delta.StyleInfinity
	}
	return o
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(d *report.Dashboard, opts Options) {
	writePretty(os.Stdout, d, opts.normalized())
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(d *report.Dashboard, opts Options) error {
	return writeCSV(os.Stdout, d, opts.normalized())
}

// CsvString renders d as CSV and returns it as a string.
func CsvString(d *report.Dashboard, opts Options) (string, error) {
	var sb strings.Builder
	if err := writeCSV(&sb, d, opts.normalized()); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// YamlFormat outputs the full report as YAML.
func YamlFormat(d *report.Dashboard) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}

// Write renders d to stdout in the named format.
func Write(outputFormat string, d *report.Dashboard, opts Options) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		PrettyFormat(d, opts)
		return nil
	case constants.OutputFormatCSV:
		return CsvFormat(d, opts)
	case constants.OutputFormatYAML:
		return YamlFormat(d)
	default:
		return fmt.Errorf("unsupported output format %q", outputFormat)
	}
}

func writePretty(w io.Writer, d *report.Dashboard, opts Options) {
	if d.PnL != nil {
		fmt.Fprintf(w, "--- P&L for division %s (%s) ---\n", d.Division, d.PnL.Sheet)
		tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.Debug)
		header := []string{"Line"}
		for _, col := range d.PnL.Columns {
			header = append(header, col, "% Sales")
		}
		header = append(header, changeHeaders(d.PnL.Columns)...)
		fmt.Fprintln(tw, strings.Join(header, "\t"))

		for _, line := range d.PnL.Lines {
			cells := []string{line.Name}
			for i, v := range line.Values {
				cells = append(cells, lineValue(line, v, opts), percentAt(line.PercentOfSales, i, opts))
			}
			for _, c := range line.Changes {
				cells = append(cells, changeText(c, opts))
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))
		}
		_ = tw.Flush()
		fmt.Fprintln(w)
	}

	for _, r := range d.Rankings {
		title := r.Sheet
		if r.Kind != "" {
			title = fmt.Sprintf("%s (%s)", r.Kind, r.Sheet)
		}
		fmt.Fprintf(w, "--- %s ---\n", title)
		tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.Debug)
		header := []string{"#", "Name"}
		for _, col := range r.Columns {
			header = append(header, col, "Share")
		}
		header = append(header, changeHeaders(r.Columns)...)
		fmt.Fprintln(tw, strings.Join(header, "\t"))

		for i, e := range r.Entities {
			fmt.Fprintln(tw, strings.Join(entityCells(fmt.Sprintf("%d", i+1), e, opts), "\t"))
		}
		if r.Others != nil {
			fmt.Fprintln(tw, strings.Join(entityCells("", *r.Others, opts), "\t"))
		}
		total := []string{"", "Total"}
		for _, v := range r.Totals {
			total = append(total, format.Amount(v, opts.Decimals), format.Percent(100, opts.Decimals))
		}
		for _, c := range r.Changes {
			total = append(total, changeText(c, opts))
		}
		fmt.Fprintln(tw, strings.Join(total, "\t"))
		_ = tw.Flush()
		fmt.Fprintln(w)
	}
}

func entityCells(rank string, e report.RankedEntity, opts Options) []string {
	name := e.Name
	if len(e.Members) > 1 {
		name = fmt.Sprintf("%s (%d names)", e.Name, len(e.Members))
	}
	cells := []string{rank, name}
	for i, v := range e.Values {
		cells = append(cells, format.Amount(v, opts.Decimals), percentAt(e.Shares, i, opts))
	}
	for _, c := range e.Changes {
		cells = append(cells, changeText(c, opts))
	}
	return cells
}

func changeHeaders(columns []string) []string {
	var out []string
	for i := 0; i+1 < len(columns); i++ {
		out = append(out, fmt.Sprintf("%s vs %s", columns[i], columns[i+1]))
	}
	return out
}

func lineValue(line report.Line, v report.Figure, opts Options) string {
	switch line.Op {
	case formula.OpPercent.String():
		return format.PercentRatio(v.Value, v.Defined, opts.Decimals)
	case formula.OpPerUnit.String():
		return format.Ratio(v.Value, v.Defined, 2)
	default:
		return format.Ratio(v.Value, v.Defined, opts.Decimals)
	}
}

// percentAt formats figures[i] as a percentage, or returns "" when the line
// carries no such figures.
func percentAt(figures []report.Figure, i int, opts Options) string {
	if i >= len(figures) {
		return ""
	}
	return format.PercentRatio(figures[i].Value, figures[i].Defined, opts.Decimals)
}

func changeText(c report.Change, opts Options) string {
	if !c.Defined {
		return constants.NotAvailable
	}
	return delta.Arrow(c.Direction) + " " + delta.Format(c.Result, opts.InfiniteStyle)
}

func writeCSV(w io.Writer, d *report.Dashboard, opts Options) error {
	cw := csv.NewWriter(w)

	if d.PnL != nil {
		header := []string{"report", "line"}
		for _, col := range d.PnL.Columns {
			header = append(header, col, col+" % of sales", col+" per kg")
		}
		for _, h := range changeHeaders(d.PnL.Columns) {
			header = append(header, h+" change")
		}
		if err := cw.Write(header); err != nil {
			return err
		}
		for _, line := range d.PnL.Lines {
			record := []string{d.PnL.Sheet, line.Name}
			for i, v := range line.Values {
				record = append(record,
					csvFigure(v, opts),
					csvFigureAt(line.PercentOfSales, i, opts),
					csvFigureAt(line.PerKg, i, opts),
				)
			}
			for _, c := range line.Changes {
				record = append(record, csvChange(c, opts))
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}

	for _, r := range d.Rankings {
		header := []string{"report", "entity", "members"}
		for _, col := range r.Columns {
			header = append(header, col, col+" share")
		}
		for _, h := range changeHeaders(r.Columns) {
			header = append(header, h+" change")
		}
		if err := cw.Write(header); err != nil {
			return err
		}
		entities := append([]report.RankedEntity(nil), r.Entities...)
		if r.Others != nil {
			entities = append(entities, *r.Others)
		}
		for _, e := range entities {
			record := []string{r.Sheet, e.Name, strings.Join(e.Members, "; ")}
			for i, v := range e.Values {
				record = append(record, csvNumber(v, opts), csvFigureAt(e.Shares, i, opts))
			}
			for _, c := range e.Changes {
				record = append(record, csvChange(c, opts))
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func csvNumber(v float64, opts Options) string {
	return fmt.Sprintf("%.*f", opts.Decimals, v)
}

func csvFigure(f report.Figure, opts Options) string {
	if !f.Defined {
		return constants.NotAvailable
	}
	return csvNumber(f.Value, opts)
}

func csvFigureAt(figures []report.Figure, i int, opts Options) string {
	if i >= len(figures) {
		return ""
	}
	return csvFigure(figures[i], opts)
}

func csvChange(c report.Change, opts Options) string {
	if !c.Defined {
		return constants.NotAvailable
	}
	return delta.Format(c.Result, opts.InfiniteStyle)
}
