package report

import (
	"fmt"

	"github.com/iwvelando/finance-dashboard/internal/sheets"
	"github.com/iwvelando/finance-dashboard/pkg/constants"
	"github.com/iwvelando/finance-dashboard/pkg/entity"
	"github.com/iwvelando/finance-dashboard/pkg/period"
	"github.com/iwvelando/finance-dashboard/pkg/ratio"
	"github.com/iwvelando/finance-dashboard/pkg/table"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// RankedEntity is a grouped entity with its values per period.
type RankedEntity struct {
	Name      string    `json:"name" yaml:"name"`
	Members   []string  `json:"members" yaml:"members"`
	Confirmed bool      `json:"confirmed,omitempty" yaml:"confirmed,omitempty"`
	Values    []float64 `json:"values" yaml:"values"`

	// Shares are the values as a percentage of the sheet total per period.
	Shares []Figure `json:"shares" yaml:"shares"`

	// Changes[i] compares column i with column i+1.
	Changes []Change `json:"changes,omitempty" yaml:"changes,omitempty"`
}

// Ranking lists the entities of one sheet, largest first by the first
// period, with everything past the top N folded into Others.
type Ranking struct {
	Kind     string         `json:"kind,omitempty" yaml:"kind,omitempty"`
	Sheet    string         `json:"sheet" yaml:"sheet"`
	Columns  []string       `json:"columns" yaml:"columns"`
	Periods  []period.Spec  `json:"periods" yaml:"periods"`
	Entities []RankedEntity `json:"entities" yaml:"entities"`
	Others   *RankedEntity  `json:"others,omitempty" yaml:"others,omitempty"`
	Totals   []float64      `json:"totals" yaml:"totals"`

	// Changes[i] compares the totals of column i and column i+1.
	Changes []Change `json:"changes,omitempty" yaml:"changes,omitempty"`
}

// BuildRanking groups the entity rows of sheet (confirmed merges first, the
// name heuristic for the rest), sums them for every period and ranks the
// groups by the first period. topN <= 0 lists every group.
func BuildRanking(logger *zap.Logger, provider sheets.Provider, sheet string, periods []period.Spec, confirmed []entity.ConfirmedGroup, topN int) (*Ranking, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	tbl, err := loadTable(provider, sheet)
	if err != nil {
		return nil, err
	}

	ranking := &Ranking{
		Sheet:   sheet,
		Columns: columnNames(periods),
		Periods: append([]period.Spec(nil), periods...),
		Totals:  make([]float64, len(periods)),
	}

	for i, spec := range periods {
		total, err := table.SumTotal(tbl, spec)
		if err != nil {
			return nil, fmt.Errorf("failed to total %s: %w", ranking.Columns[i], err)
		}
		ranking.Totals[i] = total.Value
	}

	var entities []entity.Entity
	skipped := 0
	for row := constants.HeaderRows; row < len(tbl.Rows); row++ {
		name := tbl.EntityName(row)
		values := make([]float64, len(periods))
		found := false
		for i := range periods {
			sum, err := table.SumRow(tbl, row, periods[i])
			if err != nil {
				return nil, fmt.Errorf("failed to sum %q for %s: %w", name, ranking.Columns[i], err)
			}
			values[i] = sum.Value
			found = found || sum.Found
		}
		if name == "" || !found {
			skipped++
			continue
		}
		entities = append(entities, entity.Entity{Name: name, Values: values})
	}

	groups := entity.GroupWithConfirmed(entities, confirmed, nil)
	top, others := entity.SplitTop(groups, 0, topN)
	ranking.Entities = lo.Map(top, func(g entity.Group, _ int) RankedEntity {
		return rankedEntity(g, ranking.Totals)
	})
	if others != nil {
		rest := rankedEntity(*others, ranking.Totals)
		ranking.Others = &rest
	}
	for i := 0; i+1 < len(ranking.Totals); i++ {
		ranking.Changes = append(ranking.Changes, changeBetween(
			Figure{Value: ranking.Totals[i], Defined: true},
			Figure{Value: ranking.Totals[i+1], Defined: true},
		))
	}

	merged := len(entities) - len(groups)
	logger.Info("ranking built",
		zap.String("op", "report.BuildRanking"),
		zap.String("sheet", sheet),
		zap.Int("entities", len(entities)),
		zap.Int("groups", len(groups)),
		zap.Int("merged", merged),
		zap.Int("skipped", skipped),
	)
	return ranking, nil
}

func rankedEntity(g entity.Group, totals []float64) RankedEntity {
	values := make([]float64, len(totals))
	copy(values, g.Values)

	out := RankedEntity{
		Name:      g.Name,
		Members:   append([]string(nil), g.Members...),
		Confirmed: g.Confirmed,
		Values:    values,
		Shares:    make([]Figure, len(totals)),
	}
	for i, total := range totals {
		share, ok := ratio.PercentOfBase(values[i], total)
		out.Shares[i] = Figure{Value: share, Defined: ok}
	}
	for i := 0; i+1 < len(values); i++ {
		out.Changes = append(out.Changes, changeBetween(
			Figure{Value: values[i], Defined: true},
			Figure{Value: values[i+1], Defined: true},
		))
	}
	return out
}
