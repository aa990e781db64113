package report

import (
	"fmt"
	"strings"

	"github.com/iwvelando/finance-dashboard/internal/config"
	"github.com/iwvelando/finance-dashboard/internal/sheets"
	"github.com/iwvelando/finance-dashboard/pkg/entity"
	"github.com/iwvelando/finance-dashboard/pkg/period"
	"go.uber.org/zap"
)

// Dashboard holds every report of one division.
type Dashboard struct {
	Division string     `json:"division" yaml:"division"`
	PnL      *PnLReport `json:"pnl,omitempty" yaml:"pnl,omitempty"`
	Rankings []*Ranking `json:"rankings,omitempty" yaml:"rankings,omitempty"`
}

// Build evaluates the P&L and every entity sheet configured for division.
// Sheets left blank in the configuration are skipped.
func Build(logger *zap.Logger, provider sheets.Provider, division config.Division, periods []period.Spec, confirmed []entity.ConfirmedGroup, topN int) (*Dashboard, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dashboard{Division: division.Name}

	if strings.TrimSpace(division.PnLSheet) != "" {
		pnl, err := BuildPnL(logger, provider, division.PnLSheet, periods, nil)
		if err != nil {
			return nil, fmt.Errorf("division %s: %w", division.Name, err)
		}
		d.PnL = pnl
	}

	for _, es := range division.EntitySheets.List() {
		ranking, err := BuildRanking(logger, provider, es.Sheet, periods, confirmed, topN)
		if err != nil {
			return nil, fmt.Errorf("division %s: %w", division.Name, err)
		}
		ranking.Kind = es.Kind
		d.Rankings = append(d.Rankings, ranking)
	}

	logger.Info("dashboard built",
		zap.String("op", "report.Build"),
		zap.String("division", division.Name),
		zap.Bool("pnl", d.PnL != nil),
		zap.Int("rankings", len(d.Rankings)),
	)
	return d, nil
}
