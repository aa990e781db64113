package main

import (
	"flag"
	"fmt"

	"github.com/iwvelando/finance-dashboard/internal/config"
	"github.com/iwvelando/finance-dashboard/internal/logging"
	"github.com/iwvelando/finance-dashboard/internal/merges"
	"github.com/iwvelando/finance-dashboard/internal/report"
	"github.com/iwvelando/finance-dashboard/internal/sheets"
	"github.com/iwvelando/finance-dashboard/pkg/constants"
	"github.com/iwvelando/finance-dashboard/pkg/delta"
	"github.com/iwvelando/finance-dashboard/pkg/output"
	"github.com/iwvelando/finance-dashboard/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, yaml")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	workbookFlag := flag.String("workbook", "", "workbook path override")
	divisionFlag := flag.String("division", "", "division override")
	flag.Parse()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		return
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI overrides take precedence over config
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}
	if *workbookFlag != "" {
		conf.Workbook = *workbookFlag
	}
	if *divisionFlag != "" {
		conf.Report.Division = *divisionFlag
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	division, err := conf.SelectedDivision()
	if err != nil {
		logger.Fatal("failed to select division",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	provider, err := sheets.OpenFile(logger, conf.Workbook)
	if err != nil {
		logger.Fatal("failed to open workbook",
			zap.String("op", "main"),
			zap.String("workbook", conf.Workbook),
			zap.Error(err),
		)
	}

	confirmed, err := merges.NewFileStore(conf.MergesFile).Load()
	if err != nil {
		logger.Fatal("failed to load confirmed merges",
			zap.String("op", "main"),
			zap.String("mergesFile", conf.MergesFile),
			zap.Error(err),
		)
	}

	dashboard, err := report.Build(logger, provider, division, conf.Periods, confirmed, conf.Report.TopN)
	if err != nil {
		logger.Fatal("failed to build dashboard",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	err = output.Write(outputFormat, dashboard, output.Options{
		Decimals:      conf.Report.Decimals,
		InfiniteStyle: delta.InfiniteStyle(conf.Report.InfiniteStyle),
	})
	if err != nil {
		logger.Fatal("failed to write output",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
