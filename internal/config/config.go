// Package config defines the data structures related to configuration and
// includes functions for loading, parsing and validating the config.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/finance-dashboard/pkg/constants"
	"github.com/iwvelando/finance-dashboard/pkg/period"
	"github.com/iwvelando/finance-dashboard/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for finance-dashboard.
type Configuration struct {
	Logging    LoggingConfig `yaml:"logging,omitempty"`
	Output     OutputConfig  `yaml:"output,omitempty"`
	Workbook   string        `yaml:"workbook,omitempty"`
	MergesFile string        `yaml:"mergesFile,omitempty"`
	Report     ReportConfig  `yaml:"report,omitempty"`
	Divisions  []Division    `yaml:"divisions,omitempty"`
	Periods    []period.Spec `yaml:"periods,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, yaml
}

// ReportConfig selects what is reported and how figures are displayed.
type ReportConfig struct {
	Division      string `yaml:"division,omitempty"`
	TopN          int    `yaml:"topN,omitempty"`
	InfiniteStyle string `yaml:"infiniteStyle,omitempty"` // infinity, capped
	Decimals      int    `yaml:"decimals,omitempty"`
}

// Division names the sheets holding one business division's figures.
type Division struct {
	Name         string       `yaml:"name"`
	PnLSheet     string       `yaml:"pnlSheet,omitempty"`
	EntitySheets EntitySheets `yaml:"entitySheets,omitempty"`
}

// EntitySheets names the per-entity sales sheets of a division. Blank
// entries are skipped.
type EntitySheets struct {
	Countries     string `yaml:"countries,omitempty"`
	Customers     string `yaml:"customers,omitempty"`
	ProductGroups string `yaml:"productGroups,omitempty"`
	SalesReps     string `yaml:"salesReps,omitempty"`
}

// EntitySheet is one configured entity sheet and the kind of entity it lists.
type EntitySheet struct {
	Kind  string
	Sheet string
}

// List returns the configured sheets in display order.
func (e EntitySheets) List() []EntitySheet {
	all := []EntitySheet{
		{Kind: "Countries", Sheet: e.Countries},
		{Kind: "Customers", Sheet: e.Customers},
		{Kind: "Product Groups", Sheet: e.ProductGroups},
		{Kind: "Sales Reps", Sheet: e.SalesReps},
	}
	var out []EntitySheet
	for _, s := range all {
		if strings.TrimSpace(s.Sheet) != "" {
			out = append(out, s)
		}
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("report.topN", constants.DefaultTopN)
	v.SetDefault("report.infiniteStyle", constants.InfiniteStyleInfinity)
	v.SetDefault("report.decimals", constants.DefaultDecimals)
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")
	setDefaults(v)

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	return &configuration, nil
}

// Division returns the division called name, ignoring case.
func (c *Configuration) Division(name string) (Division, bool) {
	for _, d := range c.Divisions {
		if strings.EqualFold(strings.TrimSpace(d.Name), strings.TrimSpace(name)) {
			return d, true
		}
	}
	return Division{}, false
}

// SelectedDivision returns the division named by report.division, or the
// first configured division when none is named.
func (c *Configuration) SelectedDivision() (Division, error) {
	if c.Report.Division == "" {
		if len(c.Divisions) == 0 {
			return Division{}, fmt.Errorf("no divisions configured")
		}
		return c.Divisions[0], nil
	}
	d, ok := c.Division(c.Report.Division)
	if !ok {
		return Division{}, fmt.Errorf("division %q is not configured", c.Report.Division)
	}
	return d, nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if len(c.Divisions) == 0 {
		warnings = append(warnings, "No divisions configured; nothing will be reported")
	}
	seen := make(map[string]bool)
	for i, d := range c.Divisions {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			warnings = append(warnings, fmt.Sprintf("Division %d has no name", i))
		} else if seen[strings.ToLower(name)] {
			warnings = append(warnings, fmt.Sprintf("Division '%s' is configured more than once; the first entry is used", name))
		}
		seen[strings.ToLower(name)] = true
		if strings.TrimSpace(d.PnLSheet) == "" && len(d.EntitySheets.List()) == 0 {
			warnings = append(warnings, fmt.Sprintf("Division '%s' names no sheets", name))
		}
	}
	if c.Report.Division != "" {
		if _, ok := c.Division(c.Report.Division); !ok {
			warnings = append(warnings, fmt.Sprintf("Report division '%s' is not configured", c.Report.Division))
		}
	}

	if len(c.Periods) == 0 {
		warnings = append(warnings, "No periods configured; reports will have no columns")
	}
	for i, spec := range c.Periods {
		warnings = append(warnings, validation.ValidatePeriod(i, spec)...)
	}

	warnings = append(warnings, validation.ValidateTopN(c.Report.TopN)...)
	if err := validation.ValidateInfiniteStyle(c.Report.InfiniteStyle); err != nil {
		warnings = append(warnings, fmt.Sprintf("Report infiniteStyle is invalid (%v); '%s' is used", err, constants.InfiniteStyleInfinity))
	}
	if c.Report.Decimals < 0 {
		warnings = append(warnings, fmt.Sprintf("Report decimals is negative (%d); 0 is used", c.Report.Decimals))
	}

	return warnings
}
