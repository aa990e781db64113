// Package constants provides shared constants for the finance-dashboard application.
package constants

// Months holds the twelve canonical month names in calendar order. Header
// rows of source sheets use these labels.
var Months = []string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// MonthsPerYear is the number of months in a year
const MonthsPerYear = 12

// Period tokens understood by the period resolver.
const (
	TokenQ1   = "Q1"
	TokenQ2   = "Q2"
	TokenQ3   = "Q3"
	TokenQ4   = "Q4"
	TokenHY1  = "HY1"
	TokenH1   = "H1"
	TokenHY2  = "HY2"
	TokenH2   = "H2"
	TokenYear = "Year"
)

// Record types found in the third header row.
const (
	RecordActual   = "Actual"
	RecordBudget   = "Budget"
	RecordForecast = "Forecast"
)

// Table layout
const (
	// HeaderRows is the number of header rows (year, month, record type).
	HeaderRows = 3

	// YearRow is the index of the year header row
	YearRow = 0

	// MonthRow is the index of the month-or-period label header row
	MonthRow = 1

	// TypeRow is the index of the record type header row
	TypeRow = 2

	// FirstDataColumn is the first column holding figures; column 0 holds names.
	FirstDataColumn = 1
)

// Ratio and delta constants
const (
	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// WholeDeltaThreshold is the absolute delta magnitude from which deltas are
	// displayed without a decimal place.
	WholeDeltaThreshold = 99.99

	// DefaultDecimals is the default number of decimals for ratio display
	DefaultDecimals = 1

	// NotAvailable is displayed in place of an undefined ratio
	NotAvailable = "N/A"
)

// Entity grouping constants
const (
	// MinContainmentLength is the minimum length both normalized names must
	// have before substring containment counts as a match.
	MinContainmentLength = 5

	// MinSharedWords is the number of shared words that makes two names equivalent.
	MinSharedWords = 2

	// MinWordLength is the exclusive lower bound on word length for word overlap.
	MinWordLength = 2

	// OthersLabel names the remainder row of a top-N ranking
	OthersLabel = "Others"
)

// Delta display conventions
const (
	// InfiniteStyleInfinity renders deltas from a zero base as "∞"
	InfiniteStyleInfinity = "infinity"

	// InfiniteStyleCapped renders deltas from a zero base as "100%"
	InfiniteStyleCapped = "capped"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatYAML is the YAML output format
	OutputFormatYAML = "yaml"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// DefaultTopN is the default number of ranked entities shown
	DefaultTopN = 10
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for workbooks (32 MB)
	DefaultMaxUploadSizeBytes int64 = 32 * 1024 * 1024
)

// Validation constants
const (
	// ToleranceForComparison is the tolerance for financial comparisons
	ToleranceForComparison = 1.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01
)
