package server

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/iwvelando/finance-dashboard/internal/config"
	"github.com/iwvelando/finance-dashboard/internal/merges"
	"github.com/iwvelando/finance-dashboard/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Config defines runtime parameters for the HTTP server.
//
// DashboardConfig and MergesFile may be relative; they are resolved against
// the directory of the server config file.
type Config struct {
	Address       string               `yaml:"address"`
	MaxUploadSize string               `yaml:"maxUploadSize"`
	Logging       config.LoggingConfig `yaml:"logging"`

	// DashboardConfig is the report configuration used for uploads that do
	// not carry their own.
	DashboardConfig string `yaml:"dashboardConfig"`
	// MergesFile overrides the mergesFile of the dashboard configuration.
	MergesFile string `yaml:"mergesFile"`

	uploadSizeBytes int64
}

// LoadConfig loads the server configuration from YAML. A missing file yields
// the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Address:         constants.DefaultServerAddress,
		uploadSizeBytes: constants.DefaultMaxUploadSizeBytes,
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read server config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}

	if strings.TrimSpace(cfg.Address) == "" {
		cfg.Address = constants.DefaultServerAddress
	}
	size, err := ParseSize(cfg.MaxUploadSize)
	if err != nil {
		return nil, fmt.Errorf("failed to parse maxUploadSize: %w", err)
	}
	cfg.SetUploadSizeBytes(size)

	dir := filepath.Dir(path)
	cfg.DashboardConfig = resolvePath(dir, cfg.DashboardConfig)
	cfg.MergesFile = resolvePath(dir, cfg.MergesFile)
	return cfg, nil
}

// UploadSizeBytes returns the configured upload size in bytes.
func (c *Config) UploadSizeBytes() int64 {
	return c.uploadSizeBytes
}

// SetUploadSizeBytes overrides the configured upload size. Non-positive
// sizes are ignored.
func (c *Config) SetUploadSizeBytes(size int64) {
	if size > 0 {
		c.uploadSizeBytes = size
	}
}

// Dashboard loads the dashboard configuration served as the upload defaults,
// with its mergesFile resolved against the dashboard config's directory. It
// returns a nil configuration when none is set, along with any validation
// warnings.
func (c *Config) Dashboard() (*config.Configuration, []string, error) {
	if c.DashboardConfig == "" {
		return nil, nil, nil
	}
	defaults, err := config.LoadConfiguration(c.DashboardConfig)
	if err != nil {
		return nil, nil, err
	}
	defaults.MergesFile = resolvePath(filepath.Dir(c.DashboardConfig), defaults.MergesFile)
	return defaults, defaults.ValidateConfiguration(), nil
}

// MergeStore returns the confirmed-merge store for the server: the server's
// own mergesFile when set, else the one named by defaults. It is nil when
// neither names a file.
func (c *Config) MergeStore(defaults *config.Configuration) merges.Store {
	path := c.MergesFile
	if path == "" && defaults != nil {
		path = defaults.MergesFile
	}
	if path == "" {
		return nil
	}
	return merges.NewFileStore(path)
}

func resolvePath(dir, path string) string {
	path = strings.TrimSpace(path)
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// sizeUnits lists the accepted suffixes, longest first so "MB" wins over "B".
var sizeUnits = []struct {
	suffix string
	bytes  int64
}{
	{"KB", 1 << 10},
	{"MB", 1 << 20},
	{"GB", 1 << 30},
	{"K", 1 << 10},
	{"M", 1 << 20},
	{"G", 1 << 30},
	{"B", 1},
}

// ParseSize converts a size such as "512", "256K" or "10MB" into bytes. A
// blank size is the default upload limit.
func ParseSize(value string) (int64, error) {
	s := strings.ToUpper(strings.TrimSpace(value))
	if s == "" {
		return constants.DefaultMaxUploadSizeBytes, nil
	}

	unit := int64(1)
	for _, u := range sizeUnits {
		if strings.HasSuffix(s, u.suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			unit = u.bytes
			break
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size %q", value)
	}
	if n > math.MaxInt64/unit {
		return 0, fmt.Errorf("size %q overflows", value)
	}
	return n * unit, nil
}
