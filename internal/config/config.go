// Package config loads guardmap's YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/guardmap/internal/logging"
	"github.com/ppiankov/guardmap/internal/remediation"
	"github.com/ppiankov/guardmap/internal/scheduler"
)

// Monitor configures the long-running `guardmap monitor` loop.
type Monitor struct {
	Schedule    string        `yaml:"schedule"`
	MetricsAddr string        `yaml:"metrics_addr"`
	Debounce    time.Duration `yaml:"debounce"`
}

// Config is the top-level configuration.
type Config struct {
	Org           string                  `yaml:"org"`
	Policies      string                  `yaml:"policies"`
	FrameworksDir string                  `yaml:"frameworks_dir"`
	Frameworks    []string                `yaml:"frameworks"`
	Database      string                  `yaml:"database"`
	AuditLog      string                  `yaml:"audit_log"`
	Log           logging.Config          `yaml:"log"`
	Effort        remediation.EffortTable `yaml:"effort"`
	Monitor       Monitor                 `yaml:"monitor"`
}

// Dir returns ~/.guardmap, or ".guardmap" when the home directory is unknown.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".guardmap"
	}
	return filepath.Join(home, ".guardmap")
}

// DefaultPath returns ~/.guardmap/config.yaml.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	dir := Dir()
	return &Config{
		Org:        "default",
		Policies:   filepath.Join(dir, "guardrails.yaml"),
		Frameworks: []string{"soc2"},
		Database:   filepath.Join(dir, "guardmap.db"),
		AuditLog:   filepath.Join(dir, "decisions.jsonl"),
		Log:        logging.Config{Level: "info", Format: "text"},
		Effort:     remediation.DefaultEffortTable(),
		Monitor: Monitor{
			Schedule: "0 * * * *",
			Debounce: 500 * time.Millisecond,
		},
	}
}

// Load reads the configuration file at path.
// Empty path falls back to ~/.guardmap/config.yaml.
// Missing file returns defaults. Invalid YAML returns an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Start with defaults, YAML overwrites only specified fields
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.expand()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) expand() {
	c.Policies = ExpandHome(c.Policies)
	c.FrameworksDir = ExpandHome(c.FrameworksDir)
	c.Database = ExpandHome(c.Database)
	c.AuditLog = ExpandHome(c.AuditLog)
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if !logging.ValidFormat(c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	if len(c.Effort.Bands) == 0 {
		errs = append(errs, errors.New("effort.bands: at least one band is required"))
	}
	for i := 1; i < len(c.Effort.Bands); i++ {
		if c.Effort.Bands[i].MaxRecommendations <= c.Effort.Bands[i-1].MaxRecommendations {
			errs = append(errs, fmt.Errorf("effort.bands[%d]: max_recommendations must increase", i))
		}
	}
	if c.Effort.RollupMultiplier <= 0 {
		errs = append(errs, errors.New("effort.rollup_multiplier: must be positive"))
	}
	if c.Monitor.Schedule != "" {
		if err := scheduler.Validate(c.Monitor.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("monitor.schedule: %w", err))
		}
	}
	if c.Monitor.Debounce < 0 {
		errs = append(errs, errors.New("monitor.debounce: must not be negative"))
	}

	return errors.Join(errs...)
}
