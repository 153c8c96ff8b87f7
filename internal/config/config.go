// Package config provides configuration types, defaults and validation for connects.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/connects/internal/flags"
	"github.com/zjrosen/connects/internal/log"
	"github.com/zjrosen/connects/internal/tracing"
)

// Storage backends.
const (
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
)

// Config holds all configuration options for connects.
type Config struct {
	Storage StorageConfig   `mapstructure:"storage"`
	Log     LogConfig       `mapstructure:"log"`
	Watch   WatchConfig     `mapstructure:"watch"`
	Cache   CacheConfig     `mapstructure:"cache"`
	Tracing tracing.Config  `mapstructure:"tracing"`
	Flags   map[string]bool `mapstructure:"flags"`
}

// StorageConfig selects where snapshots are kept.
type StorageConfig struct {
	Backend string `mapstructure:"backend"` // "yaml" (default) or "sqlite"
	Path    string `mapstructure:"path"`    // data directory; default ./.connects
	History int    `mapstructure:"history"` // sqlite snapshots to keep when snapshot-history is on
}

// LogConfig configures the debug log file.
type LogConfig struct {
	Path       string `mapstructure:"path"` // default <data dir>/debug.log
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// WatchConfig controls reloading the viewer when the data file changes on disk.
type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// CacheConfig controls the module summary cache.
type CacheConfig struct {
	SummaryTTL time.Duration `mapstructure:"summary_ttl"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Storage: StorageConfig{
			Backend: BackendYAML,
			Path:    "",
			History: 5,
		},
		Log: LogConfig{
			MaxSizeMB:  5,
			MaxBackups: 3,
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 300 * time.Millisecond,
		},
		Cache: CacheConfig{
			SummaryTTL: time.Minute,
		},
		Tracing: tracing.DefaultConfig(),
		Flags:   flags.Defaults(),
	}
}

// DefaultTracesFilePath returns <dataDir>/traces/traces.jsonl.
func DefaultTracesFilePath(dataDir string) string {
	return filepath.Join(dataDir, "traces", "traces.jsonl")
}

// DefaultLogPath returns <dataDir>/debug.log.
func DefaultLogPath(dataDir string) string {
	return filepath.Join(dataDir, "debug.log")
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	if err := ValidateStorage(c.Storage); err != nil {
		return err
	}
	if err := ValidateLog(c.Log); err != nil {
		return err
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %v", c.Watch.Debounce)
	}
	if c.Cache.SummaryTTL < 0 {
		return fmt.Errorf("cache.summary_ttl must not be negative, got %v", c.Cache.SummaryTTL)
	}
	return ValidateTracing(c.Tracing)
}

// ValidateStorage checks the storage section.
func ValidateStorage(s StorageConfig) error {
	switch s.Backend {
	case BackendYAML, BackendSQLite:
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", BackendYAML, BackendSQLite, s.Backend)
	}
	if s.History < 1 {
		return fmt.Errorf("storage.history must be at least 1, got %d", s.History)
	}
	return nil
}

// ValidateLog checks the log section.
func ValidateLog(l LogConfig) error {
	if l.MaxSizeMB < 0 {
		return fmt.Errorf("log.max_size_mb must not be negative, got %d", l.MaxSizeMB)
	}
	if l.MaxBackups < 0 {
		return fmt.Errorf("log.max_backups must not be negative, got %d", l.MaxBackups)
	}
	return nil
}

// ValidateTracing checks the tracing section. Path requirements apply only when enabled,
// and an empty file path is filled from the data directory before the provider starts.
func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}
	if !tracing.ValidExporter(t.Exporter) {
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
	}
	if t.Enabled && t.Exporter == "otlp" && t.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}
	return nil
}

// DefaultConfigTemplate returns the default config as YAML with comments.
func DefaultConfigTemplate() string {
	return `# connects configuration

# Snapshot storage
storage:
  backend: yaml   # yaml (default) or sqlite
  # path: /path/to/project/.connects   # data directory (default: ./.connects)
  history: 5      # sqlite only: snapshots kept when the snapshot-history flag is on

# Debug log (written only with --debug or CONNECTS_DEBUG=1)
log:
  # path: /path/to/debug.log   # default: <data dir>/debug.log
  max_size_mb: 5
  max_backups: 3

# Reload the viewer when the data file changes on disk
watch:
  enabled: true
  debounce: 300ms

# Module summary cache
cache:
  summary_ttl: 1m

# Tracing of book operations
tracing:
  enabled: false
  exporter: file            # none, file, stdout, otlp
  # file_path: /path/to/traces.jsonl   # default: <data dir>/traces/traces.jsonl
  otlp_endpoint: localhost:4317
  sample_rate: 1.0

# Feature flags
flags:
  full-index-rebuild: false   # rebuild the module index after every change
  snapshot-history: true      # keep older sqlite snapshots
`
}

// WriteDefaultConfig creates a config file at configPath with default settings and comments.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
