package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/connects/internal/flags"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	require.Equal(t, BackendYAML, cfg.Storage.Backend)
	require.Equal(t, 5, cfg.Storage.History)
	require.Equal(t, 5, cfg.Log.MaxSizeMB)
	require.Equal(t, 3, cfg.Log.MaxBackups)
	require.True(t, cfg.Watch.Enabled)
	require.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
	require.Equal(t, time.Minute, cfg.Cache.SummaryTTL)
	require.False(t, cfg.Tracing.Enabled)
	require.Equal(t, "file", cfg.Tracing.Exporter)
	require.True(t, cfg.Flags[flags.FlagSnapshotHistory])
	require.False(t, cfg.Flags[flags.FlagFullIndexRebuild])
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "sqlite backend", mutate: func(c *Config) { c.Storage.Backend = BackendSQLite }},
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "json" }, wantErr: "storage.backend"},
		{name: "empty backend", mutate: func(c *Config) { c.Storage.Backend = "" }, wantErr: "storage.backend"},
		{name: "zero history", mutate: func(c *Config) { c.Storage.History = 0 }, wantErr: "storage.history"},
		{name: "negative log size", mutate: func(c *Config) { c.Log.MaxSizeMB = -1 }, wantErr: "log.max_size_mb"},
		{name: "negative backups", mutate: func(c *Config) { c.Log.MaxBackups = -1 }, wantErr: "log.max_backups"},
		{name: "negative debounce", mutate: func(c *Config) { c.Watch.Debounce = -time.Second }, wantErr: "watch.debounce"},
		{name: "negative ttl", mutate: func(c *Config) { c.Cache.SummaryTTL = -time.Second }, wantErr: "cache.summary_ttl"},
		{name: "bad sample rate", mutate: func(c *Config) { c.Tracing.SampleRate = 1.5 }, wantErr: "sample_rate"},
		{name: "bad exporter", mutate: func(c *Config) { c.Tracing.Exporter = "jaeger" }, wantErr: "tracing.exporter"},
		{
			name: "otlp without endpoint",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Exporter = "otlp"
				c.Tracing.OTLPEndpoint = ""
			},
			wantErr: "otlp_endpoint",
		},
		{
			name: "disabled otlp without endpoint is fine",
			mutate: func(c *Config) {
				c.Tracing.Exporter = "otlp"
				c.Tracing.OTLPEndpoint = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDefaultPaths(t *testing.T) {
	require.Equal(t, filepath.Join("data", "traces", "traces.jsonl"), DefaultTracesFilePath("data"))
	require.Equal(t, filepath.Join("data", "debug.log"), DefaultLogPath("data"))
}

// templateConfig mirrors the YAML layout of the template for decoding in tests.
type templateConfig struct {
	Storage struct {
		Backend string `yaml:"backend"`
		History int    `yaml:"history"`
	} `yaml:"storage"`
	Watch struct {
		Enabled  bool   `yaml:"enabled"`
		Debounce string `yaml:"debounce"`
	} `yaml:"watch"`
	Flags map[string]bool `yaml:"flags"`
}

func TestDefaultConfigTemplate_MatchesDefaults(t *testing.T) {
	var parsed templateConfig
	require.NoError(t, yaml.Unmarshal([]byte(DefaultConfigTemplate()), &parsed))

	defaults := Defaults()
	require.Equal(t, defaults.Storage.Backend, parsed.Storage.Backend)
	require.Equal(t, defaults.Storage.History, parsed.Storage.History)
	require.Equal(t, defaults.Watch.Enabled, parsed.Watch.Enabled)
	require.Equal(t, defaults.Watch.Debounce.String(), parsed.Watch.Debounce)
	require.Equal(t, defaults.Flags, parsed.Flags)
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
