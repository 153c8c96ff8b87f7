// Package cmd wires the connects command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/connects/internal/config"
	"github.com/zjrosen/connects/internal/contacts/application"
	"github.com/zjrosen/connects/internal/contacts/domain"
	"github.com/zjrosen/connects/internal/flags"
	"github.com/zjrosen/connects/internal/infrastructure/sqlite"
	"github.com/zjrosen/connects/internal/infrastructure/yamlstore"
	"github.com/zjrosen/connects/internal/log"
	"github.com/zjrosen/connects/internal/paths"
	"github.com/zjrosen/connects/internal/tracing"
)

func init() {
	// Query the terminal background before any Bubble Tea program starts, so the OSC 11
	// reply cannot race with the input loop.
	_ = lipgloss.HasDarkBackground()
}

const debugEnv = "CONNECTS_DEBUG"

var version = "dev"

// cli holds the state shared by every subcommand of one root command.
type cli struct {
	v       *viper.Viper
	cfgFile string
	dataDir string
	debug   bool

	cfg        config.Config
	configPath string
	logCleanup func()
}

// newRootCmd builds the command tree. Every call returns independent commands and config.
func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:   "connects",
		Short: "Keep track of the people in your modules and tutorials",
		Long: `connects keeps a list of contacts tagged with module-tutorial groups such as
CS2103-T01. Persons are addressed by their 1-based position in the list.

Running connects without a subcommand opens the contact viewer.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(*cobra.Command, []string) { c.teardown() },
		RunE:              c.runView,
	}

	root.PersistentFlags().StringVarP(&c.cfgFile, "config", "c", "",
		"config file (default: .connects/config.yaml, then ~/.config/connects/config.yaml)")
	root.PersistentFlags().StringVarP(&c.dataDir, "path", "p", "",
		"data directory, or a project directory holding .connects")
	root.PersistentFlags().BoolVarP(&c.debug, "debug", "d", false,
		"write a debug log (also enabled by "+debugEnv+"=1)")
	root.PersistentFlags().String("backend", "", "storage backend: yaml or sqlite")
	_ = c.v.BindPFlag("storage.path", root.PersistentFlags().Lookup("path"))
	_ = c.v.BindPFlag("storage.backend", root.PersistentFlags().Lookup("backend"))

	root.AddCommand(
		c.addCmd(), c.editCmd(), c.deleteCmd(), c.listCmd(),
		c.pinCmd(), c.unpinCmd(), c.sortCmd(), c.clearCmd(),
		c.deleteModuleCmd(), c.deleteGroupCmd(), c.modulesCmd(),
		c.importCmd(), c.exportCmd(), c.historyCmd(),
		c.viewCmd(), c.configCmd(),
	)
	return root
}

// setup loads the configuration and starts the debug log. Validation waits for open so the
// config command can repair a broken file.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if err := c.initConfig(); err != nil {
		return err
	}

	if c.debug || os.Getenv(debugEnv) != "" {
		logPath := c.cfg.Log.Path
		if logPath == "" {
			logPath = config.DefaultLogPath(c.dataPath())
		}
		cleanup, err := log.Init(log.Options{
			Path:       logPath,
			MaxSizeMB:  c.cfg.Log.MaxSizeMB,
			MaxBackups: c.cfg.Log.MaxBackups,
		})
		if err != nil {
			return fmt.Errorf("starting debug log: %w", err)
		}
		c.logCleanup = cleanup
	}
	log.Debug(log.CatCLI, "Command started", "command", cmd.CommandPath(), "config", c.configPath)
	return nil
}

func (c *cli) teardown() {
	if c.logCleanup != nil {
		c.logCleanup()
		c.logCleanup = nil
	}
}

// initConfig reads the config file into c.cfg. Lookup order: --config, .connects/config.yaml,
// ~/.config/connects/config.yaml. When none exists a default file is written to
// .connects/config.yaml inside the data directory.
func (c *cli) initConfig() error {
	defaults := config.Defaults()
	c.v.SetDefault("storage.backend", defaults.Storage.Backend)
	c.v.SetDefault("storage.history", defaults.Storage.History)
	c.v.SetDefault("log.max_size_mb", defaults.Log.MaxSizeMB)
	c.v.SetDefault("log.max_backups", defaults.Log.MaxBackups)
	c.v.SetDefault("watch.enabled", defaults.Watch.Enabled)
	c.v.SetDefault("watch.debounce", defaults.Watch.Debounce)
	c.v.SetDefault("cache.summary_ttl", defaults.Cache.SummaryTTL)
	c.v.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	c.v.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	c.v.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	c.v.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	c.v.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	localConfig := filepath.Join(paths.ResolveDataDir(c.dataDir), "config.yaml")
	switch {
	case c.cfgFile != "":
		c.v.SetConfigFile(c.cfgFile)
	case fileExists(localConfig):
		c.v.SetConfigFile(localConfig)
	default:
		if dir := paths.ConfigDir(); dir != "" {
			c.v.AddConfigPath(dir)
		}
		c.v.SetConfigName("config")
		c.v.SetConfigType("yaml")
	}

	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
		if writeErr := config.WriteDefaultConfig(localConfig); writeErr == nil {
			c.v.SetConfigFile(localConfig)
			_ = c.v.ReadInConfig()
		}
	}
	c.configPath = c.v.ConfigFileUsed()
	if c.configPath == "" {
		c.configPath = localConfig
	}

	cfg := defaults
	if err := c.v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	c.cfg = cfg
	return nil
}

// dataPath is the resolved data directory.
func (c *cli) dataPath() string {
	return paths.ResolveDataDir(c.cfg.Storage.Path)
}

// dataFile is the snapshot file of the configured backend.
func (c *cli) dataFile() string {
	return paths.DataFile(c.dataPath(), c.cfg.Storage.Backend)
}

// session is an opened service plus everything that must be released with it.
type session struct {
	svc      *application.Service
	sqlite   *sqlite.Store
	provider *tracing.Provider
}

// Close flushes traces and closes the store.
func (s *session) Close() error {
	err := s.svc.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := s.provider.Shutdown(ctx); shutdownErr != nil {
		log.ErrorErr(log.CatTrace, "Failed to flush traces", shutdownErr)
	}
	return err
}

// open builds the repository, tracer and service, and loads the book.
func (c *cli) open(ctx context.Context) (*session, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", c.configPath, err)
	}
	registry := flags.New(c.cfg.Flags)

	tracingCfg := c.cfg.Tracing
	if tracingCfg.Enabled && tracingCfg.Exporter == "file" && tracingCfg.FilePath == "" {
		tracingCfg.FilePath = config.DefaultTracesFilePath(c.dataPath())
	}
	provider, err := tracing.NewProvider(tracingCfg)
	if err != nil {
		return nil, fmt.Errorf("starting tracing: %w", err)
	}

	s := &session{provider: provider}
	var repo domain.Repository
	switch c.cfg.Storage.Backend {
	case config.BackendSQLite:
		history := 1
		if registry.Enabled(flags.FlagSnapshotHistory) {
			history = c.cfg.Storage.History
		}
		store, err := sqlite.Open(c.dataFile(), sqlite.WithHistory(history))
		if err != nil {
			_ = provider.Shutdown(ctx)
			return nil, fmt.Errorf("opening database: %w", err)
		}
		s.sqlite = store
		repo = store
	default:
		repo = yamlstore.New(c.dataFile())
	}

	s.svc = application.NewService(repo,
		application.WithTracer(provider.Tracer()),
		application.WithFlags(registry),
		application.WithSummaryTTL(c.cfg.Cache.SummaryTTL),
		application.WithBackendName(c.cfg.Storage.Backend),
	)
	if err := s.svc.Load(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("loading contacts from %s: %w", c.dataFile(), err)
	}
	return s, nil
}

// withService runs fn against a loaded service and closes it afterwards.
func (c *cli) withService(cmd *cobra.Command, fn func(ctx context.Context, svc *application.Service) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := c.open(ctx)
	if err != nil {
		return err
	}
	err = fn(ctx, s.svc)
	if closeErr := s.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		log.ErrorErr(log.CatCLI, "Command failed", err, "command", cmd.CommandPath())
	}
	return err
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
}
