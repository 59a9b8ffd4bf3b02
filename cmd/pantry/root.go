package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rl1809/pantry/internal/adapter/storage"
	"github.com/rl1809/pantry/internal/config"
	"github.com/rl1809/pantry/internal/core/service"
	"github.com/rl1809/pantry/internal/logging"
	"github.com/rl1809/pantry/internal/metrics"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var flagConfig string

// app holds what PersistentPreRunE builds for the subcommands.
var app struct {
	cfg       config.Config
	logger    *zap.Logger
	store     *storage.Store
	registry  *prometheus.Registry
	metrics   *metrics.Metrics
	inventory *service.InventoryService
}

var rootCmd = &cobra.Command{
	Use:           "pantry",
	Short:         "Pantry is a small inventory tracker",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		return setup(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return teardown()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "config file (default: ./pantry.yaml if present)")
	pf.String("backend", "", "store backend: memory, badger, sqlite, mysql, redis")
	pf.String("badger-path", "", "badger data directory (empty keeps data in memory)")
	pf.String("sqlite-path", "", "sqlite database file")
	pf.String("mysql-dsn", "", "mysql data source name")
	pf.String("redis-addr", "", "redis address")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.Bool("dev", false, "human readable console logs")

	rootCmd.AddCommand(versionCmd, serveCmd, addCmd, editCmd, removeCmd, listCmd, tuiCmd)
}

var flagKeys = map[string]string{
	"backend":     config.KeyBackend,
	"badger-path": config.KeyBadgerPath,
	"sqlite-path": config.KeySQLitePath,
	"mysql-dsn":   config.KeyMySQLDSN,
	"redis-addr":  config.KeyRedisAddr,
	"log-level":   config.KeyLogLevel,
	"dev":         config.KeyLogDev,
}

func setup(cmd *cobra.Command) error {
	v, err := config.New(flagConfig)
	if err != nil {
		return err
	}
	for flag, key := range flagKeys {
		// Only flags set on the command line override file and env values.
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}
	cfg, err := config.Decode(v)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}

	store, err := storage.Open(cmd.Context(), cfg.Store, logger)
	if err != nil {
		logger.Sync()
		return fmt.Errorf("open store: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry, version)

	app.cfg = cfg
	app.logger = logger
	app.store = store
	app.registry = registry
	app.metrics = m
	app.inventory = service.NewInventoryService(store.Gateway,
		service.WithIdempotencyStore(store.Idempotency),
		service.WithObserver(m),
		service.WithLogger(logger),
	)
	return nil
}

func teardown() error {
	var err error
	if app.store != nil {
		err = app.store.Close()
	}
	if app.logger != nil {
		app.logger.Sync()
	}
	return err
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pantry %s\n", version)
	},
}
