// Package cmd implements the restock command line interface.
package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/restock/internal/auth"
	"github.com/zjrosen/restock/internal/cache"
	"github.com/zjrosen/restock/internal/config"
	"github.com/zjrosen/restock/internal/coordinator"
	"github.com/zjrosen/restock/internal/infrastructure/sqlite"
	"github.com/zjrosen/restock/internal/log"
	"github.com/zjrosen/restock/internal/pubsub"
	"github.com/zjrosen/restock/internal/restock/domain"
	"github.com/zjrosen/restock/internal/tracing"
)

var (
	version   = "dev"
	cfgFile   string
	debugMode bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:   "restock",
	Short: "Build and send supplier restock orders",
	Long: `Restock tracks an in-progress restock session on this device: collect
low-stock products into a draft, generate supplier emails from it, and mark
the order sent. The session survives restarts and store outages.`,
	Version: version,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/restock/config.yaml)")
	rootCmd.PersistentFlags().String("store", "",
		"path to the session store database")
	rootCmd.PersistentFlags().Bool("no-auto-refresh", false,
		"disable automatic refresh when the store changes")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false,
		"enable debug logging")

	_ = viper.BindPFlag("store_path", rootCmd.PersistentFlags().Lookup("store"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("store_path", defaults.StorePath)
	viper.SetDefault("cache_dir", defaults.CacheDir)
	viper.SetDefault("auto_refresh", defaults.AutoRefresh)
	viper.SetDefault("refresh_debounce", defaults.RefreshDebounce)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .restock/config.yaml (current directory)
		// 2. ~/.config/restock/config.yaml (user config)
		if _, err := os.Stat(".restock/config.yaml"); err == nil {
			viper.SetConfigFile(".restock/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "restock"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// Missing config is fine; defaults apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// runtime holds the wired-up collaborators a session command needs.
type runtime struct {
	coord    *coordinator.Coordinator
	broker   *pubsub.Broker[domain.SessionSnapshot]
	db       *sql.DB
	tracer   *tracing.Provider
	closeLog func()
}

// newRuntime wires config, logging, tracing, store, cache, and the
// coordinator, and runs the startup reconcile. A store outage during
// startup is reported but not fatal; the coordinator runs from cache.
func newRuntime(ctx context.Context) (*runtime, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	closeLog := func() {}
	if cfg.CacheDir != "" {
		if fn, err := log.Init(filepath.Join(cfg.CacheDir, "restock.log")); err == nil {
			closeLog = fn
		}
	}
	log.SetEnabled(debugMode || os.Getenv("RESTOCK_DEBUG") != "")

	tracingCfg := cfg.Tracing
	if tracingCfg.Enabled && tracingCfg.Exporter == "file" && tracingCfg.FilePath == "" {
		tracingCfg.FilePath = config.DefaultTracesFilePath()
	}
	tracer, err := tracing.NewProvider(tracingCfg)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("configuring tracing: %w", err)
	}

	db, err := sqlite.Open(cfg.StorePath)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	store, err := cache.NewFileStore(cfg.CacheDir)
	if err != nil {
		db.Close()
		closeLog()
		return nil, fmt.Errorf("opening device cache: %w", err)
	}

	userID := os.Getenv("RESTOCK_USER_ID")
	if userID == "" {
		userID = cfg.UserID
	}
	provider := auth.NewStaticProvider(userID, os.Getenv("RESTOCK_TOKEN"))

	broker := pubsub.NewBroker[domain.SessionSnapshot]()
	coord := coordinator.New(
		sqlite.NewSessionRepository(db),
		cache.NewSessionCache(store),
		provider,
		coordinator.WithTracer(tracer.Tracer()),
		coordinator.WithBroker(broker),
	)

	if err := coord.Load(ctx); err != nil {
		if domain.IsRemoteUnavailable(err) {
			fmt.Fprintln(os.Stderr, "warning: session store unreachable, working from device cache")
		} else {
			broker.Close()
			db.Close()
			closeLog()
			return nil, err
		}
	}

	return &runtime{
		coord:    coord,
		broker:   broker,
		db:       db,
		tracer:   tracer,
		closeLog: closeLog,
	}, nil
}

func (r *runtime) close(ctx context.Context) {
	r.broker.Close()
	if err := r.tracer.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: trace shutdown: %v\n", err)
	}
	if err := r.db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing store: %v\n", err)
	}
	r.closeLog()
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
