// Package config provides configuration types and defaults for restock.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/restock/internal/log"
	"github.com/zjrosen/restock/internal/tracing"
)

// Config holds all configuration options for restock.
type Config struct {
	// StorePath is the SQLite session store location.
	// Default: ~/.local/share/restock/restock.db
	StorePath string `mapstructure:"store_path"`

	// CacheDir holds the device cache (current session snapshot).
	// Default: ~/.cache/restock
	CacheDir string `mapstructure:"cache_dir"`

	// UserID identifies the signed-in user. Can also come from the
	// RESTOCK_USER_ID environment variable, which takes precedence.
	UserID string `mapstructure:"user_id"`

	// AutoRefresh re-reads the store when another process writes it.
	AutoRefresh bool `mapstructure:"auto_refresh"`

	// RefreshDebounce coalesces bursts of store writes into one refresh.
	RefreshDebounce time.Duration `mapstructure:"refresh_debounce"`

	// Tracing configures command span export.
	Tracing tracing.Config `mapstructure:"tracing"`
}

// DefaultStorePath returns the default session store location.
// Returns ~/.local/share/restock/restock.db or empty string if home dir
// is unavailable.
func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "restock", "restock.db")
}

// DefaultCacheDir returns the default device cache directory.
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cache", "restock")
}

// DefaultTracesFilePath returns the default path for trace file export.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "restock", "traces", "traces.jsonl")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		StorePath:       DefaultStorePath(),
		CacheDir:        DefaultCacheDir(),
		AutoRefresh:     true,
		RefreshDebounce: time.Second,
		Tracing:         tracing.DefaultConfig(),
	}
}

// Validate checks the configuration for errors.
func Validate(cfg Config) error {
	if cfg.RefreshDebounce < 0 {
		return fmt.Errorf("refresh_debounce must not be negative, got %v", cfg.RefreshDebounce)
	}
	return ValidateTracing(cfg.Tracing)
}

// ValidateTracing checks the tracing section.
func ValidateTracing(cfg tracing.Config) error {
	if cfg.SampleRate < 0.0 || cfg.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", cfg.SampleRate)
	}

	if cfg.Exporter != "" {
		switch cfg.Exporter {
		case "none", "file", "stdout", "otlp":
			// Valid
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", cfg.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if cfg.Enabled {
		if cfg.Exporter == "file" && cfg.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if cfg.Exporter == "otlp" && cfg.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Restock Configuration

# Session store location (default: ~/.local/share/restock/restock.db)
# store_path: /path/to/restock.db

# Device cache directory (default: ~/.cache/restock)
# cache_dir: ~/.cache/restock

# User the sessions belong to. RESTOCK_USER_ID overrides this.
# user_id: you@example.com

# Re-read the store when another process writes it
auto_refresh: true

# How long to coalesce store writes before refreshing
refresh_debounce: 1s

# Command tracing (off by default)
# tracing:
#   enabled: true
#   exporter: file
#   file_path: ~/.config/restock/traces/traces.jsonl
#
# Example: Send traces to Jaeger via OTLP
# tracing:
#   enabled: true
#   exporter: otlp
#   otlp_endpoint: jaeger.internal:4317
#   sample_rate: 0.1  # Sample 10% of traces
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments. Creates the parent directory if it doesn't exist.
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
