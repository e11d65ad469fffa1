// Package config loads process configuration from MUDRA_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds process-level settings. Tracking and control tuning live in the
// store and are edited at runtime.
type Config struct {
	Addr          string        `env:"MUDRA_ADDR" envDefault:"127.0.0.1:8080"`
	DataDir       string        `env:"MUDRA_DATA_DIR"`
	PluginDir     string        `env:"MUDRA_PLUGIN_DIR"`
	StaticDir     string        `env:"MUDRA_STATIC_DIR"`
	BridgePath    string        `env:"MUDRA_BRIDGE_PATH"`
	BridgeArgs    []string      `env:"MUDRA_BRIDGE_ARGS" envSeparator:" "`
	CaptureFPS    int           `env:"MUDRA_CAPTURE_FPS" envDefault:"30"`
	IdleFPS       int           `env:"MUDRA_IDLE_FPS" envDefault:"5"`
	IdleTimeout   time.Duration `env:"MUDRA_IDLE_TIMEOUT" envDefault:"2s"`
	PluginTimeout time.Duration `env:"MUDRA_PLUGIN_TIMEOUT" envDefault:"2s"`
	RecordDir     string        `env:"MUDRA_RECORD_DIR"`
	Tray          bool          `env:"MUDRA_TRAY" envDefault:"true"`
	Verbose       bool          `env:"MUDRA_VERBOSE"`
}

// DatabasePath returns the SQLite database location.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "mudra.db")
}

// Load parses the environment and fills derived defaults.
// DataDir defaults to ~/.mudra and PluginDir to DataDir/plugins.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home dir: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".mudra")
	}
	if cfg.PluginDir == "" {
		cfg.PluginDir = filepath.Join(cfg.DataDir, "plugins")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks numeric settings.
func (c Config) Validate() error {
	switch {
	case c.CaptureFPS <= 0:
		return fmt.Errorf("MUDRA_CAPTURE_FPS must be positive, got %d", c.CaptureFPS)
	case c.IdleFPS <= 0 || c.IdleFPS > c.CaptureFPS:
		return fmt.Errorf("MUDRA_IDLE_FPS must be between 1 and %d, got %d", c.CaptureFPS, c.IdleFPS)
	case c.IdleTimeout < 0:
		return fmt.Errorf("MUDRA_IDLE_TIMEOUT must not be negative, got %s", c.IdleTimeout)
	case c.PluginTimeout <= 0:
		return fmt.Errorf("MUDRA_PLUGIN_TIMEOUT must be positive, got %s", c.PluginTimeout)
	}
	return nil
}
