// Package config loads the service configuration from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Environment variables that override file settings.
const (
	EnvDBPath = "OPTCG_DB_PATH"
	EnvPort   = "OPTCG_PORT"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
	Prices   PricesConfig   `toml:"prices"`
}

// ServerConfig contains HTTP API settings.
type ServerConfig struct {
	Port           int      `toml:"port"`
	RequestTimeout string   `toml:"request_timeout"` // e.g. "30s"
	AllowedOrigins []string `toml:"allowed_origins"` // CORS origins
	RateLimitRPS   float64  `toml:"rate_limit_rps"`  // 0 disables rate limiting
	RateLimitBurst int      `toml:"rate_limit_burst"`
}

// DatabaseConfig contains SQLite settings.
type DatabaseConfig struct {
	Path        string `toml:"path"`
	AutoMigrate bool   `toml:"auto_migrate"`
	BusyTimeout string `toml:"busy_timeout"` // e.g. "5s"
	JournalMode string `toml:"journal_mode"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Mode  string `toml:"mode"`  // "development" or "production"
	Level string `toml:"level"` // debug, info, warn, error
}

// PricesConfig contains price analysis defaults.
type PricesConfig struct {
	Sources           []string `toml:"sources"`            // Known markets in display order
	HistoryDays       int      `toml:"history_days"`       // Default price history window
	MoversDays        int      `toml:"movers_days"`        // Default movers window
	MoversLimit       int      `toml:"movers_limit"`       // Default movers per side
	LookupConcurrency int      `toml:"lookup_concurrency"` // Parallel price lookups per deck
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8000,
			RequestTimeout: "30s",
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
			RateLimitRPS:   20,
			RateLimitBurst: 40,
		},
		Database: DatabaseConfig{
			Path:        "optcg.db",
			AutoMigrate: true,
			BusyTimeout: "5s",
			JournalMode: "WAL",
		},
		Log: LogConfig{
			Mode:  "development",
			Level: "info",
		},
		Prices: PricesConfig{
			Sources:           []string{"tcgplayer", "cardmarket"},
			HistoryDays:       30,
			MoversDays:        7,
			MoversLimit:       20,
			LookupConcurrency: 8,
		},
	}
}

// Load reads the configuration at path over the defaults, then applies
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := toml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvDBPath)); v != "" {
		c.Database.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPort)); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		c.Server.Port = port
	}
	return nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}
	if _, err := time.ParseDuration(c.Server.RequestTimeout); err != nil {
		return fmt.Errorf("invalid request timeout %q: %w", c.Server.RequestTimeout, err)
	}
	if c.Server.RateLimitRPS < 0 {
		return fmt.Errorf("rate limit cannot be negative: %v", c.Server.RateLimitRPS)
	}
	if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("rate limit burst must be positive when rate limiting is enabled: %d", c.Server.RateLimitBurst)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if _, err := time.ParseDuration(c.Database.BusyTimeout); err != nil {
		return fmt.Errorf("invalid busy timeout %q: %w", c.Database.BusyTimeout, err)
	}

	switch strings.ToLower(c.Log.Mode) {
	case "development", "dev", "production", "prod":
	default:
		return fmt.Errorf("invalid log mode %q", c.Log.Mode)
	}

	if len(c.Prices.Sources) == 0 {
		return fmt.Errorf("at least one price source is required")
	}
	if c.Prices.HistoryDays < 1 || c.Prices.HistoryDays > 365 {
		return fmt.Errorf("price history days out of range: %d", c.Prices.HistoryDays)
	}
	if c.Prices.MoversDays < 1 || c.Prices.MoversDays > 30 {
		return fmt.Errorf("movers days out of range: %d", c.Prices.MoversDays)
	}
	if c.Prices.MoversLimit < 1 || c.Prices.MoversLimit > 50 {
		return fmt.Errorf("movers limit out of range: %d", c.Prices.MoversLimit)
	}
	if c.Prices.LookupConcurrency < 1 {
		return fmt.Errorf("lookup concurrency must be positive: %d", c.Prices.LookupConcurrency)
	}

	return nil
}

// GetRequestTimeout returns the request timeout as a duration.
func (c *Config) GetRequestTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Server.RequestTimeout)
}

// GetBusyTimeout returns the database busy timeout as a duration.
func (c *Config) GetBusyTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Database.BusyTimeout)
}
