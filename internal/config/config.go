// Package config resolves Drey's runtime configuration.
// Priority: defaults < .env file < environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all resolved configuration values.
type Config struct {
	// DatabaseURL is the PostgreSQL connection string. Required.
	DatabaseURL string

	// Connection pool sizing and per-connection limits.
	PoolMinConns     int32
	PoolMaxConns     int32
	StatementTimeout time.Duration
	ConnectTimeout   time.Duration

	// SessionTTL is how long a session lives without being renewed.
	SessionTTL time.Duration

	// Cleanup scheduler cadence. The aggressive tier is opt-in and
	// only removes sessions expired for longer than CleanupGrace.
	CleanupInterval           time.Duration
	CleanupAggressive         bool
	CleanupAggressiveInterval time.Duration
	CleanupGrace              time.Duration

	LogLevel slog.Level
}

// Defaults returns the base configuration with sensible defaults.
// Everything except DatabaseURL works out of the box.
func Defaults() Config {
	return Config{
		PoolMinConns:              0,
		PoolMaxConns:              4,
		StatementTimeout:          30 * time.Second,
		ConnectTimeout:            10 * time.Second,
		SessionTTL:                24 * time.Hour,
		CleanupInterval:           time.Hour,
		CleanupAggressive:         false,
		CleanupAggressiveInterval: 10 * time.Minute,
		CleanupGrace:              time.Hour,
		LogLevel:                  slog.LevelInfo,
	}
}

// Load builds the final configuration: defaults, then a .env file when one
// exists in the working directory, then process environment variables.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if err := applyEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// applyEnv overrides cfg from environment variables. Unset variables keep
// their defaults; set-but-invalid values are errors rather than silent
// fallbacks, since a typo in a timeout should not go unnoticed.
func applyEnv(cfg *Config) error {
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	var err error
	if cfg.PoolMinConns, err = envInt32("DREY_POOL_MIN_CONNS", cfg.PoolMinConns); err != nil {
		return err
	}
	if cfg.PoolMaxConns, err = envInt32("DREY_POOL_MAX_CONNS", cfg.PoolMaxConns); err != nil {
		return err
	}
	if cfg.StatementTimeout, err = envDuration("DREY_STATEMENT_TIMEOUT", cfg.StatementTimeout); err != nil {
		return err
	}
	if cfg.ConnectTimeout, err = envDuration("DREY_CONNECT_TIMEOUT", cfg.ConnectTimeout); err != nil {
		return err
	}
	if cfg.SessionTTL, err = envDuration("DREY_SESSION_TTL", cfg.SessionTTL); err != nil {
		return err
	}
	if cfg.CleanupInterval, err = envDuration("DREY_CLEANUP_INTERVAL", cfg.CleanupInterval); err != nil {
		return err
	}
	if cfg.CleanupAggressive, err = envBool("DREY_CLEANUP_AGGRESSIVE", cfg.CleanupAggressive); err != nil {
		return err
	}
	if cfg.CleanupAggressiveInterval, err = envDuration("DREY_CLEANUP_AGGRESSIVE_INTERVAL", cfg.CleanupAggressiveInterval); err != nil {
		return err
	}
	if cfg.CleanupGrace, err = envDuration("DREY_CLEANUP_GRACE", cfg.CleanupGrace); err != nil {
		return err
	}

	if v := os.Getenv("DREY_LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("DREY_LOG_LEVEL: %q is not a log level (use debug, info, warn, or error)", v)
		}
	}
	return nil
}

// Validate checks that configuration values are within acceptable ranges.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required (postgres connection string)")
	}
	if c.PoolMaxConns < 1 {
		return fmt.Errorf("DREY_POOL_MAX_CONNS must be at least 1, got %d", c.PoolMaxConns)
	}
	if c.PoolMinConns < 0 || c.PoolMinConns > c.PoolMaxConns {
		return fmt.Errorf("DREY_POOL_MIN_CONNS must be between 0 and %d, got %d", c.PoolMaxConns, c.PoolMinConns)
	}
	if c.StatementTimeout <= 0 {
		return fmt.Errorf("DREY_STATEMENT_TIMEOUT must be positive, got %s", c.StatementTimeout)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("DREY_CONNECT_TIMEOUT must be positive, got %s", c.ConnectTimeout)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("DREY_SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.CleanupInterval < time.Minute {
		return fmt.Errorf("DREY_CLEANUP_INTERVAL must be at least 1m, got %s", c.CleanupInterval)
	}
	if c.CleanupAggressiveInterval < time.Minute {
		return fmt.Errorf("DREY_CLEANUP_AGGRESSIVE_INTERVAL must be at least 1m, got %s", c.CleanupAggressiveInterval)
	}
	if c.CleanupGrace < 0 {
		return fmt.Errorf("DREY_CLEANUP_GRACE must not be negative, got %s", c.CleanupGrace)
	}
	return nil
}

func envInt32(name string, fallback int32) (int32, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", name, v)
	}
	return int32(n), nil
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a duration (use forms like 30s, 10m, 1h)", name, v)
	}
	return d, nil
}

func envBool(name string, fallback bool) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %q is not a boolean (use true or false)", name, v)
	}
	return b, nil
}
