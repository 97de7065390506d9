// Package config defines the top-level configuration for the orderpad
// service and provides validation helpers.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by ORDERPAD_* environment
// variables.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Gateway  GatewayConfig  `toml:"gateway"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	Ticket   TicketConfig   `toml:"ticket"`
	LogLevel string         `toml:"log_level"`
}

// ServerConfig holds the HTTP API parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	APIKey      string   `toml:"api_key"`
	CORSOrigins []string `toml:"cors_origins"`
	// RateLimit caps API requests per client IP within the rate window.
	// Zero disables per-IP rate limiting.
	RateLimit int `toml:"rate_limit"`
	// RateWindowSeconds is the per-IP rate-limit window length.
	RateWindowSeconds int `toml:"rate_window_seconds"`
}

// GatewayConfig holds the order submission service parameters.
type GatewayConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// DatabaseConfig holds PostgreSQL connection parameters for the submission
// history store. History is optional: with Enabled false the service runs
// without it.
type DatabaseConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// TicketConfig holds ticket session parameters.
type TicketConfig struct {
	// DraftTTLHours bounds how long a mirrored draft survives in Redis.
	DraftTTLHours int `toml:"draft_ttl_hours"`
	// SubmitRateLimit caps submissions per session within the rate window.
	// Zero disables submission rate limiting.
	SubmitRateLimit int `toml:"submit_rate_limit"`
	// SubmitRateWindowSeconds is the rate-limit window length.
	SubmitRateWindowSeconds int `toml:"submit_rate_window_seconds"`
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Defaults returns the built-in configuration a TOML file is merged over.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:              8080,
			RateLimit:         120,
			RateWindowSeconds: 60,
		},
		Gateway: GatewayConfig{
			BaseURL:        "http://localhost:9090",
			TimeoutSeconds: 30,
		},
		Database: DatabaseConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "orderpad",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		Ticket: TicketConfig{
			DraftTTLHours:           24,
			SubmitRateLimit:         10,
			SubmitRateWindowSeconds: 60,
		},
		LogLevel: "info",
	}
}

// Validate checks the configuration for internal consistency and returns an
// error listing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server: rate_limit must be >= 0")
	}
	if c.Server.RateLimit > 0 && c.Server.RateWindowSeconds <= 0 {
		errs = append(errs, "server: rate_window_seconds must be > 0 when rate_limit is set")
	}

	if c.Gateway.BaseURL == "" {
		errs = append(errs, "gateway: base_url must not be empty")
	}
	if c.Gateway.TimeoutSeconds <= 0 {
		errs = append(errs, "gateway: timeout_seconds must be > 0")
	}

	if c.Database.Enabled {
		if strings.TrimSpace(c.Database.DSN) == "" {
			if c.Database.Host == "" {
				errs = append(errs, "database: host must not be empty (or set database.dsn)")
			}
			if c.Database.Port <= 0 || c.Database.Port > 65535 {
				errs = append(errs, fmt.Sprintf("database: port must be 1-65535, got %d", c.Database.Port))
			}
			if c.Database.Database == "" {
				errs = append(errs, "database: database must not be empty")
			}
		}
		if c.Database.PoolMaxConns < 1 {
			errs = append(errs, "database: pool_max_conns must be >= 1")
		}
		if c.Database.PoolMinConns < 0 {
			errs = append(errs, "database: pool_min_conns must be >= 0")
		}
		if c.Database.PoolMinConns > c.Database.PoolMaxConns {
			errs = append(errs, "database: pool_min_conns must not exceed pool_max_conns")
		}
	}

	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	if c.Ticket.DraftTTLHours < 1 {
		errs = append(errs, "ticket: draft_ttl_hours must be >= 1")
	}
	if c.Ticket.SubmitRateLimit < 0 {
		errs = append(errs, "ticket: submit_rate_limit must be >= 0")
	}
	if c.Ticket.SubmitRateLimit > 0 && c.Ticket.SubmitRateWindowSeconds <= 0 {
		errs = append(errs, "ticket: submit_rate_window_seconds must be > 0 when submit_rate_limit is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
