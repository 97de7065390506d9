package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ORDERPAD_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ORDERPAD_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Server ──
	setInt(&cfg.Server.Port, "ORDERPAD_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "ORDERPAD_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "ORDERPAD_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimit, "ORDERPAD_SERVER_RATE_LIMIT")
	setInt(&cfg.Server.RateWindowSeconds, "ORDERPAD_SERVER_RATE_WINDOW_SECONDS")

	// ── Gateway ──
	setStr(&cfg.Gateway.BaseURL, "ORDERPAD_GATEWAY_BASE_URL")
	setStr(&cfg.Gateway.APIKey, "ORDERPAD_GATEWAY_API_KEY")
	setInt(&cfg.Gateway.TimeoutSeconds, "ORDERPAD_GATEWAY_TIMEOUT_SECONDS")

	// ── Database ──
	setBool(&cfg.Database.Enabled, "ORDERPAD_DATABASE_ENABLED")
	setStr(&cfg.Database.DSN, "ORDERPAD_DATABASE_DSN")
	setStr(&cfg.Database.Host, "ORDERPAD_DATABASE_HOST")
	setInt(&cfg.Database.Port, "ORDERPAD_DATABASE_PORT")
	setStr(&cfg.Database.Database, "ORDERPAD_DATABASE_NAME")
	setStr(&cfg.Database.User, "ORDERPAD_DATABASE_USER")
	setStr(&cfg.Database.Password, "ORDERPAD_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "ORDERPAD_DATABASE_SSL_MODE")
	setInt(&cfg.Database.PoolMaxConns, "ORDERPAD_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "ORDERPAD_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "ORDERPAD_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ORDERPAD_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ORDERPAD_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ORDERPAD_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ORDERPAD_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ORDERPAD_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ORDERPAD_REDIS_TLS_ENABLED")

	// ── Ticket ──
	setInt(&cfg.Ticket.DraftTTLHours, "ORDERPAD_TICKET_DRAFT_TTL_HOURS")
	setInt(&cfg.Ticket.SubmitRateLimit, "ORDERPAD_TICKET_SUBMIT_RATE_LIMIT")
	setInt(&cfg.Ticket.SubmitRateWindowSeconds, "ORDERPAD_TICKET_SUBMIT_RATE_WINDOW_SECONDS")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "ORDERPAD_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
