package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_AreValid(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "verbose"
	cfg.Server.Port = 0
	cfg.Gateway.BaseURL = ""
	cfg.Redis.Addr = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "server: port")
	assert.Contains(t, err.Error(), "gateway: base_url")
	assert.Contains(t, err.Error(), "redis: addr")
}

func TestValidate_DatabaseCheckedOnlyWhenEnabled(t *testing.T) {
	cfg := Defaults()
	cfg.Database.Enabled = false
	cfg.Database.Host = ""
	assert.NoError(t, cfg.Validate())

	cfg.Database.Enabled = true
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database: host")
}

func TestValidate_RateWindowRequiredWithLimit(t *testing.T) {
	cfg := Defaults()
	cfg.Ticket.SubmitRateLimit = 5
	cfg.Ticket.SubmitRateWindowSeconds = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "submit_rate_window_seconds")
}

func TestValidate_ServerRateWindowRequiredWithLimit(t *testing.T) {
	cfg := Defaults()
	cfg.Server.RateLimit = 100
	cfg.Server.RateWindowSeconds = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server: rate_window_seconds")

	cfg.Server.RateLimit = 0
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"

[server]
port = 9000

[gateway]
base_url = "https://orders.example.com"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "https://orders.example.com", cfg.Gateway.BaseURL)
	// Untouched sections keep their defaults.
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 24, cfg.Ticket.DraftTTLHours)
}

func TestLoad_EnvOverridesWin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[gateway]
base_url = "https://from-file.example.com"
`), 0o600))

	t.Setenv("ORDERPAD_GATEWAY_BASE_URL", "https://from-env.example.com")
	t.Setenv("ORDERPAD_TICKET_SUBMIT_RATE_LIMIT", "3")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://from-env.example.com", cfg.Gateway.BaseURL)
	assert.Equal(t, 3, cfg.Ticket.SubmitRateLimit)
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Server.APIKey = "server-key"
	cfg.Gateway.APIKey = "gateway-key"
	cfg.Database.Password = "hunter2"

	red := RedactedConfig(&cfg)
	assert.Equal(t, "***", red.Server.APIKey)
	assert.Equal(t, "***", red.Gateway.APIKey)
	assert.Equal(t, "***", red.Database.Password)
	// Original is untouched.
	assert.Equal(t, "hunter2", cfg.Database.Password)
	// Empty fields stay empty rather than becoming placeholders.
	assert.Empty(t, red.Redis.Password)
}
