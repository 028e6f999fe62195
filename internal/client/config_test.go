package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.Server.URL)
	assert.Equal(t, "warn", cfg.UI.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.hcl")
	content := `
server {
  url = "http://game.example.com:9000"
}

player {
  name = "Alice"
}

ui {
  log_level = "debug"
}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://game.example.com:9000", cfg.Server.URL)
	assert.Equal(t, "Alice", cfg.Player.Name)
	assert.Equal(t, "debug", cfg.UI.LogLevel)

	// Unset fields pick up defaults.
	assert.Equal(t, 10, cfg.Server.ConnectTimeout)
	assert.Equal(t, 3, cfg.Server.PublishAttempts)
	assert.Equal(t, "codewords.log", cfg.UI.LogFile)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigRejectsBadHCL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`server { url = `), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty url", func(c *Config) { c.Server.URL = "" }},
		{"zero connect timeout", func(c *Config) { c.Server.ConnectTimeout = 0 }},
		{"negative retry delay", func(c *Config) { c.Server.RetryDelayMillis = -1 }},
		{"bad log level", func(c *Config) { c.UI.LogLevel = "loud" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSyncConfigConversion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.RetryDelayMillis = 250
	cfg.Server.PollIntervalSecs = 7

	sc := cfg.SyncConfig()
	assert.Equal(t, 250*time.Millisecond, sc.RetryDelay)
	assert.Equal(t, 7*time.Second, sc.PollInterval)
	assert.Equal(t, cfg.Server.PublishAttempts, sc.PublishAttempts)
}
