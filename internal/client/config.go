package client

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/codewords/internal/syncer"
)

// Config represents the complete client configuration
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Player PlayerSettings `hcl:"player,block"`
	UI     UISettings     `hcl:"ui,block"`
}

// ServerSettings contains sync server connection settings
type ServerSettings struct {
	URL               string `hcl:"url"`
	ConnectTimeout    int    `hcl:"connect_timeout,optional"`
	RequestTimeout    int    `hcl:"request_timeout,optional"`
	PublishAttempts   int    `hcl:"publish_attempts,optional"`
	SubscribeAttempts int    `hcl:"subscribe_attempts,optional"`
	RetryDelayMillis  int    `hcl:"retry_delay_ms,optional"`
	PollIntervalSecs  int    `hcl:"poll_interval,optional"`
}

// PlayerSettings contains player-specific settings
type PlayerSettings struct {
	Name string `hcl:"name,optional"`
}

// UISettings contains user interface settings
type UISettings struct {
	LogLevel  string `hcl:"log_level,optional"`
	LogFile   string `hcl:"log_file,optional"`
	CachePath string `hcl:"cache_path,optional"`
}

// DefaultConfig returns default client configuration
func DefaultConfig() *Config {
	retry := syncer.DefaultConfig()
	return &Config{
		Server: ServerSettings{
			URL:               "http://localhost:8080",
			ConnectTimeout:    10,
			RequestTimeout:    30,
			PublishAttempts:   retry.PublishAttempts,
			SubscribeAttempts: retry.SubscribeAttempts,
			RetryDelayMillis:  int(retry.RetryDelay / time.Millisecond),
			PollIntervalSecs:  int(retry.PollInterval / time.Second),
		},
		Player: PlayerSettings{
			Name: "",
		},
		UI: UISettings{
			LogLevel:  "warn",
			LogFile:   "codewords.log",
			CachePath: "codewords.db",
		},
	}
}

// LoadConfig loads client configuration from an HCL file. A missing
// file is not an error: it yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	defaults := DefaultConfig()

	if config.Server.URL == "" {
		config.Server.URL = defaults.Server.URL
	}
	if config.Server.ConnectTimeout == 0 {
		config.Server.ConnectTimeout = defaults.Server.ConnectTimeout
	}
	if config.Server.RequestTimeout == 0 {
		config.Server.RequestTimeout = defaults.Server.RequestTimeout
	}
	if config.Server.PublishAttempts == 0 {
		config.Server.PublishAttempts = defaults.Server.PublishAttempts
	}
	if config.Server.SubscribeAttempts == 0 {
		config.Server.SubscribeAttempts = defaults.Server.SubscribeAttempts
	}
	if config.Server.RetryDelayMillis == 0 {
		config.Server.RetryDelayMillis = defaults.Server.RetryDelayMillis
	}
	if config.Server.PollIntervalSecs == 0 {
		config.Server.PollIntervalSecs = defaults.Server.PollIntervalSecs
	}

	if config.UI.LogLevel == "" {
		config.UI.LogLevel = defaults.UI.LogLevel
	}
	if config.UI.LogFile == "" {
		config.UI.LogFile = defaults.UI.LogFile
	}
	if config.UI.CachePath == "" {
		config.UI.CachePath = defaults.UI.CachePath
	}

	return &config, nil
}

// Validate validates the client configuration
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server URL is required")
	}

	if c.Server.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive")
	}

	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}

	if c.Server.PublishAttempts <= 0 {
		return fmt.Errorf("publish attempts must be positive")
	}

	if c.Server.SubscribeAttempts <= 0 {
		return fmt.Errorf("subscribe attempts must be positive")
	}

	if c.Server.RetryDelayMillis <= 0 {
		return fmt.Errorf("retry delay must be positive")
	}

	if c.Server.PollIntervalSecs <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.UI.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.UI.LogLevel)
	}

	return nil
}

// SyncConfig converts the server block into the syncer's retry policy.
func (c *Config) SyncConfig() syncer.Config {
	return syncer.Config{
		PublishAttempts:   c.Server.PublishAttempts,
		SubscribeAttempts: c.Server.SubscribeAttempts,
		RetryDelay:        time.Duration(c.Server.RetryDelayMillis) * time.Millisecond,
		PollInterval:      time.Duration(c.Server.PollIntervalSecs) * time.Second,
	}
}

// ConnectTimeout returns the dial timeout as a duration.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Server.ConnectTimeout) * time.Second
}

// RequestTimeout returns the per-request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeout) * time.Second
}
