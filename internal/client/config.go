package client

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/loveletter/internal/bot"
)

// ClientConfig represents the complete remote bot configuration
type ClientConfig struct {
	Server ServerConnection `hcl:"server,block"`
	Player PlayerSettings   `hcl:"player,block"`
}

// ServerConnection contains server connection settings
type ServerConnection struct {
	URL            string `hcl:"url,optional"`
	ConnectTimeout int    `hcl:"connect_timeout,optional"` // seconds
}

// PlayerSettings contains player-specific settings
type PlayerSettings struct {
	Name     string `hcl:"name,optional"`
	Game     string `hcl:"game,optional"`
	Strategy string `hcl:"strategy,optional"`
	Seed     int64  `hcl:"seed,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// DefaultClientConfig returns default client configuration
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Server: ServerConnection{
			URL:            "http://localhost:8080",
			ConnectTimeout: 10,
		},
		Player: PlayerSettings{
			Game:     "main",
			Strategy: bot.StrategyCautious,
			LogLevel: "info",
		},
	}
}

// LoadClientConfig loads client configuration from HCL file. A missing file
// yields the defaults.
func LoadClientConfig(filename string) (*ClientConfig, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return DefaultClientConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ClientConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	defaults := DefaultClientConfig()
	if config.Server.URL == "" {
		config.Server.URL = defaults.Server.URL
	}
	if config.Server.ConnectTimeout == 0 {
		config.Server.ConnectTimeout = defaults.Server.ConnectTimeout
	}
	if config.Player.Game == "" {
		config.Player.Game = defaults.Player.Game
	}
	if config.Player.Strategy == "" {
		config.Player.Strategy = defaults.Player.Strategy
	}
	if config.Player.LogLevel == "" {
		config.Player.LogLevel = defaults.Player.LogLevel
	}

	return &config, nil
}

// Validate validates the client configuration
func (c *ClientConfig) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server URL is required")
	}
	if _, err := WebSocketURL(c.Server.URL); err != nil {
		return err
	}
	if c.Player.Name == "" {
		return fmt.Errorf("player name is required")
	}
	if c.Server.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive")
	}

	valid := false
	for _, s := range bot.Strategies() {
		if s == c.Player.Strategy {
			valid = true
		}
	}
	if !valid {
		return fmt.Errorf("invalid strategy: %s", c.Player.Strategy)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Player.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.Player.LogLevel)
	}
	return nil
}

// ConnectTimeout returns how long to wait for the initial connection.
func (c *ClientConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.Server.ConnectTimeout) * time.Second
}
