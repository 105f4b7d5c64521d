package main

import (
	"fmt"
	"os"

	"github.com/lox/loveletter/internal/server"
)

// ServerCmd runs the WebSocket game server.
type ServerCmd struct {
	Config     string `short:"c" default:"loveletter.hcl" help:"Path to HCL configuration file (defaults apply if missing)"`
	Address    string `short:"a" help:"Address to bind to (overrides config)"`
	Port       int    `short:"p" help:"Port to listen on (overrides config)"`
	LogLevel   string `short:"l" help:"Log level (overrides config)"`
	Seed       int64  `help:"Deterministic seed for every game (overrides config)"`
	HistoryDir string `help:"Write game histories to this directory (overrides config)"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadServerConfig(c.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if c.Address != "" {
		cfg.Server.Address = c.Address
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if c.Seed != 0 {
		cfg.Server.Seed = c.Seed
	}
	if c.HistoryDir != "" {
		cfg.Server.HistoryDir = c.HistoryDir
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(os.Stderr, cfg.Server.LogLevel)
	if err != nil {
		return err
	}

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		return err
	}

	games := make([]string, 0, len(cfg.Games))
	for _, g := range cfg.Games {
		games = append(games, g.Name)
	}
	logger.Info("Starting Love Letter server",
		"addr", cfg.GetServerAddress(),
		"games", games,
		"turnTimeout", cfg.TurnTimeout(),
		"historyDir", cfg.Server.HistoryDir)

	ctx, cancel := signalContext(logger)
	defer cancel()
	return srv.Start(ctx)
}
