package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lox/loveletter/internal/bot"
	"github.com/lox/loveletter/internal/client"
	"github.com/lox/loveletter/internal/gameid"
	"github.com/lox/loveletter/internal/randutil"
)

// BotCmd plays one game on a server with a built-in strategy.
type BotCmd struct {
	Config   string `short:"c" default:"loveletter-bot.hcl" help:"Path to HCL client configuration file (defaults apply if missing)"`
	URL      string `short:"u" help:"Server URL (overrides config)"`
	Name     string `short:"n" help:"Player name (defaults to <strategy>-<random suffix>)"`
	Game     string `short:"g" help:"Game to join (overrides config)"`
	Strategy string `short:"s" help:"Bot strategy: random or cautious (overrides config)"`
	Seed     int64  `help:"Seed for the bot's decisions (0 for random)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
}

func (c *BotCmd) Run() error {
	cfg, err := client.LoadClientConfig(c.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if c.URL != "" {
		cfg.Server.URL = c.URL
	}
	if c.Game != "" {
		cfg.Player.Game = c.Game
	}
	if c.Strategy != "" {
		cfg.Player.Strategy = c.Strategy
	}
	if c.Seed != 0 {
		cfg.Player.Seed = c.Seed
	}
	if c.LogLevel != "" {
		cfg.Player.LogLevel = c.LogLevel
	}
	if c.Name != "" {
		cfg.Player.Name = c.Name
	}
	if cfg.Player.Name == "" {
		id := gameid.Generate()
		cfg.Player.Name = fmt.Sprintf("%s-%s", cfg.Player.Strategy, id[len(id)-6:])
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(os.Stderr, cfg.Player.LogLevel)
	if err != nil {
		return err
	}
	logger = logger.With("player", cfg.Player.Name)

	seed := cfg.Player.Seed
	if seed == 0 {
		seed = randutil.NewSeed()
	}
	agent, err := bot.New(cfg.Player.Strategy, randutil.New(seed), logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	conn := client.NewClient(cfg.Server.URL, logger)
	connectCtx, cancelConnect := context.WithTimeout(ctx, cfg.ConnectTimeout())
	err = client.WaitForServer(connectCtx, cfg.Server.URL)
	if err == nil {
		err = conn.Connect(connectCtx)
	}
	cancelConnect()
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", cfg.Server.URL, err)
	}
	defer func() {
		if err := conn.Disconnect(); err != nil {
			logger.Debug("Disconnect failed", "error", err)
		}
	}()

	logger.Info("Joining game", "server", cfg.Server.URL, "game", cfg.Player.Game, "strategy", cfg.Player.Strategy, "seed", seed)
	result, err := client.NewNetworkAgent(conn, agent, logger).Run(ctx, cfg.Player.Game, cfg.Player.Name)
	if err != nil {
		return err
	}

	logger.Info("Game over",
		"game", result.GameID,
		"winner", result.Winner,
		"won", result.Won(cfg.Player.Name),
		"rounds", result.Rounds,
		"tokens", result.Tokens)
	return nil
}
