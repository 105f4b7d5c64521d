package main

import (
	"fmt"
	"os"
	"time"

	"github.com/lox/loveletter/internal/deck"
	"github.com/lox/loveletter/internal/randutil"
	"github.com/lox/loveletter/internal/simulator"
)

// SimulateCmd plays bot-only games locally.
type SimulateCmd struct {
	Games      int      `short:"n" default:"1000" help:"Number of games to play"`
	Workers    int      `short:"w" help:"Parallel workers (defaults to GOMAXPROCS)"`
	Seed       int64    `help:"Seed for the run (0 for random)"`
	Players    int      `short:"p" default:"3" help:"Players per game"`
	Strategies []string `short:"s" default:"random,cautious" help:"Strategies seated round-robin"`
	Catalog    string   `default:"classic" help:"Card catalog"`
	Threshold  int      `help:"Tokens needed to win (0 uses the player-count default)"`
	LogLevel   string   `short:"l" default:"warn" help:"Log level"`
}

func (c *SimulateCmd) Run() error {
	logger, err := newLogger(os.Stderr, c.LogLevel)
	if err != nil {
		return err
	}

	catalog, err := deck.NewRegistry().Lookup(c.Catalog)
	if err != nil {
		return err
	}

	seed := c.Seed
	if seed == 0 {
		seed = randutil.NewSeed()
	}

	cfg := simulator.Config{
		Games:      c.Games,
		Workers:    c.Workers,
		Seed:       seed,
		Players:    c.Players,
		Strategies: c.Strategies,
		Catalog:    catalog,
		Threshold:  c.Threshold,
		Logger:     logger,
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	start := time.Now()
	stats, err := simulator.Run(ctx, cfg)
	if err != nil {
		return err
	}

	simulator.PrintSummary(os.Stdout, stats, cfg)
	fmt.Printf("\nSeed: %d (%s, %.0f games/sec)\n", seed, time.Since(start).Round(time.Millisecond),
		float64(stats.Games)/time.Since(start).Seconds())
	return nil
}
