package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/loveletter/internal/deck"
	"github.com/lox/loveletter/internal/simulator"
	"github.com/lox/loveletter/internal/tui"
)

var titleStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#7D56F4")).
	Padding(0, 1).
	Bold(true)

// PlayCmd runs a local game against bots in the terminal.
type PlayCmd struct {
	Name       string        `default:"you" help:"Your player name"`
	Bots       int           `short:"b" default:"1" help:"Number of bot opponents"`
	Strategies []string      `short:"s" default:"cautious" help:"Bot strategies, assigned round-robin"`
	Seed       int64         `help:"Seed for the shuffle and bots (0 for random)"`
	Catalog    string        `default:"classic" help:"Card catalog"`
	Threshold  int           `help:"Tokens needed to win (0 uses the player-count default)"`
	Delay      time.Duration `default:"600ms" help:"Pause before each bot turn"`
	NoColor    bool          `help:"Disable colours"`
	LogFile    string        `default:"loveletter.log" help:"Debug log file"`
}

func (c *PlayCmd) Run() error {
	catalog, err := deck.NewRegistry().Lookup(c.Catalog)
	if err != nil {
		return err
	}
	if c.Bots < 1 || c.Bots+1 > catalog.PlayerLimit() {
		return fmt.Errorf("catalog %s seats 1-%d bots, got %d", catalog.ID, catalog.PlayerLimit()-1, c.Bots)
	}

	bots := make([]string, c.Bots)
	for i := range bots {
		bots[i] = simulator.SeatStrategy(c.Strategies, 0, i)
	}

	debugFile, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create debug log: %w", err)
	}
	defer func() {
		if err := debugFile.Close(); err != nil {
			log.Error("Failed to close debug file", "error", err)
		}
	}()

	logger := log.NewWithOptions(debugFile, log.Options{
		Level:           log.DebugLevel,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Prefix:          "PLAY",
	})

	fmt.Println(titleStyle.Render(" ♥ Love Letter ♥ "))

	ctx, cancel := signalContext(logger)
	defer cancel()

	return tui.Run(ctx, tui.Options{
		Player:    c.Name,
		Bots:      bots,
		Catalog:   catalog,
		Seed:      c.Seed,
		Threshold: c.Threshold,
		BotDelay:  c.Delay,
		NoColor:   c.NoColor,
		Logger:    logger,
	})
}
