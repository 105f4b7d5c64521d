package tui

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/lox/loveletter/internal/bot"
	"github.com/lox/loveletter/internal/deck"
	"github.com/lox/loveletter/internal/game"
	"github.com/lox/loveletter/internal/gameid"
	"github.com/lox/loveletter/internal/randutil"
	"github.com/lox/loveletter/internal/table"
)

// Options configures a local game.
type Options struct {
	Player    string
	Bots      []string // one strategy per opponent
	Catalog   deck.Catalog
	Seed      int64
	Threshold int
	BotDelay  time.Duration
	NoColor   bool
	Logger    *log.Logger
}

// Game is a local table seated with one human and bots.
type Game struct {
	Table *table.Table
	Bots  map[string]bot.Agent
	Seed  int64
}

// NewGame seats opts.Player first, followed by one bot per strategy.
func NewGame(opts Options) (*Game, error) {
	if opts.Player == "" {
		opts.Player = "you"
	}
	if len(opts.Bots) == 0 {
		return nil, fmt.Errorf("at least one bot is required")
	}
	if opts.Catalog.ID == "" {
		opts.Catalog = deck.Classic
	}
	if opts.Seed == 0 {
		opts.Seed = randutil.NewSeed()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	players := []string{opts.Player}
	bots := make(map[string]bot.Agent, len(opts.Bots))
	for i, strategy := range opts.Bots {
		name := fmt.Sprintf("%s-bot%d", strategy, i+1)
		agent, err := bot.New(strategy, randutil.New(randutil.Child(opts.Seed, i+1)), opts.Logger)
		if err != nil {
			return nil, err
		}
		players = append(players, name)
		bots[name] = agent
	}

	var sessionOpts []game.SessionOption
	if opts.Threshold > 0 {
		sessionOpts = append(sessionOpts, game.WithTokenThreshold(opts.Threshold))
	}
	t, err := table.New(gameid.Generate(), opts.Catalog, players, randutil.NewSeededShuffler(opts.Seed),
		table.WithLogger(opts.Logger),
		table.WithSessionOptions(sessionOpts...))
	if err != nil {
		return nil, err
	}
	return &Game{Table: t, Bots: bots, Seed: opts.Seed}, nil
}

// Run plays a local game in the terminal until it ends or the player quits.
func Run(ctx context.Context, opts Options) error {
	if opts.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	} else {
		lipgloss.SetColorProfile(termenv.EnvColorProfile())
	}

	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	g, err := NewGame(opts)
	if err != nil {
		return err
	}
	defer g.Table.Close()

	players := g.Table.Players()
	model := NewTUIModel(g.Table, players[0], g.Bots, opts.Logger, WithBotDelay(opts.BotDelay))
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	opts.Logger.Info("Starting local game", "game", g.Table.ID(), "players", players, "seed", g.Seed)
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if winner, over := model.Over(); over {
		fmt.Printf("%s wins the game.\n", winner)
	}
	return nil
}
