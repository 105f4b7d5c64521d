// Package simulator plays many bot-only games in parallel and aggregates
// the results. Every game is seeded from the run seed, so a run is
// reproducible regardless of worker count.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/loveletter/internal/bot"
	"github.com/lox/loveletter/internal/deck"
	"github.com/lox/loveletter/internal/game"
	"github.com/lox/loveletter/internal/randutil"
	"github.com/lox/loveletter/internal/statistics"
)

// maxPlaysPerGame bounds a single game so a broken strategy cannot hang a run.
const maxPlaysPerGame = 5000

// Config holds configuration for running simulations
type Config struct {
	Games      int
	Workers    int // defaults to GOMAXPROCS
	Seed       int64
	Players    int
	Strategies []string // assigned to seats round-robin, rotating each game
	Catalog    deck.Catalog
	Threshold  int // zero uses the player-count default
	Logger     *log.Logger
}

func (c *Config) setDefaults() {
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Players == 0 {
		c.Players = 3
	}
	if len(c.Strategies) == 0 {
		c.Strategies = bot.Strategies()
	}
	if c.Catalog.ID == "" {
		c.Catalog = deck.Classic
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
}

// Validate reports the first problem with the configuration.
func (c Config) Validate() error {
	if c.Games <= 0 {
		return fmt.Errorf("games must be positive, got %d", c.Games)
	}
	if c.Players < 2 || (c.Catalog.ID != "" && c.Players > c.Catalog.PlayerLimit()) {
		return fmt.Errorf("%w: %d players", game.ErrInsufficientPlayers, c.Players)
	}
	for _, s := range c.Strategies {
		if _, err := bot.New(s, randutil.New(0), log.New(io.Discard)); err != nil {
			return err
		}
	}
	return nil
}

// Run plays cfg.Games games and returns the aggregated statistics.
func Run(ctx context.Context, cfg Config) (*statistics.Statistics, error) {
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger.WithPrefix("simulator")

	results := make([]statistics.GameResult, cfg.Games)
	jobs := make(chan int)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := 0; i < cfg.Games; i++ {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < cfg.Workers; w++ {
		g.Go(func() error {
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					return err
				}
				r, err := playGame(cfg, i)
				if err != nil {
					return fmt.Errorf("game %d (seed %d): %w", i, cfg.Seed+int64(i), err)
				}
				results[i] = r
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Aggregate in game order so the result is independent of scheduling.
	stats := &statistics.Statistics{}
	for _, r := range results {
		stats.Add(r)
	}
	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}

	logger.Info("Simulation complete",
		"games", stats.Games,
		"rounds", stats.Rounds,
		"exhaustionRatio", fmt.Sprintf("%.3f", stats.ExhaustionRatio()))
	return stats, nil
}

// SeatStrategy returns the strategy seated at seat in game i.
func SeatStrategy(strategies []string, i, seat int) string {
	return strategies[(seat+i)%len(strategies)]
}

func playGame(cfg Config, i int) (statistics.GameResult, error) {
	seed := cfg.Seed + int64(i)

	ids := make([]string, cfg.Players)
	agents := make(map[string]bot.Agent, cfg.Players)
	seats := make([]statistics.SeatResult, cfg.Players)
	for s := range ids {
		ids[s] = fmt.Sprintf("p%d", s+1)
		strategy := SeatStrategy(cfg.Strategies, i, s)
		agent, err := bot.New(strategy, randutil.New(randutil.Child(seed, s+1)), cfg.Logger)
		if err != nil {
			return statistics.GameResult{}, err
		}
		agents[ids[s]] = agent
		seats[s] = statistics.SeatResult{ID: ids[s], Strategy: strategy}
	}

	var opts []game.SessionOption
	if cfg.Threshold > 0 {
		opts = append(opts, game.WithTokenThreshold(cfg.Threshold))
	}
	session, err := game.NewSession(cfg.Catalog, ids, randutil.NewSeededShuffler(seed), opts...)
	if err != nil {
		return statistics.GameResult{}, err
	}
	if _, err := session.StartRound(); err != nil {
		return statistics.GameResult{}, err
	}

	result := statistics.GameResult{
		Seed:         seed,
		Seats:        seats,
		Eliminations: make(map[game.EliminationCause]int),
	}
	for !session.Over() {
		if result.Plays >= maxPlaysPerGame {
			return result, errors.New("game did not finish")
		}
		current := session.Round().Current()
		state, err := session.PrivateState(current)
		if err != nil {
			return result, err
		}
		d, err := agents[current].Decide(state)
		if err != nil {
			return result, fmt.Errorf("%s: %w", current, err)
		}
		out, err := session.Submit(d.Play)
		if err != nil {
			return result, fmt.Errorf("%s (%s) chose %+v: %w", current, agents[current].Name(), d.Play, err)
		}
		result.Plays++

		for _, e := range out.Events {
			switch e := e.(type) {
			case game.PlayerEliminatedEvent:
				result.Eliminations[e.Cause]++
			case game.RoundEndedEvent:
				result.Rounds++
				if e.Reason == game.EndDeckExhausted {
					result.Exhaustions++
				}
			}
		}
	}

	winner, _ := session.Winner()
	tokens := session.Tokens()
	for s := range result.Seats {
		result.Seats[s].Tokens = tokens[ids[s]]
		if ids[s] == winner {
			result.Winner = s
		}
	}
	return result, nil
}

// PrintSummary writes a human-readable summary of stats.
func PrintSummary(w io.Writer, stats *statistics.Statistics, cfg Config) {
	fmt.Fprintf(w, "\n=== RESULTS (%d players, %s) ===\n", len(stats.Seats), strings.Join(cfg.Strategies, ","))
	fmt.Fprintf(w, "Games played: %d\n", stats.Games)
	fmt.Fprintf(w, "Rounds: %d (%.2f ± %.2f per game)\n", stats.Rounds, stats.MeanRounds(), stats.RoundsStdDev())
	fmt.Fprintf(w, "Plays: %d\n", stats.Plays)
	fmt.Fprintf(w, "Deck exhausted: %d rounds (%.1f%%)\n", stats.Exhaustions, stats.ExhaustionRatio()*100)

	fmt.Fprintf(w, "\n=== STRATEGIES ===\n")
	for _, name := range stats.StrategyNames() {
		t := stats.Strategies[name]
		lo, hi := t.ConfidenceInterval95()
		fmt.Fprintf(w, "%-10s %5d/%-5d %.1f%% [%.1f%%, %.1f%%]\n", name, t.Wins, t.Games, t.WinRate()*100, lo*100, hi*100)
	}

	fmt.Fprintf(w, "\n=== SEATS ===\n")
	for i, t := range stats.Seats {
		fmt.Fprintf(w, "Seat %d: %d/%d (%.1f%%)\n", i+1, t.Wins, t.Games, t.WinRate()*100)
	}

	fmt.Fprintf(w, "\n=== ELIMINATIONS ===\n")
	for _, cause := range []game.EliminationCause{
		game.CauseGuardGuess, game.CauseBaronComparison, game.CausePrincessPlayed, game.CausePrincessDiscarded,
	} {
		fmt.Fprintf(w, "%-20s %d\n", cause, stats.Eliminations[cause])
	}
}
