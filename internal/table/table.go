// Package table runs each game on its own goroutine. A Table serialises
// every command for its game; a Manager maps game and round ids to tables so
// independent games run in parallel.
package table

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/loveletter/internal/deck"
	"github.com/lox/loveletter/internal/game"
)

var (
	// ErrCorrupted is returned for every command after the game reported
	// ErrIllegalState or ErrInvariantViolation.
	ErrCorrupted = errors.New("table: game state corrupted")

	// ErrClosed is returned once the table has been closed.
	ErrClosed = errors.New("table: closed")

	// ErrStaleRound is returned when a command names a round that is not
	// the table's current round.
	ErrStaleRound = errors.New("table: round is not current")
)

// Listener receives the events of every accepted command, in order, on the
// table goroutine. Implementations must not call back into the same table
// synchronously.
type Listener interface {
	OnEvents(gameID string, events []game.Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(gameID string, events []game.Event)

// OnEvents calls f.
func (f ListenerFunc) OnEvents(gameID string, events []game.Event) { f(gameID, events) }

// Snapshot describes a freshly dealt round.
type Snapshot struct {
	GameID  string           `json:"game_id"`
	RoundID string           `json:"round_id"`
	Number  int              `json:"number"`
	Players []string         `json:"players"`
	Events  []game.Event     `json:"-"`
	State   game.PublicState `json:"state"`
}

// Option configures a Table.
type Option func(*config)

type config struct {
	logger    *log.Logger
	listeners []Listener
	session   []game.SessionOption
	buffer    int
}

// WithLogger sets the parent logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithListener registers l for every event the table produces.
func WithListener(l Listener) Option {
	return func(c *config) {
		c.listeners = append(c.listeners, l)
	}
}

// WithSessionOptions passes options through to game.NewSession.
func WithSessionOptions(opts ...game.SessionOption) Option {
	return func(c *config) {
		c.session = append(c.session, opts...)
	}
}

// WithQueueSize sets how many commands may wait for the table goroutine.
func WithQueueSize(n int) Option {
	return func(c *config) {
		c.buffer = n
	}
}

// Table owns one game.Session. Commands queue in arrival order and each one
// runs to completion before the next starts.
type Table struct {
	id      string
	catalog string
	players []string
	logger  *log.Logger

	commands chan func()
	done     chan struct{}
	stopped  chan struct{}
	once     sync.Once

	// Owned by the table goroutine.
	session   *game.Session
	listeners []Listener
	corrupted error
}

// New creates the game and starts its goroutine. No round is dealt until
// StartRound.
func New(id string, catalog deck.Catalog, players []string, shuffler deck.Shuffler, opts ...Option) (*Table, error) {
	cfg := &config{logger: log.Default(), buffer: 16}
	for _, opt := range opts {
		opt(cfg)
	}

	sessionOpts := append([]game.SessionOption{game.WithSessionID(id)}, cfg.session...)
	session, err := game.NewSession(catalog, players, shuffler, sessionOpts...)
	if err != nil {
		return nil, err
	}

	t := &Table{
		id:        id,
		catalog:   catalog.ID,
		players:   append([]string(nil), players...),
		logger:    cfg.logger.WithPrefix("table").With("game", id),
		commands:  make(chan func(), cfg.buffer),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
		session:   session,
		listeners: cfg.listeners,
	}
	go t.run()
	return t, nil
}

// ID returns the game id.
func (t *Table) ID() string { return t.id }

// Catalog returns the catalog id the game is dealt from.
func (t *Table) Catalog() string { return t.catalog }

// Players returns the seated player ids in seat order.
func (t *Table) Players() []string { return append([]string(nil), t.players...) }

func (t *Table) run() {
	defer close(t.stopped)
	for {
		select {
		case cmd := <-t.commands:
			cmd()
		case <-t.done:
			return
		}
	}
}

// Close stops the table goroutine. Queued commands that have not started
// return ErrClosed.
func (t *Table) Close() {
	t.once.Do(func() {
		close(t.done)
	})
	<-t.stopped
}

// do runs fn on the table goroutine and waits for it. Once fn has started it
// always completes, even if ctx is cancelled while waiting for the reply.
func (t *Table) do(ctx context.Context, fn func() error) error {
	reply := make(chan error, 1)
	cmd := func() {
		if t.corrupted != nil {
			reply <- fmt.Errorf("%w: %w", ErrCorrupted, t.corrupted)
			return
		}
		reply <- fn()
	}

	select {
	case t.commands <- cmd:
	case <-t.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-t.stopped:
		// The command may have run just before the table stopped.
		select {
		case err := <-reply:
			return err
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartRound deals the next round. Later rounds are dealt automatically
// when a play ends a round, so this is normally called once per game.
func (t *Table) StartRound(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := t.do(ctx, func() error {
		events, err := t.session.StartRound()
		if err != nil {
			return t.check("start round", err)
		}
		round := t.session.Round()
		state, err := t.session.PublicState()
		if err != nil {
			return t.check("start round", err)
		}
		snap = Snapshot{
			GameID:  t.id,
			RoundID: round.ID(),
			Number:  round.Number(),
			Players: t.Players(),
			Events:  events,
			State:   state,
		}
		t.logger.Info("Round started", "round", round.ID(), "number", round.Number(), "first", round.Current())
		t.publish(events)
		return nil
	})
	return snap, err
}

// Submit applies play to the current round.
func (t *Table) Submit(ctx context.Context, play game.Play) (game.Outcome, error) {
	return t.SubmitRound(ctx, "", play)
}

// SubmitRound applies play if roundID is the current round. An empty
// roundID matches any round.
func (t *Table) SubmitRound(ctx context.Context, roundID string, play game.Play) (game.Outcome, error) {
	var out game.Outcome
	err := t.do(ctx, func() error {
		if err := t.checkRound(roundID); err != nil {
			return err
		}
		var err error
		out, err = t.session.Submit(play)
		if err != nil {
			return t.check("play", err, "player", play.Player, "card", play.CardID)
		}

		t.logger.Debug("Play accepted",
			"player", play.Player,
			"card", out.Turn.Played,
			"target", play.Target,
			"guess", play.Guess,
			"noEffect", out.Turn.NoEffect)
		if out.RoundOver {
			t.logger.Info("Round ended",
				"round", out.Result.RoundID,
				"winners", out.Result.Winners,
				"reason", out.Result.Reason,
				"tokens", t.session.Tokens())
		}
		if out.GameOver {
			t.logger.Info("Game ended", "winner", out.Winner, "rounds", len(t.session.Results()))
		}
		t.publish(out.Events)
		return nil
	})
	return out, err
}

// PublicState returns the spectator view of the current round.
func (t *Table) PublicState(ctx context.Context) (game.PublicState, error) {
	return t.PublicRoundState(ctx, "")
}

// PublicRoundState is PublicState guarded by a round id.
func (t *Table) PublicRoundState(ctx context.Context, roundID string) (game.PublicState, error) {
	var state game.PublicState
	err := t.do(ctx, func() error {
		if err := t.checkRound(roundID); err != nil {
			return err
		}
		var err error
		state, err = t.session.PublicState()
		return err
	})
	return state, err
}

// PrivateState returns player's view of the current round.
func (t *Table) PrivateState(ctx context.Context, player string) (game.PrivateState, error) {
	return t.PrivateRoundState(ctx, "", player)
}

// PrivateRoundState is PrivateState guarded by a round id.
func (t *Table) PrivateRoundState(ctx context.Context, roundID, player string) (game.PrivateState, error) {
	var state game.PrivateState
	err := t.do(ctx, func() error {
		if err := t.checkRound(roundID); err != nil {
			return err
		}
		var err error
		state, err = t.session.PrivateState(player)
		return err
	})
	return state, err
}

// Results returns every completed round.
func (t *Table) Results(ctx context.Context) ([]game.RoundResult, error) {
	var results []game.RoundResult
	err := t.do(ctx, func() error {
		results = t.session.Results()
		return nil
	})
	return results, err
}

// Tokens returns the token totals.
func (t *Table) Tokens(ctx context.Context) (map[string]int, error) {
	var tokens map[string]int
	err := t.do(ctx, func() error {
		tokens = t.session.Tokens()
		return nil
	})
	return tokens, err
}

// AddListener registers l for events produced after it is added.
func (t *Table) AddListener(ctx context.Context, l Listener) error {
	return t.do(ctx, func() error {
		t.listeners = append(t.listeners, l)
		return nil
	})
}

func (t *Table) checkRound(roundID string) error {
	if roundID == "" {
		return nil
	}
	round := t.session.Round()
	if round == nil || round.ID() != roundID {
		return fmt.Errorf("%w: %s", ErrStaleRound, roundID)
	}
	return nil
}

// check logs err and marks the table corrupted if err is fatal.
func (t *Table) check(op string, err error, keyvals ...any) error {
	switch {
	case game.IsRecoverable(err):
		t.logger.Debug("Command rejected", append([]any{"op", op, "reason", game.Reason(err)}, keyvals...)...)
	case game.IsFatal(err):
		t.corrupted = err
		t.logger.Error("Game state corrupted", append([]any{"op", op, "error", err}, keyvals...)...)
	default:
		t.logger.Warn("Command failed", append([]any{"op", op, "error", err}, keyvals...)...)
	}
	return err
}

func (t *Table) publish(events []game.Event) {
	if len(events) == 0 {
		return
	}
	for _, l := range t.listeners {
		l.OnEvents(t.id, events)
	}
}
