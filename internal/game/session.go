package game

import (
	"fmt"

	"github.com/lox/loveletter/internal/deck"
)

// DefaultTokenThreshold returns the tokens needed to win for a table size.
func DefaultTokenThreshold(players int) int {
	switch players {
	case 2:
		return 7
	case 3:
		return 5
	default:
		return 4
	}
}

// SessionOption configures a Session during creation.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	id        string
	threshold int
	roundIDs  func(number int) string
}

// WithSessionID sets the game identifier.
func WithSessionID(id string) SessionOption {
	return func(c *sessionConfig) {
		c.id = id
	}
}

// WithTokenThreshold overrides DefaultTokenThreshold.
func WithTokenThreshold(n int) SessionOption {
	return func(c *sessionConfig) {
		c.threshold = n
	}
}

// WithRoundIDs supplies identifiers for successive rounds.
func WithRoundIDs(fn func(number int) string) SessionOption {
	return func(c *sessionConfig) {
		c.roundIDs = fn
	}
}

// Session is one game: a sequence of rounds until a player reaches the
// token threshold. When a round ends and the game continues, the next round
// starts immediately, led by the previous round's winner.
type Session struct {
	id        string
	catalog   deck.Catalog
	shuffler  deck.Shuffler
	players   *Registry
	threshold int
	roundIDs  func(number int) string

	round   *Round
	results []RoundResult
	over    bool
	winner  string
}

// NewSession seats playerIDs in order. No round is dealt until StartRound.
func NewSession(catalog deck.Catalog, playerIDs []string, shuffler deck.Shuffler, opts ...SessionOption) (*Session, error) {
	if shuffler == nil {
		panic("shuffler is required for session creation")
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	if n := len(playerIDs); n < deck.MinPlayers || n > catalog.PlayerLimit() {
		return nil, newError(ErrInsufficientPlayers, "%d players, catalog %s supports %d-%d",
			n, catalog.ID, deck.MinPlayers, catalog.PlayerLimit())
	}
	players, err := NewRegistry(playerIDs)
	if err != nil {
		return nil, err
	}

	cfg := &sessionConfig{threshold: DefaultTokenThreshold(len(playerIDs))}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.threshold < 1 {
		return nil, fmt.Errorf("token threshold must be positive, got %d", cfg.threshold)
	}
	if cfg.roundIDs == nil {
		id := cfg.id
		cfg.roundIDs = func(n int) string { return fmt.Sprintf("%s-r%d", id, n) }
	}

	return &Session{
		id:        cfg.id,
		catalog:   catalog,
		shuffler:  shuffler,
		players:   players,
		threshold: cfg.threshold,
		roundIDs:  cfg.roundIDs,
	}, nil
}

// ID returns the game identifier.
func (s *Session) ID() string { return s.id }

// Catalog returns the catalog every round is dealt from.
func (s *Session) Catalog() deck.Catalog { return s.catalog }

// Players returns the player registry.
func (s *Session) Players() *Registry { return s.players }

// Threshold returns the tokens needed to win.
func (s *Session) Threshold() int { return s.threshold }

// Round returns the current (or last) round, nil before the first deal.
func (s *Session) Round() *Round { return s.round }

// Results returns the completed rounds in order.
func (s *Session) Results() []RoundResult {
	return append([]RoundResult(nil), s.results...)
}

// Over reports whether the game has a winner.
func (s *Session) Over() bool { return s.over }

// Winner returns the game winner once Over.
func (s *Session) Winner() (string, bool) {
	return s.winner, s.over
}

// Tokens returns token totals keyed by player id.
func (s *Session) Tokens() map[string]int {
	return s.players.Tokens()
}

// StartRound deals a new round. It fails if the game is over or a round is
// still in progress.
func (s *Session) StartRound() ([]Event, error) {
	if s.over {
		return nil, illegalPlay("game is over")
	}
	if s.round != nil && !s.round.Over() {
		return nil, illegalPlay("round %s is still in progress", s.round.ID())
	}

	number := len(s.results) + 1
	opts := []RoundOption{
		WithRoundID(s.roundIDs(number)),
		WithRoundNumber(number),
	}
	if n := len(s.results); n > 0 {
		// Previous winners are in seat order; the earliest seat leads.
		opts = append(opts, WithFirstPlayer(s.results[n-1].Winners[0]))
	}

	round, events, err := NewRound(s.players, s.catalog, s.shuffler, opts...)
	if err != nil {
		return nil, err
	}
	s.round = round
	return events, nil
}

// Submit applies play to the current round. When the play ends the round,
// tokens are awarded and either the game ends or the next round is dealt;
// the returned outcome includes the events of both.
func (s *Session) Submit(play Play) (Outcome, error) {
	if s.over {
		return Outcome{}, illegalPlay("game is over")
	}
	if s.round == nil {
		return Outcome{}, illegalPlay("no round in progress")
	}

	out, err := s.round.Submit(play)
	if err != nil {
		return Outcome{}, err
	}
	if !out.RoundOver {
		return out, nil
	}

	events, err := s.finishRound(*out.Result)
	if err != nil {
		return Outcome{}, err
	}
	out.Events = append(out.Events, events...)
	if s.over {
		out.GameOver = true
		out.Winner = s.winner
		return out, nil
	}

	next, err := s.StartRound()
	if err != nil {
		return Outcome{}, err
	}
	out.Events = append(out.Events, next...)
	out.NextRound = s.round.ID()
	return out, nil
}

// finishRound awards one token to each round winner and decides whether the
// game is over. Several players at or over the threshold: the highest total
// wins; a tie for highest plays on.
func (s *Session) finishRound(result RoundResult) ([]Event, error) {
	s.results = append(s.results, result)

	var events []Event
	for _, id := range result.Winners {
		tokens, err := s.players.AwardToken(id)
		if err != nil {
			return nil, err
		}
		events = append(events, TokenAwardedEvent{Player: id, Tokens: tokens})
	}

	var leaders []string
	best := 0
	for _, p := range s.players.Players() {
		switch {
		case p.Tokens < s.threshold:
		case p.Tokens > best:
			leaders = []string{p.ID}
			best = p.Tokens
		case p.Tokens == best:
			leaders = append(leaders, p.ID)
		}
	}
	if len(leaders) != 1 {
		return events, nil
	}

	s.over = true
	s.winner = leaders[0]
	events = append(events, GameEndedEvent{Winner: s.winner, Tokens: s.players.Tokens()})
	return events, nil
}
