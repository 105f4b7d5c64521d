// Package history records completed rounds as JSON documents, one file per
// game. A Recorder is a table.Listener: register it on a table or manager and
// every finished round is flushed to disk.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/loveletter/internal/fileutil"
	"github.com/lox/loveletter/internal/game"
)

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock sets the clock used for record timestamps.
func WithClock(clock quartz.Clock) Option {
	return func(r *Recorder) {
		r.clock = clock
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// Recorder accumulates events per game and rewrites the game's file each
// time a round completes.
type Recorder struct {
	dir    string
	clock  quartz.Clock
	logger *log.Logger

	mu    sync.Mutex
	games map[string]*gameState
}

type gameState struct {
	record  GameRecord
	current *RoundRecord
	ended   bool // current has seen RoundEnded
	dirty   bool
}

// NewRecorder writes game files under dir.
func NewRecorder(dir string, opts ...Option) (*Recorder, error) {
	if dir == "" {
		return nil, errors.New("history: directory is required")
	}
	r := &Recorder{
		dir:    dir,
		clock:  quartz.NewReal(),
		logger: log.Default(),
		games:  make(map[string]*gameState),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithPrefix("history")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("history: create dir: %w", err)
	}
	return r, nil
}

// Path returns the file a game is written to.
func (r *Recorder) Path(gameID string) string {
	return filepath.Join(r.dir, gameID+".json")
}

// OnEvents implements table.Listener.
func (r *Recorder) OnEvents(gameID string, events []game.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.games[gameID]
	if !ok {
		now := r.clock.Now().UTC()
		g = &gameState{record: GameRecord{
			GameID:    gameID,
			StartedAt: now,
			Tokens:    make(map[string]int),
		}}
		r.games[gameID] = g
	}

	for _, e := range events {
		r.apply(g, e)
	}
	if g.ended {
		g.finishRound()
	}
	if g.dirty {
		if err := r.flush(g); err != nil {
			r.logger.Error("Failed to write game history", "game", gameID, "error", err)
			return
		}
		g.dirty = false
	}
	if g.record.Complete {
		delete(r.games, gameID)
	}
}

func (r *Recorder) apply(g *gameState, e game.Event) {
	switch e := e.(type) {
	case game.RoundStartedEvent:
		// Tokens for the previous round arrive before the next deal.
		if g.ended {
			g.finishRound()
		}
		if g.record.Catalog == "" {
			g.record.Catalog = e.Catalog
			g.record.Players = append([]string(nil), e.Players...)
		}
		g.current = &RoundRecord{
			RoundID:      e.RoundID,
			Number:       e.Number,
			Catalog:      e.Catalog,
			FirstPlayer:  e.FirstPlayer,
			FaceUpBurned: e.FaceUpBurned,
		}

	case game.CardDrawnEvent:
		if cur := g.current; cur != nil {
			cur.Draws = append(cur.Draws, Draw{Player: e.Player, Card: e.Card, Dealt: e.Dealt, Prince: e.Prince})
		}

	case game.CardPlayedEvent:
		if cur := g.current; cur != nil {
			cur.Plays = append(cur.Plays, PlayRecord{
				Turn:     e.Turn,
				Player:   e.Player,
				Card:     e.Card,
				Target:   e.Target,
				Guess:    e.Guess,
				NoEffect: e.NoEffect,
			})
			cur.Discard = append(cur.Discard, e.Card)
		}

	case game.GuardGuessedEvent:
		if p := g.lastPlay(); p != nil {
			correct := e.Correct
			p.Correct = &correct
		}

	case game.BaronComparedEvent:
		if p := g.lastPlay(); p != nil {
			p.Loser = e.Loser
		}

	case game.CardDiscardedEvent:
		if cur := g.current; cur != nil {
			cur.Discard = append(cur.Discard, e.Card)
		}

	case game.PlayerEliminatedEvent:
		if cur := g.current; cur != nil {
			cur.Eliminations = append(cur.Eliminations, Elimination{Player: e.Player, Cause: e.Cause, By: e.By})
			if e.Card != nil {
				cur.Discard = append(cur.Discard, *e.Card)
			}
		}

	case game.RoundEndedEvent:
		if cur := g.current; cur != nil {
			cur.Winners = e.Winners
			cur.Reason = e.Reason
			cur.FinalHands = e.FinalHands
			g.ended = true
		}

	case game.TokenAwardedEvent:
		g.record.Tokens[e.Player] = e.Tokens

	case game.GameEndedEvent:
		g.record.Winner = e.Winner
		g.record.Complete = true
		g.dirty = true
	}
}

func (g *gameState) lastPlay() *PlayRecord {
	if g.current == nil || len(g.current.Plays) == 0 {
		return nil
	}
	return &g.current.Plays[len(g.current.Plays)-1]
}

func (g *gameState) finishRound() {
	cur := g.current
	cur.Tokens = make(map[string]int, len(g.record.Tokens))
	for id, n := range g.record.Tokens {
		cur.Tokens[id] = n
	}
	g.record.Rounds = append(g.record.Rounds, *cur)
	g.current = nil
	g.ended = false
	g.dirty = true
}

func (r *Recorder) flush(g *gameState) error {
	g.record.UpdatedAt = r.clock.Now().UTC()
	if err := fileutil.WriteJSONAtomic(r.Path(g.record.GameID), g.record); err != nil {
		return err
	}
	r.logger.Debug("Game history written",
		"game", g.record.GameID,
		"rounds", len(g.record.Rounds),
		"complete", g.record.Complete)
	return nil
}

// Load reads a game file written by a Recorder.
func Load(path string) (GameRecord, error) {
	var rec GameRecord
	data, err := os.ReadFile(path)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("history: decode %s: %w", filepath.Base(path), err)
	}
	return rec, nil
}

// List returns the game ids with a history file in dir, sorted.
func List(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		ids = append(ids, base[:len(base)-len(".json")])
	}
	sort.Strings(ids)
	return ids, nil
}
