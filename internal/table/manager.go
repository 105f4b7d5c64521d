package table

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/loveletter/internal/deck"
	"github.com/lox/loveletter/internal/game"
	"github.com/lox/loveletter/internal/gameid"
	"github.com/lox/loveletter/internal/randutil"
)

var (
	// ErrUnknownGame is returned for a game id the manager does not hold.
	ErrUnknownGame = errors.New("table: unknown game")

	// ErrUnknownRound is returned for a round id the manager has never seen.
	ErrUnknownRound = errors.New("table: unknown round")
)

// ShufflerFactory returns the shuffler for a new game.
type ShufflerFactory func(gameID string) deck.Shuffler

// Summary holds lightweight metadata about a running game.
type Summary struct {
	ID      string   `json:"id"`
	Catalog string   `json:"catalog"`
	Players []string `json:"players"`
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the parent logger for the manager and its tables.
func WithManagerLogger(logger *log.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithShuffler sets how each new game's deck is shuffled. The default seeds
// every game from the clock.
func WithShuffler(f ShufflerFactory) ManagerOption {
	return func(m *Manager) {
		m.shuffler = f
	}
}

// WithIDGenerator sets the game id source.
func WithIDGenerator(g *gameid.Generator) ManagerOption {
	return func(m *Manager) {
		m.ids = g
	}
}

// WithGameListener registers l on every table the manager creates.
func WithGameListener(l Listener) ManagerOption {
	return func(m *Manager) {
		m.listeners = append(m.listeners, l)
	}
}

// Manager tracks running games and routes round ids to their table.
type Manager struct {
	catalogs  *deck.Registry
	logger    *log.Logger
	shuffler  ShufflerFactory
	ids       *gameid.Generator
	listeners []Listener

	mu     sync.RWMutex
	tables map[string]*Table
	rounds map[string]string // round id -> game id
}

// NewManager returns an empty manager dealing from catalogs.
func NewManager(catalogs *deck.Registry, opts ...ManagerOption) *Manager {
	m := &Manager{
		catalogs: catalogs,
		logger:   log.Default(),
		shuffler: func(string) deck.Shuffler { return randutil.NewSeededShuffler(randutil.NewSeed()) },
		ids:      gameid.NewGenerator(gameid.WithPrefix("game")),
		tables:   make(map[string]*Table),
		rounds:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.WithPrefix("manager")
	return m
}

// CreateGame seats players at a new table without dealing.
func (m *Manager) CreateGame(catalogID string, players []string, opts ...Option) (*Table, error) {
	catalog, err := m.catalogs.Lookup(catalogID)
	if err != nil {
		return nil, err
	}
	id, err := m.ids.Generate()
	if err != nil {
		return nil, err
	}

	tableOpts := []Option{WithLogger(m.logger), WithListener(ListenerFunc(m.trackRounds))}
	for _, l := range m.listeners {
		tableOpts = append(tableOpts, WithListener(l))
	}
	tableOpts = append(tableOpts, opts...)

	t, err := New(id, catalog, players, m.shuffler(id), tableOpts...)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.tables[id] = t
	m.mu.Unlock()

	m.logger.Info("Game created", "game", id, "catalog", catalog.ID, "players", players)
	return t, nil
}

// StartRound creates a game for players and deals its first round.
func (m *Manager) StartRound(ctx context.Context, catalogID string, players []string, opts ...Option) (Snapshot, error) {
	t, err := m.CreateGame(catalogID, players, opts...)
	if err != nil {
		return Snapshot{}, err
	}
	snap, err := t.StartRound(ctx)
	if err != nil {
		m.Remove(t.ID())
		return Snapshot{}, err
	}
	return snap, nil
}

// SubmitPlay routes play to the game running roundID.
func (m *Manager) SubmitPlay(ctx context.Context, roundID string, play game.Play) (game.Outcome, error) {
	t, err := m.tableForRound(roundID)
	if err != nil {
		return game.Outcome{}, err
	}
	return t.SubmitRound(ctx, roundID, play)
}

// GetPublicState returns the spectator view of roundID.
func (m *Manager) GetPublicState(ctx context.Context, roundID string) (game.PublicState, error) {
	t, err := m.tableForRound(roundID)
	if err != nil {
		return game.PublicState{}, err
	}
	return t.PublicRoundState(ctx, roundID)
}

// GetPrivateState returns player's view of roundID.
func (m *Manager) GetPrivateState(ctx context.Context, roundID, player string) (game.PrivateState, error) {
	t, err := m.tableForRound(roundID)
	if err != nil {
		return game.PrivateState{}, err
	}
	return t.PrivateRoundState(ctx, roundID, player)
}

// Game returns the table for a game id.
func (m *Manager) Game(id string) (*Table, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[id]
	return t, ok
}

// GameForRound returns the game id running roundID.
func (m *Manager) GameForRound(roundID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.rounds[roundID]
	return id, ok
}

// Games lists running games sorted by id.
func (m *Manager) Games() []Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Summary, 0, len(m.tables))
	for _, t := range m.tables {
		out = append(out, Summary{ID: t.ID(), Catalog: t.Catalog(), Players: t.Players()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Remove closes and forgets a game.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	t, ok := m.tables[id]
	if ok {
		delete(m.tables, id)
		for round, gid := range m.rounds {
			if gid == id {
				delete(m.rounds, round)
			}
		}
	}
	m.mu.Unlock()

	if ok {
		t.Close()
		m.logger.Debug("Game removed", "game", id)
	}
	return ok
}

// CloseAll stops every table.
func (m *Manager) CloseAll() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.tables))
	for id := range m.tables {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		m.Remove(id)
	}
}

func (m *Manager) tableForRound(roundID string) (*Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	gameID, ok := m.rounds[roundID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRound, roundID)
	}
	t, ok := m.tables[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, gameID)
	}
	return t, nil
}

// trackRounds runs on each table goroutine before the command replies, so a
// round id is routable by the time its snapshot or outcome is returned.
func (m *Manager) trackRounds(gameID string, events []game.Event) {
	for _, e := range events {
		if started, ok := e.(game.RoundStartedEvent); ok {
			m.mu.Lock()
			m.rounds[started.RoundID] = gameID
			m.mu.Unlock()
		}
	}
}
