package server

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/loveletter/internal/bot"
	"github.com/lox/loveletter/internal/deck"
	"github.com/lox/loveletter/internal/game"
	"github.com/lox/loveletter/internal/randutil"
	"github.com/lox/loveletter/internal/table"
)

// ServiceError is a protocol-level failure reported to the client as an
// error message.
type ServiceError struct {
	Code    string
	Message string
}

func (e *ServiceError) Error() string {
	return e.Code + ": " + e.Message
}

func serviceError(code, format string, args ...any) error {
	return &ServiceError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// GameService seats connections in lobbies, runs their games on the table
// manager and drives bot and timed-out seats.
type GameService struct {
	cfg     *ServerConfig
	manager *table.Manager
	clock   quartz.Clock
	logger  *log.Logger
	seed    int64
	counter atomic.Int64

	mu      sync.Mutex
	lobbies map[string]*lobby
	games   map[string]*liveGame
}

type lobby struct {
	cfg     GameConfig
	waiting []*Connection
}

func (l *lobby) names() []string {
	names := make([]string, len(l.waiting))
	for i, c := range l.waiting {
		names[i] = c.GetPlayer()
	}
	return names
}

// NewGameService creates a service. Extra listeners receive every game's
// events, e.g. a history recorder.
func NewGameService(cfg *ServerConfig, logger *log.Logger, clock quartz.Clock, listeners ...table.Listener) (*GameService, error) {
	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	s := &GameService{
		cfg:     cfg,
		clock:   clock,
		logger:  logger.WithPrefix("games"),
		seed:    cfg.Server.Seed,
		lobbies: make(map[string]*lobby),
		games:   make(map[string]*liveGame),
	}
	if s.seed == 0 {
		s.seed = randutil.NewSeed()
	}
	for _, g := range cfg.Games {
		s.lobbies[g.Name] = &lobby{cfg: g}
	}

	opts := []table.ManagerOption{
		table.WithManagerLogger(logger),
		table.WithShuffler(func(string) deck.Shuffler {
			return randutil.NewSeededShuffler(randutil.Child(s.seed, int(s.counter.Add(1))))
		}),
		table.WithGameListener(s),
	}
	for _, l := range listeners {
		opts = append(opts, table.WithGameListener(l))
	}
	s.manager = table.NewManager(registry, opts...)
	return s, nil
}

// Manager exposes the underlying table manager.
func (s *GameService) Manager() *table.Manager { return s.manager }

// Join seats c in the named lobby. The game starts once every human seat
// is taken.
func (s *GameService) Join(c *Connection, data JoinData) error {
	if data.Name == "" {
		return serviceError("invalid_join", "player name required")
	}
	if c.GetLobby() != "" || c.GetGame() != "" {
		return serviceError("already_seated", "already joined %s", c.GetLobby()+c.GetGame())
	}

	s.mu.Lock()
	l, ok := s.lobbies[data.Game]
	if !ok {
		s.mu.Unlock()
		return serviceError("unknown_game", "no game named %q", data.Game)
	}
	for _, name := range append(l.names(), botNames(l.cfg)...) {
		if name == data.Name {
			s.mu.Unlock()
			return serviceError("name_taken", "%q is already seated", data.Name)
		}
	}

	c.SetPlayer(data.Name)
	c.SetLobby(l.cfg.Name)
	l.waiting = append(l.waiting, c)
	waiting := l.cfg.Humans() - len(l.waiting)
	players := l.names()

	var start []*Connection
	if waiting == 0 {
		start = l.waiting
		l.waiting = nil
	}
	s.mu.Unlock()

	s.logger.Info("Player joined", "game", l.cfg.Name, "player", data.Name, "waiting", waiting)
	_ = c.Send(MessageTypeJoined, JoinedData{Game: l.cfg.Name, Player: data.Name, Waiting: waiting, Players: players})

	if start != nil {
		return s.startGame(l.cfg, start)
	}
	return nil
}

// StartRound starts the caller's lobby early, filling empty seats with the
// configured bots only.
func (s *GameService) StartRound(c *Connection) error {
	if c.GetGame() != "" {
		return serviceError("round_in_progress", "rounds are dealt automatically once a game starts")
	}

	s.mu.Lock()
	l, ok := s.lobbies[c.GetLobby()]
	if !ok {
		s.mu.Unlock()
		return serviceError("not_joined", "join a game first")
	}
	if len(l.waiting)+len(l.cfg.Bots) < deck.MinPlayers {
		s.mu.Unlock()
		return serviceError("not_enough_players", "need at least %d players", deck.MinPlayers)
	}
	start := l.waiting
	l.waiting = nil
	s.mu.Unlock()

	return s.startGame(l.cfg, start)
}

func botNames(cfg GameConfig) []string {
	names := make([]string, len(cfg.Bots))
	for i, strategy := range cfg.Bots {
		names[i] = fmt.Sprintf("%s-bot%d", strategy, i+1)
	}
	return names
}

func (s *GameService) startGame(cfg GameConfig, humans []*Connection) error {
	players := make([]string, 0, len(humans)+len(cfg.Bots))
	for _, c := range humans {
		players = append(players, c.GetPlayer())
	}
	players = append(players, botNames(cfg)...)

	bots, err := s.newBots(cfg)
	if err != nil {
		s.requeue(cfg.Name, humans)
		return err
	}

	tbl, err := s.manager.CreateGame(cfg.Catalog, players, table.WithSessionOptions(cfg.SessionOptions()...))
	if err != nil {
		s.requeue(cfg.Name, humans)
		return err
	}

	lg := newLiveGame(tbl, s.clock, s.logger)
	for _, c := range humans {
		lg.humans[c.GetPlayer()] = c
		c.SetLobby("")
		c.SetGame(tbl.ID())
	}
	lg.bots = bots

	s.mu.Lock()
	s.games[tbl.ID()] = lg
	s.mu.Unlock()

	go s.drive(lg)

	for _, c := range humans {
		_ = c.Send(MessageTypeJoined, JoinedData{Game: cfg.Name, Player: c.GetPlayer(), Players: players, GameID: tbl.ID()})
	}
	s.logger.Info("Game started", "game", tbl.ID(), "lobby", cfg.Name, "players", players)

	if _, err := tbl.StartRound(context.Background()); err != nil {
		s.finish(lg)
		return err
	}
	return nil
}

// newBots builds the lobby's bot agents, keyed by seat name.
func (s *GameService) newBots(cfg GameConfig) (map[string]bot.Agent, error) {
	bots := make(map[string]bot.Agent, len(cfg.Bots))
	for i, name := range botNames(cfg) {
		agent, err := bot.New(cfg.Bots[i], randutil.New(randutil.Child(s.seed, int(s.counter.Add(1)))), s.logger)
		if err != nil {
			return nil, err
		}
		bots[name] = agent
	}
	return bots, nil
}

func (s *GameService) requeue(name string, conns []*Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.lobbies[name]; ok {
		l.waiting = append(conns, l.waiting...)
	}
}

// Play submits play for the connection's seat. The round must belong to the
// connection's own game; an empty round id means the current round.
func (s *GameService) Play(ctx context.Context, c *Connection, roundID string, play game.Play) error {
	lg, ok := s.game(c.GetGame())
	if !ok {
		return serviceError("not_playing", "not seated in a running game")
	}
	_, err := lg.table.SubmitRound(ctx, roundID, play)
	return err
}

// SendState sends the connection its private view, or its lobby status.
func (s *GameService) SendState(c *Connection) error {
	if lg, ok := s.game(c.GetGame()); ok {
		state, err := lg.table.PrivateState(c.ctx, c.GetPlayer())
		if err != nil {
			return err
		}
		return c.Send(MessageTypeState, StateData{GameID: lg.table.ID(), State: state})
	}

	s.mu.Lock()
	l, ok := s.lobbies[c.GetLobby()]
	if !ok {
		s.mu.Unlock()
		return serviceError("not_joined", "join a game first")
	}
	data := JoinedData{Game: l.cfg.Name, Player: c.GetPlayer(), Waiting: l.cfg.Humans() - len(l.waiting), Players: l.names()}
	s.mu.Unlock()
	return c.Send(MessageTypeJoined, data)
}

// Leave removes a disconnected player from their lobby or game. Their seat
// in a running game is played by the default policy.
func (s *GameService) Leave(c *Connection) {
	s.mu.Lock()
	if l, ok := s.lobbies[c.GetLobby()]; ok {
		for i, w := range l.waiting {
			if w == c {
				l.waiting = append(l.waiting[:i], l.waiting[i+1:]...)
				break
			}
		}
	}
	lg := s.games[c.GetGame()]
	s.mu.Unlock()

	if lg != nil {
		lg.disconnect(c.GetPlayer())
	}
}

// OnEvents implements table.Listener. It runs on the table goroutine, so it
// only queues work.
func (s *GameService) OnEvents(gameID string, events []game.Event) {
	lg, ok := s.game(gameID)
	if !ok {
		return
	}
	lg.deliver(events)
}

// Games lists running games.
func (s *GameService) Games() []table.Summary {
	return s.manager.Games()
}

// Close stops every game.
func (s *GameService) Close() {
	s.mu.Lock()
	games := make([]*liveGame, 0, len(s.games))
	for _, lg := range s.games {
		games = append(games, lg)
	}
	s.mu.Unlock()

	for _, lg := range games {
		lg.stop()
	}
	s.manager.CloseAll()
}

func (s *GameService) game(id string) (*liveGame, bool) {
	if id == "" {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	lg, ok := s.games[id]
	return lg, ok
}

// drive acts for bots and timed-out players, one notice at a time.
func (s *GameService) drive(lg *liveGame) {
	defer s.finish(lg)

	for {
		var n notice
		select {
		case n = <-lg.notices:
		case <-lg.done:
			return
		}

		switch n.kind {
		case noticeOver:
			lg.stopTimer()
			return

		case noticeTurn:
			lg.stopTimer()
			lg.setCurrent(n)
			if agent, ok := lg.bots[n.player]; ok {
				s.playBot(lg, n, agent)
				continue
			}
			conn := lg.human(n.player)
			if conn == nil {
				s.playDefault(lg, n)
				continue
			}
			s.promptHuman(lg, n, conn)

		case noticeTimeout:
			if lg.isCurrent(n) {
				s.playDefault(lg, n)
			}
		}
	}
}

func (s *GameService) promptHuman(lg *liveGame, n notice, conn *Connection) {
	state, ok := s.stateFor(lg, n)
	if !ok {
		return
	}
	timeout := s.cfg.TurnTimeout()
	if timeout > 0 {
		lg.startTimer(timeout, n)
	}
	_ = conn.Send(MessageTypeYourTurn, YourTurnData{GameID: lg.table.ID(), State: state, TimeoutMs: int(timeout / time.Millisecond)})
}

func (s *GameService) playBot(lg *liveGame, n notice, agent bot.Agent) {
	state, ok := s.stateFor(lg, n)
	if !ok {
		return
	}
	d, err := agent.Decide(state)
	if err != nil {
		lg.logger.Error("Bot failed to decide", "player", n.player, "error", err)
		s.playDefault(lg, n)
		return
	}
	s.submit(lg, n, d.Play, "bot")
}

func (s *GameService) playDefault(lg *liveGame, n notice) {
	state, ok := s.stateFor(lg, n)
	if !ok {
		return
	}
	play, err := bot.Default(state)
	if err != nil {
		lg.logger.Error("No default play", "player", n.player, "error", err)
		return
	}
	lg.logger.Info("Playing default for player", "player", n.player, "round", n.round, "turn", n.turn)
	s.submit(lg, n, play, "default")
}

// stateFor fetches the player's view, or reports false if the turn has moved on.
func (s *GameService) stateFor(lg *liveGame, n notice) (game.PrivateState, bool) {
	state, err := lg.table.PrivateRoundState(context.Background(), n.round, n.player)
	if err != nil {
		lg.logger.Debug("Turn no longer current", "player", n.player, "round", n.round, "error", err)
		return state, false
	}
	if state.Current != n.player || state.Turn != n.turn {
		return state, false
	}
	return state, true
}

func (s *GameService) submit(lg *liveGame, n notice, play game.Play, source string) {
	if _, err := lg.table.SubmitRound(context.Background(), n.round, play); err != nil {
		lg.logger.Warn("Automatic play rejected", "player", n.player, "source", source, "error", err)
	}
}

func (s *GameService) finish(lg *liveGame) {
	lg.stop()

	s.mu.Lock()
	delete(s.games, lg.table.ID())
	s.mu.Unlock()

	for _, c := range lg.connections() {
		c.SetGame("")
	}
	s.manager.Remove(lg.table.ID())
	lg.logger.Info("Game finished")
}
