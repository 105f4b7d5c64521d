package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"

	"github.com/lox/loveletter/internal/history"
	"github.com/lox/loveletter/internal/table"
)

// Server represents the WebSocket server
type Server struct {
	cfg         *ServerConfig
	upgrader    websocket.Upgrader
	logger      *log.Logger
	clock       quartz.Clock
	gameService *GameService

	mu          sync.RWMutex
	connections map[*Connection]bool
	httpServer  *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithClock sets the clock used for turn timers.
func WithClock(clock quartz.Clock) Option {
	return func(s *Server) {
		s.clock = clock
	}
}

// NewServer creates a new WebSocket server
func NewServer(cfg *ServerConfig, logger *log.Logger, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:      logger.WithPrefix("server"),
		clock:       quartz.NewReal(),
		connections: make(map[*Connection]bool),
	}
	for _, opt := range opts {
		opt(s)
	}

	var listeners []table.Listener
	if dir := cfg.Server.HistoryDir; dir != "" {
		recorder, err := history.NewRecorder(dir, history.WithLogger(logger), history.WithClock(s.clock))
		if err != nil {
			return nil, err
		}
		listeners = append(listeners, recorder)
		s.logger.Info("Recording game history", "dir", dir)
	}

	service, err := NewGameService(cfg, logger, s.clock, listeners...)
	if err != nil {
		return nil, err
	}
	s.gameService = service
	return s, nil
}

// GameService returns the server's game service.
func (s *Server) GameService() *GameService { return s.gameService }

// Handler returns the HTTP handler serving /ws, /health and /games.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/games", s.handleGames)
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.GetServerAddress(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting WebSocket server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Stop()
	return err
}

// Stop closes every connection and game.
func (s *Server) Stop() {
	s.mu.Lock()
	conns := make([]*Connection, 0, len(s.connections))
	for conn := range s.connections {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
	s.gameService.Close()
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s.gameService)
	s.mu.Lock()
	s.connections[client] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "total", total)

	client.Start()

	go func() {
		<-client.Done()
		s.gameService.Leave(client)

		s.mu.Lock()
		delete(s.connections, client)
		total := len(s.connections)
		s.mu.Unlock()
		s.logger.Info("Client disconnected", "player", client.GetPlayer(), "total", total)
	}()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// handleGames lists running games as JSON.
func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.gameService.Games()); err != nil {
		s.logger.Error("Failed to encode games", "error", err)
	}
}

// ConnectedPlayers returns the names of connected players.
func (s *Server) ConnectedPlayers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var players []string
	for conn := range s.connections {
		if id := conn.GetPlayer(); id != "" {
			players = append(players, id)
		}
	}
	return players
}
