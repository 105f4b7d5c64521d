package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/loveletter/internal/game"
	"github.com/lox/loveletter/internal/server" // Reuse message types
)

// ErrNotConnected is returned when sending before Connect or after Disconnect.
var ErrNotConnected = errors.New("client: not connected")

// Client represents a WebSocket client for the game server
type Client struct {
	serverURL string
	conn      *websocket.Conn
	send      chan *server.Message
	receive   chan *server.Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu         sync.RWMutex
	connected  bool
	playerName string
	gameID     string
	roundID    string

	handlers map[server.MessageType][]*handlerEntry
}

// EventHandler is a function that handles incoming messages
type EventHandler func(*server.Message)

type handlerEntry struct {
	fn EventHandler
}

// NewClient creates a new WebSocket client
func NewClient(serverURL string, logger *log.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		serverURL: serverURL,
		send:      make(chan *server.Message, 256),
		receive:   make(chan *server.Message, 256),
		logger:    logger.WithPrefix("client"),
		ctx:       ctx,
		cancel:    cancel,
		handlers:  make(map[server.MessageType][]*handlerEntry),
	}
}

// WebSocketURL turns a server address into its /ws endpoint.
func WebSocketURL(serverURL string) (string, error) {
	if !strings.Contains(serverURL, "://") {
		serverURL = "http://" + serverURL
	}
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid server URL scheme: %s", u.Scheme)
	}
	u.Path = "/ws"
	return u.String(), nil
}

// Connect establishes a WebSocket connection to the server
func (c *Client) Connect(ctx context.Context) error {
	wsURL, err := WebSocketURL(c.serverURL)
	if err != nil {
		return err
	}
	c.logger.Info("Connecting to server", "url", wsURL)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readPump()
	go c.writePump()
	go c.eventProcessor()

	c.logger.Info("Connected to server")
	return nil
}

// Disconnect closes the WebSocket connection
func (c *Client) Disconnect() error {
	c.closeOnce.Do(func() {
		c.cancel()

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.conn != nil {
			_ = c.conn.Close()
			c.connected = false
		}
		c.logger.Info("Disconnected from server")
	})
	return nil
}

// Done is closed once the client has disconnected.
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// IsConnected returns whether the client is connected
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// SendMessage queues a message for the server
func (c *Client) SendMessage(msg *server.Message) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return ErrNotConnected
	default:
		return fmt.Errorf("send buffer full")
	}
}

func (c *Client) sendData(t server.MessageType, data any) error {
	msg, err := server.NewMessage(t, data)
	if err != nil {
		return err
	}
	return c.SendMessage(msg)
}

// readPump handles incoming messages from the server
func (c *Client) readPump() {
	defer func() { _ = c.Disconnect() }()

	for {
		var msg server.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		c.logger.Debug("Received message", "type", msg.Type)

		select {
		case c.receive <- &msg:
		case <-c.ctx.Done():
			return
		}
	}
}

// writePump handles outgoing messages to the server
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				_ = c.Disconnect()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Disconnect()
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// eventProcessor dispatches messages to handlers in arrival order.
func (c *Client) eventProcessor() {
	for {
		select {
		case msg := <-c.receive:
			c.track(msg)
			c.handleMessage(msg)
		case <-c.ctx.Done():
			return
		}
	}
}

// track follows the game and round the client is seated in.
func (c *Client) track(msg *server.Message) {
	switch msg.Type {
	case server.MessageTypeJoined:
		var data server.JoinedData
		if err := msg.Decode(&data); err == nil && data.GameID != "" {
			c.mu.Lock()
			c.gameID = data.GameID
			c.mu.Unlock()
		}
	case server.MessageTypeEvent:
		var data server.EventData
		if err := msg.Decode(&data); err != nil || data.Type != game.EventTypeRoundStarted {
			return
		}
		if e, err := data.DecodeEvent(); err == nil {
			c.mu.Lock()
			c.roundID = e.(game.RoundStartedEvent).RoundID
			c.mu.Unlock()
		}
	}
}

func (c *Client) handleMessage(msg *server.Message) {
	c.mu.RLock()
	entries := append([]*handlerEntry(nil), c.handlers[msg.Type]...)
	c.mu.RUnlock()

	if len(entries) == 0 {
		c.logger.Debug("No handler for message type", "type", msg.Type)
		return
	}
	for _, e := range entries {
		e.fn(msg)
	}
}

// AddEventHandler registers handler for messageType. Handlers run one at a
// time on the client's dispatch goroutine. The returned func removes it.
func (c *Client) AddEventHandler(messageType server.MessageType, handler EventHandler) func() {
	entry := &handlerEntry{fn: handler}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[messageType] = append(c.handlers[messageType], entry)

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		entries := c.handlers[messageType]
		for i, e := range entries {
			if e == entry {
				c.handlers[messageType] = append(entries[:i:i], entries[i+1:]...)
				return
			}
		}
	}
}

// Join asks for a seat in the named game.
func (c *Client) Join(gameName, playerName string) error {
	c.mu.Lock()
	c.playerName = playerName
	c.mu.Unlock()
	return c.sendData(server.MessageTypeJoin, server.JoinData{Game: gameName, Name: playerName})
}

// StartRound starts the lobby without waiting for more players.
func (c *Client) StartRound() error {
	return c.sendData(server.MessageTypeStartRound, nil)
}

// Play submits a card for roundID.
func (c *Client) Play(roundID string, play game.Play) error {
	return c.sendData(server.MessageTypePlay, server.PlayData{
		RoundID: roundID,
		CardID:  play.CardID,
		Target:  play.Target,
		Guess:   play.Guess,
	})
}

// RequestState asks for the player's private view.
func (c *Client) RequestState() error {
	return c.sendData(server.MessageTypeState, nil)
}

// GameID returns the running game the client is seated in.
func (c *Client) GameID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gameID
}

// RoundID returns the most recently started round.
func (c *Client) RoundID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roundID
}

// GetPlayerName returns the player name
func (c *Client) GetPlayerName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerName
}

// WaitForMessage waits for a specific message type with timeout
func (c *Client) WaitForMessage(messageType server.MessageType, timeout time.Duration) (*server.Message, error) {
	responseChan := make(chan *server.Message, 1)
	remove := c.AddEventHandler(messageType, func(msg *server.Message) {
		select {
		case responseChan <- msg:
		default:
		}
	})
	defer remove()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-responseChan:
		return msg, nil
	case <-timer.C:
		return nil, fmt.Errorf("timeout waiting for %s", messageType)
	case <-c.ctx.Done():
		return nil, ErrNotConnected
	}
}
