package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/loveletter/internal/game"
	"github.com/lox/loveletter/internal/table"
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	service   *GameService

	mu       sync.RWMutex
	playerID string
	lobby    string
	gameID   string
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, service *GameService) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:    conn,
		send:    make(chan *Message, 256),
		logger:  logger.WithPrefix("conn"),
		ctx:     ctx,
		cancel:  cancel,
		service: service,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Done is closed once the connection has shut down.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// ErrConnectionClosed is returned when sending on a closed connection.
var ErrConnectionClosed = errors.New("connection closed")

// SendMessage queues msg for the client without blocking. A client that
// cannot keep up is disconnected.
func (c *Connection) SendMessage(msg *Message) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		c.logger.Warn("Connection send buffer full, closing connection", "player", c.GetPlayer())
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// Send encodes data as a message of type t and queues it.
func (c *Connection) Send(t MessageType, data any) error {
	msg, err := NewMessage(t, data)
	if err != nil {
		c.logger.Error("Failed to create message", "type", t, "error", err)
		return err
	}
	return c.SendMessage(msg)
}

// SetPlayer associates this connection with a player
func (c *Connection) SetPlayer(playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
}

// GetPlayer returns the associated player ID
func (c *Connection) GetPlayer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// SetLobby records the configured game the player is waiting in.
func (c *Connection) SetLobby(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lobby = name
}

// GetLobby returns the lobby the player is waiting in, if any.
func (c *Connection) GetLobby() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lobby
}

// SetGame associates this connection with a running game
func (c *Connection) SetGame(gameID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gameID = gameID
}

// GetGame returns the associated game ID
func (c *Connection) GetGame() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gameID
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Debug("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "player", c.GetPlayer())

	if c.service == nil {
		c.sendError("service_unavailable", "Game service not available")
		return
	}

	switch msg.Type {
	case MessageTypeJoin:
		var data JoinData
		if err := msg.Decode(&data); err != nil {
			c.sendError("invalid_message", "Failed to parse join data")
			return
		}
		c.handleError(c.service.Join(c, data))

	case MessageTypeStartRound:
		c.handleError(c.service.StartRound(c))

	case MessageTypePlay:
		var data PlayData
		if err := msg.Decode(&data); err != nil {
			c.sendError("invalid_message", "Failed to parse play data")
			return
		}
		c.handlePlay(data)

	case MessageTypeState:
		c.handleError(c.service.SendState(c))

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

func (c *Connection) handlePlay(data PlayData) {
	play := game.Play{Player: c.GetPlayer(), CardID: data.CardID, Target: data.Target, Guess: data.Guess}
	err := c.service.Play(c.ctx, c, data.RoundID, play)
	switch {
	case err == nil:
	case game.IsRecoverable(err), errors.Is(err, table.ErrStaleRound), errors.Is(err, table.ErrUnknownRound):
		_ = c.Send(MessageTypeRejected, RejectedData{Reason: game.Reason(err), Error: err.Error(), Play: play})
	default:
		c.handleError(err)
	}
}

func (c *Connection) handleError(err error) {
	if err == nil {
		return
	}
	var se *ServiceError
	if errors.As(err, &se) {
		c.sendError(se.Code, se.Message)
		return
	}
	if game.IsRecoverable(err) {
		_ = c.Send(MessageTypeRejected, RejectedData{Reason: game.Reason(err), Error: err.Error()})
		return
	}
	c.sendError("internal", err.Error())
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	_ = c.Send(MessageTypeError, ErrorData{Code: code, Message: message})
}
