package server

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lox/loveletter/internal/deck"
	"github.com/lox/loveletter/internal/game"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	msg := &Message{Type: messageType, Timestamp: time.Now()}
	if data == nil {
		return msg, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	msg.Data = raw
	return msg, nil
}

// Decode unmarshals the message payload into v.
func (m *Message) Decode(v any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("%s message has no data", m.Type)
	}
	return json.Unmarshal(m.Data, v)
}

// Client → Server Messages

// JoinData asks for a seat in a configured game.
type JoinData struct {
	Game string `json:"game"`
	Name string `json:"name"`
}

// PlayData plays one held card. RoundID guards against a play arriving after
// its round has ended; empty means the current round.
type PlayData struct {
	RoundID string    `json:"round_id,omitempty"`
	CardID  int       `json:"card_id"`
	Target  string    `json:"target,omitempty"`
	Guess   deck.Rank `json:"guess,omitempty"`
}

// Server → Client Messages

// JoinedData confirms a seat. GameID is empty while the lobby is filling.
type JoinedData struct {
	Game    string   `json:"game"`
	Player  string   `json:"player"`
	Waiting int      `json:"waiting"` // seats still open
	Players []string `json:"players"`
	GameID  string   `json:"game_id,omitempty"`
}

// StateData carries the recipient's private view.
type StateData struct {
	GameID string            `json:"game_id"`
	State  game.PrivateState `json:"state"`
}

// EventData wraps one engine event visible to the recipient.
type EventData struct {
	GameID string          `json:"game_id"`
	Type   game.EventType  `json:"type"`
	Event  json.RawMessage `json:"event"`
}

// YourTurnData asks the recipient to act. A default play is made for them
// once TimeoutMs elapses.
type YourTurnData struct {
	GameID    string            `json:"game_id"`
	State     game.PrivateState `json:"state"`
	TimeoutMs int               `json:"timeout_ms"`
}

// RejectedData reports a play or command the engine refused. Nothing changed.
type RejectedData struct {
	Reason string    `json:"reason"`
	Error  string    `json:"error"`
	Play   game.Play `json:"play"`
}

// ErrorData reports a protocol or server error.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEventData encodes e for the wire.
func NewEventData(gameID string, e game.Event) (EventData, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return EventData{}, err
	}
	return EventData{GameID: gameID, Type: e.EventType(), Event: raw}, nil
}

// DecodeEvent restores the typed event carried by d.
func (d EventData) DecodeEvent() (game.Event, error) {
	var e game.Event
	switch d.Type {
	case game.EventTypeRoundStarted:
		e = &game.RoundStartedEvent{}
	case game.EventTypeCardDrawn:
		e = &game.CardDrawnEvent{}
	case game.EventTypeTurnStarted:
		e = &game.TurnStartedEvent{}
	case game.EventTypeCardPlayed:
		e = &game.CardPlayedEvent{}
	case game.EventTypeGuardGuessed:
		e = &game.GuardGuessedEvent{}
	case game.EventTypePriestRevealed:
		e = &game.PriestRevealedEvent{}
	case game.EventTypeBaronCompared:
		e = &game.BaronComparedEvent{}
	case game.EventTypePlayerProtected:
		e = &game.PlayerProtectedEvent{}
	case game.EventTypeCardDiscarded:
		e = &game.CardDiscardedEvent{}
	case game.EventTypePlayerEliminated:
		e = &game.PlayerEliminatedEvent{}
	case game.EventTypeHandsSwapped:
		e = &game.HandsSwappedEvent{}
	case game.EventTypeRoundEnded:
		e = &game.RoundEndedEvent{}
	case game.EventTypeTokenAwarded:
		e = &game.TokenAwardedEvent{}
	case game.EventTypeGameEnded:
		e = &game.GameEndedEvent{}
	default:
		return nil, fmt.Errorf("unknown event type %q", d.Type)
	}
	if err := json.Unmarshal(d.Event, e); err != nil {
		return nil, fmt.Errorf("decode %s: %w", d.Type, err)
	}
	return deref(e), nil
}

// deref returns the value form so callers can type-switch on event structs.
func deref(e game.Event) game.Event {
	switch e := e.(type) {
	case *game.RoundStartedEvent:
		return *e
	case *game.CardDrawnEvent:
		return *e
	case *game.TurnStartedEvent:
		return *e
	case *game.CardPlayedEvent:
		return *e
	case *game.GuardGuessedEvent:
		return *e
	case *game.PriestRevealedEvent:
		return *e
	case *game.BaronComparedEvent:
		return *e
	case *game.PlayerProtectedEvent:
		return *e
	case *game.CardDiscardedEvent:
		return *e
	case *game.PlayerEliminatedEvent:
		return *e
	case *game.HandsSwappedEvent:
		return *e
	case *game.RoundEndedEvent:
		return *e
	case *game.TokenAwardedEvent:
		return *e
	case *game.GameEndedEvent:
		return *e
	}
	return e
}
