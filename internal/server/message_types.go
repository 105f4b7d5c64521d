package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

const (
	// Client to server messages
	MessageTypeJoin       MessageType = "join"
	MessageTypeStartRound MessageType = "start_round"
	MessageTypePlay       MessageType = "play"
	MessageTypeState      MessageType = "state"

	// Server to client messages
	MessageTypeJoined   MessageType = "joined"
	MessageTypeEvent    MessageType = "event"
	MessageTypeYourTurn MessageType = "your_turn"
	MessageTypeRejected MessageType = "rejected"
	MessageTypeError    MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
