package game

import "github.com/lox/loveletter/internal/deck"

// EventType names an outcome event.
type EventType string

// Event types returned by rounds and sessions.
const (
	EventTypeRoundStarted     EventType = "round_started"
	EventTypeCardDrawn        EventType = "card_drawn"
	EventTypeTurnStarted      EventType = "turn_started"
	EventTypeCardPlayed       EventType = "card_played"
	EventTypeGuardGuessed     EventType = "guard_guessed"
	EventTypePriestRevealed   EventType = "priest_revealed"
	EventTypeBaronCompared    EventType = "baron_compared"
	EventTypePlayerProtected  EventType = "player_protected"
	EventTypeCardDiscarded    EventType = "card_discarded"
	EventTypePlayerEliminated EventType = "player_eliminated"
	EventTypeHandsSwapped     EventType = "hands_swapped"
	EventTypeRoundEnded       EventType = "round_ended"
	EventTypeTokenAwarded     EventType = "token_awarded"
	EventTypeGameEnded        EventType = "game_ended"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// Event is an outcome of a command. Audience lists the only players allowed
// to see it; nil means everyone, spectators included.
type Event interface {
	EventType() EventType
	Audience() []string
}

// IsPublic reports whether e may be shown to everyone.
func IsPublic(e Event) bool {
	return e.Audience() == nil
}

// VisibleTo reports whether player may see e.
func VisibleTo(e Event, player string) bool {
	audience := e.Audience()
	if audience == nil {
		return true
	}
	for _, id := range audience {
		if id == player {
			return true
		}
	}
	return false
}

type public struct{}

func (public) Audience() []string { return nil }

// EliminationCause says why a player left the round.
type EliminationCause string

const (
	CauseGuardGuess        EliminationCause = "guard_guess"
	CauseBaronComparison   EliminationCause = "baron_comparison"
	CausePrincessPlayed    EliminationCause = "princess_played"
	CausePrincessDiscarded EliminationCause = "princess_discarded"
)

// EndReason says how a round ended.
type EndReason string

const (
	EndLastStanding  EndReason = "last_standing"
	EndDeckExhausted EndReason = "deck_exhausted"
)

// RoundStartedEvent opens a round. FaceUpBurned lists cards set aside face up.
type RoundStartedEvent struct {
	public
	RoundID      string      `json:"round_id"`
	Number       int         `json:"number"`
	Catalog      string      `json:"catalog"`
	Players      []string    `json:"players"`
	FirstPlayer  string      `json:"first_player"`
	FaceUpBurned []deck.Card `json:"face_up_burned,omitempty"`
}

func (RoundStartedEvent) EventType() EventType { return EventTypeRoundStarted }

// CardDrawnEvent tells one player which card they received.
type CardDrawnEvent struct {
	Player string    `json:"player"`
	Card   deck.Card `json:"card"`
	Dealt  bool      `json:"dealt,omitempty"`
	Prince bool      `json:"prince,omitempty"`
}

func (CardDrawnEvent) EventType() EventType { return EventTypeCardDrawn }
func (e CardDrawnEvent) Audience() []string { return []string{e.Player} }

// TurnStartedEvent announces whose turn it is.
type TurnStartedEvent struct {
	public
	Turn          int    `json:"turn"`
	Player        string `json:"player"`
	DeckRemaining int    `json:"deck_remaining"`
}

func (TurnStartedEvent) EventType() EventType { return EventTypeTurnStarted }

// CardPlayedEvent is emitted for every accepted play.
type CardPlayedEvent struct {
	public
	Turn     int       `json:"turn"`
	Player   string    `json:"player"`
	Card     deck.Card `json:"card"`
	Target   string    `json:"target,omitempty"`
	Guess    deck.Rank `json:"guess,omitempty"`
	NoEffect bool      `json:"no_effect,omitempty"`
}

func (CardPlayedEvent) EventType() EventType { return EventTypeCardPlayed }

// GuardGuessedEvent reports whether a Guard guess was right. A miss reveals
// nothing about the target's card.
type GuardGuessedEvent struct {
	public
	Player  string    `json:"player"`
	Target  string    `json:"target"`
	Guess   deck.Rank `json:"guess"`
	Correct bool      `json:"correct"`
}

func (GuardGuessedEvent) EventType() EventType { return EventTypeGuardGuessed }

// PriestRevealedEvent is visible only to the requester.
type PriestRevealedEvent struct {
	Requester string    `json:"requester"`
	Target    string    `json:"target"`
	Card      deck.Card `json:"card"`
}

func (PriestRevealedEvent) EventType() EventType { return EventTypePriestRevealed }
func (e PriestRevealedEvent) Audience() []string { return []string{e.Requester} }

// BaronComparedEvent is visible to both compared players. Loser is empty on a tie.
type BaronComparedEvent struct {
	Player     string    `json:"player"`
	PlayerCard deck.Card `json:"player_card"`
	Target     string    `json:"target"`
	TargetCard deck.Card `json:"target_card"`
	Loser      string    `json:"loser,omitempty"`
}

func (BaronComparedEvent) EventType() EventType { return EventTypeBaronCompared }
func (e BaronComparedEvent) Audience() []string { return []string{e.Player, e.Target} }

// PlayerProtectedEvent marks the start of Handmaid protection.
type PlayerProtectedEvent struct {
	public
	Player string `json:"player"`
}

func (PlayerProtectedEvent) EventType() EventType { return EventTypePlayerProtected }

// CardDiscardedEvent is a forced, face-up discard.
type CardDiscardedEvent struct {
	public
	Player string    `json:"player"`
	Card   deck.Card `json:"card"`
	By     string    `json:"by"`
}

func (CardDiscardedEvent) EventType() EventType { return EventTypeCardDiscarded }

// PlayerEliminatedEvent removes a player from the round. Card is the card
// they were holding, now face up on the discard pile.
type PlayerEliminatedEvent struct {
	public
	Player string           `json:"player"`
	Cause  EliminationCause `json:"cause"`
	By     string           `json:"by,omitempty"`
	Card   *deck.Card       `json:"card,omitempty"`
}

func (PlayerEliminatedEvent) EventType() EventType { return EventTypePlayerEliminated }

// HandsSwappedEvent reports a King swap without revealing the cards.
type HandsSwappedEvent struct {
	public
	Player string `json:"player"`
	Target string `json:"target"`
}

func (HandsSwappedEvent) EventType() EventType { return EventTypeHandsSwapped }

// RoundEndedEvent closes a round. FinalHands are revealed to everyone.
type RoundEndedEvent struct {
	public
	RoundID    string               `json:"round_id"`
	Number     int                  `json:"number"`
	Winners    []string             `json:"winners"`
	Reason     EndReason            `json:"reason"`
	FinalHands map[string]deck.Card `json:"final_hands"`
}

func (RoundEndedEvent) EventType() EventType { return EventTypeRoundEnded }

// TokenAwardedEvent records a token going to a round winner.
type TokenAwardedEvent struct {
	public
	Player string `json:"player"`
	Tokens int    `json:"tokens"`
}

func (TokenAwardedEvent) EventType() EventType { return EventTypeTokenAwarded }

// GameEndedEvent closes the game.
type GameEndedEvent struct {
	public
	Winner string         `json:"winner"`
	Tokens map[string]int `json:"tokens"`
}

func (GameEndedEvent) EventType() EventType { return EventTypeGameEnded }
