package history

import (
	"time"

	"github.com/lox/loveletter/internal/deck"
	"github.com/lox/loveletter/internal/game"
)

// GameRecord is the document written to <dir>/<game id>.json.
type GameRecord struct {
	GameID    string         `json:"game_id"`
	Catalog   string         `json:"catalog"`
	Players   []string       `json:"players"`
	StartedAt time.Time      `json:"started_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Rounds    []RoundRecord  `json:"rounds"`
	Tokens    map[string]int `json:"tokens"`
	Winner    string         `json:"winner,omitempty"`
	Complete  bool           `json:"complete"`
}

// RoundRecord is one completed round.
type RoundRecord struct {
	RoundID      string               `json:"round_id"`
	Number       int                  `json:"number"`
	Catalog      string               `json:"catalog"`
	FirstPlayer  string               `json:"first_player"`
	FaceUpBurned []deck.Card          `json:"face_up_burned,omitempty"`
	Draws        []Draw               `json:"draws"`
	Plays        []PlayRecord         `json:"plays"`
	Eliminations []Elimination        `json:"eliminations,omitempty"`
	Discard      []deck.Card          `json:"discard"`
	Winners      []string             `json:"winners"`
	Reason       game.EndReason       `json:"reason"`
	FinalHands   map[string]deck.Card `json:"final_hands"`
	Tokens       map[string]int       `json:"tokens"`
}

// Draw is a card entering a player's hand.
type Draw struct {
	Player string    `json:"player"`
	Card   deck.Card `json:"card"`
	Dealt  bool      `json:"dealt,omitempty"`
	Prince bool      `json:"prince,omitempty"`
}

// PlayRecord is an accepted play and its visible result.
type PlayRecord struct {
	Turn     int       `json:"turn"`
	Player   string    `json:"player"`
	Card     deck.Card `json:"card"`
	Target   string    `json:"target,omitempty"`
	Guess    deck.Rank `json:"guess,omitempty"`
	NoEffect bool      `json:"no_effect,omitempty"`
	Correct  *bool     `json:"correct,omitempty"` // Guard only
	Loser    string    `json:"loser,omitempty"`   // Baron only
}

// Elimination records a player leaving a round.
type Elimination struct {
	Player string                `json:"player"`
	Cause  game.EliminationCause `json:"cause"`
	By     string                `json:"by,omitempty"`
}
