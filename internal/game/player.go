package game

import (
	"fmt"

	"github.com/lox/loveletter/internal/deck"
)

// Player is a participant's per-round state plus their token count, which
// persists across rounds of a game.
type Player struct {
	ID         string
	Seat       int
	Hand       Hand
	Protected  bool
	Eliminated bool
	Tokens     int

	// discards lists the cards this player played or was forced to discard
	// this round, in order. Used for the exhaustion tie-break.
	discards []deck.Card
}

// Active reports whether the player is still in the round.
func (p *Player) Active() bool {
	return !p.Eliminated
}

// Discards returns a copy of the cards this player has discarded this round.
func (p *Player) Discards() []deck.Card {
	out := make([]deck.Card, len(p.discards))
	copy(out, p.discards)
	return out
}

// DiscardedStrength totals the strength of this round's discards.
func (p *Player) DiscardedStrength() int {
	return deck.TotalStrength(p.discards)
}

func (p *Player) resetForRound() {
	p.Hand = NewHand()
	p.Protected = false
	p.Eliminated = false
	p.discards = nil
}

// Registry owns every player of a game in seat order. It is the only
// component that changes token counts.
type Registry struct {
	players []*Player
	index   map[string]int
}

// NewRegistry seats ids in the given order.
func NewRegistry(ids []string) (*Registry, error) {
	r := &Registry{
		players: make([]*Player, 0, len(ids)),
		index:   make(map[string]int, len(ids)),
	}
	for i, id := range ids {
		if id == "" {
			return nil, fmt.Errorf("player %d: id is required", i)
		}
		if _, dup := r.index[id]; dup {
			return nil, fmt.Errorf("duplicate player id %q", id)
		}
		r.index[id] = i
		r.players = append(r.players, &Player{ID: id, Seat: i})
	}
	return r, nil
}

// Len returns the number of seated players.
func (r *Registry) Len() int {
	return len(r.players)
}

// Get returns the player with the given id.
func (r *Registry) Get(id string) (*Player, bool) {
	i, ok := r.index[id]
	if !ok {
		return nil, false
	}
	return r.players[i], true
}

// At returns the player in seat.
func (r *Registry) At(seat int) *Player {
	return r.players[seat]
}

// Players returns all players in seat order.
func (r *Registry) Players() []*Player {
	out := make([]*Player, len(r.players))
	copy(out, r.players)
	return out
}

// IDs returns player ids in seat order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.players))
	for i, p := range r.players {
		ids[i] = p.ID
	}
	return ids
}

// Active returns the players still in the round, in seat order.
func (r *Registry) Active() []*Player {
	var out []*Player
	for _, p := range r.players {
		if p.Active() {
			out = append(out, p)
		}
	}
	return out
}

// NextActive returns the first active player after seat, wrapping around
// to seat itself last. It returns nil when nobody is active.
func (r *Registry) NextActive(seat int) *Player {
	n := len(r.players)
	for i := 1; i <= n; i++ {
		p := r.players[(seat+i)%n]
		if p.Active() {
			return p
		}
	}
	return nil
}

// AwardToken gives id one token and returns their new total.
func (r *Registry) AwardToken(id string) (int, error) {
	p, ok := r.Get(id)
	if !ok {
		return 0, illegalState("unknown player %q", id)
	}
	p.Tokens++
	return p.Tokens, nil
}

// Tokens returns every player's token total keyed by id.
func (r *Registry) Tokens() map[string]int {
	out := make(map[string]int, len(r.players))
	for _, p := range r.players {
		out[p.ID] = p.Tokens
	}
	return out
}

func (r *Registry) resetForRound() {
	for _, p := range r.players {
		p.resetForRound()
	}
}
