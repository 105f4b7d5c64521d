package game

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lox/loveletter/internal/deck"
)

// card returns the canonical classic card with the given id.
func card(id int) deck.Card {
	for _, c := range deck.Classic.NewDeck().Cards() {
		if c.ID == id {
			return c
		}
	}
	panic("no such card")
}

// riggedRound deals a classic round to ids with the listed ranks on top of
// the deck. For three or more players the order is: face-down burn, one card
// per player from the first seat, then the first player's draw. Two-player
// rounds take three face-up burns after the face-down one.
func riggedRound(t *testing.T, ids []string, top []deck.Rank, opts ...RoundOption) (*Round, []Event) {
	t.Helper()
	players, err := NewRegistry(ids)
	require.NoError(t, err)
	r, events, err := NewRound(players, deck.Classic, deck.Rig(top...), opts...)
	require.NoError(t, err)
	return r, events
}

func holding(t *testing.T, r *Round, id string, rank deck.Rank) deck.Card {
	t.Helper()
	p, ok := r.Players().Get(id)
	require.True(t, ok, "player %s", id)
	for _, c := range p.Hand.Cards() {
		if c.Rank == rank {
			return c
		}
	}
	require.Failf(t, "card not held", "%s does not hold a %s: %v", id, rank, p.Hand.Cards())
	return deck.Card{}
}

func held(t *testing.T, r *Round, id string) deck.Card {
	t.Helper()
	p, ok := r.Players().Get(id)
	require.True(t, ok, "player %s", id)
	c, ok := p.Hand.Held()
	require.True(t, ok, "%s holds nothing", id)
	return c
}

func player(t *testing.T, r *Round, id string) *Player {
	t.Helper()
	p, ok := r.Players().Get(id)
	require.True(t, ok, "player %s", id)
	return p
}

func play(t *testing.T, r *Round, id string, rank deck.Rank, target string, guess deck.Rank) Outcome {
	t.Helper()
	out, err := r.Submit(Play{Player: id, CardID: holding(t, r, id, rank).ID, Target: target, Guess: guess})
	require.NoError(t, err)
	require.Equal(t, deck.StandardSize, r.Counts().Total())
	return out
}

// exhaustDeck moves every undrawn card to the face-down burn pile so the next
// advance ends the round by exhaustion.
func exhaustDeck(r *Round) {
	for {
		c, ok := r.deck.Draw()
		if !ok {
			return
		}
		r.burned = append(r.burned, c)
	}
}

func eventsOf[T Event](events []Event) []T {
	var out []T
	for _, e := range events {
		if v, ok := e.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func types(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.EventType()
	}
	return out
}
