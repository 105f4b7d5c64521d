package game

import "github.com/lox/loveletter/internal/deck"

// maxHandSize is the number of cards a player holds between drawing and playing.
const maxHandSize = 2

// Hand holds the cards a player owns. Outside the draw-then-play window it
// holds exactly one card; eliminated players hold none.
type Hand struct {
	cards []deck.Card
	drawn int // 1-based index of the card drawn this turn; 0 if none
}

// NewHand returns a hand holding cards, none of them marked as drawn.
func NewHand(cards ...deck.Card) Hand {
	var h Hand
	h.cards = append(h.cards, cards...)
	return h
}

// Len returns the number of cards held.
func (h *Hand) Len() int {
	return len(h.cards)
}

// Cards returns a copy of the held cards, held card first.
func (h *Hand) Cards() []deck.Card {
	out := make([]deck.Card, len(h.cards))
	copy(out, h.cards)
	return out
}

// Draw adds c to the hand and marks it as the drawn card.
func (h *Hand) Draw(c deck.Card) error {
	if len(h.cards) >= maxHandSize {
		return illegalState("hand already holds %d cards", len(h.cards))
	}
	h.cards = append(h.cards, c)
	h.drawn = len(h.cards)
	return nil
}

// Receive adds c as the ongoing card, without marking it drawn. Deals and
// Prince replacements use it.
func (h *Hand) Receive(c deck.Card) error {
	if len(h.cards) >= maxHandSize {
		return illegalState("hand already holds %d cards", len(h.cards))
	}
	if h.drawn != 0 {
		return illegalState("cannot receive a card during the draw window")
	}
	h.cards = append(h.cards, c)
	return nil
}

// Discard removes and returns the held card of rank r. If both cards match,
// the drawn card is removed and the other is kept as the ongoing card.
func (h *Hand) Discard(r deck.Rank) (deck.Card, error) {
	idx := -1
	for i, c := range h.cards {
		if c.Rank != r {
			continue
		}
		if idx == -1 || i+1 == h.drawn {
			idx = i
		}
	}
	if idx == -1 {
		return deck.Card{}, illegalState("no %s in hand", r)
	}
	return h.removeAt(idx), nil
}

// DiscardCard removes and returns the card with the given id.
func (h *Hand) DiscardCard(id int) (deck.Card, error) {
	for i, c := range h.cards {
		if c.ID == id {
			return h.removeAt(i), nil
		}
	}
	return deck.Card{}, illegalState("card %d not in hand", id)
}

// Replace swaps the ongoing (non-drawn) card for c and returns the old card.
func (h *Hand) Replace(c deck.Card) (deck.Card, error) {
	idx := h.heldIndex()
	if idx == -1 {
		return deck.Card{}, illegalState("no held card to replace")
	}
	old := h.cards[idx]
	h.cards[idx] = c
	return old, nil
}

// Clear empties the hand and returns whatever it held.
func (h *Hand) Clear() []deck.Card {
	out := h.cards
	h.cards = nil
	h.drawn = 0
	return out
}

// Held returns the ongoing card: the only card, or the one not drawn this turn.
func (h *Hand) Held() (deck.Card, bool) {
	idx := h.heldIndex()
	if idx == -1 {
		return deck.Card{}, false
	}
	return h.cards[idx], true
}

// Drawn returns the card drawn this turn, if it is still in the hand.
func (h *Hand) Drawn() (deck.Card, bool) {
	if h.drawn == 0 || h.drawn > len(h.cards) {
		return deck.Card{}, false
	}
	return h.cards[h.drawn-1], true
}

// Card returns the held card with the given id.
func (h *Hand) Card(id int) (deck.Card, bool) {
	for _, c := range h.cards {
		if c.ID == id {
			return c, true
		}
	}
	return deck.Card{}, false
}

// Contains reports whether any held card has rank r.
func (h *Hand) Contains(r deck.Rank) bool {
	for _, c := range h.cards {
		if c.Rank == r {
			return true
		}
	}
	return false
}

func (h *Hand) heldIndex() int {
	for i := range h.cards {
		if i+1 != h.drawn {
			return i
		}
	}
	return -1
}

func (h *Hand) removeAt(i int) deck.Card {
	c := h.cards[i]
	h.cards = append(h.cards[:i:i], h.cards[i+1:]...)
	// Whatever remains is the ongoing card.
	h.drawn = 0
	return c
}
