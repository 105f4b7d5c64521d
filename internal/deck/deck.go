package deck

// Deck is the ordered draw pile for one round. It only shrinks: cards leave
// from the front.
type Deck struct {
	cards []Card
}

// New wraps cards as a deck. The slice is copied.
func New(cards []Card) *Deck {
	d := &Deck{cards: make([]Card, len(cards))}
	copy(d.cards, cards)
	return d
}

// Shuffle reorders the remaining cards using s.
func (d *Deck) Shuffle(s Shuffler) {
	s.Shuffle(d.cards)
}

// Draw removes and returns the top card.
func (d *Deck) Draw() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, true
}

// DrawN draws up to n cards.
func (d *Deck) DrawN(n int) []Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}
	cards := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		c, _ := d.Draw()
		cards = append(cards, c)
	}
	return cards
}

// Peek returns the top card without removing it.
func (d *Deck) Peek() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	return d.cards[0], true
}

// Len returns the number of cards left.
func (d *Deck) Len() int {
	return len(d.cards)
}

// IsEmpty returns true if no cards are left.
func (d *Deck) IsEmpty() bool {
	return len(d.cards) == 0
}

// Cards returns a copy of the remaining cards, top first.
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}
