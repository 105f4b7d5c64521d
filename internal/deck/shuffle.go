package deck

// Shuffler reorders cards in place. Rounds never call a random primitive
// themselves; they use whatever Shuffler they were given.
type Shuffler interface {
	Shuffle(cards []Card)
}

// ShufflerFunc adapts a function to the Shuffler interface.
type ShufflerFunc func(cards []Card)

// Shuffle calls f(cards).
func (f ShufflerFunc) Shuffle(cards []Card) { f(cards) }

// NoShuffle leaves cards in their current order.
var NoShuffle Shuffler = ShufflerFunc(func([]Card) {})

// Rigged moves the first remaining card of each rank in Top to the front of
// the deck, in the given order, after Rest (if any) has shuffled the whole
// sequence. Ranks that are exhausted are skipped.
//
// Rigged exists for tests and replays that need a known draw order.
type Rigged struct {
	Top  []Rank
	Rest Shuffler
}

// Shuffle implements Shuffler.
func (r Rigged) Shuffle(cards []Card) {
	if r.Rest != nil {
		r.Rest.Shuffle(cards)
	}
	pos := 0
	for _, rank := range r.Top {
		for i := pos; i < len(cards); i++ {
			if cards[i].Rank != rank {
				continue
			}
			card := cards[i]
			copy(cards[pos+1:i+1], cards[pos:i])
			cards[pos] = card
			pos++
			break
		}
	}
}

// Rig is shorthand for Rigged{Top: top} with the remainder left in
// canonical order.
func Rig(top ...Rank) Shuffler {
	return Rigged{Top: top}
}
