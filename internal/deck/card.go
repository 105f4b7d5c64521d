package deck

import "fmt"

// Card is a single card instance. Cards are values and never change once
// created; ID is unique within the deck that produced it.
type Card struct {
	ID         int    `json:"id"`
	Rank       Rank   `json:"rank"`
	Appearance string `json:"appearance,omitempty"`
}

// Strength is shorthand for c.Rank.Strength().
func (c Card) Strength() int {
	return c.Rank.Strength()
}

// IsZero reports whether c is the zero Card.
func (c Card) IsZero() bool {
	return c.ID == 0 && c.Rank == NoRank
}

// String returns e.g. "baron#7".
func (c Card) String() string {
	return fmt.Sprintf("%s#%d", c.Rank, c.ID)
}

// Ranks extracts the ranks of cards, preserving order.
func Ranks(cards []Card) []Rank {
	ranks := make([]Rank, len(cards))
	for i, c := range cards {
		ranks[i] = c.Rank
	}
	return ranks
}

// TotalStrength sums the strength of cards.
func TotalStrength(cards []Card) int {
	total := 0
	for _, c := range cards {
		total += c.Strength()
	}
	return total
}
