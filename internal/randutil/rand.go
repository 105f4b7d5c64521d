// Package randutil provides the seeded randomness used to shuffle decks and
// drive bots, so that any game can be replayed from its seed.
package randutil

import (
	rand "math/rand/v2"
	"time"

	"github.com/lox/loveletter/internal/deck"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided int64.
// Both PCG seeds are derived from the one value so that every call site gets
// the same reproducible sequence for the same seed.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// NewSeed returns a seed derived from the wall clock, for callers that were
// not given one explicitly.
func NewSeed() int64 {
	return time.Now().UnixNano()
}

// Child derives an independent seed for the n-th sub-stream of seed.
func Child(seed int64, n int) int64 {
	return int64(mix(uint64(seed) + uint64(n)*goldenRatio64))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// Shuffler is a deck.Shuffler backed by a *rand.Rand. It is not safe for
// concurrent use; give each game its own.
type Shuffler struct {
	rng *rand.Rand
}

// NewShuffler returns a Shuffler drawing from rng.
func NewShuffler(rng *rand.Rand) *Shuffler {
	if rng == nil {
		panic("rng is required for shuffler creation")
	}
	return &Shuffler{rng: rng}
}

// NewSeededShuffler is shorthand for NewShuffler(New(seed)).
func NewSeededShuffler(seed int64) *Shuffler {
	return NewShuffler(New(seed))
}

// Shuffle performs a Fisher-Yates shuffle of cards.
func (s *Shuffler) Shuffle(cards []deck.Card) {
	s.rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}
