// Package statistics aggregates the results of simulated games.
package statistics

import (
	"fmt"
	"math"
	"sort"

	"github.com/lox/loveletter/internal/game"
)

// SeatResult is one seat's final standing in a game.
type SeatResult struct {
	ID       string
	Strategy string
	Tokens   int
}

// GameResult represents the outcome of a single simulated game
type GameResult struct {
	Seed         int64 // shuffler seed, for replay
	Seats        []SeatResult
	Winner       int // winning seat
	Rounds       int
	Exhaustions  int // rounds decided by an empty deck
	Plays        int
	Eliminations map[game.EliminationCause]int
}

// Tally counts games played and won.
type Tally struct {
	Games int
	Wins  int
}

// WinRate returns the fraction of games won.
func (t Tally) WinRate() float64 {
	if t.Games == 0 {
		return 0
	}
	return float64(t.Wins) / float64(t.Games)
}

// ConfidenceInterval95 returns the normal approximation of the 95% interval
// around WinRate, clamped to [0, 1].
func (t Tally) ConfidenceInterval95() (float64, float64) {
	if t.Games == 0 {
		return 0, 0
	}
	p := t.WinRate()
	margin := 1.96 * math.Sqrt(p*(1-p)/float64(t.Games))
	return math.Max(0, p-margin), math.Min(1, p+margin)
}

// Statistics accumulates GameResults.
type Statistics struct {
	Games       int
	Rounds      int
	SumRounds2  int // sum of squares for variance
	Exhaustions int
	Plays       int

	Seats        []Tally // by seat index
	Strategies   map[string]*Tally
	Eliminations map[game.EliminationCause]int
}

// Add incorporates a game result.
func (s *Statistics) Add(r GameResult) {
	if s.Strategies == nil {
		s.Strategies = make(map[string]*Tally)
	}
	if s.Eliminations == nil {
		s.Eliminations = make(map[game.EliminationCause]int)
	}

	s.Games++
	s.Rounds += r.Rounds
	s.SumRounds2 += r.Rounds * r.Rounds
	s.Exhaustions += r.Exhaustions
	s.Plays += r.Plays

	for len(s.Seats) < len(r.Seats) {
		s.Seats = append(s.Seats, Tally{})
	}
	for i, seat := range r.Seats {
		won := i == r.Winner
		s.Seats[i].Games++
		tally, ok := s.Strategies[seat.Strategy]
		if !ok {
			tally = &Tally{}
			s.Strategies[seat.Strategy] = tally
		}
		tally.Games++
		if won {
			s.Seats[i].Wins++
			tally.Wins++
		}
	}
	for cause, n := range r.Eliminations {
		s.Eliminations[cause] += n
	}
}

// MeanRounds returns the average number of rounds per game.
func (s *Statistics) MeanRounds() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Rounds) / float64(s.Games)
}

// RoundsStdDev returns the sample standard deviation of rounds per game.
func (s *Statistics) RoundsStdDev() float64 {
	if s.Games < 2 {
		return 0
	}
	mean := s.MeanRounds()
	variance := (float64(s.SumRounds2) - float64(s.Games)*mean*mean) / float64(s.Games-1)
	return math.Sqrt(math.Max(0, variance))
}

// ExhaustionRatio returns the fraction of rounds that ended with an empty deck.
func (s *Statistics) ExhaustionRatio() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return float64(s.Exhaustions) / float64(s.Rounds)
}

// StrategyNames returns the strategies seen, sorted.
func (s *Statistics) StrategyNames() []string {
	names := make([]string, 0, len(s.Strategies))
	for name := range s.Strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks the accounting is consistent.
func (s *Statistics) Validate() error {
	if s.Games <= 0 {
		return fmt.Errorf("invalid games count: %d", s.Games)
	}

	seatWins := 0
	for i, seat := range s.Seats {
		if seat.Wins > seat.Games {
			return fmt.Errorf("seat %d wins (%d) exceed games (%d)", i, seat.Wins, seat.Games)
		}
		seatWins += seat.Wins
	}
	if seatWins != s.Games {
		return fmt.Errorf("seat wins total (%d) does not match games (%d)", seatWins, s.Games)
	}

	strategyWins := 0
	for _, tally := range s.Strategies {
		strategyWins += tally.Wins
	}
	if strategyWins != s.Games {
		return fmt.Errorf("strategy wins total (%d) does not match games (%d)", strategyWins, s.Games)
	}

	if s.Exhaustions > s.Rounds {
		return fmt.Errorf("exhausted rounds (%d) exceed rounds (%d)", s.Exhaustions, s.Rounds)
	}
	return nil
}
