package statistics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/loveletter/internal/game"
)

func result(winner, rounds, exhaustions int, strategies ...string) GameResult {
	r := GameResult{Winner: winner, Rounds: rounds, Exhaustions: exhaustions, Plays: rounds * 6}
	for i, s := range strategies {
		r.Seats = append(r.Seats, SeatResult{ID: string(rune('a' + i)), Strategy: s})
	}
	return r
}

func TestAdd(t *testing.T) {
	var s Statistics
	s.Add(result(0, 5, 1, "cautious", "random"))
	s.Add(result(1, 7, 3, "random", "cautious"))

	r := result(0, 6, 0, "cautious", "random")
	r.Eliminations = map[game.EliminationCause]int{game.CauseGuardGuess: 3, game.CauseBaronComparison: 1}
	s.Add(r)

	require.NoError(t, s.Validate())
	assert.Equal(t, 3, s.Games)
	assert.Equal(t, 18, s.Rounds)
	assert.Equal(t, 108, s.Plays)
	assert.InDelta(t, 6.0, s.MeanRounds(), 1e-9)
	assert.InDelta(t, 1.0, s.RoundsStdDev(), 1e-9)
	assert.InDelta(t, 4.0/18.0, s.ExhaustionRatio(), 1e-9)

	require.Len(t, s.Seats, 2)
	assert.Equal(t, Tally{Games: 3, Wins: 2}, s.Seats[0])
	assert.Equal(t, Tally{Games: 3, Wins: 1}, s.Seats[1])

	assert.Equal(t, []string{"cautious", "random"}, s.StrategyNames())
	assert.Equal(t, Tally{Games: 3, Wins: 3}, *s.Strategies["cautious"])
	assert.Equal(t, Tally{Games: 3, Wins: 0}, *s.Strategies["random"])

	assert.Equal(t, 3, s.Eliminations[game.CauseGuardGuess])
	assert.Equal(t, 1, s.Eliminations[game.CauseBaronComparison])
}

func TestTally(t *testing.T) {
	assert.Zero(t, Tally{}.WinRate())
	lo, hi := Tally{}.ConfidenceInterval95()
	assert.Zero(t, lo)
	assert.Zero(t, hi)

	tally := Tally{Games: 100, Wins: 50}
	assert.InDelta(t, 0.5, tally.WinRate(), 1e-9)
	lo, hi = tally.ConfidenceInterval95()
	assert.InDelta(t, 0.402, lo, 1e-3)
	assert.InDelta(t, 0.598, hi, 1e-3)

	lo, hi = Tally{Games: 4, Wins: 4}.ConfidenceInterval95()
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 1.0, hi)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		stats Statistics
		want  string
	}{
		{"empty", Statistics{}, "invalid games count"},
		{
			"seat wins mismatch",
			Statistics{Games: 2, Seats: []Tally{{Games: 2, Wins: 1}}},
			"seat wins total",
		},
		{
			"strategy wins mismatch",
			Statistics{Games: 1, Seats: []Tally{{Games: 1, Wins: 1}}, Strategies: map[string]*Tally{"random": {Games: 1}}},
			"strategy wins total",
		},
		{
			"too many exhaustions",
			Statistics{
				Games: 1, Rounds: 1, Exhaustions: 2,
				Seats:      []Tally{{Games: 1, Wins: 1}},
				Strategies: map[string]*Tally{"random": {Games: 1, Wins: 1}},
			},
			"exhausted rounds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.stats.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
