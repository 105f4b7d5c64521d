package game

// RoundOption configures a Round during creation.
type RoundOption func(*roundConfig)

// roundConfig holds optional configuration for creating a round.
type roundConfig struct {
	id          string
	number      int
	firstPlayer string
	faceUpBurn  int // -1 selects the player-count default
}

// WithRoundID sets the round identifier reported in events and results.
func WithRoundID(id string) RoundOption {
	return func(c *roundConfig) {
		c.id = id
	}
}

// WithRoundNumber sets the 1-based position of the round within its game.
func WithRoundNumber(n int) RoundOption {
	return func(c *roundConfig) {
		c.number = n
	}
}

// WithFirstPlayer chooses who is dealt to first and takes the first turn.
// Default is seat 0.
func WithFirstPlayer(id string) RoundOption {
	return func(c *roundConfig) {
		c.firstPlayer = id
	}
}

// WithFaceUpBurn overrides how many cards are set aside face up after the
// face-down burn. The default is three for two players and none otherwise.
func WithFaceUpBurn(n int) RoundOption {
	return func(c *roundConfig) {
		c.faceUpBurn = n
	}
}
