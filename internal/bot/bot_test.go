package bot

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/loveletter/internal/deck"
	"github.com/lox/loveletter/internal/game"
	"github.com/lox/loveletter/internal/randutil"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func card(id int, r deck.Rank) deck.Card {
	return deck.Card{ID: id, Rank: r}
}

func guardPlays(player string, cardID int, target string) []game.Play {
	var plays []game.Play
	for _, r := range deck.AllRanks() {
		if r == deck.Guard {
			continue
		}
		plays = append(plays, game.Play{Player: player, CardID: cardID, Target: target, Guess: r})
	}
	return plays
}

func stateFor(hand []deck.Card, plays []game.Play) game.PrivateState {
	return game.PrivateState{
		PublicState: game.PublicState{
			Current: "alice",
			Players: []game.PublicPlayer{
				{ID: "alice", Seat: 0, HandSize: 2},
				{ID: "bob", Seat: 1, HandSize: 1},
			},
		},
		Player: "alice",
		Hand:   hand,
		Plays:  plays,
	}
}

func TestNew(t *testing.T) {
	rng := randutil.New(1)

	for _, name := range Strategies() {
		agent, err := New(name, rng, quietLogger())
		require.NoError(t, err)
		assert.Equal(t, name, agent.Name())
	}

	agent, err := New("", rng, nil)
	require.NoError(t, err)
	assert.Equal(t, StrategyCautious, agent.Name())

	_, err = New("psychic", rng, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "psychic")

	assert.Panics(t, func() { _, _ = New(StrategyRandom, nil, nil) })
}

func TestNoLegalPlay(t *testing.T) {
	state := stateFor([]deck.Card{card(1, deck.Guard)}, nil)

	_, err := NewRandomBot(randutil.New(1), quietLogger()).Decide(state)
	require.ErrorIs(t, err, ErrNoLegalPlay)

	_, err = NewCautiousBot(randutil.New(1), quietLogger()).Decide(state)
	require.ErrorIs(t, err, ErrNoLegalPlay)

	_, err = Default(state)
	require.ErrorIs(t, err, ErrNoLegalPlay)
}

func TestCautiousNeverDiscardsPrincess(t *testing.T) {
	plays := append([]game.Play{{Player: "alice", CardID: 16}}, guardPlays("alice", 1, "bob")...)
	state := stateFor([]deck.Card{card(16, deck.Princess), card(1, deck.Guard)}, plays)

	for seed := int64(0); seed < 20; seed++ {
		d, err := NewCautiousBot(randutil.New(seed), quietLogger()).Decide(state)
		require.NoError(t, err)
		assert.Equal(t, 1, d.Play.CardID)
	}
}

func TestCautiousUsesKnowledge(t *testing.T) {
	t.Run("guard names a known card", func(t *testing.T) {
		plays := append(guardPlays("alice", 1, "bob"), game.Play{Player: "alice", CardID: 6, Target: "bob"})
		state := stateFor([]deck.Card{card(1, deck.Guard), card(6, deck.Priest)}, plays)
		state.Knowledge = []game.Knowledge{{Turn: 1, About: "bob", Card: card(14, deck.King), Source: game.SourcePriest}}

		d, err := Default(state)
		require.NoError(t, err)
		assert.Equal(t, game.Play{Player: "alice", CardID: 1, Target: "bob", Guess: deck.King}, d)
	})

	t.Run("baron against a weaker known card", func(t *testing.T) {
		plays := []game.Play{
			{Player: "alice", CardID: 8, Target: "bob"},
			{Player: "alice", CardID: 14, Target: "bob"},
		}
		state := stateFor([]deck.Card{card(8, deck.Baron), card(14, deck.King)}, plays)
		state.Knowledge = []game.Knowledge{{Turn: 1, About: "bob", Card: card(6, deck.Priest), Source: game.SourcePriest}}

		d, err := Default(state)
		require.NoError(t, err)
		assert.Equal(t, 8, d.CardID)
	})

	t.Run("baron avoided against a stronger known card", func(t *testing.T) {
		plays := []game.Play{
			{Player: "alice", CardID: 8, Target: "bob"},
			{Player: "alice", CardID: 6, Target: "bob"},
		}
		state := stateFor([]deck.Card{card(8, deck.Baron), card(6, deck.Priest)}, plays)
		state.Knowledge = []game.Knowledge{{Turn: 1, About: "bob", Card: card(15, deck.Countess), Source: game.SourcePriest}}

		d, err := Default(state)
		require.NoError(t, err)
		assert.Equal(t, 6, d.CardID)
	})

	t.Run("stale knowledge is ignored", func(t *testing.T) {
		state := stateFor([]deck.Card{card(1, deck.Guard), card(2, deck.Guard)}, guardPlays("alice", 1, "bob"))
		state.Discard = []deck.Card{card(14, deck.King)}
		state.Knowledge = []game.Knowledge{{Turn: 1, About: "bob", Card: card(14, deck.King), Source: game.SourcePriest}}

		d, err := Default(state)
		require.NoError(t, err)
		// Priest through Prince are tied on two unseen copies; the higher wins.
		assert.Equal(t, deck.Prince, d.Guess)
	})

	t.Run("counts come from the round's catalog", func(t *testing.T) {
		state := stateFor([]deck.Card{card(1, deck.Guard), card(2, deck.Guard)}, guardPlays("alice", 1, "bob"))
		state.Composition = []deck.Quantity{
			{Rank: deck.Guard, Count: 3},
			{Rank: deck.Priest, Count: 4},
			{Rank: deck.Baron, Count: 2},
			{Rank: deck.Handmaid, Count: 2},
			{Rank: deck.Prince, Count: 2},
			{Rank: deck.King, Count: 1},
			{Rank: deck.Countess, Count: 1},
			{Rank: deck.Princess, Count: 1},
		}

		d, err := Default(state)
		require.NoError(t, err)
		assert.Equal(t, deck.Priest, d.Guess)
	})
}

func TestCautiousPrefersHandmaid(t *testing.T) {
	plays := []game.Play{
		{Player: "alice", CardID: 10},
		{Player: "alice", CardID: 12, Target: "bob"},
		{Player: "alice", CardID: 12, Target: "alice"},
	}
	state := stateFor([]deck.Card{card(10, deck.Handmaid), card(12, deck.Prince)}, plays)

	d, err := Default(state)
	require.NoError(t, err)
	assert.Equal(t, 10, d.CardID)
}

func TestDefaultIsDeterministic(t *testing.T) {
	plays := append(guardPlays("alice", 1, "bob"), guardPlays("alice", 2, "bob")...)
	state := stateFor([]deck.Card{card(1, deck.Guard), card(2, deck.Guard)}, plays)

	first, err := Default(state)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Default(state)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

// playGame drives a whole session with one agent per seat and returns the
// number of plays made.
func playGame(t *testing.T, seed int64, agents map[string]Agent, players []string) (*game.Session, int) {
	t.Helper()

	session, err := game.NewSession(deck.Classic, players, randutil.NewSeededShuffler(seed))
	require.NoError(t, err)
	_, err = session.StartRound()
	require.NoError(t, err)

	plays := 0
	for !session.Over() {
		require.Less(t, plays, 2000, "game did not finish")
		current := session.Round().Current()
		state, err := session.PrivateState(current)
		require.NoError(t, err)

		d, err := agents[current].Decide(state)
		require.NoError(t, err)
		_, err = session.Submit(d.Play)
		require.NoError(t, err, "bot chose an illegal play: %+v", d.Play)
		plays++
	}
	return session, plays
}

func TestBotsFinishGames(t *testing.T) {
	players := []string{"alice", "bob", "carol", "dave"}

	for _, strategy := range Strategies() {
		t.Run(strategy, func(t *testing.T) {
			for seed := int64(1); seed <= 10; seed++ {
				n := 2 + int(seed)%3
				agents := make(map[string]Agent, n)
				for i, id := range players[:n] {
					agent, err := New(strategy, randutil.New(randutil.Child(seed, i)), quietLogger())
					require.NoError(t, err)
					agents[id] = agent
				}

				session, plays := playGame(t, seed, agents, players[:n])
				winner, ok := session.Winner()
				require.True(t, ok)
				assert.GreaterOrEqual(t, session.Tokens()[winner], session.Threshold())
				assert.Positive(t, plays)
			}
		})
	}
}
