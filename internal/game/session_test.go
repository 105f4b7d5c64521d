package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/loveletter/internal/deck"
)

func TestDefaultTokenThreshold(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 7, DefaultTokenThreshold(2))
	assert.Equal(t, 5, DefaultTokenThreshold(3))
	assert.Equal(t, 4, DefaultTokenThreshold(4))
}

func TestNewSessionValidation(t *testing.T) {
	t.Parallel()

	_, err := NewSession(deck.Classic, []string{"solo"}, deck.NoShuffle)
	require.ErrorIs(t, err, ErrInsufficientPlayers)

	_, err = NewSession(deck.Classic, []string{"a", "b"}, deck.NoShuffle, WithTokenThreshold(0))
	require.Error(t, err)

	s, err := NewSession(deck.Classic, []string{"a", "b", "c"}, deck.NoShuffle, WithSessionID("g1"))
	require.NoError(t, err)
	assert.Equal(t, 5, s.Threshold())
	assert.Nil(t, s.Round())

	_, err = s.Submit(Play{Player: "a", CardID: 1})
	require.ErrorIs(t, err, ErrIllegalPlay)

	_, err = s.PublicState()
	require.ErrorIs(t, err, ErrIllegalPlay)
}

func TestSessionRoundsAndTokens(t *testing.T) {
	t.Parallel()

	// Every round is rigged the same way: the first player is dealt a
	// guard and draws the countess, the other holds the princess.
	top := []deck.Rank{
		deck.Guard, deck.Priest, deck.Baron, deck.Handmaid,
		deck.Guard, deck.Princess,
		deck.Countess,
	}
	s, err := NewSession(deck.Classic, []string{"alice", "bob"}, deck.Rig(top...),
		WithSessionID("g1"), WithTokenThreshold(2))
	require.NoError(t, err)

	events, err := s.StartRound()
	require.NoError(t, err)
	assert.Equal(t, EventTypeRoundStarted, events[0].EventType())
	assert.Equal(t, "g1-r1", s.Round().ID())

	_, err = s.StartRound()
	require.ErrorIs(t, err, ErrIllegalPlay, "round already in progress")

	// Round 1: alice misses, bob guesses her countess.
	_, err = s.Submit(Play{Player: "alice", CardID: 2, Target: "bob", Guess: deck.King})
	require.NoError(t, err)
	out, err := s.Submit(Play{Player: "bob", CardID: 3, Target: "alice", Guess: deck.Countess})
	require.NoError(t, err)

	require.True(t, out.RoundOver)
	assert.False(t, out.GameOver)
	assert.Equal(t, "g1-r2", out.NextRound)
	awarded := eventsOf[TokenAwardedEvent](out.Events)
	require.Len(t, awarded, 1)
	assert.Equal(t, TokenAwardedEvent{Player: "bob", Tokens: 1}, awarded[0])
	assert.Len(t, eventsOf[RoundStartedEvent](out.Events), 1, "next round is dealt")

	// Round 2 is led by the previous winner.
	r := s.Round()
	assert.Equal(t, 2, r.Number())
	assert.Equal(t, "bob", r.Current())
	assert.Equal(t, deck.Princess, held(t, r, "alice").Rank)

	// bob guesses alice's princess and reaches the threshold.
	out, err = s.Submit(Play{Player: "bob", CardID: 2, Target: "alice", Guess: deck.Princess})
	require.NoError(t, err)
	require.True(t, out.GameOver)
	assert.Equal(t, "bob", out.Winner)
	assert.Empty(t, out.NextRound)

	ended := eventsOf[GameEndedEvent](out.Events)
	require.Len(t, ended, 1)
	assert.Equal(t, map[string]int{"alice": 0, "bob": 2}, ended[0].Tokens)

	winner, over := s.Winner()
	assert.True(t, over)
	assert.Equal(t, "bob", winner)
	assert.Len(t, s.Results(), 2)

	_, err = s.StartRound()
	require.ErrorIs(t, err, ErrIllegalPlay)
	_, err = s.Submit(Play{Player: "bob", CardID: 15})
	require.ErrorIs(t, err, ErrIllegalPlay)
}

func TestSessionExhaustionAwardsOneToken(t *testing.T) {
	t.Parallel()

	s, err := NewSession(deck.Classic, trio, deck.Rig(deck.Guard, deck.Baron, deck.Countess, deck.Prince, deck.Handmaid))
	require.NoError(t, err)
	_, err = s.StartRound()
	require.NoError(t, err)
	exhaustDeck(s.Round())

	out, err := s.Submit(Play{Player: "alice", CardID: holding(t, s.Round(), "alice", deck.Handmaid).ID})
	require.NoError(t, err)
	require.True(t, out.RoundOver)
	assert.Equal(t, []string{"bob"}, out.Result.Winners)
	assert.Equal(t, map[string]int{"alice": 0, "bob": 1, "carol": 0}, s.Tokens())
	assert.Equal(t, "bob", s.Round().Current())
}

func TestSessionThresholdTies(t *testing.T) {
	t.Parallel()

	newSession := func(t *testing.T) *Session {
		s, err := NewSession(deck.Classic, trio, deck.NoShuffle, WithTokenThreshold(2))
		require.NoError(t, err)
		return s
	}
	set := func(s *Session, tokens map[string]int) {
		for id, n := range tokens {
			p, _ := s.players.Get(id)
			p.Tokens = n
		}
	}

	t.Run("shared win at threshold plays on", func(t *testing.T) {
		s := newSession(t)
		set(s, map[string]int{"alice": 1, "bob": 1})

		events, err := s.finishRound(RoundResult{Winners: []string{"alice", "bob"}})
		require.NoError(t, err)
		assert.Len(t, eventsOf[TokenAwardedEvent](events), 2)
		assert.Empty(t, eventsOf[GameEndedEvent](events))
		assert.False(t, s.Over())

		// Sudden death: the next round's winner pulls ahead.
		events, err = s.finishRound(RoundResult{Winners: []string{"bob"}})
		require.NoError(t, err)
		require.True(t, s.Over())
		winner, _ := s.Winner()
		assert.Equal(t, "bob", winner)
		assert.Len(t, eventsOf[GameEndedEvent](events), 1)
	})

	t.Run("highest total wins", func(t *testing.T) {
		s := newSession(t)
		set(s, map[string]int{"alice": 2, "carol": 1})

		_, err := s.finishRound(RoundResult{Winners: []string{"alice", "carol"}})
		require.NoError(t, err)
		require.True(t, s.Over())
		winner, _ := s.Winner()
		assert.Equal(t, "alice", winner)
	})

	t.Run("below threshold", func(t *testing.T) {
		s := newSession(t)
		_, err := s.finishRound(RoundResult{Winners: []string{"carol"}})
		require.NoError(t, err)
		assert.False(t, s.Over())
	})
}

func TestSessionStateViews(t *testing.T) {
	t.Parallel()

	s, err := NewSession(deck.Classic, trio, deck.Rig(deck.Guard, deck.Priest, deck.King, deck.Baron, deck.Guard), WithSessionID("g7"))
	require.NoError(t, err)
	_, err = s.StartRound()
	require.NoError(t, err)

	_, err = s.Submit(Play{Player: "alice", CardID: holding(t, s.Round(), "alice", deck.Priest).ID, Target: "bob"})
	require.NoError(t, err)

	pub, err := s.PublicState()
	require.NoError(t, err)
	assert.Equal(t, "g7", pub.GameID)
	assert.Equal(t, 5, pub.Threshold)
	assert.Equal(t, "bob", pub.Current)
	assert.Equal(t, []deck.Rank{deck.Priest}, deck.Ranks(pub.Discard))
	assert.Equal(t, deck.Classic.Quantities, pub.Composition)

	bob, ok := pub.Seat("bob")
	require.True(t, ok)
	assert.Equal(t, 2, bob.HandSize)
	alice, ok := pub.Seat("alice")
	require.True(t, ok)
	assert.Equal(t, 1, alice.HandSize)
	assert.Equal(t, []deck.Rank{deck.Priest}, deck.Ranks(alice.Discards))

	priv, err := s.PrivateState("alice")
	require.NoError(t, err)
	assert.Equal(t, []deck.Rank{deck.Guard}, deck.Ranks(priv.Hand))
	require.Len(t, priv.Knowledge, 1)
	assert.Equal(t, deck.King, priv.Knowledge[0].Card.Rank)
	assert.Empty(t, priv.Plays, "not alice's turn")

	priv, err = s.PrivateState("bob")
	require.NoError(t, err)
	assert.Len(t, priv.Hand, 2)
	require.NotNil(t, priv.Drawn)
	assert.NotEmpty(t, priv.Plays)
	assert.Empty(t, priv.Knowledge)

	_, err = s.PrivateState("mallory")
	require.ErrorIs(t, err, ErrUnknownPlayer)
}
