package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/loveletter/internal/deck"
)

func TestHandDrawLimit(t *testing.T) {
	t.Parallel()

	var h Hand
	require.NoError(t, h.Receive(card(1)))
	require.NoError(t, h.Draw(card(6)))
	assert.Equal(t, 2, h.Len())

	err := h.Draw(card(8))
	require.ErrorIs(t, err, ErrIllegalState)
	assert.True(t, IsFatal(err))
	assert.Equal(t, 2, h.Len())
}

func TestHandHeldAndDrawn(t *testing.T) {
	t.Parallel()

	h := NewHand(card(8))
	_, ok := h.Drawn()
	assert.False(t, ok)

	require.NoError(t, h.Draw(card(14)))
	drawn, ok := h.Drawn()
	require.True(t, ok)
	assert.Equal(t, deck.King, drawn.Rank)

	kept, ok := h.Held()
	require.True(t, ok)
	assert.Equal(t, deck.Baron, kept.Rank)
}

func TestHandDiscard(t *testing.T) {
	t.Parallel()

	t.Run("by rank", func(t *testing.T) {
		h := NewHand(card(8))
		require.NoError(t, h.Draw(card(14)))

		c, err := h.Discard(deck.Baron)
		require.NoError(t, err)
		assert.Equal(t, 8, c.ID)
		assert.Equal(t, []deck.Card{card(14)}, h.Cards())

		// The drawn card becomes the ongoing one.
		kept, ok := h.Held()
		require.True(t, ok)
		assert.Equal(t, 14, kept.ID)
	})

	t.Run("missing rank", func(t *testing.T) {
		h := NewHand(card(8))
		_, err := h.Discard(deck.Princess)
		require.ErrorIs(t, err, ErrIllegalState)
		assert.Equal(t, 1, h.Len())
	})

	t.Run("both match keeps the ongoing card", func(t *testing.T) {
		h := NewHand(card(1))
		require.NoError(t, h.Draw(card(2)))

		c, err := h.Discard(deck.Guard)
		require.NoError(t, err)
		assert.Equal(t, 2, c.ID, "drawn guard is discarded")
		kept, ok := h.Held()
		require.True(t, ok)
		assert.Equal(t, 1, kept.ID)
	})
}

func TestHandReceiveDuringDrawWindow(t *testing.T) {
	t.Parallel()

	var h Hand
	require.NoError(t, h.Draw(card(1)))
	require.ErrorIs(t, h.Receive(card(2)), ErrIllegalState)
}

func TestHandReplaceKeepsDrawnCard(t *testing.T) {
	t.Parallel()

	h := NewHand(card(6))
	require.NoError(t, h.Draw(card(15)))

	old, err := h.Replace(card(16))
	require.NoError(t, err)
	assert.Equal(t, 6, old.ID)

	drawn, ok := h.Drawn()
	require.True(t, ok)
	assert.Equal(t, 15, drawn.ID)
	assert.True(t, h.Contains(deck.Princess))
	assert.False(t, h.Contains(deck.Priest))
}

func TestHandClear(t *testing.T) {
	t.Parallel()

	h := NewHand(card(6))
	require.NoError(t, h.Draw(card(15)))
	assert.Len(t, h.Clear(), 2)
	assert.Zero(t, h.Len())
	_, ok := h.Held()
	assert.False(t, ok)

	_, err := h.Replace(card(1))
	require.ErrorIs(t, err, ErrIllegalState)
}
