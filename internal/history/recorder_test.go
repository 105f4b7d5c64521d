package history

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/loveletter/internal/deck"
	"github.com/lox/loveletter/internal/game"
	"github.com/lox/loveletter/internal/table"
)

// Alice is dealt a guard and draws the countess; bob holds the princess.
var rig = deck.Rig(
	deck.Guard, deck.Priest, deck.Baron, deck.Handmaid,
	deck.Guard, deck.Princess,
	deck.Countess,
)

func newRecorder(t *testing.T) (*Recorder, *quartz.Mock) {
	t.Helper()
	clock := quartz.NewMock(t)
	rec, err := NewRecorder(t.TempDir(), WithClock(clock), WithLogger(log.New(io.Discard)))
	require.NoError(t, err)
	return rec, clock
}

func newTable(t *testing.T, rec *Recorder, threshold int) *table.Table {
	t.Helper()
	tbl, err := table.New("g1", deck.Classic, []string{"alice", "bob"}, rig,
		table.WithLogger(log.New(io.Discard)),
		table.WithListener(rec),
		table.WithSessionOptions(game.WithTokenThreshold(threshold)))
	require.NoError(t, err)
	t.Cleanup(tbl.Close)
	return tbl
}

// guardWins has alice name bob's princess.
var guardWins = game.Play{Player: "alice", CardID: 2, Target: "bob", Guess: deck.Princess}

func TestNewRecorderRequiresDir(t *testing.T) {
	_, err := NewRecorder("")
	require.Error(t, err)
}

func TestRecordsCompletedGame(t *testing.T) {
	rec, clock := newRecorder(t)
	tbl := newTable(t, rec, 1)
	ctx := context.Background()
	start := clock.Now().UTC()

	_, err := tbl.StartRound(ctx)
	require.NoError(t, err)
	assert.NoFileExists(t, rec.Path("g1"), "nothing is written before a round completes")

	clock.Advance(time.Minute).MustWait(ctx)
	out, err := tbl.Submit(ctx, guardWins)
	require.NoError(t, err)
	require.True(t, out.GameOver)

	got, err := Load(rec.Path("g1"))
	require.NoError(t, err)

	assert.Equal(t, "g1", got.GameID)
	assert.Equal(t, deck.DefaultCatalogID, got.Catalog)
	assert.Equal(t, []string{"alice", "bob"}, got.Players)
	assert.True(t, got.StartedAt.Equal(start))
	assert.True(t, got.UpdatedAt.Equal(start.Add(time.Minute)))
	assert.True(t, got.Complete)
	assert.Equal(t, "alice", got.Winner)
	assert.Equal(t, map[string]int{"alice": 1}, got.Tokens)

	require.Len(t, got.Rounds, 1)
	round := got.Rounds[0]
	assert.Equal(t, "g1-r1", round.RoundID)
	assert.Equal(t, 1, round.Number)
	assert.Equal(t, "alice", round.FirstPlayer)
	assert.Len(t, round.FaceUpBurned, 3)
	assert.Len(t, round.Draws, 3)
	assert.True(t, round.Draws[0].Dealt)
	assert.False(t, round.Draws[2].Dealt)

	require.Len(t, round.Plays, 1)
	play := round.Plays[0]
	assert.Equal(t, deck.Guard, play.Card.Rank)
	assert.Equal(t, "bob", play.Target)
	require.NotNil(t, play.Correct)
	assert.True(t, *play.Correct)

	assert.Equal(t, []Elimination{{Player: "bob", Cause: game.CauseGuardGuess, By: "alice"}}, round.Eliminations)
	assert.Equal(t, []deck.Rank{deck.Guard, deck.Princess}, deck.Ranks(round.Discard))
	assert.Equal(t, []string{"alice"}, round.Winners)
	assert.Equal(t, game.EndLastStanding, round.Reason)
	assert.Equal(t, map[string]int{"alice": 1}, round.Tokens)

	ids, err := List(filepath.Dir(rec.Path("g1")))
	require.NoError(t, err)
	assert.Equal(t, []string{"g1"}, ids)
}

func TestFlushesEachRound(t *testing.T) {
	rec, _ := newRecorder(t)
	tbl := newTable(t, rec, 2)
	ctx := context.Background()

	_, err := tbl.StartRound(ctx)
	require.NoError(t, err)
	out, err := tbl.Submit(ctx, guardWins)
	require.NoError(t, err)
	require.False(t, out.GameOver)
	require.NotEmpty(t, out.NextRound)

	got, err := Load(rec.Path("g1"))
	require.NoError(t, err)
	assert.False(t, got.Complete)
	require.Len(t, got.Rounds, 1)
	assert.Equal(t, map[string]int{"alice": 1}, got.Rounds[0].Tokens)

	// The rigged deck deals the same hands and alice leads again.
	out, err = tbl.Submit(ctx, guardWins)
	require.NoError(t, err)
	require.True(t, out.GameOver)

	got, err = Load(rec.Path("g1"))
	require.NoError(t, err)
	assert.True(t, got.Complete)
	require.Len(t, got.Rounds, 2)
	assert.Equal(t, "g1-r2", got.Rounds[1].RoundID)
	assert.Equal(t, map[string]int{"alice": 2}, got.Rounds[1].Tokens)
	assert.Equal(t, map[string]int{"alice": 1}, got.Rounds[0].Tokens, "earlier rounds keep their totals")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
