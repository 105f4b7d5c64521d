package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/loveletter/internal/bot"
	"github.com/lox/loveletter/internal/game"
	"github.com/lox/loveletter/internal/table"
)

const testTimeout = 1000 // ms

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func testConfig(seats, threshold int, bots ...string) *ServerConfig {
	cfg := DefaultServerConfig()
	cfg.Server.Seed = 7
	cfg.Server.TurnTimeoutMs = testTimeout
	cfg.Games = []GameConfig{{
		Name:           "duel",
		Catalog:        "classic",
		Bots:           bots,
		Seats:          seats,
		TokenThreshold: threshold,
	}}
	return cfg
}

type testServer struct {
	*Server
	http  *httptest.Server
	wsURL string
}

func startServer(t *testing.T, cfg *ServerConfig, clock quartz.Clock) *testServer {
	t.Helper()
	srv, err := NewServer(cfg, quietLogger(), WithClock(clock))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Stop()
		ts.Close()
	})
	return &testServer{Server: srv, http: ts, wsURL: "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"}
}

type testClient struct {
	t      *testing.T
	conn   *websocket.Conn
	events []EventData
}

func dial(t *testing.T, url string) *testClient {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &testClient{t: t, conn: conn}
}

func (c *testClient) send(mt MessageType, data any) {
	c.t.Helper()
	msg, err := NewMessage(mt, data)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteJSON(msg))
}

func (c *testClient) next() *Message {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(c.t, c.conn.ReadJSON(&msg))
	if msg.Type == MessageTypeEvent {
		var data EventData
		require.NoError(c.t, msg.Decode(&data))
		c.events = append(c.events, data)
	}
	return &msg
}

// waitFor reads until a message of type mt arrives, recording events on the way.
func (c *testClient) waitFor(mt MessageType) *Message {
	c.t.Helper()
	for {
		if msg := c.next(); msg.Type == mt {
			return msg
		}
	}
}

// waitForEvent reads until match accepts an event.
func (c *testClient) waitForEvent(match func(game.Event) bool) game.Event {
	c.t.Helper()
	for {
		msg := c.next()
		if msg.Type != MessageTypeEvent {
			continue
		}
		e, err := c.events[len(c.events)-1].DecodeEvent()
		require.NoError(c.t, err)
		if match(e) {
			return e
		}
	}
}

func (c *testClient) join(gameName, name string) JoinedData {
	c.t.Helper()
	c.send(MessageTypeJoin, JoinData{Game: gameName, Name: name})
	var joined JoinedData
	require.NoError(c.t, c.waitFor(MessageTypeJoined).Decode(&joined))
	return joined
}

func TestJoinErrors(t *testing.T) {
	ts := startServer(t, testConfig(2, 1, bot.StrategyCautious), quartz.NewMock(t))
	c := dial(t, ts.wsURL)

	c.send(MessageTypeJoin, JoinData{Game: "nope", Name: "alice"})
	var data ErrorData
	require.NoError(t, c.waitFor(MessageTypeError).Decode(&data))
	assert.Equal(t, "unknown_game", data.Code)

	c.send(MessageTypeJoin, JoinData{Game: "duel"})
	require.NoError(t, c.waitFor(MessageTypeError).Decode(&data))
	assert.Equal(t, "invalid_join", data.Code)

	c.send(MessageTypeJoin, JoinData{Game: "duel", Name: "cautious-bot1"})
	require.NoError(t, c.waitFor(MessageTypeError).Decode(&data))
	assert.Equal(t, "name_taken", data.Code)

	c.send(MessageTypePlay, PlayData{CardID: 1})
	require.NoError(t, c.waitFor(MessageTypeError).Decode(&data))
	assert.Equal(t, "not_playing", data.Code)

	c.send("shout", nil)
	require.NoError(t, c.waitFor(MessageTypeError).Decode(&data))
	assert.Equal(t, "unknown_message_type", data.Code)
}

func TestHumanAgainstBot(t *testing.T) {
	ts := startServer(t, testConfig(2, 1, bot.StrategyCautious), quartz.NewMock(t))
	c := dial(t, ts.wsURL)

	joined := c.join("duel", "alice")
	assert.Equal(t, 0, joined.Waiting)
	assert.Empty(t, joined.GameID)

	// The game starts as soon as the only human seat is taken.
	var started JoinedData
	require.NoError(t, c.waitFor(MessageTypeJoined).Decode(&started))
	require.NotEmpty(t, started.GameID)
	assert.Equal(t, []string{"alice", "cautious-bot1"}, started.Players)

	for {
		msg := c.next()
		if msg.Type == MessageTypeYourTurn {
			var turn YourTurnData
			require.NoError(t, msg.Decode(&turn))
			assert.Equal(t, testTimeout, turn.TimeoutMs)
			require.NotEmpty(t, turn.State.Plays)
			play := turn.State.Plays[0]
			c.send(MessageTypePlay, PlayData{RoundID: turn.State.RoundID, CardID: play.CardID, Target: play.Target, Guess: play.Guess})
			continue
		}
		require.NotEqual(t, MessageTypeRejected, msg.Type)
		require.NotEqual(t, MessageTypeError, msg.Type)
		if msg.Type == MessageTypeEvent && c.events[len(c.events)-1].Type == game.EventTypeGameEnded {
			break
		}
	}

	// Private events only ever reach their audience.
	for _, data := range c.events {
		e, err := data.DecodeEvent()
		require.NoError(t, err)
		assert.True(t, game.VisibleTo(e, "alice"), "alice saw %s", e.EventType())
	}

	require.Eventually(t, func() bool { return len(ts.GameService().Games()) == 0 },
		5*time.Second, 10*time.Millisecond, "finished games are removed")
}

func TestTurnTimeoutPlaysDefault(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clock := quartz.NewMock(t)
	ts := startServer(t, testConfig(2, 3, bot.StrategyRandom), clock)
	c := dial(t, ts.wsURL)
	c.join("duel", "alice")

	var turn YourTurnData
	require.NoError(t, c.waitFor(MessageTypeYourTurn).Decode(&turn))

	clock.Advance(testTimeout * time.Millisecond).MustWait(ctx)

	played := c.waitForEvent(func(e game.Event) bool {
		p, ok := e.(game.CardPlayedEvent)
		return ok && p.Player == "alice"
	}).(game.CardPlayedEvent)
	assert.Equal(t, turn.State.Turn, played.Turn)

	want, err := bot.Default(turn.State)
	require.NoError(t, err)
	assert.Equal(t, want.CardID, played.Card.ID)
}

func TestRejectedPlayAndState(t *testing.T) {
	ts := startServer(t, testConfig(2, 3, bot.StrategyCautious), quartz.NewMock(t))
	c := dial(t, ts.wsURL)
	c.join("duel", "alice")

	var turn YourTurnData
	require.NoError(t, c.waitFor(MessageTypeYourTurn).Decode(&turn))

	c.send(MessageTypePlay, PlayData{CardID: 99})
	var rejected RejectedData
	require.NoError(t, c.waitFor(MessageTypeRejected).Decode(&rejected))
	assert.NotEmpty(t, rejected.Reason)
	assert.Equal(t, 99, rejected.Play.CardID)

	c.send(MessageTypePlay, PlayData{RoundID: "old-round", CardID: turn.State.Hand[0].ID})
	require.NoError(t, c.waitFor(MessageTypeRejected).Decode(&rejected))
	assert.Contains(t, rejected.Error, table.ErrStaleRound.Error())

	c.send(MessageTypeState, nil)
	var state StateData
	require.NoError(t, c.waitFor(MessageTypeState).Decode(&state))
	assert.Equal(t, "alice", state.State.Player)
	assert.Equal(t, turn.State.Hand, state.State.Hand, "rejected plays change nothing")
	assert.Equal(t, "alice", state.State.Current)
}

func TestStartRoundEarly(t *testing.T) {
	ts := startServer(t, testConfig(3, 3, bot.StrategyRandom), quartz.NewMock(t))
	c := dial(t, ts.wsURL)

	joined := c.join("duel", "alice")
	assert.Equal(t, 1, joined.Waiting)
	assert.Empty(t, joined.GameID)

	c.send(MessageTypeState, nil)
	var status JoinedData
	require.NoError(t, c.waitFor(MessageTypeJoined).Decode(&status))
	assert.Equal(t, 1, status.Waiting)

	c.send(MessageTypeStartRound, nil)
	var started JoinedData
	require.NoError(t, c.waitFor(MessageTypeJoined).Decode(&started))
	require.NotEmpty(t, started.GameID)
	assert.Equal(t, []string{"alice", "random-bot1"}, started.Players)

	c.send(MessageTypeStartRound, nil)
	var data ErrorData
	require.NoError(t, c.waitFor(MessageTypeError).Decode(&data))
	assert.Equal(t, "round_in_progress", data.Code)
}

func TestDisconnectedSeatPlaysDefaults(t *testing.T) {
	ts := startServer(t, testConfig(2, 2, bot.StrategyCautious), quartz.NewMock(t))
	c := dial(t, ts.wsURL)
	c.join("duel", "alice")
	c.waitFor(MessageTypeYourTurn)

	require.NoError(t, c.conn.Close())

	require.Eventually(t, func() bool { return len(ts.GameService().Games()) == 0 },
		5*time.Second, 10*time.Millisecond, "the game plays out without alice")
}

func TestHealthAndGames(t *testing.T) {
	ts := startServer(t, testConfig(2, 3, bot.StrategyCautious), quartz.NewMock(t))

	resp, err := http.Get(ts.http.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	c := dial(t, ts.wsURL)
	started := c.join("duel", "alice")
	if started.GameID == "" {
		require.NoError(t, c.waitFor(MessageTypeJoined).Decode(&started))
	}

	resp, err = http.Get(ts.http.URL + "/games")
	require.NoError(t, err)
	defer resp.Body.Close()
	var games []table.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&games))
	require.Len(t, games, 1)
	assert.Equal(t, started.GameID, games[0].ID)
	assert.Equal(t, []string{"alice", "cautious-bot1"}, games[0].Players)
	assert.Equal(t, []string{"alice"}, ts.ConnectedPlayers())
}

func TestPlayIsBoundToOwnGame(t *testing.T) {
	cfg := testConfig(2, 3, bot.StrategyCautious)
	cfg.Games = []GameConfig{
		{Name: "one", Catalog: "classic", Bots: []string{bot.StrategyCautious}, Seats: 2, TokenThreshold: 3},
		{Name: "two", Catalog: "classic", Bots: []string{bot.StrategyCautious}, Seats: 2, TokenThreshold: 3},
	}
	ts := startServer(t, cfg, quartz.NewMock(t))

	c1 := dial(t, ts.wsURL)
	c1.join("one", "alice")
	c2 := dial(t, ts.wsURL)
	c2.join("two", "alice")

	var mine, theirs YourTurnData
	require.NoError(t, c1.waitFor(MessageTypeYourTurn).Decode(&mine))
	require.NoError(t, c2.waitFor(MessageTypeYourTurn).Decode(&theirs))
	require.NotEqual(t, mine.GameID, theirs.GameID)
	require.NotEmpty(t, theirs.State.Plays)

	// alice in game one names game two's round and a play legal there.
	p := theirs.State.Plays[0]
	c1.send(MessageTypePlay, PlayData{RoundID: theirs.State.RoundID, CardID: p.CardID, Target: p.Target, Guess: p.Guess})
	var rejected RejectedData
	require.NoError(t, c1.waitFor(MessageTypeRejected).Decode(&rejected))
	assert.Contains(t, rejected.Error, table.ErrStaleRound.Error())

	c2.send(MessageTypeState, nil)
	var state StateData
	require.NoError(t, c2.waitFor(MessageTypeState).Decode(&state))
	assert.Equal(t, theirs.State.Hand, state.State.Hand, "game two is untouched")
	assert.Equal(t, "alice", state.State.Current)
	assert.Equal(t, theirs.State.Turn, state.State.Turn)
}

func TestStartGameRequeuesWhenBotsFail(t *testing.T) {
	cfg := testConfig(2, 3, "bogus")
	svc, err := NewGameService(cfg, quietLogger(), quartz.NewMock(t))
	require.NoError(t, err)

	c := NewConnection(nil, quietLogger(), svc)
	err = svc.Join(c, JoinData{Game: "duel", Name: "alice"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")

	assert.Empty(t, svc.Manager().Games())
	assert.Empty(t, c.GetGame())
	assert.Equal(t, "duel", c.GetLobby())
	assert.Equal(t, []string{"alice"}, svc.lobbies["duel"].names())
}
