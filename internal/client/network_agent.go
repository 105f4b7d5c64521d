package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/loveletter/internal/bot"
	"github.com/lox/loveletter/internal/game"
	"github.com/lox/loveletter/internal/server"
)

// Result is how a remote game ended for the agent.
type Result struct {
	GameID string
	Winner string
	Tokens map[string]int
	Rounds int
}

// Won reports whether player won the game.
func (r Result) Won(player string) bool {
	return r.Winner == player
}

// NetworkAgent plays one seat on a remote server with a bot.Agent.
type NetworkAgent struct {
	client *Client
	agent  bot.Agent
	logger *log.Logger

	mu     sync.Mutex
	last   *game.PrivateState // state of the pending your_turn, nil once answered
	rounds int

	result chan Result
	failed chan error
}

// NewNetworkAgent creates a new network agent
func NewNetworkAgent(client *Client, agent bot.Agent, logger *log.Logger) *NetworkAgent {
	na := &NetworkAgent{
		client: client,
		agent:  agent,
		logger: logger.WithPrefix("network-agent"),
		result: make(chan Result, 1),
		failed: make(chan error, 1),
	}
	na.setupEventHandlers()
	return na
}

func (na *NetworkAgent) setupEventHandlers() {
	na.client.AddEventHandler(server.MessageTypeJoined, na.handleJoined)
	na.client.AddEventHandler(server.MessageTypeYourTurn, na.handleYourTurn)
	na.client.AddEventHandler(server.MessageTypeRejected, na.handleRejected)
	na.client.AddEventHandler(server.MessageTypeEvent, na.handleEvent)
	na.client.AddEventHandler(server.MessageTypeError, na.handleError)
}

// Run joins gameName as name and plays until the game ends, ctx is
// cancelled or the connection drops.
func (na *NetworkAgent) Run(ctx context.Context, gameName, name string) (Result, error) {
	if err := na.client.Join(gameName, name); err != nil {
		return Result{}, err
	}

	select {
	case r := <-na.result:
		return r, nil
	case err := <-na.failed:
		return Result{}, err
	case <-na.client.Done():
		return Result{}, ErrNotConnected
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (na *NetworkAgent) handleJoined(msg *server.Message) {
	var data server.JoinedData
	if err := msg.Decode(&data); err != nil {
		na.logger.Error("Failed to parse joined", "error", err)
		return
	}
	if data.GameID == "" {
		na.logger.Info("Waiting for players", "game", data.Game, "waiting", data.Waiting)
		return
	}
	na.logger.Info("Game started", "game", data.GameID, "players", data.Players)
}

func (na *NetworkAgent) handleYourTurn(msg *server.Message) {
	var data server.YourTurnData
	if err := msg.Decode(&data); err != nil {
		na.logger.Error("Failed to parse your_turn", "error", err)
		return
	}

	na.mu.Lock()
	state := data.State
	na.last = &state
	na.mu.Unlock()

	d, err := na.agent.Decide(data.State)
	if err != nil {
		na.logger.Error("Agent failed to decide", "error", err)
		na.playDefault()
		return
	}
	na.logger.Debug("Playing", "card", d.Play.CardID, "target", d.Play.Target, "guess", d.Play.Guess, "reasoning", d.Reasoning)
	na.send(data.State.RoundID, d.Play)
}

// handleRejected falls back to the default play once for the pending turn.
func (na *NetworkAgent) handleRejected(msg *server.Message) {
	var data server.RejectedData
	if err := msg.Decode(&data); err != nil {
		na.logger.Error("Failed to parse rejected", "error", err)
		return
	}
	na.logger.Warn("Play rejected", "reason", data.Reason, "error", data.Error)
	na.playDefault()
}

func (na *NetworkAgent) playDefault() {
	na.mu.Lock()
	state := na.last
	na.last = nil
	na.mu.Unlock()
	if state == nil {
		return
	}

	play, err := bot.Default(*state)
	if err != nil {
		na.logger.Error("No default play", "error", err)
		return
	}
	na.send(state.RoundID, play)
}

func (na *NetworkAgent) send(roundID string, play game.Play) {
	if err := na.client.Play(roundID, play); err != nil {
		na.logger.Error("Failed to send play", "error", err)
	}
}

func (na *NetworkAgent) handleEvent(msg *server.Message) {
	var data server.EventData
	if err := msg.Decode(&data); err != nil {
		na.logger.Error("Failed to parse event", "error", err)
		return
	}
	e, err := data.DecodeEvent()
	if err != nil {
		na.logger.Warn("Skipping event", "error", err)
		return
	}

	switch e := e.(type) {
	case game.CardPlayedEvent:
		if e.Player == na.client.GetPlayerName() {
			na.mu.Lock()
			na.last = nil
			na.mu.Unlock()
		}
	case game.RoundEndedEvent:
		na.mu.Lock()
		na.rounds++
		na.mu.Unlock()
		na.logger.Info("Round ended", "round", e.Number, "winners", e.Winners, "reason", e.Reason)
	case game.GameEndedEvent:
		na.mu.Lock()
		rounds := na.rounds
		na.mu.Unlock()
		na.logger.Info("Game ended", "winner", e.Winner, "tokens", e.Tokens)
		select {
		case na.result <- Result{GameID: data.GameID, Winner: e.Winner, Tokens: e.Tokens, Rounds: rounds}:
		default:
		}
	}
}

func (na *NetworkAgent) handleError(msg *server.Message) {
	var data server.ErrorData
	if err := msg.Decode(&data); err != nil {
		na.logger.Error("Failed to parse error message", "error", err)
		return
	}

	na.logger.Error("Server error", "code", data.Code, "message", data.Message)
	if na.client.GameID() == "" {
		select {
		case na.failed <- fmt.Errorf("server error [%s]: %s", data.Code, data.Message):
		default:
		}
	}
}
