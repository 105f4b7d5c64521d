package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lox/loveletter/internal/deck"
	"github.com/lox/loveletter/internal/game"
)

type commandKind int

const (
	commandNone commandKind = iota
	commandPlay
	commandHelp
	commandQuit
)

type command struct {
	kind commandKind
	play game.Play
}

const helpText = "Type a number from the list, or: play <card> [target] [guess]. 'help' shows this, 'quit' exits."

// parseCommand turns a line of input into a command for the player whose
// view is state. Cards may be named by rank ("guard"), strength ("1") or
// catalog name.
func parseCommand(input string, state game.PrivateState) (command, error) {
	fields := strings.Fields(strings.ToLower(input))
	if len(fields) == 0 {
		return command{kind: commandNone}, nil
	}

	switch fields[0] {
	case "q", "quit", "exit":
		return command{kind: commandQuit}, nil
	case "h", "help", "?":
		return command{kind: commandHelp}, nil
	case "p", "play":
		fields = fields[1:]
		if len(fields) == 0 {
			return command{}, fmt.Errorf("play what? %s", helpText)
		}
	default:
		if n, err := strconv.Atoi(fields[0]); err == nil && len(fields) == 1 {
			if n < 1 || n > len(state.Plays) {
				return command{}, fmt.Errorf("no play %d, choose 1-%d", n, len(state.Plays))
			}
			return command{kind: commandPlay, play: state.Plays[n-1]}, nil
		}
	}

	card, ok := findCard(state.Hand, fields[0])
	if !ok {
		return command{}, fmt.Errorf("you do not hold %q", fields[0])
	}
	play := game.Play{Player: state.Player, CardID: card.ID}
	if len(fields) > 1 {
		play.Target = fields[1]
		for _, p := range state.Players {
			if strings.EqualFold(p.ID, fields[1]) {
				play.Target = p.ID
			}
		}
	}
	if len(fields) > 2 {
		guess, err := deck.ParseRank(fields[2])
		if err != nil {
			return command{}, err
		}
		play.Guess = guess
	}
	if len(fields) > 3 {
		return command{}, fmt.Errorf("too many arguments: %s", helpText)
	}
	return command{kind: commandPlay, play: play}, nil
}

func findCard(hand []deck.Card, token string) (deck.Card, bool) {
	if rank, err := deck.ParseRank(token); err == nil && rank.Valid() {
		for _, c := range hand {
			if c.Rank == rank {
				return c, true
			}
		}
	}
	for _, c := range hand {
		if strings.EqualFold(c.Appearance, token) {
			return c, true
		}
	}
	return deck.Card{}, false
}
