package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lox/loveletter/internal/deck"
	"github.com/lox/loveletter/internal/history"
	"github.com/lox/loveletter/internal/tui"
)

// HistoryCmd lists recorded games or prints one in full.
type HistoryCmd struct {
	Dir    string `arg:"" type:"existingdir" help:"History directory written by the server"`
	GameID string `arg:"" optional:"" help:"Game to print (lists all games when omitted)"`
}

func (c *HistoryCmd) Run() error {
	if c.GameID == "" {
		return c.list()
	}

	rec, err := history.Load(filepath.Join(c.Dir, c.GameID+".json"))
	if err != nil {
		return err
	}
	fmt.Printf("Game %s (%s): %s\n", rec.GameID, rec.Catalog, strings.Join(rec.Players, ", "))
	for _, round := range rec.Rounds {
		fmt.Printf("\nRound %d, %s plays first\n", round.Number, round.FirstPlayer)
		for _, p := range round.Plays {
			line := fmt.Sprintf("  %3d %s plays %s", p.Turn, p.Player, tui.CardName(p.Card))
			if p.Target != "" {
				line += " on " + p.Target
			}
			if p.Guess != deck.NoRank {
				line += ", guessing " + p.Guess.Title()
			}
			if p.NoEffect {
				line += " (no effect)"
			}
			fmt.Println(line)
		}
		for _, e := range round.Eliminations {
			fmt.Printf("  %s eliminated (%s)\n", e.Player, e.Cause)
		}
		fmt.Printf("  won by %s (%s)\n", strings.Join(round.Winners, " and "), round.Reason)
	}
	fmt.Printf("\nTokens: %s\n", formatTokens(rec.Tokens))
	if rec.Complete {
		fmt.Printf("Winner: %s\n", rec.Winner)
	}
	return nil
}

func (c *HistoryCmd) list() error {
	ids, err := history.List(c.Dir)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("No games recorded.")
		return nil
	}
	for _, id := range ids {
		rec, err := history.Load(filepath.Join(c.Dir, id+".json"))
		if err != nil {
			return err
		}
		status := "in progress"
		if rec.Complete {
			status = "won by " + rec.Winner
		}
		fmt.Printf("%s  %-8s %d rounds, %s  [%s]\n", id, rec.Catalog, len(rec.Rounds), status, formatTokens(rec.Tokens))
	}
	return nil
}

func formatTokens(tokens map[string]int) string {
	players := make([]string, 0, len(tokens))
	for p := range tokens {
		players = append(players, p)
	}
	sort.Strings(players)
	parts := make([]string, len(players))
	for i, p := range players {
		parts[i] = fmt.Sprintf("%s=%d", p, tokens[p])
	}
	return strings.Join(parts, " ")
}
