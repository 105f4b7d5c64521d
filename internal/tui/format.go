package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lox/loveletter/internal/deck"
	"github.com/lox/loveletter/internal/game"
)

// CardName returns a card's display name and strength, e.g. "Baron (3)".
func CardName(c deck.Card) string {
	name := c.Appearance
	if name == "" {
		name = c.Rank.Title()
	}
	return fmt.Sprintf("%s (%d)", name, c.Strength())
}

// formatCards renders cards with colour by strength.
func formatCards(cards []deck.Card) string {
	if len(cards) == 0 {
		return ""
	}
	formatted := make([]string, len(cards))
	for i, c := range cards {
		formatted[i] = cardStyle(c.Rank).Render(CardName(c))
	}
	return "[" + strings.Join(formatted, " ") + "]"
}

func cardList(cards []deck.Card) string {
	names := make([]string, len(cards))
	for i, c := range cards {
		names[i] = CardName(c)
	}
	return strings.Join(names, ", ")
}

// Describe renders an event as log lines from viewer's seat. Events the
// viewer may not see render as nothing.
func Describe(e game.Event, viewer string) []string {
	if !game.VisibleTo(e, viewer) {
		return nil
	}
	who := func(id string) string {
		if id == viewer {
			return id + " (you)"
		}
		return id
	}

	switch e := e.(type) {
	case game.RoundStartedEvent:
		lines := []string{"", fmt.Sprintf("*** ROUND %d *** %s plays first", e.Number, who(e.FirstPlayer))}
		if len(e.FaceUpBurned) > 0 {
			lines = append(lines, "Set aside face up: "+cardList(e.FaceUpBurned))
		}
		return lines

	case game.CardDrawnEvent:
		switch {
		case e.Dealt:
			return []string{fmt.Sprintf("%s: dealt %s", who(e.Player), CardName(e.Card))}
		case e.Prince:
			return []string{fmt.Sprintf("%s: draws %s to replace the discard", who(e.Player), CardName(e.Card))}
		default:
			return []string{fmt.Sprintf("%s: draws %s", who(e.Player), CardName(e.Card))}
		}

	case game.TurnStartedEvent:
		return []string{fmt.Sprintf("-- turn %d: %s (%d left in deck)", e.Turn, who(e.Player), e.DeckRemaining)}

	case game.CardPlayedEvent:
		line := fmt.Sprintf("%s: plays %s", who(e.Player), CardName(e.Card))
		if e.Target != "" {
			line += " on " + who(e.Target)
		}
		if e.Guess != deck.NoRank {
			line += ", guessing " + e.Guess.Title()
		}
		if e.NoEffect {
			line += " with no effect"
		}
		return []string{line}

	case game.GuardGuessedEvent:
		if e.Correct {
			return []string{fmt.Sprintf("%s: correct, %s held the %s", who(e.Player), who(e.Target), e.Guess.Title())}
		}
		return []string{fmt.Sprintf("%s: wrong guess", who(e.Player))}

	case game.PriestRevealedEvent:
		return []string{fmt.Sprintf("%s: sees %s holding %s", who(e.Requester), who(e.Target), CardName(e.Card))}

	case game.BaronComparedEvent:
		line := fmt.Sprintf("%s: compares %s with %s's %s", who(e.Player), CardName(e.PlayerCard), who(e.Target), CardName(e.TargetCard))
		if e.Loser == "" {
			line += ", a tie"
		}
		return []string{line}

	case game.PlayerProtectedEvent:
		return []string{fmt.Sprintf("%s: protected until their next turn", who(e.Player))}

	case game.CardDiscardedEvent:
		return []string{fmt.Sprintf("%s: discards %s", who(e.Player), CardName(e.Card))}

	case game.PlayerEliminatedEvent:
		line := fmt.Sprintf("%s: eliminated (%s)", who(e.Player), strings.ReplaceAll(string(e.Cause), "_", " "))
		if e.Card != nil {
			line += ", revealing " + CardName(*e.Card)
		}
		return []string{line}

	case game.HandsSwappedEvent:
		return []string{fmt.Sprintf("%s: swaps hands with %s", who(e.Player), who(e.Target))}

	case game.RoundEndedEvent:
		winners := make([]string, len(e.Winners))
		for i, w := range e.Winners {
			winners[i] = who(w)
		}
		lines := []string{fmt.Sprintf("*** Round %d won by %s (%s)", e.Number, strings.Join(winners, " and "), strings.ReplaceAll(string(e.Reason), "_", " "))}
		players := make([]string, 0, len(e.FinalHands))
		for id := range e.FinalHands {
			players = append(players, id)
		}
		sort.Strings(players)
		for _, id := range players {
			lines = append(lines, fmt.Sprintf("   %s held %s", who(id), CardName(e.FinalHands[id])))
		}
		return lines

	case game.TokenAwardedEvent:
		return []string{fmt.Sprintf("%s: gains a token (%d)", who(e.Player), e.Tokens)}

	case game.GameEndedEvent:
		return []string{"", fmt.Sprintf("*** %s WINS THE GAME ***", strings.ToUpper(who(e.Winner)))}
	}
	return nil
}

// playHint is one line of the legal play list. First and Last are 1-based
// indexes into the player's Plays; Guard guesses against one target share a
// line.
type playHint struct {
	First, Last int
	Text        string
}

func hints(state game.PrivateState) []playHint {
	var out []playHint
	for i, p := range state.Plays {
		card := cardByID(state.Hand, p.CardID)
		if n := len(out); n > 0 && p.Guess != deck.NoRank {
			prev := state.Plays[out[n-1].First-1]
			if prev.CardID == p.CardID && prev.Target == p.Target && prev.Guess != deck.NoRank {
				out[n-1].Last = i + 1
				out[n-1].Text = fmt.Sprintf("%s on %s, guess %s..%s", CardName(card), p.Target, prev.Guess, p.Guess)
				continue
			}
		}

		text := CardName(card)
		if p.Target != "" {
			text += " on " + p.Target
		}
		if p.Guess != deck.NoRank {
			text += ", guess " + p.Guess.String()
		}
		out = append(out, playHint{First: i + 1, Last: i + 1, Text: text})
	}
	return out
}

func (h playHint) label() string {
	if h.First == h.Last {
		return fmt.Sprintf("[%d]", h.First)
	}
	return fmt.Sprintf("[%d-%d]", h.First, h.Last)
}

func cardByID(cards []deck.Card, id int) deck.Card {
	for _, c := range cards {
		if c.ID == id {
			return c
		}
	}
	return deck.Card{ID: id}
}
