package game

import "github.com/lox/loveletter/internal/deck"

// validate checks play against the current state without changing anything.
// Checks run in order: turn, card ownership, the Countess rule, targeting,
// then the guess.
func (r *Round) validate(play Play) (*resolution, error) {
	if r.phase == PhaseRoundOver {
		return nil, illegalPlay("round is over")
	}
	if r.phase != PhaseAwaitingPlay || r.current == nil || r.turn == nil {
		return nil, illegalPlay("round is not awaiting a play")
	}

	actor, ok := r.players.Get(play.Player)
	if !ok {
		return nil, illegalPlay("unknown player %q", play.Player)
	}
	if actor != r.current {
		return nil, illegalPlay("it is %s's turn, not %s's", r.current.ID, actor.ID)
	}

	card, ok := actor.Hand.Card(play.CardID)
	if !ok {
		return nil, illegalPlay("card %d is not in %s's hand", play.CardID, actor.ID)
	}
	rule, ok := effectFor(card.Rank)
	if !ok {
		return nil, illegalState("card %s has no effect rule", card)
	}
	if violatesCountess(&actor.Hand, card.Rank) {
		return nil, illegalPlay("must play countess while holding the %s", card.Rank)
	}

	res := &resolution{actor: actor, card: card}

	target, err := r.validateTarget(actor, card.Rank, rule.targeting, play.Target)
	if err != nil {
		return nil, err
	}
	res.target = target

	if play.Guess != deck.NoRank {
		if !rule.guess {
			return nil, illegalPlay("only guard takes a guess")
		}
		if !play.Guess.Valid() {
			return nil, illegalPlay("invalid guess %d", play.Guess)
		}
		if play.Guess == deck.Guard {
			return nil, illegalPlay("cannot guess guard")
		}
		res.guess = play.Guess
	} else if rule.guess && target != nil {
		return nil, illegalPlay("%s requires a guess", card.Rank)
	}

	return res, nil
}

// validateTarget returns the chosen target, or nil for plays without one.
func (r *Round) validateTarget(actor *Player, rank deck.Rank, t targeting, id string) (*Player, error) {
	if t == targetIgnored {
		return nil, nil
	}
	if t == targetNone {
		if id != "" {
			return nil, invalidTarget("%s does not take a target", rank)
		}
		return nil, nil
	}

	if id == "" {
		if t == targetOther && len(r.targetsFor(actor, t)) == 0 {
			// Every opponent is protected: the card is played for no effect.
			return nil, nil
		}
		return nil, invalidTarget("%s requires a target", rank)
	}

	target, ok := r.players.Get(id)
	if !ok {
		return nil, invalidTarget("unknown player %q", id)
	}
	if target.Eliminated {
		return nil, invalidTarget("%s is eliminated", target.ID)
	}
	if target == actor {
		if t != targetAny {
			return nil, invalidTarget("%s cannot target yourself", rank)
		}
		return target, nil
	}
	if target.Protected {
		return nil, invalidTarget("%s is protected", target.ID)
	}
	return target, nil
}

// targetsFor lists the players actor may legally target, in seat order.
func (r *Round) targetsFor(actor *Player, t targeting) []*Player {
	var out []*Player
	for _, p := range r.players.Players() {
		switch {
		case p.Eliminated:
		case p == actor:
			if t == targetAny {
				out = append(out, p)
			}
		case !p.Protected:
			out = append(out, p)
		}
	}
	return out
}

// LegalPlays enumerates every play player could make now. It is empty
// unless player is the one awaiting play. Each rank is offered once even if
// both held cards share it.
func (r *Round) LegalPlays(player string) []Play {
	if r.phase != PhaseAwaitingPlay || r.current == nil || r.current.ID != player {
		return nil
	}

	var plays []Play
	seen := make(map[deck.Rank]bool, maxHandSize)
	for _, card := range r.current.Hand.Cards() {
		if seen[card.Rank] {
			continue
		}
		seen[card.Rank] = true

		rule, ok := effectFor(card.Rank)
		if !ok {
			continue
		}
		for _, candidate := range r.candidates(card, rule) {
			if _, err := r.validate(candidate); err == nil {
				plays = append(plays, candidate)
			}
		}
	}
	return plays
}

func (r *Round) candidates(card deck.Card, rule effect) []Play {
	base := Play{Player: r.current.ID, CardID: card.ID}
	if rule.targeting.untargeted() {
		return []Play{base}
	}

	targets := r.targetsFor(r.current, rule.targeting)
	if len(targets) == 0 {
		return []Play{base}
	}

	var out []Play
	for _, t := range targets {
		p := base
		p.Target = t.ID
		if !rule.guess {
			out = append(out, p)
			continue
		}
		for _, guess := range deck.AllRanks() {
			if guess == deck.Guard {
				continue
			}
			g := p
			g.Guess = guess
			out = append(out, g)
		}
	}
	return out
}
