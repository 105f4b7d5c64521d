package game

import "github.com/lox/loveletter/internal/deck"

// targeting describes who a rank may be played against.
type targeting int

const (
	targetNone    targeting = iota // no target allowed
	targetOther                    // another active, unprotected player
	targetAny                      // the actor, or another active, unprotected player
	targetIgnored                  // any supplied target is dropped
)

// untargeted reports whether plays of this kind never carry a target.
func (t targeting) untargeted() bool {
	return t == targetNone || t == targetIgnored
}

// effect is the resolution rule for one rank.
type effect struct {
	targeting targeting
	guess     bool
	resolve   func(r *Round, res *resolution) error
}

// resolution carries one validated play through its effect.
type resolution struct {
	turn   *Turn
	actor  *Player
	card   deck.Card
	target *Player // nil when the play has no target
	guess  deck.Rank
	events []Event
}

func (res *resolution) emit(e Event) {
	res.events = append(res.events, e)
}

// effectFor returns the rule for rank. Every playable rank has exactly one.
func effectFor(rank deck.Rank) (effect, bool) {
	switch rank {
	case deck.Guard:
		return effect{targeting: targetOther, guess: true, resolve: resolveGuard}, true
	case deck.Priest:
		return effect{targeting: targetOther, resolve: resolvePriest}, true
	case deck.Baron:
		return effect{targeting: targetOther, resolve: resolveBaron}, true
	case deck.Handmaid:
		return effect{targeting: targetNone, resolve: resolveHandmaid}, true
	case deck.Prince:
		return effect{targeting: targetAny, resolve: resolvePrince}, true
	case deck.King:
		return effect{targeting: targetOther, resolve: resolveKing}, true
	case deck.Countess:
		return effect{targeting: targetNone, resolve: resolveNothing}, true
	case deck.Princess:
		return effect{targeting: targetIgnored, resolve: resolvePrincess}, true
	}
	return effect{}, false
}

func resolveGuard(r *Round, res *resolution) error {
	if res.target == nil {
		return nil
	}
	held, ok := res.target.Hand.Held()
	if !ok {
		return invariantViolation("guard target %s holds no card", res.target.ID)
	}
	correct := held.Rank == res.guess
	res.emit(GuardGuessedEvent{
		Player:  res.actor.ID,
		Target:  res.target.ID,
		Guess:   res.guess,
		Correct: correct,
	})
	if correct {
		r.eliminate(res, res.target, CauseGuardGuess)
	}
	return nil
}

func resolvePriest(r *Round, res *resolution) error {
	if res.target == nil {
		return nil
	}
	held, ok := res.target.Hand.Held()
	if !ok {
		return invariantViolation("priest target %s holds no card", res.target.ID)
	}
	res.turn.learn(res.actor.ID, Knowledge{About: res.target.ID, Card: held, Source: SourcePriest})
	res.emit(PriestRevealedEvent{Requester: res.actor.ID, Target: res.target.ID, Card: held})
	return nil
}

func resolveBaron(r *Round, res *resolution) error {
	if res.target == nil {
		return nil
	}
	mine, ok := res.actor.Hand.Held()
	if !ok {
		return invariantViolation("baron player %s holds no card", res.actor.ID)
	}
	theirs, ok := res.target.Hand.Held()
	if !ok {
		return invariantViolation("baron target %s holds no card", res.target.ID)
	}

	res.turn.learn(res.actor.ID, Knowledge{About: res.target.ID, Card: theirs, Source: SourceBaron})
	res.turn.learn(res.target.ID, Knowledge{About: res.actor.ID, Card: mine, Source: SourceBaron})

	var loser *Player
	switch {
	case mine.Strength() < theirs.Strength():
		loser = res.actor
	case theirs.Strength() < mine.Strength():
		loser = res.target
	}

	compared := BaronComparedEvent{
		Player:     res.actor.ID,
		PlayerCard: mine,
		Target:     res.target.ID,
		TargetCard: theirs,
	}
	if loser != nil {
		compared.Loser = loser.ID
	}
	res.emit(compared)

	if loser != nil {
		r.eliminate(res, loser, CauseBaronComparison)
	}
	return nil
}

func resolveHandmaid(r *Round, res *resolution) error {
	res.actor.Protected = true
	res.emit(PlayerProtectedEvent{Player: res.actor.ID})
	return nil
}

func resolvePrince(r *Round, res *resolution) error {
	target := res.target
	held, ok := target.Hand.Held()
	if !ok {
		return invariantViolation("prince target %s holds no card", target.ID)
	}

	if held.Rank == deck.Princess {
		if _, err := target.Hand.Discard(deck.Princess); err != nil {
			return err
		}
		r.discardFaceUp(target, held)
		res.emit(CardDiscardedEvent{Player: target.ID, Card: held, By: res.actor.ID})
		r.eliminate(res, target, CausePrincessDiscarded)
		return nil
	}

	replacement, ok := r.drawReplacement()
	var old deck.Card
	if ok {
		var err error
		if old, err = target.Hand.Replace(replacement); err != nil {
			return err
		}
	} else {
		cleared := target.Hand.Clear()
		if len(cleared) != 1 {
			return invariantViolation("prince target %s held %d cards", target.ID, len(cleared))
		}
		old = cleared[0]
	}
	r.discardFaceUp(target, old)
	res.emit(CardDiscardedEvent{Player: target.ID, Card: old, By: res.actor.ID})
	if ok {
		res.emit(CardDrawnEvent{Player: target.ID, Card: replacement, Prince: true})
	}
	return nil
}

func resolveKing(r *Round, res *resolution) error {
	if res.target == nil {
		return nil
	}
	mine, ok := res.actor.Hand.Held()
	if !ok {
		return invariantViolation("king player %s holds no card", res.actor.ID)
	}
	theirs, err := res.target.Hand.Replace(mine)
	if err != nil {
		return err
	}
	if _, err := res.actor.Hand.Replace(theirs); err != nil {
		return err
	}

	res.turn.learn(res.actor.ID, Knowledge{About: res.target.ID, Card: mine, Source: SourceKing})
	res.turn.learn(res.target.ID, Knowledge{About: res.actor.ID, Card: theirs, Source: SourceKing})
	res.emit(HandsSwappedEvent{Player: res.actor.ID, Target: res.target.ID})
	return nil
}

func resolveNothing(r *Round, res *resolution) error {
	return nil
}

func resolvePrincess(r *Round, res *resolution) error {
	r.eliminate(res, res.actor, CausePrincessPlayed)
	return nil
}

// violatesCountess reports whether playing rank breaks the unplayable-card
// rule for a hand: with Countess held, King and Prince cannot be played.
func violatesCountess(h *Hand, rank deck.Rank) bool {
	if rank != deck.King && rank != deck.Prince {
		return false
	}
	return h.Contains(deck.Countess)
}
