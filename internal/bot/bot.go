// Package bot provides automated players. A bot sees exactly what a human
// in its seat would: the private state view, including the legal plays.
package bot

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/lox/loveletter/internal/deck"
	"github.com/lox/loveletter/internal/game"
)

// ErrNoLegalPlay is returned when a bot is asked to act out of turn.
var ErrNoLegalPlay = errors.New("bot: no legal play")

// Decision is a chosen play and a short explanation for logs and UIs.
type Decision struct {
	Play      game.Play
	Reasoning string
}

// Agent chooses a play for the seat it is given.
type Agent interface {
	Name() string
	Decide(state game.PrivateState) (Decision, error)
}

// Strategy names.
const (
	StrategyRandom   = "random"
	StrategyCautious = "cautious"
)

// Strategies lists the available strategy names.
func Strategies() []string {
	return []string{StrategyCautious, StrategyRandom}
}

// New returns an agent for strategy. rng must not be nil.
func New(strategy string, rng *rand.Rand, logger *log.Logger) (Agent, error) {
	if rng == nil {
		panic("rng is required for bot creation")
	}
	if logger == nil {
		logger = log.Default()
	}
	switch strings.ToLower(strategy) {
	case StrategyRandom:
		return NewRandomBot(rng, logger), nil
	case StrategyCautious, "":
		return NewCautiousBot(rng, logger), nil
	}
	return nil, fmt.Errorf("unknown bot strategy %q (want one of %s)", strategy, strings.Join(Strategies(), ", "))
}

// Default picks the play used when a player runs out of time. It is the
// cautious strategy without any randomness, so the same state always gives
// the same play.
func Default(state game.PrivateState) (game.Play, error) {
	d, err := (&CautiousBot{}).decide(state, nil)
	if err != nil {
		return game.Play{}, err
	}
	return d.Play, nil
}

// RandomBot plays uniformly at random among the legal plays.
type RandomBot struct {
	rng    *rand.Rand
	logger *log.Logger
}

// NewRandomBot creates a RandomBot.
func NewRandomBot(rng *rand.Rand, logger *log.Logger) *RandomBot {
	return &RandomBot{rng: rng, logger: logger.WithPrefix("bot")}
}

// Name implements Agent.
func (b *RandomBot) Name() string { return StrategyRandom }

// Decide implements Agent.
func (b *RandomBot) Decide(state game.PrivateState) (Decision, error) {
	if len(state.Plays) == 0 {
		return Decision{}, ErrNoLegalPlay
	}
	play := state.Plays[b.rng.IntN(len(state.Plays))]
	b.logger.Debug("Random play", "player", state.Player, "card", play.CardID, "target", play.Target, "guess", play.Guess)
	return Decision{Play: play, Reasoning: "random"}, nil
}

// CautiousBot scores each legal play using what it has seen: the public
// discards, its own hand and anything it privately learned.
type CautiousBot struct {
	rng    *rand.Rand
	logger *log.Logger
}

// NewCautiousBot creates a CautiousBot. rng only breaks ties.
func NewCautiousBot(rng *rand.Rand, logger *log.Logger) *CautiousBot {
	return &CautiousBot{rng: rng, logger: logger.WithPrefix("bot")}
}

// Name implements Agent.
func (b *CautiousBot) Name() string { return StrategyCautious }

// Decide implements Agent.
func (b *CautiousBot) Decide(state game.PrivateState) (Decision, error) {
	d, err := b.decide(state, b.rng)
	if err != nil {
		return Decision{}, err
	}
	b.logger.Debug("Cautious play",
		"player", state.Player,
		"card", d.Play.CardID,
		"target", d.Play.Target,
		"guess", d.Play.Guess,
		"reasoning", d.Reasoning)
	return d, nil
}

type scored struct {
	play   game.Play
	score  int
	reason string
}

func (b *CautiousBot) decide(state game.PrivateState, rng *rand.Rand) (Decision, error) {
	if len(state.Plays) == 0 {
		return Decision{}, ErrNoLegalPlay
	}

	v := newView(state)
	options := make([]scored, 0, len(state.Plays))
	for _, p := range state.Plays {
		score, reason := v.score(p)
		options = append(options, scored{play: p, score: score, reason: reason})
	}
	sort.SliceStable(options, func(i, j int) bool { return options[i].score > options[j].score })

	best := 1
	for best < len(options) && options[best].score == options[0].score {
		best++
	}
	pick := options[0]
	if rng != nil && best > 1 {
		pick = options[rng.IntN(best)]
	}
	return Decision{Play: pick.play, Reasoning: pick.reason}, nil
}

// view is the bot's reading of a private state.
type view struct {
	state   game.PrivateState
	cards   map[int]deck.Card // own hand by id
	known   map[string]deck.Card
	unseen  map[deck.Rank]int
	unknown int
}

func newView(state game.PrivateState) *view {
	v := &view{
		state:  state,
		cards:  make(map[int]deck.Card, len(state.Hand)),
		known:  make(map[string]deck.Card),
		unseen: make(map[deck.Rank]int, deck.NumRanks),
	}
	for _, c := range state.Hand {
		v.cards[c.ID] = c
	}

	composition := state.Composition
	if len(composition) == 0 {
		composition = deck.StandardQuantities()
	}
	for _, q := range composition {
		v.unseen[q.Rank] = q.Count
	}
	seen := func(cards []deck.Card) {
		for _, c := range cards {
			v.unseen[c.Rank]--
		}
	}
	seen(state.Discard)
	seen(state.FaceUpBurned)
	seen(state.Hand)

	discarded := make(map[int]bool, len(state.Discard))
	for _, c := range state.Discard {
		discarded[c.ID] = true
	}
	// Later knowledge about a player supersedes earlier.
	for _, k := range state.Knowledge {
		if _, mine := v.cards[k.Card.ID]; mine || discarded[k.Card.ID] {
			delete(v.known, k.About)
			continue
		}
		if p, ok := state.Seat(k.About); ok && !p.Eliminated {
			v.known[k.About] = k.Card
		}
	}

	for r, n := range v.unseen {
		if n < 0 {
			v.unseen[r] = 0
		} else {
			v.unknown += n
		}
	}
	return v
}

// kept returns the card left in hand if play is made.
func (v *view) kept(p game.Play) (deck.Card, bool) {
	for id, c := range v.cards {
		if id != p.CardID {
			return c, true
		}
	}
	return deck.Card{}, false
}

// bestGuess returns the most likely non-Guard rank for an unknown card,
// preferring the higher rank on ties.
func (v *view) bestGuess() (deck.Rank, int) {
	best, count := deck.Priest, -1
	for _, r := range deck.AllRanks() {
		if r == deck.Guard {
			continue
		}
		if n := v.unseen[r]; n >= count {
			best, count = r, n
		}
	}
	return best, count
}

func (v *view) score(p game.Play) (int, string) {
	card := v.cards[p.CardID]
	kept, _ := v.kept(p)
	base := kept.Strength() * 2
	known, isKnown := v.known[p.Target]

	switch card.Rank {
	case deck.Princess:
		return base - 1000, "forced to give up the princess"

	case deck.Guard:
		if p.Target == "" {
			return base, "guard with no target"
		}
		if isKnown {
			if p.Guess == known.Rank {
				return base + 100, fmt.Sprintf("%s is known to hold the %s", p.Target, known.Rank)
			}
			return base - 50, "guessing against known card"
		}
		if best, n := v.bestGuess(); p.Guess == best && v.unknown > 0 {
			return base + 10 + n*10/v.unknown, fmt.Sprintf("%s is the likeliest unseen card", best)
		}
		return base - 5, "unlikely guess"

	case deck.Priest:
		if p.Target == "" {
			return base, "priest with no target"
		}
		if isKnown {
			return base + 2, "already know that hand"
		}
		return base + 15, "look at an unknown hand"

	case deck.Baron:
		if p.Target == "" {
			return base, "baron with no target"
		}
		if isKnown {
			if kept.Strength() > known.Strength() {
				return base + 90, fmt.Sprintf("%s beats the %s", kept.Rank, known.Rank)
			}
			return base - 80, "baron would lose"
		}
		if kept.Strength() >= deck.Prince.Strength() {
			return base + 20, "strong card for a comparison"
		}
		return base - 20, "weak card for a comparison"

	case deck.Handmaid:
		return base + 30, "protect myself"

	case deck.Prince:
		switch {
		case p.Target == v.state.Player && kept.Rank == deck.Princess:
			return -1000, "would discard my own princess"
		case p.Target == v.state.Player:
			return base - 30 + (deck.Prince.Strength()-kept.Strength())*3, "redraw a weak card"
		case isKnown && known.Rank == deck.Princess:
			return base + 95, fmt.Sprintf("force %s to discard the princess", p.Target)
		}
		return base + 10, "force a discard"

	case deck.King:
		if p.Target == "" {
			return base, "king with no target"
		}
		if isKnown && known.Strength() > kept.Strength() {
			return base + 40, fmt.Sprintf("trade up for the %s", known.Rank)
		}
		if kept.Strength() <= deck.Priest.Strength() {
			return base + 5, "trade away a weak card"
		}
		return base - 15, "keep the better card"

	case deck.Countess:
		return base + 5, "countess"
	}
	return base, ""
}
