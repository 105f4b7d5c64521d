package game

import (
	"sort"

	"github.com/lox/loveletter/internal/deck"
)

// Phase is a state of the round state machine.
type Phase string

const (
	PhaseDealing      Phase = "dealing"
	PhaseAwaitingDraw Phase = "awaiting_draw"
	PhaseAwaitingPlay Phase = "awaiting_play"
	PhaseResolving    Phase = "resolving"
	PhaseRoundOver    Phase = "round_over"
)

// twoPlayerFaceUpBurn is how many extra cards are set aside face up when
// only two players are seated.
const twoPlayerFaceUpBurn = 3

// RoundResult describes a finished round.
type RoundResult struct {
	RoundID    string               `json:"round_id"`
	Number     int                  `json:"number"`
	Winners    []string             `json:"winners"`
	Reason     EndReason            `json:"reason"`
	FinalHands map[string]deck.Card `json:"final_hands"`
	Discard    []deck.Card          `json:"discard"`
	Turns      int                  `json:"turns"`
}

// Outcome is the result of an accepted play.
type Outcome struct {
	Turn      Turn
	Events    []Event
	RoundOver bool
	Result    *RoundResult

	// Set by Session only.
	GameOver  bool
	Winner    string
	NextRound string
}

// CardCounts is a breakdown of where a round's cards are.
type CardCounts struct {
	Deck         int
	Hands        int
	Discard      int
	Burned       int
	FaceUpBurned int
}

// Total sums all locations.
func (c CardCounts) Total() int {
	return c.Deck + c.Hands + c.Discard + c.Burned + c.FaceUpBurned
}

// Round is one deal-to-elimination-or-exhaustion cycle. It owns its deck,
// discard pile, and turns. A Round is not safe for concurrent use; callers
// serialise access (see package table).
type Round struct {
	id      string
	number  int
	catalog deck.Catalog
	players *Registry

	deck    *deck.Deck
	discard []deck.Card
	burned  []deck.Card
	faceUp  []deck.Card

	phase     Phase
	current   *Player
	turn      *Turn
	turns     []Turn
	knowledge map[string][]Knowledge
	result    *RoundResult
}

// NewRound shuffles a fresh deck from catalog, deals, and begins the first
// turn. The returned events cover the deal and the first draw.
func NewRound(players *Registry, catalog deck.Catalog, shuffler deck.Shuffler, opts ...RoundOption) (*Round, []Event, error) {
	if shuffler == nil {
		panic("shuffler is required for round creation")
	}
	if err := catalog.Validate(); err != nil {
		return nil, nil, err
	}
	if n := players.Len(); n < deck.MinPlayers || n > catalog.PlayerLimit() {
		return nil, nil, newError(ErrInsufficientPlayers, "%d players, catalog %s supports %d-%d",
			n, catalog.ID, deck.MinPlayers, catalog.PlayerLimit())
	}

	cfg := &roundConfig{number: 1, faceUpBurn: -1}
	for _, opt := range opts {
		opt(cfg)
	}

	first := players.At(0)
	if cfg.firstPlayer != "" {
		p, ok := players.Get(cfg.firstPlayer)
		if !ok {
			return nil, nil, newError(ErrUnknownPlayer, "first player %q is not seated", cfg.firstPlayer)
		}
		first = p
	}

	faceUp := cfg.faceUpBurn
	if faceUp < 0 {
		faceUp = 0
		if players.Len() == 2 {
			faceUp = twoPlayerFaceUpBurn
		}
	}

	r := &Round{
		id:        cfg.id,
		number:    cfg.number,
		catalog:   catalog,
		players:   players,
		deck:      catalog.NewDeck(),
		phase:     PhaseDealing,
		knowledge: make(map[string][]Knowledge),
	}

	players.resetForRound()
	r.deck.Shuffle(shuffler)

	r.burned = r.deck.DrawN(1)
	r.faceUp = r.deck.DrawN(faceUp)

	events := []Event{RoundStartedEvent{
		RoundID:      r.id,
		Number:       r.number,
		Catalog:      catalog.ID,
		Players:      players.IDs(),
		FirstPlayer:  first.ID,
		FaceUpBurned: append([]deck.Card(nil), r.faceUp...),
	}}

	for i := 0; i < players.Len(); i++ {
		p := players.At((first.Seat + i) % players.Len())
		card, ok := r.deck.Draw()
		if !ok {
			return nil, nil, invariantViolation("deck ran out while dealing")
		}
		if err := p.Hand.Receive(card); err != nil {
			return nil, nil, err
		}
		events = append(events, CardDrawnEvent{Player: p.ID, Card: card, Dealt: true})
	}

	turnEvents, err := r.beginTurn(first)
	if err != nil {
		return nil, nil, err
	}
	events = append(events, turnEvents...)

	if err := r.checkInvariants(); err != nil {
		return nil, nil, err
	}
	return r, events, nil
}

// ID returns the round identifier.
func (r *Round) ID() string { return r.id }

// Number returns the 1-based round number within its game.
func (r *Round) Number() int { return r.number }

// Catalog returns the catalog the deck was built from.
func (r *Round) Catalog() deck.Catalog { return r.catalog }

// Phase returns the current state machine phase.
func (r *Round) Phase() Phase { return r.phase }

// Over reports whether the round has ended.
func (r *Round) Over() bool { return r.phase == PhaseRoundOver }

// Players returns the registry the round plays with.
func (r *Round) Players() *Registry { return r.players }

// Current returns the id of the player whose turn it is, or "" once the
// round is over.
func (r *Round) Current() string {
	if r.current == nil {
		return ""
	}
	return r.current.ID
}

// DeckSize returns the number of cards left to draw.
func (r *Round) DeckSize() int { return r.deck.Len() }

// Discard returns the face-up discard pile, oldest first.
func (r *Round) Discard() []deck.Card {
	return append([]deck.Card(nil), r.discard...)
}

// FaceUpBurned returns the cards set aside face up at the start.
func (r *Round) FaceUpBurned() []deck.Card {
	return append([]deck.Card(nil), r.faceUp...)
}

// BurnedCount returns the number of face-down cards still set aside.
func (r *Round) BurnedCount() int { return len(r.burned) }

// Turns returns every resolved turn in order.
func (r *Round) Turns() []Turn {
	out := make([]Turn, len(r.turns))
	for i, t := range r.turns {
		out[i] = t.clone()
	}
	return out
}

// CurrentTurn returns the unresolved turn, if any.
func (r *Round) CurrentTurn() (Turn, bool) {
	if r.turn == nil {
		return Turn{}, false
	}
	return r.turn.clone(), true
}

// Result returns the outcome once the round is over.
func (r *Round) Result() (RoundResult, bool) {
	if r.result == nil {
		return RoundResult{}, false
	}
	return *r.result, true
}

// Knowledge returns what player has privately learned this round.
func (r *Round) Knowledge(player string) []Knowledge {
	return append([]Knowledge(nil), r.knowledge[player]...)
}

// Counts reports where every card of the round currently is.
func (r *Round) Counts() CardCounts {
	c := CardCounts{
		Deck:         r.deck.Len(),
		Discard:      len(r.discard),
		Burned:       len(r.burned),
		FaceUpBurned: len(r.faceUp),
	}
	for _, p := range r.players.Players() {
		c.Hands += p.Hand.Len()
	}
	return c
}

// Submit validates and applies play. A rejected play returns an error
// satisfying IsRecoverable and leaves the round unchanged. An error for
// which IsFatal holds means the round is corrupt.
func (r *Round) Submit(play Play) (Outcome, error) {
	res, err := r.validate(play)
	if err != nil {
		return Outcome{}, err
	}
	rule, _ := effectFor(res.card.Rank)

	r.phase = PhaseResolving
	if _, err := res.actor.Hand.DiscardCard(res.card.ID); err != nil {
		return Outcome{}, err
	}
	r.discardFaceUp(res.actor, res.card)

	turn := r.turn
	turn.Played = res.card
	turn.Guess = res.guess
	if res.target != nil {
		turn.Target = res.target.ID
	} else if !rule.targeting.untargeted() {
		turn.NoEffect = true
	}
	res.turn = turn

	res.emit(CardPlayedEvent{
		Turn:     turn.Number,
		Player:   res.actor.ID,
		Card:     res.card,
		Target:   turn.Target,
		Guess:    turn.Guess,
		NoEffect: turn.NoEffect,
	})

	if err := rule.resolve(r, res); err != nil {
		return Outcome{}, err
	}

	turn.Resolved = true
	for holder, learned := range turn.Learned {
		r.knowledge[holder] = append(r.knowledge[holder], learned...)
	}
	resolved := turn.clone()
	r.turns = append(r.turns, resolved)
	r.turn = nil

	events, err := r.advance(res.actor)
	if err != nil {
		return Outcome{}, err
	}
	res.events = append(res.events, events...)

	if err := r.checkInvariants(); err != nil {
		return Outcome{}, err
	}

	out := Outcome{Turn: resolved, Events: res.events, RoundOver: r.Over()}
	if r.result != nil {
		result := *r.result
		out.Result = &result
	}
	return out, nil
}

// advance leaves Resolving: the round ends if one player remains or the deck
// is empty, otherwise the next active player in seat order begins a turn.
func (r *Round) advance(actor *Player) ([]Event, error) {
	active := r.players.Active()
	switch {
	case len(active) <= 1:
		return r.end(EndLastStanding)
	case r.deck.IsEmpty():
		return r.end(EndDeckExhausted)
	}
	next := r.players.NextActive(actor.Seat)
	if next == nil {
		return nil, invariantViolation("no active player to take the next turn")
	}
	return r.beginTurn(next)
}

// beginTurn clears p's protection and draws their card. An empty deck at
// this point ends the round by exhaustion.
func (r *Round) beginTurn(p *Player) ([]Event, error) {
	r.phase = PhaseAwaitingDraw
	r.current = p
	p.Protected = false

	card, ok := r.deck.Draw()
	if !ok {
		return r.end(EndDeckExhausted)
	}
	if err := p.Hand.Draw(card); err != nil {
		return nil, err
	}
	drawn := card
	r.turn = &Turn{Number: len(r.turns) + 1, Player: p.ID, Drawn: &drawn}
	r.phase = PhaseAwaitingPlay

	return []Event{
		TurnStartedEvent{Turn: r.turn.Number, Player: p.ID, DeckRemaining: r.deck.Len()},
		CardDrawnEvent{Player: p.ID, Card: card},
	}, nil
}

// end moves to RoundOver and decides the winners.
func (r *Round) end(reason EndReason) ([]Event, error) {
	r.phase = PhaseRoundOver
	r.current = nil
	r.turn = nil

	active := r.players.Active()
	if len(active) == 0 {
		return nil, invariantViolation("round ended with no active players")
	}

	finalHands := make(map[string]deck.Card, len(active))
	for _, p := range active {
		if held, ok := p.Hand.Held(); ok {
			finalHands[p.ID] = held
		}
	}

	winners := []*Player{active[0]}
	if len(active) > 1 {
		winners = exhaustionWinners(active)
	}
	ids := make([]string, len(winners))
	for i, p := range winners {
		ids[i] = p.ID
	}

	r.result = &RoundResult{
		RoundID:    r.id,
		Number:     r.number,
		Winners:    ids,
		Reason:     reason,
		FinalHands: finalHands,
		Discard:    r.Discard(),
		Turns:      len(r.turns),
	}

	hands := make(map[string]deck.Card, len(finalHands))
	for k, v := range finalHands {
		hands[k] = v
	}
	return []Event{RoundEndedEvent{
		RoundID:    r.id,
		Number:     r.number,
		Winners:    append([]string(nil), ids...),
		Reason:     reason,
		FinalHands: hands,
	}}, nil
}

// exhaustionWinners picks the highest held strength. Ties go to the higher
// total strength of the player's own discards this round; players still
// tied share the win. Result is in seat order.
func exhaustionWinners(active []*Player) []*Player {
	held := func(p *Player) int {
		c, ok := p.Hand.Held()
		if !ok {
			return 0
		}
		return c.Strength()
	}

	best := []*Player{}
	bestHeld, bestDiscards := -1, -1
	for _, p := range active {
		h, d := held(p), p.DiscardedStrength()
		switch {
		case h > bestHeld || (h == bestHeld && d > bestDiscards):
			best = []*Player{p}
			bestHeld, bestDiscards = h, d
		case h == bestHeld && d == bestDiscards:
			best = append(best, p)
		}
	}
	sort.SliceStable(best, func(i, j int) bool { return best[i].Seat < best[j].Seat })
	return best
}

func (r *Round) eliminate(res *resolution, p *Player, cause EliminationCause) {
	p.Eliminated = true
	p.Protected = false
	event := PlayerEliminatedEvent{Player: p.ID, Cause: cause}
	if p != res.actor {
		event.By = res.actor.ID
	}
	for _, c := range p.Hand.Clear() {
		r.discardFaceUp(p, c)
		if event.Card == nil {
			card := c
			event.Card = &card
		}
	}
	res.emit(event)
}

func (r *Round) discardFaceUp(p *Player, c deck.Card) {
	r.discard = append(r.discard, c)
	p.discards = append(p.discards, c)
}

// drawReplacement takes the top deck card, falling back to the face-down
// burned card once the deck is empty.
func (r *Round) drawReplacement() (deck.Card, bool) {
	if c, ok := r.deck.Draw(); ok {
		return c, true
	}
	if len(r.burned) > 0 {
		c := r.burned[0]
		r.burned = r.burned[1:]
		return c, true
	}
	return deck.Card{}, false
}

// checkInvariants verifies card conservation and hand arity.
func (r *Round) checkInvariants() error {
	counts := r.Counts()
	if total := counts.Total(); total != r.catalog.Total() {
		return invariantViolation("card count %d does not match catalog total %d (%+v)", total, r.catalog.Total(), counts)
	}
	for _, p := range r.players.Players() {
		n := p.Hand.Len()
		switch {
		case p.Eliminated && n != 0:
			return invariantViolation("eliminated player %s holds %d cards", p.ID, n)
		case p == r.current && r.phase == PhaseAwaitingPlay && n != maxHandSize:
			return invariantViolation("player %s holds %d cards awaiting play", p.ID, n)
		case p != r.current && n > 1:
			return invariantViolation("player %s holds %d cards out of turn", p.ID, n)
		}
	}
	return nil
}
