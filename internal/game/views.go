package game

import "github.com/lox/loveletter/internal/deck"

// PublicPlayer is what anyone may know about a seat.
type PublicPlayer struct {
	ID         string      `json:"id"`
	Seat       int         `json:"seat"`
	HandSize   int         `json:"hand_size"`
	Protected  bool        `json:"protected"`
	Eliminated bool        `json:"eliminated"`
	Tokens     int         `json:"tokens"`
	Discards   []deck.Card `json:"discards"`
}

// PublicState is the spectator view of a round. It never contains an
// unrevealed hand card.
type PublicState struct {
	GameID       string          `json:"game_id,omitempty"`
	RoundID      string          `json:"round_id"`
	Number       int             `json:"number"`
	Catalog      string          `json:"catalog"`
	Composition  []deck.Quantity `json:"composition,omitempty"` // the catalog's rank counts
	Phase        Phase           `json:"phase"`
	Current      string          `json:"current,omitempty"`
	Turn         int             `json:"turn"`
	DeckSize     int             `json:"deck_size"`
	BurnedCount  int             `json:"burned_count"`
	FaceUpBurned []deck.Card     `json:"face_up_burned,omitempty"`
	Discard      []deck.Card     `json:"discard"`
	Players      []PublicPlayer  `json:"players"`
	Result       *RoundResult    `json:"result,omitempty"`

	// Set by Session only.
	Threshold  int    `json:"threshold,omitempty"`
	GameOver   bool   `json:"game_over,omitempty"`
	GameWinner string `json:"game_winner,omitempty"`
}

// PrivateState is the public view plus one player's own hand and what they
// have learned. Plays is non-empty only when it is their turn.
type PrivateState struct {
	PublicState
	Player    string      `json:"player"`
	Hand      []deck.Card `json:"hand"`
	Drawn     *deck.Card  `json:"drawn,omitempty"`
	Knowledge []Knowledge `json:"knowledge,omitempty"`
	Plays     []Play      `json:"plays,omitempty"`
}

// Seat returns the public view of player id.
func (s PublicState) Seat(id string) (PublicPlayer, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return PublicPlayer{}, false
}

// PublicState returns the spectator view.
func (r *Round) PublicState() PublicState {
	s := PublicState{
		RoundID:      r.id,
		Number:       r.number,
		Catalog:      r.catalog.ID,
		Composition:  append([]deck.Quantity(nil), r.catalog.Quantities...),
		Phase:        r.phase,
		Current:      r.Current(),
		Turn:         len(r.turns),
		DeckSize:     r.deck.Len(),
		BurnedCount:  len(r.burned),
		FaceUpBurned: r.FaceUpBurned(),
		Discard:      r.Discard(),
	}
	if r.turn != nil {
		s.Turn = r.turn.Number
	}
	for _, p := range r.players.Players() {
		s.Players = append(s.Players, PublicPlayer{
			ID:         p.ID,
			Seat:       p.Seat,
			HandSize:   p.Hand.Len(),
			Protected:  p.Protected,
			Eliminated: p.Eliminated,
			Tokens:     p.Tokens,
			Discards:   p.Discards(),
		})
	}
	if r.result != nil {
		result := *r.result
		s.Result = &result
	}
	return s
}

// PrivateState returns player's view.
func (r *Round) PrivateState(player string) (PrivateState, error) {
	p, ok := r.players.Get(player)
	if !ok {
		return PrivateState{}, newError(ErrUnknownPlayer, "unknown player %q", player)
	}
	s := PrivateState{
		PublicState: r.PublicState(),
		Player:      p.ID,
		Hand:        p.Hand.Cards(),
		Knowledge:   r.Knowledge(p.ID),
		Plays:       r.LegalPlays(p.ID),
	}
	if drawn, ok := p.Hand.Drawn(); ok && r.current == p {
		s.Drawn = &drawn
	}
	return s, nil
}

// PublicState returns the spectator view of the current round with game
// totals. It fails before the first round is dealt.
func (s *Session) PublicState() (PublicState, error) {
	if s.round == nil {
		return PublicState{}, illegalPlay("no round has been dealt")
	}
	state := s.round.PublicState()
	s.decorate(&state)
	return state, nil
}

// PrivateState returns player's view of the current round.
func (s *Session) PrivateState(player string) (PrivateState, error) {
	if s.round == nil {
		return PrivateState{}, illegalPlay("no round has been dealt")
	}
	state, err := s.round.PrivateState(player)
	if err != nil {
		return PrivateState{}, err
	}
	s.decorate(&state.PublicState)
	if s.over {
		state.Plays = nil
	}
	return state, nil
}

func (s *Session) decorate(state *PublicState) {
	state.GameID = s.id
	state.Threshold = s.threshold
	state.GameOver = s.over
	state.GameWinner = s.winner
}
