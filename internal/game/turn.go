package game

import "github.com/lox/loveletter/internal/deck"

// Play is a command to play one held card.
type Play struct {
	Player string    `json:"player"`
	CardID int       `json:"card_id"`
	Target string    `json:"target,omitempty"`
	Guess  deck.Rank `json:"guess,omitempty"`
}

// KnowledgeSource says how a player came to know another player's card.
type KnowledgeSource string

const (
	SourcePriest KnowledgeSource = "priest"
	SourceBaron  KnowledgeSource = "baron"
	SourceKing   KnowledgeSource = "king"
)

// Knowledge is a privately learned fact: at Turn, the holder learned that
// About held Card.
type Knowledge struct {
	Turn   int             `json:"turn"`
	About  string          `json:"about"`
	Card   deck.Card       `json:"card"`
	Source KnowledgeSource `json:"source"`
}

// Turn is one player's opportunity to act. The round mutates the current
// turn until the play resolves; resolved turns are only handed out by value.
type Turn struct {
	Number   int        `json:"number"`
	Player   string     `json:"player"`
	Drawn    *deck.Card `json:"drawn,omitempty"`
	Played   deck.Card  `json:"played"`
	Target   string     `json:"target,omitempty"`
	Guess    deck.Rank  `json:"guess,omitempty"`
	NoEffect bool       `json:"no_effect,omitempty"`
	Resolved bool       `json:"resolved"`

	// Learned holds knowledge produced by this turn, keyed by the player
	// who learned it.
	Learned map[string][]Knowledge `json:"-"`
}

func (t *Turn) learn(holder string, k Knowledge) {
	if t.Learned == nil {
		t.Learned = make(map[string][]Knowledge)
	}
	k.Turn = t.Number
	t.Learned[holder] = append(t.Learned[holder], k)
}

// clone returns a deep copy safe to hand to callers.
func (t Turn) clone() Turn {
	if t.Drawn != nil {
		drawn := *t.Drawn
		t.Drawn = &drawn
	}
	if t.Learned != nil {
		learned := make(map[string][]Knowledge, len(t.Learned))
		for k, v := range t.Learned {
			learned[k] = append([]Knowledge(nil), v...)
		}
		t.Learned = learned
	}
	return t
}
