package deck

import (
	"fmt"
	"strconv"
	"strings"
)

// Rank identifies one of the eight card types.
type Rank uint8

// Rank constants in ascending strength order. The zero value is NoRank.
const (
	NoRank Rank = iota
	Guard
	Priest
	Baron
	Handmaid
	Prince
	King
	Countess
	Princess
)

// NumRanks is the number of playable ranks.
const NumRanks = 8

var rankNames = [...]string{
	NoRank:   "none",
	Guard:    "guard",
	Priest:   "priest",
	Baron:    "baron",
	Handmaid: "handmaid",
	Prince:   "prince",
	King:     "king",
	Countess: "countess",
	Princess: "princess",
}

// strengths is the fixed point-strength table used for comparisons and tie-breaks.
var strengths = [...]int{
	NoRank:   0,
	Guard:    1,
	Priest:   2,
	Baron:    3,
	Handmaid: 4,
	Prince:   5,
	King:     6,
	Countess: 7,
	Princess: 8,
}

// AllRanks returns every playable rank in ascending strength order.
func AllRanks() []Rank {
	return []Rank{Guard, Priest, Baron, Handmaid, Prince, King, Countess, Princess}
}

// Valid reports whether r is one of the eight playable ranks.
func (r Rank) Valid() bool {
	return r >= Guard && r <= Princess
}

// Strength returns the rank's point strength (1-8), or 0 for NoRank.
func (r Rank) Strength() int {
	if int(r) >= len(strengths) {
		return 0
	}
	return strengths[r]
}

// String returns the lower-case rank name.
func (r Rank) String() string {
	if int(r) >= len(rankNames) {
		return fmt.Sprintf("rank(%d)", uint8(r))
	}
	return rankNames[r]
}

// Title returns the capitalised rank name, e.g. "Handmaid".
func (r Rank) Title() string {
	s := r.String()
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// MarshalText encodes the rank by name.
func (r Rank) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText accepts either a rank name or its strength digit.
func (r *Rank) UnmarshalText(text []byte) error {
	parsed, err := ParseRank(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRank parses a rank from its name ("baron") or strength ("3").
// The empty string and "none" parse as NoRank.
func ParseRank(s string) (Rank, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "none" {
		return NoRank, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > NumRanks {
			return NoRank, fmt.Errorf("invalid rank strength: %d", n)
		}
		return Rank(n), nil
	}
	for i, name := range rankNames {
		if i > 0 && name == s {
			return Rank(i), nil
		}
	}
	return NoRank, fmt.Errorf("invalid rank: %q", s)
}
