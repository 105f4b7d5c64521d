// Package gameid generates identifiers for games and connections.
package gameid

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Crockford base32, lower case.
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// encodedLen is the length of a 128-bit UUID in base32.
const encodedLen = 26

// Generator creates time-ordered ids. Entropy defaults to crypto/rand via
// google/uuid; tests inject a deterministic reader.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
	prefix  string
}

// Option configures a Generator.
type Option func(*Generator)

// WithEntropy reads the random part of each UUIDv7 from r.
func WithEntropy(r io.Reader) Option {
	return func(g *Generator) {
		g.entropy = r
	}
}

// WithPrefix prepends prefix and an underscore to every id, TypeID style.
func WithPrefix(prefix string) Option {
	return func(g *Generator) {
		g.prefix = prefix
	}
}

// NewGenerator returns a Generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a new id, or an error if entropy could not be read.
func (g *Generator) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var (
		id  uuid.UUID
		err error
	)
	if g.entropy != nil {
		id, err = uuid.NewV7FromReader(g.entropy)
	} else {
		id, err = uuid.NewV7()
	}
	if err != nil {
		return "", fmt.Errorf("generate uuidv7: %w", err)
	}

	encoded := Encode(id)
	if g.prefix == "" {
		return encoded, nil
	}
	return g.prefix + "_" + encoded, nil
}

// MustGenerate is Generate for callers that treat entropy failure as fatal.
func (g *Generator) MustGenerate() string {
	id, err := g.Generate()
	if err != nil {
		panic(err)
	}
	return id
}

var defaultGenerator = NewGenerator(WithPrefix("game"))

// Generate returns a game id from the package default generator.
func Generate() string {
	return defaultGenerator.MustGenerate()
}

// Encode renders id as 26 base32 characters. The first character carries
// only the top three bits, so encoded ids sort in the same order as the UUIDs.
func Encode(id uuid.UUID) string {
	var sb strings.Builder
	sb.Grow(encodedLen)

	// 26*5 = 130 bits: two zero bits of padding, then the 128.
	sb.WriteByte(alphabet[id[0]>>5])
	acc := uint32(id[0] & 0x1f)
	bits := 5
	for i := 1; i < len(id); i++ {
		acc = acc<<8 | uint32(id[i])
		bits += 8
		for bits >= 5 {
			bits -= 5
			sb.WriteByte(alphabet[(acc>>bits)&0x1f])
		}
		acc &= (1 << bits) - 1
	}
	return sb.String()
}

// Decode parses an id produced by Encode, ignoring any prefix.
func Decode(s string) (uuid.UUID, error) {
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		s = s[i+1:]
	}
	var id uuid.UUID
	if len(s) != encodedLen {
		return id, fmt.Errorf("invalid id length %d, want %d", len(s), encodedLen)
	}

	first := strings.IndexByte(alphabet, s[0])
	if first < 0 || first > 7 {
		return id, fmt.Errorf("invalid id character %q", s[0])
	}
	acc := uint32(first)
	bits := 3
	n := 0
	for i := 1; i < len(s); i++ {
		v := strings.IndexByte(alphabet, s[i])
		if v < 0 {
			return id, fmt.Errorf("invalid id character %q", s[i])
		}
		acc = acc<<5 | uint32(v)
		bits += 5
		if bits >= 8 {
			bits -= 8
			id[n] = byte(acc >> bits)
			n++
			acc &= (1 << bits) - 1
		}
	}
	return id, nil
}

// Validate reports whether s is a well-formed id.
func Validate(s string) error {
	_, err := Decode(s)
	return err
}
