package deck

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

const (
	// StandardSize is the number of cards every catalog must produce.
	StandardSize = 16

	// MinPlayers is the smallest table any catalog supports.
	MinPlayers = 2

	// DefaultMaxPlayers is used when a catalog leaves MaxPlayers unset.
	DefaultMaxPlayers = 4

	// DefaultCatalogID names the catalog used when none is requested.
	DefaultCatalogID = "classic"
)

// ErrUnknownCatalog is returned when a catalog id is not registered.
var ErrUnknownCatalog = errors.New("deck: unknown catalog")

// Quantity is how many copies of a rank a catalog contains.
type Quantity struct {
	Rank  Rank `json:"rank"`
	Count int  `json:"count"`
}

// Catalog describes the content of a playable deck. Appearance is purely
// cosmetic; the engine carries it on each card and never interprets it.
type Catalog struct {
	ID         string
	MaxPlayers int
	Quantities []Quantity
	Appearance func(Rank) string
}

// StandardQuantities is the 16-card distribution shared by the built-in catalogs.
func StandardQuantities() []Quantity {
	return []Quantity{
		{Rank: Guard, Count: 5},
		{Rank: Priest, Count: 2},
		{Rank: Baron, Count: 2},
		{Rank: Handmaid, Count: 2},
		{Rank: Prince, Count: 2},
		{Rank: King, Count: 1},
		{Rank: Countess, Count: 1},
		{Rank: Princess, Count: 1},
	}
}

// Classic is the default catalog.
var Classic = Catalog{
	ID:         DefaultCatalogID,
	MaxPlayers: DefaultMaxPlayers,
	Quantities: StandardQuantities(),
	Appearance: func(r Rank) string { return r.Title() },
}

var courtlyNames = map[Rank]string{
	Guard:    "Sentinel",
	Priest:   "Confessor",
	Baron:    "Duke",
	Handmaid: "Lady-in-Waiting",
	Prince:   "Heir",
	King:     "Monarch",
	Countess: "Marquise",
	Princess: "Crown Jewel",
}

// Courtly is an alternate theme with the classic distribution.
var Courtly = Catalog{
	ID:         "courtly",
	MaxPlayers: DefaultMaxPlayers,
	Quantities: StandardQuantities(),
	Appearance: func(r Rank) string { return courtlyNames[r] },
}

// Total returns the number of cards the catalog produces.
func (c Catalog) Total() int {
	total := 0
	for _, q := range c.Quantities {
		total += q.Count
	}
	return total
}

// Count returns how many cards of rank r the catalog holds.
func (c Catalog) Count(r Rank) int {
	n := 0
	for _, q := range c.Quantities {
		if q.Rank == r {
			n += q.Count
		}
	}
	return n
}

// PlayerLimit returns MaxPlayers, falling back to DefaultMaxPlayers.
func (c Catalog) PlayerLimit() int {
	if c.MaxPlayers <= 0 {
		return DefaultMaxPlayers
	}
	return c.MaxPlayers
}

// AppearanceOf resolves the cosmetic appearance for r.
func (c Catalog) AppearanceOf(r Rank) string {
	if c.Appearance == nil {
		return r.Title()
	}
	return c.Appearance(r)
}

// Validate checks that the catalog can drive a round: a non-empty id, every
// rank present exactly once in Quantities with a positive count, a total of
// StandardSize cards, and a player limit the deck can serve.
func (c Catalog) Validate() error {
	if c.ID == "" {
		return errors.New("deck: catalog id is required")
	}
	seen := make(map[Rank]bool, NumRanks)
	for _, q := range c.Quantities {
		if !q.Rank.Valid() {
			return fmt.Errorf("deck: catalog %s: invalid rank %d", c.ID, q.Rank)
		}
		if seen[q.Rank] {
			return fmt.Errorf("deck: catalog %s: duplicate rank %s", c.ID, q.Rank)
		}
		if q.Count <= 0 {
			return fmt.Errorf("deck: catalog %s: %s count must be positive", c.ID, q.Rank)
		}
		seen[q.Rank] = true
	}
	for _, r := range AllRanks() {
		if !seen[r] {
			return fmt.Errorf("deck: catalog %s: missing rank %s", c.ID, r)
		}
	}
	if total := c.Total(); total != StandardSize {
		return fmt.Errorf("deck: catalog %s: has %d cards, want %d", c.ID, total, StandardSize)
	}
	if limit := c.PlayerLimit(); limit < MinPlayers || limit > DefaultMaxPlayers {
		return fmt.Errorf("deck: catalog %s: max players must be between %d and %d", c.ID, MinPlayers, DefaultMaxPlayers)
	}
	return nil
}

// NewDeck returns a fresh deck in canonical order: ascending rank, card ids
// numbered from 1. Shuffling is a separate step.
func (c Catalog) NewDeck() *Deck {
	quantities := make([]Quantity, len(c.Quantities))
	copy(quantities, c.Quantities)
	sort.SliceStable(quantities, func(i, j int) bool {
		return quantities[i].Rank < quantities[j].Rank
	})

	cards := make([]Card, 0, c.Total())
	id := 1
	for _, q := range quantities {
		appearance := c.AppearanceOf(q.Rank)
		for i := 0; i < q.Count; i++ {
			cards = append(cards, Card{ID: id, Rank: q.Rank, Appearance: appearance})
			id++
		}
	}
	return New(cards)
}

// Registry holds the named catalogs available to a server.
type Registry struct {
	mu       sync.RWMutex
	catalogs map[string]Catalog
}

// NewRegistry returns a registry containing the built-in catalogs.
func NewRegistry() *Registry {
	r := &Registry{catalogs: make(map[string]Catalog)}
	for _, c := range []Catalog{Classic, Courtly} {
		r.catalogs[c.ID] = c
	}
	return r
}

// Register validates and adds c, replacing any catalog with the same id.
func (r *Registry) Register(c Catalog) error {
	if err := c.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalogs[c.ID] = c
	return nil
}

// Lookup returns the catalog registered under id. An empty id selects
// DefaultCatalogID.
func (r *Registry) Lookup(id string) (Catalog, error) {
	if id == "" {
		id = DefaultCatalogID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.catalogs[id]
	if !ok {
		return Catalog{}, fmt.Errorf("%w: %s", ErrUnknownCatalog, id)
	}
	return c, nil
}

// IDs returns the registered catalog ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.catalogs))
	for id := range r.catalogs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
