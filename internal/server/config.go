package server

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/loveletter/internal/bot"
	"github.com/lox/loveletter/internal/deck"
	"github.com/lox/loveletter/internal/game"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server   ServerSettings  `hcl:"server,block"`
	Games    []GameConfig    `hcl:"game,block"`
	Catalogs []CatalogConfig `hcl:"catalog,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address       string `hcl:"address,optional"`
	Port          int    `hcl:"port,optional"`
	LogLevel      string `hcl:"log_level,optional"`
	TurnTimeoutMs int    `hcl:"turn_timeout_ms,optional"`
	HistoryDir    string `hcl:"history_dir,optional"`
	Seed          int64  `hcl:"seed,optional"` // zero seeds every game from the clock
}

// GameConfig defines a lobby that players join by name. A game starts when
// every seat not taken by a bot has a player.
type GameConfig struct {
	Name           string   `hcl:"name,label"`
	Catalog        string   `hcl:"catalog,optional"`
	TokenThreshold int      `hcl:"token_threshold,optional"`
	Bots           []string `hcl:"bots,optional"` // one strategy per bot seat
	Seats          int      `hcl:"seats,optional"`
}

// Humans returns how many seats are left for connected players.
func (g GameConfig) Humans() int {
	return g.Seats - len(g.Bots)
}

// CatalogConfig defines a custom catalog. Card blocks override the standard
// distribution and names rank by rank.
type CatalogConfig struct {
	ID         string       `hcl:"id,label"`
	MaxPlayers int          `hcl:"max_players,optional"`
	Cards      []CardConfig `hcl:"card,block"`
}

// CardConfig sets the copies and display name of one rank.
type CardConfig struct {
	Rank  string `hcl:"rank,label"`
	Count int    `hcl:"count,optional"`
	Name  string `hcl:"name,optional"`
}

const (
	defaultAddress     = "localhost"
	defaultPort        = 8080
	defaultLogLevel    = "info"
	defaultTurnTimeout = 30000
	defaultSeats       = 4
)

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Address:       defaultAddress,
			Port:          defaultPort,
			LogLevel:      defaultLogLevel,
			TurnTimeoutMs: defaultTurnTimeout,
		},
		Games: []GameConfig{
			{
				Name:    "main",
				Catalog: deck.DefaultCatalogID,
				Bots:    []string{bot.StrategyCautious, bot.StrategyRandom},
				Seats:   defaultSeats,
			},
		},
	}
}

// LoadServerConfig loads server configuration from HCL file. A missing file
// yields the defaults.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *ServerConfig) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = defaultAddress
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = defaultLogLevel
	}
	if c.Server.TurnTimeoutMs == 0 {
		c.Server.TurnTimeoutMs = defaultTurnTimeout
	}

	for i := range c.Games {
		if c.Games[i].Catalog == "" {
			c.Games[i].Catalog = deck.DefaultCatalogID
		}
		if c.Games[i].Seats == 0 {
			c.Games[i].Seats = defaultSeats
		}
	}
	for i := range c.Catalogs {
		if c.Catalogs[i].MaxPlayers == 0 {
			c.Catalogs[i].MaxPlayers = deck.DefaultMaxPlayers
		}
	}
}

// Validate reports the first problem with the configuration.
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.TurnTimeoutMs < 0 {
		return fmt.Errorf("invalid turn timeout: %dms", c.Server.TurnTimeoutMs)
	}

	registry, err := c.Registry()
	if err != nil {
		return err
	}

	if len(c.Games) == 0 {
		return errors.New("at least one game must be configured")
	}
	seen := make(map[string]bool, len(c.Games))
	for _, g := range c.Games {
		if seen[g.Name] {
			return fmt.Errorf("game %s: defined more than once", g.Name)
		}
		seen[g.Name] = true

		catalog, err := registry.Lookup(g.Catalog)
		if err != nil {
			return fmt.Errorf("game %s: %w", g.Name, err)
		}
		if g.Seats < 2 || g.Seats > catalog.PlayerLimit() {
			return fmt.Errorf("game %s: seats must be between 2 and %d", g.Name, catalog.PlayerLimit())
		}
		if len(g.Bots) > g.Seats {
			return fmt.Errorf("game %s: %d bots do not fit in %d seats", g.Name, len(g.Bots), g.Seats)
		}
		if g.Humans() == 0 {
			return fmt.Errorf("game %s: bots leave no seat for players", g.Name)
		}
		if g.TokenThreshold < 0 {
			return fmt.Errorf("game %s: token threshold must not be negative", g.Name)
		}
		for _, strategy := range g.Bots {
			if !validStrategy(strategy) {
				return fmt.Errorf("game %s: invalid bot strategy %s", g.Name, strategy)
			}
		}
	}
	return nil
}

func validStrategy(name string) bool {
	for _, s := range bot.Strategies() {
		if s == name {
			return true
		}
	}
	return false
}

// Registry returns the built-in catalogs plus any configured ones.
func (c *ServerConfig) Registry() (*deck.Registry, error) {
	registry := deck.NewRegistry()
	for _, cc := range c.Catalogs {
		if _, err := registry.Lookup(cc.ID); err == nil {
			return nil, fmt.Errorf("catalog %s: already defined", cc.ID)
		}
		catalog, err := cc.Catalog()
		if err != nil {
			return nil, err
		}
		if err := registry.Register(catalog); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", cc.ID, err)
		}
	}
	return registry, nil
}

// Catalog builds and validates the configured catalog.
func (cc CatalogConfig) Catalog() (deck.Catalog, error) {
	counts := make(map[deck.Rank]int, deck.NumRanks)
	for _, q := range deck.StandardQuantities() {
		counts[q.Rank] = q.Count
	}
	names := make(map[deck.Rank]string)
	for _, card := range cc.Cards {
		rank, err := deck.ParseRank(card.Rank)
		if err != nil {
			return deck.Catalog{}, fmt.Errorf("catalog %s: %w", cc.ID, err)
		}
		if !rank.Valid() {
			return deck.Catalog{}, fmt.Errorf("catalog %s: invalid rank %q", cc.ID, card.Rank)
		}
		if card.Count != 0 {
			counts[rank] = card.Count
		}
		if card.Name != "" {
			names[rank] = card.Name
		}
	}

	catalog := deck.Catalog{
		ID:         cc.ID,
		MaxPlayers: cc.MaxPlayers,
		Appearance: func(r deck.Rank) string {
			if name, ok := names[r]; ok {
				return name
			}
			return r.Title()
		},
	}
	for _, r := range deck.AllRanks() {
		catalog.Quantities = append(catalog.Quantities, deck.Quantity{Rank: r, Count: counts[r]})
	}
	if err := catalog.Validate(); err != nil {
		return deck.Catalog{}, fmt.Errorf("catalog %s: %w", cc.ID, err)
	}
	return catalog, nil
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// TurnTimeout returns how long a connected player has to act.
func (c *ServerConfig) TurnTimeout() time.Duration {
	return time.Duration(c.Server.TurnTimeoutMs) * time.Millisecond
}

// GetGameByName returns a game configuration by name
func (c *ServerConfig) GetGameByName(name string) (GameConfig, bool) {
	for _, g := range c.Games {
		if g.Name == name {
			return g, true
		}
	}
	return GameConfig{}, false
}

// SessionOptions returns the engine options for g.
func (g GameConfig) SessionOptions() []game.SessionOption {
	if g.TokenThreshold > 0 {
		return []game.SessionOption{game.WithTokenThreshold(g.TokenThreshold)}
	}
	return nil
}
