package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/loveletter/internal/deck"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadServerConfig(t *testing.T) {
	path := writeConfig(t, `
server {
  port            = 9090
  turn_timeout_ms = 5000
  seed            = 42
}

game "duel" {
  seats           = 2
  bots            = ["cautious"]
  token_threshold = 3
}

game "royal" {
  catalog = "palace"
  seats   = 3
  bots    = ["random", "cautious"]
}

catalog "palace" {
  max_players = 3

  card "guard" {
    count = 4
    name  = "Watchman"
  }

  card "priest" {
    count = 3
  }

  card "princess" {
    name = "Queen"
  }
}
`)

	cfg, err := LoadServerConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "localhost:9090", cfg.GetServerAddress())
	assert.Equal(t, 5*time.Second, cfg.TurnTimeout())
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, int64(42), cfg.Server.Seed)

	duel, ok := cfg.GetGameByName("duel")
	require.True(t, ok)
	assert.Equal(t, deck.DefaultCatalogID, duel.Catalog)
	assert.Equal(t, 1, duel.Humans())
	assert.Len(t, duel.SessionOptions(), 1)

	royal, ok := cfg.GetGameByName("royal")
	require.True(t, ok)
	assert.Equal(t, 1, royal.Humans())
	assert.Empty(t, royal.SessionOptions())

	_, ok = cfg.GetGameByName("missing")
	assert.False(t, ok)

	registry, err := cfg.Registry()
	require.NoError(t, err)
	palace, err := registry.Lookup("palace")
	require.NoError(t, err)
	assert.Equal(t, 3, palace.PlayerLimit())
	assert.Equal(t, 4, palace.Count(deck.Guard))
	assert.Equal(t, 3, palace.Count(deck.Priest))
	assert.Equal(t, deck.StandardSize, palace.Total())
	assert.Equal(t, "Watchman", palace.Appearance(deck.Guard))
	assert.Equal(t, "Queen", palace.Appearance(deck.Princess))
	assert.Equal(t, "Baron", palace.Appearance(deck.Baron))
}

func TestLoadServerConfigMissingFile(t *testing.T) {
	cfg, err := LoadServerConfig(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	assert.Equal(t, DefaultServerConfig(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoadServerConfigParseError(t *testing.T) {
	_, err := LoadServerConfig(writeConfig(t, `server {`))
	require.ErrorContains(t, err, "failed to parse HCL file")

	_, err = LoadServerConfig(writeConfig(t, `server { colour = "red" }`))
	require.ErrorContains(t, err, "failed to decode HCL")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ServerConfig)
		err    string
	}{
		{"bad port", func(c *ServerConfig) { c.Server.Port = 0 }, "invalid port"},
		{"negative timeout", func(c *ServerConfig) { c.Server.TurnTimeoutMs = -1 }, "invalid turn timeout"},
		{"no games", func(c *ServerConfig) { c.Games = nil }, "at least one game"},
		{"duplicate game", func(c *ServerConfig) { c.Games = append(c.Games, c.Games[0]) }, "defined more than once"},
		{"unknown catalog", func(c *ServerConfig) { c.Games[0].Catalog = "tarot" }, "tarot"},
		{"too many seats", func(c *ServerConfig) { c.Games[0].Seats = 5 }, "seats must be between 2 and 4"},
		{"too many bots", func(c *ServerConfig) {
			c.Games[0].Seats = 2
			c.Games[0].Bots = []string{"random", "random", "random"}
		}, "do not fit"},
		{"no human seat", func(c *ServerConfig) { c.Games[0].Seats = 2 }, "no seat for players"},
		{"negative threshold", func(c *ServerConfig) { c.Games[0].TokenThreshold = -1 }, "must not be negative"},
		{"unknown strategy", func(c *ServerConfig) { c.Games[0].Bots = []string{"psychic"} }, "invalid bot strategy psychic"},
		{"bad catalog rank", func(c *ServerConfig) {
			c.Catalogs = []CatalogConfig{{ID: "odd", MaxPlayers: 4, Cards: []CardConfig{{Rank: "jester", Count: 1}}}}
		}, "invalid rank"},
		{"no rank", func(c *ServerConfig) {
			c.Catalogs = []CatalogConfig{{ID: "odd", MaxPlayers: 4, Cards: []CardConfig{{Rank: "none", Count: 1}}}}
		}, "invalid rank"},
		{"wrong deck size", func(c *ServerConfig) {
			c.Catalogs = []CatalogConfig{{ID: "odd", MaxPlayers: 4, Cards: []CardConfig{{Rank: "guard", Count: 6}}}}
		}, "want 16"},
		{"shadows builtin", func(c *ServerConfig) {
			c.Catalogs = []CatalogConfig{{ID: deck.DefaultCatalogID, MaxPlayers: 4}}
		}, "catalog classic: already defined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultServerConfig()
			tt.modify(cfg)
			require.ErrorContains(t, cfg.Validate(), tt.err)
		})
	}
}
