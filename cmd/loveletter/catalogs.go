package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lox/loveletter/internal/deck"
	"github.com/lox/loveletter/internal/server"
)

// CatalogsCmd prints the known catalogs side by side.
type CatalogsCmd struct {
	Config string `short:"c" help:"Also list custom catalogs from this server config"`
}

func (c *CatalogsCmd) Run() error {
	registry := deck.NewRegistry()
	if c.Config != "" {
		cfg, err := server.LoadServerConfig(c.Config)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if registry, err = cfg.Registry(); err != nil {
			return err
		}
	}

	var catalogs []deck.Catalog
	headers := []string{"Rank", "Strength"}
	for _, id := range registry.IDs() {
		catalog, err := registry.Lookup(id)
		if err != nil {
			return err
		}
		catalogs = append(catalogs, catalog)
		headers = append(headers, fmt.Sprintf("%s (max %d)", id, catalog.PlayerLimit()))
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...)
	for _, r := range deck.AllRanks() {
		row := []string{r.Title(), strconv.Itoa(r.Strength())}
		for _, catalog := range catalogs {
			row = append(row, fmt.Sprintf("%d× %s", catalog.Count(r), catalog.AppearanceOf(r)))
		}
		t.Row(row...)
	}

	fmt.Println(t)
	return nil
}
