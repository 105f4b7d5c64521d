package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/lox/loveletter/internal/deck"
)

// Static styles for content elements
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true)

	GameLogStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	HandInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	ActionsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true)

	LowCardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8FB8DE")).
			Bold(true)

	CourtCardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#C39BD3")).
			Bold(true)

	PrincessCardStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FF6B6B")).
				Bold(true)

	PlayerInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

// cardStyle colours cards by strength band.
func cardStyle(r deck.Rank) lipgloss.Style {
	switch {
	case r == deck.Princess:
		return PrincessCardStyle
	case r.Strength() >= deck.Prince.Strength():
		return CourtCardStyle
	default:
		return LowCardStyle
	}
}
