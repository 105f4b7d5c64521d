package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/loveletter/internal/bot"
	"github.com/lox/loveletter/internal/game"
	"github.com/lox/loveletter/internal/table"
)

// TUIModel represents the Bubble Tea model for a local game against bots
type TUIModel struct {
	table    *table.Table
	human    string
	bots     map[string]bot.Agent
	logger   *log.Logger
	ctx      context.Context
	botDelay time.Duration

	// UI components
	logViewport viewport.Model
	actionInput textinput.Model

	// State
	gameLog     []string
	quitting    bool
	focusedPane int // 0 = log, 1 = input
	status      string

	// Display state, refreshed after every outcome
	public  game.PublicState
	private game.PrivateState
	myTurn  bool
	over    bool
	winner  string

	// Dimensions
	width       int
	height      int
	initialized bool

	// Test mode
	testMode    bool
	capturedLog []string
}

// outcomeMsg carries the events of a command run against the table.
type outcomeMsg struct {
	events []game.Event
	err    error
}

// botTurnMsg asks the model to act for a bot.
type botTurnMsg struct {
	round  string
	turn   int
	player string
}

// ModelOption configures a TUIModel.
type ModelOption func(*TUIModel)

// WithTestMode captures log entries and skips viewport updates.
func WithTestMode() ModelOption {
	return func(m *TUIModel) { m.testMode = true }
}

// WithBotDelay pauses between bot plays so they can be followed.
func WithBotDelay(d time.Duration) ModelOption {
	return func(m *TUIModel) { m.botDelay = d }
}

// NewTUIModel creates a model where human plays against bots at t.
func NewTUIModel(t *table.Table, human string, bots map[string]bot.Agent, logger *log.Logger, opts ...ModelOption) *TUIModel {
	// Sized properly when WindowSizeMsg arrives
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "Enter a play number, or play <card> [target] [guess]"
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	m := &TUIModel{
		table:       t,
		human:       human,
		bots:        bots,
		logger:      logger.WithPrefix("tui"),
		ctx:         context.Background(),
		logViewport: vp,
		actionInput: ti,
		focusedPane: 1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init deals the first round.
func (m *TUIModel) Init() tea.Cmd {
	if m.testMode {
		return m.startRound()
	}
	return tea.Batch(textinput.Blink, m.startRound())
}

func (m *TUIModel) startRound() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.table.StartRound(m.ctx)
		return outcomeMsg{events: snap.Events, err: err}
	}
}

func (m *TUIModel) submit(play game.Play) tea.Cmd {
	return func() tea.Msg {
		out, err := m.table.Submit(m.ctx, play)
		return outcomeMsg{events: out.Events, err: err}
	}
}

// Update handles messages in the TUI
func (m *TUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case outcomeMsg:
		return m, m.handleOutcome(msg)

	case botTurnMsg:
		return m, m.playBot(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.actionInput.Focus()
			} else {
				m.focusedPane = 0
				m.actionInput.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				input := strings.TrimSpace(m.actionInput.Value())
				m.actionInput.SetValue("")
				return m, m.processInput(input)
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "pgup", "b":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageUp()
			}
		case "pgdown", "f":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageDown()
			}
		case "home", "g":
			if m.focusedPane == 0 {
				m.logViewport.GotoTop()
			}
		case "end", "G":
			if m.focusedPane == 0 {
				m.logViewport.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == 1 {
		m.actionInput, cmd = m.actionInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *TUIModel) processInput(input string) tea.Cmd {
	if m.over {
		m.quitting = true
		return tea.Quit
	}

	cmd, err := parseCommand(input, m.private)
	if err != nil {
		m.status = err.Error()
		return nil
	}

	switch cmd.kind {
	case commandQuit:
		m.quitting = true
		return tea.Quit
	case commandHelp:
		m.status = helpText
		return nil
	case commandPlay:
		if !m.myTurn {
			m.status = "Not your turn"
			return nil
		}
		m.status = ""
		m.myTurn = false
		m.logger.Debug("Human play", "card", cmd.play.CardID, "target", cmd.play.Target, "guess", cmd.play.Guess)
		return m.submit(cmd.play)
	}
	return nil
}

// handleOutcome logs what the human may see, then decides who acts next.
func (m *TUIModel) handleOutcome(msg outcomeMsg) tea.Cmd {
	if msg.err != nil {
		switch {
		case game.IsRecoverable(msg.err):
			m.status = "Rejected: " + game.Reason(msg.err)
		case errors.Is(msg.err, table.ErrClosed):
			m.status = "Game closed"
			return nil
		default:
			m.logger.Error("Command failed", "error", msg.err)
			m.status = "Error: " + msg.err.Error()
			return nil
		}
	}

	for _, e := range msg.events {
		for _, line := range Describe(e, m.human) {
			m.AddLogEntry(line)
		}
	}
	return m.refresh()
}

func (m *TUIModel) refresh() tea.Cmd {
	public, err := m.table.PublicState(m.ctx)
	if err != nil {
		m.status = "Error: " + err.Error()
		return nil
	}
	m.public = public

	if public.GameOver {
		m.over = true
		m.myTurn = false
		m.winner = public.GameWinner
		return nil
	}

	if public.Current == m.human {
		private, err := m.table.PrivateState(m.ctx, m.human)
		if err != nil {
			m.status = "Error: " + err.Error()
			return nil
		}
		m.private = private
		m.myTurn = true
		return nil
	}

	private, err := m.table.PrivateState(m.ctx, m.human)
	if err == nil {
		m.private = private
	}
	m.myTurn = false

	if _, ok := m.bots[public.Current]; !ok {
		return nil
	}
	next := botTurnMsg{round: public.RoundID, turn: public.Turn, player: public.Current}
	if m.botDelay <= 0 {
		return func() tea.Msg { return next }
	}
	return tea.Tick(m.botDelay, func(time.Time) tea.Msg { return next })
}

func (m *TUIModel) playBot(msg botTurnMsg) tea.Cmd {
	agent := m.bots[msg.player]
	state, err := m.table.PrivateRoundState(m.ctx, msg.round, msg.player)
	if err != nil || state.Current != msg.player || state.Turn != msg.turn {
		return nil
	}

	d, err := agent.Decide(state)
	if err != nil {
		m.logger.Warn("Bot failed to decide, using default", "player", msg.player, "error", err)
		play, derr := bot.Default(state)
		if derr != nil {
			m.status = "Error: " + derr.Error()
			return nil
		}
		d.Play = play
	}
	m.logger.Debug("Bot play", "player", msg.player, "reasoning", d.Reasoning)
	return m.submit(d.Play)
}

// View renders the TUI
func (m *TUIModel) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	// Action pane (bottom, full width)
	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	actionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(max(m.width-2, 1)).
		Height(max(actionHeight, 1))
	if m.focusedPane == 1 {
		actionStyle = actionStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	actionPane := actionStyle.Render(actionContent)

	// Sidebar pane (right of the log, same height)
	sidebarContent := m.renderSidebarPane()
	sidebarWidth := max(lipgloss.Width(sidebarContent), 28)
	paneHeight := max(m.height-actionHeight-4, 1)

	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(sidebarWidth).
		Height(paneHeight).
		Render(sidebarContent)

	// Log pane (top left)
	logWidth := max(m.width-sidebarWidth-4, 1)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	m.logViewport.Width = logWidth
	m.logViewport.Height = paneHeight

	// On first proper sizing, follow the end of the log
	if !m.initialized && logWidth > 1 && paneHeight > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(logWidth).
		Height(paneHeight)
	if m.focusedPane == 0 {
		logStyle = logStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	logPane := logStyle.Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

// renderSidebarPane shows the table: round, deck, seats and tokens.
func (m *TUIModel) renderSidebarPane() string {
	var content strings.Builder
	s := m.public

	content.WriteString(HeaderStyle.Render(fmt.Sprintf(" Round %d ", s.Number)))
	content.WriteString("\n")
	content.WriteString(WarningStyle.Render(fmt.Sprintf("Deck: %d", s.DeckSize)))
	if s.Threshold > 0 {
		content.WriteString(" | ")
		content.WriteString(WarningStyle.Render(fmt.Sprintf("Win at: %d", s.Threshold)))
	}
	content.WriteString("\n\n")

	content.WriteString(InfoStyle.Render("Players:"))
	content.WriteString("\n")
	for _, p := range s.Players {
		marker := " "
		if p.ID == s.Current {
			marker = ">"
		}
		var flags []string
		if p.Protected {
			flags = append(flags, "protected")
		}
		if p.Eliminated {
			flags = append(flags, "out")
		}
		line := fmt.Sprintf("%s %s  %s", marker, p.ID, strings.Repeat("*", p.Tokens))
		if len(flags) > 0 {
			line += " (" + strings.Join(flags, ", ") + ")"
		}
		if p.Eliminated {
			content.WriteString(InfoStyle.Render(line))
		} else {
			content.WriteString(PlayerInfoStyle.Render(line))
		}
		content.WriteString("\n")
	}

	if len(s.FaceUpBurned) > 0 {
		content.WriteString("\n")
		content.WriteString(InfoStyle.Render("Set aside:"))
		content.WriteString("\n  " + formatCards(s.FaceUpBurned) + "\n")
	}

	if known := m.knownHands(); len(known) > 0 {
		content.WriteString("\n")
		content.WriteString(InfoStyle.Render("You know:"))
		content.WriteString("\n")
		for _, line := range known {
			content.WriteString("  " + line + "\n")
		}
	}
	return content.String()
}

// knownHands lists the latest knowledge per opponent still in the round.
func (m *TUIModel) knownHands() []string {
	latest := make(map[string]game.Knowledge)
	for _, k := range m.private.Knowledge {
		if prev, ok := latest[k.About]; !ok || k.Turn >= prev.Turn {
			latest[k.About] = k
		}
	}
	var lines []string
	for id, k := range latest {
		if p, ok := m.public.Seat(id); ok && p.Eliminated {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", id, CardName(k.Card)))
	}
	sort.Strings(lines)
	return lines
}

// renderActionPane shows the hand, the legal plays and the input field.
func (m *TUIModel) renderActionPane() string {
	var content strings.Builder

	switch {
	case m.over:
		content.WriteString(SuccessStyle.Render(fmt.Sprintf("Game over. %s wins.", m.winner)))
		content.WriteString("\n")
		m.actionInput.Placeholder = "Enter to exit"
	case m.myTurn:
		content.WriteString(HandInfoStyle.Render("Your hand: " + formatCards(m.private.Hand)))
		content.WriteString("\n")
		content.WriteString(m.renderPlays())
		content.WriteString("\n")
		m.actionInput.Placeholder = "Enter a play number, or play <card> [target] [guess]"
	default:
		if len(m.private.Hand) > 0 {
			content.WriteString(HandInfoStyle.Render("Your hand: " + formatCards(m.private.Hand)))
			content.WriteString("\n")
		}
		content.WriteString(HandInfoStyle.Render("Waiting..."))
		content.WriteString("\n")
		m.actionInput.Placeholder = "'quit' to exit"
	}

	if m.status != "" {
		content.WriteString(ErrorStyle.Render(m.status))
		content.WriteString("\n")
	}

	content.WriteString(m.actionInput.View())
	content.WriteString("\n")

	help := "Tab to scroll log • Enter to submit • Ctrl+C to quit"
	if m.focusedPane == 0 {
		help = "Log focused: ↑↓ scroll, PgUp/PgDn half page, Home/End, Tab to input"
	}
	content.WriteString(InfoStyle.Render(help))
	return content.String()
}

func (m *TUIModel) renderPlays() string {
	var lines []string
	for _, h := range hints(m.private) {
		lines = append(lines, ActionsStyle.Render(h.label())+" "+h.Text)
	}
	if len(lines) == 0 {
		return ErrorStyle.Render("[no plays available]")
	}
	return strings.Join(lines, "\n")
}

// AddLogEntry adds an entry to the game log
func (m *TUIModel) AddLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)

	if m.testMode {
		m.capturedLog = append(m.capturedLog, entry)
		return
	}

	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// GetCapturedLog returns the captured log entries (test mode only)
func (m *TUIModel) GetCapturedLog() []string {
	if !m.testMode {
		return nil
	}
	return append([]string(nil), m.capturedLog...)
}

// Over reports whether the game has ended, and its winner.
func (m *TUIModel) Over() (string, bool) {
	return m.winner, m.over
}
