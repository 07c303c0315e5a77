// Package tui is an interactive terminal screen for reviewing pending alerts.
package tui

import (
	"context"

	"github.com/Veraticus/subscription-sentinel/internal/approval"
	"github.com/Veraticus/subscription-sentinel/internal/model"
	"github.com/Veraticus/subscription-sentinel/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// AlertSource lists alerts.
type AlertSource interface {
	GetAlerts(ctx context.Context) ([]model.Alert, error)
}

// Reviewer applies user decisions. *approval.Service satisfies it.
type Reviewer interface {
	Resolve(ctx context.Context, alertID string, action approval.Action) (*approval.Resolution, error)
	Dismiss(ctx context.Context, alertID string) (*model.Alert, error)
}

var _ Reviewer = (*approval.Service)(nil)

// Config holds TUI configuration.
type Config struct {
	Alerts   AlertSource
	Reviewer Reviewer
	Theme    themes.Theme
	Currency string
	Width    int
	Height   int
}

// Model holds the review screen state.
type Model struct {
	ctx       context.Context
	alerts    AlertSource
	reviewer  Reviewer
	lastError error
	theme     themes.Theme
	keymap    KeyMap
	help      help.Model
	currency  string
	status    string
	pending   []model.Alert
	cursor    int
	reviewed  int
	width     int
	height    int
	busy      bool
	ready     bool
	quitting  bool
}

// NewModel creates a review model. ctx bounds every storage call it makes.
func NewModel(ctx context.Context, cfg Config) Model {
	if cfg.Width == 0 {
		cfg.Width = 80
	}
	if cfg.Height == 0 {
		cfg.Height = 24
	}
	if cfg.Currency == "" {
		cfg.Currency = "₹"
	}
	h := help.New()
	h.Width = cfg.Width
	return Model{
		ctx:      ctx,
		alerts:   cfg.Alerts,
		reviewer: cfg.Reviewer,
		theme:    cfg.Theme,
		keymap:   DefaultKeyMap(),
		help:     h,
		currency: cfg.Currency,
		width:    cfg.Width,
		height:   cfg.Height,
	}
}

// Init loads the pending alerts.
func (m Model) Init() tea.Cmd {
	return m.loadAlerts()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case alertsLoadedMsg:
		m.ready = true
		if msg.err != nil {
			m.lastError = msg.err
			return m, nil
		}
		m.pending = msg.alerts
		m.clampCursor()

	case actionDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.lastError = msg.err
			return m, nil
		}
		m.lastError = nil
		m.status = msg.status
		m.reviewed++
		m.remove(msg.alertID)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleKey maps key presses to navigation and review actions.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.ForceQuit), key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keymap.ToggleHelp):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keymap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keymap.Down):
		if m.cursor < len(m.pending)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keymap.Home):
		m.cursor = 0
	case key.Matches(msg, m.keymap.End):
		m.cursor = max(len(m.pending)-1, 0)
	case key.Matches(msg, m.keymap.Refresh):
		return m, m.loadAlerts()
	}

	alert, ok := m.Selected()
	if !ok || m.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keymap.Keep):
		m.busy = true
		return m, m.resolveAlert(alert, approval.ActionKeep)
	case key.Matches(msg, m.keymap.Cancel):
		m.busy = true
		return m, m.resolveAlert(alert, approval.ActionCancel)
	case key.Matches(msg, m.keymap.Dismiss):
		m.busy = true
		return m, m.dismissAlert(alert)
	}
	return m, nil
}

// Selected returns the alert under the cursor.
func (m Model) Selected() (model.Alert, bool) {
	if m.cursor < 0 || m.cursor >= len(m.pending) {
		return model.Alert{}, false
	}
	return m.pending[m.cursor], true
}

// Pending returns the alerts still awaiting a decision.
func (m Model) Pending() []model.Alert {
	return m.pending
}

// Reviewed returns how many alerts were acted on this session.
func (m Model) Reviewed() int {
	return m.reviewed
}

func (m *Model) remove(id string) {
	for i, a := range m.pending {
		if a.ID == id {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			break
		}
	}
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.pending) {
		m.cursor = len(m.pending) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
