// Package tui is the full-screen front end: a scrolling transcript, a multi-line input
// and a status bar. The bubbletea event loop is the only goroutine that touches the App.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mcpchat/internal/app"
	"mcpchat/internal/config"
	"mcpchat/internal/transcript"
	"mcpchat/pkg/chattypes"
)

const (
	inputHeight = 3
	// status bar and pending line
	chromeHeight = 2
)

// Model is the root bubbletea model.
type Model struct {
	app  *app.App
	ctx  context.Context
	keys keyMap

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model

	width, height int
	ready         bool
	spinning      bool
	dirty         bool
	state         chattypes.ConnState
	quitting      bool
}

// New creates the model and subscribes it to the App. It must be called before the
// program starts.
func New(ctx context.Context, a *app.App) *Model {
	input := textarea.New()
	input.Placeholder = "Send a message or /help"
	input.ShowLineNumbers = false
	input.CharLimit = 0
	input.SetHeight(inputHeight)
	input.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	input.Focus()

	keys := defaultKeyMap()

	vp := viewport.New(80, 20)
	vp.KeyMap = viewport.KeyMap{
		PageUp:   keys.PageUp,
		PageDown: keys.PageDown,
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		app:      a,
		ctx:      ctx,
		keys:     keys,
		viewport: vp,
		input:    input,
		spinner:  sp,
		state:    a.ConnectionState(),
		dirty:    true,
	}

	a.Observe(m.onChange)
	a.OnStatus(m.onStatus)
	a.OnPreferences(func(config.Preferences) { m.dirty = true })
	return m
}

// Init starts the connection.
func (m *Model) Init() tea.Cmd {
	m.app.Start(m.ctx)
	return textarea.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case callbackMsg:
		msg.fn()

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case spinner.TickMsg:
		if !m.app.Transcript().IsPending() {
			m.spinning = false
			break
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			cmds = append(cmds, cmd)
			break
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.dirty {
		m.refresh()
	}
	if m.app.Transcript().IsPending() && !m.spinning {
		m.spinning = true
		cmds = append(cmds, m.spinner.Tick)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.app.Stop()
		return tea.Quit, true
	case key.Matches(msg, m.keys.Send):
		text := m.input.Value()
		m.input.Reset()
		m.app.Submit(text)
		return nil, true
	case key.Matches(msg, m.keys.ToggleReasoning):
		m.app.ToggleReasoning()
		return nil, true
	case key.Matches(msg, m.keys.ToggleTheme):
		m.app.ToggleDarkMode()
		return nil, true
	case key.Matches(msg, m.keys.NewChat):
		m.app.NewChat()
		return nil, true
	case key.Matches(msg, m.keys.Clear):
		m.app.Clear()
		return nil, true
	case key.Matches(msg, m.keys.PageUp, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd, true
	}
	return nil, false
}

func (m *Model) onChange(_ transcript.Change) {
	m.dirty = true
}

func (m *Model) onStatus(state chattypes.ConnState) {
	m.state = state
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.input.SetWidth(width)
	m.viewport.Width = width
	m.viewport.Height = max(1, height-inputHeight-chromeHeight)
	m.ready = true
	// Restyle marks the model dirty when the width changed.
	m.app.Resize(max(20, width-2))
	m.dirty = true
}

// refresh rebuilds the viewport content from the transcript, following the bottom
// unless the user scrolled up.
func (m *Model) refresh() {
	follow := m.viewport.AtBottom() || m.viewport.TotalLineCount() == 0
	m.viewport.SetContent(m.renderTranscript())
	if follow {
		m.viewport.GotoBottom()
	}
	m.dirty = false
}

func (m *Model) renderTranscript() string {
	th := m.app.Theme()
	showReasoning := m.app.Preferences().ShowReasoning

	var b strings.Builder
	for _, entry := range m.app.Transcript().Entries() {
		unit := entry.Unit
		if unit.Kind == chattypes.UnitReasoning && !showReasoning {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(th.UnitStyle(unit.Kind).Render(unit.Label))
		b.WriteString(" ")
		b.WriteString(th.Timestamp.Render(unit.Time.Format("15:04:05")))
		b.WriteString("\n")
		b.WriteString(strings.TrimRight(entry.Markup, "\n"))
	}
	return b.String()
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Starting..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		m.pendingLine(),
		m.input.View(),
		m.statusBar(),
	)
}

func (m *Model) pendingLine() string {
	if !m.app.Transcript().IsPending() {
		return ""
	}
	return m.spinner.View() + " " + m.app.Theme().Info.Render("Waiting for response...")
}

func (m *Model) statusBar() string {
	th := m.app.Theme()
	prefs := m.app.Preferences()

	connStyle := th.Disconnected
	if m.state == chattypes.StateOpen {
		connStyle = th.Connected
	}

	reasoning := "off"
	if prefs.ShowReasoning {
		reasoning = "on"
	}
	themeName := "light"
	if prefs.DarkMode {
		themeName = "dark"
	}

	var help []string
	for _, b := range m.keys.shortHelp() {
		h := b.Help()
		help = append(help, h.Key+" "+h.Desc)
	}

	left := fmt.Sprintf("%s %s | reasoning %s | theme %s",
		connStyle.Render("● "+m.state.String()), m.app.Endpoint(), reasoning, themeName)
	return left + "  " + th.Timestamp.Render(strings.Join(help, " · "))
}
