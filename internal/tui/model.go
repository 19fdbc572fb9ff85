// Package tui implements audiopin's terminal surfaces: the main panel
// (device list, pin status) and the preferences panel.
package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/audiopin/internal/app"
	"github.com/Dicklesworthstone/audiopin/internal/audio"
	"github.com/Dicklesworthstone/audiopin/internal/events"
	"github.com/Dicklesworthstone/audiopin/internal/pin"
	"github.com/Dicklesworthstone/audiopin/internal/prefs"
	"github.com/Dicklesworthstone/audiopin/internal/tui/theme"
)

// Backend is what the surfaces need from the running service.
type Backend interface {
	Bus() *events.Bus
	Snapshot() app.Snapshot
	PinState() pin.State
	Passthrough() bool
	SwitchDevice(ctx context.Context, name string) error
	SetPinned(pinned bool, delay *int)
	Unpin()
	TogglePassthrough() bool
	TestCountdown()
	CurrentPrefs() prefs.Preferences
	UpdatePrefs(fn func(*prefs.Preferences) error) (prefs.Preferences, error)
}

// Surface selects which panel is shown
type Surface int

const (
	SurfaceMain Surface = iota
	SurfacePrefs
)

func (s Surface) String() string {
	if s == SurfacePrefs {
		return "preferences"
	}
	return "main"
}

// Command results delivered back to Update.
type (
	switchDoneMsg struct {
		name string
		err  error
	}
	prefsDoneMsg struct {
		doc prefs.Preferences
		err error
	}
	passthroughMsg bool
)

// Model is the root bubbletea model.
type Model struct {
	ctx     context.Context
	backend Backend
	keys    KeyMap
	help    help.Model
	theme   theme.Theme
	styles  styles
	surface Surface

	width  int
	height int

	entries     []audio.DisplayEntry
	current     string
	cursor      int
	pin         pin.State
	passthrough bool
	// hidden collapses the main panel until the next pin
	hidden bool

	status    string
	statusErr bool

	prefs prefsPanel
}

// New creates the root model with the backend's current state.
func New(ctx context.Context, b Backend, th theme.Theme) Model {
	snap := b.Snapshot()
	m := Model{
		ctx:         ctx,
		backend:     b,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		entries:     snap.Entries,
		pin:         b.PinState(),
		passthrough: b.Passthrough(),
		prefs:       newPrefsPanel(b.CurrentPrefs()),
	}
	if snap.Current != nil {
		m.current = snap.Current.Name
	}
	m.setTheme(th)
	return m
}

func (m *Model) setTheme(t theme.Theme) {
	m.theme = t
	m.styles = newStyles(t)
	m.help.Styles.ShortKey = m.styles.Title
	m.help.Styles.ShortDesc = m.styles.Muted
	m.help.Styles.FullKey = m.styles.Title
	m.help.Styles.FullDesc = m.styles.Muted
	m.prefs.input.PromptStyle = m.styles.Title
}

// Surface returns the panel currently shown.
func (m Model) Surface() Surface { return m.surface }

// Theme returns the active palette.
func (m Model) Theme() theme.Theme { return m.theme }

// Init implements tea.Model
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case events.DevicesRefreshed:
		m.entries = msg.Entries
		m.current = msg.Current
		m.clampCursor()
		return m, nil

	case events.PinModeChanged:
		m.pin = m.backend.PinState()
		if bool(msg) {
			m.hidden = false
		}
		return m, nil

	case events.CountdownTick:
		r := msg.Remaining
		m.pin = pin.State{Mode: pin.PinnedCountdown, Remaining: r}
		return m, nil

	case events.ConfigUpdated:
		m.prefs.apply(prefs.Preferences{
			ConfiguredDevices:    msg.Devices,
			MonitoredWindows:     msg.MonitoredWindows,
			AutoHideDelaySeconds: msg.AutoHideDelaySeconds,
		})
		return m, nil

	case events.DarkModeChanged:
		if m.theme.Name != theme.Plain.Name && m.theme.Dark != bool(msg) {
			m.setTheme(theme.Toggle(m.theme))
		}
		return m, nil

	case events.PassthroughChanged:
		m.passthrough = bool(msg)
		return m, nil

	case passthroughMsg:
		m.passthrough = bool(msg)
		return m, nil

	case events.DeviceSwitched:
		if msg.OK {
			m.setStatus("Switched to "+msg.Name, false)
		} else {
			m.setStatus(msg.Error, true)
		}
		return m, nil

	case switchDoneMsg:
		switch {
		case msg.err == nil:
			m.current = msg.name
			m.setStatus("Switched to "+msg.name, false)
		case errors.Is(msg.err, app.ErrPassthrough):
			m.setStatus("Passthrough is on, switching disabled", true)
		default:
			m.setStatus(msg.err.Error(), true)
		}
		return m, nil

	case prefsDoneMsg:
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
			return m, nil
		}
		m.prefs.apply(msg.doc)
		m.setStatus("Preferences saved", false)
		return m, nil

	case tea.KeyMsg:
		if m.surface == SurfacePrefs {
			return m.updatePrefs(msg)
		}
		return m.updateMain(msg)
	}

	if m.prefs.editing {
		var cmd tea.Cmd
		m.prefs.input, cmd = m.prefs.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.entries) {
		m.cursor = len(m.entries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Surface):
		m.surface = SurfacePrefs
		m.prefs.apply(m.backend.CurrentPrefs())

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Select):
		return m, m.switchTo(m.cursor)

	case key.Matches(msg, m.keys.Quick):
		idx := int(msg.Runes[0] - '1')
		if idx < len(m.entries) {
			m.cursor = idx
		}
		return m, m.switchTo(idx)

	case key.Matches(msg, m.keys.Unpin):
		m.backend.Unpin()

	case key.Matches(msg, m.keys.Pin):
		m.backend.SetPinned(true, nil)

	case key.Matches(msg, m.keys.Hide):
		m.hidden = true
		m.backend.Unpin()

	case key.Matches(msg, m.keys.Test):
		m.backend.TestCountdown()

	case key.Matches(msg, m.keys.Passthrough):
		b := m.backend
		return m, func() tea.Msg { return passthroughMsg(b.TogglePassthrough()) }

	case key.Matches(msg, m.keys.Theme):
		m.setTheme(theme.Toggle(m.theme))
		bus, dark := m.backend.Bus(), m.theme.Dark
		return m, func() tea.Msg {
			bus.Publish(events.DarkModeChanged(dark))
			return nil
		}
	}
	return m, nil
}

// switchTo requests a switch to entry idx. Passthrough and unavailable
// entries are refused locally without calling the backend.
func (m *Model) switchTo(idx int) tea.Cmd {
	if idx < 0 || idx >= len(m.entries) {
		return nil
	}
	if m.passthrough {
		m.setStatus("Passthrough is on, switching disabled", true)
		return nil
	}
	e := m.entries[idx]
	if !e.IsAvailable {
		m.setStatus(e.Name+" is not available", true)
		return nil
	}
	if e.IsCurrent {
		return nil
	}

	ctx, b, name := m.ctx, m.backend, e.Name
	m.setStatus("Switching to "+name+"…", false)
	return func() tea.Msg {
		return switchDoneMsg{name: name, err: b.SwitchDevice(ctx, name)}
	}
}

// View implements tea.Model
func (m Model) View() string {
	if m.surface == SurfacePrefs {
		return m.prefsView()
	}
	return m.mainView()
}
