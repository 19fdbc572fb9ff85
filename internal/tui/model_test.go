package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/audiopin/internal/app"
	"github.com/Dicklesworthstone/audiopin/internal/audio"
	"github.com/Dicklesworthstone/audiopin/internal/events"
	"github.com/Dicklesworthstone/audiopin/internal/pin"
	"github.com/Dicklesworthstone/audiopin/internal/prefs"
	"github.com/Dicklesworthstone/audiopin/internal/tui/theme"
)

type fakeBackend struct {
	mu          sync.Mutex
	bus         *events.Bus
	snap        app.Snapshot
	state       pin.State
	passthrough bool
	doc         prefs.Preferences
	switched    []string
	switchErr   error
	unpins      int
	pins        int
	tests       int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		bus: events.NewBus(),
		snap: app.Snapshot{
			Entries: []audio.DisplayEntry{
				{Name: "Speakers", IsAvailable: true, IsCurrent: true},
				{Name: "Headphones", IsAvailable: true},
				{Name: "HDMI", IsAvailable: false},
			},
			Current: &audio.Device{ID: "1", Name: "Speakers", IsDefault: true},
		},
		doc: prefs.Preferences{
			ConfiguredDevices:    []string{"Speakers", "Headphones", "HDMI"},
			MonitoredWindows:     []string{"Zoom Meeting"},
			AutoHideDelaySeconds: 5,
		},
	}
}

func (f *fakeBackend) Bus() *events.Bus       { return f.bus }
func (f *fakeBackend) Snapshot() app.Snapshot { return f.snap }
func (f *fakeBackend) PinState() pin.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}
func (f *fakeBackend) Passthrough() bool { return f.passthrough }
func (f *fakeBackend) SwitchDevice(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.switched = append(f.switched, name)
	return f.switchErr
}
func (f *fakeBackend) SetPinned(bool, *int) { f.pins++ }
func (f *fakeBackend) Unpin()               { f.unpins++ }
func (f *fakeBackend) TogglePassthrough() bool {
	f.passthrough = !f.passthrough
	return f.passthrough
}
func (f *fakeBackend) TestCountdown()                  { f.tests++ }
func (f *fakeBackend) CurrentPrefs() prefs.Preferences { return f.doc.Clone() }
func (f *fakeBackend) UpdatePrefs(fn func(*prefs.Preferences) error) (prefs.Preferences, error) {
	next := f.doc.Clone()
	if err := fn(&next); err != nil {
		return f.doc.Clone(), err
	}
	f.doc = next
	return next.Clone(), nil
}

func newModel(t *testing.T) (Model, *fakeBackend) {
	t.Helper()
	b := newFakeBackend()
	return New(context.Background(), b, theme.Dark), b
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press feeds a key and runs any resulting command once
func press(m Model, k tea.KeyMsg) Model {
	next, cmd := m.Update(k)
	m = next.(Model)
	if cmd != nil {
		if msg := cmd(); msg != nil {
			next, _ = m.Update(msg)
			m = next.(Model)
		}
	}
	return m
}

// send feeds a message without running the resulting command
func send(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestNewTakesInitialState(t *testing.T) {
	m, _ := newModel(t)
	assert.Equal(t, SurfaceMain, m.Surface())
	assert.Len(t, m.entries, 3)
	assert.Equal(t, "Speakers", m.current)
	assert.Equal(t, "dark", m.Theme().Name)
}

func TestSwitchSelectedDevice(t *testing.T) {
	m, b := newModel(t)

	m = press(m, keyRunes("j"))
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []string{"Headphones"}, b.switched)
	assert.Equal(t, "Headphones", m.current)
	assert.Contains(t, m.status, "Switched to Headphones")
}

func TestQuickSwitchByNumber(t *testing.T) {
	m, b := newModel(t)
	m = press(m, keyRunes("2"))
	assert.Equal(t, []string{"Headphones"}, b.switched)
	assert.Equal(t, 1, m.cursor)
}

func TestSwitchRefusesUnavailableAndCurrent(t *testing.T) {
	m, b := newModel(t)

	m = press(m, keyRunes("3"))
	assert.Empty(t, b.switched)
	assert.True(t, m.statusErr)

	m = press(m, keyRunes("1"))
	assert.Empty(t, b.switched)
}

func TestPassthroughBlocksSwitching(t *testing.T) {
	m, b := newModel(t)

	m = press(m, keyRunes("p"))
	require.True(t, m.passthrough)

	m = press(m, keyRunes("2"))
	assert.Empty(t, b.switched)
	assert.Contains(t, m.status, "Passthrough")

	m = press(m, keyRunes("p"))
	assert.False(t, m.passthrough)
}

func TestSwitchErrorShown(t *testing.T) {
	m, b := newModel(t)
	b.switchErr = errors.New("pactl exploded")

	m = press(m, keyRunes("2"))
	assert.True(t, m.statusErr)
	assert.Equal(t, "pactl exploded", m.status)
}

func TestBusMessagesUpdateView(t *testing.T) {
	m, b := newModel(t)

	next, _ := m.Update(events.DevicesRefreshed{
		Entries: []audio.DisplayEntry{{Name: "Headphones", IsAvailable: true, IsCurrent: true}},
		Current: "Headphones",
	})
	m = next.(Model)
	assert.Len(t, m.entries, 1)
	assert.Equal(t, "Headphones", m.current)

	b.state = pin.State{Mode: pin.PinnedCountdown, Remaining: 5}
	next, _ = m.Update(events.PinModeChanged(true))
	m = next.(Model)
	next, _ = m.Update(events.CountdownTick{Remaining: 3})
	m = next.(Model)
	assert.Contains(t, m.View(), "unpins in 3s")

	b.state = pin.State{}
	next, _ = m.Update(events.PinModeChanged(false))
	m = next.(Model)
	assert.Contains(t, m.View(), "not pinned")
}

func TestCursorClampedWhenListShrinks(t *testing.T) {
	m, _ := newModel(t)
	m = press(m, keyRunes("j"))
	m = press(m, keyRunes("j"))
	require.Equal(t, 2, m.cursor)

	next, _ := m.Update(events.DevicesRefreshed{Entries: []audio.DisplayEntry{{Name: "Speakers"}}})
	m = next.(Model)
	assert.Equal(t, 0, m.cursor)
}

func TestPinKeys(t *testing.T) {
	m, b := newModel(t)

	m = press(m, keyRunes("u"))
	m = press(m, keyRunes("P"))
	m = press(m, keyRunes("t"))
	assert.Equal(t, 1, b.unpins)
	assert.Equal(t, 1, b.pins)
	assert.Equal(t, 1, b.tests)

	m = press(m, keyRunes("h"))
	assert.Equal(t, 2, b.unpins)
	assert.Contains(t, m.View(), "hidden")

	next, _ := m.Update(events.PinModeChanged(true))
	m = next.(Model)
	assert.NotContains(t, m.View(), "hidden")
}

func TestThemeTogglePublishes(t *testing.T) {
	m, b := newModel(t)

	var got []bool
	events.On(b.bus, func(d events.DarkModeChanged) { got = append(got, bool(d)) })

	m = press(m, keyRunes("T"))
	assert.Equal(t, "light", m.Theme().Name)
	assert.Equal(t, []bool{false}, got)

	next, _ := m.Update(events.DarkModeChanged(true))
	m = next.(Model)
	assert.Equal(t, "dark", m.Theme().Name)
}

func TestPrefsSurfaceAddDevice(t *testing.T) {
	m, b := newModel(t)

	m = press(m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, SurfacePrefs, m.Surface())
	assert.Contains(t, m.View(), "Devices (3/4)")

	m = send(m, keyRunes("a"))
	require.True(t, m.prefs.editing)
	for _, r := range "USB DAC" {
		next, _ := m.Update(keyRunes(string(r)))
		m = next.(Model)
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.prefs.editing)
	assert.Equal(t, []string{"Speakers", "Headphones", "HDMI", "USB DAC"}, b.doc.ConfiguredDevices)
	assert.Contains(t, m.View(), "Devices (4/4)")
}

func TestPrefsLimitReportsError(t *testing.T) {
	m, b := newModel(t)
	b.doc.ConfiguredDevices = append(b.doc.ConfiguredDevices, "USB DAC")

	m = press(m, tea.KeyMsg{Type: tea.KeyTab})
	m = send(m, keyRunes("a"))
	next, _ := m.Update(keyRunes("X"))
	m = next.(Model)
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, m.statusErr)
	assert.Len(t, b.doc.ConfiguredDevices, 4)
}

func TestPrefsRemoveAndMove(t *testing.T) {
	m, b := newModel(t)
	m = press(m, tea.KeyMsg{Type: tea.KeyTab})

	m = press(m, keyRunes("J"))
	assert.Equal(t, []string{"Headphones", "Speakers", "HDMI"}, b.doc.ConfiguredDevices)
	assert.Equal(t, 1, m.prefs.cursor)

	m = press(m, keyRunes("d"))
	assert.Equal(t, []string{"Headphones", "HDMI"}, b.doc.ConfiguredDevices)

	// windows section
	m = press(m, keyRunes("s"))
	m = press(m, keyRunes("d"))
	assert.Empty(t, b.doc.MonitoredWindows)
}

func TestPrefsDelayBounds(t *testing.T) {
	m, b := newModel(t)
	m = press(m, tea.KeyMsg{Type: tea.KeyTab})

	m = press(m, keyRunes("+"))
	assert.Equal(t, 6, b.doc.AutoHideDelaySeconds)

	b.doc.AutoHideDelaySeconds = 0
	m.prefs.apply(b.doc)
	m = press(m, keyRunes("-"))
	assert.Equal(t, 0, b.doc.AutoHideDelaySeconds)
	assert.Contains(t, m.View(), "Auto-hide delay: 0s")
}

func TestEscCancelsEdit(t *testing.T) {
	m, b := newModel(t)
	m = press(m, tea.KeyMsg{Type: tea.KeyTab})
	m = send(m, keyRunes("a"))
	m = press(m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.False(t, m.prefs.editing)
	assert.Len(t, b.doc.ConfiguredDevices, 3)

	m = press(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, SurfaceMain, m.Surface())
}

func TestConfigUpdatedRefreshesPrefsPanel(t *testing.T) {
	m, _ := newModel(t)
	next, _ := m.Update(events.ConfigUpdated{Devices: []string{"Only"}, AutoHideDelaySeconds: 9})
	m = next.(Model)
	assert.Equal(t, []string{"Only"}, m.prefs.doc.ConfiguredDevices)
	assert.Equal(t, 9, m.prefs.doc.AutoHideDelaySeconds)
}

func TestQuit(t *testing.T) {
	m, _ := newModel(t)
	_, cmd := m.Update(keyRunes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestTruncateUsesDisplayWidth(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	got := truncate("ヘッドホンスピーカー", 6)
	assert.True(t, strings.HasSuffix(got, "…"))
}
