package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/Dicklesworthstone/audiopin/internal/audio"
	"github.com/Dicklesworthstone/audiopin/internal/events"
	"github.com/Dicklesworthstone/audiopin/internal/notify"
	"github.com/Dicklesworthstone/audiopin/internal/pin"
	"github.com/Dicklesworthstone/audiopin/internal/prefs"
	"github.com/Dicklesworthstone/audiopin/internal/scheduler"
)

type fakeAudio struct {
	mu      sync.Mutex
	devices []audio.Device
	listErr error
	setErr  error
	lists   int
}

func (f *fakeAudio) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

func (f *fakeAudio) List(context.Context) ([]audio.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]audio.Device(nil), f.devices...), nil
}

func (f *fakeAudio) Current(ctx context.Context) (*audio.Device, error) {
	devs, err := f.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range devs {
		if d.IsDefault {
			return &d, nil
		}
	}
	return nil, nil
}

func (f *fakeAudio) SetDefault(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	for i := range f.devices {
		f.devices[i].IsDefault = f.devices[i].ID == id
	}
	return nil
}

type fakeWindows struct {
	mu      sync.Mutex
	running []string
	focus   []string
	scans   int
}

func (f *fakeWindows) calls() (scans, focus int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scans, len(f.focus)
}

func (f *fakeWindows) set(titles ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = titles
}

func (f *fakeWindows) RunningTitles(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++
	return append([]string(nil), f.running...), nil
}

func (f *fakeWindows) ShowAndFocus(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.focus = append(f.focus, "show")
	return nil
}

func (f *fakeWindows) SetAlwaysOnTop(_ context.Context, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if on {
		f.focus = append(f.focus, "top")
	} else {
		f.focus = append(f.focus, "untop")
	}
	return nil
}

type harness struct {
	svc   *Service
	clk   *testingclock.FakeClock
	audio *fakeAudio
	win   *fakeWindows
	bus   *events.Bus
	store *prefs.Store

	mu       sync.Mutex
	refreshs []events.DevicesRefreshed
	switches []events.DeviceSwitched
	passes   []bool
}

func (h *harness) lastRefresh() (events.DevicesRefreshed, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.refreshs) == 0 {
		return events.DevicesRefreshed{}, 0
	}
	return h.refreshs[len(h.refreshs)-1], len(h.refreshs)
}

func newHarness(t *testing.T, p prefs.Preferences, opts ...func(*Options)) *harness {
	t.Helper()
	h := buildHarness(t, p, opts...)
	require.NoError(t, h.svc.Start(context.Background()))
	require.Eventually(t, func() bool {
		st := h.svc.Status().Polls
		return st["devices"].Runs == 1 && st["windows"].Runs == 1
	}, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { _, n := h.lastRefresh(); return n > 0 }, time.Second, time.Millisecond)
	return h
}

// buildHarness wires a service over fakes without starting it.
func buildHarness(t *testing.T, p prefs.Preferences, opts ...func(*Options)) *harness {
	t.Helper()
	h := &harness{
		clk: testingclock.NewFakeClock(time.Unix(1700000000, 0)),
		audio: &fakeAudio{devices: []audio.Device{
			{ID: "alsa.speakers", Name: "Speakers", IsDefault: true},
			{ID: "bluez.phones", Name: "Headphones"},
		}},
		win: &fakeWindows{},
		bus: events.NewBus(),
	}
	h.store = prefs.NewStore(filepath.Join(t.TempDir(), "preferences.json"), h.bus, zerolog.Nop())
	require.NoError(t, h.store.Save(p))

	events.On(h.bus, func(m events.DevicesRefreshed) {
		h.mu.Lock()
		h.refreshs = append(h.refreshs, m)
		h.mu.Unlock()
	})
	events.On(h.bus, func(m events.DeviceSwitched) {
		h.mu.Lock()
		h.switches = append(h.switches, m)
		h.mu.Unlock()
	})
	events.On(h.bus, func(m events.PassthroughChanged) {
		h.mu.Lock()
		h.passes = append(h.passes, bool(m))
		h.mu.Unlock()
	})

	o := Options{
		Audio:      h.audio,
		Windows:    h.win,
		Focus:      h.win,
		Prefs:      h.store,
		Bus:        h.bus,
		Clock:      h.clk,
		Logger:     zerolog.Nop(),
		DevicePoll: 5 * time.Second,
		WindowPoll: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	svc, err := New(o)
	require.NoError(t, err)
	h.svc = svc
	t.Cleanup(svc.Stop)
	return h
}

func basePrefs() prefs.Preferences {
	return prefs.Preferences{
		ConfiguredDevices:    []string{"Headphones", "USB DAC", "Speakers"},
		MonitoredWindows:     []string{"Zoom Meeting"},
		AutoHideDelaySeconds: 3,
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	t.Parallel()
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestStartPublishesReconciledDevices(t *testing.T) {
	t.Parallel()
	h := newHarness(t, basePrefs())

	require.Eventually(t, func() bool { _, n := h.lastRefresh(); return n > 0 }, time.Second, time.Millisecond)
	msg, _ := h.lastRefresh()
	assert.Equal(t, []audio.DisplayEntry{
		{Name: "Headphones", IsAvailable: true},
		{Name: "USB DAC"},
		{Name: "Speakers", IsAvailable: true, IsCurrent: true},
	}, msg.Entries)
	assert.Equal(t, "Speakers", msg.Current)
}

func TestPrefsChangeRepublishesWithoutPolling(t *testing.T) {
	t.Parallel()
	h := newHarness(t, basePrefs())
	require.Eventually(t, func() bool { _, n := h.lastRefresh(); return n > 0 }, time.Second, time.Millisecond)

	_, err := h.store.Update(func(p *prefs.Preferences) error { return p.RemoveDevice("USB DAC") })
	require.NoError(t, err)

	msg, _ := h.lastRefresh()
	require.Len(t, msg.Entries, 2)
	assert.Equal(t, "Headphones", msg.Entries[0].Name)
}

func TestSwitchDevice(t *testing.T) {
	t.Parallel()
	h := newHarness(t, basePrefs())

	require.NoError(t, h.svc.SwitchDevice(context.Background(), "Headphones"))
	msg, _ := h.lastRefresh()
	assert.Equal(t, "Headphones", msg.Current)

	h.mu.Lock()
	assert.Equal(t, []events.DeviceSwitched{{Name: "Headphones", OK: true}}, h.switches)
	h.mu.Unlock()
}

func TestSwitchUnavailableDevice(t *testing.T) {
	t.Parallel()
	h := newHarness(t, basePrefs())

	err := h.svc.SwitchDevice(context.Background(), "USB DAC")
	assert.ErrorIs(t, err, audio.ErrDeviceNotFound)

	current, _ := h.audio.Current(context.Background())
	assert.Equal(t, "Speakers", current.Name)

	h.mu.Lock()
	require.Len(t, h.switches, 1)
	assert.False(t, h.switches[0].OK)
	h.mu.Unlock()

	msg, _ := h.lastRefresh()
	assert.False(t, msg.Entries[1].IsAvailable)
}

func TestSwitchBackendFailure(t *testing.T) {
	t.Parallel()
	h := newHarness(t, basePrefs())
	h.audio.mu.Lock()
	h.audio.setErr = errors.New("pactl: connection refused")
	h.audio.mu.Unlock()

	err := h.svc.SwitchDevice(context.Background(), "Headphones")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, audio.ErrDeviceNotFound)
}

func TestPassthroughBlocksSwitching(t *testing.T) {
	t.Parallel()
	h := newHarness(t, basePrefs())

	assert.True(t, h.svc.TogglePassthrough())
	assert.ErrorIs(t, h.svc.SwitchDevice(context.Background(), "Headphones"), ErrPassthrough)
	h.svc.SetPassthrough(true)
	assert.False(t, h.svc.TogglePassthrough())

	h.mu.Lock()
	assert.Equal(t, []bool{true, false}, h.passes)
	h.mu.Unlock()
}

func TestWindowCloseStartsCountdown(t *testing.T) {
	t.Parallel()
	h := newHarness(t, basePrefs())

	h.win.set("Zoom Meeting", "Terminal")
	h.clk.Step(2 * time.Second)
	require.Eventually(t, func() bool {
		return h.svc.Status().Polls["windows"].Runs >= 2
	}, time.Second, time.Millisecond)

	h.win.set("Terminal")
	require.Eventually(t, func() bool {
		h.clk.Step(2 * time.Second)
		return h.svc.PinState().Pinned()
	}, 2*time.Second, 5*time.Millisecond)
}

func TestTestCountdownMessage(t *testing.T) {
	t.Parallel()
	h := newHarness(t, basePrefs())

	h.svc.TestCountdown()
	assert.Equal(t, pin.State{Mode: pin.PinnedCountdown, Remaining: 3}, h.svc.PinState())

	h.svc.Unpin()
	assert.False(t, h.svc.PinState().Pinned())
}

func TestDeviceListFailureKeepsSnapshot(t *testing.T) {
	t.Parallel()
	h := newHarness(t, basePrefs())
	require.Eventually(t, func() bool { _, n := h.lastRefresh(); return n > 0 }, time.Second, time.Millisecond)

	h.audio.mu.Lock()
	h.audio.listErr = errors.New("pactl: timeout")
	h.audio.mu.Unlock()

	assert.Error(t, h.svc.RefreshDevices(context.Background()))
	assert.Len(t, h.svc.Snapshot().Available, 2)
}

func TestStopIsIdempotent(t *testing.T) {
	t.Parallel()
	h := newHarness(t, basePrefs())
	h.svc.Stop()
	h.svc.Stop()
}

func TestUpdatePrefsThroughService(t *testing.T) {
	t.Parallel()
	h := newHarness(t, basePrefs())
	require.Eventually(t, func() bool { _, n := h.lastRefresh(); return n > 0 }, time.Second, time.Millisecond)

	_, err := h.svc.UpdatePrefs(func(p *prefs.Preferences) error { return p.AddDevice("Speakers") })
	assert.ErrorIs(t, err, prefs.ErrDuplicate)

	doc, err := h.svc.UpdatePrefs(func(p *prefs.Preferences) error { return p.SetDelay(9) })
	require.NoError(t, err)
	assert.Equal(t, 9, doc.AutoHideDelaySeconds)
	assert.Equal(t, 9, h.svc.CurrentPrefs().AutoHideDelaySeconds)
}

func TestStopFreezesPollsAndCountdown(t *testing.T) {
	t.Parallel()
	h := newHarness(t, basePrefs())

	h.win.set("Zoom Meeting")
	h.clk.Step(2 * time.Second)
	require.Eventually(t, func() bool {
		return h.svc.Status().Polls["windows"].Runs >= 2
	}, time.Second, time.Millisecond)

	h.win.set()
	require.Eventually(t, func() bool {
		h.clk.Step(2 * time.Second)
		return h.svc.PinState().Pinned()
	}, 2*time.Second, 5*time.Millisecond)

	h.svc.Stop()

	state := h.svc.PinState()
	lists := h.audio.listCalls()
	scans, focus := h.win.calls()
	polls := h.svc.Status().Polls

	for i := 0; i < 10; i++ {
		h.clk.Step(5 * time.Second)
	}

	assert.Equal(t, state, h.svc.PinState())
	assert.Equal(t, lists, h.audio.listCalls())
	gotScans, gotFocus := h.win.calls()
	assert.Equal(t, scans, gotScans)
	assert.Equal(t, focus, gotFocus)
	assert.Equal(t, polls, h.svc.Status().Polls)

	// the bus subscriptions are gone too
	h.svc.TestCountdown()
	assert.Equal(t, state, h.svc.PinState())
}

func TestStartFailureTearsDown(t *testing.T) {
	t.Parallel()
	h := buildHarness(t, basePrefs())

	require.NoError(t, h.svc.sched.Start(context.Background()))
	assert.ErrorIs(t, h.svc.Start(context.Background()), scheduler.ErrAlreadyStarted)

	h.svc.TestCountdown()
	assert.False(t, h.svc.PinState().Pinned())
	h.svc.SetPinned(true, nil)
	assert.False(t, h.svc.PinState().Pinned())

	h.svc.Stop()
}

func TestNoNotificationsAfterStop(t *testing.T) {
	t.Parallel()
	logPath := filepath.Join(t.TempDir(), "notify.log")
	n := notify.New(notify.Config{
		Enabled: true,
		Events:  []string{string(notify.EventDeviceSwitched)},
		Log:     notify.LogConfig{Enabled: true, Path: logPath},
	})
	h := newHarness(t, basePrefs(), func(o *Options) { o.Notifier = n })

	lines := func() int {
		data, err := os.ReadFile(logPath)
		if err != nil {
			return 0
		}
		return strings.Count(string(data), "\n")
	}

	require.NoError(t, h.svc.SwitchDevice(context.Background(), "Headphones"))
	require.Eventually(t, func() bool { return lines() == 1 }, time.Second, time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			_ = h.svc.SwitchDevice(context.Background(), "Speakers")
		}
	}()
	h.svc.Stop()
	wg.Wait()

	sent := lines()
	require.NoError(t, h.svc.SwitchDevice(context.Background(), "Headphones"))
	assert.Never(t, func() bool { return lines() != sent }, 100*time.Millisecond, 5*time.Millisecond)
}

func TestStatus(t *testing.T) {
	t.Parallel()
	h := newHarness(t, basePrefs())

	h.win.set("Zoom Meeting", "Terminal")
	h.clk.Step(2 * time.Second)
	require.Eventually(t, func() bool {
		return len(h.svc.Status().Watching) == 1
	}, time.Second, time.Millisecond)

	st := h.svc.Status()
	assert.Equal(t, []string{"Zoom Meeting"}, st.Watching)
	assert.False(t, st.Pin.Pinned())
	assert.False(t, st.Passthrough)
	assert.Contains(t, st.Polls, "devices")
}
