// Package app wires audiopin's components into one long-running service:
// background polls, the pin controller, preferences and device switching.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"k8s.io/utils/clock"

	"github.com/Dicklesworthstone/audiopin/internal/audio"
	"github.com/Dicklesworthstone/audiopin/internal/events"
	"github.com/Dicklesworthstone/audiopin/internal/notify"
	"github.com/Dicklesworthstone/audiopin/internal/pin"
	"github.com/Dicklesworthstone/audiopin/internal/prefs"
	"github.com/Dicklesworthstone/audiopin/internal/scheduler"
	"github.com/Dicklesworthstone/audiopin/internal/window"
)

// ErrPassthrough is returned by SwitchDevice while passthrough mode is on.
var ErrPassthrough = errors.New("passthrough mode is on, switching disabled")

// Options carries the collaborators of a Service. Audio, Windows, Focus
// and Prefs are required.
type Options struct {
	Audio    audio.Backend
	Windows  window.Lister
	Focus    window.Controller
	Prefs    *prefs.Store
	Bus      *events.Bus
	Notifier *notify.Notifier
	Clock    clock.WithTicker
	Logger   zerolog.Logger

	DevicePoll time.Duration
	WindowPoll time.Duration
	// WatchPrefs follows external edits to the preferences file.
	WatchPrefs bool
}

// Snapshot is the latest device view.
type Snapshot struct {
	Entries   []audio.DisplayEntry `json:"entries"`
	Available []audio.Device       `json:"available"`
	Current   *audio.Device        `json:"current"`
}

// Service owns every timer, subscription and worker of a running audiopin.
// Start and Stop bracket their lifetime as a unit.
type Service struct {
	audio    audio.Backend
	prefs    *prefs.Store
	bus      *events.Bus
	notifier *notify.Notifier
	log      zerolog.Logger

	pin     *pin.Controller
	tracker *window.Tracker
	sched   *scheduler.Group

	devicePoll time.Duration
	windowPoll time.Duration
	watchPrefs bool

	passthrough atomic.Bool

	mu        sync.Mutex
	snapshot  Snapshot
	subs      []*events.Subscription
	stopWatch func()
	ctx       context.Context
	cancel    context.CancelFunc
	stopped   bool
	bg        sync.WaitGroup
}

// New validates options and builds a stopped Service.
func New(opts Options) (*Service, error) {
	if opts.Audio == nil || opts.Windows == nil || opts.Focus == nil || opts.Prefs == nil {
		return nil, fmt.Errorf("app: audio, windows, focus and prefs are required")
	}
	if opts.Bus == nil {
		opts.Bus = events.NewBus(events.WithLogger(opts.Logger))
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.DevicePoll <= 0 {
		opts.DevicePoll = 5 * time.Second
	}
	if opts.WindowPoll <= 0 {
		opts.WindowPoll = 2 * time.Second
	}

	log := opts.Logger
	return &Service{
		audio:    opts.Audio,
		prefs:    opts.Prefs,
		bus:      opts.Bus,
		notifier: opts.Notifier,
		log:      log.With().Str("component", "app").Logger(),
		pin: pin.NewController(pin.Options{
			Window: opts.Focus,
			Bus:    opts.Bus,
			Clock:  opts.Clock,
			Logger: log.With().Str("component", "pin").Logger(),
		}),
		tracker:    window.NewTracker(opts.Windows, log.With().Str("component", "windows").Logger()),
		sched:      scheduler.New(opts.Clock, log.With().Str("component", "scheduler").Logger()),
		devicePoll: opts.DevicePoll,
		windowPoll: opts.WindowPoll,
		watchPrefs: opts.WatchPrefs,
		snapshot:   Snapshot{Entries: []audio.DisplayEntry{}},
	}, nil
}

// Bus returns the service's message bus.
func (s *Service) Bus() *events.Bus { return s.bus }

// Prefs returns the preferences store.
func (s *Service) Prefs() *prefs.Store { return s.prefs }

// Start loads preferences and launches the pin worker, the subscriptions
// and the polls. If any of them fails to start, everything already started
// is torn down again before the error is returned.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return scheduler.ErrAlreadyStarted
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	ctx = s.ctx
	s.mu.Unlock()

	if _, err := s.prefs.Load(); err != nil {
		s.notify(notify.NewPrefsCorruptEvent(s.prefs.Path()))
	}

	s.pin.Start(ctx)

	s.mu.Lock()
	s.subs = append(s.subs,
		events.On(s.bus, func(m events.TestCountdown) {
			s.log.Info().Int("delay", m.Delay).Msg("test countdown requested")
			s.pin.WindowClosed(m.Delay)
		}),
		events.On(s.bus, func(events.ConfigUpdated) {
			s.republish()
		}),
	)
	s.mu.Unlock()

	if s.watchPrefs {
		stop, err := s.prefs.Watch()
		if err != nil {
			s.log.Warn().Err(err).Msg("preferences watch unavailable")
		} else {
			s.mu.Lock()
			s.stopWatch = stop
			s.mu.Unlock()
		}
	}

	tasks := []scheduler.Task{
		{Name: "devices", Interval: s.devicePoll, Immediate: true, Run: s.RefreshDevices},
		{Name: "windows", Interval: s.windowPoll, Immediate: true, Run: s.pollWindows},
	}
	for _, t := range tasks {
		if err := s.sched.Add(t); err != nil {
			s.Stop()
			return err
		}
	}
	if err := s.sched.Start(ctx); err != nil {
		s.Stop()
		return err
	}

	s.log.Info().Dur("device_poll", s.devicePoll).Dur("window_poll", s.windowPoll).Msg("audiopin started")
	return nil
}

// Stop cancels polls, the countdown, subscriptions and the prefs watch,
// and waits for all of them.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	subs := s.subs
	stopWatch := s.stopWatch
	s.subs, s.stopWatch = nil, nil
	if cancel == nil || s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
	if stopWatch != nil {
		stopWatch()
	}
	s.sched.Stop()
	s.pin.Stop()
	cancel()
	s.bg.Wait()
	s.log.Info().Msg("audiopin stopped")
}

// RefreshDevices queries the backend and publishes the reconciled view.
// On failure the previous snapshot is kept.
func (s *Service) RefreshDevices(ctx context.Context) error {
	available, err := s.audio.List(ctx)
	if err != nil {
		return fmt.Errorf("listing devices: %w", err)
	}
	var current *audio.Device
	for i := range available {
		if available[i].IsDefault {
			d := available[i]
			current = &d
			break
		}
	}

	s.mu.Lock()
	s.snapshot.Available = available
	s.snapshot.Current = current
	s.mu.Unlock()

	s.republish()
	return nil
}

// republish reconciles the last device snapshot with the current
// preferences and broadcasts it.
func (s *Service) republish() {
	configured := s.prefs.Current().ConfiguredDevices

	s.mu.Lock()
	entries := audio.Reconcile(configured, s.snapshot.Available, s.snapshot.Current)
	s.snapshot.Entries = entries
	msg := events.DevicesRefreshed{Entries: append([]audio.DisplayEntry(nil), entries...)}
	if s.snapshot.Current != nil {
		msg.Current = s.snapshot.Current.Name
	}
	s.mu.Unlock()

	s.bus.Publish(msg)
}

// Snapshot returns the latest device view.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Snapshot{
		Entries:   append([]audio.DisplayEntry{}, s.snapshot.Entries...),
		Available: append([]audio.Device{}, s.snapshot.Available...),
	}
	if s.snapshot.Current != nil {
		c := *s.snapshot.Current
		out.Current = &c
	}
	return out
}

func (s *Service) pollWindows(ctx context.Context) error {
	p := s.prefs.Current()
	closed := s.tracker.Poll(ctx, p.MonitoredWindows)
	if len(closed) == 0 {
		return nil
	}

	for _, title := range closed {
		s.log.Info().Str("window", title).Int("delay", p.AutoHideDelaySeconds).Msg("watched window closed")
		s.notify(notify.NewWindowClosedEvent(title, p.AutoHideDelaySeconds))
	}
	s.pin.WindowClosed(p.AutoHideDelaySeconds)
	return nil
}

// SwitchDevice makes the configured device called name the default output.
// The outcome is published as DeviceSwitched either way.
func (s *Service) SwitchDevice(ctx context.Context, name string) error {
	if s.passthrough.Load() {
		return ErrPassthrough
	}

	_, err := audio.Switch(ctx, s.audio, name)
	switch {
	case err == nil:
		s.log.Info().Str("device", name).Msg("switched output device")
		s.bus.Publish(events.DeviceSwitched{Name: name, OK: true})
		s.notify(notify.NewDeviceSwitchedEvent(name))
	case errors.Is(err, audio.ErrDeviceNotFound):
		s.log.Warn().Str("device", name).Msg("switch target not available")
		s.bus.Publish(events.DeviceSwitched{Name: name, Error: err.Error()})
		s.notify(notify.NewDeviceUnavailableEvent(name))
	default:
		s.log.Warn().Err(err).Str("device", name).Msg("switch failed")
		s.bus.Publish(events.DeviceSwitched{Name: name, Error: err.Error()})
		s.notify(notify.NewDeviceSwitchFailedEvent(name, err))
	}

	if rerr := s.RefreshDevices(ctx); rerr != nil {
		s.log.Warn().Err(rerr).Msg("refresh after switch failed")
	}
	return err
}

// PinState returns the pin controller state.
func (s *Service) PinState() pin.State { return s.pin.State() }

// SetPinned forwards an external pin request.
func (s *Service) SetPinned(pinned bool, delay *int) { s.pin.SetPinned(pinned, delay) }

// Unpin releases the pin; the user clicked the unpin control.
func (s *Service) Unpin() { s.pin.Unpin() }

// TestCountdown publishes a test-countdown request with the configured
// delay.
func (s *Service) TestCountdown() {
	s.bus.Publish(events.TestCountdown{Delay: s.prefs.Current().AutoHideDelaySeconds})
}

// Passthrough reports whether passthrough mode is on.
func (s *Service) Passthrough() bool { return s.passthrough.Load() }

// SetPassthrough sets passthrough mode and publishes the change.
func (s *Service) SetPassthrough(on bool) {
	if s.passthrough.Swap(on) == on {
		return
	}
	s.log.Info().Bool("passthrough", on).Msg("passthrough mode changed")
	s.bus.Publish(events.PassthroughChanged(on))
}

// TogglePassthrough flips passthrough mode and returns the new value.
func (s *Service) TogglePassthrough() bool {
	on := !s.passthrough.Load()
	s.SetPassthrough(on)
	return on
}

// notify delivers in the background so a slow channel never stalls a poll.
// Nothing is sent once Stop has begun.
func (s *Service) notify(evt notify.Event) {
	if !s.notifier.Enabled(evt.Type) {
		return
	}
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	s.bg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.bg.Done()
		nctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := s.notifier.Notify(nctx, evt); err != nil {
			s.log.Warn().Err(err).Str("event", string(evt.Type)).Msg("notification failed")
		}
	}()
}

// Status is a point-in-time view of a running service.
type Status struct {
	Pin         pin.State                      `json:"pin"`
	Passthrough bool                           `json:"passthrough"`
	Watching    []string                       `json:"watching"`
	Polls       map[string]scheduler.TaskStats `json:"polls"`
}

// Status reports the pin state, the watched windows seen running on the
// last poll and the per-poll counters.
func (s *Service) Status() Status {
	return Status{
		Pin:         s.pin.State(),
		Passthrough: s.passthrough.Load(),
		Watching:    s.tracker.Seen(),
		Polls:       s.sched.Stats(),
	}
}

// CurrentPrefs returns the current preferences document.
func (s *Service) CurrentPrefs() prefs.Preferences { return s.prefs.Current() }

// UpdatePrefs applies an edit to the preferences and persists it.
func (s *Service) UpdatePrefs(fn func(*prefs.Preferences) error) (prefs.Preferences, error) {
	return s.prefs.Update(fn)
}
