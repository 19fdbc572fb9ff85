package pin

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"k8s.io/utils/clock"

	"github.com/Dicklesworthstone/audiopin/internal/events"
	"github.com/Dicklesworthstone/audiopin/internal/window"
)

// DefaultTickInterval is the countdown step.
const DefaultTickInterval = time.Second

// effect is one ordered side effect of a transition
type effect struct {
	raise   bool
	onTop   *bool
	publish []events.Message
}

// Controller owns the single PinState. Every transition runs under mu, so
// transitions from the presence poll, the countdown ticker and the UI are
// totally ordered. OS calls and notifications are queued and applied in
// order by one worker goroutine so a slow window manager never blocks a
// transition.
type Controller struct {
	win      window.Controller
	bus      *events.Bus
	clock    clock.WithTicker
	interval time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	state   State
	gen     uint64
	stopCd  chan struct{}
	pending []effect
	kick    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	stopped bool
	wg      sync.WaitGroup

	// live countdown goroutines, never more than one once superseded ones exit
	countdowns atomic.Int32
}

// Options configures a Controller
type Options struct {
	Window       window.Controller
	Bus          *events.Bus
	Clock        clock.WithTicker
	TickInterval time.Duration
	Logger       zerolog.Logger
}

// NewController creates an unpinned controller. Call Start before use.
func NewController(opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.Bus == nil {
		opts.Bus = events.NewBus()
	}
	return &Controller{
		win:      opts.Window,
		bus:      opts.Bus,
		clock:    opts.Clock,
		interval: opts.TickInterval,
		log:      opts.Logger,
		kick:     make(chan struct{}, 1),
	}
}

// Start launches the effect worker. It is a no-op if already started.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.stopped {
		return
	}
	c.started = true
	c.ctx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(1)
	go c.runEffects(c.ctx)
}

// Stop cancels the countdown and the effect worker and waits for both.
// Transitions requested after Stop are ignored.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.stopCountdownLocked()
	if c.cancel != nil {
		c.cancel()
	}
	c.pending = nil
	c.mu.Unlock()

	c.wg.Wait()
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// WindowClosed pins with a countdown of delay seconds. While already
// pinned the countdown restarts from delay. A zero delay surfaces the
// window once and unpins in the same transition.
func (c *Controller) WindowClosed(delay int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.countdownLocked(delay)
}

// SetPinned is the external pin request. A supplied delay behaves exactly
// like WindowClosed(delay), zero included; without one the pin holds
// until Unpin.
func (c *Controller) SetPinned(pinned bool, delay *int) {
	if !pinned {
		c.Unpin()
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	if delay != nil {
		c.countdownLocked(*delay)
		return
	}

	prev := c.state
	c.stopCountdownLocked()
	c.state = State{Mode: PinnedManual}
	c.enqueueLocked(c.enterEffect(prev))
}

func (c *Controller) countdownLocked(delay int) {
	delay = clampDelay(delay)
	if delay > 0 {
		c.enterCountdownLocked(delay)
		return
	}

	prev := c.state
	c.stopCountdownLocked()
	c.state = State{Mode: Unpinned}
	off := false
	e := effect{raise: true, onTop: &off}
	if !prev.Pinned() {
		e.publish = []events.Message{events.PinModeChanged(true), events.PinModeChanged(false)}
	} else {
		e.publish = []events.Message{events.PinModeChanged(false)}
	}
	c.enqueueLocked(e)
	c.log.Debug().Msg("surfaced without countdown")
}

// Unpin releases the pin and cancels any countdown.
func (c *Controller) Unpin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.unpinLocked()
}

func (c *Controller) unpinLocked() {
	c.stopCountdownLocked()
	if !c.state.Pinned() {
		return
	}
	c.state = State{Mode: Unpinned}
	off := false
	c.enqueueLocked(effect{onTop: &off, publish: []events.Message{events.PinModeChanged(false)}})
}

func (c *Controller) enterCountdownLocked(delay int) {
	prev := c.state
	c.stopCountdownLocked()
	c.state = State{Mode: PinnedCountdown, Remaining: delay}

	e := c.enterEffect(prev)
	e.publish = append(e.publish, events.CountdownTick{Remaining: delay})
	c.enqueueLocked(e)

	c.gen++
	done := make(chan struct{})
	c.stopCd = done
	t := c.clock.NewTicker(c.interval)
	c.wg.Add(1)
	c.countdowns.Add(1)
	go c.runCountdown(c.gen, t, done)

	c.log.Debug().Int("delay", delay).Str("from", prev.Mode.String()).Msg("pin countdown started")
}

// enterEffect raises the window on every entry into a pinned state and
// announces the pin only when it was not already pinned.
func (c *Controller) enterEffect(prev State) effect {
	on := true
	e := effect{raise: true, onTop: &on}
	if !prev.Pinned() {
		e.publish = []events.Message{events.PinModeChanged(true)}
	}
	return e
}

func (c *Controller) stopCountdownLocked() {
	if c.stopCd != nil {
		close(c.stopCd)
		c.stopCd = nil
	}
}

func (c *Controller) runCountdown(gen uint64, t clock.Ticker, done <-chan struct{}) {
	defer c.wg.Done()
	defer c.countdowns.Add(-1)
	defer t.Stop()

	for {
		select {
		case <-done:
			return
		case <-t.C():
			if !c.tick(gen) {
				return
			}
		}
	}
}

// tick advances the countdown belonging to gen. It returns false once that
// countdown is over or superseded.
func (c *Controller) tick(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped || gen != c.gen || c.state.Mode != PinnedCountdown {
		return false
	}
	if c.state.Remaining > 1 {
		c.state.Remaining--
		c.enqueueLocked(effect{publish: []events.Message{events.CountdownTick{Remaining: c.state.Remaining}}})
		return true
	}

	c.log.Debug().Msg("pin countdown expired")
	c.unpinLocked()
	return false
}

func (c *Controller) enqueueLocked(e effect) {
	c.pending = append(c.pending, e)
	select {
	case c.kick <- struct{}{}:
	default:
	}
}

func (c *Controller) runEffects(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.kick:
		}

		c.mu.Lock()
		batch := c.pending
		c.pending = nil
		c.mu.Unlock()

		for _, e := range batch {
			if ctx.Err() != nil {
				return
			}
			c.apply(ctx, e)
		}
	}
}

func (c *Controller) apply(ctx context.Context, e effect) {
	if c.win != nil {
		if e.raise {
			if err := c.win.ShowAndFocus(ctx); err != nil {
				c.log.Warn().Err(err).Msg("show and focus failed")
			}
		}
		if e.onTop != nil {
			if err := c.win.SetAlwaysOnTop(ctx, *e.onTop); err != nil {
				c.log.Warn().Err(err).Bool("on_top", *e.onTop).Msg("set always-on-top failed")
			}
		}
	}
	for _, m := range e.publish {
		c.bus.Publish(m)
	}
}
