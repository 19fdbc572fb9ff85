package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/audiopin/internal/events"
)

// relay forwards bus messages into the program without ever blocking the
// publisher. Bus handlers run on the publishing goroutine, which may be
// the program's own update loop, so a direct Program.Send could deadlock.
type relay struct {
	mu      sync.Mutex
	pending []tea.Msg
	kick    chan struct{}
	subs    []*events.Subscription
}

func newRelay() *relay {
	return &relay{kick: make(chan struct{}, 1)}
}

func (r *relay) push(msg tea.Msg) {
	r.mu.Lock()
	r.pending = append(r.pending, msg)
	r.mu.Unlock()
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// attach subscribes to every topic the surfaces render.
func (r *relay) attach(bus *events.Bus) {
	r.subs = append(r.subs,
		events.On(bus, func(m events.DevicesRefreshed) { r.push(m) }),
		events.On(bus, func(m events.PinModeChanged) { r.push(m) }),
		events.On(bus, func(m events.CountdownTick) { r.push(m) }),
		events.On(bus, func(m events.ConfigUpdated) { r.push(m) }),
		events.On(bus, func(m events.DarkModeChanged) { r.push(m) }),
		events.On(bus, func(m events.PassthroughChanged) { r.push(m) }),
		events.On(bus, func(m events.DeviceSwitched) { r.push(m) }),
	)
}

func (r *relay) detach() {
	for _, s := range r.subs {
		s.Unsubscribe()
	}
	r.subs = nil
}

// run delivers queued messages in order until ctx is done.
func (r *relay) run(ctx context.Context, send func(tea.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.kick:
		}

		r.mu.Lock()
		batch := r.pending
		r.pending = nil
		r.mu.Unlock()

		for _, m := range batch {
			send(m)
		}
	}
}
