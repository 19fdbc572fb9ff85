// Package events is the in-process pub/sub relay that keeps audiopin's UI
// surfaces consistent. Messages are typed per topic and delivered
// synchronously to the handlers registered when Publish is called.
package events

import (
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Handler is a callback for delivered messages. Handlers run on the
// publisher's goroutine and must hand long work off asynchronously.
type Handler func(Message)

// wildcard is the pseudo-topic used by SubscribeAll
const wildcard Topic = "*"

// handlerEntry wraps a handler with a unique ID for safe unsubscription
type handlerEntry struct {
	id      uint64
	handler Handler
	active  *atomic.Bool
}

// Subscription is returned from Subscribe. Unsubscribe is idempotent.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe removes the handler. After it returns the handler is not
// invoked again, even by a Publish already in progress.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

// Bus provides topic-based pub/sub between UI surfaces
type Bus struct {
	subscribers map[Topic][]handlerEntry
	nextID      atomic.Uint64
	mu          sync.RWMutex
	log         zerolog.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used to report handler panics.
func WithLogger(log zerolog.Logger) Option {
	return func(b *Bus) {
		b.log = log
	}
}

// NewBus creates an empty bus
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		subscribers: make(map[Topic][]handlerEntry),
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a handler for a topic
func (b *Bus) Subscribe(topic Topic, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID.Add(1)
	active := &atomic.Bool{}
	active.Store(true)
	b.subscribers[topic] = append(b.subscribers[topic], handlerEntry{id: id, handler: handler, active: active})

	return &Subscription{cancel: func() {
		active.Store(false)

		b.mu.Lock()
		defer b.mu.Unlock()
		handlers := b.subscribers[topic]
		for i, h := range handlers {
			if h.id == id {
				// Remove handler by replacing with last and truncating
				handlers[i] = handlers[len(handlers)-1]
				b.subscribers[topic] = handlers[:len(handlers)-1]
				return
			}
		}
	}}
}

// SubscribeAll registers a handler for every topic (wildcard)
func (b *Bus) SubscribeAll(handler Handler) *Subscription {
	return b.Subscribe(wildcard, handler)
}

// Publish delivers msg to every handler currently subscribed to its topic
// and to wildcard subscribers. There is no replay: later subscribers never
// see it.
func (b *Bus) Publish(msg Message) {
	topic := msg.Topic()

	// Get handlers under read lock
	b.mu.RLock()
	entries := make([]handlerEntry, 0, len(b.subscribers[topic])+len(b.subscribers[wildcard]))
	entries = append(entries, b.subscribers[topic]...)
	entries = append(entries, b.subscribers[wildcard]...)
	b.mu.RUnlock()

	// Call handlers outside of lock
	for _, entry := range entries {
		if !entry.active.Load() {
			continue
		}
		b.deliver(topic, entry.handler, msg)
	}
}

// deliver isolates one handler so a panic cannot starve the others
func (b *Bus) deliver(topic Topic, h Handler, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Str("topic", string(topic)).Interface("panic", r).Msg("event handler panicked")
		}
	}()
	h(msg)
}

// subscriberCount returns the number of subscribers for a topic
func (b *Bus) subscriberCount(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[topic])
}

// Envelope is the JSON form of a message written by Stream.
type Envelope struct {
	Topic     Topic     `json:"topic"`
	Timestamp time.Time `json:"timestamp"`
	Payload   Message   `json:"payload"`
}

// Stream writes every published message to w as JSON lines.
func (b *Bus) Stream(w io.Writer) *Subscription {
	var mu sync.Mutex
	enc := json.NewEncoder(w)
	return b.SubscribeAll(func(m Message) {
		mu.Lock()
		defer mu.Unlock()
		if err := enc.Encode(Envelope{Topic: m.Topic(), Timestamp: time.Now().UTC(), Payload: m}); err != nil {
			b.log.Warn().Err(err).Msg("streaming event")
		}
	})
}

// On subscribes a handler for a single message type. The topic is taken
// from the type itself.
func On[M Message](b *Bus, handler func(M)) *Subscription {
	var zero M
	return b.Subscribe(zero.Topic(), func(m Message) {
		if v, ok := m.(M); ok {
			handler(v)
		}
	})
}
