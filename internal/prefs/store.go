package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Dicklesworthstone/audiopin/internal/events"
	"github.com/Dicklesworthstone/audiopin/internal/watcher"
)

// Store persists Preferences as a JSON file and broadcasts every change on
// the bus. All reads and writes go through one mutex.
type Store struct {
	path string
	bus  *events.Bus
	log  zerolog.Logger

	mu     sync.Mutex
	cur    Preferences
	loaded bool
}

// NewStore creates a store for path. bus may be nil for one-shot CLI use.
func NewStore(path string, bus *events.Bus, log zerolog.Logger) *Store {
	return &Store{path: path, bus: bus, log: log, cur: Default()}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Load reads the file. A missing file yields defaults without error. An
// unreadable or invalid document yields defaults and an error wrapping
// ErrCorrupt; the bad file is left in place.
func (s *Store) Load() (Preferences, error) {
	p, err := s.read()

	s.mu.Lock()
	s.cur = p
	s.loaded = true
	s.mu.Unlock()

	if errors.Is(err, ErrCorrupt) {
		s.log.Warn().Err(err).Str("path", s.path).Msg("preferences unreadable, using defaults")
	}
	return p.Clone(), err
}

func (s *Store) read() (Preferences, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	p := Default()
	if err := json.Unmarshal(data, &p); err != nil {
		return Default(), fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if p.ConfiguredDevices == nil {
		p.ConfiguredDevices = []string{}
	}
	if p.MonitoredWindows == nil {
		p.MonitoredWindows = []string{}
	}
	if err := p.Validate(); err != nil {
		return Default(), fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return p, nil
}

// Current returns the last loaded or saved document, loading it on first
// use.
func (s *Store) Current() Preferences {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()
	if !loaded {
		p, _ := s.Load()
		return p
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.Clone()
}

// Save validates and writes p, then publishes config-updated.
func (s *Store) Save(p Preferences) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if err := s.write(p); err != nil {
		s.mu.Unlock()
		return err
	}
	s.cur = p.Clone()
	s.loaded = true
	s.mu.Unlock()

	s.publish(p)
	return nil
}

// Update applies fn to a copy of the current document. If fn fails or the
// result is invalid nothing is written. An unchanged document is not
// rewritten or re-published.
func (s *Store) Update(fn func(*Preferences) error) (Preferences, error) {
	s.Current()

	s.mu.Lock()
	cur := s.cur.Clone()
	next := s.cur.Clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return cur, err
	}
	if err := next.Validate(); err != nil {
		s.mu.Unlock()
		return cur, err
	}
	if next.Equal(cur) {
		s.mu.Unlock()
		return next, nil
	}
	if err := s.write(next); err != nil {
		s.mu.Unlock()
		return cur, err
	}
	s.cur = next.Clone()
	s.mu.Unlock()

	s.publish(next)
	return next, nil
}

// write replaces the file atomically. Called with mu held.
func (s *Store) write(p Preferences) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing preferences: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing preferences: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing preferences: %w", err)
	}
	return nil
}

func (s *Store) publish(p Preferences) {
	if s.bus != nil {
		s.bus.Publish(p.Message())
	}
}

// Watch follows external edits to the file. A changed, valid document
// becomes current and is published; our own writes and corrupt edits are
// ignored. The returned func stops watching.
func (s *Store) Watch(opts ...watcher.Option) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	opts = append([]watcher.Option{watcher.WithErrorHandler(func(err error) {
		s.log.Warn().Err(err).Msg("preferences watch error")
	})}, opts...)

	w, err := watcher.WatchFile(s.path, s.reload, opts...)
	if err != nil {
		return nil, err
	}
	return func() { w.Close() }, nil
}

func (s *Store) reload() {
	p, err := s.read()
	if err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("ignoring invalid external preferences edit")
		return
	}

	s.mu.Lock()
	if p.Equal(s.cur) {
		s.mu.Unlock()
		return
	}
	s.cur = p.Clone()
	s.loaded = true
	s.mu.Unlock()

	s.log.Info().Str("path", s.path).Msg("preferences changed on disk")
	s.publish(p)
}
