package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is used when falling back to polling.
const DefaultPollInterval = time.Second

// Handler is called once per debounced burst of changes to the file.
type Handler func()

// ErrorHandler is called when a watch error occurs.
type ErrorHandler func(err error)

// fileMeta stores file metadata for poll-based change detection.
type fileMeta struct {
	ModTime time.Time
	Size    int64
	Exists  bool
}

// FileWatcher watches one file. The parent directory is watched rather
// than the file itself so atomic replace-by-rename keeps being observed.
type FileWatcher struct {
	path         string
	fsWatcher    *fsnotify.Watcher
	debouncer    *Debouncer
	handler      Handler
	errorHandler ErrorHandler

	pollInterval time.Duration
	forcePoll    bool
	pollMode     bool
	last         fileMeta
	closeCh      chan struct{}
	done         chan struct{}

	mu     sync.Mutex
	closed bool
}

// Option configures a FileWatcher.
type Option func(*FileWatcher)

// WithDebounceDuration sets the debounce duration for coalescing events.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *FileWatcher) {
		if d > 0 {
			w.debouncer = NewDebouncer(d)
		}
	}
}

// WithDebouncer sets a custom debouncer.
func WithDebouncer(d *Debouncer) Option {
	return func(w *FileWatcher) {
		if d != nil {
			w.debouncer = d
		}
	}
}

// WithErrorHandler sets the error handler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(w *FileWatcher) {
		w.errorHandler = handler
	}
}

// WithPollInterval sets the polling interval used when polling mode is active.
func WithPollInterval(d time.Duration) Option {
	return func(w *FileWatcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithPolling forces polling mode (useful for tests or filesystems without inotify).
func WithPolling(force bool) Option {
	return func(w *FileWatcher) {
		w.forcePoll = force
	}
}

// WatchFile starts watching path. The file itself may not exist yet, but
// its directory must.
func WatchFile(path string, handler Handler, opts ...Option) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &FileWatcher{
		path:         abs,
		debouncer:    NewDebouncer(DefaultDebounceDuration),
		handler:      handler,
		pollInterval: DefaultPollInterval,
		closeCh:      make(chan struct{}),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	dir := filepath.Dir(abs)
	if info, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("watching %s: not a directory", dir)
	}

	if !w.forcePoll {
		fsWatcher, err := fsnotify.NewWatcher()
		if err == nil {
			if err = fsWatcher.Add(dir); err == nil {
				w.fsWatcher = fsWatcher
			} else {
				fsWatcher.Close()
			}
		}
		if err != nil {
			w.reportError(fmt.Errorf("fsnotify unavailable, using polling fallback: %w", err))
		}
	}

	if w.fsWatcher == nil {
		w.pollMode = true
		w.last = statMeta(abs)
		go w.runPoll()
	} else {
		go w.run()
	}
	return w, nil
}

// Path returns the absolute path being watched.
func (w *FileWatcher) Path() string { return w.path }

// Polling reports whether the watcher fell back to stat polling.
func (w *FileWatcher) Polling() bool { return w.pollMode }

// Close stops the watcher and waits for its goroutine.
func (w *FileWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.debouncer.Cancel()
	w.mu.Unlock()

	var err error
	close(w.closeCh)
	if w.fsWatcher != nil {
		err = w.fsWatcher.Close()
	}
	<-w.done
	return err
}

func (w *FileWatcher) reportError(err error) {
	if w.errorHandler != nil {
		w.errorHandler(err)
	}
}

// run processes events from fsnotify.
func (w *FileWatcher) run() {
	defer close(w.done)
	for {
		select {
		case <-w.closeCh:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op.Has(fsnotify.Chmod) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			w.changed()
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.reportError(err)
		}
	}
}

// runPoll detects changes by comparing file metadata on every interval.
func (w *FileWatcher) runPoll() {
	defer close(w.done)
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.closeCh:
			return
		case <-ticker.C:
			cur := statMeta(w.path)
			if cur != w.last {
				w.last = cur
				w.changed()
			}
		}
	}
}

func (w *FileWatcher) changed() {
	w.debouncer.Trigger(func() {
		w.mu.Lock()
		closed := w.closed
		w.mu.Unlock()
		if !closed && w.handler != nil {
			w.handler()
		}
	})
}

func statMeta(path string) fileMeta {
	info, err := os.Stat(path)
	if err != nil {
		return fileMeta{}
	}
	return fileMeta{ModTime: info.ModTime(), Size: info.Size(), Exists: true}
}
