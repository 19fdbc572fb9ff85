// Package logging builds the zerolog loggers used across audiopin.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Config controls logger construction.
type Config struct {
	Level   string
	Debug   bool
	File    string
	Console *bool // nil means detect from the output
	Output  io.Writer
}

// Logger bundles the root logger with the file it may own.
type Logger struct {
	zerolog.Logger
	RunID  string
	closer io.Closer
	filter *levelFilter
}

// levelFilter drops records below min. Filtering at the writer lets
// SetLevel reach component loggers derived before the change.
type levelFilter struct {
	out zerolog.LevelWriter
	min atomic.Int32
}

func (f *levelFilter) Write(p []byte) (int, error) { return f.out.Write(p) }

func (f *levelFilter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < zerolog.Level(f.min.Load()) {
		return len(p), nil
	}
	return f.out.WriteLevel(l, p)
}

// New builds a logger. Without a file it writes to stderr, using a human
// console format when stderr is a terminal and JSON otherwise. Every
// record carries the process run_id.
func New(cfg Config) (*Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	} else if cfg.Level != "" {
		var err error
		level, err = zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
	}

	out := cfg.Output
	var closer io.Closer
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		out, closer = f, f
	}
	if out == nil {
		out = os.Stderr
	}

	console := isTerminal(out)
	if cfg.Console != nil {
		console = *cfg.Console
	}
	if console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	filter := &levelFilter{out: zerolog.LevelWriterAdapter{Writer: out}}
	filter.min.Store(int32(level))

	runID := uuid.NewString()
	zl := zerolog.New(filter).
		Level(zerolog.TraceLevel).
		With().
		Timestamp().
		Str("run_id", runID).
		Logger()

	return &Logger{Logger: zl, RunID: runID, closer: closer, filter: filter}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// Component returns a child logger tagged with a component name.
func (l *Logger) Component(name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// SetLevel changes the level of this logger and every component logger
// derived from it. Safe for concurrent use; called on config reload.
func (l *Logger) SetLevel(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	if l.filter != nil {
		l.filter.min.Store(int32(lvl))
	}
	return nil
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
