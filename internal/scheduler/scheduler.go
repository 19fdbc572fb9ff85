// Package scheduler runs audiopin's periodic polls. Each task has its own
// goroutine and ticker; a tick that arrives while the previous run of the
// same task is still in flight is skipped rather than queued.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"
)

// ErrAlreadyStarted is returned by Start on a running group
var ErrAlreadyStarted = errors.New("scheduler already started")

// Task is one periodic job
type Task struct {
	Name     string
	Interval time.Duration
	// Immediate runs the task once at Start before the first tick.
	Immediate bool
	Run       func(ctx context.Context) error
}

// TaskStats counts what happened to a task's ticks.
type TaskStats struct {
	Runs      uint64 `json:"runs"`
	Skipped   uint64 `json:"skipped"`
	Failures  uint64 `json:"failures"`
	LastError string `json:"last_error,omitempty"`
}

type taskState struct {
	Task
	busy     atomic.Bool
	runs     atomic.Uint64
	skipped  atomic.Uint64
	failures atomic.Uint64
	lastErr  atomic.Value // string
}

// Group owns a set of tasks and their goroutines
type Group struct {
	clock clock.WithTicker
	log   zerolog.Logger

	mu     sync.Mutex
	tasks  []*taskState
	cancel context.CancelFunc
	eg     *errgroup.Group
	runs   sync.WaitGroup
}

// New creates an empty group. A nil clock means the real clock.
func New(clk clock.WithTicker, log zerolog.Logger) *Group {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Group{clock: clk, log: log}
}

// Add registers a task. Tasks added after Start are not scheduled until the
// next Start.
func (g *Group) Add(t Task) error {
	if t.Run == nil {
		return fmt.Errorf("task %q: no run func", t.Name)
	}
	if t.Interval <= 0 {
		return fmt.Errorf("task %q: interval must be positive, got %s", t.Name, t.Interval)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tasks = append(g.tasks, &taskState{Task: t})
	return nil
}

// Start launches every task loop under ctx.
func (g *Group) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	eg, ctx := errgroup.WithContext(ctx)
	g.cancel = cancel
	g.eg = eg

	for _, ts := range g.tasks {
		ts := ts
		ticker := g.clock.NewTicker(ts.Interval)
		eg.Go(func() error {
			return g.loop(ctx, ts, ticker)
		})
	}
	return nil
}

// Stop cancels every task and waits for loops and in-flight runs to
// return. It is safe to call on a group that was never started.
func (g *Group) Stop() {
	g.mu.Lock()
	cancel, eg := g.cancel, g.eg
	g.cancel, g.eg = nil, nil
	g.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	_ = eg.Wait()
	g.runs.Wait()
}

// Stats returns a snapshot per task name.
func (g *Group) Stats() map[string]TaskStats {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make(map[string]TaskStats, len(g.tasks))
	for _, ts := range g.tasks {
		s := TaskStats{
			Runs:     ts.runs.Load(),
			Skipped:  ts.skipped.Load(),
			Failures: ts.failures.Load(),
		}
		if v, ok := ts.lastErr.Load().(string); ok {
			s.LastError = v
		}
		out[ts.Name] = s
	}
	return out
}

func (g *Group) loop(ctx context.Context, ts *taskState, ticker clock.Ticker) error {
	defer ticker.Stop()
	log := g.log.With().Str("task", ts.Name).Logger()
	log.Debug().Dur("interval", ts.Interval).Msg("task scheduled")

	if ts.Immediate {
		g.dispatch(ctx, ts, log)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
			g.dispatch(ctx, ts, log)
		}
	}
}

func (g *Group) dispatch(ctx context.Context, ts *taskState, log zerolog.Logger) {
	if !ts.busy.CompareAndSwap(false, true) {
		ts.skipped.Add(1)
		log.Debug().Msg("previous run still in flight, tick skipped")
		return
	}

	g.runs.Add(1)
	go func() {
		defer g.runs.Done()
		defer ts.busy.Store(false)

		ts.runs.Add(1)
		if err := ts.Run(ctx); err != nil && ctx.Err() == nil {
			ts.failures.Add(1)
			ts.lastErr.Store(err.Error())
			log.Warn().Err(err).Msg("task run failed")
		}
	}()
}
