package watcher

import (
	"sync/atomic"
	"testing"
	"time"

	testingclock "k8s.io/utils/clock/testing"
)

func TestNewDebouncer(t *testing.T) {
	t.Run("default duration", func(t *testing.T) {
		d := NewDebouncer(0)
		if d.Duration() != DefaultDebounceDuration {
			t.Errorf("Duration() = %v, want %v", d.Duration(), DefaultDebounceDuration)
		}
	})

	t.Run("custom duration", func(t *testing.T) {
		duration := 500 * time.Millisecond
		d := NewDebouncer(duration)
		if d.Duration() != duration {
			t.Errorf("Duration() = %v, want %v", d.Duration(), duration)
		}
	})
}

func TestDebouncerCoalesces(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Unix(0, 0))
	d := NewDebouncerWithClock(100*time.Millisecond, clk)

	var calls atomic.Int32
	for i := 0; i < 5; i++ {
		d.Trigger(func() { calls.Add(1) })
		clk.Step(10 * time.Millisecond)
	}
	if got := calls.Load(); got != 0 {
		t.Fatalf("callback fired early: %d", got)
	}

	clk.Step(100 * time.Millisecond)
	waitFor(t, func() bool { return calls.Load() == 1 })

	clk.Step(time.Second)
	if got := calls.Load(); got != 1 {
		t.Errorf("callback called %d times, want 1", got)
	}
}

func TestDebouncerSeparateBursts(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Unix(0, 0))
	d := NewDebouncerWithClock(50*time.Millisecond, clk)

	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	clk.Step(60 * time.Millisecond)
	waitFor(t, func() bool { return calls.Load() == 1 })

	d.Trigger(func() { calls.Add(1) })
	clk.Step(60 * time.Millisecond)
	waitFor(t, func() bool { return calls.Load() == 2 })
}

func TestDebouncerCancel(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Unix(0, 0))
	d := NewDebouncerWithClock(50*time.Millisecond, clk)

	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	d.Cancel()
	clk.Step(time.Second)

	if got := calls.Load(); got != 0 {
		t.Errorf("cancelled callback ran %d times", got)
	}
	d.Cancel()
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
