package window

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type scriptedLister struct {
	mu      sync.Mutex
	running []string
	err     error
}

func (l *scriptedLister) set(titles ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running = titles
	l.err = nil
}

func (l *scriptedLister) fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

func (l *scriptedLister) RunningTitles(context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	return append([]string(nil), l.running...), nil
}

func newTestTracker() (*Tracker, *scriptedLister) {
	l := &scriptedLister{}
	return NewTracker(l, zerolog.Nop()), l
}

func TestTracker_ReportsCloseOnce(t *testing.T) {
	t.Parallel()

	tr, l := newTestTracker()
	ctx := context.Background()
	watch := []string{"Game", "Editor"}

	l.set("Game", "Terminal")
	assert.Empty(t, tr.Poll(ctx, watch))
	assert.Equal(t, []string{"Game"}, tr.Seen())

	l.set("Terminal")
	assert.Equal(t, []string{"Game"}, tr.Poll(ctx, watch))

	// Same snapshot again must not re-report.
	assert.Empty(t, tr.Poll(ctx, watch))
}

func TestTracker_NeverSeenNeverFires(t *testing.T) {
	t.Parallel()

	tr, l := newTestTracker()
	ctx := context.Background()
	watch := []string{"Gmae"} // typo

	l.set("Game")
	assert.Empty(t, tr.Poll(ctx, watch))
	l.set()
	assert.Empty(t, tr.Poll(ctx, watch))
}

func TestTracker_ReopenThenCloseFiresAgain(t *testing.T) {
	t.Parallel()

	tr, l := newTestTracker()
	ctx := context.Background()
	watch := []string{"Game"}

	l.set("Game")
	tr.Poll(ctx, watch)
	l.set()
	assert.Equal(t, []string{"Game"}, tr.Poll(ctx, watch))
	l.set("Game")
	assert.Empty(t, tr.Poll(ctx, watch))
	l.set()
	assert.Equal(t, []string{"Game"}, tr.Poll(ctx, watch))
}

func TestTracker_EnumerationFailureIsNoChange(t *testing.T) {
	t.Parallel()

	tr, l := newTestTracker()
	ctx := context.Background()
	watch := []string{"Game"}

	l.set("Game")
	tr.Poll(ctx, watch)

	l.fail(errors.New("wmctrl: cannot open display"))
	assert.Empty(t, tr.Poll(ctx, watch))
	assert.Equal(t, []string{"Game"}, tr.Seen(), "lastSeen must survive a failed tick")

	l.set()
	assert.Equal(t, []string{"Game"}, tr.Poll(ctx, watch))
}

func TestTracker_WatchListChanges(t *testing.T) {
	t.Parallel()

	tr, l := newTestTracker()
	ctx := context.Background()

	l.set("Game", "Editor")
	tr.Poll(ctx, []string{"Game", "Editor"})

	// Editor stays watched and keeps its lastSeen entry; Game is dropped
	// from the list and must not be reported as closed.
	l.set("Editor")
	assert.Empty(t, tr.Poll(ctx, []string{"Editor", "Browser"}))
	assert.Equal(t, []string{"Editor"}, tr.Seen())

	l.set()
	assert.Equal(t, []string{"Editor"}, tr.Poll(ctx, []string{"Editor", "Browser"}))

	// A title removed from the list while seen running is forgotten, not
	// closed, and stays quiet when it later exits.
	l.set("Browser")
	assert.Empty(t, tr.Poll(ctx, []string{"Browser"}))
	assert.Equal(t, []string{"Browser"}, tr.Seen())
	assert.Empty(t, tr.Poll(ctx, []string{"Editor"}))
	l.set()
	assert.Empty(t, tr.Poll(ctx, []string{"Editor"}))
	assert.Empty(t, tr.Seen())
}

func TestTracker_MultipleClosedSorted(t *testing.T) {
	t.Parallel()

	tr, l := newTestTracker()
	ctx := context.Background()
	watch := []string{"b", "a", "c"}

	l.set("c", "b", "a")
	tr.Poll(ctx, watch)
	l.set("b")
	assert.Equal(t, []string{"a", "c"}, tr.Poll(ctx, watch))
}
