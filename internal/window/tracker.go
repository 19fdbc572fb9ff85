package window

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Tracker diffs the watch list against running windows between polls and
// reports watched windows that have closed.
//
// A title counts as closed only if it was seen running on an earlier poll
// and is gone now, so a title that never matched (a typo) never fires.
type Tracker struct {
	lister Lister
	log    zerolog.Logger

	mu       sync.Mutex
	lastSeen map[string]struct{}
}

// NewTracker creates a tracker over lister
func NewTracker(lister Lister, log zerolog.Logger) *Tracker {
	return &Tracker{
		lister:   lister,
		log:      log,
		lastSeen: make(map[string]struct{}),
	}
}

// Poll enumerates windows once and returns the watched titles that closed
// since the previous poll, sorted. An enumeration failure is logged and
// treated as "no change"; lastSeen is kept for the next attempt.
func (t *Tracker) Poll(ctx context.Context, watchList []string) []string {
	running, err := t.lister.RunningTitles(ctx)
	if err != nil {
		t.log.Warn().Err(err).Msg("window enumeration failed, retrying next tick")
		return nil
	}

	watched := make(map[string]struct{}, len(watchList))
	for _, title := range watchList {
		watched[title] = struct{}{}
	}

	current := make(map[string]struct{})
	for _, title := range running {
		if _, ok := watched[title]; ok {
			current[title] = struct{}{}
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var closed []string
	for title := range t.lastSeen {
		if _, stillWatched := watched[title]; !stillWatched {
			// Removed from the watch list; forget it silently.
			continue
		}
		if _, ok := current[title]; !ok {
			closed = append(closed, title)
		}
	}
	t.lastSeen = current

	sort.Strings(closed)
	if len(closed) > 0 {
		t.log.Debug().Strs("closed", closed).Msg("watched windows closed")
	}
	return closed
}

// Seen returns the watched titles observed running on the last poll, sorted.
func (t *Tracker) Seen() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	titles := make([]string, 0, len(t.lastSeen))
	for title := range t.lastSeen {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}
