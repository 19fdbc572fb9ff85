// Package pin holds the pinned / auto-unpin state machine for audiopin's
// own window.
package pin

import "encoding/json"

// MaxDelaySeconds bounds every countdown.
const MaxDelaySeconds = 60

// Mode is the pin state kind
type Mode int

const (
	Unpinned Mode = iota
	PinnedManual
	PinnedCountdown
)

// String returns a short name for logs
func (m Mode) String() string {
	switch m {
	case PinnedManual:
		return "pinned"
	case PinnedCountdown:
		return "countdown"
	default:
		return "unpinned"
	}
}

// State is a snapshot of the controller. Remaining is meaningful only in
// PinnedCountdown.
type State struct {
	Mode      Mode
	Remaining int
}

// Pinned reports whether the window is held on top
func (s State) Pinned() bool { return s.Mode != Unpinned }

// RemainingSeconds is nil unless a countdown is active.
func (s State) RemainingSeconds() *int {
	if s.Mode != PinnedCountdown {
		return nil
	}
	n := s.Remaining
	return &n
}

// MarshalJSON renders {pinned, remainingSeconds}.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Pinned           bool `json:"pinned"`
		RemainingSeconds *int `json:"remainingSeconds"`
	}{s.Pinned(), s.RemainingSeconds()})
}

func clampDelay(d int) int {
	if d < 0 {
		return 0
	}
	if d > MaxDelaySeconds {
		return MaxDelaySeconds
	}
	return d
}
