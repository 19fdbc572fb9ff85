package window

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/Dicklesworthstone/audiopin/internal/system"
)

// WmctrlClient talks to an EWMH window manager through wmctrl.
// SelfTitle is the exact title of the window audiopin runs in.
type WmctrlClient struct {
	cmd       system.Commander
	SelfTitle string
}

// NewWmctrlClient creates a wmctrl-backed lister and controller
func NewWmctrlClient(cmd system.Commander, selfTitle string) *WmctrlClient {
	return &WmctrlClient{cmd: cmd, SelfTitle: selfTitle}
}

// RunningTitles lists the titles of all managed windows.
func (c *WmctrlClient) RunningTitles(ctx context.Context) ([]string, error) {
	out, err := c.cmd.Run(ctx, "-l")
	if err != nil {
		return nil, fmt.Errorf("listing windows: %w", err)
	}
	return parseWindowList(out), nil
}

// ShowAndFocus switches to the desktop of our window, raises and focuses it.
func (c *WmctrlClient) ShowAndFocus(ctx context.Context) error {
	if _, err := c.cmd.Run(ctx, "-F", "-a", c.SelfTitle); err != nil {
		return fmt.Errorf("activating %q: %w", c.SelfTitle, err)
	}
	return nil
}

// SetAlwaysOnTop toggles the _NET_WM_STATE_ABOVE hint on our window.
func (c *WmctrlClient) SetAlwaysOnTop(ctx context.Context, onTop bool) error {
	action := "remove,above"
	if onTop {
		action = "add,above"
	}
	if _, err := c.cmd.Run(ctx, "-F", "-r", c.SelfTitle, "-b", action); err != nil {
		return fmt.Errorf("setting above=%t on %q: %w", onTop, c.SelfTitle, err)
	}
	return nil
}

// parseWindowList extracts titles from `wmctrl -l` output. Each line is
// "<id> <desktop> <host> <title>"; the title keeps its inner spacing.
func parseWindowList(out string) []string {
	var titles []string
	for _, line := range strings.Split(out, "\n") {
		title, ok := titleField(line)
		if !ok || title == "" {
			continue
		}
		titles = append(titles, title)
	}
	return titles
}

func titleField(line string) (string, bool) {
	rest := strings.TrimLeftFunc(line, unicode.IsSpace)
	for i := 0; i < 3; i++ {
		end := strings.IndexFunc(rest, unicode.IsSpace)
		if end < 0 {
			return "", false
		}
		rest = strings.TrimLeftFunc(rest[end:], unicode.IsSpace)
	}
	return strings.TrimRightFunc(rest, unicode.IsSpace), true
}
