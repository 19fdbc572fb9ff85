// Package window tracks external application windows and controls the
// visibility of audiopin's own window.
package window

import "context"

// Lister enumerates the titles of top-level windows currently open.
type Lister interface {
	RunningTitles(ctx context.Context) ([]string, error)
}

// Controller raises and pins audiopin's own window.
type Controller interface {
	ShowAndFocus(ctx context.Context) error
	SetAlwaysOnTop(ctx context.Context, onTop bool) error
}
