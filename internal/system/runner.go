// Package system wraps the external command-line tools audiopin drives
// (pactl, wmctrl) behind a small, context-aware runner.
package system

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrCommandFailed marks a failed external command. Callers treat it as a
// transient failure and retry on their next scheduled tick.
var ErrCommandFailed = errors.New("external command failed")

// ErrNotInstalled is returned when the configured binary is not on PATH.
var ErrNotInstalled = errors.New("binary not installed")

// Commander runs a binary with arguments and returns trimmed stdout.
type Commander interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// Runner executes a single binary
type Runner struct {
	Binary string
}

// NewRunner creates a runner for binary
func NewRunner(binary string) *Runner {
	return &Runner{Binary: binary}
}

// Run executes the binary with cancellation support.
func (r *Runner) Run(ctx context.Context, args ...string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !r.IsInstalled() {
		return "", fmt.Errorf("%s: %w", r.Binary, ErrNotInstalled)
	}

	cmd := exec.CommandContext(ctx, r.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%s %s: %w: %v: %s", r.Binary, strings.Join(args, " "),
			ErrCommandFailed, err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// IsInstalled checks if the binary is available
func (r *Runner) IsInstalled() bool {
	_, err := exec.LookPath(r.Binary)
	return err == nil
}

// IsTransient reports whether err came from a failed or missing command
// rather than from a caller mistake.
func IsTransient(err error) bool {
	return errors.Is(err, ErrCommandFailed) || errors.Is(err, ErrNotInstalled)
}

// Func adapts a plain function to Commander. Used by tests and by
// backends that want to stub a single call.
type Func func(ctx context.Context, args ...string) (string, error)

// Run calls f.
func (f Func) Run(ctx context.Context, args ...string) (string, error) {
	return f(ctx, args...)
}
