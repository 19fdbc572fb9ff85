package tui

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/audiopin/internal/tui/theme"
)

// RunOptions configures Run.
type RunOptions struct {
	Theme  theme.Theme
	Input  io.Reader
	Output io.Writer
	// AltScreen renders full screen
	AltScreen bool
}

// Run shows the surfaces until the user quits or ctx is cancelled.
func Run(ctx context.Context, b Backend, opts RunOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var popts []tea.ProgramOption
	popts = append(popts, tea.WithContext(ctx))
	if opts.Input != nil {
		popts = append(popts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		popts = append(popts, tea.WithOutput(opts.Output))
	}
	if opts.AltScreen {
		popts = append(popts, tea.WithAltScreen())
	}

	r := newRelay()
	r.attach(b.Bus())
	defer r.detach()

	p := tea.NewProgram(New(ctx, b, opts.Theme), popts...)
	go r.run(ctx, p.Send)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
