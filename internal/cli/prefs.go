package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/audiopin/internal/output"
	"github.com/Dicklesworthstone/audiopin/internal/prefs"
)

type prefsResult struct {
	prefs.Preferences
	path string
}

func (r prefsResult) Data() interface{} { return r.Preferences }

func (r prefsResult) Text(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Preferences\n\n`%s`\n\n", r.path)

	fmt.Fprintf(&b, "## Devices (%d/%d)\n\n", len(r.ConfiguredDevices), prefs.MaxDevices)
	if len(r.ConfiguredDevices) == 0 {
		b.WriteString("none\n")
	}
	for i, d := range r.ConfiguredDevices {
		fmt.Fprintf(&b, "%d. %s\n", i+1, d)
	}

	fmt.Fprintf(&b, "\n## Watched windows (%d/%d)\n\n", len(r.MonitoredWindows), prefs.MaxWindows)
	if len(r.MonitoredWindows) == 0 {
		b.WriteString("none\n")
	}
	for _, title := range r.MonitoredWindows {
		fmt.Fprintf(&b, "- %s\n", title)
	}

	fmt.Fprintf(&b, "\nAuto-hide delay: %ds\n", r.AutoHideDelaySeconds)
	return output.RenderMarkdown(w, b.String())
}

func newPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "View and edit devices, watched windows and the auto-hide delay",
		Long: `Edit the preferences document. A running audiopin picks up every change
within a moment.

Limits: 4 devices, 10 watched windows, delay between 0 and 60 seconds.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := formatter(cmd)
			if err != nil {
				return err
			}
			store := newPrefsStore(nil)
			p, err := store.Load()
			if err != nil {
				logger.Warn().Err(err).Msg("preferences unreadable, showing defaults")
			}
			return f.Output(prefsResult{Preferences: p, path: store.Path()})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the preferences file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), cfg.PrefsPath)
		},
	})

	cmd.AddCommand(
		prefsEditCmd("add-device <name>", "Add a device to the panel", cobra.ExactArgs(1),
			func(p *prefs.Preferences, args []string) error { return p.AddDevice(args[0]) }),
		prefsEditCmd("remove-device <name>", "Remove a device from the panel", cobra.ExactArgs(1),
			func(p *prefs.Preferences, args []string) error { return p.RemoveDevice(args[0]) }),
		prefsEditCmd("move-device <name> <position>", "Move a device to a 1-based position", cobra.ExactArgs(2),
			func(p *prefs.Preferences, args []string) error {
				pos, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("position %q: %w", args[1], prefs.ErrPositionOutRange)
				}
				return p.MoveDevice(args[0], pos-1)
			}),
		prefsEditCmd("add-window <title>", "Watch a window title", cobra.ExactArgs(1),
			func(p *prefs.Preferences, args []string) error { return p.AddWindow(args[0]) }),
		prefsEditCmd("remove-window <title>", "Stop watching a window title", cobra.ExactArgs(1),
			func(p *prefs.Preferences, args []string) error { return p.RemoveWindow(args[0]) }),
		prefsEditCmd("set-delay <seconds>", "Set how long audiopin stays on top after a window closes", cobra.ExactArgs(1),
			func(p *prefs.Preferences, args []string) error {
				secs, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("delay %q: %w", args[0], prefs.ErrDelayOutOfRange)
				}
				return p.SetDelay(secs)
			}),
	)

	return cmd
}

// prefsEditCmd builds a command that applies one edit and saves it. A
// rejected edit leaves the file untouched.
func prefsEditCmd(use, short string, args cobra.PositionalArgs, edit func(*prefs.Preferences, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := formatter(cmd)
			if err != nil {
				return err
			}
			store := newPrefsStore(nil)
			if _, err := store.Load(); err != nil {
				logger.Warn().Err(err).Msg("preferences unreadable, editing defaults")
			}
			p, err := store.Update(func(p *prefs.Preferences) error { return edit(p, args) })
			if err != nil {
				return err
			}
			if f.IsStructured() {
				return f.Structured(p)
			}
			output.PrintSuccessCheck(cmd.OutOrStdout(), "Preferences saved")
			return prefsResult{Preferences: p, path: store.Path()}.Text(cmd.OutOrStdout())
		},
	}
}
