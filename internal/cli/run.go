package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/audiopin/internal/app"
	"github.com/Dicklesworthstone/audiopin/internal/config"
	"github.com/Dicklesworthstone/audiopin/internal/events"
	"github.com/Dicklesworthstone/audiopin/internal/output"
	"github.com/Dicklesworthstone/audiopin/internal/tui"
	"github.com/Dicklesworthstone/audiopin/internal/tui/theme"
)

func newRunCmd() *cobra.Command {
	var (
		headless  bool
		altScreen bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the device panel and window watcher",
		Long: `Start audiopin. On a terminal this opens the device panel; otherwise, or
with --headless, it runs in the background and logs what it does.

Headless signals:
  SIGINT, SIGTERM  stop
  SIGUSR1          run a test countdown with the configured delay
  SIGUSR2          toggle passthrough mode`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := formatter(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := newService(true)
			if err != nil {
				return err
			}
			defer svc.Stop()
			if err := svc.Start(ctx); err != nil {
				return err
			}

			stopWatch := watchConfig()
			defer stopWatch()

			if headless || f.IsStructured() || !output.IsTerminal() {
				return runHeadless(ctx, cmd, svc, f)
			}
			return tui.Run(ctx, svc, tui.RunOptions{
				Theme:     theme.FromName(cfg.UI.Theme),
				AltScreen: altScreen,
			})
		},
	}
	cmd.Flags().BoolVar(&headless, "headless", false, "Run without the terminal panel")
	cmd.Flags().BoolVar(&altScreen, "fullscreen", false, "Use the terminal's alternate screen")
	return cmd
}

// statusResult is printed when a headless run ends.
type statusResult app.Status

func (r statusResult) Data() interface{} { return app.Status(r) }

func (r statusResult) Text(w io.Writer) error {
	pinned := "unpinned"
	if r.Pin.Pinned() {
		pinned = "pinned"
	}
	fmt.Fprintf(w, "Pin: %s  Passthrough: %t\n", pinned, r.Passthrough)
	if len(r.Watching) > 0 {
		fmt.Fprintf(w, "Watching: %s\n", strings.Join(r.Watching, ", "))
	}
	names := make([]string, 0, len(r.Polls))
	for name := range r.Polls {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		st := r.Polls[name]
		fmt.Fprintf(w, "Poll %-8s runs=%d skipped=%d failures=%d\n", name, st.Runs, st.Skipped, st.Failures)
	}
	return nil
}

// runHeadless blocks until ctx is done, logging bus traffic and serving
// the control signals. In JSON/YAML mode every message is streamed to
// stdout as a JSON line. The final status is printed on the way out.
func runHeadless(ctx context.Context, cmd *cobra.Command, svc *app.Service, f *output.Formatter) error {
	bus := svc.Bus()
	log := logger.Component("run")

	var subs []*events.Subscription
	if f.IsStructured() {
		subs = append(subs, bus.Stream(cmd.OutOrStdout()))
	} else {
		subs = append(subs,
			events.On(bus, func(m events.PinModeChanged) {
				log.Info().Bool("pinned", bool(m)).Msg("pin mode changed")
			}),
			events.On(bus, func(m events.DeviceSwitched) {
				log.Info().Str("device", m.Name).Bool("ok", m.OK).Str("error", m.Error).Msg("device switch")
			}),
			events.On(bus, func(m events.PassthroughChanged) {
				log.Info().Bool("passthrough", bool(m)).Msg("passthrough changed")
			}),
			events.On(bus, func(m events.ConfigUpdated) {
				log.Info().Strs("devices", m.Devices).Strs("windows", m.MonitoredWindows).
					Int("delay", m.AutoHideDelaySeconds).Msg("preferences updated")
			}),
		)
		fmt.Fprintf(cmd.ErrOrStderr(), "audiopin running (pid %d), press Ctrl+C to stop\n", os.Getpid())
	}
	defer func() {
		for _, s := range subs {
			s.Unsubscribe()
		}
	}()

	ctl := controlSignals()
	defer signal.Stop(ctl.ch)

	for {
		select {
		case <-ctx.Done():
			return f.Output(statusResult(svc.Status()))
		case sig := <-ctl.ch:
			switch sig {
			case ctl.test:
				log.Info().Msg("test countdown signal")
				svc.TestCountdown()
			case ctl.passthrough:
				svc.TogglePassthrough()
			}
		}
	}
}

// watchConfig follows the config file and applies the log level live.
// Other settings take effect on the next start.
func watchConfig() func() {
	log := logger.Component("config")
	stop, err := config.Watch(configPath(), func(c *config.Config) {
		if verbose {
			return
		}
		if err := logger.SetLevel(c.Log.Level); err != nil {
			log.Warn().Err(err).Msg("ignoring invalid log level")
			return
		}
		log.Info().Str("level", c.Log.Level).Msg("config reloaded")
	}, func(err error) {
		log.Warn().Err(err).Msg("config reload failed")
	})
	if err != nil {
		log.Debug().Err(err).Msg("config watch unavailable")
		return func() {}
	}
	return stop
}
