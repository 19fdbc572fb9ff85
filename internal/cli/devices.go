package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/audiopin/internal/audio"
	"github.com/Dicklesworthstone/audiopin/internal/notify"
	"github.com/Dicklesworthstone/audiopin/internal/output"
)

// stdinIsTerminal is a variable for testability.
var stdinIsTerminal = func() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// deviceList is the result of 'devices list'
type deviceList struct {
	Entries   []audio.DisplayEntry `json:"entries"`
	Available []audio.Device       `json:"available,omitempty"`
	Current   *audio.Device        `json:"current"`
	all       bool
}

func (l deviceList) Data() interface{} { return l }

func (l deviceList) Text(w io.Writer) error {
	if l.Current != nil {
		fmt.Fprintf(w, "Current output: %s\n\n", l.Current.Name)
	} else {
		fmt.Fprintln(w, "Current output: none")
		fmt.Fprintln(w)
	}

	if l.all {
		t := output.NewTable(w, "#", "DEVICE", "ID", "DEFAULT")
		for i, d := range l.Available {
			def := ""
			if d.IsDefault {
				def = "yes"
			}
			t.AddRow(strconv.Itoa(i+1), output.Truncate(d.Name, 48), d.ID, def)
		}
		t.Render()
		fmt.Fprintf(w, "\n%s reported\n", output.CountStr(len(l.Available), "device", "devices"))
		return nil
	}

	if len(l.Entries) == 0 {
		fmt.Fprintln(w, "No devices configured. Add one with 'audiopin prefs add-device <name>'.")
		return nil
	}
	t := output.NewTable(w, "#", "DEVICE", "STATUS")
	for i, e := range l.Entries {
		t.AddRow(strconv.Itoa(i+1), output.Truncate(e.Name, 48), entryStatus(e))
	}
	t.Render()
	return nil
}

func entryStatus(e audio.DisplayEntry) string {
	switch {
	case e.IsCurrent:
		return "current"
	case e.IsAvailable:
		return "available"
	default:
		return "unavailable"
	}
}

func newDevicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "devices",
		Aliases: []string{"dev"},
		Short:   "List and switch audio output devices",
	}
	cmd.AddCommand(newDevicesListCmd(), newDevicesSwitchCmd())
	return cmd
}

// loadDevices reconciles the configured devices with a live snapshot.
func loadDevices(ctx context.Context) (deviceList, error) {
	backend := newAudioBackend(cfg)
	available, err := backend.List(ctx)
	if err != nil {
		return deviceList{}, err
	}
	current, err := backend.Current(ctx)
	if err != nil {
		return deviceList{}, err
	}

	p, err := newPrefsStore(nil).Load()
	if err != nil {
		logger.Warn().Err(err).Msg("preferences unreadable, using defaults")
	}

	return deviceList{
		Entries:   audio.Reconcile(p.ConfiguredDevices, available, current),
		Available: available,
		Current:   current,
	}, nil
}

func newDevicesListCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show configured devices and whether they are present",
		Long: `Show the configured devices in order, marking the current output and any
device the system does not report right now. With --all, list every device
the system reports instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := formatter(cmd)
			if err != nil {
				return err
			}
			list, err := loadDevices(cmd.Context())
			if err != nil {
				return err
			}
			list.all = all
			if !all {
				list.Available = nil
			}
			return f.Output(list)
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "List every device the system reports")
	return cmd
}

func newDevicesSwitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch [name]",
		Short: "Make a device the default output",
		Long: `Make the named device the default output. Without a name, the configured
devices are listed with numbers and you are asked to pick one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := formatter(cmd)
			if err != nil {
				return err
			}

			var name string
			if len(args) == 1 {
				name = args[0]
			} else {
				if !stdinIsTerminal() || f.IsStructured() {
					return output.NewCLIError("device name required").
						WithHint("Pass a name, e.g. audiopin devices switch \"Headphones\"")
				}
				list, err := loadDevices(ctx)
				if err != nil {
					return err
				}
				name, err = promptDevice(cmd.InOrStdin(), cmd.OutOrStdout(), list)
				if err != nil {
					return err
				}
			}

			dev, err := audio.Switch(ctx, newAudioBackend(cfg), name)
			n := notify.New(cfg.Notifications)
			switch {
			case errors.Is(err, audio.ErrDeviceNotFound):
				_ = n.Notify(ctx, notify.NewDeviceUnavailableEvent(name))
				return output.DeviceNotFoundError(name)
			case err != nil:
				_ = n.Notify(ctx, notify.NewDeviceSwitchFailedEvent(name, err))
				return err
			}
			logger.Info().Str("device", dev.Name).Str("id", dev.ID).Msg("switched output device")

			if f.IsStructured() {
				return f.Structured(dev)
			}
			output.PrintSuccessCheck(cmd.OutOrStdout(), "Switched output to "+dev.Name)
			return nil
		},
	}
}

// promptDevice lists the switchable entries and reads a choice.
func promptDevice(in io.Reader, out io.Writer, list deviceList) (string, error) {
	var choices []audio.DisplayEntry
	for _, e := range list.Entries {
		if e.IsAvailable {
			choices = append(choices, e)
		}
	}
	if len(choices) == 0 {
		return "", output.NewCLIError("no configured device is available").
			WithHint(output.HintDeviceNotFound)
	}

	for i, e := range choices {
		marker := " "
		if e.IsCurrent {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %d) %s\n", marker, i+1, e.Name)
	}
	fmt.Fprintf(out, "Switch to [1-%d]: ", len(choices))

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading choice: %w", err)
	}
	idx, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || idx < 1 || idx > len(choices) {
		return "", output.NewCLIError(fmt.Sprintf("invalid choice %q", strings.TrimSpace(line)))
	}
	return choices[idx-1].Name, nil
}
