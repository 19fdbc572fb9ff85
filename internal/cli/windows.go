package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/audiopin/internal/output"
)

type windowRow struct {
	Title   string `json:"title"`
	Watched bool   `json:"watched"`
}

type windowList struct {
	Windows []windowRow `json:"windows"`
	Watched []string    `json:"watched"`
}

func (l windowList) Data() interface{} { return l }

func (l windowList) Text(w io.Writer) error {
	if len(l.Windows) == 0 {
		fmt.Fprintln(w, "No windows found.")
		return nil
	}
	t := output.NewTable(w, "TITLE", "WATCHED")
	for _, r := range l.Windows {
		watched := ""
		if r.Watched {
			watched = "yes"
		}
		t.AddRow(output.Truncate(r.Title, 60), watched)
	}
	t.Render()
	return nil
}

func newWindowsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "windows",
		Short: "Inspect the windows audiopin can watch",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List open window titles, marking watched ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := formatter(cmd)
			if err != nil {
				return err
			}
			titles, err := newWindowClient(cfg).RunningTitles(cmd.Context())
			if err != nil {
				return err
			}
			p, err := newPrefsStore(nil).Load()
			if err != nil {
				logger.Warn().Err(err).Msg("preferences unreadable, using defaults")
			}

			list := windowList{Windows: []windowRow{}, Watched: p.MonitoredWindows}
			for _, title := range titles {
				list.Windows = append(list.Windows, windowRow{
					Title:   title,
					Watched: slices.Contains(p.MonitoredWindows, title),
				})
			}
			return f.Output(list)
		},
	})
	return cmd
}
