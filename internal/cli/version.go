package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuiltAt   string `json:"built_at"`
	BuiltBy   string `json:"built_by"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func (v versionInfo) Data() interface{} { return v }

func (v versionInfo) Text(w io.Writer) error {
	fmt.Fprintf(w, "audiopin version %s\n", v.Version)
	fmt.Fprintf(w, "  commit:    %s\n", v.Commit)
	fmt.Fprintf(w, "  built:     %s\n", v.BuiltAt)
	fmt.Fprintf(w, "  builder:   %s\n", v.BuiltBy)
	fmt.Fprintf(w, "  go:        %s\n", v.GoVersion)
	fmt.Fprintf(w, "  platform:  %s\n", v.Platform)
	return nil
}

func newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := formatter(cmd)
			if err != nil {
				return err
			}
			if short && !f.IsStructured() {
				fmt.Fprintln(cmd.OutOrStdout(), Version)
				return nil
			}
			return f.Output(versionInfo{
				Version:   Version,
				Commit:    Commit,
				BuiltAt:   Date,
				BuiltBy:   BuiltBy,
				GoVersion: runtime.Version(),
				Platform:  goPlatform(),
			})
		},
	}
	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")
	return cmd
}
