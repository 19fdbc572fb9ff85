// Package cli implements the audiopin command line.
package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/audiopin/internal/config"
	"github.com/Dicklesworthstone/audiopin/internal/logging"
	"github.com/Dicklesworthstone/audiopin/internal/output"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  = logging.Nop()

	// Global output flags, inherited by all subcommands
	jsonOutput bool
	formatFlag string
	verbose    bool

	// Build information - set via ldflags
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
	BuiltBy = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "audiopin",
	Short: "Switch audio outputs and surface the switcher when a call ends",
	Long: `audiopin keeps a short list of favourite audio outputs one keypress away.
When a watched window (a meeting, a call) closes, audiopin brings itself to
the front and stays on top for a few seconds so you can switch back.

Quick Start:
  audiopin config init                   # Write ~/.config/audiopin/config.toml
  audiopin devices list --all            # See what the system reports
  audiopin prefs add-device "Headphones" # Add a favourite
  audiopin prefs add-window "Zoom Meeting"
  audiopin run                           # Start the panel`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := output.DetectFormat(formatFlag, jsonOutput); err != nil {
			return err
		}

		var loadErr error
		cfg, loadErr = config.LoadOrDefault(cfgFile)

		l, err := logging.New(logging.Config{
			Level:  cfg.Log.Level,
			Debug:  verbose,
			File:   config.ExpandHome(cfg.Log.File),
			Output: cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}
		logger = l

		if loadErr != nil {
			logger.Warn().Err(loadErr).Str("path", configPath()).Msg("config unreadable, using defaults")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Close()
	},
}

// Execute runs the root command and reports any error to the user.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		f, ferr := output.DefaultFormatter(rootCmd.OutOrStdout(), formatFlag, jsonOutput)
		if ferr != nil {
			f = output.New(output.WithWriter(rootCmd.OutOrStdout()))
		}
		f.Report(toCLIError(err), rootCmd.ErrOrStderr())
		return err
	}
	return nil
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultPath()
}

// formatter returns the output formatter for cmd's stdout
func formatter(cmd *cobra.Command) (*output.Formatter, error) {
	return output.DefaultFormatter(cmd.OutOrStdout(), formatFlag, jsonOutput)
}

func goPlatform() string {
	return fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/audiopin/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (machine-readable)")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", "", "Output format: text, json or yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newRunCmd(),
		newDevicesCmd(),
		newWindowsCmd(),
		newPrefsCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
}
