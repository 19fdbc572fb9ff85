package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/audiopin/internal/config"
	"github.com/Dicklesworthstone/audiopin/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultAt(configPath())
			if err != nil {
				if _, statErr := os.Stat(configPath()); statErr == nil {
					return output.NewCLIError(err.Error()).
						WithCode("CONFIG_EXISTS").
						WithHint("Edit the file directly or remove it first")
				}
				return err
			}
			output.PrintSuccessCheck(cmd.OutOrStdout(), "Created config file: "+path)
			output.PrintSuccessFooter(cmd.OutOrStdout(), output.InitSuggestions()...)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print configuration file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), configPath())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := formatter(cmd)
			if err != nil {
				return err
			}
			if f.IsStructured() {
				return f.Structured(cfg)
			}
			return config.Print(cfg, cmd.OutOrStdout())
		},
	})

	return cmd
}
