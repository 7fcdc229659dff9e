// Package cli implements the subcommands behind cmd/enact: invoke, replay,
// trace, serve, gc, and validate, sharing store/index/schema setup and a
// common JSON/text output format.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidFormats lists the allowed --format values.
var ValidFormats = []string{"text", "json"}

// RootOptions holds global flags shared by every subcommand.
type RootOptions struct {
	Verbose    bool
	Format     string
	ConfigPath string
	EnvFile    string
}

// NewRootCommand builds the enact root command and wires every subcommand
// beneath it.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "enact",
		Short: "enact - content-addressed invocations",
		Long:  "A content-addressed resource store and journaled invocation engine.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to enact.yaml")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "path to a .env file")

	cmd.AddCommand(NewInvokeCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewGCCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func formatterFor(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
