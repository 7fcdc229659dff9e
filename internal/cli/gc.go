package cli

import (
	"github.com/spf13/cobra"

	"github.com/relayrun/enact/internal/store"
)

// GCOptions holds flags for the gc command.
type GCOptions struct {
	*RootOptions
	Pattern string
}

// NewGCCommand builds the gc subcommand: lists (without deleting) the
// FileBackend shard files matching a glob pattern, for operators auditing
// what a real eviction policy would remove. Per the store's non-goals,
// there is no reachability analysis here and nothing is ever deleted.
func NewGCCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GCOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "gc",
		Short: "List FileBackend shard files matching a glob pattern (dry run only)",
		Long: `Gc lists the digest files under the configured FileBackend root whose
shard-relative path matches --pattern, without deleting anything. It exists
for operators to audit what a reachability-aware eviction policy would
remove; this module implements no such policy itself.

Example:
  enact gc --pattern "ab/*"`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGC(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Pattern, "pattern", "**/*", "doublestar glob matched against shard-relative paths")

	return cmd
}

func runGC(opts *GCOptions, cmd *cobra.Command) error {
	formatter := formatterFor(opts.RootOptions, cmd)

	cfg, err := LoadConfig(opts.ConfigPath, opts.EnvFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}
	if cfg.Store.Backend != "file" {
		return NewExitError(ExitCommandError, "gc only supports the file store backend")
	}

	backend, err := store.NewFileBackend(cfg.Store.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "open file backend", err)
	}

	matches, err := backend.SweepDryRun(opts.Pattern)
	if err != nil {
		return WrapExitError(ExitCommandError, "sweep", err)
	}

	return formatter.Success(map[string]any{
		"pattern": opts.Pattern,
		"count":   len(matches),
		"matches": matches,
	})
}
