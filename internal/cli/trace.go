package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/relayrun/enact/internal/journalindex"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Invokable    string
	DigestPrefix string
	FromMillis   int64
	ToMillis     int64
	Limit        int
}

// NewTraceCommand builds the trace subcommand: queries the SQLite journal
// index for previously recorded invocations by invokable name, digest
// prefix, or time range.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Query the journal index for recorded invocations",
		Long: `Trace queries the SQLite journal index (see index.path in the config
file) for invocations recorded by "enact invoke" or "enact replay".

Exactly one of --invokable, --digest-prefix, or --from/--to should be set.

Examples:
  enact trace --invokable enact.examples.dice.RollDice
  enact trace --digest-prefix ab12
  enact trace --from 1700000000000 --to 1700003600000`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Invokable, "invokable", "", "filter by registered invokable type name")
	cmd.Flags().StringVar(&opts.DigestPrefix, "digest-prefix", "", "filter by invocation digest prefix")
	cmd.Flags().Int64Var(&opts.FromMillis, "from", 0, "start of a recorded_at time range, in epoch milliseconds")
	cmd.Flags().Int64Var(&opts.ToMillis, "to", 0, "end of a recorded_at time range, in epoch milliseconds")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "maximum rows to return for --invokable and --digest-prefix (--from/--to returns every match)")

	return cmd
}

func runTrace(ctx context.Context, opts *TraceOptions, cmd *cobra.Command) error {
	formatter := formatterFor(opts.RootOptions, cmd)

	cfg, err := LoadConfig(opts.ConfigPath, opts.EnvFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}

	idx, err := journalindex.Open(cfg.Index.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "open journal index", err)
	}
	defer idx.Close()

	var digests []string
	switch {
	case opts.Invokable != "":
		digests, err = journalindex.ByInvokableName(ctx, idx, opts.Invokable, opts.Limit)
	case opts.DigestPrefix != "":
		digests, err = journalindex.ByDigestPrefix(ctx, idx, opts.DigestPrefix, opts.Limit)
	case opts.FromMillis != 0 || opts.ToMillis != 0:
		digests, err = journalindex.InRange(ctx, idx, opts.FromMillis, opts.ToMillis)
	default:
		return NewExitError(ExitCommandError, "one of --invokable, --digest-prefix, or --from/--to is required")
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "query journal index", err)
	}

	return formatter.Success(map[string]any{
		"count":       len(digests),
		"invocations": digests,
	})
}
