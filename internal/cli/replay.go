package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/relayrun/enact/internal/invoke"
	"github.com/relayrun/enact/internal/resource"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	InvocationDigest string
	RewindBy         int
	Strict           bool
}

// NewReplayCommand builds the replay subcommand: re-runs a previously
// journaled invocation, reusing recorded children wherever their
// invokable+input still match, optionally after rewinding it first.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a journaled invocation, optionally after rewinding it",
		Long: `Replay re-executes an invocation recorded in the store, matching each
subinvocation against its recorded counterpart and reusing the recorded
output wherever the invokable and input digests still agree.

Example:
  enact replay --invocation <digest> --rewind 2`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.InvocationDigest, "invocation", "", "digest of the recorded Invocation resource (required)")
	cmd.Flags().IntVar(&opts.RewindBy, "rewind", 0, "number of trailing children to drop before replaying")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail with ReplayError on the first non-matching child instead of re-executing it")
	_ = cmd.MarkFlagRequired("invocation")

	return cmd
}

func runReplay(ctx context.Context, opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := formatterFor(opts.RootOptions, cmd)

	cfg, err := LoadConfig(opts.ConfigPath, opts.EnvFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}
	st, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return WrapExitError(ExitCommandError, "open store", err)
	}

	invocationType, ok := resource.Default.TypeIDFor("enact.invoke.Invocation")
	if !ok {
		return NewExitError(ExitCommandError, "enact.invoke.Invocation is not registered")
	}
	invocationRef := resource.Reference{Type: invocationType, Digest: opts.InvocationDigest}

	r, err := st.Checkout(ctx, invocationRef)
	if err != nil {
		return WrapExitError(ExitCommandError, "checkout invocation", err)
	}
	inv, ok := r.(*invoke.Invocation)
	if !ok {
		return NewExitError(ExitCommandError, "digest does not name an Invocation")
	}

	if opts.RewindBy >= 0 {
		inv, err = invoke.Rewind(ctx, st, inv, opts.RewindBy)
		if err != nil {
			return WrapExitError(ExitCommandError, "rewind", err)
		}
	}

	req, err := st.Checkout(ctx, inv.RequestRef)
	if err != nil {
		return WrapExitError(ExitCommandError, "checkout request", err)
	}
	request, ok := req.(*invoke.Request)
	if !ok {
		return NewExitError(ExitCommandError, "invocation request is malformed")
	}
	invokableResource, err := st.Checkout(ctx, request.Invokable)
	if err != nil {
		return WrapExitError(ExitCommandError, "checkout invokable", err)
	}
	invokable, ok := invokableResource.(invoke.Invokable)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("resource of type %q is not Invokable", invokableResource.TypeID().Name))
	}
	input, err := st.Checkout(ctx, request.Input)
	if err != nil {
		return WrapExitError(ExitCommandError, "checkout input", err)
	}

	rewoundRef, err := st.Commit(ctx, inv)
	if err != nil {
		return WrapExitError(ExitCommandError, "commit rewound invocation", err)
	}

	var invokeOpts []invoke.InvokeOption
	invokeOpts = append(invokeOpts, invoke.ReplayFrom(rewoundRef))
	if opts.Strict {
		invokeOpts = append(invokeOpts, invoke.Strict())
	}

	replayed, err := invoke.Invoke(ctx, st, invokable, input, invokeOpts...)
	if err != nil {
		return WrapExitError(ExitFailure, "replay", err)
	}

	log := slog.Default().With("command", "replay")
	if err := recordToJournalIndex(ctx, cfg, st, replayed, log); err != nil {
		return WrapExitError(ExitCommandError, "record journal index", err)
	}

	successful, err := replayed.Successful(ctx, st)
	if err != nil {
		return WrapExitError(ExitCommandError, "read outcome", err)
	}

	return formatter.Success(map[string]any{
		"invocation_id": replayed.ResponseRef.String(),
		"successful":    successful,
		"rewound_by":    strconv.Itoa(opts.RewindBy),
	})
}
