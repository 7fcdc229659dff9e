package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/relayrun/enact/internal/invoke"
	"github.com/relayrun/enact/internal/journalindex"
	"github.com/relayrun/enact/internal/resource"
	"github.com/relayrun/enact/internal/store"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	InvokablePath string
	InputPath     string
}

// NewInvokeCommand builds the invoke subcommand: reads a packed invokable
// resource and a packed input resource from disk, journals the call, and
// prints the resulting output or raised exception.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "Invoke a packed invokable resource on a packed input resource",
		Long: `Invoke runs an invokable resource against an input resource and journals
the result to the configured store.

Both --invokable and --input name files holding the wire-encoded form of a
resource (as produced by resource.Encode).

Example:
  enact invoke --invokable rolldice.json --input rolldice.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvoke(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.InvokablePath, "invokable", "", "path to a packed invokable resource (required)")
	cmd.Flags().StringVar(&opts.InputPath, "input", "", "path to a packed input resource (required)")
	_ = cmd.MarkFlagRequired("invokable")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func loadResourceFile(path string) (resource.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "read "+path, err)
	}
	packed, err := resource.Decode(data)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "decode "+path, err)
	}
	r, err := resource.Unpack(packed, resource.Default)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "unpack "+path, err)
	}
	return r, nil
}

func runInvoke(ctx context.Context, opts *InvokeOptions, cmd *cobra.Command) error {
	formatter := formatterFor(opts.RootOptions, cmd)
	traceID := uuid.New().String()
	log := slog.Default().With("trace_id", traceID, "command", "invoke")

	cfg, err := LoadConfig(opts.ConfigPath, opts.EnvFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}

	invokableResource, err := loadResourceFile(opts.InvokablePath)
	if err != nil {
		return err
	}
	invokable, ok := invokableResource.(invoke.Invokable)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("resource of type %q is not Invokable", invokableResource.TypeID().Name))
	}
	input, err := loadResourceFile(opts.InputPath)
	if err != nil {
		return err
	}

	st, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return WrapExitError(ExitCommandError, "open store", err)
	}

	log.Info("invoking", "type", invokable.TypeID().Name)
	inv, err := invoke.Invoke(ctx, st, invokable, input)
	if err != nil {
		return WrapExitError(ExitCommandError, "invoke", err)
	}

	if err := recordToJournalIndex(ctx, cfg, st, inv, log); err != nil {
		return WrapExitError(ExitCommandError, "record journal index", err)
	}

	successful, err := inv.Successful(ctx, st)
	if err != nil {
		return WrapExitError(ExitCommandError, "read outcome", err)
	}
	output, raised, err := invoke.Outcome(ctx, st, inv)
	if err != nil {
		return WrapExitError(ExitCommandError, "read outcome", err)
	}

	result := map[string]any{
		"trace_id":      traceID,
		"invocation_id": inv.ResponseRef.String(),
		"successful":    successful,
	}
	if successful {
		packed, err := resource.Pack(output)
		if err != nil {
			return WrapExitError(ExitCommandError, "pack output", err)
		}
		result["output"] = packed
		_ = formatter.Success(result)
		return nil
	}

	packed, err := resource.Pack(raised)
	if err != nil {
		return WrapExitError(ExitCommandError, "pack raised", err)
	}
	result["raised"] = packed
	_ = formatter.Success(result)
	return NewExitError(ExitFailure, "invocation raised")
}

// recordToJournalIndex opens the configured journal index and records inv
// (and every child it journaled) into it, the same way runTrace opens it
// for querying. The index is a read-optimized side table, not the source
// of truth, but a failure to write it is still surfaced rather than
// swallowed: a silently stale index would make "enact trace" lie.
func recordToJournalIndex(ctx context.Context, cfg *Config, st *store.Store, inv *invoke.Invocation, log *slog.Logger) error {
	idx, err := journalindex.Open(cfg.Index.Path)
	if err != nil {
		return fmt.Errorf("open journal index: %w", err)
	}
	defer idx.Close()

	invocationRef, err := st.Commit(ctx, inv)
	if err != nil {
		return fmt.Errorf("commit invocation for indexing: %w", err)
	}

	if err := journalindex.Record(ctx, idx, st, invocationRef, inv, "", time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("record invocation: %w", err)
	}
	log.Debug("recorded invocation to journal index", "digest", invocationRef.Digest)
	return nil
}
