package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/relayrun/enact/examples/dice"
	"github.com/relayrun/enact/internal/invoke"
	"github.com/relayrun/enact/internal/resource"
	"github.com/relayrun/enact/pkg/httpadapter"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand builds the serve subcommand: runs the HTTP adapter,
// exposing the example invokables over POST /invoke/{route} and a live
// /trace WebSocket feed.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP adapter over the configured store",
		Long: `Serve starts an HTTP server exposing the example invokables at
/invoke/{route} and a live invocation trace at /trace (WebSocket).

Example:
  enact serve --addr :8090`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8090", "address to listen on")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := LoadConfig(opts.ConfigPath, opts.EnvFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}
	st, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return WrapExitError(ExitCommandError, "open store", err)
	}

	server := httpadapter.New(st, slog.Default())
	server.Register("rolldice", func(body map[string]any) (invoke.Invokable, resource.Resource, error) {
		sides, _ := body["sides"].(float64)
		count, _ := body["count"].(float64)
		seed, _ := body["seed"].(float64)
		roll := &dice.RollDice{Sides: int64(sides), Count: int64(count), Seed: int64(seed)}
		return roll, roll, nil
	})

	fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", opts.Addr)
	return http.ListenAndServe(opts.Addr, server.Handler())
}
