// Command enact is the CLI host for invoking, replaying, tracing, serving,
// sweeping, and validating resources against the content-addressed store.
package main

import (
	"fmt"
	"os"

	"github.com/relayrun/enact/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
