// Command flint runs scripted functional tests against block-game servers.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/JunkyDeveloper/flint-core/internal/cli"
	"github.com/JunkyDeveloper/flint-core/internal/telemetry"
)

const telemetryShutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	shutdown, err := telemetry.Setup(context.Background(), "flint")
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry disabled: %v\n", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "telemetry shutdown: %v\n", err)
		}
	}()

	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}
