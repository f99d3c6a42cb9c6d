package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wsciaroni/opsdeck-cli/internal/api"
	"github.com/wsciaroni/opsdeck-cli/internal/cmd"
	"github.com/wsciaroni/opsdeck-cli/internal/exitcode"
	"github.com/wsciaroni/opsdeck-cli/internal/ux"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.ExecuteContext(ctx)
	stop()

	switch {
	case err == nil:
	case ctx.Err() != nil:
		fmt.Fprintln(os.Stderr, "\nOperation cancelled")
		exitcode.Exit(exitcode.Interrupted)
	case !api.WasNotified(err):
		// The notifier already printed request failures.
		fmt.Fprintf(os.Stderr, "Error: %v\n", ux.EnhanceError(err))
	}
	exitcode.ExitWithError(err)
}
