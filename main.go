// Command kiln renders application icons from a 3D mesh by running a render
// script against a host backend.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/chazu/kiln/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		logging.LogFatal("%v", err)
	}
}
