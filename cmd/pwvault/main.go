package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ericfisherdev/pwvault/internal/adapter/driving/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, cli.ErrRejected) {
			slog.Error("fatal error", "error", err)
		}
		stop()
		os.Exit(1)
	}
}
