package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/florianilch/messagebridge/cmd/messagebridge/commands"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	// Cancellation on SIGINT/SIGTERM drives graceful shutdown in every command.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx, os.Args, version, commit); err != nil {
		slog.ErrorContext(ctx, "Application failed", "error", err)
		os.Exit(1)
	}
}
