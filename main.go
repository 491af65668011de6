package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"inkblog/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		slog.Error("inkblog exited", "error", err)
		stop()
		os.Exit(1)
	}
}
