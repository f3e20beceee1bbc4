// Command api serves skill extraction over HTTP.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/formbricks/skillmatch/internal/config"
	"github.com/formbricks/skillmatch/internal/observability"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)

		return exitFailure
	}

	slog.SetDefault(observability.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		slog.Error("Failed to start", "error", err)

		return exitFailure
	}

	code := exitSuccess

	if err := app.Run(ctx); err != nil {
		slog.Error("Server error", "error", err)

		code = exitFailure
	}

	slog.Info("Shutting down server...", "timeout", app.ShutdownTimeout())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.ShutdownTimeout())
	defer cancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown error", "error", err)

		code = exitFailure
	}

	slog.Info("Server exited")

	return code
}
