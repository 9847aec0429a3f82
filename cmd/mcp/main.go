package main

import (
	"context"
	"log/slog"
	"os"

	mcpadapter "github.com/kirillkom/pension-law-assistant/internal/adapters/mcp"
	"github.com/kirillkom/pension-law-assistant/internal/bootstrap"
	"github.com/kirillkom/pension-law-assistant/internal/config"
	"github.com/kirillkom/pension-law-assistant/internal/observability/logging"
)

// Overridden with -ldflags "-X main.version=..." on release builds.
var version = "dev"

func main() {
	cfg := config.Load()
	// Stdout carries the MCP stream, so logs go to stderr.
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel))

	app, err := bootstrap.New(context.Background(), cfg, nil)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := mcpadapter.NewServer(app.AskUC, app.EnrichUC, app.StatsUC, version)
	slog.Info("mcp_serving_stdio", "version", version)
	if err := srv.ServeStdio(); err != nil {
		slog.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
