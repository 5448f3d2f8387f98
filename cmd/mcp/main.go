package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/sermon-ledger/internal/adapters/mcp"
	"github.com/kirillkom/sermon-ledger/internal/bootstrap"
	"github.com/kirillkom/sermon-ledger/internal/config"
	"github.com/kirillkom/sermon-ledger/internal/observability/logging"
)

const version = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	cfg, err := config.Load()
	logger := logging.NewJSONLoggerTo(os.Stderr, "ledger-mcp", cfg.LogLevel)
	if err != nil {
		logger.Error("config_load_failed", "error", err)
		return 1
	}

	app, err := bootstrap.New(context.Background(), cfg, logger, nil)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		return 1
	}
	defer app.Close()

	s := mcpadapter.NewServer(version, app.ProcessUC, app.SweepUC, logger)
	if err := server.ServeStdio(s); err != nil {
		logger.Error("mcp_server_failed", "error", err)
		return 1
	}
	return 0
}
