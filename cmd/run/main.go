package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/kirillkom/sermon-ledger/internal/bootstrap"
	"github.com/kirillkom/sermon-ledger/internal/config"
	"github.com/kirillkom/sermon-ledger/internal/observability/logging"
)

// Usage: run [sweep]
func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	_ = godotenv.Load()

	cfg, err := config.Load()
	logger := logging.NewJSONLogger("ledger-run", cfg.LogLevel)
	if err != nil {
		logger.Error("config_load_failed", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	app, err := bootstrap.New(ctx, cfg, logger, nil)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		return 1
	}
	defer app.Close()

	if len(args) > 0 && args[0] == "sweep" {
		trashed, err := app.SweepUC.SweepTransient(ctx)
		if err != nil {
			logger.Error("sweep_failed", "error", err)
			return 1
		}
		fmt.Printf("Trashed %d transient artifact(s).\n", trashed)
		return 0
	}

	report, err := app.ProcessUC.ProcessNewFiles(ctx, "")
	if err != nil {
		logger.Error("run_failed", "error", err)
		return 1
	}
	fmt.Println(report.Summary())
	return 0
}
