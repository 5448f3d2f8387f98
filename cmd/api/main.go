package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	httpadapter "github.com/kirillkom/sermon-ledger/internal/adapters/http"
	"github.com/kirillkom/sermon-ledger/internal/bootstrap"
	"github.com/kirillkom/sermon-ledger/internal/config"
	"github.com/kirillkom/sermon-ledger/internal/observability/logging"
	"github.com/kirillkom/sermon-ledger/internal/observability/metrics"
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	cfg, err := config.Load()
	logger := logging.NewJSONLogger("ledger-api", cfg.LogLevel)
	if err != nil {
		logger.Error("config_load_failed", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.NewHTTPServerMetrics("ledger-api")
	runMetrics := metrics.NewRunMetricsWithRegistry(httpMetrics.Registry(), "ledger-api")

	app, err := bootstrap.New(ctx, cfg, logger, runMetrics)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		return 1
	}
	defer app.Close()

	deps := httpadapter.Dependencies{
		Processor: app.ProcessUC,
		Sweeper:   app.SweepUC,
		Metrics:   httpMetrics,
		Logger:    logger,
	}
	if app.RequestUC != nil {
		deps.Requester = app.RequestUC
	}
	if app.Journal != nil {
		deps.Journal = app.Journal
	}

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      httpadapter.NewRouter(deps).Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RunTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort, "queued_runs", app.RequestUC != nil)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
		return 1
	}
	return 0
}
