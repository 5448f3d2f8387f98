package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kirillkom/sermon-ledger/internal/bootstrap"
	"github.com/kirillkom/sermon-ledger/internal/config"
	"github.com/kirillkom/sermon-ledger/internal/core/domain"
	"github.com/kirillkom/sermon-ledger/internal/infrastructure/scheduler"
	"github.com/kirillkom/sermon-ledger/internal/observability/logging"
	"github.com/kirillkom/sermon-ledger/internal/observability/metrics"
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	cfg, err := config.Load()
	logger := logging.NewJSONLogger("ledger-worker", cfg.LogLevel)
	if err != nil {
		logger.Error("config_load_failed", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runMetrics := metrics.NewRunMetrics("ledger-worker")
	app, err := bootstrap.New(ctx, cfg, logger, runMetrics)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		return 1
	}
	defer app.Close()

	if app.Queue == nil && strings.TrimSpace(cfg.RunSchedule) == "" {
		logger.Error("worker_has_no_trigger", "hint", "set NATS_URL or RUN_SCHEDULE")
		return 1
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           runMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()

	exitCode := 0
	var sched *scheduler.Scheduler
	if spec := strings.TrimSpace(cfg.RunSchedule); spec != "" {
		sched = scheduler.New(app.ProcessUC, cfg.RunTimeout, logger)
		if err := sched.Start(spec); err != nil {
			logger.Error("scheduler_start_failed", "error", err)
			return 1
		}
	}

	if app.Queue != nil {
		logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
		err = app.Queue.SubscribeRunRequested(ctx, func(handlerCtx context.Context, runID string) error {
			runCtx, cancel := context.WithTimeout(handlerCtx, cfg.RunTimeout)
			defer cancel()
			report, err := app.ProcessUC.ProcessNewFiles(runCtx, runID)
			if errors.Is(err, domain.ErrRunInProgress) {
				logger.Info("queued_run_skipped", "run_id", runID, "reason", "run in progress")
				return nil
			}
			if err != nil {
				return err
			}
			logger.Info("queued_run_completed", "run_id", runID, "summary", report.Summary())
			return nil
		})
		if err != nil {
			logger.Error("worker_subscribe_failed", "error", err)
			exitCode = 1
		}
	} else {
		<-ctx.Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("worker_metrics_shutdown_failed", "error", err)
	}
	return exitCode
}
