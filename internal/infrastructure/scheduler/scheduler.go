package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/kirillkom/sermon-ledger/internal/core/domain"
	"github.com/kirillkom/sermon-ledger/internal/core/ports"
)

// Scheduler triggers ProcessNewFiles on a cron spec (standard five fields or @every/@hourly).
type Scheduler struct {
	processor ports.RunProcessor
	cron      *cron.Cron
	timeout   time.Duration
	logger    *slog.Logger
}

func New(processor ports.RunProcessor, timeout time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &Scheduler{
		processor: processor,
		cron:      cron.New(),
		timeout:   timeout,
		logger:    logger,
	}
}

func (s *Scheduler) Start(spec string) error {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return domain.WrapError(domain.ErrInvalidInput, "start scheduler", errors.New("empty schedule"))
	}
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	s.cron.Start()
	s.logger.Info("scheduler_started", "schedule", spec)
	return nil
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	s.logger.Info("scheduler_stopped")
}

func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	runID := uuid.NewString()
	report, err := s.processor.ProcessNewFiles(ctx, runID)
	switch {
	case errors.Is(err, domain.ErrRunInProgress):
		s.logger.Info("scheduled_run_skipped", "run_id", runID, "reason", "run in progress")
	case err != nil:
		s.logger.Error("scheduled_run_failed", "run_id", runID, "error", err)
	default:
		s.logger.Info("scheduled_run_completed", "run_id", runID, "summary", report.Summary())
	}
}
