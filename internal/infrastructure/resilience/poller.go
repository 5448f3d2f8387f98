package resilience

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/kirillkom/sermon-ledger/internal/core/domain"
)

// Poller waits for a converted artifact to become readable. Only ErrNotReady and
// ErrTemporary are retried; anything else ends the poll immediately.
type Poller struct {
	exec *Executor
}

func NewPoller(cfg Config, logger *slog.Logger) *Poller {
	cfg.BreakerEnabled = false
	return &Poller{exec: NewExecutor(cfg, logger)}
}

func (p *Poller) Poll(ctx context.Context, operation string, fn func(context.Context) error) error {
	return p.exec.Execute(ctx, operation, fn, ClassifyReadiness)
}

func ClassifyReadiness(err error) ErrorClassification {
	switch {
	case err == nil:
		return ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorClassification{Retryable: false, RecordFailure: false}
	case domain.IsKind(err, domain.ErrNotReady):
		return ErrorClassification{Retryable: true, RecordFailure: false}
	case domain.IsKind(err, domain.ErrTemporary):
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return ErrorClassification{Retryable: false, RecordFailure: true}
}
