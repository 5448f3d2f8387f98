package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/sermon-ledger/internal/core/domain"
)

func TestExecuteRetriesTemporaryFailure(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}, nil)

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTemp
		}
		return nil
	}, func(err error) ErrorClassification {
		return ErrorClassification{
			Retryable:     errors.Is(err, errTemp),
			RecordFailure: true,
		}
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteDoesNotRetryPermanentFailure(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}, nil)

	attempts := 0
	errPermanent := errors.New("permanent")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errPermanent
	}, func(error) ErrorClassification {
		return ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		RetryInitialBackoff:     1 * time.Millisecond,
		RetryMaxBackoff:         1 * time.Millisecond,
		RetryMultiplier:         2,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
	}, nil)

	errUpstream := errors.New("upstream down")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{
			Retryable:     false,
			RecordFailure: true,
		}
	}

	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return errUpstream
		}, classifier)
		if !errors.Is(err, errUpstream) {
			t.Fatalf("expected upstream error on iteration %d, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, classifier)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open state error, got %v", err)
	}
}

func TestPollerRetriesUntilReady(t *testing.T) {
	poller := NewPoller(PollConfig(4, time.Millisecond, 2*time.Millisecond), nil)

	attempts := 0
	err := poller.Poll(context.Background(), "docs.body_text", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return domain.WrapError(domain.ErrNotReady, "read document body", errors.New("empty"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestPollerGivesUpAfterConfiguredAttempts(t *testing.T) {
	poller := NewPoller(PollConfig(2, time.Millisecond, time.Millisecond), nil)

	attempts := 0
	err := poller.Poll(context.Background(), "docs.body_text", func(context.Context) error {
		attempts++
		return domain.WrapError(domain.ErrNotReady, "read document body", errors.New("empty"))
	})
	if !errors.Is(err, domain.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestPollerStopsOnPermanentError(t *testing.T) {
	poller := NewPoller(PollConfig(5, time.Millisecond, time.Millisecond), nil)

	attempts := 0
	errForbidden := errors.New("forbidden")
	err := poller.Poll(context.Background(), "docs.body_text", func(context.Context) error {
		attempts++
		return errForbidden
	})
	if !errors.Is(err, errForbidden) || attempts != 1 {
		t.Fatalf("expected single attempt with permanent error, got attempts=%d err=%v", attempts, err)
	}
}

func TestPollerReturnsLastErrorOnCancel(t *testing.T) {
	poller := NewPoller(PollConfig(5, time.Hour, time.Hour), nil)
	ctx, cancel := context.WithCancel(context.Background())

	err := poller.Poll(ctx, "docs.body_text", func(context.Context) error {
		cancel()
		return domain.WrapError(domain.ErrNotReady, "read document body", errors.New("empty"))
	})
	if !errors.Is(err, domain.ErrNotReady) {
		t.Fatalf("expected last poll error, got %v", err)
	}
}
