package ports

import (
	"context"

	"github.com/kirillkom/sermon-ledger/internal/core/domain"
)

// RunProcessor is the inbound contract for the "process new files" action.
type RunProcessor interface {
	ProcessNewFiles(ctx context.Context, runID string) (*domain.RunReport, error)
}

// ArtifactSweeper trashes converted artifacts left behind by interrupted runs.
type ArtifactSweeper interface {
	SweepTransient(ctx context.Context) (int, error)
}

// RunRequester queues a run for asynchronous execution.
type RunRequester interface {
	RequestRun(ctx context.Context) (string, error)
}
