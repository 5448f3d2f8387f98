package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kirillkom/sermon-ledger/internal/core/ports"
)

// RequestRunUseCase hands a run off to the worker through the queue.
type RequestRunUseCase struct {
	queue ports.RunQueue
}

func NewRequestRunUseCase(queue ports.RunQueue) *RequestRunUseCase {
	return &RequestRunUseCase{queue: queue}
}

func (uc *RequestRunUseCase) RequestRun(ctx context.Context) (string, error) {
	runID := uuid.NewString()
	if err := uc.queue.PublishRunRequested(ctx, runID); err != nil {
		return "", fmt.Errorf("publish run request: %w", err)
	}
	return runID, nil
}
