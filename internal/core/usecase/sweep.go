package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/sermon-ledger/internal/core/ports"
)

// SweepTransientUseCase trashes converted artifacts that an interrupted run left behind.
type SweepTransientUseCase struct {
	store  ports.FileStore
	logger *slog.Logger
}

func NewSweepTransientUseCase(store ports.FileStore, logger *slog.Logger) *SweepTransientUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SweepTransientUseCase{store: store, logger: logger}
}

func (uc *SweepTransientUseCase) SweepTransient(ctx context.Context) (int, error) {
	files, err := uc.store.ListTransient(ctx)
	if err != nil {
		return 0, fmt.Errorf("list transient artifacts: %w", err)
	}

	trashed := 0
	for _, file := range files {
		if err := uc.store.Trash(ctx, file.ID); err != nil {
			uc.logger.Warn("artifact_cleanup_failed", "artifact_id", file.ID, "name", file.Name, "error", err)
			continue
		}
		trashed++
	}

	uc.logger.Info("transient_artifacts_swept", "found", len(files), "trashed", trashed)
	return trashed, nil
}
