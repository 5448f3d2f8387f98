package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kirillkom/sermon-ledger/internal/core/domain"
	"github.com/kirillkom/sermon-ledger/internal/core/ports"
)

type ProcessSettings struct {
	FolderID        string
	TransientPrefix string
	MinTextLength   int
	LeaseTTL        time.Duration
}

// ProcessNewFilesUseCase runs the discover -> OCR -> metadata -> append pipeline over a folder.
// Files are handled one at a time and a failure never leaves its file's boundary.
type ProcessNewFilesUseCase struct {
	store     ports.FileStore
	registry  *LinkRegistry
	extractor ports.TextExtractor
	metadata  ports.MetadataExtractor
	writer    *LedgerWriter

	leases  ports.LeaseStore
	journal ports.RunJournal
	metrics ports.RunMetrics

	settings ProcessSettings
	logger   *slog.Logger

	running sync.Mutex
}

func NewProcessNewFilesUseCase(
	store ports.FileStore,
	registry *LinkRegistry,
	extractor ports.TextExtractor,
	metadata ports.MetadataExtractor,
	writer *LedgerWriter,
	settings ProcessSettings,
	logger *slog.Logger,
) *ProcessNewFilesUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	if settings.MinTextLength <= 0 {
		settings.MinTextLength = 50
	}
	return &ProcessNewFilesUseCase{
		store:     store,
		registry:  registry,
		extractor: extractor,
		metadata:  metadata,
		writer:    writer,
		settings:  settings,
		logger:    logger,
	}
}

func (uc *ProcessNewFilesUseCase) WithLeases(leases ports.LeaseStore) *ProcessNewFilesUseCase {
	uc.leases = leases
	return uc
}

func (uc *ProcessNewFilesUseCase) WithJournal(journal ports.RunJournal) *ProcessNewFilesUseCase {
	uc.journal = journal
	return uc
}

func (uc *ProcessNewFilesUseCase) WithMetrics(metrics ports.RunMetrics) *ProcessNewFilesUseCase {
	uc.metrics = metrics
	return uc
}

func (uc *ProcessNewFilesUseCase) ProcessNewFiles(ctx context.Context, runID string) (*domain.RunReport, error) {
	if !uc.running.TryLock() {
		return nil, domain.ErrRunInProgress
	}
	defer uc.running.Unlock()

	if strings.TrimSpace(runID) == "" {
		runID = uuid.NewString()
	}
	report := &domain.RunReport{RunID: runID, StartedAt: time.Now().UTC()}
	logger := uc.logger.With("run_id", runID)

	if uc.metrics != nil {
		uc.metrics.StartRun()
	}

	err := uc.run(ctx, logger, report)
	report.FinishedAt = time.Now().UTC()
	if uc.metrics != nil {
		uc.metrics.FinishRun(report, err)
	}
	if err != nil {
		logger.Error("run_aborted", "error", err)
		return report, err
	}

	logger.Info("run_completed",
		"listed", report.Listed,
		"attempted", report.Attempted,
		"succeeded", report.Succeeded,
		"skipped", report.Skipped,
		"duration_ms", report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	)
	return report, nil
}

func (uc *ProcessNewFilesUseCase) run(ctx context.Context, logger *slog.Logger, report *domain.RunReport) error {
	files, err := uc.store.ListFiles(ctx, uc.settings.FolderID, domain.MimeTypePDF)
	if err != nil {
		return fmt.Errorf("list source files: %w", err)
	}
	processed, err := uc.registry.Load(ctx)
	if err != nil {
		return fmt.Errorf("load processed links: %w", err)
	}

	report.Listed = len(files)
	logger.Info("run_started", "files", len(files), "processed_links", len(processed))

	for _, file := range files {
		if ctx.Err() != nil {
			logger.Warn("run_interrupted", "error", ctx.Err(), "remaining_from", file.ID)
			break
		}
		outcome := uc.processFile(ctx, logger, file, processed, report.RunID)
		report.Add(outcome)
		uc.record(ctx, logger, report.RunID, outcome)
	}
	return nil
}

func (uc *ProcessNewFilesUseCase) processFile(
	ctx context.Context,
	logger *slog.Logger,
	file domain.SourceFile,
	processed map[string]struct{},
	runID string,
) (outcome domain.FileOutcome) {
	start := time.Now()
	outcome = domain.FileOutcome{FileID: file.ID, Name: file.Name, URL: file.URL}
	logger = logger.With("file_id", file.ID, "name", file.Name)

	defer func() {
		if r := recover(); r != nil {
			outcome.Status = domain.OutcomePanicked
			outcome.Reason = fmt.Sprint(r)
			logger.Error("file_panicked", "panic", r, "stack", string(debug.Stack()))
		}
		outcome.Duration = time.Since(start)
	}()

	if uc.isTransient(file) {
		outcome.Status = domain.OutcomeSkippedTransient
		logger.Debug("file_skipped", "status", outcome.Status)
		return outcome
	}

	if uc.leases != nil {
		claimed, err := uc.leases.Claim(ctx, file.URL, runID, uc.settings.LeaseTTL)
		if err != nil || !claimed {
			outcome.Status = domain.OutcomeSkippedLeased
			if err != nil {
				outcome.Reason = err.Error()
				logger.Warn("lease_claim_failed", "error", err)
			} else {
				logger.Info("file_leased_elsewhere")
			}
			return outcome
		}
		defer func() {
			if outcome.Status != domain.OutcomeProcessed {
				uc.release(ctx, logger, file.URL, runID)
			}
		}()
	}

	if _, ok := processed[file.URL]; ok {
		outcome.Status = domain.OutcomeSkippedDuplicate
		logger.Debug("file_skipped", "status", outcome.Status)
		return outcome
	}

	uc.runPipeline(ctx, logger, file, &outcome)
	if outcome.Status == domain.OutcomeProcessed {
		processed[file.URL] = struct{}{}
	}
	return outcome
}

func (uc *ProcessNewFilesUseCase) runPipeline(ctx context.Context, logger *slog.Logger, file domain.SourceFile, outcome *domain.FileOutcome) {
	logger.Info("file_processing_started")

	text, err := uc.extractor.Extract(ctx, file)
	if err != nil {
		outcome.Status = domain.OutcomeExtractionFailed
		outcome.Reason = err.Error()
		logger.Warn("text_extraction_failed", "error", err)
		return
	}
	if chars := utf8.RuneCountInString(text); chars < uc.settings.MinTextLength {
		outcome.Status = domain.OutcomeTextTooShort
		outcome.Reason = fmt.Sprintf("extracted %d characters, need %d", chars, uc.settings.MinTextLength)
		logger.Warn("extracted_text_too_short", "chars", chars, "min_chars", uc.settings.MinTextLength)
		return
	}

	record, err := uc.metadata.ExtractMetadata(ctx, text)
	if err != nil || record == nil {
		outcome.Status = domain.OutcomeAIFailed
		if err != nil {
			outcome.Reason = err.Error()
		}
		logger.Warn("metadata_extraction_failed", "error", err)
		return
	}

	if err := uc.writer.Append(ctx, file, *record); err != nil {
		outcome.Status = domain.OutcomeLedgerFailed
		outcome.Reason = err.Error()
		logger.Error("ledger_append_failed", "error", err)
		return
	}

	outcome.Status = domain.OutcomeProcessed
	logger.Info("file_processed", "title", record.Title, "references", len(record.References))
}

func (uc *ProcessNewFilesUseCase) isTransient(file domain.SourceFile) bool {
	if file.Transient {
		return true
	}
	return uc.settings.TransientPrefix != "" && strings.HasPrefix(file.Name, uc.settings.TransientPrefix)
}

func (uc *ProcessNewFilesUseCase) release(ctx context.Context, logger *slog.Logger, key, owner string) {
	if err := uc.leases.Release(context.WithoutCancel(ctx), key, owner); err != nil {
		logger.Warn("lease_release_failed", "error", err)
	}
}

func (uc *ProcessNewFilesUseCase) record(ctx context.Context, logger *slog.Logger, runID string, outcome domain.FileOutcome) {
	if uc.metrics != nil {
		uc.metrics.ObserveFile(outcome)
	}
	if uc.journal == nil {
		return
	}
	if err := uc.journal.RecordOutcome(context.WithoutCancel(ctx), runID, outcome); err != nil {
		logger.Warn("journal_record_failed", "file_id", outcome.FileID, "error", err)
	}
}
