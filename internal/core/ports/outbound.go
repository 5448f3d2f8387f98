package ports

import (
	"context"
	"time"

	"github.com/kirillkom/sermon-ledger/internal/core/domain"
)

// FileStore lists source documents and manages converted copies of them.
type FileStore interface {
	ListFiles(ctx context.Context, folderID, mimeType string) ([]domain.SourceFile, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
	CreateConvertedCopy(ctx context.Context, src domain.SourceFile, content []byte, opts domain.ConvertOptions) (*domain.SourceFile, error)
	GetFile(ctx context.Context, fileID string) (*domain.SourceFile, error)
	Trash(ctx context.Context, fileID string) error
	ListTransient(ctx context.Context) ([]domain.SourceFile, error)
}

// DocumentReader reads the body text of a native document.
type DocumentReader interface {
	BodyText(ctx context.Context, documentID string) (string, error)
}

// TextExporter exports a stored file as plain text.
type TextExporter interface {
	ExportPlainText(ctx context.Context, fileID string) (string, error)
}

// TextLayerReader extracts an embedded text layer from PDF bytes.
type TextLayerReader interface {
	ReadText(ctx context.Context, content []byte) (string, error)
}

// MetadataExtractor turns document text into a metadata record.
type MetadataExtractor interface {
	ExtractMetadata(ctx context.Context, text string) (*domain.MetadataRecord, error)
}

// Ledger is the tabular store holding one row per processed document.
// Columns and rows are 1-based.
type Ledger interface {
	ReadColumn(ctx context.Context, column, firstRow int) ([]string, error)
	AppendRow(ctx context.Context, values []string) error
}

// LeaseStore guards a document against concurrent runs.
type LeaseStore interface {
	Claim(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, owner string) error
}

// RunJournal records per-file outcomes, including failed attempts.
type RunJournal interface {
	RecordOutcome(ctx context.Context, runID string, outcome domain.FileOutcome) error
	ListOutcomes(ctx context.Context, runID string) ([]domain.FileOutcome, error)
}

// RunMetrics observes run and file processing.
type RunMetrics interface {
	StartRun()
	FinishRun(report *domain.RunReport, err error)
	ObserveFile(outcome domain.FileOutcome)
}

// RunQueue publishes and consumes run requests.
type RunQueue interface {
	PublishRunRequested(ctx context.Context, runID string) error
	SubscribeRunRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor turns a stored source document into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, file domain.SourceFile) (string, error)
}

// Poller re-runs fn with backoff while it reports a retryable failure.
type Poller interface {
	Poll(ctx context.Context, operation string, fn func(context.Context) error) error
}
