package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/sermon-ledger/internal/config"
	"github.com/kirillkom/sermon-ledger/internal/core/ports"
	"github.com/kirillkom/sermon-ledger/internal/core/usecase"
	"github.com/kirillkom/sermon-ledger/internal/infrastructure/google/auth"
	"github.com/kirillkom/sermon-ledger/internal/infrastructure/google/docs"
	"github.com/kirillkom/sermon-ledger/internal/infrastructure/google/drive"
	"github.com/kirillkom/sermon-ledger/internal/infrastructure/google/sheets"
	"github.com/kirillkom/sermon-ledger/internal/infrastructure/ledger/xlsx"
	"github.com/kirillkom/sermon-ledger/internal/infrastructure/llm/gemini"
	"github.com/kirillkom/sermon-ledger/internal/infrastructure/pdftext"
	"github.com/kirillkom/sermon-ledger/internal/infrastructure/queue/nats"
	"github.com/kirillkom/sermon-ledger/internal/infrastructure/repository/sqlstore"
	"github.com/kirillkom/sermon-ledger/internal/infrastructure/resilience"
)

const maxTextLayerBytes = 64 << 20

type App struct {
	Config config.Config

	Store   ports.FileStore
	Ledger  ports.Ledger
	Queue   ports.RunQueue
	Journal ports.RunJournal

	ProcessUC *usecase.ProcessNewFilesUseCase
	SweepUC   *usecase.SweepTransientUseCase
	// RequestUC is nil when no queue is configured.
	RequestUC *usecase.RequestRunUseCase

	closeFns []func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger, runMetrics ports.RunMetrics) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{Config: cfg}

	httpClient, err := auth.NewHTTPClient(ctx, cfg.GoogleCredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("init google credentials: %w", err)
	}

	store, err := drive.New(ctx, httpClient, drive.Options{
		TransientPrefix: cfg.TransientPrefix,
		ExportBaseURL:   cfg.DriveExportBaseURL,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init drive: %w", err)
	}
	app.Store = store

	docReader, err := docs.New(ctx, httpClient)
	if err != nil {
		return nil, fmt.Errorf("init docs: %w", err)
	}

	ledger, err := newLedger(ctx, cfg, httpClient)
	if err != nil {
		return nil, err
	}
	app.Ledger = ledger

	var breaker *resilience.Executor
	if cfg.AIBreakerEnabled {
		breaker = resilience.NewExecutor(resilience.BreakerConfig(3, 5*time.Minute), logger)
	}
	metadata, err := gemini.New(ctx, gemini.Options{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
		Breaker: breaker,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init gemini: %w", err)
	}

	poller := resilience.NewPoller(
		resilience.PollConfig(cfg.ReadyPollAttempts, cfg.ReadyPollBackoff, cfg.ReadyPollMaxBackoff),
		logger,
	)
	extractor := usecase.NewOCRExtractor(
		store,
		docReader,
		store,
		pdftext.New(maxTextLayerBytes),
		poller,
		usecase.OCRSettings{
			TransientPrefix:  cfg.TransientPrefix,
			OCRLanguage:      cfg.OCRLanguage,
			ArtifactFolderID: cfg.ArtifactFolderID,
			ConversionSettle: cfg.ConversionSettle,
			FallbackSettle:   cfg.FallbackSettle,
		},
		logger,
	)

	processUC := usecase.NewProcessNewFilesUseCase(
		store,
		usecase.NewLinkRegistry(ledger),
		extractor,
		metadata,
		usecase.NewLedgerWriter(ledger),
		usecase.ProcessSettings{
			FolderID:        cfg.DriveFolderID,
			TransientPrefix: cfg.TransientPrefix,
			MinTextLength:   cfg.MinTextLength,
			LeaseTTL:        cfg.LeaseTTL,
		},
		logger,
	)
	if runMetrics != nil {
		processUC.WithMetrics(runMetrics)
	}

	if dsn := strings.TrimSpace(cfg.DatabaseDSN); dsn != "" {
		db, dialect, err := sqlstore.OpenDB(dsn)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("open database: %w", err)
		}
		app.closeFns = append(app.closeFns, func() { _ = db.Close() })

		sqlStore := sqlstore.New(db, dialect)
		if err := sqlStore.EnsureSchema(ctx); err != nil {
			app.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		processUC.WithLeases(sqlStore).WithJournal(sqlStore)
		app.Journal = sqlStore
	}

	if url := strings.TrimSpace(cfg.NATSURL); url != "" {
		queue, err := nats.NewWithOptions(url, cfg.NATSSubject, nats.Options{Logger: logger})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		app.closeFns = append(app.closeFns, queue.Close)
		app.Queue = queue
		app.RequestUC = usecase.NewRequestRunUseCase(queue)
	}

	app.ProcessUC = processUC
	app.SweepUC = usecase.NewSweepTransientUseCase(store, logger)
	return app, nil
}

func newLedger(ctx context.Context, cfg config.Config, httpClient *http.Client) (ports.Ledger, error) {
	switch cfg.LedgerBackend {
	case "xlsx":
		ledger, err := xlsx.New(cfg.LedgerXLSXPath, cfg.SheetTab)
		if err != nil {
			return nil, fmt.Errorf("init xlsx ledger: %w", err)
		}
		return ledger, nil
	default:
		ledger, err := sheets.New(ctx, httpClient, cfg.SpreadsheetID, cfg.SheetTab)
		if err != nil {
			return nil, fmt.Errorf("init sheets ledger: %w", err)
		}
		return ledger, nil
	}
}

func (a *App) Close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		a.closeFns[i]()
	}
	a.closeFns = nil
}
