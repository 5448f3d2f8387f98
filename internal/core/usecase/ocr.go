package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/sermon-ledger/internal/core/domain"
	"github.com/kirillkom/sermon-ledger/internal/core/ports"
)

type OCRSettings struct {
	TransientPrefix  string
	OCRLanguage      string
	ArtifactFolderID string
	ConversionSettle time.Duration
	FallbackSettle   time.Duration
}

// OCRExtractor converts a PDF into text through a converted copy in the file store.
// Every artifact it creates is trashed before Extract returns.
type OCRExtractor struct {
	store     ports.FileStore
	docs      ports.DocumentReader
	exporter  ports.TextExporter
	textLayer ports.TextLayerReader
	poller    ports.Poller
	settings  OCRSettings
	logger    *slog.Logger
}

func NewOCRExtractor(
	store ports.FileStore,
	docs ports.DocumentReader,
	exporter ports.TextExporter,
	textLayer ports.TextLayerReader,
	poller ports.Poller,
	settings OCRSettings,
	logger *slog.Logger,
) *OCRExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRExtractor{
		store:     store,
		docs:      docs,
		exporter:  exporter,
		textLayer: textLayer,
		poller:    poller,
		settings:  settings,
		logger:    logger,
	}
}

func (e *OCRExtractor) Extract(ctx context.Context, file domain.SourceFile) (string, error) {
	if file.MimeType != domain.MimeTypePDF {
		return "", domain.WrapError(domain.ErrUnsupportedType, "ocr extract", fmt.Errorf("%s has content type %q", file.Name, file.MimeType))
	}

	content, err := e.store.Download(ctx, file.ID)
	if err != nil {
		return "", fmt.Errorf("download source file: %w", err)
	}

	artifact, err := e.store.CreateConvertedCopy(ctx, file, content, e.convertOptions(file, false))
	if err != nil {
		return "", domain.WrapError(domain.ErrConversionFailed, "create converted copy", err)
	}
	if artifact == nil || artifact.ID == "" {
		return "", domain.WrapError(domain.ErrConversionFailed, "create converted copy", errors.New("no artifact id returned"))
	}
	defer e.trash(ctx, artifact.ID)

	text := e.readArtifact(ctx, file, artifact.ID)
	if strings.TrimSpace(text) == "" && e.textLayer != nil && ctx.Err() == nil {
		text = e.readTextLayer(ctx, file, content)
	}
	return strings.TrimSpace(text), nil
}

func (e *OCRExtractor) readArtifact(ctx context.Context, file domain.SourceFile, artifactID string) string {
	if err := settle(ctx, e.settings.ConversionSettle); err != nil {
		return ""
	}

	converted, err := e.store.GetFile(ctx, artifactID)
	if err != nil {
		e.logger.Warn("artifact_lookup_failed", "file_id", file.ID, "artifact_id", artifactID, "error", err)
	}

	if converted != nil && converted.MimeType == domain.MimeTypeGoogleDoc {
		text, err := e.pollBodyText(ctx, artifactID)
		if err != nil {
			e.logger.Warn("document_body_unavailable", "file_id", file.ID, "artifact_id", artifactID, "error", err)
		}
		return text
	}

	// A successful export is final even when blank; the text layer covers that case.
	text, err := e.exporter.ExportPlainText(ctx, artifactID)
	if err == nil {
		return text
	}
	e.logger.Warn("plain_text_export_failed", "file_id", file.ID, "artifact_id", artifactID, "error", err)
	return e.alternateConversion(ctx, file)
}

func (e *OCRExtractor) alternateConversion(ctx context.Context, file domain.SourceFile) string {
	alt, err := e.store.CreateConvertedCopy(ctx, file, nil, e.convertOptions(file, true))
	if err != nil || alt == nil || alt.ID == "" {
		e.logger.Warn("alternate_conversion_failed", "file_id", file.ID, "error", err)
		return ""
	}
	defer e.trash(ctx, alt.ID)

	if err := settle(ctx, e.settings.FallbackSettle); err != nil {
		return ""
	}
	text, err := e.pollBodyText(ctx, alt.ID)
	if err != nil {
		e.logger.Warn("alternate_document_body_unavailable", "file_id", file.ID, "artifact_id", alt.ID, "error", err)
	}
	return text
}

func (e *OCRExtractor) pollBodyText(ctx context.Context, documentID string) (string, error) {
	var text string
	read := func(ctx context.Context) error {
		body, err := e.docs.BodyText(ctx, documentID)
		if err != nil {
			return err
		}
		if strings.TrimSpace(body) == "" {
			return domain.WrapError(domain.ErrNotReady, "read document body", fmt.Errorf("document %s has no text yet", documentID))
		}
		text = body
		return nil
	}

	if e.poller == nil {
		return text, read(ctx)
	}
	return text, e.poller.Poll(ctx, "docs.body_text", read)
}

func (e *OCRExtractor) readTextLayer(ctx context.Context, file domain.SourceFile, content []byte) string {
	text, err := e.textLayer.ReadText(ctx, content)
	if err != nil {
		e.logger.Debug("pdf_text_layer_unavailable", "file_id", file.ID, "error", err)
		return ""
	}
	return text
}

func (e *OCRExtractor) convertOptions(file domain.SourceFile, serverSide bool) domain.ConvertOptions {
	return domain.ConvertOptions{
		Name:           e.settings.TransientPrefix + file.Name,
		OCRLanguage:    e.settings.OCRLanguage,
		TargetMimeType: domain.MimeTypeGoogleDoc,
		ParentID:       e.settings.ArtifactFolderID,
		ServerSideCopy: serverSide,
	}
}

// trash never fails the caller; the run may already be cancelled.
func (e *OCRExtractor) trash(ctx context.Context, artifactID string) {
	if err := e.store.Trash(context.WithoutCancel(ctx), artifactID); err != nil {
		e.logger.Warn("artifact_cleanup_failed", "artifact_id", artifactID, "error", err)
		return
	}
	e.logger.Debug("artifact_trashed", "artifact_id", artifactID)
}

func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
