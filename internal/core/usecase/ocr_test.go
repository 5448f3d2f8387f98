package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/kirillkom/sermon-ledger/internal/core/domain"
)

type ocrHarness struct {
	store     *fileStoreFake
	docs      *docsFake
	exporter  *exporterFake
	textLayer *textLayerFake
	poller    *pollerFake
}

func newOCRHarness() *ocrHarness {
	return &ocrHarness{
		store:     &fileStoreFake{},
		docs:      &docsFake{bodies: map[string]string{}, errs: map[string]error{}},
		exporter:  &exporterFake{},
		textLayer: &textLayerFake{},
		poller:    &pollerFake{attempts: 3},
	}
}

func (h *ocrHarness) extractor() *OCRExtractor {
	return NewOCRExtractor(h.store, h.docs, h.exporter, h.textLayer, h.poller, OCRSettings{
		TransientPrefix:  prefix,
		OCRLanguage:      "en",
		ArtifactFolderID: "artifacts",
	}, nil)
}

func TestOCRExtractorRejectsNonPDF(t *testing.T) {
	h := newOCRHarness()
	file := pdf("a")
	file.MimeType = "image/png"

	_, err := h.extractor().Extract(context.Background(), file)
	if !errors.Is(err, domain.ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if len(h.store.created) != 0 || len(h.store.trashed) != 0 {
		t.Fatalf("non-PDF input must not mutate the store")
	}
}

func TestOCRExtractorConversionFailureLeavesNothingToClean(t *testing.T) {
	h := newOCRHarness()
	h.store.createFn = func(domain.ConvertOptions) (*domain.SourceFile, error) {
		return &domain.SourceFile{}, nil
	}

	_, err := h.extractor().Extract(context.Background(), pdf("a"))
	if !errors.Is(err, domain.ErrConversionFailed) {
		t.Fatalf("expected ErrConversionFailed, got %v", err)
	}
	if len(h.store.trashed) != 0 {
		t.Fatalf("unexpected trash calls: %v", h.store.trashed)
	}
}

func TestOCRExtractorReadsConvertedDocumentAndTrashesIt(t *testing.T) {
	h := newOCRHarness()
	h.docs.bodies["artifact-1"] = "  Sermon body text\n"

	text, err := h.extractor().Extract(context.Background(), pdf("a"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "Sermon body text" {
		t.Fatalf("unexpected text: %q", text)
	}

	opts := h.store.created[0]
	if opts.Name != prefix+"a.pdf" || opts.OCRLanguage != "en" || opts.TargetMimeType != domain.MimeTypeGoogleDoc {
		t.Fatalf("unexpected convert options: %+v", opts)
	}
	if opts.ParentID != "artifacts" || opts.ServerSideCopy {
		t.Fatalf("unexpected convert options: %+v", opts)
	}
	if !reflect.DeepEqual(h.store.trashed, []string{"artifact-1"}) {
		t.Fatalf("expected artifact trashed, got %v", h.store.trashed)
	}
	if h.exporter.calls != 0 || h.textLayer.calls != 0 {
		t.Fatalf("fallbacks must not run when the document body is available")
	}
}

func TestOCRExtractorUsesPlainTextExportForNonDocumentArtifact(t *testing.T) {
	h := newOCRHarness()
	h.store.mimeTypes = map[string]string{"artifact-1": domain.MimeTypePDF}
	h.exporter.text = "exported text"

	text, err := h.extractor().Extract(context.Background(), pdf("a"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "exported text" {
		t.Fatalf("unexpected text: %q", text)
	}
	if len(h.docs.calls) != 0 {
		t.Fatalf("docs reader must not be called for non-document artifacts")
	}
	if len(h.store.created) != 1 {
		t.Fatalf("alternate conversion must not run after a successful export")
	}
}

func TestOCRExtractorBlankExportSkipsAlternateConversion(t *testing.T) {
	h := newOCRHarness()
	h.store.mimeTypes = map[string]string{"artifact-1": domain.MimeTypePDF}
	h.exporter.text = "  \n"
	h.textLayer.text = "text layer"

	text, err := h.extractor().Extract(context.Background(), pdf("a"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "text layer" {
		t.Fatalf("unexpected text: %q", text)
	}
	if len(h.store.created) != 1 {
		t.Fatalf("blank export must not start an alternate conversion, got %+v", h.store.created)
	}
	if h.textLayer.calls != 1 {
		t.Fatalf("expected text layer fallback, got %d calls", h.textLayer.calls)
	}
}

func TestOCRExtractorFallsBackToServerSideCopy(t *testing.T) {
	h := newOCRHarness()
	h.store.mimeTypes = map[string]string{"artifact-1": domain.MimeTypePDF}
	h.exporter.err = domain.WrapError(domain.ErrUpstreamStatus, "export", errors.New("status 403"))
	h.docs.bodies["artifact-2"] = "alternate text"

	text, err := h.extractor().Extract(context.Background(), pdf("a"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "alternate text" {
		t.Fatalf("unexpected text: %q", text)
	}
	if len(h.store.created) != 2 || !h.store.created[1].ServerSideCopy {
		t.Fatalf("expected server-side copy as second conversion, got %+v", h.store.created)
	}
	if !reflect.DeepEqual(h.store.trashed, []string{"artifact-2", "artifact-1"}) {
		t.Fatalf("expected both artifacts trashed, got %v", h.store.trashed)
	}
}

func TestOCRExtractorTrashesAlternateArtifactWhenBodyFails(t *testing.T) {
	h := newOCRHarness()
	h.store.mimeTypes = map[string]string{"artifact-1": domain.MimeTypePDF}
	h.exporter.err = errors.New("export failed")
	h.docs.errs["artifact-2"] = errors.New("docs unavailable")
	h.textLayer.err = errors.New("no text layer")

	text, err := h.extractor().Extract(context.Background(), pdf("a"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty text, got %q", text)
	}
	if !reflect.DeepEqual(h.store.trashed, []string{"artifact-2", "artifact-1"}) {
		t.Fatalf("expected both artifacts trashed, got %v", h.store.trashed)
	}
}

func TestOCRExtractorFallsBackToTextLayer(t *testing.T) {
	h := newOCRHarness()
	h.textLayer.text = "embedded text layer"

	text, err := h.extractor().Extract(context.Background(), pdf("a"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "embedded text layer" {
		t.Fatalf("unexpected text: %q", text)
	}
	if h.poller.calls != 3 {
		t.Fatalf("expected poller to exhaust 3 attempts, got %d", h.poller.calls)
	}
	if !reflect.DeepEqual(h.store.trashed, []string{"artifact-1"}) {
		t.Fatalf("expected artifact trashed, got %v", h.store.trashed)
	}
}

func TestOCRExtractorCleanupFailureIsNotPropagated(t *testing.T) {
	h := newOCRHarness()
	h.docs.bodies["artifact-1"] = "text"
	h.store.trashErr = errors.New("permission denied")

	text, err := h.extractor().Extract(context.Background(), pdf("a"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "text" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestOCRExtractorTrashesArtifactOnCancelledContext(t *testing.T) {
	h := newOCRHarness()
	ctx, cancel := context.WithCancel(context.Background())
	h.store.createFn = func(opts domain.ConvertOptions) (*domain.SourceFile, error) {
		cancel()
		return &domain.SourceFile{ID: "artifact-1", Name: opts.Name}, nil
	}

	if _, err := h.extractor().Extract(ctx, pdf("a")); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !reflect.DeepEqual(h.store.trashed, []string{"artifact-1"}) {
		t.Fatalf("expected artifact trashed after cancellation, got %v", h.store.trashed)
	}
	if h.textLayer.calls != 0 {
		t.Fatalf("text layer must not run on a cancelled context")
	}
}
