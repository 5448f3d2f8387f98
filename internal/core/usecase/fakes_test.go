package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kirillkom/sermon-ledger/internal/core/domain"
)

type fileStoreFake struct {
	files     []domain.SourceFile
	listErr   error
	transient []domain.SourceFile

	downloadErr error

	created   []domain.ConvertOptions
	createFn  func(opts domain.ConvertOptions) (*domain.SourceFile, error)
	mimeTypes map[string]string
	getErr    error

	trashed  []string
	trashErr error
}

func (f *fileStoreFake) ListFiles(context.Context, string, string) ([]domain.SourceFile, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.files, nil
}

func (f *fileStoreFake) Download(context.Context, string) ([]byte, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return []byte("%PDF-1.4 scanned"), nil
}

func (f *fileStoreFake) CreateConvertedCopy(_ context.Context, _ domain.SourceFile, _ []byte, opts domain.ConvertOptions) (*domain.SourceFile, error) {
	f.created = append(f.created, opts)
	if f.createFn != nil {
		return f.createFn(opts)
	}
	id := fmt.Sprintf("artifact-%d", len(f.created))
	return &domain.SourceFile{ID: id, Name: opts.Name, MimeType: opts.TargetMimeType}, nil
}

func (f *fileStoreFake) GetFile(_ context.Context, fileID string) (*domain.SourceFile, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	mimeType := domain.MimeTypeGoogleDoc
	if mt, ok := f.mimeTypes[fileID]; ok {
		mimeType = mt
	}
	return &domain.SourceFile{ID: fileID, MimeType: mimeType}, nil
}

func (f *fileStoreFake) Trash(_ context.Context, fileID string) error {
	f.trashed = append(f.trashed, fileID)
	return f.trashErr
}

func (f *fileStoreFake) ListTransient(context.Context) ([]domain.SourceFile, error) {
	return f.transient, nil
}

type docsFake struct {
	bodies map[string]string
	errs   map[string]error
	calls  []string
}

func (f *docsFake) BodyText(_ context.Context, documentID string) (string, error) {
	f.calls = append(f.calls, documentID)
	if err := f.errs[documentID]; err != nil {
		return "", err
	}
	return f.bodies[documentID], nil
}

type exporterFake struct {
	text  string
	err   error
	calls int
}

func (f *exporterFake) ExportPlainText(context.Context, string) (string, error) {
	f.calls++
	return f.text, f.err
}

type textLayerFake struct {
	text  string
	err   error
	calls int
}

func (f *textLayerFake) ReadText(context.Context, []byte) (string, error) {
	f.calls++
	return f.text, f.err
}

// pollerFake retries while fn reports ErrNotReady, like the resilience-backed poller.
type pollerFake struct {
	attempts int
	calls    int
}

func (p *pollerFake) Poll(ctx context.Context, _ string, fn func(context.Context) error) error {
	var err error
	for i := 0; i < p.attempts; i++ {
		p.calls++
		err = fn(ctx)
		if err == nil || !errors.Is(err, domain.ErrNotReady) {
			return err
		}
	}
	return err
}

type extractorFake struct {
	texts   map[string]string
	errs    map[string]error
	panicOn string
	started chan struct{}
	block   chan struct{}
	calls   []string
}

func (f *extractorFake) Extract(_ context.Context, file domain.SourceFile) (string, error) {
	f.calls = append(f.calls, file.ID)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if file.ID == f.panicOn {
		panic("boom")
	}
	if err := f.errs[file.ID]; err != nil {
		return "", err
	}
	return f.texts[file.ID], nil
}

type metadataFake struct {
	record *domain.MetadataRecord
	err    error
	calls  []string
}

func (f *metadataFake) ExtractMetadata(_ context.Context, text string) (*domain.MetadataRecord, error) {
	f.calls = append(f.calls, text)
	if f.err != nil {
		return nil, f.err
	}
	if f.record == nil {
		return nil, nil
	}
	copyRecord := *f.record
	return &copyRecord, nil
}

// ledgerFake keeps rows including the header row, mirroring a sheet tab.
type ledgerFake struct {
	rows      [][]string
	readErr   error
	appendErr error
}

func newLedgerFake(keys ...string) *ledgerFake {
	l := &ledgerFake{rows: [][]string{domain.LedgerHeader}}
	for _, key := range keys {
		row := make([]string, domain.LedgerColumns)
		row[domain.LedgerKeyColumn-1] = key
		l.rows = append(l.rows, row)
	}
	return l
}

func (l *ledgerFake) ReadColumn(_ context.Context, column, firstRow int) ([]string, error) {
	if l.readErr != nil {
		return nil, l.readErr
	}
	var out []string
	for i := firstRow - 1; i < len(l.rows); i++ {
		if column-1 < len(l.rows[i]) {
			out = append(out, l.rows[i][column-1])
		} else {
			out = append(out, "")
		}
	}
	return out, nil
}

func (l *ledgerFake) AppendRow(_ context.Context, values []string) error {
	if l.appendErr != nil {
		return l.appendErr
	}
	l.rows = append(l.rows, append([]string(nil), values...))
	return nil
}

func (l *ledgerFake) dataRows() [][]string {
	return l.rows[1:]
}

type leaseFake struct {
	mu       sync.Mutex
	held     map[string]string
	claimErr error
	released []string
}

func (f *leaseFake) Claim(_ context.Context, key, owner string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimErr != nil {
		return false, f.claimErr
	}
	if f.held == nil {
		f.held = map[string]string{}
	}
	if current, ok := f.held[key]; ok && current != owner {
		return false, nil
	}
	f.held[key] = owner
	return true, nil
}

func (f *leaseFake) Release(_ context.Context, key, owner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[key] == owner {
		delete(f.held, key)
	}
	f.released = append(f.released, key)
	return nil
}

type journalFake struct {
	outcomes []domain.FileOutcome
}

func (f *journalFake) RecordOutcome(_ context.Context, _ string, outcome domain.FileOutcome) error {
	f.outcomes = append(f.outcomes, outcome)
	return nil
}

func (f *journalFake) ListOutcomes(context.Context, string) ([]domain.FileOutcome, error) {
	return f.outcomes, nil
}
