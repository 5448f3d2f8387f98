package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/kirillkom/sermon-ledger/internal/core/domain"
)

const (
	// OwnerKey and OwnerValue tag every artifact this service creates so a sweep can find
	// leftovers without trusting file names.
	OwnerKey   = "sermon_ledger_artifact"
	OwnerValue = "ocr"

	fileFields = "id, name, mimeType, webViewLink, appProperties"
	listFields = "nextPageToken, files(id, name, mimeType, webViewLink, appProperties)"
)

type Options struct {
	TransientPrefix string
	ExportBaseURL   string
	Logger          *slog.Logger
}

// Store implements ports.FileStore and ports.TextExporter on top of the Drive v3 API.
type Store struct {
	svc        *drive.Service
	httpClient *http.Client
	exportBase string
	prefix     string
	logger     *slog.Logger
}

func New(ctx context.Context, httpClient *http.Client, options Options, clientOptions ...option.ClientOption) (*Store, error) {
	opts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, clientOptions...)
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	exportBase := strings.TrimRight(strings.TrimSpace(options.ExportBaseURL), "/")
	if exportBase == "" {
		exportBase = "https://www.googleapis.com"
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		svc:        svc,
		httpClient: httpClient,
		exportBase: exportBase,
		prefix:     options.TransientPrefix,
		logger:     logger,
	}, nil
}

func (s *Store) ListFiles(ctx context.Context, folderID, mimeType string) ([]domain.SourceFile, error) {
	q := fmt.Sprintf("'%s' in parents and mimeType = '%s' and trashed = false", escapeQuery(folderID), escapeQuery(mimeType))
	return s.list(ctx, q, "drive list files")
}

// ListTransient returns artifacts tagged as ours plus legacy artifacts recognisable only by
// name prefix and converted type.
func (s *Store) ListTransient(ctx context.Context) ([]domain.SourceFile, error) {
	q := fmt.Sprintf("appProperties has { key='%s' and value='%s' } and trashed = false", OwnerKey, OwnerValue)
	if s.prefix != "" {
		q = fmt.Sprintf("(appProperties has { key='%s' and value='%s' } or (name contains '%s' and mimeType = '%s')) and trashed = false",
			OwnerKey, OwnerValue, escapeQuery(s.prefix), domain.MimeTypeGoogleDoc)
	}
	files, err := s.list(ctx, q, "drive list transient")
	if err != nil {
		return nil, err
	}

	out := files[:0]
	for _, file := range files {
		if file.Transient || strings.HasPrefix(file.Name, s.prefix) {
			out = append(out, file)
		}
	}
	return out, nil
}

func (s *Store) list(ctx context.Context, q, operation string) ([]domain.SourceFile, error) {
	var out []domain.SourceFile
	err := s.svc.Files.List().
		Q(q).
		Fields(listFields).
		PageSize(100).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				out = append(out, toSourceFile(f))
			}
			return nil
		})
	if err != nil {
		return nil, wrapAPIError(operation, err)
	}
	return out, nil
}

func (s *Store) Download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := s.svc.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, wrapAPIError("drive download", err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "drive download", err)
	}
	return content, nil
}

// CreateConvertedCopy uploads content as a new file of opts.TargetMimeType, letting Drive run
// OCR during import. With ServerSideCopy the source is copied instead and content is ignored.
func (s *Store) CreateConvertedCopy(ctx context.Context, src domain.SourceFile, content []byte, opts domain.ConvertOptions) (*domain.SourceFile, error) {
	meta := &drive.File{
		Name:          opts.Name,
		MimeType:      opts.TargetMimeType,
		AppProperties: map[string]string{OwnerKey: OwnerValue},
	}
	if opts.ParentID != "" {
		meta.Parents = []string{opts.ParentID}
	}

	var (
		created *drive.File
		err     error
	)
	if opts.ServerSideCopy {
		call := s.svc.Files.Copy(src.ID, meta).Fields(fileFields).SupportsAllDrives(true).Context(ctx)
		if opts.OCRLanguage != "" {
			call = call.OcrLanguage(opts.OCRLanguage)
		}
		created, err = call.Do()
	} else {
		call := s.svc.Files.Create(meta).
			Media(bytes.NewReader(content), googleapi.ContentType(src.MimeType)).
			Fields(fileFields).
			SupportsAllDrives(true).
			Context(ctx)
		if opts.OCRLanguage != "" {
			call = call.OcrLanguage(opts.OCRLanguage)
		}
		created, err = call.Do()
	}
	if err != nil {
		return nil, wrapAPIError("drive create converted copy", err)
	}

	file := toSourceFile(created)
	s.logger.Debug("artifact_created", "source_id", src.ID, "artifact_id", file.ID, "server_side", opts.ServerSideCopy)
	return &file, nil
}

func (s *Store) GetFile(ctx context.Context, fileID string) (*domain.SourceFile, error) {
	f, err := s.svc.Files.Get(fileID).Fields(fileFields).SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError("drive get file", err)
	}
	file := toSourceFile(f)
	return &file, nil
}

func (s *Store) Trash(ctx context.Context, fileID string) error {
	_, err := s.svc.Files.Update(fileID, &drive.File{Trashed: true}).SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return wrapAPIError("drive trash", err)
	}
	return nil
}

func toSourceFile(f *drive.File) domain.SourceFile {
	url := f.WebViewLink
	if url == "" {
		url = "https://drive.google.com/file/d/" + f.Id + "/view"
	}
	return domain.SourceFile{
		ID:        f.Id,
		Name:      f.Name,
		MimeType:  f.MimeType,
		URL:       url,
		Transient: f.AppProperties[OwnerKey] == OwnerValue,
	}
}

func escapeQuery(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `'`, `\'`)
}
