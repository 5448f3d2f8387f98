package docs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/kirillkom/sermon-ledger/internal/core/domain"
)

// Reader implements ports.DocumentReader.
type Reader struct {
	svc *docs.Service
}

func New(ctx context.Context, httpClient *http.Client, clientOptions ...option.ClientOption) (*Reader, error) {
	opts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, clientOptions...)
	svc, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create docs service: %w", err)
	}
	return &Reader{svc: svc}, nil
}

func (r *Reader) BodyText(ctx context.Context, documentID string) (string, error) {
	doc, err := r.svc.Documents.Get(documentID).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		// A freshly converted document can briefly 404 before it is indexed.
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return "", domain.WrapError(domain.ErrNotReady, "docs get", err)
		}
		return "", domain.WrapError(domain.ErrUpstreamStatus, "docs get", err)
	}
	if doc.Body == nil {
		return "", nil
	}

	var b strings.Builder
	writeElements(&b, doc.Body.Content)
	return b.String(), nil
}

func writeElements(b *strings.Builder, elements []*docs.StructuralElement) {
	for _, el := range elements {
		switch {
		case el.Paragraph != nil:
			for _, pe := range el.Paragraph.Elements {
				if pe.TextRun != nil {
					b.WriteString(pe.TextRun.Content)
				}
			}
		case el.Table != nil:
			for _, row := range el.Table.TableRows {
				for _, cell := range row.TableCells {
					writeElements(b, cell.Content)
				}
			}
		case el.TableOfContents != nil:
			writeElements(b, el.TableOfContents.Content)
		}
	}
}
