package drive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/kirillkom/sermon-ledger/internal/core/domain"
)

const maxErrorBody = 4 << 10

// ExportPlainText calls the export endpoint directly with the session's authorised client.
// Any non-200 response is an error carrying the status and body.
func (s *Store) ExportPlainText(ctx context.Context, fileID string) (string, error) {
	endpoint := fmt.Sprintf("%s/drive/v3/files/%s/export?mimeType=%s",
		s.exportBase, url.PathEscape(fileID), url.QueryEscape(domain.MimeTypePlainText))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build export request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", domain.WrapError(domain.ErrTemporary, "drive export", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", domain.WrapError(domain.ErrUpstreamStatus, "drive export", &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.WrapError(domain.ErrTemporary, "drive export", err)
	}
	return string(body), nil
}
