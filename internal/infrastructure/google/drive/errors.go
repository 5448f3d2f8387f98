package drive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"

	"github.com/kirillkom/sermon-ledger/internal/core/domain"
)

type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("status %s", e.Status)
	}
	return fmt.Sprintf("status %s: %s", e.Status, strings.TrimSpace(e.Body))
}

func wrapAPIError(operation string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError {
			return domain.WrapError(domain.ErrTemporary, operation, err)
		}
		return domain.WrapError(domain.ErrUpstreamStatus, operation, err)
	}
	return domain.WrapError(domain.ErrTemporary, operation, err)
}
