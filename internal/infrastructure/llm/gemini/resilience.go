package gemini

import (
	"context"
	"errors"
	"net/http"

	"github.com/kirillkom/sermon-ledger/internal/core/domain"
	"github.com/kirillkom/sermon-ledger/internal/infrastructure/resilience"
)

func classifyGeminiError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{RecordFailure: false}
	}

	if domain.IsKind(err, domain.ErrMalformedResponse) {
		return resilience.ErrorClassification{RecordFailure: false}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode == http.StatusUnauthorized,
			statusErr.StatusCode == http.StatusForbidden,
			statusErr.StatusCode >= http.StatusInternalServerError:
			return resilience.ErrorClassification{RecordFailure: true}
		default:
			return resilience.ErrorClassification{RecordFailure: false}
		}
	}
	return resilience.ErrorClassification{RecordFailure: true}
}
