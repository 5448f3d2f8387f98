package httpadapter

import (
	"net/http"

	"github.com/kirillkom/sermon-ledger/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrRunInProgress):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrUpstreamStatus):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
