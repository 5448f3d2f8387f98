package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrTemporary         = errors.New("temporary failure")
	ErrUnsupportedType   = errors.New("unsupported content type")
	ErrConversionFailed  = errors.New("conversion failed")
	ErrNotReady          = errors.New("conversion not ready")
	ErrMalformedResponse = errors.New("malformed response")
	ErrUpstreamStatus    = errors.New("unexpected upstream status")
	ErrRunInProgress     = errors.New("run already in progress")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
