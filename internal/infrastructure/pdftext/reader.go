package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/sermon-ledger/internal/core/domain"
)

// Reader pulls the embedded text layer out of a PDF. Scans without one yield "".
type Reader struct {
	maxBytes int64
}

func New(maxBytes int64) *Reader {
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	return &Reader{maxBytes: maxBytes}
}

func (r *Reader) ReadText(ctx context.Context, content []byte) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(content) == 0 {
		return "", domain.WrapError(domain.ErrInvalidInput, "read pdf text layer", errors.New("empty content"))
	}

	// The parser panics on some malformed files.
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = domain.WrapError(domain.ErrUnsupportedType, "read pdf text layer", fmt.Errorf("parser panic: %v", rec))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", domain.WrapError(domain.ErrUnsupportedType, "read pdf text layer", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	out, err := io.ReadAll(io.LimitReader(plain, r.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return string(out), nil
}
