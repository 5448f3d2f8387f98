package gemini

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxCapturedBody = 4 << 10

type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("gemini status %d", e.StatusCode)
	}
	return fmt.Sprintf("gemini status %d: %s", e.StatusCode, body)
}

type responseCapture struct {
	statusCode int
	body       string
}

type captureKey struct{}

func withCapture(ctx context.Context, c *responseCapture) context.Context {
	return context.WithValue(ctx, captureKey{}, c)
}

// captureTransport records the status and a prefix of the body of every response on the
// request's capture so the caller can log exactly what the endpoint said.
type captureTransport struct {
	base http.RoundTripper
}

func (t *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}
	capture, ok := req.Context().Value(captureKey{}).(*responseCapture)
	if !ok {
		return resp, nil
	}
	capture.statusCode = resp.StatusCode

	if resp.StatusCode >= 300 {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxCapturedBody))
		_ = resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(body))
		if readErr == nil {
			capture.body = string(body)
		}
		return resp, nil
	}

	// 2xx bodies are handed on whole; only the logged copy is truncated.
	body, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	capture.body = string(body[:min(len(body), maxCapturedBody)])
	return resp, nil
}

func (c *responseCapture) success() bool {
	return c.statusCode >= 200 && c.statusCode < 300
}
