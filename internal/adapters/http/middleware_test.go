package httpadapter

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAccessLogRecordsStatusAndBytes(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	var sawFlusher, sawHijacker bool
	handler := requestIDMiddleware(accessLogMiddleware(logger, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, sawFlusher = w.(http.Flusher)
		_, sawHijacker = w.(http.Hijacker)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	})))

	req := httptest.NewRequest(http.MethodGet, "/v1/runs/abc", nil)
	req.Header.Set(requestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if sawFlusher || sawHijacker {
		t.Fatalf("recorder must only expose the plain ResponseWriter methods")
	}
	if rec.Header().Get(requestIDHeader) != "req-1" {
		t.Fatalf("expected request id echoed, got %q", rec.Header().Get(requestIDHeader))
	}

	var record map[string]any
	if err := json.Unmarshal(logs.Bytes(), &record); err != nil {
		t.Fatalf("decode log record: %v (%s)", err, logs.String())
	}
	if record["msg"] != "http_request" || record["level"] != "WARN" {
		t.Fatalf("unexpected record: %v", record)
	}
	if record["status"] != float64(http.StatusNotFound) || record["bytes"] != float64(len("missing")) {
		t.Fatalf("unexpected status or bytes: %v", record)
	}
	if record["request_id"] != "req-1" || record["path"] != "/v1/runs/abc" {
		t.Fatalf("unexpected request fields: %v", record)
	}
}
