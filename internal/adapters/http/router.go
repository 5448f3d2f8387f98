package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kirillkom/sermon-ledger/internal/core/domain"
	"github.com/kirillkom/sermon-ledger/internal/core/ports"
	"github.com/kirillkom/sermon-ledger/internal/observability/metrics"
)

const serviceName = "ledger-api"

// Dependencies wires the trigger API. Requester, Journal and Metrics are optional.
// Without a Requester, POST /v1/runs executes the run inline and returns its report.
type Dependencies struct {
	Processor ports.RunProcessor
	Requester ports.RunRequester
	Sweeper   ports.ArtifactSweeper
	Journal   ports.RunJournal
	Metrics   *metrics.HTTPServerMetrics
	Logger    *slog.Logger
}

type Router struct {
	deps   Dependencies
	logger *slog.Logger
}

func NewRouter(deps Dependencies) *Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{deps: deps, logger: logger}
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", rt.healthz)
	r.Post("/v1/runs", rt.createRun)
	r.Get("/v1/runs/{run_id}", rt.getRun)
	r.Post("/v1/artifacts/sweep", rt.sweepArtifacts)
	if rt.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.deps.Metrics.Handler())
	}

	var handler http.Handler = r
	if rt.deps.Metrics != nil {
		handler = rt.deps.Metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) createRun(w http.ResponseWriter, r *http.Request) {
	if rt.deps.Requester != nil {
		runID, err := rt.deps.Requester.RequestRun(r.Context())
		if err != nil {
			rt.recordRunRequest("queued", "failed")
			rt.writeError(w, r, err)
			return
		}
		rt.recordRunRequest("queued", "accepted")
		writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID, "status": "queued"})
		return
	}

	if rt.deps.Processor == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "run processing is not configured"})
		return
	}

	report, err := rt.deps.Processor.ProcessNewFiles(r.Context(), requestIDFromContext(r.Context()))
	if err != nil {
		status := "failed"
		if errors.Is(err, domain.ErrRunInProgress) {
			status = "rejected"
		}
		rt.recordRunRequest("inline", status)
		rt.writeError(w, r, err)
		return
	}
	rt.recordRunRequest("inline", "completed")
	writeJSON(w, http.StatusOK, runResponse{RunReport: report, Message: report.Summary()})
}

type runResponse struct {
	*domain.RunReport
	Message string `json:"message"`
}

func (rt *Router) getRun(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimSpace(chi.URLParam(r, "run_id"))
	if runID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "run id is required"})
		return
	}
	if rt.deps.Journal == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "run journal is not configured"})
		return
	}

	outcomes, err := rt.deps.Journal.ListOutcomes(r.Context(), runID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if len(outcomes) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}

	report := &domain.RunReport{RunID: runID}
	for _, outcome := range outcomes {
		report.Add(outcome)
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) sweepArtifacts(w http.ResponseWriter, r *http.Request) {
	if rt.deps.Sweeper == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "artifact sweep is not configured"})
		return
	}
	trashed, err := rt.deps.Sweeper.SweepTransient(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if rt.deps.Metrics != nil {
		rt.deps.Metrics.RecordSweep(serviceName, trashed)
	}
	writeJSON(w, http.StatusOK, map[string]int{"trashed": trashed})
}

func (rt *Router) recordRunRequest(mode, status string) {
	if rt.deps.Metrics != nil {
		rt.deps.Metrics.RecordRunRequest(serviceName, mode, status)
	}
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		rt.logger.Error("request_failed", "request_id", requestIDFromContext(r.Context()), "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
