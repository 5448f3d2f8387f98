package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/sermon-ledger/internal/core/domain"
)

// RunMetrics implements ports.RunMetrics.
type RunMetrics struct {
	registry *prometheus.Registry
	service  string

	runsTotal     *prometheus.CounterVec
	runDuration   prometheus.Histogram
	runInFlight   prometheus.Gauge
	lastAttempted prometheus.Gauge
	filesTotal    *prometheus.CounterVec
	fileDuration  *prometheus.HistogramVec
}

func NewRunMetrics(service string) *RunMetrics {
	return NewRunMetricsWithRegistry(prometheus.NewRegistry(), service)
}

// NewRunMetricsWithRegistry registers on a shared registry so one /metrics endpoint serves both sets.
func NewRunMetricsWithRegistry(registry *prometheus.Registry, service string) *RunMetrics {
	constLabels := prometheus.Labels{"service": service}

	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sermon_ledger",
			Subsystem: "run",
			Name:      "total",
			Help:      "Completed runs by status.",
		},
		[]string{"service", "status"},
	)
	runDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   "sermon_ledger",
			Subsystem:   "run",
			Name:        "duration_seconds",
			Help:        "Wall time of a full run.",
			Buckets:     []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800},
			ConstLabels: constLabels,
		},
	)
	runInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "sermon_ledger",
			Subsystem:   "run",
			Name:        "in_flight",
			Help:        "Runs currently executing.",
			ConstLabels: constLabels,
		},
	)
	lastAttempted := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "sermon_ledger",
			Subsystem:   "run",
			Name:        "last_attempted_files",
			Help:        "Files attempted by the most recent run.",
			ConstLabels: constLabels,
		},
	)
	filesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sermon_ledger",
			Subsystem: "file",
			Name:      "outcomes_total",
			Help:      "Per-file outcomes by status.",
		},
		[]string{"service", "status"},
	)
	fileDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sermon_ledger",
			Subsystem: "file",
			Name:      "duration_seconds",
			Help:      "Per-file pipeline duration for attempted files.",
			Buckets:   []float64{1, 5, 10, 15, 20, 30, 45, 60, 120},
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(runsTotal, runDuration, runInFlight, lastAttempted, filesTotal, fileDuration)

	return &RunMetrics{
		registry:      registry,
		service:       service,
		runsTotal:     runsTotal,
		runDuration:   runDuration,
		runInFlight:   runInFlight,
		lastAttempted: lastAttempted,
		filesTotal:    filesTotal,
		fileDuration:  fileDuration,
	}
}

func (m *RunMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *RunMetrics) StartRun() {
	m.runInFlight.Inc()
}

func (m *RunMetrics) FinishRun(report *domain.RunReport, err error) {
	m.runInFlight.Dec()

	status := "completed"
	if err != nil {
		status = "aborted"
	}
	m.runsTotal.WithLabelValues(m.service, status).Inc()

	if report == nil {
		return
	}
	if !report.FinishedAt.IsZero() {
		m.runDuration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	}
	m.lastAttempted.Set(float64(report.Attempted))
}

func (m *RunMetrics) ObserveFile(outcome domain.FileOutcome) {
	status := string(outcome.Status)
	m.filesTotal.WithLabelValues(m.service, status).Inc()
	if outcome.Status.Attempted() {
		m.fileDuration.WithLabelValues(m.service, status).Observe(outcome.Duration.Seconds())
	}
}
