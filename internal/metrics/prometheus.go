package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kiranshivaraju/rallylens/pkg/models"
)

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

var phases = []models.Phase{
	models.PhaseIdle,
	models.PhaseFileSelected,
	models.PhaseUploading,
	models.PhaseProcessing,
	models.PhaseCompleted,
	models.PhaseError,
}

// Manager owns every rallylens metric. Each Manager registers on its own
// registry so tests and multiple instances never collide.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	uploads            *prometheus.CounterVec
	polls              *prometheus.CounterVec
	completions        prometheus.Counter
	resultFetchFailure *prometheus.CounterVec
	phase              *prometheus.GaugeVec

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rallylens",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.uploads = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "job",
		Name:      "uploads_total",
		Help:      "Video uploads by outcome.",
	}, []string{"outcome"})

	m.polls = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "job",
		Name:      "status_polls_total",
		Help:      "Status polls by outcome.",
	}, []string{"outcome"})

	m.completions = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "job",
		Name:      "completion_sequences_total",
		Help:      "Result fetch sequences started on job completion.",
	})

	m.resultFetchFailure = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "job",
		Name:      "result_fetch_failures_total",
		Help:      "Failed result fetches by document.",
	}, []string{"document"})

	m.phase = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "job",
		Name:      "phase",
		Help:      "1 for the controller's current phase, 0 otherwise.",
	}, []string{"phase"})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   m.histogramBuckets,
	}, []string{"method", "route"})

	m.PhaseChanged(models.PhaseIdle)
}

// UploadFinished counts one upload attempt.
func (m *Manager) UploadFinished(outcome string) {
	m.uploads.WithLabelValues(outcome).Inc()
}

// PollFinished counts one status poll.
func (m *Manager) PollFinished(outcome string) {
	m.polls.WithLabelValues(outcome).Inc()
}

// CompletionStarted counts one completion sequence.
func (m *Manager) CompletionStarted() {
	m.completions.Inc()
}

// ResultFetchFailed counts a failed statistics or rally fetch.
func (m *Manager) ResultFetchFailed(document string) {
	m.resultFetchFailure.WithLabelValues(document).Inc()
}

// PhaseChanged sets the phase gauge so exactly one phase reads 1.
func (m *Manager) PhaseChanged(p models.Phase) {
	for _, candidate := range phases {
		v := 0.0
		if candidate == p {
			v = 1
		}
		m.phase.WithLabelValues(string(candidate)).Set(v)
	}
}

// ObserveHTTP records one served request.
func (m *Manager) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Registry returns the registry the metrics live on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
