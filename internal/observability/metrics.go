package observability

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/studynotes-backend/internal/platform/logger"
)

type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	llmRequests *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec
	llmTokens   *prometheus.CounterVec

	generations       *prometheus.CounterVec
	generationLatency *prometheus.HistogramVec

	lessonActions *prometheus.CounterVec
	storageErrors *prometheus.CounterVec
	lessons       prometheus.Gauge
	sseClients    prometheus.Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Current() *Metrics {
	return instance
}

// Init builds the process-wide instance once. It returns nil when disabled, and every
// method is safe on nil.
func Init(log *logger.Logger, enabled bool) *Metrics {
	if !enabled {
		if log != nil {
			log.Info("metrics disabled")
		}
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("metrics initialized")
		}
	})
	return instance
}

// NewMetrics builds an unshared instance on its own registry. Init wraps this for the
// process-wide singleton; tests use it directly.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "studynotes_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "studynotes_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route", "status"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "studynotes_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		llmRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "studynotes_llm_requests_total",
			Help: "LLM HTTP requests by model/endpoint/status.",
		}, []string{"model", "endpoint", "status"}),
		llmLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "studynotes_llm_request_duration_seconds",
			Help:    "LLM request latency in seconds, retries included.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"model", "endpoint", "status"}),
		llmTokens: f.NewCounterVec(prometheus.CounterOpts{
			Name: "studynotes_llm_tokens_total",
			Help: "LLM tokens by model and type (input, output).",
		}, []string{"model", "type"}),
		generations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "studynotes_generation_total",
			Help: "Gateway operations by op and outcome.",
		}, []string{"op", "outcome"}),
		generationLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "studynotes_generation_duration_seconds",
			Help:    "Gateway operation latency in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"op"}),
		lessonActions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "studynotes_lesson_actions_total",
			Help: "User actions on lessons by action and outcome (ok, invalid, not_found, busy, failed).",
		}, []string{"action", "outcome"}),
		storageErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "studynotes_storage_errors_total",
			Help: "Tolerated persistent store failures by op (read, decode, encode, write, conflict).",
		}, []string{"op"}),
		lessons: f.NewGauge(prometheus.GaugeOpts{
			Name: "studynotes_lessons",
			Help: "Lessons currently in the collection.",
		}),
		sseClients: f.NewGauge(prometheus.GaugeOpts{
			Name: "studynotes_sse_clients",
			Help: "Connected SSE clients.",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveLLMRequest(model, endpoint, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = "unknown"
	}
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.llmRequests.WithLabelValues(model, endpoint, status).Inc()
	if dur > 0 {
		m.llmLatency.WithLabelValues(model, endpoint, status).Observe(dur.Seconds())
	}
	if inputTokens > 0 {
		m.llmTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.llmTokens.WithLabelValues(model, "output").Add(float64(outputTokens))
	}
}

// ObserveGeneration records one gateway operation. outcome is "ok", "invalid" or "error".
func (m *Metrics) ObserveGeneration(op, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(op, outcome).Inc()
	m.generationLatency.WithLabelValues(op).Observe(dur.Seconds())
}

// ObserveLessonAction counts one user action, e.g. ("generate_mcqs", "failed").
func (m *Metrics) ObserveLessonAction(action, outcome string) {
	if m == nil || action == "" {
		return
	}
	m.lessonActions.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) IncStorageError(op string) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	m.storageErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) SetLessonCount(n int) {
	if m == nil {
		return
	}
	m.lessons.Set(float64(n))
}

func (m *Metrics) SSEClientsInc() {
	if m == nil {
		return
	}
	m.sseClients.Inc()
}

func (m *Metrics) SSEClientsDec() {
	if m == nil {
		return
	}
	m.sseClients.Dec()
}
