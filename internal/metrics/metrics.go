package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Analysis outcomes recorded on aicheck_analyses_total.
const (
	OutcomeAI            = "ai"
	OutcomeNotAI         = "not_ai"
	OutcomeDetectorError = "detector_error"
	OutcomeScoreError    = "score_error"
)

// Metrics holds the Prometheus collectors for the service.
type Metrics struct {
	registry *prometheus.Registry

	Analyses         *prometheus.CounterVec
	DetectorDuration *prometheus.HistogramVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// New creates the collectors on a private registry, so tests can build as
// many instances as they like.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		Analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aicheck_analyses_total",
				Help: "Analyses by media type and outcome",
			},
			[]string{"media_type", "outcome"},
		),

		DetectorDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aicheck_detector_duration_seconds",
				Help:    "Latency of calls to the detector",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"status"},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aicheck_http_requests_total",
				Help: "HTTP requests by endpoint, method and status",
			},
			[]string{"endpoint", "method", "status"},
		),

		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aicheck_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"endpoint", "method"},
		),
	}

	m.registry.MustRegister(
		m.Analyses,
		m.DetectorDuration,
		m.HTTPRequests,
		m.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// RecordAnalysis counts one finished analysis.
func (m *Metrics) RecordAnalysis(mediaType, outcome string) {
	m.Analyses.WithLabelValues(mediaType, outcome).Inc()
}

// ObserveDetectorCall records detector latency; status is the HTTP status or
// "unreachable".
func (m *Metrics) ObserveDetectorCall(status string, elapsed time.Duration) {
	m.DetectorDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and durations keyed by route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequests.WithLabelValues(endpoint, c.Request.Method, status).Inc()
		m.HTTPDuration.WithLabelValues(endpoint, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
