package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	askRequestsTotal    *prometheus.CounterVec
	askRetrievedUnits   *prometheus.HistogramVec
	askNoContextTotal   *prometheus.CounterVec
	askDuration         *prometheus.HistogramVec
	askConfidence       *prometheus.HistogramVec
	rerankFallbackTotal *prometheus.CounterVec
	cacheOutcomeTotal   *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pla",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pla",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pla",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	askRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pla",
			Subsystem: "ask",
			Name:      "requests_total",
			Help:      "Total successful ask requests by retrieval mode.",
		},
		[]string{"service", "mode"},
	)
	askRetrievedUnits := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pla",
			Subsystem: "ask",
			Name:      "retrieved_units",
			Help:      "Distribution of source units per successful ask request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	askNoContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pla",
			Subsystem: "ask",
			Name:      "no_context_total",
			Help:      "Total ask requests answered without retrieved sources.",
		},
		[]string{"service"},
	)
	askDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pla",
			Subsystem: "ask",
			Name:      "duration_seconds",
			Help:      "Ask pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	askConfidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pla",
			Subsystem: "ask",
			Name:      "confidence",
			Help:      "Distribution of reported answer confidence.",
			Buckets:   []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1},
		},
		[]string{"service"},
	)
	rerankFallbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pla",
			Subsystem: "ask",
			Name:      "rerank_fallback_total",
			Help:      "Total rerank fallbacks to retrieval order by reason.",
		},
		[]string{"service", "reason"},
	)
	cacheOutcomeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pla",
			Subsystem: "ask",
			Name:      "retrieval_cache_total",
			Help:      "Retrieval cache lookups by outcome.",
		},
		[]string{"service", "outcome"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		askRequestsTotal,
		askRetrievedUnits,
		askNoContextTotal,
		askDuration,
		askConfidence,
		rerankFallbackTotal,
		cacheOutcomeTotal,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		askRequestsTotal:    askRequestsTotal,
		askRetrievedUnits:   askRetrievedUnits,
		askNoContextTotal:   askNoContextTotal,
		askDuration:         askDuration,
		askConfidence:       askConfidence,
		rerankFallbackTotal: rerankFallbackTotal,
		cacheOutcomeTotal:   cacheOutcomeTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	case strings.HasPrefix(path, "/v1/articles/"):
		return "/v1/articles/{article_id}/enrichment"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordAskObservation(service, mode string, sourceCount int, confidence float64, duration time.Duration) {
	if mode == "" {
		mode = "unknown"
	}
	m.askRequestsTotal.WithLabelValues(service, mode).Inc()
	m.askRetrievedUnits.WithLabelValues(service).Observe(float64(sourceCount))
	m.askDuration.WithLabelValues(service).Observe(duration.Seconds())
	m.askConfidence.WithLabelValues(service).Observe(confidence)

	if sourceCount == 0 {
		m.askNoContextTotal.WithLabelValues(service).Inc()
	}
}

func (m *HTTPServerMetrics) RecordRerankFallback(service, reason string) {
	if reason == "" {
		reason = "unknown"
	}
	m.rerankFallbackTotal.WithLabelValues(service, reason).Inc()
}

func (m *HTTPServerMetrics) RecordCacheOutcome(service string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheOutcomeTotal.WithLabelValues(service, outcome).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
