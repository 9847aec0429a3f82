package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	indexTotal    *prometheus.CounterVec
	indexDuration *prometheus.HistogramVec
	indexInFlight prometheus.Gauge
	queueLag      *prometheus.HistogramVec
	unitsPerDoc   *prometheus.HistogramVec
	graphRows     *prometheus.CounterVec
	enhancerEdges *prometheus.CounterVec
	enhancerSkips *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	indexTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pla",
			Subsystem: "worker",
			Name:      "document_index_total",
			Help:      "Total indexed documents by status.",
		},
		[]string{"service", "status"},
	)
	indexDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pla",
			Subsystem: "worker",
			Name:      "document_index_duration_seconds",
			Help:      "Document indexing duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	indexInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pla",
			Subsystem: "worker",
			Name:      "document_index_in_flight",
			Help:      "Number of in-flight document indexing runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pla",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between document upload and indexing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)
	unitsPerDoc := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pla",
			Subsystem: "worker",
			Name:      "units_per_document",
			Help:      "Text units produced per indexed document.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service"},
	)
	graphRows := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pla",
			Subsystem: "worker",
			Name:      "graph_rows_upserted_total",
			Help:      "Graph rows written during indexing by kind.",
		},
		[]string{"service", "kind"},
	)
	enhancerEdges := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pla",
			Subsystem: "worker",
			Name:      "enhancer_edges_total",
			Help:      "Category edges created by the keyword enhancer by match method.",
		},
		[]string{"service", "method"},
	)
	enhancerSkips := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pla",
			Subsystem: "worker",
			Name:      "enhancer_skipped_units_total",
			Help:      "Units skipped by the enhancer because graph endpoints were missing.",
		},
		[]string{"service"},
	)

	registry.MustRegister(indexTotal, indexDuration, indexInFlight, queueLag, unitsPerDoc, graphRows, enhancerEdges, enhancerSkips)

	return &WorkerMetrics{
		registry:      registry,
		indexTotal:    indexTotal,
		indexDuration: indexDuration,
		indexInFlight: indexInFlight,
		queueLag:      queueLag,
		unitsPerDoc:   unitsPerDoc,
		graphRows:     graphRows,
		enhancerEdges: enhancerEdges,
		enhancerSkips: enhancerSkips,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartDocument() {
	m.indexInFlight.Inc()
}

func (m *WorkerMetrics) FinishDocument(service string, duration time.Duration, err error) {
	m.indexInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.indexTotal.WithLabelValues(service, status).Inc()
	m.indexDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}

func (m *WorkerMetrics) ObserveUnits(service string, count int) {
	m.unitsPerDoc.WithLabelValues(service).Observe(float64(count))
}

func (m *WorkerMetrics) AddGraphRows(service, kind string, count int) {
	if count <= 0 {
		return
	}
	m.graphRows.WithLabelValues(service, kind).Add(float64(count))
}

func (m *WorkerMetrics) AddEnhancerEdges(service, method string, count int) {
	if count <= 0 {
		return
	}
	m.enhancerEdges.WithLabelValues(service, method).Add(float64(count))
}

func (m *WorkerMetrics) AddEnhancerSkips(service string, count int) {
	if count <= 0 {
		return
	}
	m.enhancerSkips.WithLabelValues(service).Add(float64(count))
}
