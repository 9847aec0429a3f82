package httpadapter

import (
	"net/http"
	"time"

	"github.com/kirillkom/pension-law-assistant/internal/config"
	"github.com/kirillkom/pension-law-assistant/internal/core/ports"
	"github.com/kirillkom/pension-law-assistant/internal/observability/metrics"
)

const backpressureWaitTimeout = 500 * time.Millisecond

type Router struct {
	ingestor  ports.DocumentIngestor
	asker     ports.QuestionService
	enricher  ports.EnrichmentReader
	inspector ports.GraphInspector
	docs      ports.DocumentReader

	contract *apiContract
	metrics  *metrics.HTTPServerMetrics

	adminKey       string
	rateLimitRPS   int
	rateLimitBurst int
	maxInFlight    int
}

func NewRouter(
	cfg config.Config,
	ingestor ports.DocumentIngestor,
	asker ports.QuestionService,
	enricher ports.EnrichmentReader,
	inspector ports.GraphInspector,
	docs ports.DocumentReader,
) (*Router, error) {
	contract, err := newAPIContract()
	if err != nil {
		return nil, err
	}
	return &Router{
		ingestor:       ingestor,
		asker:          asker,
		enricher:       enricher,
		inspector:      inspector,
		docs:           docs,
		contract:       contract,
		adminKey:       cfg.APIAdminKey,
		rateLimitRPS:   cfg.APIRateLimitRPS,
		rateLimitBurst: cfg.APIRateLimitBurst,
		maxInFlight:    cfg.APIMaxInFlight,
	}, nil
}

// WithMetrics attaches the Prometheus collectors. Without it the router
// serves requests but records nothing.
func (rt *Router) WithMetrics(m *metrics.HTTPServerMetrics) *Router {
	rt.metrics = m
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.health)
	mux.HandleFunc("GET /v1/openapi.json", rt.contract.serveSpec)
	mux.HandleFunc("POST /v1/documents", rt.adminOnly(rt.uploadDocument))
	mux.HandleFunc("GET /v1/documents/{document_id}", rt.getDocument)
	mux.Handle("POST /v1/ask", rt.contract.validate(http.HandlerFunc(rt.ask)))
	mux.HandleFunc("GET /v1/articles/{article_id}/enrichment", rt.getArticleEnrichment)
	mux.HandleFunc("GET /v1/graph/stats", rt.adminOnly(rt.graphStats))
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.maxInFlight, backpressureWaitTimeout)
	handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware("api", handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}
