package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
)

func (rt *Router) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingestor.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := rt.docs.GetByID(r.Context(), r.PathValue("document_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	var req domain.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	start := time.Now()
	answer, err := rt.asker.Ask(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if answer.Retrieval.RerankFallback != "" {
		slog.Warn("rerank_fallback",
			"request_id", requestIDFromContext(r.Context()),
			"reason", answer.Retrieval.RerankFallback,
		)
	}
	if rt.metrics != nil {
		rt.metrics.RecordAskObservation("api", string(answer.Retrieval.Mode), len(answer.Sources), answer.Confidence, time.Since(start))
		rt.metrics.RecordCacheOutcome("api", answer.Retrieval.CacheHit)
		if answer.Retrieval.RerankFallback != "" {
			rt.metrics.RecordRerankFallback("api", answer.Retrieval.RerankFallback)
		}
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) getArticleEnrichment(w http.ResponseWriter, r *http.Request) {
	enrichment, err := rt.enricher.Enrichment(r.Context(), r.PathValue("article_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, enrichment)
}

func (rt *Router) graphStats(w http.ResponseWriter, r *http.Request) {
	health, err := rt.inspector.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, health)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"status", status,
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
