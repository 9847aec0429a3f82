package ports

import (
	"context"
	"io"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// QuestionService answers free-text questions over the indexed corpus.
type QuestionService interface {
	Ask(ctx context.Context, req domain.AskRequest) (*domain.Answer, error)
}

// EnrichmentReader serves graph context for a single article.
type EnrichmentReader interface {
	Enrichment(ctx context.Context, articleID string) (*domain.ArticleEnrichment, error)
}

// GraphInspector exposes the structural health report.
type GraphInspector interface {
	Stats(ctx context.Context) (*domain.GraphHealth, error)
}

// DocumentReader is the inbound read model for document registry state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous indexing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}
