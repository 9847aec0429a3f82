package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
)

// DocumentRepository persists and reads document registry state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListByStatus(ctx context.Context, status domain.DocumentStatus) ([]domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SetIndexed(ctx context.Context, id string, lawID string, unitCount int) error
}

// IndexMetadataRepository persists the parameters the index was built with.
type IndexMetadataRepository interface {
	Load(ctx context.Context) (*domain.IndexMetadata, error)
	Save(ctx context.Context, meta domain.IndexMetadata) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Segmenter cuts document text into lineage-tagged units.
type Segmenter interface {
	Segment(text, fileName string) []domain.TextUnit
	Version() string
}

// Embedder builds vectors for unit content and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// UnitIndex stores text units with their vectors and serves dense search.
// ReplaceUnits supersedes the document's previous units wholesale.
type UnitIndex interface {
	ReplaceUnits(ctx context.Context, documentID string, units []domain.TextUnit, vectors [][]float32) error
	SearchGeneral(ctx context.Context, queryVector []float32, limit int) ([]domain.RetrievalCandidate, error)
	SearchByArticles(ctx context.Context, queryVector []float32, articleIDs []string, limit int) ([]domain.RetrievalCandidate, error)
}

// GraphStore mirrors statute structure into the property graph.
type GraphStore interface {
	UpsertNodes(ctx context.Context, nodes []domain.GraphNode) error
	UpsertEdges(ctx context.Context, edges []domain.GraphEdge) error
	ArticleEnrichment(ctx context.Context, articleID string) (*domain.ArticleEnrichment, error)
	ExistingArticleIDs(ctx context.Context, ids []string) (map[string]bool, error)
	ExistingCategoryIDs(ctx context.Context, ids []string) (map[string]bool, error)
	CategoryDuplicates(ctx context.Context) ([]domain.CategoryDuplicate, error)
	RepointCategoryEdges(ctx context.Context, fromID, toID string) error
	DeleteCategory(ctx context.Context, id string) error
	ValidateStructure(ctx context.Context) (*domain.GraphHealth, error)
}

// PairScorer scores (query, text) relevance pairs for reranking.
type PairScorer interface {
	ScorePairs(ctx context.Context, query string, texts []string) ([]float64, error)
}

// AnswerSynthesizer turns the assembled context prompt into answer text.
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, prompt string) (string, error)
}

// CategoryRegistry exposes the curated category rules and the ordered
// keyword dictionary.
type CategoryRegistry interface {
	Rule(id string) (domain.CategoryRule, bool)
	Rules() []domain.CategoryRule
	Keywords() []domain.KeywordMapping
}

// CandidateCache is the process-local cache for ranked retrieval results.
type CandidateCache interface {
	Get(key string) ([]domain.RetrievalCandidate, bool)
	Set(key string, candidates []domain.RetrievalCandidate)
}

// IndexingMonitor receives indexing pipeline measurements. Implementations
// must be safe for concurrent use.
type IndexingMonitor interface {
	ObserveQueueLag(lag time.Duration)
	ObserveUnits(count int)
	AddGraphRows(kind string, count int)
	AddEnhancerEdges(method string, count int)
	AddEnhancerSkips(count int)
}
