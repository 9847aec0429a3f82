package domain

// RetrievalMode reports which search paths produced a candidate set.
type RetrievalMode string

const (
	RetrievalModeGeneral  RetrievalMode = "general"
	RetrievalModeFiltered RetrievalMode = "filtered_general"
)

// RetrievalCandidate is one unit flowing through the answer pipeline. The
// effective score is RetrievalScore until reranking overwrites it; Enrichment
// is attached by assembly when the article exists in the graph.
type RetrievalCandidate struct {
	Unit           TextUnit           `json:"unit"`
	RetrievalScore float64            `json:"retrieval_score"`
	RerankScore    float64            `json:"rerank_score,omitempty"`
	Enrichment     *ArticleEnrichment `json:"enrichment,omitempty"`
}

// Score is the candidate's effective ranking score.
func (c RetrievalCandidate) Score() float64 {
	if c.RerankScore != 0 {
		return c.RerankScore
	}
	return c.RetrievalScore
}

// RetrievalInfo describes how a candidate set was produced. RerankFallback
// is empty when the scorer ranked the candidates, otherwise it names why the
// pre-rerank order was kept.
type RetrievalInfo struct {
	Mode           RetrievalMode `json:"mode"`
	Category       string        `json:"category,omitempty"`
	FilteredCount  int           `json:"filtered_count"`
	GeneralCount   int           `json:"general_count"`
	RerankApplied  bool          `json:"rerank_applied"`
	RerankFallback string        `json:"rerank_fallback,omitempty"`
	CacheHit       bool          `json:"cache_hit"`
}

// AskRequest is a question against the indexed corpus. CategoryHint and
// CaseFacts are optional; TopK <= 0 selects the configured default.
type AskRequest struct {
	Question     string `json:"question"`
	CategoryHint string `json:"category,omitempty"`
	CaseFacts    string `json:"case_facts,omitempty"`
	TopK         int    `json:"top_k,omitempty"`
}

// SourceRef points a synthesized answer back at the units it was built from.
type SourceRef struct {
	UnitID             string  `json:"unit_id"`
	CanonicalArticleID string  `json:"canonical_article_id,omitempty"`
	Citation           string  `json:"citation"`
	RetrievalScore     float64 `json:"retrieval_score"`
	RerankScore        float64 `json:"rerank_score,omitempty"`
}

type Answer struct {
	Text       string        `json:"answer"`
	Confidence float64       `json:"confidence"`
	Sources    []SourceRef   `json:"sources"`
	Retrieval  RetrievalInfo `json:"retrieval"`
}
