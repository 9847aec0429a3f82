package usecase

import (
	"context"
	"sort"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
	"github.com/kirillkom/pension-law-assistant/internal/core/ports"
)

const defaultRerankTopN = 5

// Fallback reasons reported when the scorer did not produce the final order.
const (
	rerankSkipNoCandidates = "no_candidates"
	rerankSkipNoScorer     = "no_scorer"
	rerankSkipScorerError  = "scorer_error"
)

// RerankUseCase reorders retrieval candidates with a pairwise relevance
// scorer. A nil scorer disables reranking entirely; a scorer failure keeps
// the retrieval order. Neither case may fail the request.
type RerankUseCase struct {
	scorer ports.PairScorer
	topN   int
}

func NewRerankUseCase(scorer ports.PairScorer, topN int) *RerankUseCase {
	if topN <= 0 {
		topN = defaultRerankTopN
	}
	return &RerankUseCase{scorer: scorer, topN: topN}
}

// Rerank returns the top n candidates, the confidence of the ranking, and a
// fallback reason. The reason is empty when the scorer produced the order;
// otherwise the incoming order was kept and confidence is 0. Confidence is
// the top candidate's rerank score as the scorer reported it, not clamped.
func (uc *RerankUseCase) Rerank(
	ctx context.Context,
	query string,
	candidates []domain.RetrievalCandidate,
	n int,
) ([]domain.RetrievalCandidate, float64, string) {
	if n <= 0 {
		n = uc.topN
	}
	if len(candidates) == 0 {
		return nil, 0, rerankSkipNoCandidates
	}
	if uc.scorer == nil {
		return headCandidates(candidates, n), 0, rerankSkipNoScorer
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Unit.Content
	}
	scores, err := uc.scorer.ScorePairs(ctx, query, texts)
	if err != nil || len(scores) != len(candidates) {
		return headCandidates(candidates, n), 0, rerankSkipScorerError
	}

	out := make([]domain.RetrievalCandidate, len(candidates))
	copy(out, candidates)
	for i := range out {
		out[i].RerankScore = scores[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RerankScore != out[j].RerankScore {
			return out[i].RerankScore > out[j].RerankScore
		}
		if out[i].RetrievalScore != out[j].RetrievalScore {
			return out[i].RetrievalScore > out[j].RetrievalScore
		}
		return out[i].Unit.ID < out[j].Unit.ID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, out[0].RerankScore, ""
}

// headCandidates copies the first n candidates in incoming order.
func headCandidates(candidates []domain.RetrievalCandidate, n int) []domain.RetrievalCandidate {
	if n > len(candidates) {
		n = len(candidates)
	}
	out := make([]domain.RetrievalCandidate, n)
	copy(out, candidates[:n])
	return out
}
