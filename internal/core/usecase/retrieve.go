package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
	"github.com/kirillkom/pension-law-assistant/internal/core/ports"
)

const (
	defaultTopK         = 20
	defaultFilteredTopK = 10
)

// RetrieveUnitsUseCase runs the two-path dense retrieval: an anchor-filtered
// search when the category hint earns it, and an unrestricted search always.
// Merged results are cached per query shape; the cache stores ranked lists
// only, so hits skip embedding and both searches.
type RetrieveUnitsUseCase struct {
	embedder     ports.Embedder
	units        ports.UnitIndex
	registry     ports.CategoryRegistry
	cache        ports.CandidateCache
	topK         int
	filteredTopK int
}

func NewRetrieveUnitsUseCase(
	embedder ports.Embedder,
	units ports.UnitIndex,
	registry ports.CategoryRegistry,
	cache ports.CandidateCache,
	topK, filteredTopK int,
) *RetrieveUnitsUseCase {
	if topK <= 0 {
		topK = defaultTopK
	}
	if filteredTopK <= 0 {
		filteredTopK = defaultFilteredTopK
	}
	if filteredTopK > topK {
		filteredTopK = topK
	}
	return &RetrieveUnitsUseCase{
		embedder:     embedder,
		units:        units,
		registry:     registry,
		cache:        cache,
		topK:         topK,
		filteredTopK: filteredTopK,
	}
}

func (uc *RetrieveUnitsUseCase) Retrieve(
	ctx context.Context,
	query, categoryHint string,
) ([]domain.RetrievalCandidate, domain.RetrievalInfo, error) {
	rule, filtered := uc.applicableRule(query, categoryHint)

	info := domain.RetrievalInfo{Mode: domain.RetrievalModeGeneral}
	if filtered {
		info.Mode = domain.RetrievalModeFiltered
		info.Category = rule.ID
	}

	key := fmt.Sprintf("%s|%s|%d|%d", query, categoryHint, uc.topK, uc.filteredTopK)
	if cached, ok := uc.cache.Get(key); ok {
		info.CacheHit = true
		return cached, info, nil
	}

	vector, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, domain.RetrievalInfo{}, fmt.Errorf("embed query: %w", err)
	}

	var filteredHits []domain.RetrievalCandidate
	if filtered {
		filteredHits, err = uc.units.SearchByArticles(ctx, vector, rule.AnchorArticles, uc.filteredTopK)
		if err != nil {
			return nil, domain.RetrievalInfo{}, fmt.Errorf("filtered search: %w", err)
		}
	}
	generalHits, err := uc.units.SearchGeneral(ctx, vector, uc.topK)
	if err != nil {
		return nil, domain.RetrievalInfo{}, fmt.Errorf("general search: %w", err)
	}
	info.FilteredCount = len(filteredHits)
	info.GeneralCount = len(generalHits)

	merged := mergeCandidates(filteredHits, generalHits)
	uc.cache.Set(key, merged)
	return merged, info, nil
}

// applicableRule decides whether the hint activates the filtered path: the
// hint must name a known category, and a category with condition keywords
// additionally needs one of them in the query text.
func (uc *RetrieveUnitsUseCase) applicableRule(query, hint string) (domain.CategoryRule, bool) {
	if hint == "" {
		return domain.CategoryRule{}, false
	}
	rule, known := uc.registry.Rule(hint)
	if !known {
		return domain.CategoryRule{}, false
	}
	if len(rule.ConditionKeywords) == 0 {
		return rule, true
	}
	q := strings.ToLower(query)
	for _, kw := range rule.ConditionKeywords {
		if strings.Contains(q, strings.ToLower(kw)) {
			return rule, true
		}
	}
	return domain.CategoryRule{}, false
}

// mergeCandidates combines the two paths keyed by unit id. Filtered hits
// enter first and own their ids, so the anchor-restricted path can only add
// precision; general hits fill the rest of the recall. The merged set is
// ordered by retrieval score, unit id breaking score ties for determinism.
func mergeCandidates(filteredHits, generalHits []domain.RetrievalCandidate) []domain.RetrievalCandidate {
	merged := make([]domain.RetrievalCandidate, 0, len(filteredHits)+len(generalHits))
	seen := make(map[string]bool, len(filteredHits))

	for _, c := range filteredHits {
		if seen[c.Unit.ID] {
			continue
		}
		seen[c.Unit.ID] = true
		merged = append(merged, c)
	}
	for _, c := range generalHits {
		if seen[c.Unit.ID] {
			continue
		}
		seen[c.Unit.ID] = true
		merged = append(merged, c)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].RetrievalScore != merged[j].RetrievalScore {
			return merged[i].RetrievalScore > merged[j].RetrievalScore
		}
		return merged[i].Unit.ID < merged[j].Unit.ID
	})
	return merged
}
