package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
	"github.com/kirillkom/pension-law-assistant/internal/core/ports"
)

// Dedup passes are bounded so a cycle in the duplicate report can never spin
// the maintenance path forever.
const dedupeMaxPasses = 10

// BaselineStats summarizes one baseline-relations pass.
type BaselineStats struct {
	CategoryNodes  int
	ConditionNodes int
	Edges          int
}

// EnhanceStats summarizes one keyword-enhancement pass. SkippedUnits counts
// matched units whose article or category node was not in the graph yet.
type EnhanceStats struct {
	MatchedUnits  int
	SkippedUnits  int
	Edges         int
	EdgesByMethod map[string]int
}

// GraphCuratorUseCase maintains the curated layer of the statute graph:
// known-correct category relations, keyword-derived relations, and duplicate
// cleanup. All writes are upserts, so every routine is safe to re-run; none
// of them may run concurrently with each other or with indexing.
type GraphCuratorUseCase struct {
	graph    ports.GraphStore
	registry ports.CategoryRegistry
	matcher  *keywordMatcher
}

func NewGraphCuratorUseCase(graph ports.GraphStore, registry ports.CategoryRegistry) *GraphCuratorUseCase {
	return &GraphCuratorUseCase{
		graph:    graph,
		registry: registry,
		matcher:  newKeywordMatcher(registry.Keywords()),
	}
}

// CreateBaselineRelations seeds the graph from the category registry: one
// PensionCategory node per rule, its baseline EligibilityCondition nodes, and
// the anchor-article edges tagged as manual mappings. Edges whose anchor
// article is not indexed yet write nothing; a later re-run picks them up.
func (uc *GraphCuratorUseCase) CreateBaselineRelations(ctx context.Context) (BaselineStats, error) {
	var stats BaselineStats
	var nodes []domain.GraphNode
	var edges []domain.GraphEdge

	manual := map[string]any{"source": domain.EdgeSourceManual}
	for _, rule := range uc.registry.Rules() {
		nodes = append(nodes, domain.PensionCategory{
			CategoryID:  rule.ID,
			DisplayName: rule.DisplayName,
		}.Node())
		stats.CategoryNodes++

		for _, anchor := range rule.AnchorArticles {
			edges = append(edges, domain.GraphEdge{
				SourceID:   anchor,
				TargetID:   rule.ID,
				Type:       domain.EdgeRelatesToPensionType,
				Properties: manual,
			})
		}

		for _, cond := range rule.BaselineConditions {
			nodes = append(nodes, domain.EligibilityCondition{
				ConditionID: cond.ConditionID,
				Description: cond.Description,
				Value:       cond.Value,
			}.Node())
			stats.ConditionNodes++

			for _, anchor := range rule.AnchorArticles {
				edges = append(edges, domain.GraphEdge{
					SourceID:   anchor,
					TargetID:   cond.ConditionID,
					Type:       domain.EdgeDefinesCondition,
					Properties: manual,
				})
			}
			edges = append(edges, domain.GraphEdge{
				SourceID:   cond.ConditionID,
				TargetID:   rule.ID,
				Type:       domain.EdgeAppliesToPensionType,
				Properties: manual,
			})
		}
	}
	stats.Edges = len(edges)

	if err := uc.graph.UpsertNodes(ctx, nodes); err != nil {
		return BaselineStats{}, fmt.Errorf("upsert baseline nodes: %w", err)
	}
	if err := uc.graph.UpsertEdges(ctx, edges); err != nil {
		return BaselineStats{}, fmt.Errorf("upsert baseline edges: %w", err)
	}
	return stats, nil
}

type articleCategoryKey struct {
	articleID  string
	categoryID string
}

// EnhanceByKeyword derives category relations from unit text. Each unit inside
// a recognized article gets at most one dictionary hit; hits collapse to one
// edge per (article, category) pair, the first matching unit supplying the
// edge properties. Hits whose endpoints are missing from the graph are counted
// as skips instead of writing half-anchored edges.
func (uc *GraphCuratorUseCase) EnhanceByKeyword(ctx context.Context, units []domain.TextUnit) (EnhanceStats, error) {
	stats := EnhanceStats{EdgesByMethod: make(map[string]int)}

	type unitMatch struct {
		key articleCategoryKey
		hit keywordHit
	}
	var matches []unitMatch
	var articleIDs, categoryIDs []string
	seenArticles := make(map[string]bool)
	seenCategories := make(map[string]bool)

	for _, unit := range units {
		articleID := unit.Lineage.CanonicalArticleID
		if articleID == "" {
			continue
		}
		hit, ok := uc.matcher.Match(unit.Content)
		if !ok {
			continue
		}
		matches = append(matches, unitMatch{
			key: articleCategoryKey{articleID: articleID, categoryID: hit.category},
			hit: hit,
		})
		if !seenArticles[articleID] {
			seenArticles[articleID] = true
			articleIDs = append(articleIDs, articleID)
		}
		if !seenCategories[hit.category] {
			seenCategories[hit.category] = true
			categoryIDs = append(categoryIDs, hit.category)
		}
	}
	if len(matches) == 0 {
		return stats, nil
	}

	haveArticle, err := uc.graph.ExistingArticleIDs(ctx, articleIDs)
	if err != nil {
		return EnhanceStats{}, fmt.Errorf("check article nodes: %w", err)
	}
	haveCategory, err := uc.graph.ExistingCategoryIDs(ctx, categoryIDs)
	if err != nil {
		return EnhanceStats{}, fmt.Errorf("check category nodes: %w", err)
	}

	var edges []domain.GraphEdge
	built := make(map[articleCategoryKey]bool)
	for _, m := range matches {
		if !haveArticle[m.key.articleID] || !haveCategory[m.key.categoryID] {
			stats.SkippedUnits++
			continue
		}
		stats.MatchedUnits++
		if built[m.key] {
			continue
		}
		built[m.key] = true
		edges = append(edges, domain.GraphEdge{
			SourceID: m.key.articleID,
			TargetID: m.key.categoryID,
			Type:     domain.EdgeRelatesToPensionType,
			Properties: map[string]any{
				"source":       domain.EdgeSourceEnhancer,
				"keyword":      m.hit.phrase,
				"match_method": m.hit.method,
				"confidence":   matchConfidence(m.hit.method),
			},
		})
		stats.EdgesByMethod[m.hit.method]++
	}
	stats.Edges = len(edges)

	if err := uc.graph.UpsertEdges(ctx, edges); err != nil {
		return EnhanceStats{}, fmt.Errorf("upsert keyword edges: %w", err)
	}
	return stats, nil
}

// DeduplicateCategories merges PensionCategory nodes sharing a display name
// until a pass reports none left. Returns how many nodes were merged away.
func (uc *GraphCuratorUseCase) DeduplicateCategories(ctx context.Context) (int, error) {
	merged := 0
	for pass := 0; pass < dedupeMaxPasses; pass++ {
		groups, err := uc.graph.CategoryDuplicates(ctx)
		if err != nil {
			return merged, fmt.Errorf("list duplicate categories: %w", err)
		}
		if len(groups) == 0 {
			return merged, nil
		}
		for _, group := range groups {
			keep := uc.chooseKeeper(group.CategoryIDs)
			if keep == "" {
				continue
			}
			for _, id := range group.CategoryIDs {
				if id == keep {
					continue
				}
				if err := uc.graph.RepointCategoryEdges(ctx, id, keep); err != nil {
					return merged, fmt.Errorf("repoint edges of %s onto %s: %w", id, keep, err)
				}
				if err := uc.graph.DeleteCategory(ctx, id); err != nil {
					return merged, fmt.Errorf("delete category %s: %w", id, err)
				}
				merged++
			}
		}
	}
	return merged, fmt.Errorf("category deduplication did not converge after %d passes", dedupeMaxPasses)
}

// chooseKeeper picks the node that survives a merge: registry-known ids beat
// unknown ones, the lexicographically smallest id breaks ties.
func (uc *GraphCuratorUseCase) chooseKeeper(ids []string) string {
	keep := ""
	keepCanonical := false
	for _, id := range ids {
		_, canonical := uc.registry.Rule(id)
		switch {
		case canonical && !keepCanonical:
			keep, keepCanonical = id, true
		case canonical == keepCanonical && (keep == "" || id < keep):
			keep = id
		}
	}
	return keep
}

// matchConfidence maps a match strategy to the confidence written on the
// edge: strategies are ordered by how much evidence they demand.
func matchConfidence(method string) float64 {
	switch method {
	case domain.MatchMethodExact:
		return 1.0
	case domain.MatchMethodPhrase:
		return 0.8
	case domain.MatchMethodStem:
		return 0.6
	}
	return 0
}
