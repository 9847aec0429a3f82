package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
	"github.com/kirillkom/pension-law-assistant/internal/core/ports"
)

// ArticleEnrichmentUseCase serves the graph context of a single article.
type ArticleEnrichmentUseCase struct {
	graph ports.GraphStore
}

func NewArticleEnrichmentUseCase(graph ports.GraphStore) *ArticleEnrichmentUseCase {
	return &ArticleEnrichmentUseCase{graph: graph}
}

func (uc *ArticleEnrichmentUseCase) Enrichment(ctx context.Context, articleID string) (*domain.ArticleEnrichment, error) {
	if strings.TrimSpace(articleID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "article enrichment", errors.New("empty article id"))
	}
	enrichment, err := uc.graph.ArticleEnrichment(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("query article enrichment: %w", err)
	}
	return enrichment, nil
}
