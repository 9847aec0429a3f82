package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
	"github.com/kirillkom/pension-law-assistant/internal/core/ports"
)

// GraphStatsUseCase exposes the structural health report of the statute graph.
type GraphStatsUseCase struct {
	graph ports.GraphStore
}

func NewGraphStatsUseCase(graph ports.GraphStore) *GraphStatsUseCase {
	return &GraphStatsUseCase{graph: graph}
}

func (uc *GraphStatsUseCase) Stats(ctx context.Context) (*domain.GraphHealth, error) {
	health, err := uc.graph.ValidateStructure(ctx)
	if err != nil {
		return nil, fmt.Errorf("validate graph structure: %w", err)
	}
	return health, nil
}
