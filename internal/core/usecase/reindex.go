package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
	"github.com/kirillkom/pension-law-assistant/internal/core/ports"
)

// ReindexReport summarizes one staleness check.
type ReindexReport struct {
	NeedsReindex bool `json:"needs_reindex"`
	Republished  int  `json:"republished"`
}

// ReindexCheckUseCase compares the stored index parameters against the
// currently configured ones and, when they differ, republishes every ready
// document so the worker rebuilds its units. The stored metadata is refreshed
// only after each document finishes, by the indexing pipeline itself.
type ReindexCheckUseCase struct {
	meta    ports.IndexMetadataRepository
	repo    ports.DocumentRepository
	queue   ports.MessageQueue
	current domain.IndexMetadata
}

func NewReindexCheckUseCase(
	meta ports.IndexMetadataRepository,
	repo ports.DocumentRepository,
	queue ports.MessageQueue,
	current domain.IndexMetadata,
) *ReindexCheckUseCase {
	return &ReindexCheckUseCase{meta: meta, repo: repo, queue: queue, current: current}
}

func (uc *ReindexCheckUseCase) Run(ctx context.Context) (ReindexReport, error) {
	stored, err := uc.meta.Load(ctx)
	if err != nil {
		return ReindexReport{}, fmt.Errorf("load index metadata: %w", err)
	}
	if stored != nil && !domain.NeedsReindex(*stored, uc.current) {
		return ReindexReport{}, nil
	}

	docs, err := uc.repo.ListByStatus(ctx, domain.StatusReady)
	if err != nil {
		return ReindexReport{}, fmt.Errorf("list ready documents: %w", err)
	}
	for _, doc := range docs {
		if err := uc.queue.PublishDocumentIngested(ctx, doc.ID); err != nil {
			return ReindexReport{}, fmt.Errorf("republish document %s: %w", doc.ID, err)
		}
	}
	return ReindexReport{NeedsReindex: true, Republished: len(docs)}, nil
}
