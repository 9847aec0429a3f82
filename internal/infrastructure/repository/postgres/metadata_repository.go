package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
)

// MetadataRepository stores the single row describing how the current index
// was built.
type MetadataRepository struct {
	db *sql.DB
}

func NewMetadataRepository(db *sql.DB) *MetadataRepository {
	return &MetadataRepository{db: db}
}

// Load returns nil without error when no index has been built yet.
func (r *MetadataRepository) Load(ctx context.Context) (*domain.IndexMetadata, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT segmenter_version, max_span_runes, sub_split_runes, sub_split_overlap, embed_model, updated_at
FROM index_metadata
WHERE id = 1
`)

	var meta domain.IndexMetadata
	err := row.Scan(
		&meta.SegmenterVersion,
		&meta.MaxSpanRunes,
		&meta.SubSplitRunes,
		&meta.SubSplitOverlap,
		&meta.EmbedModel,
		&meta.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan index metadata: %w", err)
	}
	return &meta, nil
}

func (r *MetadataRepository) Save(ctx context.Context, meta domain.IndexMetadata) error {
	if meta.UpdatedAt.IsZero() {
		meta.UpdatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO index_metadata (id, segmenter_version, max_span_runes, sub_split_runes, sub_split_overlap, embed_model, updated_at)
VALUES (1,$1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
	segmenter_version = EXCLUDED.segmenter_version,
	max_span_runes = EXCLUDED.max_span_runes,
	sub_split_runes = EXCLUDED.sub_split_runes,
	sub_split_overlap = EXCLUDED.sub_split_overlap,
	embed_model = EXCLUDED.embed_model,
	updated_at = EXCLUDED.updated_at
`,
		meta.SegmenterVersion, meta.MaxSpanRunes, meta.SubSplitRunes, meta.SubSplitOverlap,
		meta.EmbedModel, meta.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save index metadata: %w", err)
	}
	return nil
}
