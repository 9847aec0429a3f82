package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
)

func newMetadataRepoWithMock(t *testing.T) (*MetadataRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &MetadataRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestLoadReturnsNilWhenNoIndexYet(t *testing.T) {
	repo, mock, done := newMetadataRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT segmenter_version").
		WillReturnRows(sqlmock.NewRows([]string{
			"segmenter_version", "max_span_runes", "sub_split_runes", "sub_split_overlap", "embed_model", "updated_at",
		}))

	meta, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if meta != nil {
		t.Fatalf("expected nil metadata before first index, got %+v", meta)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLoadScansStoredMetadata(t *testing.T) {
	repo, mock, done := newMetadataRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT segmenter_version").
		WillReturnRows(sqlmock.NewRows([]string{
			"segmenter_version", "max_span_runes", "sub_split_runes", "sub_split_overlap", "embed_model", "updated_at",
		}).AddRow("v2", 1800, 900, 150, "nomic-embed-text", now))

	meta, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if meta == nil {
		t.Fatalf("expected metadata")
	}
	if meta.SegmenterVersion != "v2" || meta.EmbedModel != "nomic-embed-text" {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveUpsertsSingletonRow(t *testing.T) {
	repo, mock, done := newMetadataRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO index_metadata").
		WithArgs("v2", 1800, 900, 150, "nomic-embed-text", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(context.Background(), domain.IndexMetadata{
		SegmenterVersion: "v2",
		MaxSpanRunes:     1800,
		SubSplitRunes:    900,
		SubSplitOverlap:  150,
		EmbedModel:       "nomic-embed-text",
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
