// Package extractor turns stored source documents into plain text for
// segmentation.
package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
	"github.com/kirillkom/pension-law-assistant/internal/core/ports"
)

type Extractor struct {
	storage ports.ObjectStorage
}

func New(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	switch strings.ToLower(filepath.Ext(doc.Filename)) {
	case ".pdf":
		return extractPDF(reader)
	case ".docx":
		return extractDOCX(reader)
	default:
		return extractPlaintext(reader, doc.Filename)
	}
}
