package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
	"github.com/kirillkom/pension-law-assistant/internal/core/ports"
)

const defaultEmbedBatch = 32

var (
	lawNumberPattern    = regexp.MustCompile(`\d+-ФЗ`)
	adoptionDatePattern = regexp.MustCompile(`от (\d{2}\.\d{2}\.\d{4})`)
)

// IndexDocumentUseCase runs the full indexing pipeline for one document:
// extract, segment, embed, replace the unit index, mirror the structure into
// the graph, then enhance the graph from the unit text. Index metadata is
// persisted before the document flips to ready, so a crash in between leaves
// the document failed rather than silently half-indexed.
type IndexDocumentUseCase struct {
	repo       ports.DocumentRepository
	extractor  ports.TextExtractor
	segmenter  ports.Segmenter
	embedder   ports.Embedder
	units      ports.UnitIndex
	graph      ports.GraphStore
	meta       ports.IndexMetadataRepository
	curator    *GraphCuratorUseCase
	monitor    ports.IndexingMonitor
	params     domain.IndexMetadata
	embedBatch int
}

func NewIndexDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	segmenter ports.Segmenter,
	embedder ports.Embedder,
	units ports.UnitIndex,
	graph ports.GraphStore,
	meta ports.IndexMetadataRepository,
	curator *GraphCuratorUseCase,
	monitor ports.IndexingMonitor,
	params domain.IndexMetadata,
) *IndexDocumentUseCase {
	if monitor == nil {
		monitor = nopMonitor{}
	}
	return &IndexDocumentUseCase{
		repo:       repo,
		extractor:  extractor,
		segmenter:  segmenter,
		embedder:   embedder,
		units:      units,
		graph:      graph,
		meta:       meta,
		curator:    curator,
		monitor:    monitor,
		params:     params,
		embedBatch: defaultEmbedBatch,
	}
}

func (uc *IndexDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.markStatus(ctx, documentID, domain.StatusIndexing, ""); err != nil {
		return fmt.Errorf("set status=indexing: %w", err)
	}

	result, err := uc.indexPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SetIndexed(ctx, documentID, result.lawID, result.unitCount); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

type indexResult struct {
	lawID     string
	unitCount int
}

func (uc *IndexDocumentUseCase) indexPipeline(ctx context.Context, documentID string) (indexResult, error) {
	doc, err := uc.loadDocument(ctx, documentID)
	if err != nil {
		return indexResult{}, err
	}
	uc.monitor.ObserveQueueLag(time.Since(doc.UpdatedAt))

	text, err := uc.extractText(ctx, doc)
	if err != nil {
		return indexResult{}, err
	}

	units, err := uc.segment(doc, text)
	if err != nil {
		return indexResult{}, err
	}
	uc.monitor.ObserveUnits(len(units))

	vectors, err := uc.embedUnits(ctx, units)
	if err != nil {
		return indexResult{}, err
	}

	if err := uc.replaceUnits(ctx, doc.ID, units, vectors); err != nil {
		return indexResult{}, err
	}

	lawID, err := uc.syncGraph(ctx, doc, units)
	if err != nil {
		return indexResult{}, err
	}

	if err := uc.enhance(ctx, units); err != nil {
		return indexResult{}, err
	}

	if err := uc.meta.Save(ctx, uc.params); err != nil {
		return indexResult{}, fmt.Errorf("save index metadata: %w", err)
	}

	return indexResult{lawID: lawID, unitCount: len(units)}, nil
}

func (uc *IndexDocumentUseCase) loadDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	return doc, nil
}

func (uc *IndexDocumentUseCase) extractText(ctx context.Context, doc *domain.Document) (string, error) {
	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}
	return text, nil
}

func (uc *IndexDocumentUseCase) segment(doc *domain.Document, text string) ([]domain.TextUnit, error) {
	units := uc.segmenter.Segment(text, doc.Filename)
	if len(units) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "segment document", errors.New("segmentation produced zero units"))
	}
	return units, nil
}

func (uc *IndexDocumentUseCase) embedUnits(ctx context.Context, units []domain.TextUnit) ([][]float32, error) {
	vectors := make([][]float32, 0, len(units))
	for start := 0; start < len(units); start += uc.embedBatch {
		end := min(start+uc.embedBatch, len(units))
		batch := make([]string, 0, end-start)
		for _, u := range units[start:end] {
			batch = append(batch, u.Content)
		}
		part, err := uc.embedder.Embed(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embed units: %w", err)
		}
		vectors = append(vectors, part...)
	}
	if len(vectors) != len(units) {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"embed units",
			fmt.Errorf("vectors/units mismatch: %d/%d", len(vectors), len(units)),
		)
	}
	return vectors, nil
}

func (uc *IndexDocumentUseCase) replaceUnits(ctx context.Context, documentID string, units []domain.TextUnit, vectors [][]float32) error {
	if err := uc.units.ReplaceUnits(ctx, documentID, units, vectors); err != nil {
		return fmt.Errorf("replace units in vector index: %w", err)
	}
	return nil
}

// syncGraph mirrors the document's structure into the graph: one Law node,
// one Article node per distinct canonical article, and containment edges.
func (uc *IndexDocumentUseCase) syncGraph(ctx context.Context, doc *domain.Document, units []domain.TextUnit) (string, error) {
	law, articles := graphRows(doc, units)

	nodes := make([]domain.GraphNode, 0, len(articles)+1)
	nodes = append(nodes, law.Node())
	edges := make([]domain.GraphEdge, 0, len(articles))
	for _, article := range articles {
		nodes = append(nodes, article.Node())
		edges = append(edges, domain.GraphEdge{
			SourceID: law.LawID,
			TargetID: article.ArticleID,
			Type:     domain.EdgeContainsArticle,
		})
	}

	if err := uc.graph.UpsertNodes(ctx, nodes); err != nil {
		return "", fmt.Errorf("upsert graph nodes: %w", err)
	}
	if err := uc.graph.UpsertEdges(ctx, edges); err != nil {
		return "", fmt.Errorf("upsert graph edges: %w", err)
	}
	uc.monitor.AddGraphRows("nodes", len(nodes))
	uc.monitor.AddGraphRows("edges", len(edges))
	return law.LawID, nil
}

func (uc *IndexDocumentUseCase) enhance(ctx context.Context, units []domain.TextUnit) error {
	if uc.curator == nil {
		return nil
	}
	stats, err := uc.curator.EnhanceByKeyword(ctx, units)
	if err != nil {
		return fmt.Errorf("keyword enhancement: %w", err)
	}
	for method, count := range stats.EdgesByMethod {
		uc.monitor.AddEnhancerEdges(method, count)
	}
	uc.monitor.AddEnhancerSkips(stats.SkippedUnits)
	return nil
}

func (uc *IndexDocumentUseCase) markStatus(ctx context.Context, documentID string, status domain.DocumentStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, documentID, status, errMessage)
}

func (uc *IndexDocumentUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, documentID, domain.StatusFailed, processErr.Error())
}

// graphRows derives the law and its distinct articles from unit lineage. The
// first unit of each article is its heading span and supplies the title.
func graphRows(doc *domain.Document, units []domain.TextUnit) (domain.Law, []domain.Article) {
	law := domain.Law{LawID: lawIDFromFilename(doc.Filename)}
	if len(units) > 0 {
		law.Title = units[0].Lineage.LawTitle
	}
	if law.Title == "" {
		law.Title = law.LawID
	}
	law.Number = lawNumberPattern.FindString(law.LawID)
	if law.Number == "" {
		law.Number = lawNumberPattern.FindString(law.Title)
	}
	if groups := adoptionDatePattern.FindStringSubmatch(law.Title); groups != nil {
		law.AdoptionDate = groups[1]
	}

	var articles []domain.Article
	seen := make(map[string]bool)
	for _, unit := range units {
		id := unit.Lineage.CanonicalArticleID
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		articles = append(articles, domain.Article{
			ArticleID:  id,
			NumberText: strings.TrimPrefix(unit.Lineage.Article, "Статья "),
			Title:      unit.Lineage.ArticleTitle,
		})
	}
	return law, articles
}

func lawIDFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// nopMonitor stands in when the pipeline runs without metrics, such as the
// maintenance CLI.
type nopMonitor struct{}

func (nopMonitor) ObserveQueueLag(time.Duration) {}
func (nopMonitor) ObserveUnits(int)              {}
func (nopMonitor) AddGraphRows(string, int)      {}
func (nopMonitor) AddEnhancerEdges(string, int)  {}
func (nopMonitor) AddEnhancerSkips(int)          {}
