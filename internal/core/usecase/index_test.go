package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
)

type statusCall struct {
	status domain.DocumentStatus
	errMsg string
}

type indexRepoFake struct {
	doc           *domain.Document
	getErr        error
	statusErr     error
	failStatusErr error
	setIndexedErr error
	statusCalls   []statusCall
	indexedID     string
	indexedLawID  string
	indexedUnits  int
}

func (f *indexRepoFake) Create(context.Context, *domain.Document) error { return nil }

func (f *indexRepoFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copyDoc := *f.doc
	return &copyDoc, nil
}

func (f *indexRepoFake) ListByStatus(context.Context, domain.DocumentStatus) ([]domain.Document, error) {
	return nil, nil
}

func (f *indexRepoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	if status == domain.StatusFailed && f.failStatusErr != nil {
		return f.failStatusErr
	}
	if f.statusErr != nil {
		return f.statusErr
	}
	return nil
}

func (f *indexRepoFake) SetIndexed(_ context.Context, id, lawID string, unitCount int) error {
	if f.setIndexedErr != nil {
		return f.setIndexedErr
	}
	f.indexedID = id
	f.indexedLawID = lawID
	f.indexedUnits = unitCount
	return nil
}

type indexExtractorFake struct {
	text string
	err  error
}

func (f *indexExtractorFake) Extract(context.Context, *domain.Document) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type indexSegmenterFake struct {
	units []domain.TextUnit
}

func (f *indexSegmenterFake) Segment(string, string) []domain.TextUnit { return f.units }

func (f *indexSegmenterFake) Version() string { return "seg-test" }

type indexEmbedderFake struct {
	batches [][]string
	short   bool
	err     error
}

func (f *indexEmbedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.batches = append(f.batches, texts)
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{float32(i)}
	}
	if f.short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (f *indexEmbedderFake) EmbedQuery(context.Context, string) ([]float32, error) { return nil, nil }

type indexUnitsFake struct {
	replaceErr error
	gotDocID   string
	gotUnits   int
	gotVectors int
}

func (f *indexUnitsFake) ReplaceUnits(_ context.Context, documentID string, units []domain.TextUnit, vectors [][]float32) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.gotDocID = documentID
	f.gotUnits = len(units)
	f.gotVectors = len(vectors)
	return nil
}

func (f *indexUnitsFake) SearchGeneral(context.Context, []float32, int) ([]domain.RetrievalCandidate, error) {
	return nil, nil
}

func (f *indexUnitsFake) SearchByArticles(context.Context, []float32, []string, int) ([]domain.RetrievalCandidate, error) {
	return nil, nil
}

type indexMetaFake struct {
	saved   []domain.IndexMetadata
	saveErr error
}

func (f *indexMetaFake) Load(context.Context) (*domain.IndexMetadata, error) { return nil, nil }

func (f *indexMetaFake) Save(_ context.Context, meta domain.IndexMetadata) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, meta)
	return nil
}

type indexMonitorFake struct {
	queueLags     []time.Duration
	unitCounts    []int
	graphRows     map[string]int
	enhancerEdges map[string]int
	enhancerSkips int
}

func (f *indexMonitorFake) ObserveQueueLag(lag time.Duration) {
	f.queueLags = append(f.queueLags, lag)
}

func (f *indexMonitorFake) ObserveUnits(count int) {
	f.unitCounts = append(f.unitCounts, count)
}

func (f *indexMonitorFake) AddGraphRows(kind string, count int) {
	if f.graphRows == nil {
		f.graphRows = make(map[string]int)
	}
	f.graphRows[kind] += count
}

func (f *indexMonitorFake) AddEnhancerEdges(method string, count int) {
	if f.enhancerEdges == nil {
		f.enhancerEdges = make(map[string]int)
	}
	f.enhancerEdges[method] += count
}

func (f *indexMonitorFake) AddEnhancerSkips(count int) { f.enhancerSkips += count }

func indexTestDoc() *domain.Document {
	return &domain.Document{
		ID:        "doc-1",
		Filename:  "400-ФЗ.txt",
		UpdatedAt: time.Now().Add(-2 * time.Second),
	}
}

func indexTestUnit(id, articleID, article, content string) domain.TextUnit {
	return domain.TextUnit{
		ID:      id,
		Content: content,
		Lineage: domain.UnitLineage{
			FileName:           "400-ФЗ.txt",
			LawTitle:           "Федеральный закон «О страховых пенсиях» от 28.12.2013 N 400-ФЗ",
			Article:            article,
			CanonicalArticleID: articleID,
		},
	}
}

func TestIndexProcessByIDSuccess(t *testing.T) {
	repo := &indexRepoFake{doc: indexTestDoc()}
	graph := &curatorGraphFake{}
	units := &indexUnitsFake{}
	meta := &indexMetaFake{}
	monitor := &indexMonitorFake{}
	segmented := []domain.TextUnit{
		indexTestUnit("u1", "400-ФЗ_Ст_8", "Статья 8", "Право на страховую пенсию по старости."),
		indexTestUnit("u2", "400-ФЗ_Ст_9", "Статья 9", "Условия назначения пенсии по инвалидности."),
	}
	segmented[0].Lineage.ArticleTitle = "Условия назначения страховой пенсии по старости"

	uc := NewIndexDocumentUseCase(
		repo,
		&indexExtractorFake{text: "полный текст закона"},
		&indexSegmenterFake{units: segmented},
		&indexEmbedderFake{},
		units,
		graph,
		meta,
		nil,
		monitor,
		domain.IndexMetadata{SegmenterVersion: "seg-test", EmbedModel: "bge-m3"},
	)

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if len(repo.statusCalls) != 1 || repo.statusCalls[0].status != domain.StatusIndexing {
		t.Fatalf("unexpected status sequence: %+v", repo.statusCalls)
	}
	if repo.indexedID != "doc-1" || repo.indexedLawID != "400-ФЗ" || repo.indexedUnits != 2 {
		t.Fatalf("unexpected SetIndexed call: id=%s law=%s units=%d", repo.indexedID, repo.indexedLawID, repo.indexedUnits)
	}
	if units.gotDocID != "doc-1" || units.gotUnits != 2 || units.gotVectors != 2 {
		t.Fatalf("unexpected vector replace: %+v", units)
	}
	if len(meta.saved) != 1 || meta.saved[0].EmbedModel != "bge-m3" {
		t.Fatalf("expected index metadata save, got %+v", meta.saved)
	}
	if len(monitor.unitCounts) != 1 || monitor.unitCounts[0] != 2 {
		t.Fatalf("expected ObserveUnits(2), got %v", monitor.unitCounts)
	}
	if len(monitor.queueLags) != 1 || monitor.queueLags[0] <= 0 {
		t.Fatalf("expected positive queue lag, got %v", monitor.queueLags)
	}
	if monitor.graphRows["nodes"] != 3 || monitor.graphRows["edges"] != 2 {
		t.Fatalf("unexpected graph row counts: %v", monitor.graphRows)
	}
}

func TestIndexSyncGraphBuildsLawAndArticles(t *testing.T) {
	repo := &indexRepoFake{doc: indexTestDoc()}
	graph := &curatorGraphFake{}
	segmented := []domain.TextUnit{
		indexTestUnit("u1", "400-ФЗ_Ст_8", "Статья 8", "первый фрагмент"),
		indexTestUnit("u2", "400-ФЗ_Ст_8", "Статья 8", "второй фрагмент той же статьи"),
		indexTestUnit("u3", "400-ФЗ_Ст_30", "Статья 30", "третий фрагмент"),
	}
	segmented[0].Lineage.ArticleTitle = "Условия назначения страховой пенсии по старости"

	uc := NewIndexDocumentUseCase(
		repo,
		&indexExtractorFake{text: "текст"},
		&indexSegmenterFake{units: segmented},
		&indexEmbedderFake{},
		&indexUnitsFake{},
		graph,
		&indexMetaFake{},
		nil,
		nil,
		domain.IndexMetadata{},
	)

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if len(graph.nodes) != 3 {
		t.Fatalf("expected 1 law + 2 article nodes, got %d", len(graph.nodes))
	}
	law := graph.nodes[0]
	if law.Label != domain.LabelLaw || law.ID != "400-ФЗ" {
		t.Fatalf("unexpected law node: %+v", law)
	}
	if law.Properties["number"] != "400-ФЗ" || law.Properties["adoption_date"] != "28.12.2013" {
		t.Fatalf("unexpected law properties: %+v", law.Properties)
	}
	if title, _ := law.Properties["title"].(string); !strings.Contains(title, "О страховых пенсиях") {
		t.Fatalf("unexpected law title: %v", law.Properties["title"])
	}
	article := graph.nodes[1]
	if article.ID != "400-ФЗ_Ст_8" || article.Properties["number_text"] != "8" {
		t.Fatalf("unexpected article node: %+v", article)
	}
	if article.Properties["title"] != "Условия назначения страховой пенсии по старости" {
		t.Fatalf("article title not carried over: %+v", article.Properties)
	}
	if len(graph.edges) != 2 {
		t.Fatalf("expected two containment edges, got %d", len(graph.edges))
	}
	for _, edge := range graph.edges {
		if edge.Type != domain.EdgeContainsArticle || edge.SourceID != "400-ФЗ" {
			t.Fatalf("unexpected edge: %+v", edge)
		}
	}
}

func TestIndexEmbedsInBatches(t *testing.T) {
	repo := &indexRepoFake{doc: indexTestDoc()}
	embedder := &indexEmbedderFake{}
	segmented := make([]domain.TextUnit, 0, 5)
	for _, id := range []string{"u1", "u2", "u3", "u4", "u5"} {
		segmented = append(segmented, indexTestUnit(id, "400-ФЗ_Ст_8", "Статья 8", "фрагмент "+id))
	}

	uc := NewIndexDocumentUseCase(
		repo,
		&indexExtractorFake{text: "текст"},
		&indexSegmenterFake{units: segmented},
		embedder,
		&indexUnitsFake{},
		&curatorGraphFake{},
		&indexMetaFake{},
		nil,
		nil,
		domain.IndexMetadata{},
	)
	uc.embedBatch = 2

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if len(embedder.batches) != 3 {
		t.Fatalf("expected 3 embed batches, got %d", len(embedder.batches))
	}
	if len(embedder.batches[0]) != 2 || len(embedder.batches[1]) != 2 || len(embedder.batches[2]) != 1 {
		t.Fatalf("unexpected batch sizes: %v", embedder.batches)
	}
}

func TestIndexMarksFailedOnExtractError(t *testing.T) {
	repo := &indexRepoFake{doc: indexTestDoc()}
	uc := NewIndexDocumentUseCase(
		repo,
		&indexExtractorFake{err: errors.New("extract fail")},
		&indexSegmenterFake{},
		&indexEmbedderFake{},
		&indexUnitsFake{},
		&curatorGraphFake{},
		&indexMetaFake{},
		nil,
		nil,
		domain.IndexMetadata{},
	)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(repo.statusCalls) != 2 {
		t.Fatalf("expected indexing + failed status updates, got %d", len(repo.statusCalls))
	}
	if repo.statusCalls[1].status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %+v", repo.statusCalls[1])
	}
	if !strings.Contains(repo.statusCalls[1].errMsg, "extract fail") {
		t.Fatalf("failure message not recorded: %+v", repo.statusCalls[1])
	}
}

func TestIndexMarksFailedOnEmptyText(t *testing.T) {
	repo := &indexRepoFake{doc: indexTestDoc()}
	uc := NewIndexDocumentUseCase(
		repo,
		&indexExtractorFake{text: ""},
		&indexSegmenterFake{},
		&indexEmbedderFake{},
		&indexUnitsFake{},
		&curatorGraphFake{},
		&indexMetaFake{},
		nil,
		nil,
		domain.IndexMetadata{},
	)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
	if repo.statusCalls[len(repo.statusCalls)-1].status != domain.StatusFailed {
		t.Fatalf("expected final failed status, got %+v", repo.statusCalls)
	}
}

func TestIndexMarksFailedOnVectorMismatch(t *testing.T) {
	repo := &indexRepoFake{doc: indexTestDoc()}
	uc := NewIndexDocumentUseCase(
		repo,
		&indexExtractorFake{text: "текст"},
		&indexSegmenterFake{units: []domain.TextUnit{
			indexTestUnit("u1", "400-ФЗ_Ст_8", "Статья 8", "a"),
			indexTestUnit("u2", "400-ФЗ_Ст_8", "Статья 8", "b"),
		}},
		&indexEmbedderFake{short: true},
		&indexUnitsFake{},
		&curatorGraphFake{},
		&indexMetaFake{},
		nil,
		nil,
		domain.IndexMetadata{},
	)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil || !strings.Contains(err.Error(), "vectors/units mismatch") {
		t.Fatalf("expected mismatch error, got %v", err)
	}
	if repo.statusCalls[len(repo.statusCalls)-1].status != domain.StatusFailed {
		t.Fatalf("expected final failed status, got %+v", repo.statusCalls)
	}
}

func TestIndexCombinesFailureWithStatusError(t *testing.T) {
	repo := &indexRepoFake{
		doc:           indexTestDoc(),
		failStatusErr: errors.New("db down"),
	}
	uc := NewIndexDocumentUseCase(
		repo,
		&indexExtractorFake{err: errors.New("extract fail")},
		&indexSegmenterFake{},
		&indexEmbedderFake{},
		&indexUnitsFake{},
		&curatorGraphFake{},
		&indexMetaFake{},
		nil,
		nil,
		domain.IndexMetadata{},
	)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "extract fail") || !strings.Contains(err.Error(), "mark failed status") {
		t.Fatalf("expected combined error, got %v", err)
	}
}

func TestIndexRunsKeywordEnhancement(t *testing.T) {
	repo := &indexRepoFake{doc: indexTestDoc()}
	graph := &curatorGraphFake{
		articles:   map[string]bool{"400-ФЗ_Ст_8": true},
		categories: map[string]bool{"old_age_insurance": true},
	}
	monitor := &indexMonitorFake{}
	curator := NewGraphCuratorUseCase(graph, curatorTestRegistry())

	uc := NewIndexDocumentUseCase(
		repo,
		&indexExtractorFake{text: "текст"},
		&indexSegmenterFake{units: []domain.TextUnit{
			indexTestUnit("u1", "400-ФЗ_Ст_8", "Статья 8", "Страховая пенсия по старости назначается при наличии стажа."),
			indexTestUnit("u2", "400-ФЗ_Ст_31", "Статья 31", "Досрочное назначение страховой пенсии отдельным категориям граждан."),
		}},
		&indexEmbedderFake{},
		&indexUnitsFake{},
		graph,
		&indexMetaFake{},
		curator,
		monitor,
		domain.IndexMetadata{},
	)

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if monitor.enhancerEdges[domain.MatchMethodExact] != 1 {
		t.Fatalf("expected one exact-match edge observed, got %v", monitor.enhancerEdges)
	}
	// u2 matches early_retirement but that category node is absent.
	if monitor.enhancerSkips != 1 {
		t.Fatalf("expected one skipped unit, got %d", monitor.enhancerSkips)
	}
}

func TestIndexMetaSaveFailureMarksFailed(t *testing.T) {
	repo := &indexRepoFake{doc: indexTestDoc()}
	uc := NewIndexDocumentUseCase(
		repo,
		&indexExtractorFake{text: "текст"},
		&indexSegmenterFake{units: []domain.TextUnit{
			indexTestUnit("u1", "400-ФЗ_Ст_8", "Статья 8", "a"),
		}},
		&indexEmbedderFake{},
		&indexUnitsFake{},
		&curatorGraphFake{},
		&indexMetaFake{saveErr: errors.New("meta store down")},
		nil,
		nil,
		domain.IndexMetadata{},
	)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil || !strings.Contains(err.Error(), "save index metadata") {
		t.Fatalf("expected metadata error, got %v", err)
	}
	if repo.indexedID != "" {
		t.Fatalf("document must not be marked ready, got SetIndexed(%s)", repo.indexedID)
	}
	if repo.statusCalls[len(repo.statusCalls)-1].status != domain.StatusFailed {
		t.Fatalf("expected final failed status, got %+v", repo.statusCalls)
	}
}
