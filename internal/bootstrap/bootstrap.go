package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/kirillkom/pension-law-assistant/internal/config"
	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
	"github.com/kirillkom/pension-law-assistant/internal/core/ports"
	"github.com/kirillkom/pension-law-assistant/internal/core/usecase"
	"github.com/kirillkom/pension-law-assistant/internal/infrastructure/cache"
	"github.com/kirillkom/pension-law-assistant/internal/infrastructure/catalog"
	"github.com/kirillkom/pension-law-assistant/internal/infrastructure/extractor"
	"github.com/kirillkom/pension-law-assistant/internal/infrastructure/graph/neo4j"
	"github.com/kirillkom/pension-law-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/pension-law-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/pension-law-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/pension-law-assistant/internal/infrastructure/rerank/tei"
	"github.com/kirillkom/pension-law-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/pension-law-assistant/internal/infrastructure/segment"
	"github.com/kirillkom/pension-law-assistant/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/pension-law-assistant/internal/infrastructure/vector/qdrant"
)

// App is the wired object graph shared by every binary. Commands pick the
// pieces they need and must call Close before exiting.
type App struct {
	Config config.Config

	Queue ports.MessageQueue
	Repo  ports.DocumentRepository

	Extractor ports.TextExtractor
	Segmenter ports.Segmenter

	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	AskUC     ports.QuestionService
	EnrichUC  ports.EnrichmentReader
	StatsUC   ports.GraphInspector
	CuratorUC *usecase.GraphCuratorUseCase
	ReindexUC *usecase.ReindexCheckUseCase

	closeFn func()
}

// New connects to every backing service and builds the use cases. The monitor
// feeds indexing measurements to the caller's metrics; nil disables them.
func New(ctx context.Context, cfg config.Config, monitor ports.IndexingMonitor) (*App, error) {
	executor := resilience.NewExecutor(resilience.DefaultConfig())

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	meta := postgres.NewMetadataRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.Options{
		ResilienceExecutor: executor,
	})
	embedder := ollama.NewEmbedder(ollamaClient)
	synthesizer := ollama.NewSynthesizer(ollamaClient)

	units := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)

	graph, err := neo4j.New(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		return nil, fmt.Errorf("connect neo4j: %w", err)
	}
	if err := graph.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure graph schema: %w", err)
	}

	// Empty reranker URL leaves the scorer nil; reranking then degrades to
	// retrieval order instead of failing the question pipeline.
	var scorer ports.PairScorer
	if cfg.RerankerURL != "" {
		scorer = tei.New(cfg.RerankerURL)
	}

	registry, err := catalog.Load(cfg.CategoryRulesPath, cfg.KeywordDictPath)
	if err != nil {
		return nil, fmt.Errorf("load category catalog: %w", err)
	}

	candidates := cache.NewTTLCache(cfg.CacheMaxEntries, time.Duration(cfg.CacheTTLSeconds)*time.Second)
	segmenter := segment.NewSegmenter(cfg.MaxSpanRunes, cfg.SubSplitRunes, cfg.SubSplitOverlap)
	texts := extractor.New(storage)

	indexParams := domain.IndexMetadata{
		SegmenterVersion: segmenter.Version(),
		MaxSpanRunes:     cfg.MaxSpanRunes,
		SubSplitRunes:    cfg.SubSplitRunes,
		SubSplitOverlap:  cfg.SubSplitOverlap,
		EmbedModel:       cfg.OllamaEmbedModel,
	}

	curatorUC := usecase.NewGraphCuratorUseCase(graph, registry)
	enhancer := curatorUC
	if !cfg.WorkerEnhancerEnabled {
		enhancer = nil
	}

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewIndexDocumentUseCase(repo, texts, segmenter, embedder, units, graph, meta, enhancer, monitor, indexParams)
	retrieveUC := usecase.NewRetrieveUnitsUseCase(embedder, units, registry, candidates, cfg.RetrievalTopK, cfg.RetrievalFilteredTopK)
	rerankUC := usecase.NewRerankUseCase(scorer, cfg.RerankTopN)
	assembleUC := usecase.NewAssembleContextUseCase(graph)
	askUC := usecase.NewAskQuestionUseCase(retrieveUC, rerankUC, assembleUC, synthesizer)
	enrichUC := usecase.NewArticleEnrichmentUseCase(graph)
	statsUC := usecase.NewGraphStatsUseCase(graph)
	reindexUC := usecase.NewReindexCheckUseCase(meta, repo, queue, indexParams)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		Extractor: texts,
		Segmenter: segmenter,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		AskUC:     askUC,
		EnrichUC:  enrichUC,
		StatsUC:   statsUC,
		CuratorUC: curatorUC,
		ReindexUC: reindexUC,

		closeFn: func() {
			queue.Close()
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = graph.Close(closeCtx)
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
