package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
	"github.com/kirillkom/pension-law-assistant/internal/core/ports"
)

// noContextAnswer is returned without calling the synthesizer when retrieval
// finds nothing: the model never gets a chance to invent law.
const noContextAnswer = "В предоставленных документах нет информации для ответа на этот вопрос."

// Pipeline stage contracts, consumer-side. The concrete usecases satisfy
// them; tests substitute fakes.
type unitRetriever interface {
	Retrieve(ctx context.Context, query, categoryHint string) ([]domain.RetrievalCandidate, domain.RetrievalInfo, error)
}

type candidateReranker interface {
	Rerank(ctx context.Context, query string, candidates []domain.RetrievalCandidate, n int) ([]domain.RetrievalCandidate, float64, string)
}

type contextAssembler interface {
	Assemble(ctx context.Context, req domain.AskRequest, candidates []domain.RetrievalCandidate) ([]domain.RetrievalCandidate, string)
}

// AskQuestionUseCase chains retrieval, reranking, context assembly and answer
// synthesis into the question-answering pipeline.
type AskQuestionUseCase struct {
	retriever   unitRetriever
	reranker    candidateReranker
	assembler   contextAssembler
	synthesizer ports.AnswerSynthesizer
}

func NewAskQuestionUseCase(
	retriever unitRetriever,
	reranker candidateReranker,
	assembler contextAssembler,
	synthesizer ports.AnswerSynthesizer,
) *AskQuestionUseCase {
	return &AskQuestionUseCase{
		retriever:   retriever,
		reranker:    reranker,
		assembler:   assembler,
		synthesizer: synthesizer,
	}
}

func (uc *AskQuestionUseCase) Ask(ctx context.Context, req domain.AskRequest) (*domain.Answer, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask question", errors.New("empty question"))
	}

	candidates, info, err := uc.retriever.Retrieve(ctx, question, req.CategoryHint)
	if err != nil {
		return nil, fmt.Errorf("retrieve units: %w", err)
	}
	if len(candidates) == 0 {
		return &domain.Answer{
			Text:      noContextAnswer,
			Sources:   []domain.SourceRef{},
			Retrieval: info,
		}, nil
	}

	top, confidence, fallback := uc.reranker.Rerank(ctx, question, candidates, req.TopK)
	info.RerankApplied = fallback == ""
	info.RerankFallback = fallback

	enriched, prompt := uc.assembler.Assemble(ctx, req, top)

	text, err := uc.synthesizer.Synthesize(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("synthesize answer: %w", err)
	}

	return &domain.Answer{
		Text:       text,
		Confidence: confidence,
		Sources:    sourceRefs(enriched),
		Retrieval:  info,
	}, nil
}

func sourceRefs(candidates []domain.RetrievalCandidate) []domain.SourceRef {
	refs := make([]domain.SourceRef, 0, len(candidates))
	for _, c := range candidates {
		refs = append(refs, domain.SourceRef{
			UnitID:             c.Unit.ID,
			CanonicalArticleID: c.Unit.Lineage.CanonicalArticleID,
			Citation:           c.Unit.Citation(),
			RetrievalScore:     c.RetrievalScore,
			RerankScore:        c.RerankScore,
		})
	}
	return refs
}
