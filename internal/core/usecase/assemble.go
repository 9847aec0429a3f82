package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
	"github.com/kirillkom/pension-law-assistant/internal/core/ports"
)

// AssembleContextUseCase attaches graph enrichment to reranked candidates and
// renders the synthesis prompt. Enrichment is best effort: a candidate whose
// article is missing from the graph, or whose read fails, keeps a nil
// Enrichment and contributes bare statute text.
type AssembleContextUseCase struct {
	graph ports.GraphStore
}

func NewAssembleContextUseCase(graph ports.GraphStore) *AssembleContextUseCase {
	return &AssembleContextUseCase{graph: graph}
}

// Assemble returns the candidates with enrichment attached plus the prompt
// built from them. Each distinct article is looked up once per call, failed
// lookups included.
func (uc *AssembleContextUseCase) Assemble(
	ctx context.Context,
	req domain.AskRequest,
	candidates []domain.RetrievalCandidate,
) ([]domain.RetrievalCandidate, string) {
	out := make([]domain.RetrievalCandidate, len(candidates))
	copy(out, candidates)

	lookups := make(map[string]*domain.ArticleEnrichment)
	for i := range out {
		articleID := out[i].Unit.Lineage.CanonicalArticleID
		if articleID == "" {
			continue
		}
		enrichment, seen := lookups[articleID]
		if !seen {
			enrichment = uc.lookupEnrichment(ctx, articleID)
			lookups[articleID] = enrichment
		}
		out[i].Enrichment = enrichment
	}
	return out, buildPrompt(req, out)
}

func (uc *AssembleContextUseCase) lookupEnrichment(ctx context.Context, articleID string) *domain.ArticleEnrichment {
	enrichment, err := uc.graph.ArticleEnrichment(ctx, articleID)
	if err != nil {
		return nil
	}
	return enrichment
}

func buildPrompt(req domain.AskRequest, candidates []domain.RetrievalCandidate) string {
	var b strings.Builder
	b.WriteString("Ответь на вопрос как юридический ассистент по пенсионному законодательству Российской Федерации. ")
	b.WriteString("Используй только приведённые ниже фрагменты законов и указывай статьи, на которых основан ответ. ")
	b.WriteString("Если в фрагментах нет ответа, прямо скажи об этом.\n\n")

	if facts := strings.TrimSpace(req.CaseFacts); facts != "" {
		b.WriteString("Факты дела:\n")
		b.WriteString(facts)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "Вопрос: %s\n\n", strings.TrimSpace(req.Question))
	b.WriteString("Фрагменты законов:\n")
	for i, c := range candidates {
		b.WriteString("\n")
		fmt.Fprintf(&b, "[%d] %s", i+1, c.Unit.Citation())
		if c.Enrichment != nil && c.Enrichment.ArticleTitle != "" {
			fmt.Fprintf(&b, " («%s»)", c.Enrichment.ArticleTitle)
		}
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(c.Unit.Content))
		b.WriteString("\n")
		if c.Enrichment != nil {
			writeEnrichment(&b, c.Enrichment)
		}
	}
	b.WriteString("\nОтвет:")
	return b.String()
}

func writeEnrichment(b *strings.Builder, e *domain.ArticleEnrichment) {
	if len(e.Categories) > 0 {
		fmt.Fprintf(b, "Связанные виды пенсий: %s\n", strings.Join(e.Categories, ", "))
	}
	if len(e.Conditions) == 0 {
		return
	}
	b.WriteString("Условия назначения:\n")
	for _, cond := range e.Conditions {
		if cond.Category != "" {
			fmt.Fprintf(b, "- %s: %s (%s)\n", cond.Description, cond.Value, cond.Category)
		} else {
			fmt.Fprintf(b, "- %s: %s\n", cond.Description, cond.Value)
		}
	}
}
