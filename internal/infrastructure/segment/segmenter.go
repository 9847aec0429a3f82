package segment

import (
	"fmt"
	"strings"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
)

// version changes whenever segmentation output for the same input can change;
// the worker persists it in index metadata to drive reindex decisions.
const version = "v2"

// Segmenter cuts statute text into lineage-tagged units. Spans run from one
// header to the next, each prefixed with its own heading line; spans longer
// than maxSpanRunes are re-split by a fixed-size sub-splitter whose pieces
// inherit the span lineage.
type Segmenter struct {
	maxSpanRunes int
	subSplitter  *Splitter
}

func NewSegmenter(maxSpanRunes, subSplitRunes, subSplitOverlap int) *Segmenter {
	if maxSpanRunes <= 0 {
		maxSpanRunes = 1800
	}
	return &Segmenter{
		maxSpanRunes: maxSpanRunes,
		subSplitter:  NewSplitter(subSplitRunes, subSplitOverlap),
	}
}

func (s *Segmenter) Version() string {
	return version
}

func (s *Segmenter) Segment(text, fileName string) []domain.TextUnit {
	base := fileBase(fileName)
	cur := domain.UnitLineage{
		FileName: fileName,
		LawTitle: documentTitle(text, base),
	}

	matches := findHeaders(text)
	units := make([]domain.TextUnit, 0, len(matches)+1)
	seq := 0
	prev := 0

	// Fold over the headers: each span is emitted under the lineage in effect
	// when its own header was applied, so the span text starts with that
	// header line. The region before the first header rides on the seed
	// lineage.
	for _, m := range matches {
		units = s.appendSpan(units, text[prev:m.start], cur, &seq)
		cur = applyHeader(cur, m, base)
		prev = m.start
	}
	return s.appendSpan(units, text[prev:], cur, &seq)
}

// applyHeader advances the lineage accumulator past one header. Sections reset
// everything below them, chapters reset articles and points, articles reset
// points, points touch only themselves.
func applyHeader(cur domain.UnitLineage, m headerMatch, fileBase string) domain.UnitLineage {
	next := cur
	switch m.kind {
	case kindSection:
		next.Section = "Раздел " + m.number
		next.Chapter = ""
		next.Article = ""
		next.ArticleTitle = ""
		next.CanonicalArticleID = ""
		next.Point = ""
	case kindChapter:
		next.Chapter = "Глава " + m.number
		next.Article = ""
		next.ArticleTitle = ""
		next.CanonicalArticleID = ""
		next.Point = ""
	case kindArticle:
		next.Article = "Статья " + m.number
		next.ArticleTitle = m.title
		next.CanonicalArticleID = canonicalArticleID(fileBase, m.number)
		next.Point = ""
	case kindPoint:
		next.Point = m.number
	}
	return next
}

func (s *Segmenter) appendSpan(units []domain.TextUnit, span string, lineage domain.UnitLineage, seq *int) []domain.TextUnit {
	content := strings.TrimSpace(span)
	if content == "" {
		return units
	}

	base := fileBase(lineage.FileName)
	if len([]rune(content)) <= s.maxSpanRunes {
		id := fmt.Sprintf("%s_u%04d", base, *seq)
		*seq++
		return append(units, domain.TextUnit{ID: id, Content: content, Lineage: lineage})
	}

	parent := firstLine(content)
	parts := s.subSplitter.Split(content)
	id := fmt.Sprintf("%s_u%04d", base, *seq)
	*seq++
	for i, part := range parts {
		sub := lineage
		sub.ParentHeader = parent
		units = append(units, domain.TextUnit{
			ID:      fmt.Sprintf("%s_s%d", id, i),
			Content: part,
			Lineage: sub,
		})
	}
	return units
}

// documentTitle takes the first non-empty line as the law title when it reads
// like one; structural headers and overlong lines fall back to the file base.
func documentTitle(text, base string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if len([]rune(trimmed)) > 200 {
			break
		}
		lower := strings.ToLower(trimmed)
		if strings.HasPrefix(lower, "статья") || strings.HasPrefix(lower, "глава") || strings.HasPrefix(lower, "раздел") {
			break
		}
		return trimmed
	}
	return base
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
