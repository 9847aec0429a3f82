package segment

import (
	"strings"
	"testing"
)

const sampleLaw = `Федеральный закон "О страховых пенсиях"

Глава 1. Общие положения

Статья 1. Предмет регулирования
Настоящий Федеральный закон устанавливает основания возникновения права на страховые пенсии.

Статья 8. Условия назначения страховой пенсии по старости
1. Право на страховую пенсию по старости имеют лица, достигшие возраста 65 и 60 лет.
2. Страховая пенсия по старости назначается при наличии не менее 15 лет страхового стажа.
`

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func TestSegmentCoversWholeDocument(t *testing.T) {
	seg := NewSegmenter(1800, 900, 150)
	units := seg.Segment(sampleLaw, "400-ФЗ.txt")

	// Five headers (chapter, two articles, two points) plus the title line.
	if len(units) < 6 {
		t.Fatalf("expected at least 6 units, got %d", len(units))
	}

	var joined strings.Builder
	for _, u := range units {
		joined.WriteString(u.Content)
		joined.WriteString(" ")
	}
	if normalize(joined.String()) != normalize(sampleLaw) {
		t.Fatalf("concatenated units do not reproduce the document text")
	}
}

func TestSegmentLineage(t *testing.T) {
	seg := NewSegmenter(1800, 900, 150)
	units := seg.Segment(sampleLaw, "400-ФЗ.txt")

	byPrefix := func(prefix string) (int, bool) {
		for i, u := range units {
			if strings.HasPrefix(u.Content, prefix) {
				return i, true
			}
		}
		return 0, false
	}

	title, ok := byPrefix("Федеральный закон")
	if !ok {
		t.Fatalf("missing preamble unit")
	}
	pre := units[title]
	if pre.Lineage.LawTitle != `Федеральный закон "О страховых пенсиях"` {
		t.Fatalf("unexpected law title %q", pre.Lineage.LawTitle)
	}
	if pre.Lineage.Article != "" || pre.Lineage.CanonicalArticleID != "" {
		t.Fatalf("preamble must not carry article lineage")
	}

	art, ok := byPrefix("Статья 8")
	if !ok {
		t.Fatalf("missing article 8 unit")
	}
	a := units[art]
	if a.Lineage.Article != "Статья 8" {
		t.Fatalf("expected article lineage, got %q", a.Lineage.Article)
	}
	if a.Lineage.CanonicalArticleID != "400-ФЗ_Ст_8" {
		t.Fatalf("expected canonical id 400-ФЗ_Ст_8, got %q", a.Lineage.CanonicalArticleID)
	}
	if a.Lineage.ArticleTitle != "Условия назначения страховой пенсии по старости" {
		t.Fatalf("expected article title, got %q", a.Lineage.ArticleTitle)
	}
	if a.Lineage.Chapter != "Глава 1" {
		t.Fatalf("expected chapter lineage, got %q", a.Lineage.Chapter)
	}
	if a.Lineage.Point != "" {
		t.Fatalf("article heading span must not carry a point")
	}

	pt, ok := byPrefix("2. Страховая")
	if !ok {
		t.Fatalf("missing point 2 unit")
	}
	p := units[pt]
	if p.Lineage.Point != "2" {
		t.Fatalf("expected point 2, got %q", p.Lineage.Point)
	}
	if p.Lineage.CanonicalArticleID != "400-ФЗ_Ст_8" {
		t.Fatalf("point must stay inside article 8, got %q", p.Lineage.CanonicalArticleID)
	}
}

func TestSegmentDottedArticleNumber(t *testing.T) {
	text := "Статья 30.1. Досрочное назначение пенсии отдельным категориям граждан\nТекст статьи.\n"
	seg := NewSegmenter(1800, 900, 150)
	units := seg.Segment(text, "400-ФЗ.pdf")

	if len(units) != 1 {
		t.Fatalf("expected 1 unit, got %d", len(units))
	}
	got := units[0].Lineage.CanonicalArticleID
	if got != "400-ФЗ_Ст_30-1" {
		t.Fatalf("expected canonical id 400-ФЗ_Ст_30-1, got %q", got)
	}
	if units[0].Lineage.Article != "Статья 30.1" {
		t.Fatalf("expected article label with dotted number, got %q", units[0].Lineage.Article)
	}
}

func TestSegmentWithoutHeaders(t *testing.T) {
	text := "Пояснительная записка к проекту закона.\nКраткое содержание документа."
	seg := NewSegmenter(1800, 900, 150)
	units := seg.Segment(text, "note.txt")

	if len(units) != 1 {
		t.Fatalf("expected exactly 1 unit, got %d", len(units))
	}
	u := units[0]
	if normalize(u.Content) != normalize(text) {
		t.Fatalf("single unit must cover the whole document")
	}
	if u.Lineage.Article != "" || u.Lineage.CanonicalArticleID != "" || u.Lineage.Point != "" {
		t.Fatalf("headerless document must not carry structural lineage: %+v", u.Lineage)
	}
}

func TestSegmentChapterResetsArticle(t *testing.T) {
	text := `Раздел I. Общие положения

Глава 2. Виды пенсий

Статья 9. Условия назначения страховой пенсии по инвалидности
Текст статьи о страховой пенсии по инвалидности.

Глава 3. Переходные положения
Текст главы без статей.
`
	seg := NewSegmenter(1800, 900, 150)
	units := seg.Segment(text, "400-ФЗ.txt")

	lastChapter := -1
	for i, u := range units {
		if strings.HasPrefix(u.Content, "Глава 3") {
			lastChapter = i
		}
	}
	if lastChapter < 0 {
		t.Fatalf("missing chapter 3 unit")
	}
	u := units[lastChapter]
	if u.Lineage.Chapter != "Глава 3" {
		t.Fatalf("expected chapter 3 lineage, got %q", u.Lineage.Chapter)
	}
	if u.Lineage.Article != "" || u.Lineage.CanonicalArticleID != "" {
		t.Fatalf("new chapter must clear article lineage: %+v", u.Lineage)
	}
	if u.Lineage.Section != "Раздел I" {
		t.Fatalf("section must survive chapter change, got %q", u.Lineage.Section)
	}
}

func TestSegmentOversizedSpanIsSubSplit(t *testing.T) {
	body := strings.Repeat("Право на страховую пенсию имеют граждане при соблюдении условий. ", 12)
	text := "Статья 15. Размеры страховых пенсий\n" + body
	seg := NewSegmenter(200, 120, 20)
	units := seg.Segment(text, "400-ФЗ.txt")

	if len(units) < 2 {
		t.Fatalf("expected the span to split, got %d units", len(units))
	}
	for i, u := range units {
		if u.Lineage.CanonicalArticleID != "400-ФЗ_Ст_15" {
			t.Fatalf("sub-unit %d lost article lineage: %q", i, u.Lineage.CanonicalArticleID)
		}
		if u.Lineage.ParentHeader != "Статья 15. Размеры страховых пенсий" {
			t.Fatalf("sub-unit %d missing parent header: %q", i, u.Lineage.ParentHeader)
		}
		if !strings.Contains(u.ID, "_s") {
			t.Fatalf("sub-unit %d id %q lacks the split suffix", i, u.ID)
		}
	}
}

func TestSegmentIDsAreStable(t *testing.T) {
	seg := NewSegmenter(1800, 900, 150)
	first := seg.Segment(sampleLaw, "400-ФЗ.txt")
	second := seg.Segment(sampleLaw, "400-ФЗ.txt")

	if len(first) != len(second) {
		t.Fatalf("unit count changed between runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("unit %d id changed: %q vs %q", i, first[i].ID, second[i].ID)
		}
	}
}

func TestSplitterOverlapWindows(t *testing.T) {
	s := NewSplitter(10, 4)
	parts := s.Split("абвгдеёжзиклмнопрст")
	if len(parts) < 2 {
		t.Fatalf("expected multiple windows, got %d", len(parts))
	}
	for _, p := range parts {
		if len([]rune(p)) > 10 {
			t.Fatalf("window %q exceeds chunk size", p)
		}
	}
}
