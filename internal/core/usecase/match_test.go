package usecase

import (
	"testing"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
)

func testDictionary() []domain.KeywordMapping {
	return []domain.KeywordMapping{
		{Phrase: "страховая пенсия по старости", CategoryID: "old_age_insurance"},
		{Phrase: "страховая пенсия по инвалидности", CategoryID: "disability_insurance"},
		{Phrase: "накопительная пенсия", CategoryID: "funded_pension"},
		{Phrase: "социальная пенсия", CategoryID: "social_pension"},
		{Phrase: "инвалидность", CategoryID: "disability_insurance"},
	}
}

func TestMatchExactBoundary(t *testing.T) {
	m := newKeywordMatcher(testDictionary())

	hit, ok := m.Match("Страховая пенсия по инвалидности назначается независимо от стажа.")
	if !ok {
		t.Fatalf("expected a match")
	}
	if hit.category != "disability_insurance" {
		t.Fatalf("expected disability_insurance, got %q", hit.category)
	}
	if hit.method != domain.MatchMethodExact {
		t.Fatalf("expected exact match, got %q", hit.method)
	}
	if hit.phrase != "страховая пенсия по инвалидности" {
		t.Fatalf("unexpected phrase %q", hit.phrase)
	}
}

func TestMatchDictionaryOrderBreaksTies(t *testing.T) {
	m := newKeywordMatcher(testDictionary())

	// Both phrases match exactly; the earlier dictionary row claims the unit.
	hit, ok := m.Match("Накопительная пенсия и социальная пенсия назначаются по разным основаниям.")
	if !ok {
		t.Fatalf("expected a match")
	}
	if hit.category != "funded_pension" {
		t.Fatalf("expected the earlier dictionary row to win, got %q", hit.category)
	}
}

func TestMatchPhraseContainmentFallback(t *testing.T) {
	m := newKeywordMatcher(testDictionary())

	// Extraction sometimes glues adjacent words together, which defeats the
	// boundary pattern but not plain containment.
	hit, ok := m.Match("Социальная пенсиянетрудоспособным гражданам назначается при постоянном проживании.")
	if !ok {
		t.Fatalf("expected a match")
	}
	if hit.category != "social_pension" {
		t.Fatalf("expected social_pension, got %q", hit.category)
	}
	if hit.method != domain.MatchMethodPhrase {
		t.Fatalf("expected phrase containment, got %q", hit.method)
	}
}

func TestMatchStemFallback(t *testing.T) {
	m := newKeywordMatcher(testDictionary())

	// "инвалидности" is an inflected form of the single-word keyword
	// "инвалидность": no exact or containment hit, but the stems line up.
	hit, ok := m.Match("Установление группы инвалидности производится учреждениями медико-социальной экспертизы.")
	if !ok {
		t.Fatalf("expected a stem match")
	}
	if hit.category != "disability_insurance" {
		t.Fatalf("expected disability_insurance, got %q", hit.category)
	}
	if hit.method != domain.MatchMethodStem {
		t.Fatalf("expected stem match, got %q", hit.method)
	}
}

func TestMatchStrategiesRunDictionaryWide(t *testing.T) {
	dict := []domain.KeywordMapping{
		{Phrase: "пенсионер", CategoryID: "old_age_insurance"},
		{Phrase: "социальная пенсия", CategoryID: "social_pension"},
	}
	m := newKeywordMatcher(dict)

	// The first row only stem-matches ("пенсионерам"), the second row matches
	// exactly. Exact matches across the whole dictionary outrank any stem.
	hit, ok := m.Match("Пенсионерам назначается социальная пенсия.")
	if !ok {
		t.Fatalf("expected a match")
	}
	if hit.category != "social_pension" {
		t.Fatalf("expected the exact strategy to win dictionary-wide, got %q via %q", hit.category, hit.method)
	}
	if hit.method != domain.MatchMethodExact {
		t.Fatalf("expected exact match, got %q", hit.method)
	}
}

func TestMatchShortKeywordHasNoStem(t *testing.T) {
	m := newKeywordMatcher([]domain.KeywordMapping{{Phrase: "стаж", CategoryID: "old_age_insurance"}})

	// Four runes leave nothing usable after suffix stripping, so the inflected
	// form stays unmatched.
	if hit, ok := m.Match("Требования к стажу определяются приложением."); ok {
		t.Fatalf("expected no match, got %q via %q", hit.category, hit.method)
	}
	// The base form still matches on the boundary pattern.
	hit, ok := m.Match("Страховой стаж учитывается в календарном порядке.")
	if !ok {
		t.Fatalf("expected an exact match for the base form")
	}
	if hit.method != domain.MatchMethodExact {
		t.Fatalf("expected exact match, got %q", hit.method)
	}
}

func TestMatchNoHit(t *testing.T) {
	m := newKeywordMatcher(testDictionary())

	if hit, ok := m.Match("Настоящий Федеральный закон вступает в силу с 1 января 2015 года."); ok {
		t.Fatalf("expected no match, got %q via %q", hit.category, hit.method)
	}
}
