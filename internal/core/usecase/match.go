package usecase

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
)

// Words shorter than this never take part in stem matching; Russian case
// endings eat two runes, so anything shorter loses its root.
const stemMinRunes = 5

// keywordEntry is one precompiled dictionary row. boundary matches the phrase
// between non-letter, non-digit boundaries; stem is non-empty only for single
// words long enough to survive suffix stripping.
type keywordEntry struct {
	phrase   string
	category string
	boundary *regexp.Regexp
	multi    bool
	stem     string
}

// keywordHit names the dictionary phrase that claimed a unit, the category it
// maps to, and the strategy that produced the match.
type keywordHit struct {
	category string
	phrase   string
	method   string
}

// keywordMatcher classifies unit text against the ordered keyword dictionary.
// Matching is strategy-major: exact boundary matches over the whole dictionary
// first, then multi-word phrase containment, then stem prefixes. Within a
// strategy, dictionary order decides ties, and the first hit wins outright.
type keywordMatcher struct {
	entries []keywordEntry
}

func newKeywordMatcher(dict []domain.KeywordMapping) *keywordMatcher {
	entries := make([]keywordEntry, 0, len(dict))
	for _, kw := range dict {
		phrase := strings.ToLower(strings.TrimSpace(kw.Phrase))
		if phrase == "" {
			continue
		}
		e := keywordEntry{
			phrase:   phrase,
			category: kw.CategoryID,
			boundary: regexp.MustCompile(`(^|[^\p{L}\p{N}])` + regexp.QuoteMeta(phrase) + `($|[^\p{L}\p{N}])`),
			multi:    strings.ContainsRune(phrase, ' '),
		}
		if !e.multi && len([]rune(phrase)) >= stemMinRunes {
			e.stem = trimSuffixRunes(phrase, 2)
		}
		entries = append(entries, e)
	}
	return &keywordMatcher{entries: entries}
}

// Match returns the first matching dictionary hit for the content. Content is
// lowercased here, so callers pass raw unit text.
func (m *keywordMatcher) Match(content string) (keywordHit, bool) {
	text := strings.ToLower(content)

	for _, e := range m.entries {
		if e.boundary.MatchString(text) {
			return keywordHit{category: e.category, phrase: e.phrase, method: domain.MatchMethodExact}, true
		}
	}
	for _, e := range m.entries {
		if e.multi && strings.Contains(text, e.phrase) {
			return keywordHit{category: e.category, phrase: e.phrase, method: domain.MatchMethodPhrase}, true
		}
	}

	words := stemCandidates(text)
	for _, e := range m.entries {
		if e.stem == "" {
			continue
		}
		for _, w := range words {
			if strings.HasPrefix(w, e.stem) {
				return keywordHit{category: e.category, phrase: e.phrase, method: domain.MatchMethodStem}, true
			}
		}
	}
	return keywordHit{}, false
}

func trimSuffixRunes(s string, n int) string {
	runes := []rune(s)
	return string(runes[:len(runes)-n])
}

// stemCandidates splits the text into words and keeps those long enough for
// stem comparison.
func stemCandidates(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, w := range fields {
		if len([]rune(w)) >= stemMinRunes {
			out = append(out, w)
		}
	}
	return out
}
