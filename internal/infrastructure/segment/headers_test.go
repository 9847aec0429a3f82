package segment

import "testing"

func TestParseArticleHeading(t *testing.T) {
	number, title, ok := ParseArticleHeading("Статья 8. Условия назначения страховой пенсии по старости")
	if !ok {
		t.Fatalf("expected heading to parse")
	}
	if number != "8" {
		t.Fatalf("expected number 8, got %q", number)
	}
	if title != "Условия назначения страховой пенсии по старости" {
		t.Fatalf("unexpected title %q", title)
	}

	number, title, ok = ParseArticleHeading("  Статья 30.1")
	if !ok || number != "30.1" || title != "" {
		t.Fatalf("expected bare dotted heading to parse, got %q %q %v", number, title, ok)
	}

	if _, _, ok := ParseArticleHeading("Обычный текст без заголовка"); ok {
		t.Fatalf("plain text must not parse as a heading")
	}
}

func TestCanonicalArticleID(t *testing.T) {
	if got := canonicalArticleID("400-ФЗ", "30.1"); got != "400-ФЗ_Ст_30-1" {
		t.Fatalf("expected dots replaced by dashes, got %q", got)
	}
	if got := canonicalArticleID("400-ФЗ", "8"); got != "400-ФЗ_Ст_8" {
		t.Fatalf("expected plain number id, got %q", got)
	}
	for _, bad := range []string{"", ".", "8.", ".8", "8a", "восемь"} {
		if got := canonicalArticleID("400-ФЗ", bad); got != "" {
			t.Fatalf("number %q must yield empty id, got %q", bad, got)
		}
	}
	if got := canonicalArticleID("", "8"); got != "" {
		t.Fatalf("empty file base must yield empty id, got %q", got)
	}
}

func TestFindHeadersOrdersByOffset(t *testing.T) {
	text := "Раздел I\nГлава 1\nСтатья 2. Заголовок\n1. Пункт первый.\n"
	matches := findHeaders(text)
	if len(matches) != 4 {
		t.Fatalf("expected 4 headers, got %d", len(matches))
	}
	want := []headerKind{kindSection, kindChapter, kindArticle, kindPoint}
	for i, m := range matches {
		if m.kind != want[i] {
			t.Fatalf("header %d: expected kind %d, got %d", i, want[i], m.kind)
		}
		if i > 0 && matches[i-1].start >= m.start {
			t.Fatalf("headers out of order at %d", i)
		}
	}
}

func TestFileBase(t *testing.T) {
	cases := map[string]string{
		"400-ФЗ.pdf":       "400-ФЗ",
		"laws/166-ФЗ.docx": "166-ФЗ",
		"424-ФЗ":           "424-ФЗ",
	}
	for in, want := range cases {
		if got := fileBase(in); got != want {
			t.Fatalf("fileBase(%q) = %q, want %q", in, got, want)
		}
	}
}
