package segment

import (
	"regexp"
	"sort"
	"strings"
)

type headerKind int

const (
	kindSection headerKind = iota
	kindChapter
	kindArticle
	kindPoint
)

// Header patterns for Russian statute text. Article numbers may carry dotted
// suffixes (Статья 30.1); chapter and section numbers may be arabic or roman.
// Points are numbered paragraphs at line start ("1. ..." or "1) ...").
var (
	articleRe = regexp.MustCompile(`(?m)^[ \t]*Статья[ \t]+(\d+(?:\.\d+)*)\.?[ \t]*(.*)$`)
	chapterRe = regexp.MustCompile(`(?m)^[ \t]*Глава[ \t]+([IVXLCDM]+|\d+(?:\.\d+)*)\.?[ \t]*(.*)$`)
	sectionRe = regexp.MustCompile(`(?m)^[ \t]*Раздел[ \t]+([IVXLCDM]+|\d+(?:\.\d+)*)\.?[ \t]*(.*)$`)
	pointRe   = regexp.MustCompile(`(?m)^[ \t]*(\d+(?:\.\d+)*)[.)][ \t]+`)

	articleLineRe = regexp.MustCompile(`^\s*Статья\s+(\d+(?:\.\d+)*)\.?\s*(.*)$`)
)

type headerMatch struct {
	kind   headerKind
	start  int
	number string
	title  string
}

// findHeaders locates all structural headers in document order. Matches from
// the four patterns never overlap, so a plain sort by offset is enough.
func findHeaders(text string) []headerMatch {
	var out []headerMatch

	collect := func(re *regexp.Regexp, kind headerKind, withTitle bool) {
		for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
			m := headerMatch{
				kind:   kind,
				start:  idx[0],
				number: text[idx[2]:idx[3]],
			}
			if withTitle && idx[4] >= 0 {
				m.title = strings.TrimSpace(text[idx[4]:idx[5]])
			}
			out = append(out, m)
		}
	}

	collect(sectionRe, kindSection, true)
	collect(chapterRe, kindChapter, true)
	collect(articleRe, kindArticle, true)
	collect(pointRe, kindPoint, false)

	sort.Slice(out, func(i, j int) bool { return out[i].start < out[j].start })
	return out
}

// ParseArticleHeading parses an article heading line into its number text and
// optional title, e.g. "Статья 8. Условия назначения страховой пенсии".
func ParseArticleHeading(line string) (number, title string, ok bool) {
	groups := articleLineRe.FindStringSubmatch(strings.TrimSpace(line))
	if groups == nil {
		return "", "", false
	}
	return groups[1], strings.TrimSpace(groups[2]), true
}

// canonicalArticleID builds the stable graph key for an article. Dots in the
// number become dashes so the id stays safe in URLs and payload filters.
// A number that is empty or carries anything but digits and dots yields "".
func canonicalArticleID(fileBase, number string) string {
	if fileBase == "" || !validArticleNumber(number) {
		return ""
	}
	return fileBase + "_Ст_" + strings.ReplaceAll(number, ".", "-")
}

func validArticleNumber(number string) bool {
	if number == "" {
		return false
	}
	if strings.HasPrefix(number, ".") || strings.HasSuffix(number, ".") {
		return false
	}
	for _, r := range number {
		if r != '.' && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// fileBase strips the directory and extension from a document file name.
func fileBase(fileName string) string {
	base := fileName
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base
}
