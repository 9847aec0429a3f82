package domain

// UnitLineage records where a text unit sits inside the statute hierarchy.
// Fields are empty until the corresponding header has been seen during
// segmentation. CanonicalArticleID is the stable join key into the graph and
// is non-empty only while the unit is inside a recognized article.
type UnitLineage struct {
	FileName           string `json:"file_name"`
	LawTitle           string `json:"law_title,omitempty"`
	Chapter            string `json:"chapter,omitempty"`
	Section            string `json:"section,omitempty"`
	Article            string `json:"article,omitempty"`
	ArticleTitle       string `json:"article_title,omitempty"`
	Point              string `json:"point,omitempty"`
	CanonicalArticleID string `json:"canonical_article_id,omitempty"`
	ParentHeader       string `json:"parent_header,omitempty"`
}

// TextUnit is one retrievable span of statute text. Units are immutable:
// re-segmenting a document replaces its units wholesale.
type TextUnit struct {
	ID      string      `json:"id"`
	Content string      `json:"content"`
	Lineage UnitLineage `json:"lineage"`
}

// Citation renders the lineage as a human-readable source label, most
// specific part last.
func (u TextUnit) Citation() string {
	label := u.Lineage.LawTitle
	if label == "" {
		label = u.Lineage.FileName
	}
	if u.Lineage.Section != "" {
		label += ", " + u.Lineage.Section
	}
	if u.Lineage.Chapter != "" {
		label += ", " + u.Lineage.Chapter
	}
	if u.Lineage.Article != "" {
		label += ", " + u.Lineage.Article
	}
	if u.Lineage.Point != "" {
		label += ", п. " + u.Lineage.Point
	}
	return label
}
