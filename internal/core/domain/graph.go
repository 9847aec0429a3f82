package domain

// NodeLabel is the closed set of graph node labels. Only validated labels
// reach query assembly.
type NodeLabel string

const (
	LabelLaw                  NodeLabel = "Law"
	LabelArticle              NodeLabel = "Article"
	LabelPensionCategory      NodeLabel = "PensionCategory"
	LabelEligibilityCondition NodeLabel = "EligibilityCondition"
)

func (l NodeLabel) Valid() bool {
	switch l {
	case LabelLaw, LabelArticle, LabelPensionCategory, LabelEligibilityCondition:
		return true
	}
	return false
}

// KeyProperty is the unique business-key property for nodes of this label.
func (l NodeLabel) KeyProperty() string {
	switch l {
	case LabelLaw:
		return "law_id"
	case LabelArticle:
		return "article_id"
	case LabelPensionCategory:
		return "category_id"
	case LabelEligibilityCondition:
		return "condition_id"
	}
	return ""
}

// EdgeType is the closed set of graph relationship types.
type EdgeType string

const (
	EdgeContainsArticle      EdgeType = "CONTAINS_ARTICLE"
	EdgeRelatesToPensionType EdgeType = "RELATES_TO_PENSION_TYPE"
	EdgeDefinesCondition     EdgeType = "DEFINES_CONDITION"
	EdgeAppliesToPensionType EdgeType = "APPLIES_TO_PENSION_TYPE"
)

func (t EdgeType) Valid() bool {
	switch t {
	case EdgeContainsArticle, EdgeRelatesToPensionType, EdgeDefinesCondition, EdgeAppliesToPensionType:
		return true
	}
	return false
}

// Endpoints returns the required source and target labels for this edge type.
func (t EdgeType) Endpoints() (source, target NodeLabel) {
	switch t {
	case EdgeContainsArticle:
		return LabelLaw, LabelArticle
	case EdgeRelatesToPensionType:
		return LabelArticle, LabelPensionCategory
	case EdgeDefinesCondition:
		return LabelArticle, LabelEligibilityCondition
	case EdgeAppliesToPensionType:
		return LabelEligibilityCondition, LabelPensionCategory
	}
	return "", ""
}

// GraphNode is an upsert row: merge by (Label, ID), then set Properties.
type GraphNode struct {
	ID         string
	Label      NodeLabel
	Properties map[string]any
}

// GraphEdge is an upsert row: merge by (SourceID, Type, TargetID), then set
// Properties. At most one edge of a type exists per ordered endpoint pair.
type GraphEdge struct {
	SourceID   string
	TargetID   string
	Type       EdgeType
	Properties map[string]any
}

// Edge property values written by the curation paths.
const (
	MatchMethodExact  = "exact_match"
	MatchMethodPhrase = "phrase_match"
	MatchMethodStem   = "stem_match"

	EdgeSourceManual   = "manual_mapping"
	EdgeSourceEnhancer = "keyword_enhancer"
)

type Law struct {
	LawID        string
	Title        string
	Number       string
	AdoptionDate string
}

func (l Law) Node() GraphNode {
	props := map[string]any{"title": l.Title}
	if l.Number != "" {
		props["number"] = l.Number
	}
	if l.AdoptionDate != "" {
		props["adoption_date"] = l.AdoptionDate
	}
	return GraphNode{ID: l.LawID, Label: LabelLaw, Properties: props}
}

type Article struct {
	ArticleID  string
	NumberText string
	Title      string
}

func (a Article) Node() GraphNode {
	props := map[string]any{"number_text": a.NumberText}
	if a.Title != "" {
		props["title"] = a.Title
	}
	return GraphNode{ID: a.ArticleID, Label: LabelArticle, Properties: props}
}

type PensionCategory struct {
	CategoryID  string
	DisplayName string
}

func (c PensionCategory) Node() GraphNode {
	return GraphNode{
		ID:         c.CategoryID,
		Label:      LabelPensionCategory,
		Properties: map[string]any{"display_name": c.DisplayName},
	}
}

type EligibilityCondition struct {
	ConditionID string
	Description string
	Value       string
}

func (c EligibilityCondition) Node() GraphNode {
	return GraphNode{
		ID:    c.ConditionID,
		Label: LabelEligibilityCondition,
		Properties: map[string]any{
			"description": c.Description,
			"value":       c.Value,
		},
	}
}

// ConditionFact is one eligibility condition attached to an article, together
// with the category it applies to.
type ConditionFact struct {
	Description string `json:"description"`
	Value       string `json:"value"`
	Category    string `json:"category,omitempty"`
}

// ArticleEnrichment is the graph context attached to retrieved units.
type ArticleEnrichment struct {
	ArticleID    string          `json:"article_id"`
	ArticleTitle string          `json:"article_title,omitempty"`
	Categories   []string        `json:"categories,omitempty"`
	Conditions   []ConditionFact `json:"conditions,omitempty"`
}

// CategoryDuplicate groups category nodes sharing one display name.
type CategoryDuplicate struct {
	DisplayName string   `json:"display_name"`
	CategoryIDs []string `json:"category_ids"`
}

// GraphHealth is the structural report produced by graph validation.
type GraphHealth struct {
	NodeCounts          map[NodeLabel]int64 `json:"node_counts"`
	EdgeCounts          map[EdgeType]int64  `json:"edge_counts"`
	IsolatedArticles    []string            `json:"isolated_articles,omitempty"`
	DuplicateCategories []CategoryDuplicate `json:"duplicate_categories,omitempty"`
}
