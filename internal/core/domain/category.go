package domain

// BaselineCondition is a curated eligibility fact seeded by the maintenance
// path rather than derived from text.
type BaselineCondition struct {
	ConditionID string `yaml:"condition_id"`
	Description string `yaml:"description"`
	Value       string `yaml:"value"`
}

// CategoryRule is the curated profile of one pension category: the articles
// that anchor it in the statute, the keywords that gate condition-aware
// filtering, and the baseline conditions seeded into the graph.
type CategoryRule struct {
	ID                 string              `yaml:"id"`
	DisplayName        string              `yaml:"display_name"`
	AnchorArticles     []string            `yaml:"anchor_articles"`
	ConditionKeywords  []string            `yaml:"condition_keywords"`
	BaselineConditions []BaselineCondition `yaml:"baseline_conditions"`
}

// KeywordMapping binds one dictionary phrase to a category. Dictionary order
// is significant: the first matching phrase wins, so mappings travel as a
// slice, never a map.
type KeywordMapping struct {
	Phrase     string `yaml:"phrase"`
	CategoryID string `yaml:"category_id"`
}
