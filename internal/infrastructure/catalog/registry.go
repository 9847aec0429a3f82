package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
)

// Registry is the curated category knowledge: per-category rules plus the
// ordered keyword dictionary. Loaded once at startup, read-only afterwards.
type Registry struct {
	order    []string
	rules    map[string]domain.CategoryRule
	keywords []domain.KeywordMapping
}

type rulesFile struct {
	Categories []domain.CategoryRule `yaml:"categories"`
}

type dictFile struct {
	Keywords []domain.KeywordMapping `yaml:"keywords"`
}

// Load builds the registry from YAML files. Empty paths select the built-in
// defaults, so a bare deployment works without any config files.
func Load(rulesPath, dictPath string) (*Registry, error) {
	rules := defaultRules()
	if rulesPath != "" {
		data, err := os.ReadFile(rulesPath)
		if err != nil {
			return nil, fmt.Errorf("read category rules: %w", err)
		}
		var parsed rulesFile
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("parse category rules: %w", err)
		}
		if len(parsed.Categories) == 0 {
			return nil, fmt.Errorf("parse category rules: no categories in %s", rulesPath)
		}
		rules = parsed.Categories
	}

	keywords := defaultKeywords()
	if dictPath != "" {
		data, err := os.ReadFile(dictPath)
		if err != nil {
			return nil, fmt.Errorf("read keyword dictionary: %w", err)
		}
		var parsed dictFile
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("parse keyword dictionary: %w", err)
		}
		if len(parsed.Keywords) == 0 {
			return nil, fmt.Errorf("parse keyword dictionary: no keywords in %s", dictPath)
		}
		keywords = parsed.Keywords
	}

	reg := &Registry{
		rules:    make(map[string]domain.CategoryRule, len(rules)),
		keywords: keywords,
	}
	for _, rule := range rules {
		if rule.ID == "" {
			return nil, fmt.Errorf("category rule without id (display name %q)", rule.DisplayName)
		}
		if _, dup := reg.rules[rule.ID]; dup {
			return nil, fmt.Errorf("duplicate category rule id %q", rule.ID)
		}
		reg.order = append(reg.order, rule.ID)
		reg.rules[rule.ID] = rule
	}
	for _, kw := range keywords {
		if _, known := reg.rules[kw.CategoryID]; !known {
			return nil, fmt.Errorf("keyword %q maps to unknown category %q", kw.Phrase, kw.CategoryID)
		}
	}
	return reg, nil
}

func (r *Registry) Rule(id string) (domain.CategoryRule, bool) {
	rule, ok := r.rules[id]
	return rule, ok
}

func (r *Registry) Rules() []domain.CategoryRule {
	out := make([]domain.CategoryRule, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.rules[id])
	}
	return out
}

func (r *Registry) Keywords() []domain.KeywordMapping {
	return r.keywords
}
