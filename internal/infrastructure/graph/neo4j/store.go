package neo4j

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	driver "github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
)

const (
	enrichmentMetaQuery = `MATCH (a:Article {article_id: $article_id})
OPTIONAL MATCH (a)-[:RELATES_TO_PENSION_TYPE]->(pc:PensionCategory)
RETURN a.title AS title, collect(DISTINCT pc.display_name) AS categories`

	enrichmentConditionsQuery = `MATCH (a:Article {article_id: $article_id})-[:DEFINES_CONDITION]->(c:EligibilityCondition)
OPTIONAL MATCH (c)-[:APPLIES_TO_PENSION_TYPE]->(pc:PensionCategory)
RETURN c.description AS description, c.value AS value, collect(pc.display_name) AS categories
ORDER BY description`

	duplicateCategoriesQuery = `MATCH (pc:PensionCategory)
WITH pc.display_name AS name, collect(pc.category_id) AS ids
WHERE size(ids) > 1
RETURN name, ids
ORDER BY name`

	isolatedArticlesQuery = `MATCH (a:Article)
WHERE NOT (a)--()
RETURN a.article_id AS id
ORDER BY id`

	deleteCategoryQuery = `MATCH (pc:PensionCategory {category_id: $id}) DETACH DELETE pc`
)

// Store keeps the statute structure in Neo4j. Writes merge by business key,
// so every operation is an idempotent upsert. The managed-transaction API
// retries transient cluster errors itself, which is why the store is not
// wrapped in the HTTP clients' resilience executor.
type Store struct {
	driver driver.DriverWithContext
}

func New(ctx context.Context, uri, user, password string) (*Store, error) {
	d, err := driver.NewDriverWithContext(uri, driver.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := d.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return &Store{driver: d}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// EnsureSchema creates the unique-key constraint per label. Schema commands
// need auto-commit transactions, so this goes through session.Run.
func (s *Store) EnsureSchema(ctx context.Context) error {
	session := s.driver.NewSession(ctx, driver.SessionConfig{})
	defer session.Close(ctx)

	for _, label := range allLabels {
		result, err := session.Run(ctx, constraintQuery(label), nil)
		if err != nil {
			return fmt.Errorf("create constraint for %s: %w", label, err)
		}
		if _, err := result.Consume(ctx); err != nil {
			return fmt.Errorf("create constraint for %s: %w", label, err)
		}
	}
	return nil
}

func (s *Store) UpsertNodes(ctx context.Context, nodes []domain.GraphNode) error {
	if len(nodes) == 0 {
		return nil
	}
	if err := validateNodes(nodes); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "upsert nodes", err)
	}

	grouped := groupNodeRows(nodes)
	session := s.driver.NewSession(ctx, driver.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx driver.ManagedTransaction) (any, error) {
		for _, label := range allLabels {
			rows := grouped[label]
			if len(rows) == 0 {
				continue
			}
			res, err := tx.Run(ctx, nodeUpsertQuery(label), map[string]any{"rows": rows})
			if err != nil {
				return nil, fmt.Errorf("upsert %s nodes: %w", label, err)
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, fmt.Errorf("upsert %s nodes: %w", label, err)
			}
		}
		return nil, nil
	})
	return err
}

// UpsertEdges matches both endpoints by business key; rows whose endpoints
// are missing write nothing and are only logged.
func (s *Store) UpsertEdges(ctx context.Context, edges []domain.GraphEdge) error {
	if len(edges) == 0 {
		return nil
	}
	if err := validateEdges(edges); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "upsert edges", err)
	}

	grouped := groupEdgeRows(edges)
	session := s.driver.NewSession(ctx, driver.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx driver.ManagedTransaction) (any, error) {
		for _, edgeType := range allEdgeTypes {
			rows := grouped[edgeType]
			if len(rows) == 0 {
				continue
			}
			res, err := tx.Run(ctx, edgeUpsertQuery(edgeType), map[string]any{"rows": rows})
			if err != nil {
				return nil, fmt.Errorf("upsert %s edges: %w", edgeType, err)
			}
			record, err := res.Single(ctx)
			if err != nil {
				return nil, fmt.Errorf("upsert %s edges: %w", edgeType, err)
			}
			written, _ := record.Get("written")
			if count := asInt64(written); count < int64(len(rows)) {
				slog.Warn("graph_edge_rows_skipped",
					"type", string(edgeType),
					"expected", len(rows),
					"written", count,
				)
			}
		}
		return nil, nil
	})
	return err
}

func (s *Store) ArticleEnrichment(ctx context.Context, articleID string) (*domain.ArticleEnrichment, error) {
	session := s.driver.NewSession(ctx, driver.SessionConfig{})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx driver.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, enrichmentMetaQuery, map[string]any{"article_id": articleID})
		if err != nil {
			return nil, fmt.Errorf("read article: %w", err)
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, fmt.Errorf("collect article: %w", err)
		}
		if len(records) == 0 {
			return nil, domain.WrapError(domain.ErrArticleNotFound, "article enrichment", fmt.Errorf("id=%s", articleID))
		}

		title, _ := records[0].Get("title")
		categories, _ := records[0].Get("categories")
		enrichment := &domain.ArticleEnrichment{
			ArticleID:    articleID,
			ArticleTitle: asString(title),
			Categories:   asStringSlice(categories),
		}

		res, err = tx.Run(ctx, enrichmentConditionsQuery, map[string]any{"article_id": articleID})
		if err != nil {
			return nil, fmt.Errorf("read conditions: %w", err)
		}
		condRecords, err := res.Collect(ctx)
		if err != nil {
			return nil, fmt.Errorf("collect conditions: %w", err)
		}
		for _, record := range condRecords {
			description, _ := record.Get("description")
			value, _ := record.Get("value")
			fact := domain.ConditionFact{
				Description: asString(description),
				Value:       asString(value),
			}
			if fact.Description == "" || fact.Value == "" {
				continue
			}
			condCategories, _ := record.Get("categories")
			if names := asStringSlice(condCategories); len(names) > 0 {
				fact.Category = names[0]
			}
			enrichment.Conditions = append(enrichment.Conditions, fact)
		}
		return enrichment, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*domain.ArticleEnrichment), nil
}

func (s *Store) ExistingArticleIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	return s.existingIDs(ctx, domain.LabelArticle, ids)
}

func (s *Store) ExistingCategoryIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	return s.existingIDs(ctx, domain.LabelPensionCategory, ids)
}

func (s *Store) existingIDs(ctx context.Context, label domain.NodeLabel, ids []string) (map[string]bool, error) {
	if len(ids) == 0 {
		return map[string]bool{}, nil
	}

	session := s.driver.NewSession(ctx, driver.SessionConfig{})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx driver.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, existingIDsQuery(label), map[string]any{"ids": ids})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		existing := make(map[string]bool, len(records))
		for _, record := range records {
			id, _ := record.Get("id")
			if s := asString(id); s != "" {
				existing[s] = true
			}
		}
		return existing, nil
	})
	if err != nil {
		return nil, fmt.Errorf("existing %s ids: %w", label, err)
	}
	return out.(map[string]bool), nil
}

func (s *Store) CategoryDuplicates(ctx context.Context) ([]domain.CategoryDuplicate, error) {
	session := s.driver.NewSession(ctx, driver.SessionConfig{})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx driver.ManagedTransaction) (any, error) {
		return collectDuplicates(ctx, tx)
	})
	if err != nil {
		return nil, fmt.Errorf("category duplicates: %w", err)
	}
	return out.([]domain.CategoryDuplicate), nil
}

// RepointCategoryEdges moves both category-incident edge types from one
// category node to another, copying edge properties verbatim.
func (s *Store) RepointCategoryEdges(ctx context.Context, fromID, toID string) error {
	session := s.driver.NewSession(ctx, driver.SessionConfig{})
	defer session.Close(ctx)

	params := map[string]any{"from": fromID, "to": toID}
	_, err := session.ExecuteWrite(ctx, func(tx driver.ManagedTransaction) (any, error) {
		for _, edgeType := range []domain.EdgeType{domain.EdgeRelatesToPensionType, domain.EdgeAppliesToPensionType} {
			res, err := tx.Run(ctx, repointEdgeQuery(edgeType), params)
			if err != nil {
				return nil, fmt.Errorf("repoint %s: %w", edgeType, err)
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, fmt.Errorf("repoint %s: %w", edgeType, err)
			}
		}
		return nil, nil
	})
	return err
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	session := s.driver.NewSession(ctx, driver.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx driver.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, deleteCategoryQuery, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	return nil
}

func (s *Store) ValidateStructure(ctx context.Context) (*domain.GraphHealth, error) {
	session := s.driver.NewSession(ctx, driver.SessionConfig{})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx driver.ManagedTransaction) (any, error) {
		health := &domain.GraphHealth{
			NodeCounts: make(map[domain.NodeLabel]int64, len(allLabels)),
			EdgeCounts: make(map[domain.EdgeType]int64, len(allEdgeTypes)),
		}

		for _, label := range allLabels {
			count, err := singleCount(ctx, tx, countNodesQuery(label))
			if err != nil {
				return nil, fmt.Errorf("count %s nodes: %w", label, err)
			}
			health.NodeCounts[label] = count
		}
		for _, edgeType := range allEdgeTypes {
			count, err := singleCount(ctx, tx, countEdgesQuery(edgeType))
			if err != nil {
				return nil, fmt.Errorf("count %s edges: %w", edgeType, err)
			}
			health.EdgeCounts[edgeType] = count
		}

		res, err := tx.Run(ctx, isolatedArticlesQuery, nil)
		if err != nil {
			return nil, fmt.Errorf("isolated articles: %w", err)
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, fmt.Errorf("isolated articles: %w", err)
		}
		for _, record := range records {
			id, _ := record.Get("id")
			if s := asString(id); s != "" {
				health.IsolatedArticles = append(health.IsolatedArticles, s)
			}
		}

		duplicates, err := collectDuplicates(ctx, tx)
		if err != nil {
			return nil, err
		}
		health.DuplicateCategories = duplicates
		return health, nil
	})
	if err != nil {
		return nil, fmt.Errorf("validate structure: %w", err)
	}
	return out.(*domain.GraphHealth), nil
}

func collectDuplicates(ctx context.Context, tx driver.ManagedTransaction) ([]domain.CategoryDuplicate, error) {
	res, err := tx.Run(ctx, duplicateCategoriesQuery, nil)
	if err != nil {
		return nil, err
	}
	records, err := res.Collect(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.CategoryDuplicate, 0, len(records))
	for _, record := range records {
		name, _ := record.Get("name")
		ids, _ := record.Get("ids")
		dup := domain.CategoryDuplicate{
			DisplayName: asString(name),
			CategoryIDs: asStringSlice(ids),
		}
		sort.Strings(dup.CategoryIDs)
		out = append(out, dup)
	}
	return out, nil
}

func singleCount(ctx context.Context, tx driver.ManagedTransaction, query string) (int64, error) {
	res, err := tx.Run(ctx, query, nil)
	if err != nil {
		return 0, err
	}
	record, err := res.Single(ctx)
	if err != nil {
		return 0, err
	}
	count, _ := record.Get("c")
	return asInt64(count), nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt64(v any) int64 {
	n, _ := v.(int64)
	return n
}

func asStringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
