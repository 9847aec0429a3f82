package neo4j

import (
	"fmt"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
)

// Labels and relationship types are interpolated into query text, so every
// query builder in this file runs only after validateNodes/validateEdges has
// checked each row against the closed enums. Values always travel as
// parameters.

var allLabels = []domain.NodeLabel{
	domain.LabelLaw,
	domain.LabelArticle,
	domain.LabelPensionCategory,
	domain.LabelEligibilityCondition,
}

var allEdgeTypes = []domain.EdgeType{
	domain.EdgeContainsArticle,
	domain.EdgeRelatesToPensionType,
	domain.EdgeDefinesCondition,
	domain.EdgeAppliesToPensionType,
}

func validateNodes(nodes []domain.GraphNode) error {
	for i, n := range nodes {
		if !n.Label.Valid() {
			return fmt.Errorf("node %d: unknown label %q", i, n.Label)
		}
		if n.ID == "" {
			return fmt.Errorf("node %d: empty id for label %s", i, n.Label)
		}
	}
	return nil
}

func validateEdges(edges []domain.GraphEdge) error {
	for i, e := range edges {
		if !e.Type.Valid() {
			return fmt.Errorf("edge %d: unknown type %q", i, e.Type)
		}
		if e.SourceID == "" || e.TargetID == "" {
			return fmt.Errorf("edge %d: empty endpoint for type %s", i, e.Type)
		}
	}
	return nil
}

func nodeUpsertQuery(label domain.NodeLabel) string {
	return fmt.Sprintf(
		"UNWIND $rows AS row MERGE (n:%s {%s: row.id}) SET n += row.props",
		label, label.KeyProperty(),
	)
}

func edgeUpsertQuery(t domain.EdgeType) string {
	source, target := t.Endpoints()
	return fmt.Sprintf(
		"UNWIND $rows AS row "+
			"MATCH (a:%s {%s: row.source}) "+
			"MATCH (b:%s {%s: row.target}) "+
			"MERGE (a)-[r:%s]->(b) "+
			"SET r += row.props "+
			"RETURN count(r) AS written",
		source, source.KeyProperty(), target, target.KeyProperty(), t,
	)
}

func constraintQuery(label domain.NodeLabel) string {
	return fmt.Sprintf(
		"CREATE CONSTRAINT %s_%s_unique IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE",
		lowerLabel(label), label.KeyProperty(), label, label.KeyProperty(),
	)
}

func countNodesQuery(label domain.NodeLabel) string {
	return fmt.Sprintf("MATCH (n:%s) RETURN count(n) AS c", label)
}

func countEdgesQuery(t domain.EdgeType) string {
	return fmt.Sprintf("MATCH ()-[r:%s]->() RETURN count(r) AS c", t)
}

func existingIDsQuery(label domain.NodeLabel) string {
	key := label.KeyProperty()
	return fmt.Sprintf("MATCH (n:%s) WHERE n.%s IN $ids RETURN n.%s AS id", label, key, key)
}

func repointEdgeQuery(t domain.EdgeType) string {
	source, _ := t.Endpoints()
	return fmt.Sprintf(
		"MATCH (a:%s)-[r:%s]->(old:PensionCategory {category_id: $from}) "+
			"MATCH (kept:PensionCategory {category_id: $to}) "+
			"MERGE (a)-[moved:%s]->(kept) "+
			"SET moved += properties(r) "+
			"DELETE r",
		source, t, t,
	)
}

func lowerLabel(label domain.NodeLabel) string {
	switch label {
	case domain.LabelLaw:
		return "law"
	case domain.LabelArticle:
		return "article"
	case domain.LabelPensionCategory:
		return "pension_category"
	case domain.LabelEligibilityCondition:
		return "eligibility_condition"
	}
	return "node"
}

func groupNodeRows(nodes []domain.GraphNode) map[domain.NodeLabel][]map[string]any {
	grouped := make(map[domain.NodeLabel][]map[string]any)
	for _, n := range nodes {
		props := n.Properties
		if props == nil {
			props = map[string]any{}
		}
		grouped[n.Label] = append(grouped[n.Label], map[string]any{
			"id":    n.ID,
			"props": props,
		})
	}
	return grouped
}

func groupEdgeRows(edges []domain.GraphEdge) map[domain.EdgeType][]map[string]any {
	grouped := make(map[domain.EdgeType][]map[string]any)
	for _, e := range edges {
		props := e.Properties
		if props == nil {
			props = map[string]any{}
		}
		grouped[e.Type] = append(grouped[e.Type], map[string]any{
			"source": e.SourceID,
			"target": e.TargetID,
			"props":  props,
		})
	}
	return grouped
}
