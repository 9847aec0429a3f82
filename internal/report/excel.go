package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
)

const (
	sheetSummary    = "Summary"
	sheetIsolated   = "Isolated Articles"
	sheetDuplicates = "Duplicate Categories"
)

// WriteGraphHealth renders a graph validation report as an xlsx workbook:
// a summary of node and edge counts plus one sheet per anomaly class.
func WriteGraphHealth(path string, health *domain.GraphHealth) error {
	if health == nil {
		return fmt.Errorf("write graph report: nil health report")
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetSummary)
	if err := writeSummary(f, health); err != nil {
		return fmt.Errorf("write summary sheet: %w", err)
	}
	if err := writeIsolated(f, health.IsolatedArticles); err != nil {
		return fmt.Errorf("write isolated articles sheet: %w", err)
	}
	if err := writeDuplicates(f, health.DuplicateCategories); err != nil {
		return fmt.Errorf("write duplicate categories sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save graph report: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, health *domain.GraphHealth) error {
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	row := 1
	setRow := func(a, b any) {
		_ = f.SetCellValue(sheetSummary, fmt.Sprintf("A%d", row), a)
		_ = f.SetCellValue(sheetSummary, fmt.Sprintf("B%d", row), b)
		row++
	}
	setHeader := func(a, b string) {
		cell := fmt.Sprintf("A%d", row)
		setRow(a, b)
		_ = f.SetCellStyle(sheetSummary, cell, fmt.Sprintf("B%d", row-1), headerStyle)
	}

	setHeader("Node label", "Count")
	for _, label := range sortedNodeLabels(health.NodeCounts) {
		setRow(string(label), health.NodeCounts[label])
	}

	row++
	setHeader("Edge type", "Count")
	for _, edgeType := range sortedEdgeTypes(health.EdgeCounts) {
		setRow(string(edgeType), health.EdgeCounts[edgeType])
	}

	row++
	setHeader("Anomaly", "Count")
	setRow("Isolated articles", len(health.IsolatedArticles))
	setRow("Duplicate category groups", len(health.DuplicateCategories))

	return f.SetColWidth(sheetSummary, "A", "A", 32)
}

func writeIsolated(f *excelize.File, articleIDs []string) error {
	if _, err := f.NewSheet(sheetIsolated); err != nil {
		return err
	}
	_ = f.SetCellValue(sheetIsolated, "A1", "Article ID")
	for i, id := range articleIDs {
		_ = f.SetCellValue(sheetIsolated, fmt.Sprintf("A%d", i+2), id)
	}
	return f.SetColWidth(sheetIsolated, "A", "A", 28)
}

func writeDuplicates(f *excelize.File, groups []domain.CategoryDuplicate) error {
	if _, err := f.NewSheet(sheetDuplicates); err != nil {
		return err
	}
	_ = f.SetCellValue(sheetDuplicates, "A1", "Display name")
	_ = f.SetCellValue(sheetDuplicates, "B1", "Category IDs")
	for i, group := range groups {
		_ = f.SetCellValue(sheetDuplicates, fmt.Sprintf("A%d", i+2), group.DisplayName)
		_ = f.SetCellValue(sheetDuplicates, fmt.Sprintf("B%d", i+2), strings.Join(group.CategoryIDs, ", "))
	}
	if err := f.SetColWidth(sheetDuplicates, "A", "A", 40); err != nil {
		return err
	}
	return f.SetColWidth(sheetDuplicates, "B", "B", 60)
}

func sortedNodeLabels(counts map[domain.NodeLabel]int64) []domain.NodeLabel {
	labels := make([]domain.NodeLabel, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}

func sortedEdgeTypes(counts map[domain.EdgeType]int64) []domain.EdgeType {
	types := make([]domain.EdgeType, 0, len(counts))
	for edgeType := range counts {
		types = append(types, edgeType)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
