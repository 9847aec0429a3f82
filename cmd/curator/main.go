package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirillkom/pension-law-assistant/internal/bootstrap"
	"github.com/kirillkom/pension-law-assistant/internal/config"
	"github.com/kirillkom/pension-law-assistant/internal/core/domain"
	"github.com/kirillkom/pension-law-assistant/internal/core/usecase"
	"github.com/kirillkom/pension-law-assistant/internal/observability/logging"
	"github.com/kirillkom/pension-law-assistant/internal/report"
)

// The curator is the offline maintenance entrypoint for the statute graph.
// Every routine is an upsert and safe to re-run; tasks execute in a fixed
// order so one invocation can combine them.
func main() {
	baseline := flag.Bool("baseline", false, "create the known-correct category and condition relations")
	dedupe := flag.Bool("dedupe", false, "merge duplicate category nodes")
	enhance := flag.Bool("enhance", false, "re-run keyword enhancement over every ready document")
	validate := flag.Bool("validate", false, "print graph health counts and anomalies")
	reindexCheck := flag.Bool("reindex-check", false, "republish ready documents when index parameters changed")
	reportPath := flag.String("report", "", "write the validation result to this xlsx file (implies -validate)")
	flag.Parse()

	if *reportPath != "" {
		*validate = true
	}
	// Bare invocation reports graph health and changes nothing.
	if !*baseline && !*dedupe && !*enhance && !*validate && !*reindexCheck {
		*validate = true
	}

	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("curator", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, nil)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if *baseline {
		stats, err := app.CuratorUC.CreateBaselineRelations(ctx)
		if err != nil {
			fail("baseline", err)
		}
		slog.Info("baseline_created",
			"category_nodes", stats.CategoryNodes,
			"condition_nodes", stats.ConditionNodes,
			"edges", stats.Edges,
		)
	}

	if *dedupe {
		merged, err := app.CuratorUC.DeduplicateCategories(ctx)
		if err != nil {
			fail("dedupe", err)
		}
		slog.Info("categories_deduplicated", "merged", merged)
	}

	if *enhance {
		stats, err := enhanceCorpus(ctx, app)
		if err != nil {
			fail("enhance", err)
		}
		slog.Info("corpus_enhanced",
			"matched_units", stats.MatchedUnits,
			"skipped_units", stats.SkippedUnits,
			"edges", stats.Edges,
		)
	}

	if *validate {
		health, err := app.StatsUC.Stats(ctx)
		if err != nil {
			fail("validate", err)
		}
		out, err := json.MarshalIndent(health, "", "  ")
		if err != nil {
			fail("validate", err)
		}
		fmt.Println(string(out))
		if *reportPath != "" {
			if err := report.WriteGraphHealth(*reportPath, health); err != nil {
				fail("report", err)
			}
			slog.Info("report_written", "path", *reportPath)
		}
	}

	if *reindexCheck {
		result, err := app.ReindexUC.Run(ctx)
		if err != nil {
			fail("reindex-check", err)
		}
		slog.Info("reindex_checked",
			"needs_reindex", result.NeedsReindex,
			"republished", result.Republished,
		)
	}
}

// enhanceCorpus replays extraction and segmentation for every ready document
// and feeds the units through keyword enhancement. Vectors are untouched, so
// this is cheap compared to a full reindex.
func enhanceCorpus(ctx context.Context, app *bootstrap.App) (usecase.EnhanceStats, error) {
	docs, err := app.Repo.ListByStatus(ctx, domain.StatusReady)
	if err != nil {
		return usecase.EnhanceStats{}, fmt.Errorf("list ready documents: %w", err)
	}

	total := usecase.EnhanceStats{EdgesByMethod: map[string]int{}}
	for i := range docs {
		doc := &docs[i]
		text, err := app.Extractor.Extract(ctx, doc)
		if err != nil {
			return total, fmt.Errorf("extract document %s: %w", doc.ID, err)
		}
		units := app.Segmenter.Segment(text, doc.Filename)
		stats, err := app.CuratorUC.EnhanceByKeyword(ctx, units)
		if err != nil {
			return total, fmt.Errorf("enhance document %s: %w", doc.ID, err)
		}

		total.MatchedUnits += stats.MatchedUnits
		total.SkippedUnits += stats.SkippedUnits
		total.Edges += stats.Edges
		for method, n := range stats.EdgesByMethod {
			total.EdgesByMethod[method] += n
		}
		slog.Info("document_enhanced", "document_id", doc.ID, "units", len(units), "edges", stats.Edges)
	}
	return total, nil
}

func fail(task string, err error) {
	slog.Error("curator_task_failed", "task", task, "error", err)
	os.Exit(1)
}
