package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/pension-law-assistant/internal/bootstrap"
	"github.com/kirillkom/pension-law-assistant/internal/config"
	"github.com/kirillkom/pension-law-assistant/internal/observability/logging"
	"github.com/kirillkom/pension-law-assistant/internal/observability/metrics"
)

// indexMonitor forwards indexing measurements into the worker collectors
// under a fixed service label.
type indexMonitor struct {
	metrics *metrics.WorkerMetrics
	service string
}

func (m indexMonitor) ObserveQueueLag(lag time.Duration) {
	m.metrics.ObserveQueueLag(m.service, lag)
}

func (m indexMonitor) ObserveUnits(count int) {
	m.metrics.ObserveUnits(m.service, count)
}

func (m indexMonitor) AddGraphRows(kind string, count int) {
	m.metrics.AddGraphRows(m.service, kind, count)
}

func (m indexMonitor) AddEnhancerEdges(method string, count int) {
	m.metrics.AddEnhancerEdges(m.service, method, count)
}

func (m indexMonitor) AddEnhancerSkips(count int) {
	m.metrics.AddEnhancerSkips(m.service, count)
}

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics("worker")

	app, err := bootstrap.New(ctx, cfg, indexMonitor{metrics: workerMetrics, service: "worker"})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", workerMetrics.Handler())
	metricsServer := &http.Server{
		Addr:        ":" + cfg.WorkerMetricsPort,
		Handler:     metricsMux,
		ReadTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	processTimeout := time.Duration(cfg.WorkerProcessTimeoutS) * time.Second

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject, "process_timeout", processTimeout.String())
	err = app.Queue.SubscribeDocumentIngested(ctx, func(handlerCtx context.Context, documentID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, processTimeout)
		defer cancel()

		workerMetrics.StartDocument()
		started := time.Now()
		err := app.ProcessUC.ProcessByID(processCtx, documentID)
		workerMetrics.FinishDocument("worker", time.Since(started), err)
		if err == nil {
			slog.Info("document_indexed", "document_id", documentID, "elapsed_ms", time.Since(started).Milliseconds())
		}
		return err
	})
	if err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
