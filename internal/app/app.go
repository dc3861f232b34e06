package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/infrastructure/fetch"
	"NewsDigest/internal/infrastructure/httpapi"
	"NewsDigest/internal/infrastructure/llm"
	"NewsDigest/internal/infrastructure/scheduler"
	"NewsDigest/internal/infrastructure/storage"
	"NewsDigest/internal/logging"
	"NewsDigest/internal/ports"
	"NewsDigest/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	store      *storage.SQLStore
	collector  *usecase.Collector
	reconciler *usecase.Reconciler
	worker     *usecase.Worker
	scheduler  ports.Scheduler
	server     *httpapi.Server
}

// New builds a fully wired application instance. The store it opens is
// closed by Run on shutdown.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := storage.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	inference := llm.NewClient(cfg.Inference)
	annotator := usecase.NewAnnotator(inference, cfg.Inference.ChunkSize,
		baseLogger.With("component", "annotator"))

	collector := usecase.NewCollector(usecase.CollectorDeps{
		Sources:   store,
		Articles:  store,
		Annotator: annotator,
		Feed:      fetch.NewFeedFetcher(baseLogger.With("component", "fetch.feed")),
		Video:     fetch.NewVideoFetcher(baseLogger.With("component", "fetch.video")),
		Mailbox:   fetch.NewMailboxFetcher(baseLogger.With("component", "fetch.mailbox")),
		Logger:    baseLogger.With("component", "collector"),
	}, usecase.CollectorOptions{
		Mode:            domain.CollectMode(cfg.Collector.Mode),
		FetchTimeout:    cfg.Collector.FetchTimeout,
		AnnotateTimeout: cfg.Collector.AnnotateTimeout,
		MaxParallel:     cfg.Collector.MaxParallel,
	})

	reconciler := usecase.NewReconciler(store, annotator, cfg.Collector.ReconcileBatch,
		baseLogger.With("component", "reconciler"))

	summaries := usecase.NewSummaryService(store, store, store, inference,
		cfg.Inference.SummarizeTimeout, baseLogger.With("component", "summary"))
	jobs := usecase.NewJobService(store, store, baseLogger.With("component", "jobs"))
	sources := usecase.NewSourceService(store, baseLogger.With("component", "sources"))

	worker := usecase.NewWorker(store, store, summaries, cfg.Worker.PollInterval,
		baseLogger.With("component", "worker"))

	cronScheduler := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression,
		baseLogger.With("component", "scheduler"))

	server := httpapi.NewServer(cfg.HTTP.Addr, collector, summaries, jobs, sources,
		baseLogger.With("component", "http"))

	return &Application{
		cfg:        cfg,
		logger:     baseLogger,
		store:      store,
		collector:  collector,
		reconciler: reconciler,
		worker:     worker,
		scheduler:  cronScheduler,
		server:     server,
	}, nil
}

// Run starts the scheduler, reconciler, worker, and API server, then blocks
// until ctx is cancelled and everything has shut down.
func (a *Application) Run(ctx context.Context) error {
	defer a.store.Close()

	err := a.scheduler.Start(ctx, func(t time.Time) {
		a.logger.Info("scheduled collection started", "at", t)
		results := a.collector.CollectFromAllSources(ctx)
		report := domain.Aggregate(results)
		a.logger.Info("scheduled collection finished",
			"newArticles", report.NewArticles,
			"pendingTopicExtraction", report.PendingTopicExtraction,
			"errors", len(report.Errors))
	})
	if err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	a.reconciler.Start(ctx, a.cfg.Collector.ReconcileEvery)
	a.worker.Start(ctx)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.server.Start()
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(stopCtx); err != nil {
		a.logger.Warn("http shutdown failed", "error", err)
	}
	if err := a.scheduler.Stop(stopCtx); err != nil {
		a.logger.Warn("scheduler stop failed", "error", err)
	}
	a.worker.Stop()
	a.reconciler.Stop()
	return nil
}

// Store exposes the persistence layer for the maintenance commands.
func (a *Application) Store() *storage.SQLStore {
	return a.store
}
