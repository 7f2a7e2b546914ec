package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ivankhr/memogen/internal/config"
	"github.com/ivankhr/memogen/internal/core/events"
	"github.com/ivankhr/memogen/internal/core/ports"
	"github.com/ivankhr/memogen/internal/core/usecase"
	"github.com/ivankhr/memogen/internal/infrastructure/export/excel"
	"github.com/ivankhr/memogen/internal/infrastructure/extractor"
	"github.com/ivankhr/memogen/internal/infrastructure/llm/ollama"
	"github.com/ivankhr/memogen/internal/infrastructure/parser/markdown"
	"github.com/ivankhr/memogen/internal/infrastructure/queue/inprocess"
	natsqueue "github.com/ivankhr/memogen/internal/infrastructure/queue/nats"
	"github.com/ivankhr/memogen/internal/infrastructure/repository/memory"
	"github.com/ivankhr/memogen/internal/infrastructure/repository/postgres"
	"github.com/ivankhr/memogen/internal/infrastructure/resilience"
	"github.com/ivankhr/memogen/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Ingest   *usecase.IngestUseCase
	Jobs     *usecase.JobManager
	Contents ports.ContentStore
	Exporter ports.ContentExporter

	// Queue is non-nil when job execution is delegated to workers.
	Queue *natsqueue.Queue

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	templates := postgres.NewTemplateRepository(db)
	sources := postgres.NewSourceRepository(db)
	contents := postgres.NewContentRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	llm := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaModel, ollama.Options{
		RequestTimeout:     time.Duration(cfg.LLMTimeoutSecs) * time.Second,
		ResilienceExecutor: executor,
	})

	settings := usecase.GenerationSettings{
		Model:       cfg.OllamaModel,
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
	}
	sections := usecase.NewSectionGenerator(llm, settings)
	pipeline := usecase.NewContentPipeline(sections, llm, settings, cfg.EnhanceWorkers, logger)

	registry := memory.NewJobRegistry()
	bus := events.NewBus()
	manager := usecase.NewJobManager(registry, templates, sources, contents, pipeline, bus, logger)

	var queue *natsqueue.Queue
	closeFn := func() { _ = db.Close() }
	if cfg.UseQueue {
		queue, err = natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
			ResilienceExecutor: executor,
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init job queue: %w", err)
		}
		manager.SetScheduler(queue)
		closeFn = func() {
			queue.Close()
			_ = db.Close()
		}
	} else {
		manager.SetScheduler(inprocess.New(ctx, manager.StartJob, logger))
	}

	ingest := usecase.NewIngestUseCase(templates, sources, storage, markdown.New(), extractor.New())

	return &App{
		Config:   cfg,
		Logger:   logger,
		Ingest:   ingest,
		Jobs:     manager,
		Contents: contents,
		Exporter: excel.New(),
		Queue:    queue,
		closeFn:  closeFn,
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
