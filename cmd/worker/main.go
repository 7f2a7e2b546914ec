package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ivankhr/memogen/internal/bootstrap"
	"github.com/ivankhr/memogen/internal/config"
	"github.com/ivankhr/memogen/internal/core/domain"
	"github.com/ivankhr/memogen/internal/observability/logging"
	"github.com/ivankhr/memogen/internal/observability/metrics"
)

const serviceName = "memogen-worker"

func main() {
	cfg := config.Load()
	cfg.UseQueue = true
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	log.Printf("worker subscribed to %s", cfg.NATSSubject)
	err = app.Queue.SubscribeJobQueued(ctx, func(handlerCtx context.Context, job domain.GenerationJob) error {
		workerMetrics.ObserveQueueLag(serviceName, time.Since(job.UpdatedAt))
		if err := app.Jobs.AdoptJob(handlerCtx, job); err != nil {
			return err
		}

		workerMetrics.StartJob()
		started := time.Now()

		runCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Minute)
		defer cancel()
		runErr := app.Jobs.StartJob(runCtx, job.ID)
		workerMetrics.FinishJob(serviceName, time.Since(started), runErr)

		if runErr == nil {
			if done, err := app.Jobs.GetJob(handlerCtx, job.ID); err == nil && done.Result != nil {
				workerMetrics.AddSections(serviceName, len(done.Result.Sections))
			}
		}
		return runErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
