package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/ivankhr/memogen/internal/adapters/http"
	"github.com/ivankhr/memogen/internal/bootstrap"
	"github.com/ivankhr/memogen/internal/config"
	"github.com/ivankhr/memogen/internal/observability/logging"
	"github.com/ivankhr/memogen/internal/observability/metrics"
)

const serviceName = "memogen-api"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	httpMetrics := metrics.NewHTTPServerMetrics(serviceName)
	router := httpadapter.NewRouter(
		app.Ingest,
		app.Jobs,
		app.Contents,
		app.Exporter,
		httpMetrics,
		serviceName,
		httpadapter.TrafficConfig{
			RateLimitRPS:     cfg.APIRateLimitRPS,
			RateLimitBurst:   cfg.APIRateLimitBurst,
			MaxConcurrent:    cfg.APIMaxConcurrent,
			BackpressureWait: time.Duration(cfg.APIBackpressureWaitMS) * time.Millisecond,
		},
	).Handler()

	// WriteTimeout stays unset: job event streams hold the response open
	// until the job reaches a terminal state.
	server := &http.Server{
		Addr:        ":" + cfg.APIPort,
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("api listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("api shutdown error: %v", err)
	}
}
