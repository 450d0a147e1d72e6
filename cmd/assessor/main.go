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

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/training-suitability/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/training-suitability/internal/adapter/kafka"
	"github.com/couchcryptid/training-suitability/internal/adapter/scoring"
	"github.com/couchcryptid/training-suitability/internal/adapter/weatherapi"
	"github.com/couchcryptid/training-suitability/internal/config"
	"github.com/couchcryptid/training-suitability/internal/domain"
	"github.com/couchcryptid/training-suitability/internal/observability"
	"github.com/couchcryptid/training-suitability/internal/pipeline"
	"github.com/couchcryptid/training-suitability/internal/predictor"
)

const (
	breakerMaxFailures = 5
	breakerOpenFor     = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("assessor failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	transportOpts := []scoring.Option{scoring.WithMetrics(metrics)}
	if cfg.ScoringBreakerEnabled {
		transportOpts = append(transportOpts, scoring.WithCircuitBreaker(breakerMaxFailures, breakerOpenFor))
	}
	transport := scoring.NewTransport(cfg.ScoringBaseURL, cfg.ScoringTimeout, logger, transportOpts...)
	svc := predictor.New(transport, logger, metrics)
	logger.Info("scoring service configured",
		"base_url", cfg.ScoringBaseURL,
		"timeout", cfg.ScoringTimeout,
		"breaker", cfg.ScoringBreakerEnabled,
	)

	// Observation lookup by location (feature-flagged via WEATHERAPI_ENABLED / WEATHERAPI_KEY).
	serverOpts := []httpadapter.Option{httpadapter.WithScorer(svc)}
	if cfg.WeatherAPIEnabled {
		var source domain.ObservationSource = weatherapi.NewClient(cfg.WeatherAPIKey, cfg.WeatherAPITimeout, metrics, logger)
		source = weatherapi.NewCachedSource(source, cfg.WeatherAPICacheSize, cfg.WeatherAPICacheTTL, clockwork.NewRealClock(), metrics)
		serverOpts = append(serverOpts, httpadapter.WithObservationSource(source))
		metrics.WeatherEnabled.Set(1)
		logger.Info("weatherapi lookup enabled", "cache_size", cfg.WeatherAPICacheSize, "cache_ttl", cfg.WeatherAPICacheTTL)
	} else {
		logger.Info("weatherapi lookup disabled")
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	assessor := pipeline.NewAssessmentTransformer(svc, logger)

	p := pipeline.New(reader, assessor, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.AllReady(svc, p), logger, serverOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
