package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/training-suitability/internal/domain"
)

// Scorer is the subset of the prediction orchestrator the API exposes.
type Scorer interface {
	Predict(ctx context.Context, obs domain.WeatherObservation) (domain.PredictionOutcome, error)
	Health(ctx context.Context) (domain.HealthStatus, error)
}

// Server exposes health, readiness, metrics, and assessment HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	scorer     Scorer
	source     domain.ObservationSource
	validate   *validator.Validate
}

// Option configures optional Server routes.
type Option func(*Server)

// WithScorer enables the /v1/assessments and /v1/scoring/health routes.
func WithScorer(s Scorer) Option {
	return func(srv *Server) { srv.scorer = s }
}

// WithObservationSource enables assessments by location name.
func WithObservationSource(src domain.ObservationSource) Option {
	return func(srv *Server) { srv.source = src }
}

// NewServer creates an HTTP server with /healthz, /readyz, and /metrics
// routes, plus the assessment API when a Scorer is configured.
func NewServer(addr string, ready sharedobs.ReadinessChecker, logger *slog.Logger, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:   logger,
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	if s.scorer != nil {
		mux.HandleFunc("POST /v1/assessments", s.handleAssessObservation)
		mux.HandleFunc("GET /v1/assessments", s.handleAssessLocation)
		mux.HandleFunc("GET /v1/scoring/health", s.handleScoringHealth)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// AllReady combines readiness checkers; the first failure is reported.
func AllReady(checkers ...sharedobs.ReadinessChecker) sharedobs.ReadinessChecker {
	return readinessChecks(checkers)
}

type readinessChecks []sharedobs.ReadinessChecker

func (rc readinessChecks) CheckReadiness(ctx context.Context) error {
	for _, c := range rc {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}
