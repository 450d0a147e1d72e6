// Package predictor orchestrates a single scoring call: convert an
// observation, validate the features, call the scoring service, and turn
// whatever happens into either an outcome or a typed domain.Failure.
package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/training-suitability/internal/domain"
	"github.com/couchcryptid/training-suitability/internal/observability"
)

// Health-check failure messages shown to users.
const (
	msgServiceUnavailable = "AI model service is unavailable"
	msgServiceIssues      = "AI model service is experiencing issues"
)

// Service is the prediction orchestrator. It holds no per-call state and is
// safe for concurrent use.
type Service struct {
	transport domain.ScoringTransport
	logger    *slog.Logger
	metrics   *observability.Metrics
	feed      *Feed
	newID     func() string
}

// Option configures a Service.
type Option func(*Service)

// WithFeed publishes every call's lifecycle transitions to f.
func WithFeed(f *Feed) Option {
	return func(s *Service) { s.feed = f }
}

// WithRequestIDs replaces the uuid request ID generator.
func WithRequestIDs(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// New creates a Service that scores through transport.
func New(transport domain.ScoringTransport, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Service {
	s := &Service{
		transport: transport,
		logger:    logger,
		metrics:   metrics,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Predict converts obs to features and asks the scoring service for a
// verdict. A non-nil error is always a *domain.Failure. Predict never panics.
func (s *Service) Predict(ctx context.Context, obs domain.WeatherObservation) (outcome domain.PredictionOutcome, err error) {
	requestID := s.newID()
	s.publish(OpPredict, requestID, StateInFlight, nil)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("predict panicked", "request_id", requestID, "panic", r)
			outcome, err = domain.PredictionOutcome{}, domain.NewUnknownFailure(r)
		}
		f, _ := domain.AsFailure(err)
		s.recordPrediction(requestID, outcome, f)
	}()

	out, f := s.predict(ctx, requestID, obs)
	if f != nil {
		return domain.PredictionOutcome{}, f
	}
	return out, nil
}

func (s *Service) predict(ctx context.Context, requestID string, obs domain.WeatherObservation) (domain.PredictionOutcome, *domain.Failure) {
	features := domain.Convert(obs)
	if f := domain.ValidateFeatures(features); f != nil {
		return domain.PredictionOutcome{}, f
	}

	body, err := json.Marshal(predictRequest{Features: features.Binary()})
	if err != nil {
		return domain.PredictionOutcome{}, domain.NewUnknownFailure(err)
	}

	resp, f := s.send(ctx, OpPredict, domain.ScoringRequest{
		Method:    http.MethodPost,
		Path:      domain.PredictPath,
		Body:      body,
		RequestID: requestID,
	})
	if f != nil {
		return domain.PredictionOutcome{}, f
	}

	decoded, err := decodePrediction(resp.Body)
	if err != nil {
		return domain.PredictionOutcome{}, domain.NewParsingFailure(err)
	}
	if decoded.Echoed != features {
		s.logger.Warn("scoring service echoed different features",
			"request_id", requestID,
			"sent", features.Binary(),
			"echoed", decoded.Echoed.Binary(),
		)
	}

	return domain.NewPredictionOutcome(decoded.Label, decoded.Confidence, decoded.Message, features, requestID), nil
}

// Health returns the scoring service's self-reported status. Network and
// server failures are reported as service-unavailable failures that unwrap to
// the original. An undecodable 2xx body yields a zero (unhealthy) status.
func (s *Service) Health(ctx context.Context) (status domain.HealthStatus, err error) {
	requestID := s.newID()
	s.publish(OpHealth, requestID, StateInFlight, nil)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("health check panicked", "request_id", requestID, "panic", r)
			status, err = domain.HealthStatus{}, domain.NewUnknownFailure(r)
		}
		f, _ := domain.AsFailure(err)
		s.recordHealth(requestID, status, f)
	}()

	st, f := s.health(ctx, requestID)
	if f != nil {
		return domain.HealthStatus{}, f
	}
	return st, nil
}

func (s *Service) health(ctx context.Context, requestID string) (domain.HealthStatus, *domain.Failure) {
	resp, f := s.send(ctx, OpHealth, domain.ScoringRequest{
		Method:    http.MethodGet,
		Path:      domain.HealthPath,
		RequestID: requestID,
	})
	if f != nil {
		return domain.HealthStatus{}, unavailable(f)
	}

	status, ok := decodeHealth(resp.Body)
	if !ok {
		s.logger.Warn("undecodable health response", "request_id", requestID, "body_bytes", len(resp.Body))
	}
	return status, nil
}

// CheckHealth reports whether the scoring service is healthy with its model
// loaded. A reachable but unhealthy service returns false with a nil error.
func (s *Service) CheckHealth(ctx context.Context) (bool, error) {
	status, err := s.Health(ctx)
	if err != nil {
		return false, err
	}
	return status.Healthy(), nil
}

// CheckReadiness implements the readiness checker used by the /readyz handler.
func (s *Service) CheckReadiness(ctx context.Context) error {
	ok, err := s.CheckHealth(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("scoring service reachable but model not loaded")
	}
	return nil
}

// send performs one scoring call and maps incomplete calls and non-2xx
// statuses to failures.
func (s *Service) send(ctx context.Context, op Op, req domain.ScoringRequest) (domain.ScoringResponse, *domain.Failure) {
	start := time.Now()
	resp, err := s.transport.Send(ctx, req)
	s.metrics.ScoringDuration.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())

	if err != nil {
		return domain.ScoringResponse{}, transportFailure(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.ScoringResponse{}, domain.NewServerFailure(resp.StatusCode, errorMessage(resp.Body))
	}
	return resp, nil
}

func transportFailure(err error) *domain.Failure {
	var te *domain.TransportError
	if !errors.As(err, &te) {
		return domain.NewUnknownFailure(err)
	}
	switch te.Kind {
	case domain.TransportTimeout:
		return domain.NewTimeoutFailure(te)
	case domain.TransportConnection:
		return domain.NewNetworkFailure("could not connect to scoring service", te)
	case domain.TransportCancelled:
		return domain.NewNetworkFailure("request to scoring service was cancelled", te)
	default:
		return domain.NewNetworkFailure("network error contacting scoring service", te)
	}
}

// unavailable wraps network and server failures from a health check.
// Other kinds pass through unchanged.
func unavailable(f *domain.Failure) *domain.Failure {
	switch f.Kind {
	case domain.FailureNetwork:
		return domain.NewServiceUnavailableFailure(msgServiceUnavailable, f)
	case domain.FailureServer:
		return domain.NewServiceUnavailableFailure(msgServiceIssues, f)
	default:
		return f
	}
}

func (s *Service) recordPrediction(requestID string, outcome domain.PredictionOutcome, f *domain.Failure) {
	if f != nil {
		s.metrics.Predictions.WithLabelValues("failed").Inc()
		s.metrics.PredictionFailures.WithLabelValues(string(f.Kind)).Inc()
		s.logger.Warn("prediction failed",
			"request_id", requestID,
			"kind", f.Kind,
			"retryable", f.Retryable(),
			"error", f,
		)
		s.publish(OpPredict, requestID, StateFailed, f)
		return
	}
	s.metrics.Predictions.WithLabelValues(string(outcome.Verdict)).Inc()
	s.logger.Debug("prediction completed", "request_id", requestID, "verdict", outcome.Verdict)
	s.publish(OpPredict, requestID, StateCompleted, nil)
}

func (s *Service) recordHealth(requestID string, status domain.HealthStatus, f *domain.Failure) {
	switch {
	case f != nil:
		s.metrics.HealthChecks.WithLabelValues("error").Inc()
		s.logger.Warn("health check failed", "request_id", requestID, "kind", f.Kind, "error", f)
		s.publish(OpHealth, requestID, StateFailed, f)
		return
	case status.Healthy():
		s.metrics.HealthChecks.WithLabelValues("healthy").Inc()
	default:
		s.metrics.HealthChecks.WithLabelValues("unhealthy").Inc()
	}
	s.publish(OpHealth, requestID, StateCompleted, nil)
}

func (s *Service) publish(op Op, requestID string, state State, f *domain.Failure) {
	if s.feed == nil {
		return
	}
	s.feed.Publish(Transition{
		Op:        op,
		RequestID: requestID,
		State:     state,
		Failure:   f,
		At:        domain.Now(),
	})
}
