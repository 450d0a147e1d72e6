package pipeline

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/training-suitability/internal/domain"
)

// Predictor is the orchestrator operation the assessor depends on.
type Predictor interface {
	Predict(ctx context.Context, obs domain.WeatherObservation) (domain.PredictionOutcome, error)
}

// AssessmentTransformer implements Assessor: parse, validate, predict.
type AssessmentTransformer struct {
	predictor Predictor
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewAssessmentTransformer creates an AssessmentTransformer.
func NewAssessmentTransformer(predictor Predictor, logger *slog.Logger) *AssessmentTransformer {
	return &AssessmentTransformer{
		predictor: predictor,
		validate:  validator.New(),
		logger:    logger,
	}
}

func (t *AssessmentTransformer) Assess(ctx context.Context, raw domain.RawEvent) (domain.Assessment, error) {
	obs, err := domain.ParseObservation(raw)
	if err != nil {
		return domain.Assessment{}, err
	}
	if err := t.validate.Struct(obs); err != nil {
		return domain.Assessment{}, err
	}

	features := domain.Convert(obs)
	outcome, err := t.predictor.Predict(ctx, obs)
	a := domain.NewAssessment(obs, features, outcome, err)
	if a.Failure != nil {
		t.logger.Debug("assessment failed", "location", obs.Location, "kind", a.Failure.Kind)
	}
	return a, nil
}
