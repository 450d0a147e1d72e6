package domain

import "time"

// Verdict is the scoring service's binary judgement.
type Verdict string

const (
	Suitable    Verdict = "suitable"
	NotSuitable Verdict = "not_suitable"
)

// Defaults applied when the scoring service omits optional response fields.
const (
	DefaultConfidence = "unknown"
	DefaultMessage    = "No message provided"
)

// PredictionOutcome is a successfully parsed scoring result.
type PredictionOutcome struct {
	Verdict    Verdict       `json:"verdict"`
	Label      int           `json:"label"`
	Suitable   bool          `json:"suitable_for_training"`
	Confidence string        `json:"confidence"`
	Message    string        `json:"message"`
	Features   FeatureVector `json:"features"` // the vector that was submitted
	RequestID  string        `json:"request_id"`
	CreatedAt  time.Time     `json:"created_at"` // client time; the service supplies none
}

// NewPredictionOutcome derives the verdict and suitability flag from label.
func NewPredictionOutcome(label int, confidence, message string, features FeatureVector, requestID string) PredictionOutcome {
	verdict := NotSuitable
	if label == 1 {
		verdict = Suitable
	}
	return PredictionOutcome{
		Verdict:    verdict,
		Label:      label,
		Suitable:   label == 1,
		Confidence: confidence,
		Message:    message,
		Features:   features,
		RequestID:  requestID,
		CreatedAt:  Now(),
	}
}

// HealthStatus is the scoring service's self-reported state.
type HealthStatus struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Message     string `json:"message,omitempty"`
}

// Healthy reports whether the service is up and has its model loaded.
func (h HealthStatus) Healthy() bool {
	return h.Status == "healthy" && h.ModelLoaded
}

// Assessment is the record published by the streaming assessor: the
// observation and its features, plus exactly one of Outcome or Failure.
type Assessment struct {
	Observation WeatherObservation `json:"observation"`
	Features    FeatureVector      `json:"features"`
	Outcome     *PredictionOutcome `json:"outcome,omitempty"`
	Failure     *Failure           `json:"failure,omitempty"`
	ProcessedAt time.Time          `json:"processed_at"`
}

// NewAssessment builds an Assessment from the result of a prediction. A
// non-Failure error is recorded as an unknown failure.
func NewAssessment(obs WeatherObservation, features FeatureVector, outcome PredictionOutcome, err error) Assessment {
	a := Assessment{
		Observation: obs,
		Features:    features,
		ProcessedAt: Now(),
	}
	if err != nil {
		f, ok := AsFailure(err)
		if !ok {
			f = NewUnknownFailure(err)
		}
		a.Failure = f
		return a
	}
	a.Outcome = &outcome
	return a
}

// Key returns the message key used when publishing the assessment.
func (a Assessment) Key() string {
	return a.Observation.Location
}

// Status returns a short label for headers and logs: the verdict on success,
// "failed" otherwise.
func (a Assessment) Status() string {
	if a.Outcome != nil {
		return string(a.Outcome.Verdict)
	}
	return "failed"
}
