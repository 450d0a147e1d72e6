package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/training-suitability/internal/domain"
)

const maxRequestBytes = 64 << 10

type assessmentResponse struct {
	Observation domain.WeatherObservation `json:"observation"`
	Features    [5]int                    `json:"features"`
	Explanation string                    `json:"explanation"`
	Outcome     domain.PredictionOutcome  `json:"outcome"`
}

type failureResponse struct {
	Kind       domain.FailureKind `json:"kind"`
	Message    string             `json:"message"`
	StatusCode int                `json:"status_code,omitempty"`
	Retryable  bool               `json:"retryable"`
}

func (s *Server) handleAssessObservation(w http.ResponseWriter, r *http.Request) {
	var obs domain.WeatherObservation
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&obs); err != nil {
		s.writeFailure(w, http.StatusBadRequest, domain.NewValidationFailure(fmt.Sprintf("invalid request body: %v", err)))
		return
	}
	if err := s.validate.Struct(obs); err != nil {
		s.writeFailure(w, http.StatusUnprocessableEntity, domain.NewValidationFailure(validationMessage(err)))
		return
	}
	s.assess(w, r, obs)
}

func (s *Server) handleAssessLocation(w http.ResponseWriter, r *http.Request) {
	if s.source == nil {
		sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{
			"error": "observation source not configured",
		})
		return
	}
	location := strings.TrimSpace(r.URL.Query().Get("location"))
	if location == "" {
		s.writeFailure(w, http.StatusBadRequest, domain.NewValidationFailure("location query parameter is required"))
		return
	}

	obs, err := s.source.Current(r.Context(), location)
	if err != nil {
		s.logger.Warn("observation lookup failed", "location", location, "error", err)
		sharedobs.WriteJSON(w, http.StatusBadGateway, map[string]string{
			"error": "weather lookup failed",
		})
		return
	}
	s.assess(w, r, obs)
}

func (s *Server) assess(w http.ResponseWriter, r *http.Request, obs domain.WeatherObservation) {
	features := domain.Convert(obs)
	outcome, err := s.scorer.Predict(r.Context(), obs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, assessmentResponse{
		Observation: obs,
		Features:    features.Binary(),
		Explanation: domain.Explain(obs, features),
		Outcome:     outcome,
	})
}

func (s *Server) handleScoringHealth(w http.ResponseWriter, r *http.Request) {
	status, err := s.scorer.Health(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, status)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	f, ok := domain.AsFailure(err)
	if !ok {
		f = domain.NewUnknownFailure(err)
	}
	s.writeFailure(w, statusForFailure(f.Kind), f)
}

func (s *Server) writeFailure(w http.ResponseWriter, status int, f *domain.Failure) {
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", "kind", f.Kind, "error", f)
	}
	sharedobs.WriteJSON(w, status, failureResponse{
		Kind:       f.Kind,
		Message:    f.Message,
		StatusCode: f.StatusCode,
		Retryable:  f.Retryable(),
	})
}

// statusForFailure maps a failure kind onto the HTTP status returned to API
// callers.
func statusForFailure(kind domain.FailureKind) int {
	switch kind {
	case domain.FailureValidation:
		return http.StatusUnprocessableEntity
	case domain.FailureParsing:
		return http.StatusBadGateway
	case domain.FailureTimeout:
		return http.StatusGatewayTimeout
	case domain.FailureNetwork, domain.FailureServer, domain.FailureServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", strings.ToLower(fe.Field()), fe.Tag(), fe.Param()))
	}
	return strings.Join(parts, "; ")
}
