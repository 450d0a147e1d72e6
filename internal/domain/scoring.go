package domain

import (
	"context"
	"fmt"
)

// Scoring service endpoints, relative to the configured base URL.
const (
	PredictPath = "/predict"
	HealthPath  = "/health"
)

// ScoringRequest is a single call to the scoring service.
type ScoringRequest struct {
	Method    string
	Path      string
	Body      []byte // nil for requests without a body
	RequestID string
}

// ScoringResponse is the raw result of a completed call: any HTTP status,
// with the body fully read.
type ScoringResponse struct {
	StatusCode int
	Body       []byte
}

// ScoringTransport issues calls to the scoring service. A non-nil error means
// the call did not complete and must be a *TransportError; HTTP error statuses
// are returned as responses, not errors.
type ScoringTransport interface {
	Send(ctx context.Context, req ScoringRequest) (ScoringResponse, error)
}

// TransportErrorKind classifies why a call did not complete.
type TransportErrorKind string

const (
	TransportTimeout    TransportErrorKind = "timeout"
	TransportConnection TransportErrorKind = "connection"
	TransportCancelled  TransportErrorKind = "cancelled"
	TransportUnknown    TransportErrorKind = "unknown"
)

// TransportError is returned by a ScoringTransport when a call fails before a
// response is received.
type TransportError struct {
	Kind TransportErrorKind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("scoring transport %s: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
