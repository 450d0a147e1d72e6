package domain

import (
	"errors"
	"fmt"
)

// FailureKind categorizes every failure the orchestrator can return.
// The set is closed; consumers switch on it to decide how to render a failure
// and whether to offer a retry.
type FailureKind string

const (
	FailureValidation         FailureKind = "validation"
	FailureParsing            FailureKind = "parsing"
	FailureTimeout            FailureKind = "timeout"
	FailureNetwork            FailureKind = "network"
	FailureServer             FailureKind = "server"
	FailureServiceUnavailable FailureKind = "service_unavailable"
	FailureUnknown            FailureKind = "unknown"
)

// Failure is the typed error returned by the prediction orchestrator.
type Failure struct {
	Kind       FailureKind `json:"kind"`
	Message    string      `json:"message"`
	StatusCode int         `json:"status_code,omitempty"` // set for server failures
	Err        error       `json:"-"`
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %s", f.Kind, f.StatusCode, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Unwrap returns the underlying cause for errors.Is/errors.As support.
// A service-unavailable failure unwraps to the original network or server failure.
func (f *Failure) Unwrap() error {
	return f.Err
}

// Retryable reports whether the failure is transient, i.e. a consumer may
// reasonably offer the user a retry.
func (f *Failure) Retryable() bool {
	switch f.Kind {
	case FailureTimeout, FailureNetwork, FailureServer, FailureServiceUnavailable:
		return true
	default:
		return false
	}
}

// AsFailure extracts a *Failure from an error chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

func NewValidationFailure(message string) *Failure {
	return &Failure{Kind: FailureValidation, Message: message}
}

func NewParsingFailure(err error) *Failure {
	return &Failure{Kind: FailureParsing, Message: fmt.Sprintf("invalid response from scoring service: %v", err), Err: err}
}

func NewTimeoutFailure(err error) *Failure {
	return &Failure{Kind: FailureTimeout, Message: "request to scoring service timed out", Err: err}
}

func NewNetworkFailure(message string, err error) *Failure {
	return &Failure{Kind: FailureNetwork, Message: message, Err: err}
}

// NewServerFailure builds a failure for a non-2xx response. serverMessage is
// the message reported by the service, if any.
func NewServerFailure(statusCode int, serverMessage string) *Failure {
	msg := serverMessage
	if msg == "" {
		msg = fmt.Sprintf("scoring service returned status %d", statusCode)
	}
	return &Failure{Kind: FailureServer, Message: msg, StatusCode: statusCode}
}

// NewServiceUnavailableFailure wraps a network or server failure raised by a
// health check, keeping the original failure reachable through Unwrap.
func NewServiceUnavailableFailure(message string, cause *Failure) *Failure {
	f := &Failure{Kind: FailureServiceUnavailable, Message: message, Err: cause}
	if cause != nil {
		f.StatusCode = cause.StatusCode
	}
	return f
}

func NewUnknownFailure(cause any) *Failure {
	f := &Failure{Kind: FailureUnknown, Message: fmt.Sprintf("unexpected error: %v", cause)}
	if err, ok := cause.(error); ok {
		f.Err = err
	}
	return f
}
