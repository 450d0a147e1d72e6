// Package scoring is the HTTP transport to the remote scoring service.
package scoring

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/couchcryptid/training-suitability/internal/domain"
	"github.com/couchcryptid/training-suitability/internal/observability"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

var errResponseTooLarge = fmt.Errorf("response body exceeds %d bytes", maxResponseBytes)

// Transport implements domain.ScoringTransport over HTTP.
type Transport struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[domain.ScoringResponse]
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// Option configures a Transport.
type Option func(*Transport)

// WithCircuitBreaker trips after maxFailures consecutive incomplete calls and
// rejects calls for openFor before probing again. Error statuses from the
// service do not count as failures.
func WithCircuitBreaker(maxFailures uint32, openFor time.Duration) Option {
	return func(t *Transport) {
		t.breaker = gobreaker.NewCircuitBreaker[domain.ScoringResponse](gobreaker.Settings{
			Name:        "scoring",
			MaxRequests: 1,
			Timeout:     openFor,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			IsSuccessful: func(err error) bool {
				var te *domain.TransportError
				return err == nil || (errors.As(err, &te) && te.Kind == domain.TransportCancelled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				t.logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
				if t.metrics != nil {
					open := 0.0
					if to == gobreaker.StateOpen {
						open = 1
					}
					t.metrics.BreakerOpen.Set(open)
				}
			},
		})
	}
}

// WithMetrics reports breaker state on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(t *Transport) { t.metrics = m }
}

// WithHTTPClient replaces the default client. The client's Timeout is the
// per-call deadline.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transport) { t.httpClient = c }
}

// NewTransport creates a Transport for the service at baseURL. timeout bounds
// each call end to end.
func NewTransport(baseURL string, timeout time.Duration, logger *slog.Logger, opts ...Option) *Transport {
	t := &Transport{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send issues req and returns the response for any HTTP status. Calls that do
// not complete return a *domain.TransportError.
func (t *Transport) Send(ctx context.Context, req domain.ScoringRequest) (domain.ScoringResponse, error) {
	if t.breaker == nil {
		return t.do(ctx, req)
	}

	resp, err := t.breaker.Execute(func() (domain.ScoringResponse, error) {
		return t.do(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.ScoringResponse{}, &domain.TransportError{Kind: domain.TransportConnection, Err: err}
	}
	return resp, err
}

func (t *Transport) do(ctx context.Context, req domain.ScoringRequest) (domain.ScoringResponse, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, t.baseURL+req.Path, body)
	if err != nil {
		return domain.ScoringResponse{}, &domain.TransportError{Kind: domain.TransportUnknown, Err: fmt.Errorf("create request: %w", err)}
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.RequestID != "" {
		httpReq.Header.Set("X-Request-ID", req.RequestID)
	}

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return domain.ScoringResponse{}, &domain.TransportError{Kind: classify(err), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return domain.ScoringResponse{}, &domain.TransportError{Kind: classify(err), Err: fmt.Errorf("read response: %w", err)}
	}
	if len(data) > maxResponseBytes {
		return domain.ScoringResponse{}, &domain.TransportError{Kind: domain.TransportUnknown, Err: errResponseTooLarge}
	}

	t.logger.Debug("scoring call completed",
		"method", req.Method,
		"path", req.Path,
		"status", resp.StatusCode,
		"request_id", req.RequestID,
	)
	return domain.ScoringResponse{StatusCode: resp.StatusCode, Body: data}, nil
}

// classify maps an *http.Client error onto a transport error kind.
func classify(err error) domain.TransportErrorKind {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return domain.TransportTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return domain.TransportTimeout
	case errors.Is(err, context.Canceled):
		return domain.TransportCancelled
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError
	switch {
	case errors.As(err, &dnsErr), errors.As(err, &opErr), errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
		return domain.TransportConnection
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return domain.TransportConnection
	}
	return domain.TransportUnknown
}
