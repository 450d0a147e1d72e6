package main

import (
	"bytes"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/training-suitability/internal/scoringstub"
)

func startStub(t *testing.T, model scoringstub.Model) string {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(scoringstub.New(model, logger).Routes())
	t.Cleanup(srv.Close)
	return srv.URL
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_PredictSuitable(t *testing.T) {
	url := startStub(t, scoringstub.TableModel{})

	code, out, _ := runCLI(t, "-base-url", url, "-temp", "22", "-condition", "Sunny", "-humidity", "55")

	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "features:   [0 1 0 1 1]")
	assert.Contains(t, out, "verdict:    suitable")
	assert.Contains(t, out, "confidence: high")
}

func TestRun_PredictExplainAndJSON(t *testing.T) {
	url := startStub(t, scoringstub.TableModel{})

	code, out, _ := runCLI(t, "-base-url", url, "-temp", "35", "-condition", "Heavy rain", "-humidity", "85", "-explain", "-json")

	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "rain")
	assert.Contains(t, out, `"verdict": "not_suitable"`)
}

func TestRun_ValidationFailure(t *testing.T) {
	url := startStub(t, scoringstub.TableModel{})

	code, _, errOut := runCLI(t, "-base-url", url, "-temp", "20", "-condition", "Sunny intervals with thunderstorm", "-humidity", "50")

	assert.Equal(t, exitFailure, code)
	assert.Contains(t, errOut, "validation failure")
	assert.NotContains(t, errOut, "try again")
}

func TestRun_ServerFailureIsRetryable(t *testing.T) {
	url := startStub(t, nil)

	code, _, errOut := runCLI(t, "-base-url", url, "-temp", "22", "-condition", "Sunny", "-humidity", "55", "-watch")

	assert.Equal(t, exitFailure, code)
	assert.Contains(t, errOut, "server failure: Please ensure a model is available")
	assert.Contains(t, errOut, "try again")
	assert.Contains(t, errOut, "predict in_flight")
	assert.Contains(t, errOut, "predict failed: server")
}

func TestRun_Health(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		code, out, _ := runCLI(t, "-base-url", startStub(t, scoringstub.TableModel{}), "health")
		assert.Equal(t, exitOK, code)
		assert.Contains(t, out, "status: healthy, model loaded: true")
	})

	t.Run("model not loaded", func(t *testing.T) {
		code, out, _ := runCLI(t, "-base-url", startStub(t, nil), "health")
		assert.Equal(t, exitFailure, code)
		assert.Contains(t, out, "model loaded: false")
	})

	t.Run("unreachable", func(t *testing.T) {
		code, _, errOut := runCLI(t, "-base-url", "http://127.0.0.1:1", "health")
		assert.Equal(t, exitFailure, code)
		assert.Contains(t, errOut, "service_unavailable failure")
	})
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"humidity out of range", []string{"-humidity", "140"}},
		{"unknown subcommand", []string{"status"}},
		{"bad flag", []string{"-nope"}},
		{"zero timeout", []string{"-timeout", "0s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(t, tt.args...)
			assert.Equal(t, exitUsage, code)
		})
	}
}
