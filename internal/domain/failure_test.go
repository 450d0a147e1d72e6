package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailure_Error(t *testing.T) {
	assert.Equal(t, "validation: outlook cannot be both rainy and sunny",
		NewValidationFailure("outlook cannot be both rainy and sunny").Error())
	assert.Equal(t, "server (status 500): Model not loaded",
		NewServerFailure(500, "Model not loaded").Error())
}

func TestNewServerFailure_DefaultMessage(t *testing.T) {
	f := NewServerFailure(503, "")
	assert.Equal(t, FailureServer, f.Kind)
	assert.Equal(t, 503, f.StatusCode)
	assert.Equal(t, "scoring service returned status 503", f.Message)
}

func TestFailure_Retryable(t *testing.T) {
	tests := []struct {
		f         *Failure
		retryable bool
	}{
		{NewValidationFailure("bad"), false},
		{NewParsingFailure(errors.New("bad json")), false},
		{NewTimeoutFailure(context.DeadlineExceeded), true},
		{NewNetworkFailure("connection refused", errors.New("dial")), true},
		{NewServerFailure(500, ""), true},
		{NewServiceUnavailableFailure("down", NewServerFailure(500, "")), true},
		{NewUnknownFailure("boom"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.f.Kind), func(t *testing.T) {
			assert.Equal(t, tt.retryable, tt.f.Retryable())
		})
	}
}

func TestServiceUnavailable_UnwrapsToCause(t *testing.T) {
	cause := NewServerFailure(500, "Model not loaded")
	f := NewServiceUnavailableFailure("AI model service is experiencing issues", cause)

	assert.Equal(t, FailureServiceUnavailable, f.Kind)
	assert.Equal(t, 500, f.StatusCode)

	var inner *Failure
	require.True(t, errors.As(f.Unwrap(), &inner))
	assert.Same(t, cause, inner)
}

func TestTimeoutFailure_UnwrapsToDeadline(t *testing.T) {
	f := NewTimeoutFailure(&TransportError{Kind: TransportTimeout, Err: context.DeadlineExceeded})
	assert.ErrorIs(t, f, context.DeadlineExceeded)
}

func TestAsFailure(t *testing.T) {
	t.Run("wrapped failure", func(t *testing.T) {
		orig := NewParsingFailure(errors.New("unexpected EOF"))
		wrapped := fmt.Errorf("predict: %w", orig)

		f, ok := AsFailure(wrapped)
		require.True(t, ok)
		assert.Same(t, orig, f)
	})

	t.Run("plain error", func(t *testing.T) {
		f, ok := AsFailure(errors.New("plain"))
		assert.False(t, ok)
		assert.Nil(t, f)
	})
}

func TestNewUnknownFailure(t *testing.T) {
	t.Run("error cause", func(t *testing.T) {
		cause := errors.New("nil map")
		f := NewUnknownFailure(cause)
		assert.Equal(t, FailureUnknown, f.Kind)
		assert.Equal(t, "unexpected error: nil map", f.Message)
		assert.ErrorIs(t, f, cause)
	})

	t.Run("panic value", func(t *testing.T) {
		f := NewUnknownFailure("index out of range")
		assert.Equal(t, "unexpected error: index out of range", f.Message)
		assert.Nil(t, f.Err)
	})
}
