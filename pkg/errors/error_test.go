package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBase = stderrors.New("base failure")

func TestTracerFromError(t *testing.T) {
	tracer := TracerFromError(errBase)

	assert.Equal(t, "base failure", tracer.Error())
	assert.ErrorIs(t, tracer, errBase)
	assert.NotEmpty(t, tracer.StackTrace())
}

func TestTracerFromError_KeepsExistingStack(t *testing.T) {
	inner := TracerFromError(errBase)
	outer := TracerFromError(inner)

	assert.Same(t, inner, outer.Unwrap())
	assert.Equal(t, inner.StackTrace(), outer.StackTrace())
}

func TestTracerFromPanic(t *testing.T) {
	testCases := []struct {
		name      string
		recovered any
		message   string
	}{
		{name: "string", recovered: "boom", message: "panic: boom"},
		{name: "error", recovered: errBase, message: "panic: base failure"},
		{name: "other", recovered: 42, message: "panic: 42"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tracer := TracerFromPanic(tc.recovered)
			assert.Equal(t, tc.message, tracer.Error())
			assert.NotEmpty(t, tracer.StackTrace())
		})
	}
}

func TestErrorDetails(t *testing.T) {
	err := NewErrorDetailsWithCause("cannot open feed", FeedUnavailableError, "path", errBase)

	assert.Equal(t, "cannot open feed: base failure", err.Error())
	assert.ErrorIs(t, err, errBase)
	assert.True(t, ErrorCodeEquals(err, FeedUnavailableError.String()))
	assert.False(t, ErrorCodeEquals(err, RedisSetError.String()))
	assert.False(t, ErrorCodeEquals(errBase, FeedUnavailableError.String()))

	plain := NewErrorDetails("nil config", RedisConfigError.String(), "connect")
	require.Nil(t, plain.Unwrap())
	assert.Equal(t, "nil config", plain.Error())
}
