package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRemote = errors.New("remote failure")

func failing(context.Context) error { return errRemote }
func succeeding(context.Context) error { return nil }

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker("idp", 2, time.Minute)
	ctx := context.Background()

	assert.ErrorIs(t, cb.Call(ctx, failing), errRemote)
	assert.Equal(t, StateClosed, cb.GetState())
	assert.ErrorIs(t, cb.Call(ctx, failing), errRemote)
	assert.Equal(t, StateOpen, cb.GetState())

	called := false
	err := cb.Call(ctx, func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("idp", 1, 30*time.Second)
	cb.now = func() time.Time { return now }
	ctx := context.Background()

	require.ErrorIs(t, cb.Call(ctx, failing), errRemote)
	require.Equal(t, StateOpen, cb.GetState())

	now = now.Add(31 * time.Second)
	require.NoError(t, cb.Call(ctx, succeeding))
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("idp", 1, 30*time.Second)
	cb.now = func() time.Time { return now }
	ctx := context.Background()

	require.Error(t, cb.Call(ctx, failing))
	now = now.Add(time.Minute)
	require.ErrorIs(t, cb.Call(ctx, failing), errRemote)
	assert.Equal(t, StateOpen, cb.GetState())
	assert.ErrorIs(t, cb.Call(ctx, succeeding), ErrCircuitOpen)
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("idp", 2, time.Minute)
	ctx := context.Background()

	require.Error(t, cb.Call(ctx, failing))
	require.NoError(t, cb.Call(ctx, succeeding))
	require.Error(t, cb.Call(ctx, failing))
	assert.Equal(t, StateClosed, cb.GetState())
}
