package retrylimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusErr int

func (s statusErr) Error() string   { return "status" }
func (s statusErr) StatusCode() int { return int(s) }

type slowDown time.Duration

func (s slowDown) Error() string             { return "slow down" }
func (s slowDown) RetryAfter() time.Duration { return time.Duration(s) }

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.RateLimitDelay = time.Millisecond
	cfg.Jitter = false
	return cfg
}

func TestLimiterAdjustsWithinBounds(t *testing.T) {
	lim := NewAdaptiveLimiter(4, 1, 8, 1, 0.5)
	lim.RateLimited()
	assert.Equal(t, 2.0, lim.CurrentLimit())
	lim.RateLimited()
	lim.RateLimited()
	assert.Equal(t, 1.0, lim.CurrentLimit())
	assert.Equal(t, 3, lim.Throttled())

	// Success is ignored right after throttling.
	lim.Success()
	assert.Equal(t, 1.0, lim.CurrentLimit())
}

func TestLimiterClimbs(t *testing.T) {
	lim := NewAdaptiveLimiter(7, 1, 8, 1, 0.5)
	lim.Success()
	lim.Success()
	assert.Equal(t, 8.0, lim.CurrentLimit())
}

func TestRetryServerErrorThenSuccess(t *testing.T) {
	calls := 0
	err := WithConfig(context.Background(), nil, fastConfig(), func() error {
		calls++
		if calls < 3 {
			return statusErr(502)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnClientError(t *testing.T) {
	calls := 0
	err := WithConfig(context.Background(), nil, fastConfig(), func() error {
		calls++
		return statusErr(403)
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, statusErr(403), err)
}

func TestRetryFatal(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := WithConfig(context.Background(), nil, fastConfig(), func() error {
		calls++
		return Fatal(boom)
	})
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, boom)
}

func TestRetryRateLimitSlowsLimiter(t *testing.T) {
	lim := NewAdaptiveLimiter(10, 1, 10, 1, 0.5)
	calls := 0
	err := WithConfig(context.Background(), lim, fastConfig(), func() error {
		calls++
		if calls == 1 {
			return slowDown(time.Millisecond)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 5.0, lim.CurrentLimit())
}

func TestRetryGivesUp(t *testing.T) {
	err := Do(context.Background(), nil, 2, func() error { return statusErr(429) })
	require.Error(t, err)
	assert.True(t, IsRateLimit(err))
}

func TestRetryContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	lim := NewAdaptiveLimiter(1, 1, 1, 1, 0.5)
	// Drain the single token so Wait has to block.
	require.NoError(t, lim.Wait(context.Background()))

	err := Do(ctx, lim, 3, func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
