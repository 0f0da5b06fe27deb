package retrylimit

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// StatusCoder is implemented by errors that carry an HTTP status code.
type StatusCoder interface {
	StatusCode() int
}

// RetryAfterer is implemented by rate-limit errors that tell how long to back
// off.
type RetryAfterer interface {
	RetryAfter() time.Duration
}

// FatalError stops the retry loop immediately.
type FatalError struct {
	Err error
}

func (f *FatalError) Error() string { return f.Err.Error() }
func (f *FatalError) Unwrap() error { return f.Err }

// Fatal marks err as not worth retrying.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// Config tunes the retry loop.
type Config struct {
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	RateLimitDelay time.Duration
	Multiplier     float64
	Jitter         bool
	// Retryable decides whether a non-rate-limit error is worth another
	// attempt. Nil retries server errors only.
	Retryable func(error) bool
	Log       zerolog.Logger
}

// DefaultConfig suits interactive edits: a handful of quick attempts.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   250 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		RateLimitDelay: time.Second,
		Multiplier:     2,
		Jitter:         true,
		Log:            zerolog.Nop(),
	}
}

// Do runs fn up to attempts times with the default configuration.
func Do(ctx context.Context, lim *AdaptiveLimiter, attempts int, fn func() error) error {
	cfg := DefaultConfig()
	cfg.MaxAttempts = attempts
	return WithConfig(ctx, lim, cfg, fn)
}

// WithConfig runs fn until it succeeds, fails fatally, runs out of attempts or
// ctx is done. Rate-limit responses slow lim down and wait the advertised
// retry-after delay when the error carries one.
func WithConfig(ctx context.Context, lim *AdaptiveLimiter, cfg Config, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Retryable == nil {
		cfg.Retryable = IsServerError
	}
	delay := cfg.InitialDelay

	var err error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if lim != nil {
			if werr := lim.Wait(ctx); werr != nil {
				return werr
			}
		}

		err = fn()
		if err == nil {
			if lim != nil {
				lim.Success()
			}
			if attempt > 1 {
				cfg.Log.Debug().Int("attempt", attempt).Msg("retry succeeded")
			}
			return nil
		}

		var fatal *FatalError
		if errors.As(err, &fatal) {
			return fatal.Err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		wait := delay
		switch {
		case IsRateLimit(err):
			if lim != nil {
				lim.RateLimited()
			}
			wait = cfg.RateLimitDelay
			var ra RetryAfterer
			if errors.As(err, &ra) && ra.RetryAfter() > 0 {
				wait = ra.RetryAfter()
			}
			cfg.Log.Debug().Int("attempt", attempt).Dur("wait", wait).Msg("rate limited")
		case cfg.Retryable(err):
			if cfg.Jitter {
				wait = jitter(delay)
			}
			delay = min(time.Duration(float64(delay)*cfg.Multiplier), cfg.MaxDelay)
			cfg.Log.Debug().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("retrying")
		default:
			return err
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", cfg.MaxAttempts, err)
}

// IsRateLimit reports a 429 response anywhere in err's chain.
func IsRateLimit(err error) bool {
	var ra RetryAfterer
	if errors.As(err, &ra) {
		return true
	}
	return statusOf(err) == http.StatusTooManyRequests
}

// IsServerError reports a 5xx response anywhere in err's chain.
func IsServerError(err error) bool {
	code := statusOf(err)
	return code >= 500 && code < 600
}

func statusOf(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return 0
}

func jitter(d time.Duration) time.Duration {
	if d < 4 {
		return d
	}
	return d + rand.N(d/4)
}
