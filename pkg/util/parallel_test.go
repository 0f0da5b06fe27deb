package util

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallelRunsAll(t *testing.T) {
	var sum atomic.Int64
	err := Parallel(context.Background(), []int{1, 2, 3, 4}, 2, false, func(_ context.Context, n int) error {
		sum.Add(int64(n))
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(10), sum.Load())
}

func TestParallelJoinsErrors(t *testing.T) {
	a, b := errors.New("a"), errors.New("b")
	var calls atomic.Int32
	err := Parallel(context.Background(), []error{a, nil, b}, 3, false, func(_ context.Context, e error) error {
		calls.Add(1)
		return e
	})
	assert.ErrorIs(t, err, a)
	assert.ErrorIs(t, err, b)
	assert.Equal(t, int32(3), calls.Load())
}

func TestParallelFailFastCancels(t *testing.T) {
	boom := errors.New("boom")
	err := Parallel(context.Background(), []int{1, 2, 3, 4, 5, 6}, 1, true, func(ctx context.Context, n int) error {
		if ctx.Err() != nil {
			return nil
		}
		if n == 1 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestParallelEmpty(t *testing.T) {
	assert.NoError(t, Parallel(context.Background(), []int(nil), 4, false, func(context.Context, int) error { return nil }))
}
