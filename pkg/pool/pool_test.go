package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartStop(t *testing.T) {
	p := New()
	require.NoError(t, p.Start())
	assert.True(t, p.Running())
	assert.ErrorIs(t, p.Start(), ErrAlreadyRunning)

	require.NoError(t, p.Stop(context.Background()))
	assert.False(t, p.Running())
	assert.ErrorIs(t, p.Stop(context.Background()), ErrNotRunning)
	assert.ErrorIs(t, p.Submit(context.Background(), func(context.Context) {}), ErrNotRunning)
}

func TestSubmitRuns(t *testing.T) {
	p := New(WithWorkers(4), WithQueueSize(64))
	require.NoError(t, p.Start())

	var n atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		require.NoError(t, p.Submit(context.Background(), func(context.Context) {
			defer wg.Done()
			n.Add(1)
		}))
	}
	wg.Wait()
	require.NoError(t, p.Stop(context.Background()))
	assert.Equal(t, int32(50), n.Load())
	assert.Equal(t, uint64(50), p.Stats().Completed)
}

func TestSubmitNeverBlocks(t *testing.T) {
	p := New(WithWorkers(1), WithQueueSize(1))
	require.NoError(t, p.Start())

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func(context.Context) {
		close(started)
		<-release
	}))
	<-started
	require.NoError(t, p.Submit(context.Background(), func(context.Context) {}))

	err := p.Submit(context.Background(), func(context.Context) {})
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, uint64(1), p.Stats().Rejected)

	close(release)
	require.NoError(t, p.Stop(context.Background()))
}

func TestPanicIsRecovered(t *testing.T) {
	var got atomic.Value
	p := New(WithWorkers(1), WithPanicHandler(func(r any, _ []byte) { got.Store(r) }))
	require.NoError(t, p.Start())

	require.NoError(t, p.Submit(context.Background(), func(context.Context) { panic("boom") }))
	done := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func(context.Context) { close(done) }))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker died after panic")
	}
	assert.Equal(t, "boom", got.Load())
	assert.Equal(t, uint64(1), p.Stats().Panicked)
	require.NoError(t, p.Stop(context.Background()))
}

func TestCanceledTaskSkipped(t *testing.T) {
	p := New(WithWorkers(1))
	require.NoError(t, p.Start())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	require.NoError(t, p.Submit(ctx, func(context.Context) { ran.Store(true) }))
	require.NoError(t, p.Stop(context.Background()))
	assert.False(t, ran.Load())
}

func TestStopTimesOut(t *testing.T) {
	p := New(WithWorkers(1))
	require.NoError(t, p.Start())
	block := make(chan struct{})
	defer close(block)
	require.NoError(t, p.Submit(context.Background(), func(context.Context) { <-block }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Stop(ctx), context.DeadlineExceeded)
}

func TestSuspendFreesSlot(t *testing.T) {
	p := New(WithWorkers(1), WithQueueSize(4))
	require.NoError(t, p.Start())

	release := make(chan struct{})
	suspended := make(chan struct{})
	resumed := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func(ctx context.Context) {
		resume := Suspend(ctx)
		close(suspended)
		<-release
		resume()
		close(resumed)
	}))
	<-suspended

	ran := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func(context.Context) { close(ran) }))
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("suspended task kept its slot")
	}
	assert.Equal(t, int64(1), p.Stats().Suspended)

	close(release)
	<-resumed
	require.NoError(t, p.Stop(context.Background()))
	s := p.Stats()
	assert.Equal(t, int64(0), s.Suspended)
	assert.Equal(t, int64(0), s.Active)
	assert.Equal(t, uint64(2), s.Completed)
}

func TestResumeWaitsForSlot(t *testing.T) {
	p := New(WithWorkers(1), WithQueueSize(4))
	require.NoError(t, p.Start())

	var order []string
	var mu sync.Mutex
	note := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, s)
	}

	suspended := make(chan struct{})
	wake := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func(ctx context.Context) {
		resume := Suspend(ctx)
		close(suspended)
		<-wake
		resume()
		note("resumed")
	}))
	<-suspended

	holding := make(chan struct{})
	free := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func(context.Context) {
		close(holding)
		<-free
		note("other")
	}))
	<-holding
	close(wake)
	time.Sleep(20 * time.Millisecond)
	close(free)

	require.NoError(t, p.Stop(context.Background()))
	assert.Equal(t, []string{"other", "resumed"}, order)
}

func TestSuspendOutsidePoolIsNoop(t *testing.T) {
	resume := Suspend(context.Background())
	require.NotNil(t, resume)
	resume()
}
