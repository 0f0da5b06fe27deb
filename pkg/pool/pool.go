// Package pool runs tasks on a bounded number of worker slots fed by a bounded
// queue. Submit never blocks: when the queue is full the task is rejected.
//
// A task that has to wait on something outside the pool can give its slot
// back with Suspend, so a long wait does not starve the other tasks.
package pool

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrQueueFull      = errors.New("pool: queue full")
	ErrNotRunning     = errors.New("pool: not running")
	ErrAlreadyRunning = errors.New("pool: already running")
)

// Task is a unit of work. The context is the one passed to Submit, carrying
// the task's worker slot.
type Task func(ctx context.Context)

// PanicHandler receives panics recovered from tasks.
type PanicHandler func(recovered any, stack []byte)

type job struct {
	ctx  context.Context
	task Task
}

// Pool is a bounded worker pool.
type Pool struct {
	queueSize   int
	workerCount int
	onPanic     PanicHandler

	mu      sync.RWMutex // guards queue against close during Submit
	queue   chan job
	slots   chan struct{}
	running atomic.Bool
	wg      sync.WaitGroup

	// pending counts tasks accepted but not yet holding a slot.
	pending atomic.Int64

	submitted atomic.Uint64
	completed atomic.Uint64
	panicked  atomic.Uint64
	rejected  atomic.Uint64
	active    atomic.Int64
	suspended atomic.Int64
	totalNs   atomic.Int64
}

// Option configures a Pool.
type Option func(*Pool)

// WithQueueSize sets the queue capacity.
func WithQueueSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.queueSize = n
		}
	}
}

// WithWorkers sets how many tasks may run at once.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workerCount = n
		}
	}
}

// WithPanicHandler sets the handler for recovered panics.
func WithPanicHandler(h PanicHandler) Option {
	return func(p *Pool) { p.onPanic = h }
}

// New creates a stopped pool.
func New(opts ...Option) *Pool {
	p := &Pool{queueSize: 256, workerCount: 16}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the feeder.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running.Load() {
		return ErrAlreadyRunning
	}
	p.queue = make(chan job, p.queueSize)
	p.slots = make(chan struct{}, p.workerCount)
	p.running.Store(true)
	p.wg.Add(1)
	go p.feed(p.queue, p.slots)
	return nil
}

// Stop closes the queue and waits for queued and running tasks to finish, or
// for ctx to end.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running.Load() {
		p.mu.Unlock()
		return ErrNotRunning
	}
	p.running.Store(false)
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit queues task without blocking.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.running.Load() {
		return ErrNotRunning
	}
	if p.pending.Add(1) > int64(p.queueSize) {
		p.pending.Add(-1)
		p.rejected.Add(1)
		return ErrQueueFull
	}
	// pending never exceeds the buffer, so the send cannot block.
	p.queue <- job{ctx: ctx, task: task}
	p.submitted.Add(1)
	return nil
}

// feed starts each queued job once a slot is free.
func (p *Pool) feed(queue <-chan job, slots chan struct{}) {
	defer p.wg.Done()
	for j := range queue {
		slots <- struct{}{}
		p.pending.Add(-1)
		p.wg.Add(1)
		go p.run(j, &slot{pool: p, slots: slots, held: true})
	}
}

func (p *Pool) run(j job, s *slot) {
	start := time.Now()
	p.active.Add(1)
	defer func() {
		if r := recover(); r != nil {
			p.panicked.Add(1)
			if p.onPanic != nil {
				stack := debug.Stack()
				func() {
					defer func() { _ = recover() }()
					p.onPanic(r, stack)
				}()
			}
		}
		s.release()
		p.completed.Add(1)
		p.totalNs.Add(time.Since(start).Nanoseconds())
		p.wg.Done()
	}()

	if j.ctx.Err() != nil {
		return
	}
	j.task(context.WithValue(j.ctx, slotKey{}, s))
}

type slotKey struct{}

// slot is the worker slot owned by one running task.
type slot struct {
	pool  *Pool
	slots chan struct{}

	mu   sync.Mutex
	held bool
}

func (s *slot) release() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.held {
		return false
	}
	s.held = false
	<-s.slots
	s.pool.active.Add(-1)
	return true
}

func (s *slot) acquire() {
	s.slots <- struct{}{}
	s.mu.Lock()
	s.held = true
	s.mu.Unlock()
	s.pool.active.Add(1)
}

// Suspend gives the worker slot of the task running with ctx back to the
// pool and returns a func that takes a slot again. Call it around waits that
// do not need a worker:
//
//	defer pool.Suspend(ctx)()
//
// Outside a pool task, or when the slot is already given back, both calls do
// nothing.
func Suspend(ctx context.Context) (resume func()) {
	s, ok := ctx.Value(slotKey{}).(*slot)
	if !ok || !s.release() {
		return func() {}
	}
	s.pool.suspended.Add(1)
	return func() {
		s.acquire()
		s.pool.suspended.Add(-1)
	}
}

// Running reports whether the pool accepts tasks.
func (p *Pool) Running() bool { return p.running.Load() }

// Stats is a snapshot of pool counters.
type Stats struct {
	Workers     int           `json:"workers"`
	QueueSize   int           `json:"queue_size"`
	QueueDepth  int           `json:"queue_depth"`
	Active      int64         `json:"active"`
	Suspended   int64         `json:"suspended"`
	Submitted   uint64        `json:"submitted"`
	Completed   uint64        `json:"completed"`
	Panicked    uint64        `json:"panicked"`
	Rejected    uint64        `json:"rejected"`
	AvgDuration time.Duration `json:"avg_duration"`
}

func (p *Pool) Stats() Stats {
	completed := p.completed.Load()
	var avg time.Duration
	if completed > 0 {
		avg = time.Duration(p.totalNs.Load() / int64(completed))
	}
	return Stats{
		Workers:     p.workerCount,
		QueueSize:   p.queueSize,
		QueueDepth:  int(p.pending.Load()),
		Active:      p.active.Load(),
		Suspended:   p.suspended.Load(),
		Submitted:   p.submitted.Load(),
		Completed:   completed,
		Panicked:    p.panicked.Load(),
		Rejected:    p.rejected.Load(),
		AvgDuration: avg,
	}
}
