package waiter

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/keshon/lakebot/internal/event"
	"github.com/keshon/lakebot/pkg/pool"
)

// Handle is one pending await.
type Handle struct {
	id       string
	kind     event.Kind
	pred     Predicate
	w        *Waiter
	deadline time.Time

	done     chan Result
	resolved atomic.Bool

	timerMu sync.Mutex
	timer   *time.Timer
}

func newHandle(w *Waiter, kind event.Kind, pred Predicate) *Handle {
	return &Handle{
		id:   uuid.NewString(),
		kind: kind,
		pred: pred,
		w:    w,
		done: make(chan Result, 1),
	}
}

// ID returns the await's unique identifier.
func (h *Handle) ID() string { return h.id }

// Kind returns the partition the await was registered under.
func (h *Handle) Kind() event.Kind { return h.kind }

// Deadline returns when the await times out, or the zero time for none.
func (h *Handle) Deadline() time.Time { return h.deadline }

// Done receives the await's single Result.
func (h *Handle) Done() <-chan Result { return h.done }

// Wait blocks until the await resolves or ctx is done, in which case the
// await is cancelled. A pool task's worker slot is given back for the
// duration of the wait.
func (h *Handle) Wait(ctx context.Context) Result {
	defer pool.Suspend(ctx)()
	select {
	case r := <-h.done:
		return r
	case <-ctx.Done():
		h.resolve(Result{Outcome: Canceled, Err: ctx.Err()})
		// A concurrent match may have won just before the cancel; whichever
		// result won is the one delivered.
		return <-h.done
	}
}

// Cancel resolves the await as Canceled unless it already resolved. It
// reports whether this call won.
func (h *Handle) Cancel() bool {
	return h.resolve(Result{Outcome: Canceled})
}

func (h *Handle) isResolved() bool { return h.resolved.Load() }

// resolve is the single exit point of an await. Only the first caller wins;
// it unregisters the await, stops the deadline and delivers r.
func (h *Handle) resolve(r Result) bool {
	if !h.resolved.CompareAndSwap(false, true) {
		return false
	}
	if h.w != nil {
		h.w.remove(h)
	}
	h.timerMu.Lock()
	if h.timer != nil {
		h.timer.Stop()
	}
	h.timerMu.Unlock()

	h.done <- r
	return true
}

func (h *Handle) setTimer(t *time.Timer) {
	h.timerMu.Lock()
	defer h.timerMu.Unlock()
	if h.resolved.Load() {
		t.Stop()
		return
	}
	h.timer = t
}

func (h *Handle) evaluate(ev *event.Event) (ok bool, err error) {
	if h.pred == nil {
		return true, nil
	}
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = fmt.Errorf("waiter: predicate panic: %v", r)
		}
	}()
	return h.pred(ev)
}
