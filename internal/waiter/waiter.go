// Package waiter turns the push-based gateway event stream into one-shot,
// predicate-based waits.
//
// Every await is registered in the partition of the kind it waits for. When an
// event is dispatched, the partitions of the event's kind and of every category
// it belongs to are scanned, and each await whose predicate matches is resolved
// with the event. An await resolves exactly once: match, predicate failure,
// timeout, cancellation and waiter shutdown all race through a single
// compare-and-swap, and only the winner delivers a Result.
package waiter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/keshon/lakebot/internal/event"
	"github.com/keshon/lakebot/internal/logging"
)

// ErrClosed is carried by results of awaits that were pending when the waiter
// was closed, and by registrations made after Close.
var ErrClosed = errors.New("waiter: closed")

// Predicate decides whether an event satisfies an await. A non-nil error
// resolves the await as Failed.
type Predicate func(ev *event.Event) (bool, error)

// Where adapts a plain boolean check to a Predicate.
func Where(f func(ev *event.Event) bool) Predicate {
	return func(ev *event.Event) (bool, error) {
		return f(ev), nil
	}
}

// Outcome is the way an await was resolved.
type Outcome int

const (
	Matched Outcome = iota
	TimedOut
	Canceled
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case TimedOut:
		return "timed_out"
	case Canceled:
		return "canceled"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Result is delivered exactly once per await.
type Result struct {
	Event   *event.Event
	Outcome Outcome
	Err     error
}

// Matched reports whether the await was resolved by an event.
func (r Result) Matched() bool { return r.Outcome == Matched && r.Event != nil }

// TimedOut reports whether the deadline fired first.
func (r Result) TimedOut() bool { return r.Outcome == TimedOut }

type partition struct {
	mu      sync.Mutex
	pending map[*Handle]struct{}
}

// Waiter is the process-wide registry of pending awaits.
type Waiter struct {
	// partitions is built once in New and never resized, so lookups need no lock.
	partitions map[event.Kind]*partition
	log        *logging.Logger

	closeMu sync.RWMutex
	closed  bool
}

// New creates a waiter with one partition per event kind and category.
func New(log *logging.Logger) *Waiter {
	if log == nil {
		log = logging.Nop()
	}
	w := &Waiter{
		partitions: make(map[event.Kind]*partition, len(event.Kinds())),
		log:        log.Sub("waiter"),
	}
	for _, k := range event.Kinds() {
		w.partitions[k] = &partition{pending: make(map[*Handle]struct{})}
	}
	return w
}

// Register adds an await for kind and returns immediately. The handle's Done
// channel receives exactly one Result. A timeout <= 0 waits until the await is
// matched, cancelled or the waiter is closed.
func (w *Waiter) Register(kind event.Kind, pred Predicate, timeout time.Duration) *Handle {
	h := newHandle(w, kind, pred)
	if timeout > 0 {
		h.deadline = time.Now().Add(timeout)
	}

	p, ok := w.partitions[kind]
	if !ok {
		h.resolve(Result{Outcome: Failed, Err: fmt.Errorf("waiter: unknown event kind %d", kind)})
		return h
	}

	w.closeMu.RLock()
	if w.closed {
		w.closeMu.RUnlock()
		h.resolve(Result{Outcome: Canceled, Err: ErrClosed})
		return h
	}
	p.mu.Lock()
	p.pending[h] = struct{}{}
	p.mu.Unlock()
	w.closeMu.RUnlock()

	if timeout > 0 {
		h.setTimer(time.AfterFunc(timeout, func() {
			if h.resolve(Result{Outcome: TimedOut}) {
				w.log.Debug().Str("await", h.id).Str("kind", kind.String()).Msg("await timed out")
			}
		}))
	}

	w.log.Debug().Str("await", h.id).Str("kind", kind.String()).Dur("timeout", timeout).Msg("await registered")
	return h
}

// Await registers an await and blocks until it resolves or ctx is done.
func (w *Waiter) Await(ctx context.Context, kind event.Kind, pred Predicate, timeout time.Duration) Result {
	return w.Register(kind, pred, timeout).Wait(ctx)
}

// Dispatch tests ev against every await registered under its kind and under
// each category it belongs to, resolving all matches. It returns the number of
// awaits this call resolved.
func (w *Waiter) Dispatch(ev *event.Event) int {
	if ev == nil {
		return 0
	}
	resolved := 0
	for _, k := range ev.Kind.Categories() {
		p := w.partitions[k]

		p.mu.Lock()
		if len(p.pending) == 0 {
			p.mu.Unlock()
			continue
		}
		snapshot := make([]*Handle, 0, len(p.pending))
		for h := range p.pending {
			snapshot = append(snapshot, h)
		}
		p.mu.Unlock()

		// Predicates run outside the partition lock so they may register
		// new awaits themselves.
		for _, h := range snapshot {
			if h.isResolved() {
				continue
			}
			ok, err := h.evaluate(ev)
			switch {
			case err != nil:
				if h.resolve(Result{Event: ev, Outcome: Failed, Err: err}) {
					resolved++
					w.log.Warn().Err(err).Str("await", h.id).Str("kind", k.String()).Msg("await predicate failed")
				}
			case ok:
				if h.resolve(Result{Event: ev, Outcome: Matched}) {
					resolved++
					w.log.Debug().Str("await", h.id).Str("kind", k.String()).Str("event", ev.Kind.String()).Msg("await matched")
				}
			}
		}
	}
	return resolved
}

// Len returns the number of pending awaits.
func (w *Waiter) Len() int {
	n := 0
	for _, p := range w.partitions {
		p.mu.Lock()
		n += len(p.pending)
		p.mu.Unlock()
	}
	return n
}

// Pending returns the number of pending awaits per non-empty partition.
func (w *Waiter) Pending() map[event.Kind]int {
	out := make(map[event.Kind]int)
	for k, p := range w.partitions {
		p.mu.Lock()
		if n := len(p.pending); n > 0 {
			out[k] = n
		}
		p.mu.Unlock()
	}
	return out
}

// Close resolves every pending await as Canceled with ErrClosed. Further
// registrations resolve immediately the same way.
func (w *Waiter) Close() {
	w.closeMu.Lock()
	if w.closed {
		w.closeMu.Unlock()
		return
	}
	w.closed = true
	w.closeMu.Unlock()

	var all []*Handle
	for _, p := range w.partitions {
		p.mu.Lock()
		for h := range p.pending {
			all = append(all, h)
		}
		p.mu.Unlock()
	}
	for _, h := range all {
		h.resolve(Result{Outcome: Canceled, Err: ErrClosed})
	}
	w.log.Debug().Int("canceled", len(all)).Msg("waiter closed")
}

func (w *Waiter) remove(h *Handle) {
	p, ok := w.partitions[h.kind]
	if !ok {
		return
	}
	p.mu.Lock()
	delete(p.pending, h)
	p.mu.Unlock()
}
