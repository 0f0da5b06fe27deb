// Package bus is the single entry point for gateway events: every event goes
// to the waiter, and message events go on to the command dispatcher.
package bus

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/keshon/lakebot/internal/event"
	"github.com/keshon/lakebot/internal/gateway"
	"github.com/keshon/lakebot/internal/logging"
	"github.com/keshon/lakebot/internal/report"
	"github.com/keshon/lakebot/internal/waiter"
)

// Handler receives message events after the waiter has seen them.
type Handler interface {
	Handle(ctx context.Context, ev *event.Event) error
}

type Adapter struct {
	waiter   *waiter.Waiter
	handler  Handler
	reporter report.Reporter
	log      *logging.Logger

	forwarded atomic.Uint64
	resolved  atomic.Uint64
	failures  atomic.Uint64
}

func New(w *waiter.Waiter, h Handler, r report.Reporter, log *logging.Logger) *Adapter {
	if log == nil {
		log = logging.Nop()
	}
	if r == nil {
		r = report.Log{Log: log}
	}
	return &Adapter{waiter: w, handler: h, reporter: r, log: log.Sub("bus")}
}

// Forward delivers one event. It never panics and never returns an error:
// failures are logged or reported so the gateway keeps delivering.
func (a *Adapter) Forward(ctx context.Context, ev *event.Event) {
	if ev == nil {
		return
	}
	a.forwarded.Add(1)
	defer func() {
		if r := recover(); r != nil {
			a.failed(ctx, ev, fmt.Errorf("panic while forwarding %s: %v", ev.Kind, r), true)
		}
	}()

	a.resolved.Add(uint64(a.waiter.Dispatch(ev)))

	if ev.Kind != event.MessageCreate || a.handler == nil {
		return
	}
	if err := a.handler.Handle(ctx, ev); err != nil {
		a.failed(ctx, ev, err, false)
	}
}

func (a *Adapter) failed(ctx context.Context, ev *event.Event, err error, panicked bool) {
	if gateway.IsPermission(err) {
		a.log.Debug().Err(err).Str("channel", ev.ChannelID).Msg("missing permissions")
		return
	}
	a.failures.Add(1)
	a.reporter.Report(ctx, report.Report{
		Command:  ev.Token(),
		Args:     ev.ArgsRaw(),
		GuildID:  ev.GuildID,
		UserID:   ev.UserID,
		Username: ev.Username,
		Content:  ev.Content,
		Err:      err,
		Panic:    panicked,
	})
}

// Stats are the adapter counters.
type Stats struct {
	Forwarded uint64 `json:"forwarded"`
	Resolved  uint64 `json:"resolved"`
	Failures  uint64 `json:"failures"`
}

func (a *Adapter) Stats() Stats {
	return Stats{
		Forwarded: a.forwarded.Load(),
		Resolved:  a.resolved.Load(),
		Failures:  a.failures.Load(),
	}
}
