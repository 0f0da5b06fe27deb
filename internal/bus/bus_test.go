package bus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/lakebot/internal/event"
	"github.com/keshon/lakebot/internal/gateway"
	"github.com/keshon/lakebot/internal/report"
	"github.com/keshon/lakebot/internal/waiter"
)

type handlerFunc func(ctx context.Context, ev *event.Event) error

func (f handlerFunc) Handle(ctx context.Context, ev *event.Event) error { return f(ctx, ev) }

type sink struct {
	mu  sync.Mutex
	got []report.Report
}

func (s *sink) Report(_ context.Context, r report.Report) {
	s.mu.Lock()
	s.got = append(s.got, r)
	s.mu.Unlock()
}

func TestForwardOrder(t *testing.T) {
	w := waiter.New(nil)
	var seen []event.Kind
	a := New(w, handlerFunc(func(_ context.Context, ev *event.Event) error {
		// The waiter has already resolved its awaits by the time the
		// dispatcher sees the message.
		assert.Equal(t, 0, w.Len())
		seen = append(seen, ev.Kind)
		return nil
	}), nil, nil)

	h := w.Register(event.Message, nil, time.Second)
	a.Forward(context.Background(), &event.Event{Kind: event.MessageCreate, Content: "hi"})
	a.Forward(context.Background(), &event.Event{Kind: event.ReactionAdd})

	r := <-h.Done()
	assert.True(t, r.Matched())
	assert.Equal(t, []event.Kind{event.MessageCreate}, seen)
	assert.Equal(t, Stats{Forwarded: 2, Resolved: 1}, a.Stats())
}

func TestForwardSwallowsPermissionErrors(t *testing.T) {
	s := &sink{}
	a := New(waiter.New(nil), handlerFunc(func(context.Context, *event.Event) error {
		return gateway.ErrPermission
	}), s, nil)
	a.Forward(context.Background(), &event.Event{Kind: event.MessageCreate})
	assert.Empty(t, s.got)
	assert.Equal(t, uint64(0), a.Stats().Failures)
}

func TestForwardReportsOtherFailuresAndKeepsGoing(t *testing.T) {
	s := &sink{}
	calls := 0
	a := New(waiter.New(nil), handlerFunc(func(_ context.Context, ev *event.Event) error {
		calls++
		switch ev.Content {
		case "err", "lb!ban @x spam":
			return errors.New("broken store")
		case "panic":
			panic("boom")
		}
		return nil
	}), s, nil)

	ctx := context.Background()
	a.Forward(ctx, &event.Event{Kind: event.MessageCreate, GuildID: "g", UserID: "u", Content: "err"})
	a.Forward(ctx, &event.Event{Kind: event.MessageCreate, GuildID: "g", UserID: "u", Content: "lb!ban @x spam"})
	assert.NotPanics(t, func() {
		a.Forward(ctx, &event.Event{Kind: event.MessageCreate, Content: "panic"})
	})
	a.Forward(ctx, &event.Event{Kind: event.MessageCreate, Content: "fine"})

	assert.Equal(t, 4, calls)
	require.Len(t, s.got, 3)
	assert.Equal(t, "g", s.got[0].GuildID)
	assert.False(t, s.got[0].Panic)
	assert.Equal(t, "lb!ban", s.got[1].Command)
	assert.Equal(t, "@x spam", s.got[1].Args)
	assert.True(t, s.got[2].Panic)
}

func TestForwardNil(t *testing.T) {
	a := New(waiter.New(nil), nil, nil, nil)
	a.Forward(context.Background(), nil)
	a.Forward(context.Background(), &event.Event{Kind: event.MessageCreate})
	assert.Equal(t, uint64(1), a.Stats().Forwarded)
}
