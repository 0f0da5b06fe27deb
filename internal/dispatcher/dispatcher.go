// Package dispatcher turns incoming chat messages into command invocations.
//
// Handle runs on the gateway's delivery goroutine and never blocks on a
// command: matching is done inline, everything else (preconditions, the
// command body and its replies) runs on the worker pool.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/keshon/lakebot/internal/command"
	"github.com/keshon/lakebot/internal/event"
	"github.com/keshon/lakebot/internal/gateway"
	"github.com/keshon/lakebot/internal/logging"
	"github.com/keshon/lakebot/internal/report"
	"github.com/keshon/lakebot/pkg/cmd"
	"github.com/keshon/lakebot/pkg/pool"
)

// GenericFailure is shown to users when a command fails unexpectedly.
const GenericFailure = "Something went wrong while executing this command. The developers have been notified."

// Busy is shown when the worker queue is full.
const Busy = "I'm a bit overloaded right now. Please try again in a moment!"

type Dispatcher struct {
	svc      *command.Services
	pool     *pool.Pool
	reporter report.Reporter
	log      *logging.Logger
}

func New(svc *command.Services, p *pool.Pool, reporter report.Reporter) *Dispatcher {
	if svc.Log == nil {
		svc.Log = logging.Nop()
	}
	if reporter == nil {
		reporter = report.Log{Log: svc.Log}
	}
	return &Dispatcher{svc: svc, pool: p, reporter: reporter, log: svc.Log.Sub("dispatcher")}
}

// Match resolves a message to a command. It returns nil when the message is
// not a command invocation for this guild.
func (d *Dispatcher) Match(ev *event.Event) (cmd.Command, *command.Context, error) {
	prefix, err := d.svc.Storage.Prefix(ev.GuildID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve prefix: %w", err)
	}
	// Only the first token names the command, so "lb! ping" is not a match
	// and Args always follows the command token.
	fields := strings.Fields(ev.Content)
	if len(fields) == 0 {
		return nil, nil, nil
	}
	token := fields[0]
	if len(token) <= len(prefix) || !strings.EqualFold(token[:len(prefix)], prefix) {
		return nil, nil, nil
	}
	c, score := d.svc.Registry.Match(token[len(prefix):])
	if score == cmd.NoMatch {
		return nil, nil, nil
	}
	return c, &command.Context{
		Services: d.svc,
		Event:    ev,
		Prefix:   prefix,
		Command:  c.Name(),
		Args:     fields[1:],
	}, nil
}

// Handle dispatches one message event.
func (d *Dispatcher) Handle(ctx context.Context, ev *event.Event) error {
	if ev.Kind != event.MessageCreate || ev.Bot || !ev.InGuild() {
		return nil
	}

	if d.isBareMention(ev) {
		return d.submit(ctx, ev, func(ctx context.Context) error { return d.welcome(ctx, ev) })
	}

	c, cc, err := d.Match(ev)
	if err != nil || c == nil {
		return err
	}
	inv := &cmd.Invocation{Name: c.Name(), Args: cc.Args, Data: cc}
	d.log.Debug().Str("command", c.Name()).Str("user", ev.UserID).Str("channel", ev.ChannelID).Msg("dispatching")

	return d.submit(ctx, ev, func(ctx context.Context) error { return c.Run(ctx, inv) })
}

func (d *Dispatcher) isBareMention(ev *event.Event) bool {
	if d.svc.BotID == "" {
		return false
	}
	s := ev.Trimmed()
	return s == "<@"+d.svc.BotID+">" || s == "<@!"+d.svc.BotID+">"
}

func (d *Dispatcher) welcome(ctx context.Context, ev *event.Event) error {
	prefix, err := d.svc.Storage.Prefix(ev.GuildID)
	if err != nil {
		return err
	}
	name := d.svc.BotName
	if name == "" {
		name = "LakeBot"
	}
	_, err = d.svc.Gateway.Send(ctx, ev.ChannelID, gateway.Message{
		Author: "Welcome!",
		Color:  gateway.ColorSuccess,
		Description: fmt.Sprintf("Hello! Welcome to %s! Let's get started! To get documentation, type in the \"%shelp\" command.",
			name, prefix),
	})
	return err
}

func (d *Dispatcher) submit(ctx context.Context, ev *event.Event, run func(context.Context) error) error {
	err := d.pool.Submit(ctx, func(ctx context.Context) { d.execute(ctx, ev, run) })
	if errors.Is(err, pool.ErrQueueFull) {
		d.log.Warn().Str("user", ev.UserID).Msg("worker queue full, invocation rejected")
		go func() {
			_, _ = d.svc.Gateway.Send(context.WithoutCancel(ctx), ev.ChannelID, gateway.Failure(Busy))
		}()
		return nil
	}
	return err
}

// execute runs on a worker. Errors and panics stop here.
func (d *Dispatcher) execute(ctx context.Context, ev *event.Event, run func(context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			d.fail(ctx, ev, fmt.Errorf("panic: %v", r), true)
		}
	}()
	if err := run(ctx); err != nil {
		d.fail(ctx, ev, err, false)
	}
}

func (d *Dispatcher) fail(ctx context.Context, ev *event.Event, err error, panicked bool) {
	if gateway.IsPermission(err) {
		d.log.Debug().Err(err).Str("channel", ev.ChannelID).Msg("missing permissions")
		return
	}
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return
	}

	d.reporter.Report(ctx, report.Report{
		Command:  ev.Token(),
		Args:     ev.ArgsRaw(),
		GuildID:  ev.GuildID,
		UserID:   ev.UserID,
		Username: ev.Username,
		Content:  ev.Content,
		Err:      err,
		Panic:    panicked,
	})
	if _, serr := d.svc.Gateway.Send(context.WithoutCancel(ctx), ev.ChannelID, gateway.Failure(GenericFailure)); serr != nil {
		d.log.Debug().Err(serr).Msg("failed to send failure notice")
	}
}
