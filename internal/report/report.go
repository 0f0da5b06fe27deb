// Package report delivers unexpected failures to the bot operators.
package report

import (
	"context"
	"fmt"

	"github.com/keshon/lakebot/internal/gateway"
	"github.com/keshon/lakebot/internal/logging"
	"github.com/keshon/lakebot/pkg/util"
)

// Report describes one failure with the context it happened in.
type Report struct {
	Command  string
	Args     string
	GuildID  string
	UserID   string
	Username string
	Content  string
	Err      error
	Panic    bool
}

// Reporter receives failure reports. Implementations must not block for long.
type Reporter interface {
	Report(ctx context.Context, r Report)
}

// Log writes reports to the logger.
type Log struct {
	Log *logging.Logger
}

func (l Log) Report(_ context.Context, r Report) {
	l.Log.Error().Err(r.Err).Str("command", r.Command).Str("args", r.Args).Str("guild", r.GuildID).
		Str("user", r.UserID).Bool("panic", r.Panic).Msg("command failed")
}

// Operators direct-messages every operator a failure embed, and logs it.
type Operators struct {
	Gateway   gateway.Gateway
	Operators []string
	Log       *logging.Logger
}

func (o Operators) Report(ctx context.Context, r Report) {
	Log{Log: o.Log}.Report(ctx, r)
	msg := Embed(r)
	err := util.Parallel(ctx, o.Operators, 4, false, func(ctx context.Context, userID string) error {
		return o.Gateway.DirectMessage(ctx, userID, msg)
	})
	if err != nil {
		o.Log.Warn().Err(err).Msg("failed to deliver report to operators")
	}
}

// Embed renders a report as a failure message.
func Embed(r Report) gateway.Message {
	title := "Command error"
	if r.Panic {
		title = "Command panic"
	}
	desc := "unknown error"
	if r.Err != nil {
		desc = r.Err.Error()
	}
	return gateway.Message{
		Title:       title,
		Description: fmt.Sprintf("```\n%s\n```", desc),
		Color:       gateway.ColorFailure,
		Fields: []gateway.Field{
			{Name: "Command", Value: orNone(r.Command), Inline: true},
			{Name: "Arguments", Value: orNone(r.Args), Inline: true},
			{Name: "Guild ID", Value: orNone(r.GuildID), Inline: true},
			{Name: "Author", Value: orNone(r.Username), Inline: true},
			{Name: "Author ID", Value: orNone(r.UserID), Inline: true},
			{Name: "Message", Value: orNone(r.Content)},
		},
	}
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
