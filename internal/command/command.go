// Package command defines what a message command looks like and what it gets
// to work with when it runs.
package command

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/keshon/lakebot/internal/cooldown"
	"github.com/keshon/lakebot/internal/event"
	"github.com/keshon/lakebot/internal/gateway"
	"github.com/keshon/lakebot/internal/logging"
	"github.com/keshon/lakebot/internal/session"
	"github.com/keshon/lakebot/internal/storage"
	"github.com/keshon/lakebot/internal/waiter"
	"github.com/keshon/lakebot/pkg/cmd"
	"github.com/keshon/lakebot/pkg/retrylimit"
)

// Permissions answers guild permission questions the event itself does not
// carry.
type Permissions interface {
	CanManageGuild(ctx context.Context, guildID, channelID, userID string) (bool, error)
}

// Services are the long-lived collaborators shared by every invocation.
type Services struct {
	Gateway     gateway.Gateway
	Waiter      *waiter.Waiter
	Sessions    *session.Tracker
	Cooldowns   *cooldown.Tracker
	Storage     *storage.Storage
	Registry    *cmd.Registry
	Permissions Permissions
	Limiter     *retrylimit.AdaptiveLimiter
	Log         *logging.Logger

	BotName      string
	BotID        string
	Developers   []string
	AwaitTimeout time.Duration
	Started      time.Time
	// Shutdown asks the process to exit.
	Shutdown func()
	// Latency reports the gateway heartbeat latency, when known.
	Latency func() time.Duration
}

// IsDeveloper reports whether userID is one of the bot developers.
func (s *Services) IsDeveloper(userID string) bool {
	return slices.Contains(s.Developers, userID)
}

// Context is the per-invocation payload carried in cmd.Invocation.Data.
type Context struct {
	*Services
	Event  *event.Event
	Prefix string
	// Command is the name the invocation resolved to.
	Command string
	Args    []string
}

// ArgsRaw returns everything after the command token, unsplit.
func (c *Context) ArgsRaw() string { return c.Event.ArgsRaw() }

// Send posts msg to the invoking channel.
func (c *Context) Send(ctx context.Context, msg gateway.Message) (string, error) {
	return c.Gateway.Send(ctx, c.Event.ChannelID, msg)
}

// Success posts a success status message.
func (c *Context) Success(ctx context.Context, format string, args ...any) (string, error) {
	return c.Send(ctx, gateway.Success(fmt.Sprintf(format, args...)))
}

// Failure posts a failure status message.
func (c *Context) Failure(ctx context.Context, format string, args ...any) (string, error) {
	return c.Send(ctx, gateway.Failure(fmt.Sprintf(format, args...)))
}

// Usage formats the usage line of a command for this guild's prefix.
func (c *Context) Usage(command cmd.Command) string {
	u := c.Prefix + command.Name()
	if extra := cmd.UsageOf(command); extra != "" {
		u += " " + extra
	}
	return u
}

// Mention formats a user mention.
func Mention(userID string) string { return "<@" + userID + ">" }

// ParseMention extracts a user ID from "<@123>", "<@!123>" or a bare ID.
func ParseMention(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "<@") && strings.HasSuffix(s, ">") {
		s = strings.TrimPrefix(s[2:len(s)-1], "!")
	}
	if s == "" {
		return "", false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return s, true
}

// Plural returns word with an "s" unless n is 1.
func Plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
