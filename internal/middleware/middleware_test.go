package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/lakebot/internal/command"
	"github.com/keshon/lakebot/internal/cooldown"
	"github.com/keshon/lakebot/internal/event"
	"github.com/keshon/lakebot/internal/gateway"
	"github.com/keshon/lakebot/internal/logging"
	"github.com/keshon/lakebot/internal/session"
	"github.com/keshon/lakebot/pkg/cmd"
)

type counter struct {
	cd  time.Duration
	ran int
}

func (c *counter) Name() string                               { return "count" }
func (c *counter) Description() string                        { return "" }
func (c *counter) Cooldown() time.Duration                    { return c.cd }
func (c *counter) Run(context.Context, *cmd.Invocation) error { c.ran++; return nil }

func invocation(gw gateway.Gateway, guild string) *cmd.Invocation {
	svc := &command.Services{
		Gateway:   gw,
		Sessions:  session.NewTracker(),
		Cooldowns: cooldown.New(),
		Log:       logging.Nop(),
	}
	ev := &event.Event{Kind: event.MessageCreate, GuildID: guild, ChannelID: "c", UserID: "u", Content: "lb!count"}
	return &cmd.Invocation{Data: &command.Context{Services: svc, Event: ev, Prefix: "lb!"}}
}

func TestGuildOnly(t *testing.T) {
	c := &counter{}
	wrapped := cmd.Apply(c, WithGuildOnly())
	require.NoError(t, wrapped.Run(context.Background(), invocation(gateway.NewRecorder(nil), "")))
	assert.Equal(t, 0, c.ran)
	require.NoError(t, wrapped.Run(context.Background(), invocation(gateway.NewRecorder(nil), "g")))
	assert.Equal(t, 1, c.ran)
}

func TestCooldownUsesRootCommand(t *testing.T) {
	c := &counter{cd: time.Minute}
	gw := gateway.NewRecorder(nil)
	wrapped := cmd.Apply(c, WithCooldown(), WithCommandLogger())
	inv := invocation(gw, "g")

	require.NoError(t, wrapped.Run(context.Background(), inv))
	require.NoError(t, wrapped.Run(context.Background(), inv))
	assert.Equal(t, 1, c.ran)
	last, ok := gw.Last()
	require.True(t, ok)
	assert.Equal(t, "Please wait 60 seconds before launching command again!", last.Message.Description)
}

func TestPayloadWithoutContextPassesThrough(t *testing.T) {
	c := &counter{}
	wrapped := cmd.Apply(c, Defaults()...)
	require.NoError(t, wrapped.Run(context.Background(), &cmd.Invocation{}))
	assert.Equal(t, 1, c.ran)
}

func TestCooldownMessage(t *testing.T) {
	assert.Equal(t, "Please wait 1 second before launching command again!", CooldownMessage(300*time.Millisecond))
	assert.Equal(t, "Please wait 5 seconds before launching command again!", CooldownMessage(4100*time.Millisecond))
}
