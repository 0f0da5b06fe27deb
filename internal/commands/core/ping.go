// Package core holds the informational commands every guild gets.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/keshon/lakebot/internal/command"
	"github.com/keshon/lakebot/internal/gateway"
)

type PingCommand struct{}

func (c *PingCommand) Name() string            { return "ping" }
func (c *PingCommand) Description() string     { return "Show the bot's current response time" }
func (c *PingCommand) Aliases() []string       { return []string{"delay", "response"} }
func (c *PingCommand) Usage() string           { return "" }
func (c *PingCommand) Group() string           { return "general" }
func (c *PingCommand) Cooldown() time.Duration { return 3 * time.Second }
func (c *PingCommand) DeveloperOnly() bool     { return false }

// Run measures the REST round trip of the first message and edits the
// result into it.
func (c *PingCommand) Run(ctx context.Context, cc *command.Context) error {
	start := time.Now()
	id, err := cc.Send(ctx, gateway.Message{Description: "Pinging...", Color: gateway.ColorSuccess})
	if err != nil {
		return err
	}
	rest := time.Since(start)

	fields := []gateway.Field{{Name: "Rest Ping", Value: millis(rest), Inline: true}}
	if cc.Latency != nil {
		fields = append(fields, gateway.Field{Name: "WebSocket Ping", Value: millis(cc.Latency()), Inline: true})
	}
	return cc.Gateway.Edit(ctx, cc.Event.ChannelID, id, gateway.Message{Color: gateway.ColorSuccess, Fields: fields})
}

func millis(d time.Duration) string {
	return fmt.Sprintf("%d ms", d.Milliseconds())
}
