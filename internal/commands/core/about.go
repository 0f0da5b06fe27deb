package core

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/keshon/lakebot/internal/command"
	"github.com/keshon/lakebot/internal/gateway"
)

// Version is set at build time with -ldflags.
var Version = "dev"

type AboutCommand struct{}

func (c *AboutCommand) Name() string            { return "about" }
func (c *AboutCommand) Description() string     { return "Show complete information about the bot" }
func (c *AboutCommand) Aliases() []string       { return []string{"info", "stats"} }
func (c *AboutCommand) Usage() string           { return "" }
func (c *AboutCommand) Group() string           { return "general" }
func (c *AboutCommand) Cooldown() time.Duration { return 5 * time.Second }
func (c *AboutCommand) DeveloperOnly() bool     { return false }

func (c *AboutCommand) Run(ctx context.Context, cc *command.Context) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s is a multi-purpose chat bot written in Go.\n\n", cc.BotName)
	fmt.Fprintf(&sb, "**Commands**: %d\n", cc.Registry.Len())
	fmt.Fprintf(&sb, "**Bot Version**: %s\n", Version)
	fmt.Fprintf(&sb, "**Go Version**: %s\n", strings.TrimPrefix(runtime.Version(), "go"))
	fmt.Fprintf(&sb, "**Goroutines**: %d\n", runtime.NumGoroutine())
	fmt.Fprintf(&sb, "**Active Sessions**: %d\n", cc.Sessions.Len())
	fmt.Fprintf(&sb, "**Uptime**: %s\n", Uptime(time.Since(cc.Started)))
	if len(cc.Developers) > 0 {
		fmt.Fprintf(&sb, "**Developers**: %s\n", mentions(cc.Developers))
	}

	_, err := cc.Send(ctx, gateway.Message{
		Author:      cc.BotName,
		Description: sb.String(),
		Color:       gateway.ColorSuccess,
		Footer:      "Last Reboot",
		Timestamp:   cc.Started,
	})
	return err
}

// Uptime formats d as "1 day, 2 hours, 3 minutes and 4 seconds".
func Uptime(d time.Duration) string {
	d = d.Round(time.Second)
	units := []struct {
		n    int
		name string
	}{
		{int(d / (24 * time.Hour)), "day"},
		{int(d/time.Hour) % 24, "hour"},
		{int(d/time.Minute) % 60, "minute"},
		{int(d/time.Second) % 60, "second"},
	}
	var parts []string
	for _, u := range units {
		if u.n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", u.n, command.Plural(u.n, u.name)))
		}
	}
	switch len(parts) {
	case 0:
		return "0 seconds"
	case 1:
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}

func mentions(ids []string) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = command.Mention(id)
	}
	return strings.Join(out, ", ")
}
