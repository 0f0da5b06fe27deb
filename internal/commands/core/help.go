package core

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/keshon/lakebot/internal/command"
	"github.com/keshon/lakebot/internal/config"
	"github.com/keshon/lakebot/internal/gateway"
	"github.com/keshon/lakebot/internal/paginator"
	"github.com/keshon/lakebot/pkg/cmd"
)

// HelpPageSize is the number of commands listed per help page.
const HelpPageSize = 10

type HelpCommand struct{}

func (c *HelpCommand) Name() string { return "help" }
func (c *HelpCommand) Description() string {
	return "Get a list of available commands or details about one"
}
func (c *HelpCommand) Aliases() []string       { return []string{"commands", "h"} }
func (c *HelpCommand) Usage() string           { return "[command]" }
func (c *HelpCommand) Group() string           { return "general" }
func (c *HelpCommand) Cooldown() time.Duration { return 3 * time.Second }
func (c *HelpCommand) DeveloperOnly() bool     { return false }

func (c *HelpCommand) Run(ctx context.Context, cc *command.Context) error {
	if len(cc.Args) > 0 {
		return c.details(ctx, cc, cc.Args[0])
	}

	visible := Visible(cc.Registry.GetAll(), cc.IsDeveloper(cc.Event.UserID))
	p := &paginator.Paginator[cmd.Command]{
		Gateway:   cc.Gateway,
		Waiter:    cc.Waiter,
		ChannelID: cc.Event.ChannelID,
		Items:     visible,
		PageSize:  HelpPageSize,
		Users:     []string{cc.Event.UserID},
		Timeout:   cc.AwaitTimeout,
		Limiter:   cc.Limiter,
		Log:       cc.Log,
		Render: func(page, pages int, items []cmd.Command) gateway.Message {
			return gateway.Message{
				Title:       cc.BotName + " Help",
				Description: listing(items),
				Color:       gateway.ColorSuccess,
				Footer: fmt.Sprintf("Page %d/%d • Type in \"%shelp <command>\" for details",
					page, pages, cc.Prefix),
			}
		},
	}
	return p.Run(ctx, 1)
}

func (c *HelpCommand) details(ctx context.Context, cc *command.Context, token string) error {
	found, score := cc.Registry.Match(strings.ToLower(token))
	if score == cmd.NoMatch || (cmd.DeveloperOnly(found) && !cc.IsDeveloper(cc.Event.UserID)) {
		_, err := cc.Failure(ctx, "Command was not found!")
		return err
	}

	aliases := "None"
	if a := cmd.AliasesOf(found); len(a) > 0 {
		aliases = strings.Join(a, ", ")
	}
	cooldown := "None"
	if cd := cmd.CooldownOf(found); cd > 0 {
		cooldown = cd.String()
	}
	_, err := cc.Send(ctx, gateway.Message{
		Author:      "Command: " + found.Name(),
		Description: found.Description(),
		Color:       gateway.ColorSuccess,
		Fields: []gateway.Field{
			{Name: "Usage", Value: "`" + cc.Usage(found) + "`"},
			{Name: "Aliases", Value: aliases},
			{Name: "Group", Value: cmd.GroupOf(found), Inline: true},
			{Name: "Cooldown", Value: cooldown, Inline: true},
		},
	})
	return err
}

// Visible returns the commands a caller may see, ordered by group weight and
// then by name.
func Visible(all []cmd.Command, developer bool) []cmd.Command {
	out := make([]cmd.Command, 0, len(all))
	for _, c := range all {
		if cmd.DeveloperOnly(c) && !developer {
			continue
		}
		out = append(out, c)
	}
	slices.SortStableFunc(out, func(a, b cmd.Command) int {
		wa, wb := config.GroupWeight(cmd.GroupOf(a)), config.GroupWeight(cmd.GroupOf(b))
		if wa != wb {
			return wa - wb
		}
		return strings.Compare(a.Name(), b.Name())
	})
	return out
}

func listing(items []cmd.Command) string {
	var sb strings.Builder
	group := ""
	for _, c := range items {
		if g := cmd.GroupOf(c); g != group {
			group = g
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			fmt.Fprintf(&sb, "**%s**\n", strings.ToUpper(g[:1])+g[1:])
		}
		fmt.Fprintf(&sb, "`%s` - %s\n", c.Name(), c.Description())
	}
	return sb.String()
}
