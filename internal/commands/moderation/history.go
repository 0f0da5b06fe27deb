package moderation

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/keshon/lakebot/internal/command"
	"github.com/keshon/lakebot/internal/gateway"
	"github.com/keshon/lakebot/internal/paginator"
	"github.com/keshon/lakebot/internal/storage"
)

type HistoryCommand struct{}

func (c *HistoryCommand) Name() string            { return "history" }
func (c *HistoryCommand) Description() string     { return "Show the latest commands run on this server" }
func (c *HistoryCommand) Aliases() []string       { return []string{"cmdlog", "log"} }
func (c *HistoryCommand) Usage() string           { return "" }
func (c *HistoryCommand) Group() string           { return "moderation" }
func (c *HistoryCommand) Cooldown() time.Duration { return 5 * time.Second }
func (c *HistoryCommand) DeveloperOnly() bool     { return false }

func (c *HistoryCommand) Run(ctx context.Context, cc *command.Context) error {
	allowed, err := canManage(ctx, cc)
	if err != nil {
		return err
	}
	if !allowed {
		_, err = cc.Failure(ctx, "You do not have permissions for executing the command!")
		return err
	}

	records, err := cc.Storage.FetchCommandHistory(cc.Event.GuildID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		_, err = cc.Failure(ctx, "No commands have been run on this server yet!")
		return err
	}
	records = slices.Clone(records)
	slices.Reverse(records)

	p := &paginator.Paginator[storage.CommandHistoryRecord]{
		Gateway:   cc.Gateway,
		Waiter:    cc.Waiter,
		ChannelID: cc.Event.ChannelID,
		Items:     records,
		PageSize:  10,
		Users:     []string{cc.Event.UserID},
		Timeout:   cc.AwaitTimeout,
		Limiter:   cc.Limiter,
		Log:       cc.Log,
		Render: func(page, pages int, items []storage.CommandHistoryRecord) gateway.Message {
			var sb strings.Builder
			for _, r := range items {
				line := cc.Prefix + r.Command
				if r.Param != "" {
					line += " " + r.Param
				}
				fmt.Fprintf(&sb, "`%s` by %s <t:%d:R>\n", line, command.Mention(r.UserID), r.Datetime.Unix())
			}
			return gateway.Message{
				Author:      "Command History",
				Description: sb.String(),
				Color:       gateway.ColorSuccess,
				Footer:      fmt.Sprintf("Page %d/%d", page, pages),
			}
		},
	}
	return p.Run(ctx, 1)
}
