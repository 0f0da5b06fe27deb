// Package moderation holds the guild administration commands.
package moderation

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/keshon/lakebot/internal/command"
	"github.com/keshon/lakebot/internal/interact"
)

// MaxPrefixLength is the longest prefix a guild may choose.
const MaxPrefixLength = 5

type PrefixCommand struct{}

func (c *PrefixCommand) Name() string            { return "prefix" }
func (c *PrefixCommand) Description() string     { return "Change the server's command prefix" }
func (c *PrefixCommand) Aliases() []string       { return []string{"setprefix", "set-prefix"} }
func (c *PrefixCommand) Usage() string           { return "<prefix|reset>" }
func (c *PrefixCommand) Group() string           { return "moderation" }
func (c *PrefixCommand) Cooldown() time.Duration { return 5 * time.Second }
func (c *PrefixCommand) DeveloperOnly() bool     { return false }

func (c *PrefixCommand) Run(ctx context.Context, cc *command.Context) error {
	allowed, err := canManage(ctx, cc)
	if err != nil {
		return err
	}
	if !allowed {
		_, err = cc.Failure(ctx, "You do not have permissions for executing the command!")
		return err
	}
	if len(cc.Args) == 0 {
		_, err = cc.Failure(ctx, "You haven't specified any arguments!")
		return err
	}

	next := strings.ToLower(cc.Args[0])
	reset := next == "reset"
	if reset {
		next = cc.Storage.DefaultPrefix()
	} else if utf8.RuneCountInString(next) > MaxPrefixLength {
		_, err = cc.Failure(ctx, "The argument is unable to be used as a command prefix!")
		return err
	}

	answer, promptID, err := interact.Confirm(ctx, cc.Gateway, cc.Waiter, cc.Event.ChannelID, cc.Event.UserID,
		"Are you sure you want to change prefix for this server?", cc.AwaitTimeout)
	if promptID != "" {
		defer func() { _ = cc.Gateway.Delete(context.WithoutCancel(ctx), cc.Event.ChannelID, promptID) }()
	}
	if err != nil {
		return err
	}

	switch answer {
	case interact.Accepted:
		if reset {
			err = cc.Storage.ResetPrefix(cc.Event.GuildID)
		} else {
			err = cc.Storage.SetPrefix(cc.Event.GuildID, next)
		}
		if err != nil {
			return err
		}
		_, err = cc.Success(ctx, "Now the command prefix is %s", next)
	case interact.Declined:
		_, err = cc.Success(ctx, "Successfully canceled!")
	default:
		_, err = cc.Failure(ctx, "Time is up!")
	}
	return err
}

func canManage(ctx context.Context, cc *command.Context) (bool, error) {
	if cc.IsDeveloper(cc.Event.UserID) {
		return true, nil
	}
	if cc.Permissions == nil {
		return false, nil
	}
	return cc.Permissions.CanManageGuild(ctx, cc.Event.GuildID, cc.Event.ChannelID, cc.Event.UserID)
}
