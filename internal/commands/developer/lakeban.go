// Package developer holds the commands reserved for the bot developers.
package developer

import (
	"context"
	"strings"
	"time"

	"github.com/keshon/lakebot/internal/command"
	"github.com/keshon/lakebot/internal/storage"
)

// DefaultReason is recorded when a ban is issued without one.
const DefaultReason = "No reason provided"

type LakeBanCommand struct{}

func (c *LakeBanCommand) Name() string            { return "lakeban" }
func (c *LakeBanCommand) Description() string     { return "Forbid a user from running any command" }
func (c *LakeBanCommand) Aliases() []string       { return []string{"ban", "sanction"} }
func (c *LakeBanCommand) Usage() string           { return "<user> [reason]" }
func (c *LakeBanCommand) Group() string           { return "developer" }
func (c *LakeBanCommand) Cooldown() time.Duration { return 0 }
func (c *LakeBanCommand) DeveloperOnly() bool     { return true }

func (c *LakeBanCommand) Run(ctx context.Context, cc *command.Context) error {
	if len(cc.Args) == 0 {
		_, err := cc.Failure(ctx, "You haven't specified any arguments!")
		return err
	}
	userID, ok := command.ParseMention(cc.Args[0])
	if !ok {
		_, err := cc.Failure(ctx, "Couldn't find this user!")
		return err
	}
	if cc.IsDeveloper(userID) || userID == cc.BotID {
		_, err := cc.Failure(ctx, "This user can't be banned!")
		return err
	}

	reason := strings.TrimSpace(strings.TrimPrefix(cc.ArgsRaw(), cc.Args[0]))
	if reason == "" {
		reason = DefaultReason
	}
	if err := cc.Storage.AddSanction(storage.Sanction{
		UserID: userID,
		Reason: reason,
		By:     cc.Event.UserID,
		At:     time.Now(),
	}); err != nil {
		return err
	}
	cc.Log.Info().Str("user", userID).Str("by", cc.Event.UserID).Str("reason", reason).Msg("user sanctioned")
	_, err := cc.Success(ctx, "%s got LakeBan for `%s`!", command.Mention(userID), reason)
	return err
}

type UnbanCommand struct{}

func (c *UnbanCommand) Name() string            { return "unban" }
func (c *UnbanCommand) Description() string     { return "Lift a user's LakeBan" }
func (c *UnbanCommand) Aliases() []string       { return []string{"lakeunban", "pardon"} }
func (c *UnbanCommand) Usage() string           { return "<user>" }
func (c *UnbanCommand) Group() string           { return "developer" }
func (c *UnbanCommand) Cooldown() time.Duration { return 0 }
func (c *UnbanCommand) DeveloperOnly() bool     { return true }

func (c *UnbanCommand) Run(ctx context.Context, cc *command.Context) error {
	if len(cc.Args) == 0 {
		_, err := cc.Failure(ctx, "You haven't specified any arguments!")
		return err
	}
	userID, ok := command.ParseMention(cc.Args[0])
	if !ok {
		_, err := cc.Failure(ctx, "Couldn't find this user!")
		return err
	}
	removed, err := cc.Storage.RemoveSanction(userID)
	if err != nil {
		return err
	}
	if !removed {
		_, err = cc.Failure(ctx, "%s doesn't have a LakeBan!", command.Mention(userID))
		return err
	}
	_, err = cc.Success(ctx, "%s is no longer banned!", command.Mention(userID))
	return err
}
