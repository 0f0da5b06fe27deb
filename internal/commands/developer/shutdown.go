package developer

import (
	"context"
	"time"

	"github.com/keshon/lakebot/internal/command"
	"github.com/keshon/lakebot/internal/interact"
)

type ShutdownCommand struct{}

func (c *ShutdownCommand) Name() string            { return "shutdown" }
func (c *ShutdownCommand) Description() string     { return "Shut the bot down" }
func (c *ShutdownCommand) Aliases() []string       { return nil }
func (c *ShutdownCommand) Usage() string           { return "" }
func (c *ShutdownCommand) Group() string           { return "developer" }
func (c *ShutdownCommand) Cooldown() time.Duration { return 0 }
func (c *ShutdownCommand) DeveloperOnly() bool     { return true }

func (c *ShutdownCommand) Run(ctx context.Context, cc *command.Context) error {
	answer, promptID, err := interact.Confirm(ctx, cc.Gateway, cc.Waiter, cc.Event.ChannelID, cc.Event.UserID,
		"Are you sure want to shutdown "+cc.BotName+"?", cc.AwaitTimeout)
	if promptID != "" {
		defer func() { _ = cc.Gateway.Delete(context.WithoutCancel(ctx), cc.Event.ChannelID, promptID) }()
	}
	if err != nil {
		return err
	}

	switch answer {
	case interact.Accepted:
		cc.Log.Info().Str("by", cc.Event.UserID).Msg("shutdown requested")
		if _, err := cc.Success(ctx, "Successfully disconnected!"); err != nil {
			cc.Log.Warn().Err(err).Msg("shutdown notice")
		}
		if cc.Shutdown != nil {
			cc.Shutdown()
		}
		return nil
	case interact.Declined:
		_, err = cc.Success(ctx, "Successfully cancelled!")
	default:
		_, err = cc.Failure(ctx, "Time is up!")
	}
	return err
}
