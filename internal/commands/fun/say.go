package fun

import (
	"context"
	"time"

	"github.com/keshon/lakebot/internal/command"
	"github.com/keshon/lakebot/internal/gateway"
)

type SayCommand struct{}

func (c *SayCommand) Name() string            { return "say" }
func (c *SayCommand) Description() string     { return "Send your message on behalf of the bot" }
func (c *SayCommand) Aliases() []string       { return []string{"announce"} }
func (c *SayCommand) Usage() string           { return "<content>" }
func (c *SayCommand) Group() string           { return "fun" }
func (c *SayCommand) Cooldown() time.Duration { return 3 * time.Second }
func (c *SayCommand) DeveloperOnly() bool     { return false }

func (c *SayCommand) Run(ctx context.Context, cc *command.Context) error {
	content := cc.ArgsRaw()
	if content == "" {
		_, err := cc.Failure(ctx, "You haven't specified any arguments!")
		return err
	}
	if _, err := cc.Send(ctx, gateway.Message{
		Author:      cc.Event.Username,
		Description: content,
		Color:       gateway.ColorSuccess,
	}); err != nil {
		return err
	}
	// The source message may belong to someone the bot cannot moderate.
	if err := cc.Gateway.Delete(ctx, cc.Event.ChannelID, cc.Event.MessageID); err != nil && !gateway.IsPermission(err) {
		cc.Log.Debug().Err(err).Msg("delete say source message")
	}
	return nil
}
