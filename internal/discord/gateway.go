package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/lakebot/internal/gateway"
	"github.com/keshon/lakebot/pkg/retrylimit"
)

// Gateway implements gateway.Gateway over discordgo's REST client.
type Gateway struct {
	s   *discordgo.Session
	lim *retrylimit.AdaptiveLimiter
}

// NewGateway wraps s. Every call waits on lim first when it is non-nil.
func NewGateway(s *discordgo.Session, lim *retrylimit.AdaptiveLimiter) *Gateway {
	return &Gateway{s: s, lim: lim}
}

var _ gateway.Gateway = (*Gateway)(nil)

// call runs one REST request and feeds the outcome back to the limiter.
func (g *Gateway) call(ctx context.Context, fn func(opt discordgo.RequestOption) error) error {
	if g.lim != nil {
		if err := g.lim.Wait(ctx); err != nil {
			return err
		}
	}
	err := mapError(fn(discordgo.WithContext(ctx)))
	if g.lim != nil {
		if retrylimit.IsRateLimit(err) {
			g.lim.RateLimited()
		} else if err == nil {
			g.lim.Success()
		}
	}
	return err
}

func (g *Gateway) Send(ctx context.Context, channelID string, msg gateway.Message) (string, error) {
	var id string
	err := g.call(ctx, func(opt discordgo.RequestOption) error {
		m, err := g.s.ChannelMessageSendComplex(channelID, toSend(msg), opt)
		if err == nil {
			id = m.ID
		}
		return err
	})
	return id, err
}

func (g *Gateway) Edit(ctx context.Context, channelID, messageID string, msg gateway.Message) error {
	return g.call(ctx, func(opt discordgo.RequestOption) error {
		_, err := g.s.ChannelMessageEditComplex(toEdit(channelID, messageID, msg), opt)
		return err
	})
}

func (g *Gateway) Delete(ctx context.Context, channelID, messageID string) error {
	return g.call(ctx, func(opt discordgo.RequestOption) error {
		return g.s.ChannelMessageDelete(channelID, messageID, opt)
	})
}

func (g *Gateway) React(ctx context.Context, channelID, messageID, emoji string) error {
	return g.call(ctx, func(opt discordgo.RequestOption) error {
		return g.s.MessageReactionAdd(channelID, messageID, emoji, opt)
	})
}

func (g *Gateway) Unreact(ctx context.Context, channelID, messageID, emoji, userID string) error {
	return g.call(ctx, func(opt discordgo.RequestOption) error {
		return g.s.MessageReactionRemove(channelID, messageID, emoji, userID, opt)
	})
}

func (g *Gateway) ClearReactions(ctx context.Context, channelID, messageID string) error {
	return g.call(ctx, func(opt discordgo.RequestOption) error {
		return g.s.MessageReactionsRemoveAll(channelID, messageID, opt)
	})
}

func (g *Gateway) DirectMessage(ctx context.Context, userID string, msg gateway.Message) error {
	var channelID string
	if err := g.call(ctx, func(opt discordgo.RequestOption) error {
		ch, err := g.s.UserChannelCreate(userID, opt)
		if err == nil {
			channelID = ch.ID
		}
		return err
	}); err != nil {
		return fmt.Errorf("open dm with %s: %w", userID, err)
	}
	_, err := g.Send(ctx, channelID, msg)
	return err
}

// CanManageGuild reports whether userID holds Manage Server (or
// Administrator) in the channel.
func (g *Gateway) CanManageGuild(ctx context.Context, guildID, channelID, userID string) (bool, error) {
	if guild, err := g.s.State.Guild(guildID); err == nil && guild.OwnerID == userID {
		return true, nil
	}
	var perms int64
	err := g.call(ctx, func(opt discordgo.RequestOption) error {
		var err error
		perms, err = g.s.UserChannelPermissions(userID, channelID, opt)
		return err
	})
	if err != nil {
		return false, err
	}
	return HasManageGuild(perms), nil
}

// HasManageGuild checks a permission bit set.
func HasManageGuild(perms int64) bool {
	return perms&(discordgo.PermissionManageServer|discordgo.PermissionAdministrator) != 0
}

func toEmbed(msg gateway.Message) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       msg.Title,
		Description: msg.Description,
		Color:       msg.Color,
	}
	if msg.Author != "" {
		e.Author = &discordgo.MessageEmbedAuthor{Name: msg.Author, IconURL: msg.AuthorIcon}
	}
	if msg.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: msg.Footer, IconURL: msg.FooterIcon}
	}
	if msg.Thumbnail != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: msg.Thumbnail}
	}
	for _, f := range msg.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	if !msg.Timestamp.IsZero() {
		e.Timestamp = msg.Timestamp.UTC().Format(time.RFC3339)
	}
	return e
}

func toSend(msg gateway.Message) *discordgo.MessageSend {
	out := &discordgo.MessageSend{Content: msg.Content}
	if msg.HasEmbed() {
		out.Embeds = []*discordgo.MessageEmbed{toEmbed(msg)}
	}
	return out
}

func toEdit(channelID, messageID string, msg gateway.Message) *discordgo.MessageEdit {
	edit := discordgo.NewMessageEdit(channelID, messageID).SetContent(msg.Content)
	if msg.HasEmbed() {
		edit.SetEmbeds([]*discordgo.MessageEmbed{toEmbed(msg)})
	} else {
		edit.SetEmbeds([]*discordgo.MessageEmbed{})
	}
	return edit
}
