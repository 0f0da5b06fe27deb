package discord

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/lakebot/internal/event"
	"github.com/keshon/lakebot/internal/gateway"
	"github.com/keshon/lakebot/pkg/retrylimit"
)

func restError(status, code int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status, Status: http.StatusText(status)},
		Message:  &discordgo.APIErrorMessage{Code: code},
	}
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))

	plain := errors.New("socket closed")
	assert.Same(t, plain, mapError(plain))

	assert.True(t, gateway.IsPermission(mapError(restError(http.StatusForbidden, 0))))
	assert.True(t, gateway.IsPermission(mapError(restError(http.StatusBadRequest, discordgo.ErrCodeMissingPermissions))))
	assert.True(t, gateway.IsPermission(mapError(fmt.Errorf("edit: %w", restError(http.StatusNotFound, discordgo.ErrCodeMissingAccess)))))

	server := mapError(restError(http.StatusBadGateway, 0))
	assert.False(t, gateway.IsPermission(server))
	assert.True(t, retrylimit.IsServerError(server))

	limited := mapError(&discordgo.RateLimitError{RateLimit: &discordgo.RateLimit{
		TooManyRequests: &discordgo.TooManyRequests{RetryAfter: 2 * time.Second},
		URL:             "/channels/1/messages",
	}})
	assert.True(t, retrylimit.IsRateLimit(limited))
	var rl *RateLimitError
	require.ErrorAs(t, limited, &rl)
	assert.Equal(t, 2*time.Second, rl.RetryAfter())

	assert.True(t, retrylimit.IsRateLimit(mapError(restError(http.StatusTooManyRequests, 0))))
}

func TestToSend(t *testing.T) {
	plain := toSend(gateway.Message{Content: "hi"})
	assert.Equal(t, "hi", plain.Content)
	assert.Empty(t, plain.Embeds)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	msg := toSend(gateway.Message{
		Author:      "Attempt #1",
		Description: "Let's go!",
		Color:       gateway.ColorSuccess,
		Footer:      "Type in \"exit\" to kill the process",
		Fields:      []gateway.Field{{Name: "Rest Ping", Value: "10 ms", Inline: true}},
		Timestamp:   at,
	})
	require.Len(t, msg.Embeds, 1)
	e := msg.Embeds[0]
	assert.Equal(t, "Attempt #1", e.Author.Name)
	assert.Equal(t, gateway.ColorSuccess, e.Color)
	assert.Equal(t, "Type in \"exit\" to kill the process", e.Footer.Text)
	assert.True(t, e.Fields[0].Inline)
	assert.Equal(t, "2024-05-01T12:00:00Z", e.Timestamp)
}

func TestToEditClearsEmbedsForPlainText(t *testing.T) {
	edit := toEdit("c", "m", gateway.Message{Content: "plain"})
	require.NotNil(t, edit.Content)
	assert.Equal(t, "plain", *edit.Content)
	require.NotNil(t, edit.Embeds)
	assert.Empty(t, *edit.Embeds)

	edit = toEdit("c", "m", gateway.Success("done"))
	require.Len(t, *edit.Embeds, 1)
	assert.Equal(t, "done", (*edit.Embeds)[0].Description)
}

func TestFromMessage(t *testing.T) {
	ev := fromMessage(event.MessageCreate, &discordgo.Message{
		ID: "m", ChannelID: "c", GuildID: "g", Content: "lb!ping",
		Author:   &discordgo.User{ID: "u", Username: "lake", Bot: true},
		Mentions: []*discordgo.User{{ID: "bot"}},
	})
	assert.Equal(t, event.MessageCreate, ev.Kind)
	assert.True(t, ev.IsFrom("u", "c"))
	assert.True(t, ev.Bot)
	assert.True(t, ev.Mentioned("bot"))
	assert.False(t, ev.Time.IsZero())

	deleted := fromMessage(event.MessageDelete, &discordgo.Message{ID: "m", ChannelID: "c"})
	assert.Empty(t, deleted.UserID)
}

func TestFromReaction(t *testing.T) {
	ev := fromReaction(event.ReactionAdd, &discordgo.MessageReaction{
		UserID: "u", MessageID: "m", ChannelID: "c", GuildID: "g",
		Emoji: discordgo.Emoji{Name: "▶"},
	}, &discordgo.Member{User: &discordgo.User{ID: "u", Username: "lake"}})
	assert.Equal(t, "▶", ev.Emoji)
	assert.Equal(t, "lake", ev.Username)

	custom := fromReaction(event.ReactionAdd, &discordgo.MessageReaction{
		Emoji: discordgo.Emoji{Name: "lake", ID: "123"},
	}, nil)
	assert.Equal(t, "lake:123", custom.Emoji)
}

func TestFromVoiceState(t *testing.T) {
	join := fromVoiceState(&discordgo.VoiceStateUpdate{VoiceState: &discordgo.VoiceState{UserID: "u", ChannelID: "v1"}})
	require.NotNil(t, join)
	assert.Equal(t, event.VoiceJoin, join.Kind)

	leave := fromVoiceState(&discordgo.VoiceStateUpdate{
		VoiceState:   &discordgo.VoiceState{UserID: "u"},
		BeforeUpdate: &discordgo.VoiceState{ChannelID: "v1"},
	})
	require.NotNil(t, leave)
	assert.Equal(t, event.VoiceLeave, leave.Kind)
	assert.Equal(t, "v1", leave.ChannelID)

	mute := fromVoiceState(&discordgo.VoiceStateUpdate{
		VoiceState:   &discordgo.VoiceState{UserID: "u", ChannelID: "v1", SelfMute: true},
		BeforeUpdate: &discordgo.VoiceState{ChannelID: "v1"},
	})
	assert.Nil(t, mute)
}

func TestHasManageGuild(t *testing.T) {
	assert.True(t, HasManageGuild(discordgo.PermissionManageServer))
	assert.True(t, HasManageGuild(discordgo.PermissionAdministrator|discordgo.PermissionSendMessages))
	assert.False(t, HasManageGuild(discordgo.PermissionSendMessages))
}
