package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/lakebot/internal/event"
)

func fromMessage(kind event.Kind, m *discordgo.Message) *event.Event {
	ev := &event.Event{
		Kind:      kind,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		Content:   m.Content,
		Time:      m.Timestamp,
		Raw:       m,
	}
	if m.Author != nil {
		ev.UserID = m.Author.ID
		ev.Username = m.Author.Username
		ev.Bot = m.Author.Bot
	}
	for _, u := range m.Mentions {
		if u != nil {
			ev.Mentions = append(ev.Mentions, u.ID)
		}
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	return ev
}

func fromReaction(kind event.Kind, r *discordgo.MessageReaction, member *discordgo.Member) *event.Event {
	ev := &event.Event{
		Kind:      kind,
		GuildID:   r.GuildID,
		ChannelID: r.ChannelID,
		UserID:    r.UserID,
		MessageID: r.MessageID,
		Emoji:     r.Emoji.APIName(),
		Time:      time.Now(),
		Raw:       r,
	}
	if member != nil && member.User != nil {
		ev.Username = member.User.Username
		ev.Bot = member.User.Bot
	}
	return ev
}

// fromVoiceState reports joins (including moves) and leaves. Mute and deafen
// updates yield nil.
func fromVoiceState(v *discordgo.VoiceStateUpdate) *event.Event {
	before := ""
	if v.BeforeUpdate != nil {
		before = v.BeforeUpdate.ChannelID
	}
	if before == v.ChannelID {
		return nil
	}

	ev := &event.Event{
		GuildID:   v.GuildID,
		ChannelID: v.ChannelID,
		UserID:    v.UserID,
		Time:      time.Now(),
		Raw:       v,
	}
	if v.ChannelID == "" {
		ev.Kind = event.VoiceLeave
		ev.ChannelID = before
	} else {
		ev.Kind = event.VoiceJoin
	}
	if v.Member != nil && v.Member.User != nil {
		ev.Username = v.Member.User.Username
		ev.Bot = v.Member.User.Bot
	}
	return ev
}
