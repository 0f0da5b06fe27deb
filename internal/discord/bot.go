// Package discord connects the bot to Discord: it turns gateway events into
// event.Event values for the bus and implements gateway.Gateway over REST.
package discord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/lakebot/internal/event"
	"github.com/keshon/lakebot/internal/logging"
)

// Intents are the gateway intents the bot identifies with.
const Intents = discordgo.IntentGuilds |
	discordgo.IntentGuildMessages |
	discordgo.IntentGuildMessageReactions |
	discordgo.IntentGuildVoiceStates |
	discordgo.IntentDirectMessages |
	discordgo.IntentMessageContent

// ForwardFunc receives every translated event.
type ForwardFunc func(ctx context.Context, ev *event.Event)

// Self identifies the bot account.
type Self struct {
	ID       string
	Username string
}

// Bot owns the discordgo session.
type Bot struct {
	s   *discordgo.Session
	log *logging.Logger

	forward ForwardFunc
	onReady func(Self)
	once    sync.Once
	ctx     context.Context
}

// NewBot creates a session for token. Events are delivered one at a time in
// arrival order.
func NewBot(token string, log *logging.Logger) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.SyncEvents = true
	s.Identify.Intents = Intents
	if log == nil {
		log = logging.Nop()
	}
	return &Bot{s: s, log: log.Sub("discord"), ctx: context.Background()}, nil
}

// Session exposes the underlying session.
func (b *Bot) Session() *discordgo.Session { return b.s }

// Latency returns the last heartbeat round trip.
func (b *Bot) Latency() time.Duration { return b.s.HeartbeatLatency() }

// Run opens the connection, forwards events until ctx ends and then closes
// it. onReady runs once, on the event goroutine, before any other event is
// forwarded.
func (b *Bot) Run(ctx context.Context, forward ForwardFunc, onReady func(Self)) error {
	b.ctx = ctx
	b.forward = forward
	b.onReady = onReady

	b.s.AddHandler(b.handleReady)
	b.s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		b.emit(fromMessage(event.MessageCreate, m.Message))
	})
	b.s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageUpdate) {
		b.emit(fromMessage(event.MessageUpdate, m.Message))
	})
	b.s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageDelete) {
		b.emit(fromMessage(event.MessageDelete, m.Message))
	})
	b.s.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
		b.emit(fromReaction(event.ReactionAdd, r.MessageReaction, r.Member))
	})
	b.s.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionRemove) {
		b.emit(fromReaction(event.ReactionRemove, r.MessageReaction, nil))
	})
	b.s.AddHandler(func(_ *discordgo.Session, v *discordgo.VoiceStateUpdate) {
		if ev := fromVoiceState(v); ev != nil {
			b.emit(ev)
		}
	})

	if err := b.s.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.s.Close()

	<-ctx.Done()
	b.log.Info().Msg("shutdown signal received, closing session")
	return nil
}

func (b *Bot) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	self := Self{}
	if r.User != nil {
		self = Self{ID: r.User.ID, Username: r.User.Username}
	}
	b.once.Do(func() {
		if b.onReady != nil {
			b.onReady(self)
		}
	})
	b.log.Info().Str("user", self.Username).Int("guilds", len(r.Guilds)).Msg("discord bot is running")
	b.emit(&event.Event{Kind: event.Ready, UserID: self.ID, Username: self.Username, Time: time.Now(), Raw: r})
}

func (b *Bot) emit(ev *event.Event) {
	if b.forward == nil || ev == nil {
		return
	}
	b.forward(b.ctx, ev)
}
