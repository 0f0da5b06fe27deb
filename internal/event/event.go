// Package event defines the gateway-agnostic event model that flows from the
// gateway client through the waiter and into the command dispatcher.
package event

import (
	"strings"
	"time"
	"unicode"
)

// Kind tags an event. Concrete kinds are produced by the gateway; abstract
// kinds (categories) only exist as await partitions.
type Kind int

const (
	// Concrete kinds
	MessageCreate Kind = iota
	MessageUpdate
	MessageDelete
	ReactionAdd
	ReactionRemove
	VoiceJoin
	VoiceLeave
	Ready

	// Categories
	Message
	Reaction
	Voice
	Any

	kindCount
)

var kindNames = [...]string{
	MessageCreate:  "message_create",
	MessageUpdate:  "message_update",
	MessageDelete:  "message_delete",
	ReactionAdd:    "reaction_add",
	ReactionRemove: "reaction_remove",
	VoiceJoin:      "voice_join",
	VoiceLeave:     "voice_leave",
	Ready:          "ready",
	Message:        "message",
	Reaction:       "reaction",
	Voice:          "voice",
	Any:            "any",
}

// categories is the closed membership table: every kind maps to itself
// followed by each broader category it belongs to.
var categories = [...][]Kind{
	MessageCreate:  {MessageCreate, Message, Any},
	MessageUpdate:  {MessageUpdate, Message, Any},
	MessageDelete:  {MessageDelete, Message, Any},
	ReactionAdd:    {ReactionAdd, Reaction, Any},
	ReactionRemove: {ReactionRemove, Reaction, Any},
	VoiceJoin:      {VoiceJoin, Voice, Any},
	VoiceLeave:     {VoiceLeave, Voice, Any},
	Ready:          {Ready, Any},
	Message:        {Message, Any},
	Reaction:       {Reaction, Any},
	Voice:          {Voice, Any},
	Any:            {Any},
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return kindNames[k]
}

// Valid reports whether k is a known kind or category.
func (k Kind) Valid() bool {
	return k >= 0 && k < kindCount
}

// Abstract reports whether k is a category rather than a concrete kind.
func (k Kind) Abstract() bool {
	return k >= Message && k < kindCount
}

// Categories returns k followed by every broader category it belongs to.
// The returned slice must not be modified.
func (k Kind) Categories() []Kind {
	if !k.Valid() {
		return nil
	}
	return categories[k]
}

// Is reports whether k belongs to the category c (or is c).
func (k Kind) Is(c Kind) bool {
	for _, x := range k.Categories() {
		if x == c {
			return true
		}
	}
	return false
}

// Kinds returns every kind and category, concrete kinds first.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// Event is a single notification from the gateway. It is treated as immutable
// once handed to dispatch.
type Event struct {
	Kind      Kind
	GuildID   string
	ChannelID string
	UserID    string
	Username  string
	MessageID string
	Content   string
	Emoji     string
	Bot       bool
	Mentions  []string
	Time      time.Time

	// Raw is the gateway payload the event was built from, if any.
	Raw any
}

// IsFrom reports whether the event was produced by user in channel.
func (e *Event) IsFrom(userID, channelID string) bool {
	return e.UserID == userID && e.ChannelID == channelID
}

// InGuild reports whether the event originated inside a guild.
func (e *Event) InGuild() bool {
	return e.GuildID != ""
}

// Mentioned reports whether userID is among the message mentions.
func (e *Event) Mentioned(userID string) bool {
	for _, id := range e.Mentions {
		if id == userID {
			return true
		}
	}
	return false
}

// Trimmed returns the message content without surrounding whitespace.
func (e *Event) Trimmed() string {
	return strings.TrimSpace(e.Content)
}

// Token returns the first whitespace-separated token of the content.
func (e *Event) Token() string {
	s := e.Trimmed()
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 {
		return s[:i]
	}
	return s
}

// ArgsRaw returns everything after the first whitespace-separated token, or ""
// when the message has a single token.
func (e *Event) ArgsRaw() string {
	s := e.Trimmed()
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(s[i:])
}

// Args returns the whitespace-separated arguments after the first token.
func (e *Event) Args() []string {
	return strings.Fields(e.ArgsRaw())
}
