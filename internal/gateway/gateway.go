// Package gateway describes the chat operations the bot consumes from the
// platform client, plus the colored status messages every command replies with.
package gateway

import (
	"context"
	"errors"
	"time"
)

// ErrPermission marks failures caused by missing platform permissions. They
// are expected in busy guilds and are swallowed at the adapter boundary.
var ErrPermission = errors.New("gateway: insufficient permissions")

// IsPermission reports whether err is (or wraps) ErrPermission.
func IsPermission(err error) bool {
	return errors.Is(err, ErrPermission)
}

// Status colors.
const (
	ColorSuccess      = 0xE84266
	ColorFailure      = 0xEF433F
	ColorConfirmation = 0x76FF03
)

// Field is one embed field.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Message is a renderable chat message. Content is plain text; everything
// else is rendered as a single embed when at least one embed attribute is set.
type Message struct {
	Content     string
	Title       string
	Description string
	Color       int
	Author      string
	AuthorIcon  string
	Footer      string
	FooterIcon  string
	Thumbnail   string
	Fields      []Field
	Timestamp   time.Time
}

// HasEmbed reports whether the message carries embed attributes.
func (m Message) HasEmbed() bool {
	return m.Title != "" || m.Description != "" || m.Author != "" || m.Footer != "" ||
		len(m.Fields) > 0 || m.Color != 0 || m.Thumbnail != ""
}

// Gateway is the narrow send/edit/delete/react surface of the chat client.
type Gateway interface {
	Send(ctx context.Context, channelID string, msg Message) (messageID string, err error)
	Edit(ctx context.Context, channelID, messageID string, msg Message) error
	Delete(ctx context.Context, channelID, messageID string) error
	React(ctx context.Context, channelID, messageID, emoji string) error
	Unreact(ctx context.Context, channelID, messageID, emoji, userID string) error
	ClearReactions(ctx context.Context, channelID, messageID string) error
	DirectMessage(ctx context.Context, userID string, msg Message) error
}

// Success builds a short success status message.
func Success(text string) Message {
	return Message{Description: text, Color: ColorSuccess}
}

// Failure builds a short failure status message.
func Failure(text string) Message {
	return Message{Description: text, Color: ColorFailure}
}

// Confirmation builds a prompt awaiting a yes/no reaction.
func Confirmation(text string) Message {
	return Message{Description: text, Color: ColorConfirmation}
}

// DeleteAfter deletes a message once d has elapsed, unless ctx ends first.
// It does not block.
func DeleteAfter(ctx context.Context, gw Gateway, channelID, messageID string, d time.Duration) {
	go func() {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
		case <-t.C:
			_ = gw.Delete(context.WithoutCancel(ctx), channelID, messageID)
		}
	}()
}
