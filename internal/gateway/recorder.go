package gateway

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// Sent is a message the Recorder delivered.
type Sent struct {
	ChannelID string
	MessageID string
	Message   Message
}

// Recorder is an in-memory Gateway. The console entrypoint prints through it
// and tests inspect it.
type Recorder struct {
	mu        sync.Mutex
	out       io.Writer
	seq       int
	sent      []Sent
	edits     map[string][]Message
	deleted   map[string]bool
	reactions map[string][]string
	removed   map[string][]string
	cleared   map[string]int
	dms       map[string][]Message

	// Fail, if set, is consulted before every operation; a non-nil error
	// aborts it.
	Fail func(op string) error
}

// NewRecorder creates a Recorder. When out is non-nil every operation is also
// echoed to it in a human-readable form.
func NewRecorder(out io.Writer) *Recorder {
	return &Recorder{
		out:       out,
		edits:     make(map[string][]Message),
		deleted:   make(map[string]bool),
		reactions: make(map[string][]string),
		removed:   make(map[string][]string),
		cleared:   make(map[string]int),
		dms:       make(map[string][]Message),
	}
}

func (r *Recorder) fail(op string) error {
	if r.Fail == nil {
		return nil
	}
	return r.Fail(op)
}

func (r *Recorder) echo(format string, args ...any) {
	if r.out != nil {
		fmt.Fprintf(r.out, format+"\n", args...)
	}
}

func (r *Recorder) Send(_ context.Context, channelID string, msg Message) (string, error) {
	if err := r.fail("send"); err != nil {
		return "", err
	}
	r.mu.Lock()
	r.seq++
	id := "m" + strconv.Itoa(r.seq)
	r.sent = append(r.sent, Sent{ChannelID: channelID, MessageID: id, Message: msg})
	r.mu.Unlock()

	r.echo("[%s] #%s %s", id, channelID, Render(msg))
	return id, nil
}

func (r *Recorder) Edit(_ context.Context, channelID, messageID string, msg Message) error {
	if err := r.fail("edit"); err != nil {
		return err
	}
	r.mu.Lock()
	r.edits[messageID] = append(r.edits[messageID], msg)
	r.mu.Unlock()

	r.echo("[%s] #%s (edited) %s", messageID, channelID, Render(msg))
	return nil
}

func (r *Recorder) Delete(_ context.Context, channelID, messageID string) error {
	if err := r.fail("delete"); err != nil {
		return err
	}
	r.mu.Lock()
	r.deleted[messageID] = true
	r.mu.Unlock()
	r.echo("[%s] #%s (deleted)", messageID, channelID)
	return nil
}

func (r *Recorder) React(_ context.Context, channelID, messageID, emoji string) error {
	if err := r.fail("react"); err != nil {
		return err
	}
	r.mu.Lock()
	r.reactions[messageID] = append(r.reactions[messageID], emoji)
	r.mu.Unlock()
	r.echo("[%s] #%s +%s", messageID, channelID, emoji)
	return nil
}

func (r *Recorder) Unreact(_ context.Context, channelID, messageID, emoji, userID string) error {
	if err := r.fail("unreact"); err != nil {
		return err
	}
	r.mu.Lock()
	r.removed[messageID] = append(r.removed[messageID], userID+":"+emoji)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) ClearReactions(_ context.Context, channelID, messageID string) error {
	if err := r.fail("clear"); err != nil {
		return err
	}
	r.mu.Lock()
	r.cleared[messageID]++
	r.mu.Unlock()
	r.echo("[%s] #%s (reactions cleared)", messageID, channelID)
	return nil
}

func (r *Recorder) DirectMessage(_ context.Context, userID string, msg Message) error {
	if err := r.fail("dm"); err != nil {
		return err
	}
	r.mu.Lock()
	r.dms[userID] = append(r.dms[userID], msg)
	r.mu.Unlock()
	r.echo("[dm @%s] %s", userID, Render(msg))
	return nil
}

// Sent returns every message sent so far, in order.
func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}

// Last returns the most recently sent message.
func (r *Recorder) Last() (Sent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return Sent{}, false
	}
	return r.sent[len(r.sent)-1], true
}

// Edits returns the edits applied to a message.
func (r *Recorder) Edits(messageID string) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.edits[messageID]...)
}

// Reactions returns the reactions the bot added to a message.
func (r *Recorder) Reactions(messageID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.reactions[messageID]...)
}

// Removed returns "user:emoji" pairs removed from a message.
func (r *Recorder) Removed(messageID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.removed[messageID]...)
}

// Cleared returns how many times a message's reactions were cleared.
func (r *Recorder) Cleared(messageID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cleared[messageID]
}

// Deleted reports whether a message was deleted.
func (r *Recorder) Deleted(messageID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deleted[messageID]
}

// DMs returns the direct messages sent to a user.
func (r *Recorder) DMs(userID string) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.dms[userID]...)
}

// Render flattens a message into a single line of text.
func Render(m Message) string {
	var parts []string
	if m.Content != "" {
		parts = append(parts, m.Content)
	}
	if m.Author != "" {
		parts = append(parts, "<"+m.Author+">")
	}
	if m.Title != "" {
		parts = append(parts, "**"+m.Title+"**")
	}
	if m.Description != "" {
		parts = append(parts, m.Description)
	}
	for _, f := range m.Fields {
		parts = append(parts, f.Name+" "+f.Value)
	}
	if m.Footer != "" {
		parts = append(parts, "("+m.Footer+")")
	}
	return strings.Join(parts, " | ")
}
