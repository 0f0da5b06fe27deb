// Package commandstest wires a command.Services against the in-memory gateway
// so command packages can be exercised without a chat connection.
package commandstest

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/keshon/lakebot/internal/command"
	"github.com/keshon/lakebot/internal/cooldown"
	"github.com/keshon/lakebot/internal/datastore"
	"github.com/keshon/lakebot/internal/event"
	"github.com/keshon/lakebot/internal/gateway"
	"github.com/keshon/lakebot/internal/logging"
	"github.com/keshon/lakebot/internal/session"
	"github.com/keshon/lakebot/internal/storage"
	"github.com/keshon/lakebot/internal/waiter"
	"github.com/keshon/lakebot/pkg/cmd"
)

const (
	Guild     = "g1"
	Channel   = "c1"
	User      = "u1"
	Developer = "dev"
	BotID     = "bot"
)

// Permissions is a static permission table keyed by user ID.
type Permissions struct {
	mu      sync.Mutex
	Manage  map[string]bool
	Failing error
}

func (p *Permissions) Grant(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Manage == nil {
		p.Manage = make(map[string]bool)
	}
	p.Manage[userID] = true
}

func (p *Permissions) CanManageGuild(_ context.Context, _, _, userID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Failing != nil {
		return false, p.Failing
	}
	return p.Manage[userID], nil
}

// Harness bundles the services and the fakes behind them.
type Harness struct {
	*command.Services
	Recorder    *gateway.Recorder
	Perms       *Permissions
	ShutdownHit chan struct{}
}

// New builds a Harness with a temporary datastore that is closed when the
// test ends.
func New(t *testing.T) *Harness {
	t.Helper()
	cfg := datastore.DefaultConfig(filepath.Join(t.TempDir(), "store.json"))
	cfg.AutoSaveInterval = 0
	ds, err := datastore.NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("datastore: %v", err)
	}
	store := storage.New(ds, "lb!")
	t.Cleanup(func() { _ = store.Close() })

	rec := gateway.NewRecorder(nil)
	w := waiter.New(nil)
	t.Cleanup(w.Close)

	h := &Harness{
		Recorder:    rec,
		Perms:       &Permissions{},
		ShutdownHit: make(chan struct{}, 1),
	}
	h.Services = &command.Services{
		Gateway:      rec,
		Waiter:       w,
		Sessions:     session.NewTracker(),
		Cooldowns:    cooldown.New(),
		Storage:      store,
		Registry:     cmd.NewRegistry(),
		Permissions:  h.Perms,
		Log:          logging.Nop(),
		BotName:      "LakeBot",
		BotID:        BotID,
		Developers:   []string{Developer},
		AwaitTimeout: time.Second,
		Started:      time.Now().Add(-time.Hour),
		Shutdown: func() {
			select {
			case h.ShutdownHit <- struct{}{}:
			default:
			}
		},
		Latency: func() time.Duration { return 42 * time.Millisecond },
	}
	return h
}

// Message builds a guild message event from userID.
func Message(userID, content string) *event.Event {
	return &event.Event{
		Kind:      event.MessageCreate,
		GuildID:   Guild,
		ChannelID: Channel,
		UserID:    userID,
		Username:  userID,
		MessageID: "src-" + userID,
		Content:   content,
		Time:      time.Now(),
	}
}

// Context builds the invocation context for content typed by userID, as the
// dispatcher would after matching name.
func (h *Harness) Context(userID, name, content string) *command.Context {
	ev := Message(userID, content)
	return &command.Context{
		Services: h.Services,
		Event:    ev,
		Prefix:   "lb!",
		Command:  name,
		Args:     ev.Args(),
	}
}

// Say delivers a message from userID to whoever awaits it. It waits until a
// message await is pending first.
func (h *Harness) Say(t *testing.T, userID, content string) {
	t.Helper()
	h.deliver(t, Message(userID, content))
}

// React delivers a reaction from userID on messageID.
func (h *Harness) React(t *testing.T, userID, messageID, emoji string) {
	t.Helper()
	h.deliver(t, &event.Event{
		Kind:      event.ReactionAdd,
		GuildID:   Guild,
		ChannelID: Channel,
		UserID:    userID,
		MessageID: messageID,
		Emoji:     emoji,
	})
}

func (h *Harness) deliver(t *testing.T, ev *event.Event) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for h.Waiter.Pending()[ev.Kind] == 0 {
		if time.Now().After(deadline) {
			t.Errorf("no %s await became pending", ev.Kind)
			return
		}
		time.Sleep(time.Millisecond)
	}
	h.Waiter.Dispatch(ev)
}

// Descriptions returns the description of every message sent so far.
func (h *Harness) Descriptions() []string {
	var out []string
	for _, s := range h.Recorder.Sent() {
		out = append(out, s.Message.Description)
	}
	return out
}

// LastDescription returns the description of the latest message sent.
func (h *Harness) LastDescription() string {
	last, ok := h.Recorder.Last()
	if !ok {
		return ""
	}
	return last.Message.Description
}
