package interact

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/lakebot/internal/event"
	"github.com/keshon/lakebot/internal/gateway"
	"github.com/keshon/lakebot/internal/waiter"
)

// deliver waits until an await of kind is pending and then dispatches ev.
func deliver(t *testing.T, w *waiter.Waiter, ev *event.Event) {
	t.Helper()
	require.Eventually(t, func() bool { return w.Pending()[ev.Kind] > 0 }, time.Second, time.Millisecond)
	w.Dispatch(ev)
}

func say(user, channel, content string) *event.Event {
	return &event.Event{Kind: event.MessageCreate, UserID: user, ChannelID: channel, Content: content}
}

func react(user, messageID, emoji string) *event.Event {
	return &event.Event{Kind: event.ReactionAdd, UserID: user, MessageID: messageID, Emoji: emoji}
}

func TestAwaitMessageFiltersUserAndChannel(t *testing.T) {
	w := waiter.New(nil)
	go func() {
		deliver(t, w, say("u", "other", "wrong channel"))
		deliver(t, w, say("x", "c", "wrong user"))
		deliver(t, w, say("u", "c", "right"))
	}()

	r := AwaitMessage(context.Background(), w, "u", "c", time.Second)
	require.True(t, r.Matched())
	assert.Equal(t, "right", r.Event.Content)
}

func TestAwaitConfirmationTriState(t *testing.T) {
	tests := []struct {
		name  string
		emoji string
		want  Answer
	}{
		{"accept", Accept, Accepted},
		{"decline", Decline, Declined},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := waiter.New(nil)
			gw := gateway.NewRecorder(nil)
			go func() {
				deliver(t, w, react("someone-else", "m1", Accept))
				deliver(t, w, react("u", "m2", Accept))
				deliver(t, w, react("u", "m1", "👍"))
				deliver(t, w, react("u", "m1", tt.emoji))
			}()

			got, err := AwaitConfirmation(context.Background(), gw, w, "c", "m1", "u", time.Second)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []string{Accept, Decline}, gw.Reactions("m1"))
		})
	}
}

func TestAwaitConfirmationTimeoutIsNoAnswer(t *testing.T) {
	w := waiter.New(nil)
	gw := gateway.NewRecorder(nil)

	got, err := AwaitConfirmation(context.Background(), gw, w, "c", "m1", "u", 30*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, NoAnswer, got)
	assert.False(t, Confirmed(got))
	assert.Equal(t, 0, w.Len())
}

func TestAwaitConfirmationReactionFailureUnregisters(t *testing.T) {
	w := waiter.New(nil)
	gw := gateway.NewRecorder(nil)
	gw.Fail = func(op string) error {
		if op == "react" {
			return gateway.ErrPermission
		}
		return nil
	}

	_, err := AwaitConfirmation(context.Background(), gw, w, "c", "m1", "u", time.Second)
	assert.True(t, gateway.IsPermission(err))
	assert.Equal(t, 0, w.Len())
}

func TestConfirmSendsPrompt(t *testing.T) {
	w := waiter.New(nil)
	gw := gateway.NewRecorder(nil)
	go deliver(t, w, react("u", "m1", Accept))

	answer, id, err := Confirm(context.Background(), gw, w, "c", "u", "Sure?", time.Second)
	require.NoError(t, err)
	assert.Equal(t, Accepted, answer)
	assert.Equal(t, "m1", id)
	last, _ := gw.Last()
	assert.Equal(t, gateway.ColorConfirmation, last.Message.Color)
}

func TestParseControl(t *testing.T) {
	assert.Equal(t, Exit, ParseControl("  EXIT "))
	assert.Equal(t, Undo, ParseControl("Back"))
	assert.Equal(t, Undo, ParseControl("b"))
	assert.Equal(t, Help, ParseControl("help"))
	assert.Equal(t, Aliases, ParseControl("aliases"))
	assert.Equal(t, NoControl, ParseControl("42"))
}

// counter is a tiny dialog: the user must type increasing numbers until 3;
// "back" decrements.
type counter struct {
	n       int
	prompts int
}

func (c *counter) dialog(w *waiter.Waiter, gw gateway.Gateway) *Dialog {
	return &Dialog{
		Waiter:    w,
		Gateway:   gw,
		UserID:    "u",
		ChannelID: "c",
		Timeout:   time.Second,
		Prompt: func(context.Context) error {
			c.prompts++
			return nil
		},
		Step: func(_ context.Context, input string) (Verdict, error) {
			v, err := strconv.Atoi(input)
			if err != nil || v != c.n+1 {
				return Retry, nil
			}
			c.n = v
			if c.n == 3 {
				return Finish, nil
			}
			return Advance, nil
		},
		Undo: func(context.Context) error {
			if c.n > 0 {
				c.n--
			}
			return nil
		},
	}
}

func TestDialogLoopsWithoutRecursion(t *testing.T) {
	w := waiter.New(nil)
	c := &counter{}
	d := c.dialog(w, gateway.NewRecorder(nil))

	go func() {
		for _, in := range []string{"1", "garbage", "2", "back", "2", "3"} {
			deliver(t, w, say("u", "c", in))
		}
	}()

	out, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Completed, out)
	assert.Equal(t, 3, c.n)
	// initial + after 1 + after 2 + after back + after second 2
	assert.Equal(t, 5, c.prompts)
}

func TestDialogExit(t *testing.T) {
	w := waiter.New(nil)
	d := (&counter{}).dialog(w, gateway.NewRecorder(nil))
	go deliver(t, w, say("u", "c", "Exit"))

	out, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Aborted, out)
}

func TestDialogExitDeclinedKeepsGoing(t *testing.T) {
	w := waiter.New(nil)
	gw := gateway.NewRecorder(nil)
	c := &counter{}
	d := c.dialog(w, gw)
	d.ConfirmExit = true

	go func() {
		deliver(t, w, say("u", "c", "exit"))
		// The confirmation prompt is the first message the recorder sends.
		deliver(t, w, react("u", "m1", Decline))
		deliver(t, w, say("u", "c", "1"))
		deliver(t, w, say("u", "c", "2"))
		deliver(t, w, say("u", "c", "3"))
	}()

	out, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Completed, out)
	assert.True(t, gw.Deleted("m1"))
}

func TestDialogTimeout(t *testing.T) {
	w := waiter.New(nil)
	d := (&counter{}).dialog(w, gateway.NewRecorder(nil))
	d.Timeout = 20 * time.Millisecond

	out, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TimedOut, out)
}

func TestDialogHelpDoesNotReprompt(t *testing.T) {
	w := waiter.New(nil)
	c := &counter{}
	d := c.dialog(w, gateway.NewRecorder(nil))
	var helped []Control
	d.Help = func(_ context.Context, ctl Control) error {
		helped = append(helped, ctl)
		return nil
	}
	go func() {
		for _, in := range []string{"help", "aliases", "1", "2", "3"} {
			deliver(t, w, say("u", "c", in))
		}
	}()

	out, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Completed, out)
	assert.Equal(t, []Control{Help, Aliases}, helped)
	assert.Equal(t, 3, c.prompts)
}

func TestDialogStepError(t *testing.T) {
	w := waiter.New(nil)
	boom := errors.New("boom")
	d := &Dialog{
		Waiter: w, Gateway: gateway.NewRecorder(nil), UserID: "u", ChannelID: "c", Timeout: time.Second,
		Step: func(context.Context, string) (Verdict, error) { return Retry, boom },
	}
	go deliver(t, w, say("u", "c", "x"))

	out, err := d.Run(context.Background())
	assert.Equal(t, Failed, out)
	assert.ErrorIs(t, err, boom)
}
