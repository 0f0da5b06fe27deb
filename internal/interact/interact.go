// Package interact provides the conversational building blocks commands use on
// top of the waiter: waiting for a user's next message, yes/no confirmation
// prompts and looping multi-step dialogs.
package interact

import (
	"context"
	"fmt"
	"time"

	"github.com/keshon/lakebot/internal/event"
	"github.com/keshon/lakebot/internal/gateway"
	"github.com/keshon/lakebot/internal/waiter"
)

// DefaultTimeout applies when a helper is called with timeout 0.
const DefaultTimeout = time.Minute

// Confirmation affordances.
const (
	Accept  = "✅"
	Decline = "❎"
)

// Answer is the tri-state result of a confirmation prompt.
type Answer int

const (
	NoAnswer Answer = iota
	Accepted
	Declined
)

func (a Answer) String() string {
	switch a {
	case Accepted:
		return "accepted"
	case Declined:
		return "declined"
	}
	return "no_answer"
}

// Confirmed collapses the answer into a bool, treating NoAnswer as a decline.
func Confirmed(a Answer) bool { return a == Accepted }

func orDefault(d time.Duration) time.Duration {
	if d == 0 {
		return DefaultTimeout
	}
	return d
}

// AwaitMessage waits for the next message from userID in channelID.
func AwaitMessage(ctx context.Context, w *waiter.Waiter, userID, channelID string, timeout time.Duration) waiter.Result {
	return w.Await(ctx, event.MessageCreate, waiter.Where(func(ev *event.Event) bool {
		return ev.IsFrom(userID, channelID)
	}), orDefault(timeout))
}

// AwaitConfirmation attaches the accept and decline reactions to a message and
// waits for userID to pick one. Time-out yields NoAnswer with a nil error.
func AwaitConfirmation(ctx context.Context, gw gateway.Gateway, w *waiter.Waiter, channelID, messageID, userID string, timeout time.Duration) (Answer, error) {
	// Register first so a fast click between the two reactions is not lost.
	h := w.Register(event.ReactionAdd, waiter.Where(func(ev *event.Event) bool {
		return ev.MessageID == messageID && ev.UserID == userID && (ev.Emoji == Accept || ev.Emoji == Decline)
	}), orDefault(timeout))

	for _, emoji := range []string{Accept, Decline} {
		if err := gw.React(ctx, channelID, messageID, emoji); err != nil {
			h.Cancel()
			return NoAnswer, fmt.Errorf("add %s reaction: %w", emoji, err)
		}
	}

	r := h.Wait(ctx)
	switch r.Outcome {
	case waiter.Matched:
		if r.Event.Emoji == Accept {
			return Accepted, nil
		}
		return Declined, nil
	case waiter.TimedOut:
		return NoAnswer, nil
	default:
		if r.Err == nil {
			return NoAnswer, ctx.Err()
		}
		return NoAnswer, r.Err
	}
}

// Confirm sends prompt as a confirmation message to channelID and waits for
// userID's answer. The prompt message ID is returned for follow-up edits.
func Confirm(ctx context.Context, gw gateway.Gateway, w *waiter.Waiter, channelID, userID, prompt string, timeout time.Duration) (Answer, string, error) {
	id, err := gw.Send(ctx, channelID, gateway.Confirmation(prompt))
	if err != nil {
		return NoAnswer, "", fmt.Errorf("send confirmation: %w", err)
	}
	answer, err := AwaitConfirmation(ctx, gw, w, channelID, id, userID, timeout)
	return answer, id, err
}
