package interact

import (
	"context"
	"fmt"
	"time"

	"github.com/keshon/lakebot/internal/gateway"
	"github.com/keshon/lakebot/internal/waiter"
)

// Verdict is what a dialog step decides about one input.
type Verdict int

const (
	// Retry keeps the current prompt and waits for another input.
	Retry Verdict = iota
	// Advance moves to the next prompt.
	Advance
	// Finish resolves the dialog.
	Finish
)

// Outcome is how a dialog ended.
type Outcome int

// pending marks a transition that does not resolve the dialog.
const pending Outcome = -1

const (
	Completed Outcome = iota
	Aborted
	TimedOut
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	case TimedOut:
		return "timed_out"
	}
	return "failed"
}

type state int

const (
	statePrompting state = iota
	stateAwaiting
	stateValidating
	stateResolved
)

// Dialog runs a multi-turn conversation with one user in one channel as an
// explicit loop: Prompting, AwaitingInput, Validating, Resolved. Every wait
// gets a fresh timeout. Control words are handled before Step sees the input.
type Dialog struct {
	Waiter    *waiter.Waiter
	Gateway   gateway.Gateway
	UserID    string
	ChannelID string
	Timeout   time.Duration

	// Prompt sends the prompt for the current step. Optional.
	Prompt func(ctx context.Context) error
	// Step validates and applies one input.
	Step func(ctx context.Context, input string) (Verdict, error)
	// Undo reverts the previous step; "back" re-prompts afterwards. When nil
	// the word reaches Step like any other input.
	Undo func(ctx context.Context) error
	// Help answers "help" and "aliases"; the dialog keeps waiting afterwards.
	// When nil those words reach Step.
	Help func(ctx context.Context, c Control) error
	// ConfirmExit, when set, asks the user to confirm "exit" with a reaction
	// prompt; a decline keeps the dialog going.
	ConfirmExit bool
}

// Run drives the dialog until it resolves. Outcome Failed comes with the
// error that caused it.
func (d *Dialog) Run(ctx context.Context) (Outcome, error) {
	if d.Step == nil {
		return Failed, fmt.Errorf("dialog: no step function")
	}
	st := statePrompting
	var input string
	outcome := pending

	for st != stateResolved {
		switch st {
		case statePrompting:
			if d.Prompt != nil {
				if err := d.Prompt(ctx); err != nil {
					return Failed, fmt.Errorf("dialog prompt: %w", err)
				}
			}
			st = stateAwaiting

		case stateAwaiting:
			r := AwaitMessage(ctx, d.Waiter, d.UserID, d.ChannelID, d.Timeout)
			switch r.Outcome {
			case waiter.Matched:
				input = r.Event.Trimmed()
				st = stateValidating
			case waiter.TimedOut:
				return TimedOut, nil
			default:
				if r.Err == nil {
					return Failed, ctx.Err()
				}
				return Failed, r.Err
			}

		case stateValidating:
			next, o, err := d.validate(ctx, input)
			if err != nil {
				return Failed, err
			}
			st, outcome = next, o
		}
	}
	return outcome, nil
}

func (d *Dialog) validate(ctx context.Context, input string) (state, Outcome, error) {
	switch c := ParseControl(input); {
	case c == Exit:
		if !d.ConfirmExit {
			return stateResolved, Aborted, nil
		}
		answer, id, err := Confirm(ctx, d.Gateway, d.Waiter, d.ChannelID, d.UserID, "Are you sure you want to exit?", d.Timeout)
		if err != nil {
			return stateResolved, Failed, err
		}
		_ = d.Gateway.Delete(ctx, d.ChannelID, id)
		if answer == Declined {
			return stateAwaiting, pending, nil
		}
		if answer == NoAnswer {
			return stateResolved, TimedOut, nil
		}
		return stateResolved, Aborted, nil

	case c == Undo && d.Undo != nil:
		if err := d.Undo(ctx); err != nil {
			return stateResolved, Failed, fmt.Errorf("dialog undo: %w", err)
		}
		return statePrompting, pending, nil

	case (c == Help || c == Aliases) && d.Help != nil:
		if err := d.Help(ctx, c); err != nil {
			return stateResolved, Failed, fmt.Errorf("dialog help: %w", err)
		}
		return stateAwaiting, pending, nil
	}

	v, err := d.Step(ctx, input)
	if err != nil {
		return stateResolved, Failed, err
	}
	switch v {
	case Finish:
		return stateResolved, Completed, nil
	case Advance:
		return statePrompting, pending, nil
	default:
		return stateAwaiting, pending, nil
	}
}
