package fun

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/lakebot/internal/commands/commandstest"
	"github.com/keshon/lakebot/internal/event"
	"github.com/keshon/lakebot/internal/gateway"
	"github.com/keshon/lakebot/internal/interact"
)

func fixed(n int) *GuessCommand {
	return &GuessCommand{Pick: func(int) int { return n }}
}

// answerExit types "exit" and answers the confirmation prompt with emoji. It
// returns the prompt's message ID.
func answerExit(t *testing.T, h *commandstest.Harness, emoji string) string {
	t.Helper()
	h.Say(t, commandstest.User, "exit")
	require.Eventually(t, func() bool {
		return h.Waiter.Pending()[event.ReactionAdd] == 1
	}, time.Second, time.Millisecond)
	last, _ := h.Recorder.Last()
	require.Equal(t, "Are you sure you want to exit?", last.Message.Description)
	h.React(t, commandstest.User, last.MessageID, emoji)
	return last.MessageID
}

func TestGuessArgumentErrors(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"lb!guess", "You specified no content!"},
		{"lb!guess lots", "You must specify a maximum number!"},
		{"lb!guess 4", "The number is not in the correct range!"},
		{"lb!guess 500001", "The number is not in the correct range!"},
	}
	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			h := commandstest.New(t)
			require.NoError(t, fixed(1).Run(context.Background(), h.Context(commandstest.User, "guess", tt.content)))
			assert.Equal(t, tt.want, h.LastDescription())
		})
	}
}

func TestGuessGame(t *testing.T) {
	h := commandstest.New(t)
	done := make(chan error, 1)
	go func() {
		done <- fixed(7).Run(context.Background(), h.Context(commandstest.User, "guess", "lb!guess 10"))
	}()

	h.Say(t, commandstest.User, "9")
	h.Say(t, commandstest.User, "seven")
	h.Say(t, commandstest.User, "3")
	h.Say(t, commandstest.User, "7")
	require.NoError(t, <-done)

	assert.Equal(t, []string{
		"Let's go!",
		"It's too large!",
		"Try again!",
		"It's too small!",
		"GG! Game took 3 attempts!",
	}, h.Descriptions())

	sent := h.Recorder.Sent()
	assert.Equal(t, "Attempt #1", sent[0].Message.Author)
	assert.Equal(t, "Type in \"exit\" to kill the process", sent[0].Message.Footer)
	assert.Equal(t, "Attempt #3", sent[3].Message.Author)
	assert.Equal(t, 0, h.Sessions.Len())
}

func TestGuessGameHoldsSession(t *testing.T) {
	h := commandstest.New(t)
	done := make(chan error, 1)
	go func() {
		done <- fixed(2).Run(context.Background(), h.Context(commandstest.User, "guess", "lb!guess 10"))
	}()

	require.Eventually(t, func() bool {
		_, busy := h.Sessions.Active(commandstest.User, commandstest.Channel)
		return busy
	}, time.Second, time.Millisecond)

	answerExit(t, h, interact.Accept)
	require.NoError(t, <-done)
	assert.Equal(t, "Process successfully stopped!", h.LastDescription())
	_, busy := h.Sessions.Active(commandstest.User, commandstest.Channel)
	assert.False(t, busy)
}

func TestGuessExitDeclinedKeepsPlaying(t *testing.T) {
	h := commandstest.New(t)
	done := make(chan error, 1)
	go func() {
		done <- fixed(4).Run(context.Background(), h.Context(commandstest.User, "guess", "lb!guess 10"))
	}()

	id := answerExit(t, h, interact.Decline)
	require.Eventually(t, func() bool { return h.Recorder.Deleted(id) }, time.Second, time.Millisecond)
	h.Say(t, commandstest.User, "4")
	require.NoError(t, <-done)
	assert.Equal(t, "GG! Game took 1 attempt!", h.LastDescription())
}

func TestGuessUndo(t *testing.T) {
	h := commandstest.New(t)
	done := make(chan error, 1)
	go func() {
		done <- fixed(7).Run(context.Background(), h.Context(commandstest.User, "guess", "lb!guess 10"))
	}()

	h.Say(t, commandstest.User, "9")
	h.Say(t, commandstest.User, "3")
	h.Say(t, commandstest.User, "back")
	h.Say(t, commandstest.User, "7")
	require.NoError(t, <-done)

	assert.Equal(t, []string{
		"Let's go!",
		"It's too large!",
		"It's too small!",
		"It's too large!",
		"GG! Game took 2 attempts!",
	}, h.Descriptions())
	sent := h.Recorder.Sent()
	assert.Equal(t, "Attempt #3", sent[2].Message.Author)
	assert.Equal(t, "Attempt #2", sent[3].Message.Author)
}

func TestGuessUndoOnFirstAttempt(t *testing.T) {
	h := commandstest.New(t)
	done := make(chan error, 1)
	go func() {
		done <- fixed(7).Run(context.Background(), h.Context(commandstest.User, "guess", "lb!guess 10"))
	}()

	h.Say(t, commandstest.User, "undo")
	h.Say(t, commandstest.User, "7")
	require.NoError(t, <-done)

	assert.Equal(t, []string{
		"Let's go!",
		"There is nothing to undo!",
		"Let's go!",
		"GG! Game took 1 attempt!",
	}, h.Descriptions())
}

func TestGuessHelpAndAliases(t *testing.T) {
	h := commandstest.New(t)
	done := make(chan error, 1)
	go func() {
		done <- fixed(7).Run(context.Background(), h.Context(commandstest.User, "guess", "lb!guess 10"))
	}()

	h.Say(t, commandstest.User, "help")
	h.Say(t, commandstest.User, "Aliases")
	h.Say(t, commandstest.User, "7")
	require.NoError(t, <-done)

	got := h.Descriptions()
	require.Len(t, got, 4, "help does not re-prompt")
	assert.Contains(t, got[1], "Guess a number from 1 to 10")
	assert.Contains(t, got[1], "`lb!guess <limit>`")
	assert.Equal(t, "Aliases: guessnum, guessgame, guessnumber, guess-the-number, guess-game", got[2])
	assert.Equal(t, "GG! Game took 1 attempt!", got[3])
}

func TestGuessGameTimeout(t *testing.T) {
	h := commandstest.New(t)
	h.AwaitTimeout = 20 * time.Millisecond
	require.NoError(t, fixed(2).Run(context.Background(), h.Context(commandstest.User, "guess", "lb!guess 10")))
	assert.Equal(t, "Time is up!", h.LastDescription())
}

func TestGuessIgnoresOtherUsers(t *testing.T) {
	h := commandstest.New(t)
	done := make(chan error, 1)
	go func() {
		done <- fixed(5).Run(context.Background(), h.Context(commandstest.User, "guess", "lb!guess 10"))
	}()

	h.Say(t, "someone-else", "5")
	h.Say(t, commandstest.User, "5")
	require.NoError(t, <-done)
	assert.Equal(t, "GG! Game took 1 attempt!", h.LastDescription())
}

func TestSay(t *testing.T) {
	h := commandstest.New(t)
	require.NoError(t, (&SayCommand{}).Run(context.Background(), h.Context(commandstest.User, "say", "lb!say  hello   there ")))

	first := h.Recorder.Sent()[0].Message
	assert.Equal(t, "hello   there", first.Description)
	assert.Equal(t, commandstest.User, first.Author)
	assert.True(t, h.Recorder.Deleted("src-"+commandstest.User))
}

func TestSayWithoutContent(t *testing.T) {
	h := commandstest.New(t)
	require.NoError(t, (&SayCommand{}).Run(context.Background(), h.Context(commandstest.User, "say", "lb!say")))
	assert.Equal(t, "You haven't specified any arguments!", h.LastDescription())
}

func TestSayCannotDeleteSource(t *testing.T) {
	h := commandstest.New(t)
	h.Recorder.Fail = func(op string) error {
		if op == "delete" {
			return gateway.ErrPermission
		}
		return nil
	}
	require.NoError(t, (&SayCommand{}).Run(context.Background(), h.Context(commandstest.User, "say", "lb!say hi")))
	assert.Equal(t, "hi", h.LastDescription())
}
