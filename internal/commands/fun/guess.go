// Package fun holds the games and toys.
package fun

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/keshon/lakebot/internal/command"
	"github.com/keshon/lakebot/internal/gateway"
	"github.com/keshon/lakebot/internal/interact"
	"github.com/keshon/lakebot/internal/session"
)

const (
	GuessMin = 5
	GuessMax = 500000
)

type GuessCommand struct {
	// Pick returns the number to guess in [1, limit]. Defaults to a uniform
	// random pick.
	Pick func(limit int) int
}

func (c *GuessCommand) Name() string { return "guess" }
func (c *GuessCommand) Description() string {
	return fmt.Sprintf("Guess the number in the range from 1 through the specified limit (%d to %d). Type in \"exit\" to kill the game.",
		GuessMin, GuessMax)
}
func (c *GuessCommand) Aliases() []string {
	return []string{"guessnum", "guessgame", "guessnumber", "guess-the-number", "guess-game"}
}
func (c *GuessCommand) Usage() string           { return "<limit>" }
func (c *GuessCommand) Group() string           { return "fun" }
func (c *GuessCommand) Cooldown() time.Duration { return 5 * time.Second }
func (c *GuessCommand) DeveloperOnly() bool     { return false }

func (c *GuessCommand) Run(ctx context.Context, cc *command.Context) error {
	if len(cc.Args) == 0 {
		_, err := cc.Failure(ctx, "You specified no content!")
		return err
	}
	limit, err := strconv.Atoi(cc.Args[0])
	if err != nil {
		_, err = cc.Failure(ctx, "You must specify a maximum number!")
		return err
	}
	if limit < GuessMin || limit > GuessMax {
		_, err = cc.Failure(ctx, "The number is not in the correct range!")
		return err
	}

	proc, err := cc.Sessions.Begin(c.Name(), cc.Event.ChannelID, cc.Event.UserID)
	if errors.Is(err, session.ErrBusy) {
		return nil
	}
	if err != nil {
		return err
	}
	defer cc.Sessions.End(proc)

	g := &guessGame{cmd: c, cc: cc, limit: limit, target: c.pick(limit), attempt: 1, hint: "Let's go!"}
	d := &interact.Dialog{
		Waiter:      cc.Waiter,
		Gateway:     cc.Gateway,
		UserID:      cc.Event.UserID,
		ChannelID:   cc.Event.ChannelID,
		Timeout:     cc.AwaitTimeout,
		Prompt:      g.prompt,
		Step:        g.step,
		Undo:        g.undo,
		Help:        g.help,
		ConfirmExit: true,
	}

	out, err := d.Run(ctx)
	switch out {
	case interact.Completed:
		_, err = cc.Success(ctx, "GG! Game took %d %s!", g.attempt, command.Plural(g.attempt, "attempt"))
	case interact.Aborted:
		_, err = cc.Success(ctx, "Process successfully stopped!")
	case interact.TimedOut:
		_, err = cc.Failure(ctx, "Time is up!")
	}
	return err
}

func (c *GuessCommand) pick(limit int) int {
	if c.Pick != nil {
		return c.Pick(limit)
	}
	return rand.IntN(limit) + 1
}

type guessGame struct {
	cmd     *GuessCommand
	cc      *command.Context
	limit   int
	target  int
	attempt int
	hint    string
	// hints holds the hint shown before each attempt, for undo.
	hints []string
}

func (g *guessGame) prompt(ctx context.Context) error {
	msg := gateway.Message{
		Author:      fmt.Sprintf("Attempt #%d", g.attempt),
		Description: g.hint,
		Color:       gateway.ColorFailure,
	}
	if g.attempt == 1 {
		msg.Color = gateway.ColorSuccess
		msg.Footer = "Type in \"exit\" to kill the process"
	}
	_, err := g.cc.Send(ctx, msg)
	return err
}

func (g *guessGame) step(ctx context.Context, input string) (interact.Verdict, error) {
	n, err := strconv.Atoi(input)
	if err != nil {
		_, err = g.cc.Failure(ctx, "Try again!")
		return interact.Retry, err
	}
	prev := g.hint
	switch {
	case n == g.target:
		return interact.Finish, nil
	case n > g.target:
		g.hint = "It's too large!"
	default:
		g.hint = "It's too small!"
	}
	g.hints = append(g.hints, prev)
	g.attempt++
	return interact.Advance, nil
}

// undo takes back the last attempt and its hint.
func (g *guessGame) undo(ctx context.Context) error {
	if len(g.hints) == 0 {
		_, err := g.cc.Failure(ctx, "There is nothing to undo!")
		return err
	}
	last := len(g.hints) - 1
	g.hint = g.hints[last]
	g.hints = g.hints[:last]
	g.attempt--
	return nil
}

func (g *guessGame) help(ctx context.Context, c interact.Control) error {
	if c == interact.Aliases {
		_, err := g.cc.Success(ctx, "Aliases: %s", strings.Join(g.cmd.Aliases(), ", "))
		return err
	}
	_, err := g.cc.Success(ctx, "Guess a number from 1 to %d. Usage: `%s%s %s`. Type in \"back\" to undo the last attempt, \"aliases\" to list aliases and \"exit\" to kill the game.",
		g.limit, g.cc.Prefix, g.cmd.Name(), g.cmd.Usage())
	return err
}
