// Package console turns lines typed on a terminal into gateway events, so the
// bot core can be driven without a chat connection.
//
// Plain lines are messages from the current user. Lines starting with a colon
// are directives:
//
//	:as <user>               switch the speaking user
//	:in <channel>            switch the channel
//	:react <message> <emoji> react to a message
//	:quit                    stop reading
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/keshon/lakebot/internal/event"
)

// Guild is the guild every console event belongs to.
const Guild = "console"

// ErrQuit is returned by Parse for the :quit directive.
var ErrQuit = errors.New("console: quit")

// Session is the speaking identity of the console.
type Session struct {
	UserID    string
	ChannelID string
	seq       int
}

// Parse converts one line into an event. It returns nil, nil for blank lines
// and directives that only change the session.
func (s *Session) Parse(line string) (*event.Event, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}
	if !strings.HasPrefix(line, ":") {
		s.seq++
		return &event.Event{
			Kind:      event.MessageCreate,
			GuildID:   Guild,
			ChannelID: s.ChannelID,
			MessageID: "in" + strconv.Itoa(s.seq),
			UserID:    s.UserID,
			Username:  s.UserID,
			Content:   line,
		}, nil
	}

	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty directive")
	}
	switch fields[0] {
	case "quit", "q":
		return nil, ErrQuit
	case "as":
		if len(fields) != 2 {
			return nil, fmt.Errorf("usage: :as <user>")
		}
		s.UserID = fields[1]
		return nil, nil
	case "in":
		if len(fields) != 2 {
			return nil, fmt.Errorf("usage: :in <channel>")
		}
		s.ChannelID = fields[1]
		return nil, nil
	case "react":
		if len(fields) != 3 {
			return nil, fmt.Errorf("usage: :react <message> <emoji>")
		}
		return &event.Event{
			Kind:      event.ReactionAdd,
			GuildID:   Guild,
			ChannelID: s.ChannelID,
			MessageID: fields[1],
			UserID:    s.UserID,
			Username:  s.UserID,
			Emoji:     fields[2],
		}, nil
	}
	return nil, fmt.Errorf("unknown directive %q", fields[0])
}

// Run reads lines from in until EOF, :quit or ctx ends, forwarding each event.
// Directive errors are written to errOut and reading continues.
func (s *Session) Run(ctx context.Context, in io.Reader, errOut io.Writer, forward func(context.Context, *event.Event)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			ev, err := s.Parse(line)
			if errors.Is(err, ErrQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintln(errOut, err)
				continue
			}
			if ev != nil {
				forward(ctx, ev)
			}
		}
	}
}
