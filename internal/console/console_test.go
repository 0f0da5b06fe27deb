package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/lakebot/internal/event"
)

func TestParse(t *testing.T) {
	s := &Session{UserID: "u", ChannelID: "c"}

	ev, err := s.Parse("  lb!ping  ")
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, event.MessageCreate, ev.Kind)
	assert.Equal(t, Guild, ev.GuildID)
	assert.Equal(t, "lb!ping", ev.Content)
	assert.Equal(t, "in1", ev.MessageID)

	ev, err = s.Parse("")
	assert.NoError(t, err)
	assert.Nil(t, ev)

	_, err = s.Parse(":as dev")
	require.NoError(t, err)
	_, err = s.Parse(":in general")
	require.NoError(t, err)

	ev, err = s.Parse(":react m3 ✅")
	require.NoError(t, err)
	assert.Equal(t, event.ReactionAdd, ev.Kind)
	assert.Equal(t, "m3", ev.MessageID)
	assert.Equal(t, "✅", ev.Emoji)
	assert.Equal(t, "dev", ev.UserID)
	assert.Equal(t, "general", ev.ChannelID)

	_, err = s.Parse(":react m3")
	assert.Error(t, err)
	_, err = s.Parse(":dance")
	assert.Error(t, err)
	_, err = s.Parse(":quit")
	assert.ErrorIs(t, err, ErrQuit)
}

func TestRunForwardsUntilQuit(t *testing.T) {
	s := &Session{UserID: "u", ChannelID: "c"}
	in := strings.NewReader("hello\n:bogus\n:as v\nworld\n:quit\nignored\n")
	var errOut bytes.Buffer
	var got []*event.Event

	err := s.Run(context.Background(), in, &errOut, func(_ context.Context, ev *event.Event) {
		got = append(got, ev)
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "u", got[0].UserID)
	assert.Equal(t, "v", got[1].UserID)
	assert.Equal(t, "world", got[1].Content)
	assert.Contains(t, errOut.String(), "unknown directive")
}

func TestRunStopsAtEOF(t *testing.T) {
	s := &Session{UserID: "u", ChannelID: "c"}
	var n int
	err := s.Run(context.Background(), strings.NewReader("a\nb"), &bytes.Buffer{}, func(context.Context, *event.Event) { n++ })
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
