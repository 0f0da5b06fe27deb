package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/lakebot/internal/commands/commandstest"
)

func muteRole(t *testing.T, h *commandstest.Harness, user, content string) {
	t.Helper()
	require.NoError(t, (&MuteRoleCommand{}).Run(context.Background(), h.Context(user, "muterole", content)))
}

func TestMuteRole(t *testing.T) {
	h := commandstest.New(t)

	muteRole(t, h, commandstest.User, "lb!muterole")
	assert.Equal(t, "The mute role isn't enabled!", h.LastDescription())

	muteRole(t, h, commandstest.User, "lb!muterole <@&42>")
	assert.Equal(t, "You do not have permissions for executing the command!", h.LastDescription())

	h.Perms.Grant(commandstest.User)
	muteRole(t, h, commandstest.User, "lb!muterole everyone")
	assert.Equal(t, "Couldn't find that role!", h.LastDescription())

	muteRole(t, h, commandstest.User, "lb!muterole <@&42>")
	assert.Equal(t, "Now the mute role is <@&42>", h.LastDescription())
	id, err := h.Storage.MuteRole(commandstest.Guild)
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	muteRole(t, h, commandstest.Developer, "lb!muterole")
	assert.Equal(t, "The mute role is <@&42>", h.LastDescription())

	muteRole(t, h, commandstest.User, "lb!muterole RESET")
	assert.Equal(t, "The mute role is disabled!", h.LastDescription())
	id, _ = h.Storage.MuteRole(commandstest.Guild)
	assert.Empty(t, id)
}

func TestParseRoleMention(t *testing.T) {
	id, ok := ParseRoleMention("<@&123>")
	assert.True(t, ok)
	assert.Equal(t, "123", id)
	id, ok = ParseRoleMention("456")
	assert.True(t, ok)
	assert.Equal(t, "456", id)
	_, ok = ParseRoleMention("<@123>")
	assert.False(t, ok)
	_, ok = ParseRoleMention("")
	assert.False(t, ok)
}
