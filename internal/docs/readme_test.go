package docs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/lakebot/internal/commands"
	"github.com/keshon/lakebot/pkg/cmd"
)

func registry() *cmd.Registry {
	reg := cmd.NewRegistry()
	commands.RegisterAll(reg, commands.All(), nil)
	return reg
}

func TestCommandSectionsOrder(t *testing.T) {
	out := CommandSections(registry(), "lb!")

	general := strings.Index(out, "### General")
	fun := strings.Index(out, "### Fun")
	dev := strings.Index(out, "### Developer")
	require.True(t, general >= 0 && fun > general && dev > fun, out)

	assert.Contains(t, out, "- **`lb!guess <limit>`**")
	assert.Contains(t, out, "aliases: commands, h")
	assert.Contains(t, out, "*developers only*")
}

func TestUpdateReadme(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "README.md.tmpl")
	out := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(tmpl, []byte("# Bot\n\nPrefix: {{.Prefix}}\n\n{{.CommandSections}}"), 0o644))

	require.NoError(t, UpdateReadme(registry(), "?", tmpl, out))
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "# Bot\n\nPrefix: ?\n"))
	assert.Contains(t, string(b), "**`?ping`**")

	assert.Error(t, UpdateReadme(registry(), "?", filepath.Join(dir, "missing"), out))
}
