// Package docs renders the command reference that goes into README.md.
package docs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/keshon/lakebot/internal/commands/core"
	"github.com/keshon/lakebot/pkg/cmd"
)

// CommandSections renders every command, developer-only ones included,
// grouped and ordered the way the help command lists them.
func CommandSections(reg *cmd.Registry, prefix string) string {
	var buf bytes.Buffer
	group := ""
	for _, c := range core.Visible(reg.GetAll(), true) {
		if g := cmd.GroupOf(c); g != group {
			if group != "" {
				buf.WriteString("\n")
			}
			group = g
			fmt.Fprintf(&buf, "### %s\n\n", titleCase(group))
		}

		usage := prefix + c.Name()
		if u := cmd.UsageOf(c); u != "" {
			usage += " " + u
		}
		fmt.Fprintf(&buf, "- **`%s`**: %s", usage, c.Description())
		if aliases := cmd.AliasesOf(c); len(aliases) > 0 {
			fmt.Fprintf(&buf, " (aliases: %s)", strings.Join(aliases, ", "))
		}
		if cmd.DeveloperOnly(c) {
			buf.WriteString(" *developers only*")
		}
		buf.WriteString("\n")
	}
	return buf.String()
}

// Render executes tmpl with CommandSections and Prefix.
func Render(w io.Writer, tmpl string, reg *cmd.Registry, prefix string) error {
	t, err := template.New("readme").Parse(tmpl)
	if err != nil {
		return err
	}
	data := struct {
		Prefix          string
		CommandSections string
	}{
		Prefix:          prefix,
		CommandSections: CommandSections(reg, prefix),
	}
	return t.Execute(w, data)
}

// UpdateReadme renders tmplPath into outPath.
func UpdateReadme(reg *cmd.Registry, prefix, tmplPath, outPath string) error {
	tmpl, err := os.ReadFile(tmplPath)
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := Render(&out, string(tmpl), reg, prefix); err != nil {
		return err
	}
	return os.WriteFile(outPath, out.Bytes(), 0o644)
}

func titleCase(s string) string {
	if s == "" {
		return "Other"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
