package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keshon/lakebot/internal/commands"
	"github.com/keshon/lakebot/internal/docs"
	"github.com/keshon/lakebot/internal/logging"
	"github.com/keshon/lakebot/pkg/cmd"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var tmpl, out, prefix string
	root := &cobra.Command{
		Use:           "build-readme",
		Short:         "Render README.md from its template and the command registry",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, _ []string) error {
			log := logging.New(c.ErrOrStderr(), "info")

			reg := cmd.NewRegistry()
			commands.RegisterAll(reg, commands.All(), nil)

			if err := docs.UpdateReadme(reg, prefix, tmpl, out); err != nil {
				return fmt.Errorf("build README: %w", err)
			}
			log.Info().Str("out", out).Int("commands", reg.Len()).Msg("README updated")
			return nil
		},
	}
	root.Flags().StringVar(&tmpl, "template", "README.md.tmpl", "README template")
	root.Flags().StringVarP(&out, "out", "o", "README.md", "output file")
	root.Flags().StringVar(&prefix, "prefix", "lb!", "prefix shown in usage lines")
	return root
}
