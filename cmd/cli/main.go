// cmd/cli/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/keshon/lakebot/internal/app"
	"github.com/keshon/lakebot/internal/command"
	"github.com/keshon/lakebot/internal/commands"
	"github.com/keshon/lakebot/internal/commands/core"
	"github.com/keshon/lakebot/internal/config"
	"github.com/keshon/lakebot/internal/console"
	"github.com/keshon/lakebot/internal/gateway"
	"github.com/keshon/lakebot/internal/logging"
	"github.com/keshon/lakebot/pkg/cmd"
)

var (
	envFile  string
	logLevel string

	cfg *config.Config
	log *logging.Logger
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lakebot-cli",
		Short: "Drive the bot core from a terminal",
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			var files []string
			if envFile != "" {
				files = append(files, envFile)
			}
			var err error
			cfg, err = config.Load(files...)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if cfg.LogFile != "" {
				log = logging.NewWithFile(cfg.LogFile, cfg.LogLevel)
			} else {
				log = logging.New(os.Stderr, cfg.LogLevel)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&envFile, "env", "", "env file to load (default .env)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(newConsoleCmd())
	root.AddCommand(newCommandsCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// everyoneManages grants guild management to every console user.
type everyoneManages struct{}

func (everyoneManages) CanManageGuild(context.Context, string, string, string) (bool, error) {
	return true, nil
}

func newConsoleCmd() *cobra.Command {
	var (
		user      string
		channel   string
		developer bool
	)
	c := &cobra.Command{
		Use:   "console",
		Short: "Read messages from stdin and print the bot's replies",
		Long: `Every line is sent as a message from the current user. Directives:
  :as <user>               switch the speaking user
  :in <channel>            switch the channel
  :react <message> <emoji> react to a message (ids are printed as [m1], [m2], ...)
  :quit                    exit`,
		RunE: func(c *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(c.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if developer && !slices.Contains(cfg.DeveloperIDs, user) {
				cfg.DeveloperIDs = append(cfg.DeveloperIDs, user)
			}
			bot, err := app.New(ctx, app.Options{
				Config:      cfg,
				Gateway:     gateway.NewRecorder(c.OutOrStdout()),
				Permissions: everyoneManages{},
				Log:         log,
				BotName:     "LakeBot",
				Shutdown:    cancel,
			})
			if err != nil {
				return err
			}
			bot.SetIdentity("console-bot", "")

			s := &console.Session{UserID: user, ChannelID: channel}
			runErr := s.Run(ctx, c.InOrStdin(), c.ErrOrStderr(), bot.Forward)

			shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
			defer stop()
			if err := bot.Close(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("unclean shutdown")
			}
			if runErr != nil && ctx.Err() == nil {
				return runErr
			}
			return nil
		},
	}
	c.Flags().StringVar(&user, "user", "console", "user id to speak as")
	c.Flags().StringVar(&channel, "channel", "general", "channel id to speak in")
	c.Flags().BoolVar(&developer, "developer", true, "treat the speaking user as a bot developer")
	return c
}

func newCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List the commands with overrides applied",
		RunE: func(c *cobra.Command, args []string) error {
			reg := cmd.NewRegistry()
			commands.RegisterAll(reg, commands.All(), cfg.Commands)

			w := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tGROUP\tALIASES\tCOOLDOWN")
			for _, rc := range reg.GetAll() {
				cd := "-"
				if d := cmd.CooldownOf(rc); d > 0 {
					cd = d.String()
				}
				aliases := strings.Join(cmd.AliasesOf(rc), ", ")
				if aliases == "" {
					aliases = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rc.Name(), cmd.GroupOf(rc), aliases, cd)
			}
			return w.Flush()
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print the version",
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(c *cobra.Command, args []string) {
			fmt.Fprintf(c.OutOrStdout(), "lakebot %s\n", core.Version)
		},
	}
}

var _ command.Permissions = everyoneManages{}
