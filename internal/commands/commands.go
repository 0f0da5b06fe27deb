// Package commands assembles the bot's command set.
package commands

import (
	"time"

	"github.com/keshon/lakebot/internal/command"
	"github.com/keshon/lakebot/internal/commands/core"
	"github.com/keshon/lakebot/internal/commands/developer"
	"github.com/keshon/lakebot/internal/commands/fun"
	"github.com/keshon/lakebot/internal/commands/moderation"
	"github.com/keshon/lakebot/internal/config"
	"github.com/keshon/lakebot/pkg/cmd"
)

// All returns a fresh instance of every command.
func All() []command.MessageCommand {
	return []command.MessageCommand{
		&core.PingCommand{},
		&core.HelpCommand{},
		&core.AboutCommand{},
		&fun.GuessCommand{},
		&fun.SayCommand{},
		&moderation.PrefixCommand{},
		&moderation.HistoryCommand{},
		&moderation.MuteRoleCommand{},
		&developer.LakeBanCommand{},
		&developer.UnbanCommand{},
		&developer.ShutdownCommand{},
	}
}

// RegisterAll registers cmds in reg behind mws with the overrides applied.
// Disabled commands are skipped. It returns the registered names.
func RegisterAll(reg *cmd.Registry, cmds []command.MessageCommand, overrides config.Overrides, mws ...cmd.Middleware) []string {
	var names []string
	for _, c := range cmds {
		if ov, ok := overrides.For(c.Name()); ok {
			if ov.Disabled {
				continue
			}
			c = &overridden{MessageCommand: c, ov: ov}
		}
		command.Register(reg, c, mws...)
		names = append(names, c.Name())
	}
	return names
}

type overridden struct {
	command.MessageCommand
	ov config.Override
}

func (o *overridden) Aliases() []string {
	if o.ov.Aliases != nil {
		return o.ov.Aliases
	}
	return o.MessageCommand.Aliases()
}

func (o *overridden) Cooldown() time.Duration {
	if o.ov.Cooldown != nil {
		return *o.ov.Cooldown
	}
	return o.MessageCommand.Cooldown()
}
