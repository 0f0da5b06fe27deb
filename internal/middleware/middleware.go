// Package middleware holds the preconditions every message command passes
// through before its body runs.
package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/keshon/lakebot/internal/command"
	"github.com/keshon/lakebot/internal/cooldown"
	"github.com/keshon/lakebot/internal/storage"
	"github.com/keshon/lakebot/pkg/cmd"
)

// Defaults is the standard chain, outermost first: guild-only, developer-only,
// sanction, session gate, cooldown, then the command logger around the body.
func Defaults() []cmd.Middleware {
	return []cmd.Middleware{
		WithGuildOnly(),
		WithDeveloperOnly(),
		WithSanctionCheck(),
		WithSessionGate(),
		WithCooldown(),
		WithCommandLogger(),
	}
}

// guard wraps c so that check runs first; the body runs only when check
// returns true.
func guard(c cmd.Command, check func(ctx context.Context, cc *command.Context) (bool, error)) cmd.Command {
	return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
		cc, ok := command.From(inv)
		if !ok {
			return c.Run(ctx, inv)
		}
		pass, err := check(ctx, cc)
		if err != nil || !pass {
			return err
		}
		return c.Run(ctx, inv)
	})
}

// WithGuildOnly drops invocations from direct messages.
func WithGuildOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return guard(c, func(_ context.Context, cc *command.Context) (bool, error) {
			return cc.Event.InGuild(), nil
		})
	}
}

// WithDeveloperOnly rejects callers who are not developers when the command
// is restricted.
func WithDeveloperOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return guard(c, func(ctx context.Context, cc *command.Context) (bool, error) {
			if !cmd.DeveloperOnly(c) || cc.IsDeveloper(cc.Event.UserID) {
				return true, nil
			}
			_, err := cc.Failure(ctx, "You don't have permissions to execute this command!")
			return false, err
		})
	}
}

// WithSanctionCheck rejects sanctioned users.
func WithSanctionCheck() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return guard(c, func(ctx context.Context, cc *command.Context) (bool, error) {
			if cc.Storage == nil {
				return true, nil
			}
			sn, banned, err := cc.Storage.Sanctioned(cc.Event.UserID)
			if err != nil {
				return false, fmt.Errorf("check sanction: %w", err)
			}
			if !banned {
				return true, nil
			}
			_, err = cc.Failure(ctx, "%s, sorry! You can't execute this command because you got LakeBan for `%s`!",
				command.Mention(cc.Event.UserID), sn.Reason)
			return false, err
		})
	}
}

// WithSessionGate silently drops the invocation while the user has an open
// flow in the channel; the message is input for that flow.
func WithSessionGate() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return guard(c, func(_ context.Context, cc *command.Context) (bool, error) {
			if p, busy := cc.Sessions.Active(cc.Event.UserID, cc.Event.ChannelID); busy {
				cc.Log.Debug().Str("command", c.Name()).Str("user", cc.Event.UserID).
					Str("process", p.ID).Msg("invocation blocked by open session")
				return false, nil
			}
			return true, nil
		})
	}
}

// WithCooldown enforces the command's per-user cooldown.
func WithCooldown() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return guard(c, func(ctx context.Context, cc *command.Context) (bool, error) {
			ok, left := cc.Cooldowns.Acquire(c.Name(), cc.Event.UserID, cmd.CooldownOf(c))
			if ok {
				return true, nil
			}
			_, err := cc.Failure(ctx, "%s", CooldownMessage(left))
			return false, err
		})
	}
}

// CooldownMessage is the text shown to a user still on cooldown.
func CooldownMessage(left time.Duration) string {
	n := cooldown.Seconds(left)
	return fmt.Sprintf("Please wait %d %s before launching command again!", n, command.Plural(n, "second"))
}

// WithCommandLogger records every run in the guild's command history.
func WithCommandLogger() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			start := time.Now()
			err := c.Run(ctx, inv)

			cc, ok := command.From(inv)
			if !ok {
				return err
			}
			cc.Log.Info().Str("command", c.Name()).Str("guild", cc.Event.GuildID).
				Str("user", cc.Event.UserID).Dur("took", time.Since(start)).Err(err).Msg("command finished")

			if cc.Storage != nil && cc.Event.InGuild() {
				rec := storage.CommandHistoryRecord{
					ChannelID: cc.Event.ChannelID,
					UserID:    cc.Event.UserID,
					Username:  cc.Event.Username,
					Command:   c.Name(),
					Param:     cc.ArgsRaw(),
					Datetime:  start,
				}
				if lerr := cc.Storage.AppendCommandToHistory(cc.Event.GuildID, rec); lerr != nil {
					cc.Log.Warn().Err(lerr).Str("command", c.Name()).Msg("failed to log command")
				}
			}
			return err
		})
	}
}
