package moderation

import (
	"context"
	"strings"
	"time"

	"github.com/keshon/lakebot/internal/command"
)

type MuteRoleCommand struct{}

func (c *MuteRoleCommand) Name() string { return "muterole" }
func (c *MuteRoleCommand) Description() string {
	return "Show or change the role given to muted members"
}
func (c *MuteRoleCommand) Aliases() []string       { return []string{"mute-role", "setmuterole"} }
func (c *MuteRoleCommand) Usage() string           { return "[role|reset]" }
func (c *MuteRoleCommand) Group() string           { return "moderation" }
func (c *MuteRoleCommand) Cooldown() time.Duration { return 5 * time.Second }
func (c *MuteRoleCommand) DeveloperOnly() bool     { return false }

func (c *MuteRoleCommand) Run(ctx context.Context, cc *command.Context) error {
	guild := cc.Event.GuildID
	if len(cc.Args) == 0 {
		id, err := cc.Storage.MuteRole(guild)
		if err != nil {
			return err
		}
		if id == "" {
			_, err = cc.Failure(ctx, "The mute role isn't enabled!")
			return err
		}
		_, err = cc.Success(ctx, "The mute role is %s", RoleMention(id))
		return err
	}

	allowed, err := canManage(ctx, cc)
	if err != nil {
		return err
	}
	if !allowed {
		_, err = cc.Failure(ctx, "You do not have permissions for executing the command!")
		return err
	}

	if strings.EqualFold(cc.Args[0], "reset") {
		if err := cc.Storage.SetMuteRole(guild, ""); err != nil {
			return err
		}
		_, err = cc.Success(ctx, "The mute role is disabled!")
		return err
	}

	id, ok := ParseRoleMention(cc.Args[0])
	if !ok {
		_, err = cc.Failure(ctx, "Couldn't find that role!")
		return err
	}
	if err := cc.Storage.SetMuteRole(guild, id); err != nil {
		return err
	}
	_, err = cc.Success(ctx, "Now the mute role is %s", RoleMention(id))
	return err
}

func RoleMention(id string) string { return "<@&" + id + ">" }

// ParseRoleMention accepts "<@&id>" or a bare numeric id.
func ParseRoleMention(s string) (string, bool) {
	s = strings.TrimSuffix(strings.TrimPrefix(s, "<@&"), ">")
	if s == "" {
		return "", false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return s, true
}
