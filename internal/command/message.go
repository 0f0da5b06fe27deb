package command

import (
	"context"
	"fmt"
	"time"

	"github.com/keshon/lakebot/pkg/cmd"
)

// MessageCommand is what individual commands implement.
type MessageCommand interface {
	Name() string
	Description() string
	Aliases() []string
	Usage() string
	Group() string
	Cooldown() time.Duration
	DeveloperOnly() bool
	Run(ctx context.Context, c *Context) error
}

// Adapter lets a MessageCommand live in the cmd registry.
type Adapter struct {
	Cmd MessageCommand
}

func (a *Adapter) Name() string            { return a.Cmd.Name() }
func (a *Adapter) Description() string     { return a.Cmd.Description() }
func (a *Adapter) Aliases() []string       { return a.Cmd.Aliases() }
func (a *Adapter) Usage() string           { return a.Cmd.Usage() }
func (a *Adapter) Group() string           { return a.Cmd.Group() }
func (a *Adapter) Cooldown() time.Duration { return a.Cmd.Cooldown() }
func (a *Adapter) DeveloperOnly() bool     { return a.Cmd.DeveloperOnly() }

func (a *Adapter) Run(ctx context.Context, inv *cmd.Invocation) error {
	c, ok := inv.Data.(*Context)
	if !ok {
		return fmt.Errorf("command %s: unexpected invocation payload %T", a.Cmd.Name(), inv.Data)
	}
	return a.Cmd.Run(ctx, c)
}

// Register adds a command to reg behind the given middlewares, first
// outermost.
func Register(reg *cmd.Registry, c MessageCommand, mws ...cmd.Middleware) {
	reg.Register(cmd.Apply(&Adapter{Cmd: c}, mws...))
}

// From extracts the command context from an invocation.
func From(inv *cmd.Invocation) (*Context, bool) {
	c, ok := inv.Data.(*Context)
	return c, ok
}
