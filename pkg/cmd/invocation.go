// Package cmd provides a transport-agnostic command core: a command is something
// with a name, description, and Run(ctx, invocation). How it is registered and
// dispatched (Discord messages, the console) is defined by adapters that wrap
// this.
package cmd

import (
	"context"
	"time"
)

// Invocation carries the minimal input any command runner can pass: arguments
// and an opaque payload. Adapters set Data to their own context.
type Invocation struct {
	Name string
	Args []string
	Data any
}

// Command is the universal contract: identity plus execution. Permissions,
// cooldowns and transport-specific details stay in optional interfaces below
// and in adapters.
type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}

// Aliased commands answer to extra names.
type Aliased interface {
	Aliases() []string
}

// Usager commands document their arguments.
type Usager interface {
	Usage() string
}

// Cooldowner commands limit how often one user may run them.
type Cooldowner interface {
	Cooldown() time.Duration
}

// Restricted commands are limited to the bot developers.
type Restricted interface {
	DeveloperOnly() bool
}

// Grouped commands belong to a help category.
type Grouped interface {
	Group() string
}

// AliasesOf returns c's aliases, looking through middleware wrappers.
func AliasesOf(c Command) []string {
	if a, ok := Root(c).(Aliased); ok {
		return a.Aliases()
	}
	return nil
}

// UsageOf returns c's usage string or "".
func UsageOf(c Command) string {
	if u, ok := Root(c).(Usager); ok {
		return u.Usage()
	}
	return ""
}

// CooldownOf returns c's cooldown, zero when it has none.
func CooldownOf(c Command) time.Duration {
	if cd, ok := Root(c).(Cooldowner); ok {
		return cd.Cooldown()
	}
	return 0
}

// DeveloperOnly reports whether c is restricted to developers.
func DeveloperOnly(c Command) bool {
	if r, ok := Root(c).(Restricted); ok {
		return r.DeveloperOnly()
	}
	return false
}

// GroupOf returns c's help category or "general".
func GroupOf(c Command) string {
	if g, ok := Root(c).(Grouped); ok && g.Group() != "" {
		return g.Group()
	}
	return "general"
}
