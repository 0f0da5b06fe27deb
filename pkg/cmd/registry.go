package cmd

import (
	"sort"
	"strings"
	"sync"
)

// Match scores, highest wins.
const (
	NoMatch    = 0
	AliasMatch = 1
	NameMatch  = 2
)

// Registry stores commands by name. It does not perform dispatch; each adapter
// looks up commands and invokes them with its own context.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds a command, replacing one with the same name.
func (r *Registry) Register(c Command) {
	r.mu.Lock()
	r.commands[strings.ToLower(c.Name())] = c
	r.mu.Unlock()
}

// Get returns the command with the given name, or nil.
func (r *Registry) Get(name string) Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commands[strings.ToLower(name)]
}

// Score rates how well token names c.
func Score(c Command, token string) int {
	token = strings.ToLower(token)
	if strings.ToLower(c.Name()) == token {
		return NameMatch
	}
	for _, a := range AliasesOf(c) {
		if strings.ToLower(a) == token {
			return AliasMatch
		}
	}
	return NoMatch
}

// Match returns the best-scoring command for token. An exact name beats an
// alias; ties between aliases go to the alphabetically first command name.
func (r *Registry) Match(token string) (Command, int) {
	if token == "" {
		return nil, NoMatch
	}
	if c := r.Get(token); c != nil {
		return c, NameMatch
	}
	var best Command
	bestScore := NoMatch
	for _, c := range r.GetAll() {
		if s := Score(c, token); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best, bestScore
}

// GetAll returns all registered commands, sorted by name.
func (r *Registry) GetAll() []Command {
	r.mu.RLock()
	list := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		list = append(list, c)
	}
	r.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name() < list[j].Name()
	})
	return list
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}
