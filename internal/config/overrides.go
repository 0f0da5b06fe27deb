package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Override adjusts one command without touching its code.
type Override struct {
	Cooldown *time.Duration `yaml:"cooldown"`
	Aliases  []string       `yaml:"aliases"`
	Disabled bool           `yaml:"disabled"`
}

// Overrides maps command names to their overrides.
type Overrides map[string]Override

type overridesFile struct {
	Commands Overrides `yaml:"commands"`
}

// LoadOverrides reads a YAML file of the form
//
//	commands:
//	  guess:
//	    cooldown: 10s
//	    aliases: [gn]
//	  say:
//	    disabled: true
//
// A missing file yields no overrides.
func LoadOverrides(path string) (Overrides, error) {
	if path == "" {
		return Overrides{}, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Overrides{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var f overridesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	out := make(Overrides, len(f.Commands))
	for name, o := range f.Commands {
		out[strings.ToLower(name)] = o
	}
	return out, nil
}

// For returns the override for a command, if any.
func (o Overrides) For(name string) (Override, bool) {
	ov, ok := o[strings.ToLower(name)]
	return ov, ok
}
