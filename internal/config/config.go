// Package config loads process configuration from the environment (and an
// optional .env file) plus per-command overrides from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DiscordToken  string        `env:"DISCORD_TOKEN"`
	StoragePath   string        `env:"STORAGE_PATH" envDefault:"datastore.json"`
	DefaultPrefix string        `env:"DEFAULT_PREFIX" envDefault:"lb!"`
	DeveloperIDs  []string      `env:"DEVELOPER_IDS" envSeparator:","`
	Workers       int           `env:"WORKERS" envDefault:"32"`
	QueueSize     int           `env:"QUEUE_SIZE" envDefault:"256"`
	AwaitTimeout  time.Duration `env:"AWAIT_TIMEOUT" envDefault:"1m"`
	CooldownSweep time.Duration `env:"COOLDOWN_SWEEP" envDefault:"1m"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFile       string        `env:"LOG_FILE"`
	StatusAddr    string        `env:"STATUS_ADDR"`
	CommandsFile  string        `env:"COMMANDS_FILE" envDefault:"commands.yaml"`

	// Commands holds the overrides read from CommandsFile.
	Commands Overrides `env:"-"`
}

// ErrNoToken is returned by RequireToken when DISCORD_TOKEN is unset.
var ErrNoToken = errors.New("DISCORD_TOKEN is not set")

// Load reads .env files (when present), parses the environment and loads the
// command overrides file.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.Commands, err = LoadOverrides(cfg.CommandsFile)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RequireToken fails when the gateway token is missing.
func (c *Config) RequireToken() error {
	if c.DiscordToken == "" {
		return ErrNoToken
	}
	return nil
}

func (c *Config) validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("WORKERS must be positive, got %d", c.Workers)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("QUEUE_SIZE must be positive, got %d", c.QueueSize)
	}
	if c.DefaultPrefix == "" {
		return errors.New("DEFAULT_PREFIX must not be empty")
	}
	return nil
}
