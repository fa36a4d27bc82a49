package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

const configPathEnvVar = "CONFIG_PATH"

type Config interface {
	EnvConfig
	BackendConfig
	SessionConfig
	ConsoleConfig
	Validate() error
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetLogLevel() string
	GetEnv() string
	IsDev() bool
}

type mainConfig struct {
	EnvVars `yaml:"env"`
	Backend `yaml:"backend"`
	Session `yaml:"session"`
	Console `yaml:"console"`
}

var _ Config = (*mainConfig)(nil)

// Load reads configuration from the environment and, when CONFIG_PATH is set,
// from that YAML file first. Environment variables win over the file.
func Load() (Config, error) {
	cfg := &mainConfig{}

	if path := os.Getenv(configPathEnvVar); path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

// Validate checks values that cannot be expressed with struct tags.
func (c *mainConfig) Validate() error {
	if err := c.Backend.validate(); err != nil {
		return err
	}
	if err := c.Session.validate(); err != nil {
		return err
	}
	return c.Console.validate()
}
