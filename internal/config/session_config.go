package config

import (
	"fmt"
	"time"
)

type SessionConfig interface {
	GetTokenFile() string
	GetInitRetryDelay() time.Duration
	GetExpiryMargin() time.Duration
	GetGuardTimeout() time.Duration
}

type Session struct {
	TokenFile      string        `yaml:"token_file"       env:"TOKEN_FILE"       env-default:"session.json"`
	InitRetryDelay time.Duration `yaml:"init_retry_delay" env:"INIT_RETRY_DELAY" env-default:"1s"`
	ExpiryMargin   time.Duration `yaml:"expiry_margin"    env:"EXPIRY_MARGIN"    env-default:"5m"`
	GuardTimeout   time.Duration `yaml:"guard_timeout"    env:"GUARD_TIMEOUT"    env-default:"10s"`
}

var _ SessionConfig = Session{}

// GetTokenFile is relative to the data folder.
func (s Session) GetTokenFile() string {
	return s.TokenFile
}

func (s Session) GetInitRetryDelay() time.Duration {
	return s.InitRetryDelay
}

func (s Session) GetExpiryMargin() time.Duration {
	return s.ExpiryMargin
}

func (s Session) GetGuardTimeout() time.Duration {
	return s.GuardTimeout
}

func (s Session) validate() error {
	if s.TokenFile == "" {
		return fmt.Errorf("TOKEN_FILE is required")
	}
	if s.InitRetryDelay < 0 {
		return fmt.Errorf("INIT_RETRY_DELAY must not be negative")
	}
	if s.ExpiryMargin < 0 {
		return fmt.Errorf("EXPIRY_MARGIN must not be negative")
	}
	if s.GuardTimeout <= 0 {
		return fmt.Errorf("GUARD_TIMEOUT must be positive")
	}
	return nil
}
