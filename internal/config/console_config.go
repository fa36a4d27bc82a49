package config

import "fmt"

type ConsoleConfig interface {
	GetLoginRatePerMinute() int
	GetMetricsEnabled() bool
}

type Console struct {
	LoginRatePerMinute int  `yaml:"login_rate_per_minute" env:"LOGIN_RATE_PER_MINUTE" env-default:"10"`
	MetricsEnabled     bool `yaml:"metrics_enabled"       env:"METRICS_ENABLED"       env-default:"true"`
}

var _ ConsoleConfig = Console{}

func (c Console) GetLoginRatePerMinute() int {
	return c.LoginRatePerMinute
}

func (c Console) GetMetricsEnabled() bool {
	return c.MetricsEnabled
}

func (c Console) validate() error {
	if c.LoginRatePerMinute <= 0 {
		return fmt.Errorf("LOGIN_RATE_PER_MINUTE must be positive")
	}
	return nil
}
