package ratelimit

import (
	"fmt"
	"time"
)

// EndpointLimit bounds attempts per client within a fixed window.
type EndpointLimit struct {
	// MaxAttempts is the number of attempts allowed per window.
	MaxAttempts int `mapstructure:"max_attempts"`

	// Window is the counting window.
	Window time.Duration `mapstructure:"window"`
}

// Metered endpoint names. Endpoints without an entry in the config are
// unmetered pass-throughs.
const (
	EndpointLogin         = "login"
	EndpointRegister      = "register"
	EndpointResetPassword = "reset-password"
)

// Config maps endpoint names to their limits. Fixed at startup.
type Config struct {
	Endpoints map[string]EndpointLimit `mapstructure:"endpoints"`

	// CleanupInterval is how often stale windows are dropped (default: 1h).
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// ApplyDefaults installs the credential-endpoint limits when none are
// configured: login 5/15m, register 3/1h, reset-password 3/1h.
func (c *Config) ApplyDefaults() {
	if c.Endpoints == nil {
		c.Endpoints = map[string]EndpointLimit{
			EndpointLogin:         {MaxAttempts: 5, Window: 15 * time.Minute},
			EndpointRegister:      {MaxAttempts: 3, Window: time.Hour},
			EndpointResetPassword: {MaxAttempts: 3, Window: time.Hour},
		}
	}
	if c.CleanupInterval == 0 {
		c.CleanupInterval = time.Hour
	}
}

// Validate checks every configured limit.
func (c *Config) Validate() error {
	for name, limit := range c.Endpoints {
		if limit.MaxAttempts <= 0 {
			return fmt.Errorf("ratelimit: endpoint %s: max_attempts must be positive", name)
		}
		if limit.Window <= 0 {
			return fmt.Errorf("ratelimit: endpoint %s: window must be positive", name)
		}
	}
	return nil
}
