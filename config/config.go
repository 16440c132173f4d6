// Package config loads and validates the service configuration. Values come
// from an optional config.yml, an optional .env file, and the process
// environment, in increasing order of precedence.
package config

import (
	"fmt"

	"github.com/cinematch/authkit/logger"
	"github.com/cinematch/authkit/password"
	"github.com/cinematch/authkit/ratelimit"
	"github.com/cinematch/authkit/revocation"
	"github.com/cinematch/authkit/server"
	"github.com/cinematch/authkit/token"
)

// Config is the full service configuration.
type Config struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`

	Logging    logger.Config     `yaml:"logging" mapstructure:"logging"`
	Server     server.Config     `yaml:"server" mapstructure:"server"`
	Token      token.Config      `yaml:"token" mapstructure:"token"`
	Password   password.Config   `yaml:"password" mapstructure:"password"`
	RateLimit  ratelimit.Config  `yaml:"ratelimit" mapstructure:"ratelimit"`
	Revocation revocation.Config `yaml:"revocation" mapstructure:"revocation"`
}

// ApplyDefaults fills in zero-value fields across all sections.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "authd"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "production" {
		// Browser cookies must be HTTPS-only outside development.
		c.Server.SecureCookies = true
	}
	c.Logging.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Token.ApplyDefaults()
	c.Password.ApplyDefaults()
	c.RateLimit.ApplyDefaults()
	c.Revocation.ApplyDefaults()

	// Revocation entries only matter for as long as a token can live.
	if c.Revocation.MaxTokenLifetime < c.Token.RefreshTokenTTL {
		c.Revocation.MaxTokenLifetime = c.Token.RefreshTokenTTL
	}
}

// Validate checks all sections. The token secret is the one setting with no
// default: a missing secret must stop the process.
func (c *Config) Validate() error {
	validEnvs := []string{"development", "staging", "production"}
	valid := false
	for _, v := range validEnvs {
		if c.Environment == v {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("config.environment must be one of %v (got: %s)", validEnvs, c.Environment)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("config.server: %w", err)
	}
	if err := c.Token.Validate(); err != nil {
		return fmt.Errorf("config.token: %w", err)
	}
	if err := c.Password.Validate(); err != nil {
		return fmt.Errorf("config.password: %w", err)
	}
	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("config.ratelimit: %w", err)
	}
	return nil
}
