package revocation

import "time"

// Config configures the revocation registry.
type Config struct {
	// MaxEntries is the size ceiling. Exceeding it clears the registry in
	// bulk (default: 100000).
	MaxEntries int `mapstructure:"max_entries"`

	// MaxTokenLifetime bounds how long an entry can matter. Entries older
	// than this are swept; they refer to tokens that have already expired.
	// Should equal the refresh-token TTL (default: 7d).
	MaxTokenLifetime time.Duration `mapstructure:"max_token_lifetime"`

	// SweepInterval is how often the janitor runs (default: 1h).
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.MaxEntries == 0 {
		c.MaxEntries = 100_000
	}
	if c.MaxTokenLifetime == 0 {
		c.MaxTokenLifetime = 7 * 24 * time.Hour
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = time.Hour
	}
}
