package config

import (
	"fmt"
)

// Loader handles loading configuration from multiple sources
type Loader struct {
	config *Config
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		config: NewConfig(),
	}
}

// Load loads configuration using the cascading strategy:
// 1. Start with defaults
// 2. Override with environment variables
// 3. Override with command line flags (handled by cobra)
func (l *Loader) Load() (*Config, error) {
	if err := l.config.LoadFromEnvironment(); err != nil {
		return nil, err
	}

	if err := l.config.Validate(); err != nil {
		return nil, err
	}

	return l.config, nil
}

// Validate checks the configuration for values the client cannot run with
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server base URL must not be empty")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server request timeout must be positive, got %v", c.Server.RequestTimeout)
	}
	if c.Timer.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %v", c.Timer.TickInterval)
	}
	if c.Timer.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.Timer.PollInterval)
	}
	if c.Timer.PollMissThreshold < 1 {
		return fmt.Errorf("poll miss threshold must be at least 1, got %d", c.Timer.PollMissThreshold)
	}
	if c.Validation.RatingMin < 1 || c.Validation.RatingMax < c.Validation.RatingMin {
		return fmt.Errorf("invalid rating range [%d,%d]", c.Validation.RatingMin, c.Validation.RatingMax)
	}
	return nil
}
