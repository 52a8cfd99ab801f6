package config

import (
	"fmt"
)

// Execution modes for JobsConfig.Mode.
const (
	JobsModeSync   = "sync"
	JobsModeQueued = "queued"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	if c.Jobs.Mode != JobsModeSync && c.Jobs.Mode != JobsModeQueued {
		return fmt.Errorf("jobs.mode must be %q or %q (got %q)", JobsModeSync, JobsModeQueued, c.Jobs.Mode)
	}
	if c.Jobs.MaxAttempts < 1 {
		return fmt.Errorf("jobs.max_attempts must be >= 1 (got %d)", c.Jobs.MaxAttempts)
	}
	if c.Jobs.BackoffBase <= 0 {
		return fmt.Errorf("jobs.backoff_base must be > 0 (got %v)", c.Jobs.BackoffBase)
	}
	if c.Jobs.BackoffMax < c.Jobs.BackoffBase {
		return fmt.Errorf("jobs.backoff_max must be >= backoff_base (got %v < %v)", c.Jobs.BackoffMax, c.Jobs.BackoffBase)
	}

	if c.Provider.MaxTokens <= 0 {
		return fmt.Errorf("provider.max_tokens must be > 0 (got %d)", c.Provider.MaxTokens)
	}

	return nil
}
