package runner

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// DefaultMaxTicks is the default tick budget of a run.
const DefaultMaxTicks = 1000

// TestRunConfig bounds a run.
type TestRunConfig struct {
	// MaxTicks is the number of world ticks a run may advance before
	// pending steps count as a timeout.
	MaxTicks uint64 `env:"FLINT_MAX_TICKS" envDefault:"1000"`

	// FailFast stops dispatch at the first failed assertion instead of
	// accumulating every mismatch.
	FailFast bool `env:"FLINT_FAIL_FAST" envDefault:"false"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() TestRunConfig {
	return TestRunConfig{MaxTicks: DefaultMaxTicks}
}

// LoadConfigFromEnv reads FLINT_MAX_TICKS and FLINT_FAIL_FAST, falling back
// to the defaults for unset variables.
func LoadConfigFromEnv() (TestRunConfig, error) {
	var cfg TestRunConfig
	if err := env.Parse(&cfg); err != nil {
		return TestRunConfig{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return TestRunConfig{}, err
	}
	return cfg, nil
}

// Validate rejects configurations no run could satisfy.
func (c TestRunConfig) Validate() error {
	if c.MaxTicks == 0 {
		return fmt.Errorf("max ticks must be at least 1")
	}
	return nil
}
