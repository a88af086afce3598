// Package config loads service configuration from MEMBERCORE_* environment
// variables declared through `env` struct tags.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv populates target from its `env` struct tags, applying `envDefault`
// values for unset variables. The cmd packages layer flags on top afterwards.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
