// Package config loads process configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable name declared in config struct tags.
const EnvPrefix = "ROCKETWATCH_"

// ParseEnv loads configuration from ROCKETWATCH_* environment variables.
//
// Struct tags name variables without the prefix, so `env:"DB_PATH"` reads
// ROCKETWATCH_DB_PATH.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
