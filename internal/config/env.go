package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv populates cfg from OLSYNC_-prefixed environment variables using
// the caarlos0/env library and the `env` tags on [Config].
func parseEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "OLSYNC_"}); err != nil {
		return fmt.Errorf("error getting env configs: %w", err)
	}

	return nil
}
