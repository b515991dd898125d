package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from environment variables. Fields whose
// variable is unset keep their current value.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ApplyEnv overlays PROTCACHE_* variables on opts.
func ApplyEnv(opts Options) (Options, error) {
	if err := ParseEnv(&opts); err != nil {
		return opts, err
	}
	return opts, nil
}
