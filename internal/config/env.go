// Package config reads worldstore settings from the environment and builds
// the process logger.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Environment variable names.
const (
	EnvDB          = "WORLDSTORE_DB"
	EnvConfigDir   = "WORLDSTORE_CONFIG_DIR"
	EnvSnapshotDir = "WORLDSTORE_SNAPSHOT_DIR"
	EnvLogLevel    = "WORLDSTORE_LOG_LEVEL"
	EnvLogFormat   = "WORLDSTORE_LOG_FORMAT"
)

// Env holds settings taken from environment variables. Empty strings mean
// the variable was not set and a later default applies.
type Env struct {
	DBPath      string `env:"WORLDSTORE_DB"`
	ConfigDir   string `env:"WORLDSTORE_CONFIG_DIR"`
	SnapshotDir string `env:"WORLDSTORE_SNAPSHOT_DIR"`
	LogLevel    string `env:"WORLDSTORE_LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"WORLDSTORE_LOG_FORMAT" envDefault:"text"`
}

// LoadEnv parses Env from the process environment.
func LoadEnv() (Env, error) {
	var cfg Env
	if err := ParseEnv(&cfg); err != nil {
		return Env{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
