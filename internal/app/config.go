package app

import (
	"errors"
	"fmt"
	"strings"
)

// Config holds everything an App needs that does not come from option files.
type Config struct {
	OptionFiles []string // local paths, directories or remote URIs
	ModulesPath string   // extra manifest directory

	LogFormat       string
	LogLevel        string // empty defers to the application's output_level
	HealthcheckPort int
	// Env is exposed to option file expressions as `env`. Nil means the
	// process environment.
	Env map[string]string
}

// NewConfig validates cfg and returns a normalized copy.
func NewConfig(cfg Config) (*Config, error) {
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel != "" {
		if _, err := parseLevel(cfg.LogLevel); err != nil {
			return nil, err
		}
	}
	if cfg.HealthcheckPort < 0 {
		return nil, errors.New("healthcheck-port must not be negative")
	}
	return &cfg, nil
}
