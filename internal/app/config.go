package app

import (
	"errors"
	"fmt"

	"github.com/canopy-iac/canopy/internal/scheduler"
)

// Config holds all the necessary configuration for a command invocation.
type Config struct {
	ProjectsPath string // directory containing .hcl project manifests

	LogFormat string
	LogLevel  string

	Parallel  int    // max concurrent operations within a level
	OnFailure string // stop | continue | finish-level
}

// NewConfig validates a Config and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ProjectsPath == "" {
		return nil, errors.New("projects path is a required configuration field and cannot be empty")
	}
	if cfg.Parallel < 1 {
		cfg.Parallel = 1
	}
	if cfg.OnFailure == "" {
		cfg.OnFailure = "continue"
	}
	if _, err := cfg.FailurePolicy(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FailurePolicy maps the configured policy name onto the scheduler's type.
func (c *Config) FailurePolicy() (scheduler.FailurePolicy, error) {
	switch c.OnFailure {
	case "continue":
		return scheduler.Continue, nil
	case "stop":
		return scheduler.Stop, nil
	case "finish-level":
		return scheduler.FinishLevel, nil
	}
	return 0, fmt.Errorf("invalid on-failure policy %q (expected stop, continue or finish-level)", c.OnFailure)
}
