package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RunConfig is the YAML file cgmlctl reads its run parameters from
// (spec_full.md §2 C11). Parameters is handed to driver.Build verbatim
// as the run's shared global parameter map.
type RunConfig struct {
	Parameters map[string]any `yaml:"parameters"`
	PrePosted  []string       `yaml:"pre_posted_events"`
	Timeout    time.Duration  `yaml:"timeout"`
	Infinite   bool           `yaml:"infinite"`
	SentryDSN  string         `yaml:"sentry_dsn"`
}

func loadRunConfig(path string) (RunConfig, error) {
	if path == "" {
		return RunConfig{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg RunConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return RunConfig{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
