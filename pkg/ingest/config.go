package ingest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config controls one indexing run. It is usually loaded from a
// project.yaml next to the data directory.
type Config struct {
	// Graph is the store partition results are written to.
	Graph string `yaml:"graph"`
	// MaxText caps the plain-text excerpt a module may embed, in bytes.
	MaxText int `yaml:"max_text"`
	// Workers bounds the extraction pool; 0 means NumCPU (capped).
	Workers int `yaml:"workers"`
	// Ignore lists directory names skipped during the walk.
	Ignore []string `yaml:"ignore"`
}

// DefaultConfig returns the settings used when no project.yaml is present.
func DefaultConfig() *Config {
	return &Config{
		Graph:   "default",
		MaxText: 64 << 10,
		Ignore:  []string{".git", "node_modules", "dist", "build"},
	}
}

// LoadConfig reads and parses a project.yaml. Fields left unset fall back
// to the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse project config: %w", err)
	}
	if cfg.Graph == "" {
		cfg.Graph = "default"
	}
	if cfg.MaxText < 0 {
		cfg.MaxText = 0
	}
	return cfg, nil
}
