// Copyright 2025-2026 Andres Torres

package main

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed example-config.yaml
var exampleConfig string

// Config holds the daemon configuration.
type Config struct {
	Token  string `yaml:"token"`
	Cookie string `yaml:"cookie"`
	// StatusFile is where the resume watermark is persisted. Empty
	// disables persistence.
	StatusFile string `yaml:"status_file"`
	LogLevel   string `yaml:"log_level"`
}

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type rawConfig Config
	return node.Decode((*rawConfig)(c))
}

// loadConfig reads the YAML config and applies environment overrides. A
// .env file next to the process is honored; SLACK_TOKEN and SLACK_COOKIE
// win over file values.
func loadConfig(path string) (*Config, error) {
	// Missing .env is the normal case, not an error.
	_ = godotenv.Load()

	cfg := &Config{LogLevel: "info"}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	if tok := os.Getenv("SLACK_TOKEN"); tok != "" {
		cfg.Token = tok
	}
	if cookie := os.Getenv("SLACK_COOKIE"); cookie != "" {
		cfg.Cookie = cookie
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("no token configured: set token in %s or SLACK_TOKEN", path)
	}
	return cfg, nil
}
