package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
)

// Config keeps runtime settings for the CLI.
type Config struct {
	DatabasePath string `yaml:"database"`
	Timezone     string `yaml:"timezone"`
	Output       string `yaml:"output"`
}

// Load reads the optional config file and applies environment overrides.
// Precedence: environment, then file, then defaults.
func Load() (Config, error) {
	cfg := Config{}

	path := configFilePath()
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	if v := strings.TrimSpace(os.Getenv("TEMPO_DB")); v != "" {
		cfg.DatabasePath = v
	}
	if v := strings.TrimSpace(os.Getenv("TEMPO_TZ")); v != "" {
		cfg.Timezone = v
	}
	if v := strings.TrimSpace(os.Getenv("TEMPO_OUTPUT")); v != "" {
		cfg.Output = v
	}

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(configDir(), "tempo.db")
	}
	if cfg.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Timezone); err != nil {
			return cfg, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
		}
	}

	return cfg, nil
}

// Location resolves the configured timezone, falling back to local time.
// Explicit timestamps on the CLI and report ranges are parsed in this
// location.
func (c Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func configFilePath() string {
	if v := strings.TrimSpace(os.Getenv("TEMPO_CONFIG")); v != "" {
		return v
	}
	return filepath.Join(configDir(), "config.yaml")
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "tempo")
}
