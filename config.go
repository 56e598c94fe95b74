package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds settings read from the config file; flags override them
type Config struct {
	ProjectsDir string `yaml:"projects_dir"`
	Workers     int    `yaml:"workers"`
	Output      string `yaml:"output"`
	NoColor     bool   `yaml:"no_color"`
	LogLevel    string `yaml:"log_level"`
	MaxWidth    int    `yaml:"max_width"`
}

// ConfigPath returns the XDG-compliant config file path.
// Uses $XDG_CONFIG_HOME/cctally/config.yaml or ~/.config/cctally/config.yaml
func ConfigPath() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "cctally", "config.yaml"), nil
}

// DefaultProjectsDir returns where Claude Code keeps its session logs.
// Uses $CLAUDE_CONFIG_DIR/projects or ~/.claude/projects
func DefaultProjectsDir() (string, error) {
	if dir := os.Getenv("CLAUDE_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, "projects"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".claude", "projects"), nil
}

// LoadConfig reads the config file at path. A missing file yields defaults.
func LoadConfig(path string) (Config, error) {
	cfg := Config{Output: "table"}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Output {
	case "table", "json":
	default:
		return fmt.Errorf("invalid output %q (valid: table, json)", c.Output)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.MaxWidth < 0 {
		return fmt.Errorf("max_width must not be negative, got %d", c.MaxWidth)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return nil
}
