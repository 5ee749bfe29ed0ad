// Package config provides centralized configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration values for stepform.
type Config struct {
	Debounce      time.Duration `mapstructure:"debounce" yaml:"debounce"`
	LogLevel      string        `mapstructure:"log_level" yaml:"log_level"`
	DBPath        string        `mapstructure:"db_path" yaml:"db_path"`
	Schema        string        `mapstructure:"schema" yaml:"schema"` // Empty means the built-in member form
	JumpToInvalid bool          `mapstructure:"jump_to_invalid" yaml:"jump_to_invalid"`
}

// fileConfig is the on-disk shape; durations are written as "120ms".
type fileConfig struct {
	Debounce      string `yaml:"debounce"`
	LogLevel      string `yaml:"log_level"`
	DBPath        string `yaml:"db_path"`
	Schema        string `yaml:"schema,omitempty"`
	JumpToInvalid bool   `yaml:"jump_to_invalid"`
}

var envKeys = []string{"debounce", "log_level", "db_path", "schema", "jump_to_invalid"}

// Load loads configuration with full precedence:
// CLI flags > ENV vars > project config > XDG global config > defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("stepform")

	v.SetDefault("debounce", "120ms")
	v.SetDefault("log_level", "info")
	v.SetDefault("db_path", "stepform.db")
	v.SetDefault("schema", "")
	v.SetDefault("jump_to_invalid", false)

	v.SetEnvPrefix("STEPFORM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Explicit bindings so Unmarshal sees env-only keys.
	for _, key := range envKeys {
		if err := v.BindEnv(key, "STEPFORM_"+strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	globalPath := GlobalPath()
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	projectPath := ProjectPath()
	if fileExists(projectPath) {
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if cfg.Debounce <= 0 {
		return nil, fmt.Errorf("debounce must be positive, got %s", cfg.Debounce)
	}

	return &cfg, nil
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns the XDG global config path.
// Returns ~/.config/stepform/stepform.yml or $XDG_CONFIG_HOME/stepform/stepform.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "stepform", "stepform.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "stepform", "stepform.yml")
}

// ProjectPath returns the project-local config path.
func ProjectPath() string {
	return "stepform.yml"
}

// WriteProject writes the config to the project-local location.
func WriteProject(cfg *Config) error {
	data, err := yaml.Marshal(fileConfig{
		Debounce:      cfg.Debounce.String(),
		LogLevel:      cfg.LogLevel,
		DBPath:        cfg.DBPath,
		Schema:        cfg.Schema,
		JumpToInvalid: cfg.JumpToInvalid,
	})
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(ProjectPath(), data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
