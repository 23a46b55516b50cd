package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. MENUBOT_PORT
const EnvPrefix = "MENUBOT_"

// Config holds the application configuration
type Config struct {
	Port         int     `koanf:"port"`
	DataDir      string  `koanf:"data_dir"`
	MenuPath     string  `koanf:"menu_path"`
	WeightsPath  string  `koanf:"weights_path"`
	HistoryPath  string  `koanf:"history_path"`
	LearningRate float64 `koanf:"learning_rate"`
	Samples      int     `koanf:"samples"`
	LogLevel     string  `koanf:"log_level"`
	LogFormat    string  `koanf:"log_format"`
	Version      string  `koanf:"-"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Port:         8080,
		DataDir:      "./data",
		MenuPath:     "menu.json",
		WeightsPath:  "weights.json",
		LearningRate: 0.01,
		Samples:      40,
		LogLevel:     "info",
		LogFormat:    "console",
	}
}

// Load layers configuration: defaults, then the optional YAML file at path,
// then a .env file in the working directory, then MENUBOT_* variables.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to stat config file %s: %w", path, err)
		}
	}

	// .env only fills variables that are not already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.LearningRate <= 0 || c.LearningRate > 1 {
		return fmt.Errorf("learning rate must be in (0,1], got %v", c.LearningRate)
	}
	if c.Samples < 1 {
		return fmt.Errorf("samples must be at least 1, got %d", c.Samples)
	}
	return nil
}

// ResolvedHistoryPath returns HistoryPath, defaulting to DataDir/feedback.db
func (c *Config) ResolvedHistoryPath() string {
	if c.HistoryPath != "" {
		return c.HistoryPath
	}
	return filepath.Join(c.DataDir, "feedback.db")
}
