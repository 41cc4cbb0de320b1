// Package config loads bot configuration from an optional YAML file and
// environment variables.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config defines bot configuration.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Transport TransportConfig `yaml:"transport"`
	Log       LogConfig       `yaml:"log"`
}

// StorageConfig selects the snapshot medium.
type StorageConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "file"
	Path   string `yaml:"path"`
}

// TransportConfig selects how the process is driven.
type TransportConfig struct {
	Mode string `yaml:"mode"` // "console" or "mcp"
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from an optional YAML file and environment
// variables. Environment variables win over the file.
func Load() (Config, error) {
	cfg := Config{
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   "docvault.db",
		},
		Transport: TransportConfig{
			Mode: "console",
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path := os.Getenv("DOCVAULT_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if driver := os.Getenv("DOCVAULT_STORAGE_DRIVER"); driver != "" {
		cfg.Storage.Driver = driver
	}
	if path := os.Getenv("DOCVAULT_DB_PATH"); path != "" {
		cfg.Storage.Path = path
	}
	if mode := os.Getenv("DOCVAULT_TRANSPORT_MODE"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if level := os.Getenv("DOCVAULT_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	switch cfg.Storage.Driver {
	case "sqlite", "file":
	default:
		return Config{}, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	switch cfg.Transport.Mode {
	case "console", "mcp":
	default:
		return Config{}, fmt.Errorf("unknown transport mode %q", cfg.Transport.Mode)
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
