package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Load reads the configuration file, expands ${VAR} references, applies
// defaults, normalizes values and validates the result.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid configuration").
			Fatal().
			WithContext("path", configPath).
			Build()
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to the defaults when the
// file does not exist. Commands use it so a bare directory of markdown can be
// built without writing a config first.
func LoadOrDefault(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		slog.Info("No configuration file found, using defaults", "path", configPath)
		cfg := Default()
		Normalize(cfg)
		return cfg, ValidateConfig(cfg)
	}
	return Load(configPath)
}

// Parse decodes YAML content on top of the defaults.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	Normalize(cfg)
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := Default()
	example.Site = SiteConfig{
		Title:       "My Documentation",
		BaseURL:     "https://docs.example.com",
		Description: "Guides, plugins and API reference",
	}

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
