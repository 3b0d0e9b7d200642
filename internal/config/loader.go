package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/paulzwoo/arm/internal/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".arm.yaml"
	// GlobalConfigDir is the directory for global config, under $HOME.
	GlobalConfigDir = ".config/arm"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
)

// Load reads config from the specified path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'arm init' to create a config file, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v)
}

// LoadOrDefault loads the config found by the search order, falling
// back to defaults when no file exists anywhere.
func LoadOrDefault(explicit string) (*Config, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .arm.yaml in the current directory
// 3. ~/.config/arm/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	// 1. Explicit path takes precedence
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	// 2. Current directory
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	// 3. Global config
	home, err := os.UserHomeDir()
	if err == nil {
		globalConfig := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// setDefaults registers default values so partial config files work.
func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("version", def.Version)
	v.SetDefault("process.name", def.Process.Name)
	v.SetDefault("queries.connections.min_rate", def.Queries.Connections.MinRate)
	v.SetDefault("monitor.interval", def.Monitor.Interval)
}

// parseConfig unmarshals and validates the loaded config.
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config file structure",
			"Compare your config against the output of 'arm init'")
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the config for values the resolver can't work with.
func Validate(cfg *Config) error {
	if cfg.Process.Name == "" {
		return errors.New(errors.ErrConfig,
			"No process name configured",
			"Set process.name in your config or pass --process")
	}
	if cfg.Queries.Connections.MinRate < 0 {
		return errors.New(errors.ErrConfig,
			"queries.connections.min_rate cannot be negative",
			"Use a duration like 5s")
	}
	if cfg.Monitor.Interval < 500*time.Millisecond && cfg.Monitor.Interval != 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("monitor.interval %s is too short", cfg.Monitor.Interval),
			"Minimum interval is 500ms to keep the dashboard responsive")
	}
	return nil
}

// Write serializes the config to the given path as YAML.
func Write(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't serialize config",
			"This shouldn't happen - please report this bug!")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't write config file: "+path,
			"Check directory permissions")
	}
	return nil
}
