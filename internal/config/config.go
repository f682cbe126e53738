// SPDX-License-Identifier: Unlicense OR MIT

// Package config loads the allocator configuration from a YAML file,
// VIRTGBM_* environment variables and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"eliasnaur.com/virtgbm/virgl"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

// Config represents the allocator configuration.
type Config struct {
	// Device is the render node to open. Empty means discover the
	// virtio-gpu function under SysfsRoot.
	Device    string            `mapstructure:"device"`
	SysfsRoot string            `mapstructure:"sysfs_root"`
	Backend   string            `mapstructure:"backend"`
	Params    map[string]uint64 `mapstructure:"params"`
	Logging   LoggingConfig     `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	File    string `mapstructure:"file"`
	Console bool   `mapstructure:"console"`
}

// EnvPrefix prefixes the environment variables overriding the
// configuration, as in VIRTGBM_LOGGING_LEVEL.
const EnvPrefix = "VIRTGBM"

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		SysfsRoot: "/sys",
		Backend:   virgl.Name,
		Params:    map[string]uint64{},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// Load loads configuration from file, environment, and defaults.
func Load(cfgFile string) (*Config, error) {
	return LoadWith(viper.New(), cfgFile)
}

// LoadWith is Load on a caller supplied viper instance, typically
// one with command line flags bound.
func LoadWith(v *viper.Viper, cfgFile string) (*Config, error) {
	cfg := DefaultConfig()
	setDefaults(v, cfg)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".virtgbm"))
		}
		v.AddConfigPath("/etc/virtgbm")
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.ExpandPaths()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Backend == "" {
		return errors.New("backend must not be empty")
	}
	if c.Backend == virgl.Name {
		for name := range c.Params {
			if !slices.Contains(virgl.ParamNames, name) {
				return fmt.Errorf("params: unknown parameter %q, want one of %v", name, virgl.ParamNames)
			}
		}
	}
	validLevels := []string{"trace", "debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}
	return nil
}

// ExpandPaths expands ~ and environment variables in paths.
func (c *Config) ExpandPaths() {
	c.Device = expandPath(c.Device)
	c.SysfsRoot = expandPath(c.SysfsRoot)
	c.Logging.File = expandPath(c.Logging.File)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("device", cfg.Device)
	v.SetDefault("sysfs_root", cfg.SysfsRoot)
	v.SetDefault("backend", cfg.Backend)
	v.SetDefault("params", cfg.Params)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.console", cfg.Logging.Console)
}
