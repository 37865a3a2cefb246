// SPDX-License-Identifier: MPL-2.0

// Package config loads javaup configuration from its TOML config file,
// environment variables, and built-in defaults, in ascending precedence
// of environment over file over defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"javaup-cli/internal/platform"
)

const (
	// AppName is the application name, used for config and cache paths.
	AppName = "javaup"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "toml"
	// envPrefix namespaces environment overrides (JAVAUP_CACHE_DIR, ...).
	envPrefix = "JAVAUP"
)

type (
	// Config is the resolved application configuration.
	Config struct {
		// CacheDir is the tool cache root.
		CacheDir string `mapstructure:"cache_dir"`
		// Distribution is the default distribution name.
		Distribution string `mapstructure:"distribution"`
		// PackageType is the default package kind (jdk or jre).
		PackageType string `mapstructure:"package_type"`
		// UserAgent is sent with every catalog request.
		UserAgent string `mapstructure:"user_agent"`
		// Verbose enables debug logging by default.
		Verbose bool `mapstructure:"verbose"`
		// Endpoints override the vendor catalog base URLs; empty values
		// mean each vendor's production endpoint.
		Endpoints Endpoints `mapstructure:"endpoints"`
	}

	// Endpoints holds per-vendor catalog base URL overrides.
	Endpoints struct {
		Temurin string `mapstructure:"temurin"`
		Zulu    string `mapstructure:"zulu"`
	}
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		CacheDir:     defaultCacheDir(),
		Distribution: "temurin",
		PackageType:  "jdk",
		UserAgent:    "javaup",
	}
}

// defaultCacheDir prefers the CI runner's shared tool cache when present
// (RUNNER_TOOL_CACHE, as Actions runners export), falling back to a
// per-user cache directory.
func defaultCacheDir() string {
	if dir := os.Getenv("RUNNER_TOOL_CACHE"); dir != "" {
		return dir
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+AppName, "cache")
	}
	return filepath.Join(home, "."+AppName, "cache")
}

// ConfigDir returns the javaup configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case platform.Windows:
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// Load reads the configuration. When path is non-empty it names the
// config file exclusively and must exist; otherwise the default location
// is consulted and its absence is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("cache_dir", defaults.CacheDir)
	v.SetDefault("distribution", defaults.Distribution)
	v.SetDefault("package_type", defaults.PackageType)
	v.SetDefault("user_agent", defaults.UserAgent)
	v.SetDefault("verbose", defaults.Verbose)
	v.SetDefault("endpoints.temurin", "")
	v.SetDefault("endpoints.zulu", "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else if dir, dirErr := ConfigDir(); dirErr == nil {
		v.SetConfigName(ConfigFileName)
		v.SetConfigType(ConfigFileExt)
		v.AddConfigPath(dir)

		var notFound viper.ConfigFileNotFoundError
		if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return &cfg, nil
}
