// Package config handles configuration loading and management for critiq.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration for critiq.
type Config struct {
	Anthropic    AnthropicConfig    `mapstructure:"anthropic"`
	Browser      BrowserConfig      `mapstructure:"browser"`
	Verification VerificationConfig `mapstructure:"verification"`
	Agent        AgentConfig        `mapstructure:"agent"`
	Output       OutputConfig       `mapstructure:"output"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// BrowserConfig holds browser session settings.
type BrowserConfig struct {
	Headless   bool          `mapstructure:"headless"`
	NavTimeout time.Duration `mapstructure:"nav_timeout"`
	UserAgent  string        `mapstructure:"user_agent"`
}

// VerificationConfig holds verification loop settings.
type VerificationConfig struct {
	// GlobalAttemptLimit bounds full navigation attempts per session.
	GlobalAttemptLimit int `mapstructure:"global_attempt_limit"`
}

// AgentConfig holds navigation agent loop settings.
type AgentConfig struct {
	MaxIterations int   `mapstructure:"max_iterations"`
	MaxTokens     int64 `mapstructure:"max_tokens"`
}

// OutputConfig holds report and history settings.
type OutputConfig struct {
	ReportFile string `mapstructure:"report_file"`
	HistoryDB  string `mapstructure:"history_db"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY)
// 2. Project config (.critiq.yaml in current directory or parent)
// 3. User config (~/.config/critiq/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Load user config from XDG path
	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Load project config if present
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			// Merge project config (takes precedence)
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	// Environment variable overrides
	v.AutomaticEnv()
	v.SetEnvPrefix("")
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path.
// Useful for testing and explicit --config flags.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// setDefaults sets built-in default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("anthropic.aws_region", "us-east-1")

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.nav_timeout", 30*time.Second)

	v.SetDefault("verification.global_attempt_limit", 3)

	v.SetDefault("agent.max_iterations", 40)
	v.SetDefault("agent.max_tokens", 8192)

	v.SetDefault("output.report_file", "usability_report.md")
	v.SetDefault("output.history_db", "")
}

// Default returns a Config with default values.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	// Unmarshal of pure defaults cannot fail.
	_ = v.Unmarshal(cfg)
	return cfg
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// getUserConfigDir returns the XDG config directory for critiq.
func getUserConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "critiq")
	}

	// Fall back to ~/.config/critiq
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "critiq")
	}
	return filepath.Join(home, ".config", "critiq")
}

// findProjectConfig searches for .critiq.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".critiq.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}
