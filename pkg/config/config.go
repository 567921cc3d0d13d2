// Package config provides configuration for the bot. Values come from an
// .ombot/config.yaml file (searched upward from the working directory),
// overridden by environment variables, with built-in defaults filling the
// rest.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigDir is the directory name holding bot configuration
	ConfigDir = ".ombot"
	// ConfigFile is the name of the configuration file
	ConfigFile = "config.yaml"
	// ConfigPath is the config file path relative to the project root
	ConfigPath = ConfigDir + "/" + ConfigFile

	// DefaultMentionName is the bot invocation name used when none is set
	DefaultMentionName = "om-bot"
	// DefaultPort is the webhook listen port used when none is set
	DefaultPort = 8080
)

// Config holds the bot's runtime configuration
type Config struct {
	// MentionName is the bot's invocation name in comment commands
	MentionName string `yaml:"mention_name,omitempty" env:"OMBOT_MENTION_NAME"`

	// Token authenticates against the GitHub API
	Token string `yaml:"token,omitempty" env:"GITHUB_TOKEN"`

	// APIBaseURL overrides the GitHub API endpoint (for GitHub Enterprise)
	APIBaseURL string `yaml:"api_base_url,omitempty" env:"OMBOT_API_BASE_URL"`

	// Port is the webhook listen port
	Port int `yaml:"port,omitempty" env:"OMBOT_PORT"`

	// StateDir holds the serve state and audit logs
	StateDir string `yaml:"state_dir,omitempty" env:"OMBOT_STATE_DIR"`

	// LogLevel is the bot log level (debug, info, warn, error)
	LogLevel string `yaml:"log_level,omitempty" env:"OMBOT_LOG_LEVEL"`
}

// Load reads configuration starting from dir: the nearest config file up
// the directory tree, then environment overrides, then defaults.
func Load(dir string) (*Config, error) {
	cfg := &Config{}

	configPath, err := findConfigPath(dir)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// LoadFromCurrentDir loads the configuration from the current working
// directory
func LoadFromCurrentDir() (*Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return Load(dir)
}

func (c *Config) applyDefaults() {
	if c.MentionName == "" {
		c.MentionName = DefaultMentionName
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.StateDir == "" {
		c.StateDir = filepath.Join(ConfigDir, "serve-state")
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// findConfigPath searches for .ombot/config.yaml in dir and its parents.
// It returns the full path, or an empty string if none exists.
func findConfigPath(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	for {
		configPath := filepath.Join(absDir, ConfigPath)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parentDir := filepath.Dir(absDir)
		if parentDir == absDir {
			return "", nil
		}
		absDir = parentDir
	}
}
