// Package config handles configuration loading and management for
// taskpilot. It supports XDG config paths, project-level overrides,
// and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for taskpilot.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	AWS       AWSConfig       `mapstructure:"aws"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Patterns  PatternsConfig  `mapstructure:"patterns"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// AWSConfig holds AWS Bedrock settings for running against Bedrock
// instead of the Anthropic API.
type AWSConfig struct {
	UseBedrock bool   `mapstructure:"use_bedrock"`
	Region     string `mapstructure:"region"`
	Profile    string `mapstructure:"profile"`
}

// EngineConfig holds the orchestration loop budgets and tuning.
type EngineConfig struct {
	MaxIterations            int      `mapstructure:"max_iterations"`
	MaxToolIterations        int      `mapstructure:"max_tool_iterations"`
	SubtaskRetryLimit        int      `mapstructure:"subtask_retry_limit"`
	TaskRevisionLimit        int      `mapstructure:"task_revision_limit"`
	TodoRevisionLimit        int      `mapstructure:"todo_revision_limit"`
	IdenticalActionLimit     int      `mapstructure:"identical_action_limit"`
	PreconditionFailureLimit int      `mapstructure:"precondition_failure_limit"`
	ClusterWindowSize        int      `mapstructure:"cluster_window_size"`
	HistoryWindow            int      `mapstructure:"history_window"`
	Temperature              float64  `mapstructure:"temperature"`
	DefaultClusters          []string `mapstructure:"default_clusters"`
	ClustersFile             string   `mapstructure:"clusters_file"`
}

// PatternsConfig holds success-pattern persistence settings.
type PatternsConfig struct {
	Persist bool   `mapstructure:"persist"`
	DBPath  string `mapstructure:"db_path"`
}

// LoggingConfig holds debug log settings.
type LoggingConfig struct {
	Debug bool   `mapstructure:"debug"`
	File  string `mapstructure:"file"`
}

// Load loads configuration from XDG paths, project overrides, and
// environment variables. Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY)
// 2. Project config (.taskpilot.yaml in current directory or parent)
// 3. User config (~/.config/taskpilot/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("aws.use_bedrock", "CLAUDE_CODE_USE_BEDROCK")
	v.BindEnv("aws.region", "AWS_REGION")
	v.BindEnv("aws.profile", "AWS_PROFILE")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific file.
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

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("aws.use_bedrock", cfg.AWS.UseBedrock)
	v.Set("aws.region", cfg.AWS.Region)
	v.Set("aws.profile", cfg.AWS.Profile)
	v.Set("engine.max_iterations", cfg.Engine.MaxIterations)
	v.Set("engine.max_tool_iterations", cfg.Engine.MaxToolIterations)
	v.Set("engine.subtask_retry_limit", cfg.Engine.SubtaskRetryLimit)
	v.Set("engine.task_revision_limit", cfg.Engine.TaskRevisionLimit)
	v.Set("engine.todo_revision_limit", cfg.Engine.TodoRevisionLimit)
	v.Set("engine.identical_action_limit", cfg.Engine.IdenticalActionLimit)
	v.Set("engine.precondition_failure_limit", cfg.Engine.PreconditionFailureLimit)
	v.Set("engine.cluster_window_size", cfg.Engine.ClusterWindowSize)
	v.Set("engine.history_window", cfg.Engine.HistoryWindow)
	v.Set("engine.temperature", cfg.Engine.Temperature)
	v.Set("engine.default_clusters", cfg.Engine.DefaultClusters)
	v.Set("engine.clusters_file", cfg.Engine.ClustersFile)
	v.Set("patterns.persist", cfg.Patterns.Persist)
	v.Set("patterns.db_path", cfg.Patterns.DBPath)
	v.Set("logging.debug", cfg.Logging.Debug)
	v.Set("logging.file", cfg.Logging.File)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if
// it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")

	v.SetDefault("aws.use_bedrock", false)
	v.SetDefault("aws.region", "")
	v.SetDefault("aws.profile", "")

	v.SetDefault("engine.max_iterations", 15)
	v.SetDefault("engine.max_tool_iterations", 8)
	v.SetDefault("engine.subtask_retry_limit", 3)
	v.SetDefault("engine.task_revision_limit", 2)
	v.SetDefault("engine.todo_revision_limit", 1)
	v.SetDefault("engine.identical_action_limit", 2)
	v.SetDefault("engine.precondition_failure_limit", 1)
	v.SetDefault("engine.cluster_window_size", 2)
	v.SetDefault("engine.history_window", 3)
	v.SetDefault("engine.temperature", 0.3)
	v.SetDefault("engine.default_clusters", []string{"WEB"})
	v.SetDefault("engine.clusters_file", "")

	v.SetDefault("patterns.persist", true)
	v.SetDefault("patterns.db_path", "")

	v.SetDefault("logging.debug", false)
	v.SetDefault("logging.file", "")
}

// getUserConfigDir returns the XDG config directory for taskpilot.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "taskpilot")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "taskpilot")
	}
	return filepath.Join(home, ".config", "taskpilot")
}

// findProjectConfig searches for .taskpilot.yaml in the current
// directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".taskpilot.yaml")
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

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxIterations:            15,
			MaxToolIterations:        8,
			SubtaskRetryLimit:        3,
			TaskRevisionLimit:        2,
			TodoRevisionLimit:        1,
			IdenticalActionLimit:     2,
			PreconditionFailureLimit: 1,
			ClusterWindowSize:        2,
			HistoryWindow:            3,
			Temperature:              0.3,
			DefaultClusters:          []string{"WEB"},
		},
		Patterns: PatternsConfig{Persist: true},
	}
}
