package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amcoelho/taskpilot/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify taskpilot configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/taskpilot/config.yaml
Project-specific overrides can be placed in .taskpilot.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("anthropic.api_key: %s\n", config.MaskAPIKey(cfg.Anthropic.APIKey))
	fmt.Printf("anthropic.model: %s\n", orDefault(cfg.Anthropic.Model, "(sdk default)"))
	fmt.Printf("aws.use_bedrock: %t\n", cfg.AWS.UseBedrock)
	fmt.Printf("aws.region: %s\n", orDefault(cfg.AWS.Region, "(not set)"))
	fmt.Printf("aws.profile: %s\n", orDefault(cfg.AWS.Profile, "(not set)"))
	fmt.Printf("engine.max_iterations: %d\n", cfg.Engine.MaxIterations)
	fmt.Printf("engine.max_tool_iterations: %d\n", cfg.Engine.MaxToolIterations)
	fmt.Printf("engine.subtask_retry_limit: %d\n", cfg.Engine.SubtaskRetryLimit)
	fmt.Printf("engine.task_revision_limit: %d\n", cfg.Engine.TaskRevisionLimit)
	fmt.Printf("engine.todo_revision_limit: %d\n", cfg.Engine.TodoRevisionLimit)
	fmt.Printf("engine.identical_action_limit: %d\n", cfg.Engine.IdenticalActionLimit)
	fmt.Printf("engine.precondition_failure_limit: %d\n", cfg.Engine.PreconditionFailureLimit)
	fmt.Printf("engine.cluster_window_size: %d\n", cfg.Engine.ClusterWindowSize)
	fmt.Printf("engine.history_window: %d\n", cfg.Engine.HistoryWindow)
	fmt.Printf("engine.temperature: %g\n", cfg.Engine.Temperature)
	fmt.Printf("engine.default_clusters: %s\n", strings.Join(cfg.Engine.DefaultClusters, ","))
	fmt.Printf("engine.clusters_file: %s\n", orDefault(cfg.Engine.ClustersFile, "(built-in)"))
	fmt.Printf("patterns.persist: %t\n", cfg.Patterns.Persist)
	fmt.Printf("patterns.db_path: %s\n", orDefault(cfg.Patterns.DBPath, "(global default)"))
	fmt.Printf("logging.debug: %t\n", cfg.Logging.Debug)
	fmt.Printf("logging.file: %s\n", orDefault(cfg.Logging.File, "(not set)"))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.model":
		return cfg.Anthropic.Model, nil
	case "aws.use_bedrock":
		return strconv.FormatBool(cfg.AWS.UseBedrock), nil
	case "aws.region":
		return cfg.AWS.Region, nil
	case "aws.profile":
		return cfg.AWS.Profile, nil
	case "engine.max_iterations":
		return strconv.Itoa(cfg.Engine.MaxIterations), nil
	case "engine.max_tool_iterations":
		return strconv.Itoa(cfg.Engine.MaxToolIterations), nil
	case "engine.subtask_retry_limit":
		return strconv.Itoa(cfg.Engine.SubtaskRetryLimit), nil
	case "engine.task_revision_limit":
		return strconv.Itoa(cfg.Engine.TaskRevisionLimit), nil
	case "engine.todo_revision_limit":
		return strconv.Itoa(cfg.Engine.TodoRevisionLimit), nil
	case "engine.identical_action_limit":
		return strconv.Itoa(cfg.Engine.IdenticalActionLimit), nil
	case "engine.precondition_failure_limit":
		return strconv.Itoa(cfg.Engine.PreconditionFailureLimit), nil
	case "engine.cluster_window_size":
		return strconv.Itoa(cfg.Engine.ClusterWindowSize), nil
	case "engine.history_window":
		return strconv.Itoa(cfg.Engine.HistoryWindow), nil
	case "engine.temperature":
		return strconv.FormatFloat(cfg.Engine.Temperature, 'g', -1, 64), nil
	case "engine.default_clusters":
		return strings.Join(cfg.Engine.DefaultClusters, ","), nil
	case "engine.clusters_file":
		return cfg.Engine.ClustersFile, nil
	case "patterns.persist":
		return strconv.FormatBool(cfg.Patterns.Persist), nil
	case "patterns.db_path":
		return cfg.Patterns.DBPath, nil
	case "logging.debug":
		return strconv.FormatBool(cfg.Logging.Debug), nil
	case "logging.file":
		return cfg.Logging.File, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "aws.use_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for use_bedrock: %w", err)
		}
		cfg.AWS.UseBedrock = b
	case "aws.region":
		cfg.AWS.Region = value
	case "aws.profile":
		cfg.AWS.Profile = value
	case "engine.max_iterations":
		return setIntValue(&cfg.Engine.MaxIterations, key, value)
	case "engine.max_tool_iterations":
		return setIntValue(&cfg.Engine.MaxToolIterations, key, value)
	case "engine.subtask_retry_limit":
		return setIntValue(&cfg.Engine.SubtaskRetryLimit, key, value)
	case "engine.task_revision_limit":
		return setIntValue(&cfg.Engine.TaskRevisionLimit, key, value)
	case "engine.todo_revision_limit":
		return setIntValue(&cfg.Engine.TodoRevisionLimit, key, value)
	case "engine.identical_action_limit":
		return setIntValue(&cfg.Engine.IdenticalActionLimit, key, value)
	case "engine.precondition_failure_limit":
		return setIntValue(&cfg.Engine.PreconditionFailureLimit, key, value)
	case "engine.cluster_window_size":
		return setIntValue(&cfg.Engine.ClusterWindowSize, key, value)
	case "engine.history_window":
		return setIntValue(&cfg.Engine.HistoryWindow, key, value)
	case "engine.temperature":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for temperature: %w", err)
		}
		cfg.Engine.Temperature = f
	case "engine.default_clusters":
		cfg.Engine.DefaultClusters = strings.Split(value, ",")
	case "engine.clusters_file":
		cfg.Engine.ClustersFile = value
	case "patterns.persist":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for persist: %w", err)
		}
		cfg.Patterns.Persist = b
	case "patterns.db_path":
		cfg.Patterns.DBPath = value
	case "logging.debug":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for debug: %w", err)
		}
		cfg.Logging.Debug = b
	case "logging.file":
		cfg.Logging.File = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func setIntValue(target *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*target = n
	return nil
}
