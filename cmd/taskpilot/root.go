package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "taskpilot",
	Short: "Task orchestration engine for unreliable LLM agents",
	Long: `Taskpilot drives a Planner LLM and an Executor LLM through a shared
task graph to complete open-ended goals.

With no arguments, launches an interactive session where you type goals
and watch them run to a final answer.

Core capabilities:
- Decomposes goals into tasks and atomic subtasks
- Activates tool clusters per subtask and feeds tools to the executor
- Detects loops and stalls, escalates through bounded plan revisions
- Validates task objectives independently of executor self-reports
- Remembers successful subtask patterns across sessions`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(clustersCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
