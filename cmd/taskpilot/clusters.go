package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/amcoelho/taskpilot/internal/config"
)

var clustersCmd = &cobra.Command{
	Use:   "clusters",
	Short: "List tool clusters and their registered tools",
	Long: `List the tool cluster taxonomy the engine selects from.

Each subtask activates 1-2 clusters; only tools in active clusters are
visible to the executor. A custom taxonomy can be supplied through
engine.clusters_file in the configuration.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		cat, err := buildCatalog(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		stats := cat.Stats()
		for _, name := range cat.Names() {
			color.New(color.FgCyan, color.Bold).Printf("%s", name)
			fmt.Printf(" (%d tools)\n", stats[name])
			fmt.Printf("  %s\n", cat.Describe(name))

			for _, tool := range cat.ToolsFor([]string{name}) {
				fmt.Printf("  - %s: %s\n", tool.Name(), tool.Description())
			}
			fmt.Println()
		}
	},
}
