package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/amcoelho/taskpilot/internal/config"
)

// runInteractive reads goals from stdin until EOF or "exit". Each goal
// runs through a freshly wired engine; the pattern store carries
// learning between goals through its database.
func runInteractive() error {
	// Fail fast on broken config before the prompt appears.
	if _, err := config.Load(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	color.Cyan("taskpilot interactive session")
	fmt.Println("Type a goal and press Enter. Ctrl+D or 'exit' to quit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		color.New(color.FgGreen, color.Bold).Print("goal> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}

		goal := strings.TrimSpace(scanner.Text())
		if goal == "" {
			continue
		}
		if goal == "exit" || goal == "quit" {
			break
		}

		if err := executeGoal(goal); err != nil {
			color.Red("Error: %v", err)
		}
		fmt.Println()
	}

	return scanner.Err()
}
