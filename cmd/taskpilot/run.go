package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/amcoelho/taskpilot/internal/catalog"
	"github.com/amcoelho/taskpilot/internal/config"
	"github.com/amcoelho/taskpilot/internal/engine"
	"github.com/amcoelho/taskpilot/internal/executor"
	"github.com/amcoelho/taskpilot/internal/patternstore"
	"github.com/amcoelho/taskpilot/internal/planner"
	"github.com/amcoelho/taskpilot/internal/tools"
)

var (
	runDebug     bool
	runDebugFile string
	runModel     string
	runMaxIter   int
	runNoPersist bool
)

var runCmd = &cobra.Command{
	Use:   "run <goal>",
	Short: "Run a goal to a best-effort final answer",
	Long: `Run a goal through the orchestration loop.

The goal is decomposed into tasks, each task into atomic subtasks.
Every subtask activates a small set of tool clusters, gets converted
into an executor instruction, and is evaluated against session state
rather than the executor's self-report. Stalls and repeated failures
climb a bounded escalation ladder (retry, revise subtasks, revise
task, skip) so the run always terminates with an answer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeGoal(strings.Join(args, " "))
	},
}

func init() {
	runCmd.Flags().BoolVar(&runDebug, "debug", false, "Write a debug log of the run")
	runCmd.Flags().StringVar(&runDebugFile, "debug-file", "taskpilot_debug.log", "Debug log path (with --debug)")
	runCmd.Flags().StringVar(&runModel, "model", "", "Model override (e.g. claude-sonnet-4-20250514)")
	runCmd.Flags().IntVar(&runMaxIter, "max-iterations", 0, "Subtask iteration budget override")
	runCmd.Flags().BoolVar(&runNoPersist, "no-persist", false, "Do not load or save success patterns")
}

// executeGoal wires the full stack for one goal and prints the answer.
func executeGoal(goal string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	eng, client, store, cleanup, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	color.Cyan("Goal: %s", goal)
	fmt.Println()

	answer := eng.Run(ctx, goal)

	fmt.Println(answer)
	printUsage(client.Tracker())

	if store != nil {
		if err := store.Save(eng.Patterns().All()); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not save patterns: %v\n", err)
		}
	}
	return nil
}

// buildEngine assembles the catalog, planner, executor, engine, and
// optional pattern store from configuration. cleanup closes whatever
// was opened.
func buildEngine(cfg *config.Config) (*engine.Engine, *planner.Client, *patternstore.Store, func(), error) {
	if !cfg.AWS.UseBedrock {
		if _, err := config.GetAPIKey(cfg); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("%w\n\nSet ANTHROPIC_API_KEY or add anthropic.api_key to %s",
				err, config.GetUserConfigPath())
		}
	}

	apiKey, _ := config.GetAPIKey(cfg)
	client, err := planner.NewClient(planner.ClientConfig{
		Model:         anthropic.Model(pickModel(cfg)),
		APIKey:        apiKey,
		UseAWSBedrock: cfg.AWS.UseBedrock,
		AWSRegion:     cfg.AWS.Region,
		AWSProfile:    cfg.AWS.Profile,
	})
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("create client: %w", err)
	}

	cat, err := buildCatalog(cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	exec := executor.NewAPIExecutor(client, cfg.Engine.MaxToolIterations)

	eng := engine.New(engine.Config{
		MaxIterations:            pickMaxIterations(cfg),
		SubtaskRetryLimit:        cfg.Engine.SubtaskRetryLimit,
		TaskRevisionLimit:        cfg.Engine.TaskRevisionLimit,
		TodoRevisionLimit:        cfg.Engine.TodoRevisionLimit,
		IdenticalActionLimit:     cfg.Engine.IdenticalActionLimit,
		PreconditionFailureLimit: cfg.Engine.PreconditionFailureLimit,
		ClusterWindowSize:        cfg.Engine.ClusterWindowSize,
		HistoryWindow:            cfg.Engine.HistoryWindow,
		Temperature:              cfg.Engine.Temperature,
		DefaultClusters:          cfg.Engine.DefaultClusters,
	}, client, exec, cat)

	var closers []func()

	if runDebug || cfg.Logging.Debug {
		path := runDebugFile
		if cfg.Logging.File != "" && runDebugFile == "taskpilot_debug.log" {
			path = cfg.Logging.File
		}
		logger, err := engine.NewDebugLogger(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not open debug log: %v\n", err)
		} else {
			eng.SetLogger(logger)
			closers = append(closers, func() { logger.Close() })
		}
	}

	var store *patternstore.Store
	if cfg.Patterns.Persist && !runNoPersist {
		dbPath := cfg.Patterns.DBPath
		if dbPath == "" {
			dbPath = patternstore.GlobalDBPath()
		}
		store, err = patternstore.New(dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: pattern store unavailable: %v\n", err)
			store = nil
		} else if err := store.Migrate(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: pattern store migration failed: %v\n", err)
			store.Close()
			store = nil
		}
	}
	if store != nil {
		if patterns, err := store.Load(); err == nil {
			eng.Patterns().Load(patterns)
		}
		closers = append(closers, func() { store.Close() })
	}

	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}
	return eng, client, store, cleanup, nil
}

// buildCatalog returns the default catalog, with clusters optionally
// replaced by a YAML taxonomy file.
func buildCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Engine.ClustersFile == "" {
		cat, err := tools.DefaultCatalog()
		if err != nil {
			return nil, fmt.Errorf("build catalog: %w", err)
		}
		return cat, nil
	}

	clusters, err := catalog.LoadClusters(cfg.Engine.ClustersFile)
	if err != nil {
		return nil, fmt.Errorf("load clusters from %s: %w", cfg.Engine.ClustersFile, err)
	}
	cat := catalog.New(clusters)
	if err := tools.RegisterDefaults(cat); err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}
	return cat, nil
}

func pickModel(cfg *config.Config) string {
	if runModel != "" {
		return runModel
	}
	return cfg.Anthropic.Model
}

func pickMaxIterations(cfg *config.Config) int {
	if runMaxIter > 0 {
		return runMaxIter
	}
	return cfg.Engine.MaxIterations
}

// printUsage reports token consumption for the run.
func printUsage(tracker *planner.TokenTracker) {
	in, out := tracker.Total()
	fmt.Println()
	color.New(color.Faint).Printf("Tokens: %d in, %d out across %d calls (~$%.4f)\n",
		in, out, tracker.Calls(), tracker.Cost())
}
