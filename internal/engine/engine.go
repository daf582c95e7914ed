package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/amcoelho/taskpilot/internal/catalog"
	"github.com/amcoelho/taskpilot/internal/executor"
	"github.com/amcoelho/taskpilot/internal/planner"
	"github.com/amcoelho/taskpilot/pkg/models"
)

// Config holds the engine's control-loop budgets and tuning. Zero
// values select the defaults.
type Config struct {
	// MaxIterations caps subtask iterations across the whole run.
	MaxIterations int
	// SubtaskRetryLimit bounds local retries per subtask.
	SubtaskRetryLimit int
	// TaskRevisionLimit bounds subtask-list revisions per task.
	TaskRevisionLimit int
	// TodoRevisionLimit bounds whole-task rewrites per task.
	TodoRevisionLimit int
	// IdenticalActionLimit is the repeated-action stall threshold.
	IdenticalActionLimit int
	// PreconditionFailureLimit is the ignored-precondition stall threshold.
	PreconditionFailureLimit int
	// ClusterWindowSize is the sliding window of recent cluster selections.
	ClusterWindowSize int
	// HistoryWindow is how many recent exchanges feed executor prompts.
	HistoryWindow int
	// Temperature is the base sampling temperature. The planner uses
	// at least 0.4 for creativity; the executor is pinned low
	// separately.
	Temperature float64
	// DefaultClusters is the safe fallback when no cluster can be
	// determined at all.
	DefaultClusters []string
}

func (c Config) withDefaults() Config {
	if c.MaxIterations <= 0 {
		c.MaxIterations = 15
	}
	if c.SubtaskRetryLimit <= 0 {
		c.SubtaskRetryLimit = 3
	}
	if c.TaskRevisionLimit <= 0 {
		c.TaskRevisionLimit = 2
	}
	if c.TodoRevisionLimit <= 0 {
		c.TodoRevisionLimit = 1
	}
	if c.IdenticalActionLimit <= 0 {
		c.IdenticalActionLimit = 2
	}
	if c.PreconditionFailureLimit <= 0 {
		c.PreconditionFailureLimit = 1
	}
	if c.ClusterWindowSize <= 0 {
		c.ClusterWindowSize = 2
	}
	if c.HistoryWindow <= 0 {
		c.HistoryWindow = 3
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.3
	}
	if len(c.DefaultClusters) == 0 {
		c.DefaultClusters = []string{"WEB"}
	}
	return c
}

// Engine is the orchestration loop driver. It owns all mutable run
// state and mutates it strictly sequentially between blocking model
// calls; no locking is needed.
type Engine struct {
	cfg      Config
	planner  planner.Planner
	executor executor.Executor
	catalog  *catalog.Catalog
	patterns *PatternCache
	log      *DebugLogger

	// Per-run state, rebuilt by Run.
	memory    *SharedContext
	graph     *TaskGraph
	window    *ClusterWindow
	detector  *LoopDetector
	escalator *Escalator
	history   []Exchange
	trace     *Trace
}

// New creates an engine. The pattern cache persists across runs of the
// same engine.
func New(cfg Config, p planner.Planner, x executor.Executor, c *catalog.Catalog) *Engine {
	return &Engine{
		cfg:      cfg.withDefaults(),
		planner:  p,
		executor: x,
		catalog:  c,
		patterns: NewPatternCache(),
		log:      NopLogger(),
	}
}

// SetLogger attaches a debug logger.
func (e *Engine) SetLogger(l *DebugLogger) {
	if l != nil {
		e.log = l
	}
}

// Patterns exposes the success-pattern cache, e.g. for persistence.
func (e *Engine) Patterns() *PatternCache {
	return e.patterns
}

// Trace returns the record of the most recent run.
func (e *Engine) Trace() *Trace {
	return e.trace
}

// plannerTemperature keeps planning sampling loose enough to escape
// bad plans.
func (e *Engine) plannerTemperature() float64 {
	if e.cfg.Temperature < 0.4 {
		return 0.4
	}
	return e.cfg.Temperature
}

// Run drives a single user goal to a best-effort final answer. It
// never returns an error: decode failures, call failures, stalls, and
// budget exhaustion all degrade to bounded fallbacks.
func (e *Engine) Run(ctx context.Context, goal string) string {
	e.memory = NewSharedContext()
	e.graph = NewTaskGraph()
	e.window = NewClusterWindow(e.cfg.ClusterWindowSize)
	e.detector = NewLoopDetector(e.cfg.IdenticalActionLimit, e.cfg.PreconditionFailureLimit)
	e.escalator = NewEscalator(e.cfg.SubtaskRetryLimit, e.cfg.TaskRevisionLimit, e.cfg.TodoRevisionLimit)
	e.history = nil
	e.trace = newTrace(goal)

	e.log.Log("run %s started: %s", e.trace.RunID, goal)

	p := e.createPlan(ctx, goal)
	if err := e.graph.Initialize(p.MainGoal); err != nil {
		e.log.Log("graph init: %v", err)
	}
	for _, desc := range p.Tasks {
		e.graph.AddTask(desc)
	}
	e.log.Log("plan: %d tasks", len(p.Tasks))

	iterations := 0
	budgetExhausted := false

	for _, task := range e.graph.Tasks() {
		if iterations >= e.cfg.MaxIterations {
			budgetExhausted = true
			break
		}

		e.graph.SetStatus(task.ID, models.TaskStatusInProgress)
		e.memory.ClearStructure()
		e.escalator.Reset()
		e.log.Log("task %d started: %s", task.ID, task.Description)

		hint := e.patterns.Similar(task.Description)
		if hint != nil {
			e.log.Log("task %d: reusing pattern with %d steps", task.ID, len(hint))
		}
		e.graph.SetSubtasks(task.ID, e.createSubtasks(ctx, task.Description, hint))

		for idx := 0; idx < len(task.Subtasks); idx++ {
			if iterations >= e.cfg.MaxIterations {
				budgetExhausted = true
				break
			}
			iterations++

			subtask := task.Subtasks[idx]
			e.log.Log("task %d subtask %d/%d: %s", task.ID, idx+1, len(task.Subtasks), subtask)

			completed, restart := e.runSubtask(ctx, task, subtask, idx, iterations)
			if restart {
				idx = -1
				continue
			}
			if completed {
				continue
			}

			decision := e.escalator.Decide(subtask)
			e.log.Log("task %d escalation: %s", task.ID, decision.Action)

			switch decision.Action {
			case ActionReviseSubtasks:
				revised := e.reviseSubtasks(ctx, task.Description, decision.ErrorContext, task.Subtasks)
				if TooSimilar(task.Subtasks, revised) {
					e.log.Log("revision rejected as too similar, escalating to task level")
					newDesc := e.reviseTask(ctx, task.Description, decision.ErrorContext)
					e.graph.SetDescription(task.ID, newDesc)
					revised = e.createSubtasks(ctx, newDesc, nil)
				}
				e.graph.SetSubtasks(task.ID, revised)
				idx = -1

			case ActionReviseTask:
				newDesc := e.reviseTask(ctx, task.Description, decision.ErrorContext)
				e.graph.SetDescription(task.ID, newDesc)
				e.graph.SetSubtasks(task.ID, e.createSubtasks(ctx, newDesc, nil))
				idx = -1

			case ActionSkip:
				// Abandon this subtask, move on. Objective validation
				// below decides whether the task still counts as done.
			}
		}

		// Completion is never taken from the executor's self-report.
		if e.validateObjective(ctx, task.Description) {
			e.graph.SetStatus(task.ID, models.TaskStatusDone)
			taskType := TaskType(task.Description)
			e.patterns.Record(taskType, task.Subtasks)
			e.log.Log("task %d done, pattern %q saved", task.ID, taskType)
		} else {
			e.graph.SetStatus(task.ID, models.TaskStatusFailed)
			e.log.Log("task %d failed: objective not achieved", task.ID)
		}
	}

	e.trace.snapshotTasks(e.graph.Tasks())
	answer := e.compileAnswer(budgetExhausted)
	e.log.Log("run %s finished after %d iterations", e.trace.RunID, iterations)
	return answer
}

// runSubtask runs the local retry loop for one subtask. restart means
// a stall forced a replan and the subtask loop must start over.
func (e *Engine) runSubtask(ctx context.Context, task *models.Task, subtask string, idx, iteration int) (completed, restart bool) {
	retries := 0

	for retries < e.cfg.SubtaskRetryLimit {
		clusters := e.selectClusters(ctx, subtask)
		e.window.Push(clusters)
		active := e.window.Active()
		e.log.Log("clusters selected %v, window active %v", clusters, active)

		tools := e.catalog.ToolsFor(active)
		e.executor.SetTools(tools)

		e.discoverStructure(ctx, tools)

		names := make([]string, len(tools))
		for i, t := range tools {
			names[i] = t.Name()
		}
		instruction := e.formulateInstruction(ctx, subtask, names)
		e.log.Log("instruction: %s", instruction)

		result, err := e.executor.Run(ctx, instruction, e.executorContext())
		if err != nil {
			// Call failures become failure text, never exceptions.
			result = fmt.Sprintf("Execution failed: %v", err)
			e.log.Log("executor error: %v", err)
		}

		// Context updates from this turn must be visible to the very
		// next prompt construction.
		e.memory.Update(instruction, result)

		if e.detector.Observe(result, e.memory.SessionStarted()) {
			e.log.Log("stall detected on subtask %q", subtask)
			e.forceEscalation(ctx, task, subtask, idx)
			return false, true
		}

		e.history = append(e.history, Exchange{Iteration: iteration, Instruction: instruction, Result: result})
		e.trace.record(iteration, instruction, result)

		eval := e.evaluateResult(ctx, subtask, result)
		e.log.Log("evaluation: completed=%v next=%s (%s)", eval.Completed, eval.NextAction, eval.Reasoning)

		if eval.Completed || eval.NextAction == "next_subtask" {
			return true, false
		}

		retries++
		e.escalator.Track(subtask, result, eval.Reasoning)

		if eval.NextAction == "retry" {
			feedback := fmt.Sprintf("FEEDBACK: Previous attempt failed.\nReason: %s\nWhat went wrong: %s\nTry a DIFFERENT approach or tool.",
				eval.Reasoning, truncate(result, 200))
			e.history = append(e.history, Exchange{Iteration: iteration, Instruction: "SYSTEM_FEEDBACK", Result: feedback})
		}
	}

	return false, false
}

// forceEscalation handles a stall: consult the judge, demand a
// genuinely different subtask list, and climb the ladder if the
// revision is a rehash.
func (e *Engine) forceEscalation(ctx context.Context, task *models.Task, subtask string, idx int) {
	verdict := e.judge(ctx, task.Description, subtask, e.detector.Actions())
	e.log.Log("judge verdict: %s", truncate(verdict, 200))

	failedCount := idx + 1
	if failedCount > len(task.Subtasks) {
		failedCount = len(task.Subtasks)
	}
	var failedLines []string
	for _, s := range task.Subtasks[:failedCount] {
		failedLines = append(failedLines, fmt.Sprintf("FAILED: %s", s))
	}

	errorContext := e.escalator.LoopContext(e.detector, e.memory.Summary()) +
		"\n\nFAILED SUBTASKS (DO NOT REPEAT THESE):\n" + strings.Join(failedLines, "\n") +
		"\n\nEXTERNAL JUDGE ANALYSIS:\n" + verdict

	oldSubtasks := append([]string(nil), task.Subtasks...)
	newSubtasks := e.reviseSubtasks(ctx, task.Description, errorContext, oldSubtasks)

	if TooSimilar(oldSubtasks, newSubtasks) {
		e.log.Log("revision rejected as too similar, escalating to task level")
		newDesc := e.reviseTask(ctx, task.Description, errorContext)
		e.graph.SetDescription(task.ID, newDesc)
		newSubtasks = e.createSubtasks(ctx, newDesc, nil)
	}

	e.graph.SetSubtasks(task.ID, newSubtasks)
	e.detector.Reset()
}

// discoverStructure pre-enumerates the current resource's layout when
// a discovery tool is active, so later instructions work from facts
// instead of executor guesses.
func (e *Engine) discoverStructure(ctx context.Context, tools []catalog.Tool) {
	hasDiscovery := false
	for _, t := range tools {
		if t.Name() == "find_elements" {
			hasDiscovery = true
			break
		}
	}
	if !hasDiscovery || !e.memory.SessionStarted() {
		return
	}

	structure := &Structure{}

	inputResult, err := e.executor.Run(ctx,
		"Find all input elements on the page using selector_type='tag_name' and selector_value='input'",
		e.executorContext())
	if err == nil {
		structure.Forms = parseInputs(inputResult)
	}

	linkResult, err := e.executor.Run(ctx,
		"Find all link elements on the page using selector_type='tag_name' and selector_value='a'",
		e.executorContext())
	if err == nil {
		structure.Links = parseCount(linkResult)
	}

	if len(structure.Forms) > 0 || structure.Links > 0 {
		e.memory.SetStructure(structure)
		e.log.Log("structure discovered: %d forms, %d links", len(structure.Forms), structure.Links)
	}
}

var (
	countPattern = regexp.MustCompile(`(?i)(?:found\s+)?(\d+)\s+(?:element|link|input)`)
	namePattern  = regexp.MustCompile(`(?i)name=['"]([^'"]+)['"]`)
)

// parseInputs extracts discovered form field names from a discovery
// result.
func parseInputs(result string) [][]string {
	names := namePattern.FindAllStringSubmatch(result, -1)
	if len(names) == 0 {
		if parseCount(result) > 0 {
			return [][]string{{"unnamed"}}
		}
		return nil
	}
	inputs := make([]string, 0, len(names))
	for _, m := range names {
		inputs = append(inputs, m[1])
	}
	return [][]string{inputs}
}

// parseCount extracts the first element count from a discovery result.
func parseCount(result string) int {
	m := countPattern.FindStringSubmatch(result)
	if m == nil {
		return 0
	}
	var n int
	fmt.Sscanf(m[1], "%d", &n)
	return n
}

// executorContext builds the full context text for an executor turn:
// the plan, the session state, and a sliding window of recent
// exchanges.
func (e *Engine) executorContext() string {
	sections := []string{
		fmt.Sprintf("CURRENT PLAN:\n%s", e.graph.Summary()),
		fmt.Sprintf("SESSION STATE:\n%s", e.memory.Summary()),
	}

	if len(e.history) > 0 {
		recent := e.history
		if len(recent) > e.cfg.HistoryWindow {
			recent = recent[len(recent)-e.cfg.HistoryWindow:]
		}
		var lines []string
		for _, h := range recent {
			lines = append(lines, fmt.Sprintf("Turn %d:", h.Iteration))
			lines = append(lines, fmt.Sprintf("  Instruction: %s", h.Instruction))
			lines = append(lines, fmt.Sprintf("  Your response: %s", truncate(h.Result, 200)))
		}
		sections = append(sections, "RECENT CONVERSATION:\n"+strings.Join(lines, "\n"))
	}

	return strings.Join(sections, "\n\n")
}

// compileAnswer renders the best-effort final answer from the task
// states and extracted artifacts.
func (e *Engine) compileAnswer(budgetExhausted bool) string {
	var b strings.Builder

	if budgetExhausted {
		b.WriteString("Maximum iterations reached; results are best-effort.\n\n")
	}

	done := 0
	tasks := e.graph.Tasks()
	for _, t := range tasks {
		if t.Status == models.TaskStatusDone {
			done++
		}
	}
	fmt.Fprintf(&b, "Completed %d of %d tasks:\n\n", done, len(tasks))
	for _, t := range tasks {
		fmt.Fprintf(&b, "%s %s\n", t.Status.Glyph(), t.Description)
	}

	if locations := e.memory.ArtifactLocations(); len(locations) > 0 {
		b.WriteString("\nExtracted data:\n")
		artifacts := e.memory.Artifacts()
		for _, loc := range locations {
			fmt.Fprintf(&b, "\nFrom %s:\n", loc)
			for _, snippet := range artifacts[loc] {
				fmt.Fprintf(&b, "  - %s\n", snippet)
			}
		}
	}

	return b.String()
}
