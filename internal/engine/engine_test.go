package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/amcoelho/taskpilot/internal/catalog"
	"github.com/amcoelho/taskpilot/internal/planner"
	"github.com/amcoelho/taskpilot/pkg/models"
)

// scriptedPlanner dispatches on distinctive phrases in the system
// prompt, so one fake serves every call shape.
type scriptedPlanner struct {
	responses map[string]string
	calls     []string
}

func (p *scriptedPlanner) Call(_ context.Context, req planner.Request) (string, error) {
	for phrase, response := range p.responses {
		if strings.Contains(req.System, phrase) || strings.Contains(req.User, phrase) {
			p.calls = append(p.calls, phrase)
			return response, nil
		}
	}
	return "", nil
}

// scriptedExecutor returns canned results in order, repeating the last
// one when the script runs out.
type scriptedExecutor struct {
	results  []string
	next     int
	toolSets [][]string
	runs     []string
}

func (x *scriptedExecutor) SetTools(tools []catalog.Tool) {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name()
	}
	x.toolSets = append(x.toolSets, names)
}

func (x *scriptedExecutor) Run(_ context.Context, instruction, _ string) (string, error) {
	x.runs = append(x.runs, instruction)
	if x.next < len(x.results)-1 {
		r := x.results[x.next]
		x.next++
		return r, nil
	}
	return x.results[len(x.results)-1], nil
}

type namedTool struct{ name string }

func (t namedTool) Name() string                { return t.name }
func (t namedTool) Description() string         { return t.name }
func (t namedTool) Schema() map[string]any      { return map[string]any{} }
func (t namedTool) Execute(_ context.Context, _ map[string]any) (string, error) {
	return "", nil
}

func mathCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c := catalog.New(catalog.DefaultClusters())
	if err := c.Register(namedTool{name: "calculator"}, "MATH"); err != nil {
		t.Fatalf("register: %v", err)
	}
	return c
}

func TestEngineRunHappyPath(t *testing.T) {
	p := &scriptedPlanner{responses: map[string]string{
		"project manager": `{"main_goal": "Calculate 15 squared",
			"tasks": [{"description": "Calculate 15 squared"}]}`,
		"Break this task into atomic subtasks": `{"subtasks": ["Use the calculator to compute 15^2"]}`,
		"Select 1-2 clusters":                  `{"clusters": ["MATH"], "reasoning": "arithmetic"}`,
		"Convert this subtask":                 `{"instruction": "Use calculator to evaluate 15^2"}`,
		"Did this subtask complete":            `{"completed": true, "reasoning": "result present", "next_action": "next_subtask"}`,
		"validating if a task objective":       `{"achieved": true, "evidence": "value 225 computed"}`,
	}}
	x := &scriptedExecutor{results: []string{"The value of 15^2 is 225"}}

	e := New(Config{}, p, x, mathCatalog(t))
	answer := e.Run(context.Background(), "Calculate 15 squared")

	tasks := e.graph.Tasks()
	if len(tasks) != 1 || tasks[0].Status != models.TaskStatusDone {
		t.Fatalf("tasks = %+v, want one done task", tasks)
	}
	if !strings.Contains(answer, "Completed 1 of 1 tasks") {
		t.Errorf("answer missing completion line:\n%s", answer)
	}
	if strings.Contains(answer, "Maximum iterations reached") {
		t.Errorf("budget warning on a one-iteration run:\n%s", answer)
	}

	if len(x.toolSets) == 0 || len(x.toolSets[0]) != 1 || x.toolSets[0][0] != "calculator" {
		t.Errorf("executor tool sets = %v", x.toolSets)
	}
	if len(x.runs) != 1 || x.runs[0] != "Use calculator to evaluate 15^2" {
		t.Errorf("executor runs = %v", x.runs)
	}

	// Success feeds the pattern cache under the task's coarse type.
	if hint := e.Patterns().Similar("Compute 9 cubed"); hint == nil {
		t.Error("successful run should seed a math pattern")
	}

	tr := e.Trace()
	if tr == nil || len(tr.Exchanges) != 1 || tr.RunID == "" {
		t.Fatalf("trace = %+v", tr)
	}
	if len(tr.Tasks) != 1 || tr.Tasks[0].Status != models.TaskStatusDone {
		t.Errorf("trace tasks = %+v", tr.Tasks)
	}
}

func TestEngineRetryThenComplete(t *testing.T) {
	evalCount := 0
	p := &countingPlanner{inner: &scriptedPlanner{responses: map[string]string{
		"project manager":                      `{"main_goal": "goal", "tasks": [{"description": "Calculate 15 squared"}]}`,
		"Break this task into atomic subtasks": `{"subtasks": ["compute the square"]}`,
		"Select 1-2 clusters":                  `{"clusters": ["MATH"]}`,
		"Convert this subtask":                 `{"instruction": "run calculator"}`,
		"validating if a task objective":       `{"achieved": true, "evidence": "done"}`,
	}}, onEvaluate: func() string {
		evalCount++
		if evalCount == 1 {
			return `{"completed": false, "reasoning": "wrong tool", "next_action": "retry"}`
		}
		return `{"completed": true, "reasoning": "value computed", "next_action": "next_subtask"}`
	}}
	x := &scriptedExecutor{results: []string{"error: bad input", "The value is 225"}}

	e := New(Config{}, p, x, mathCatalog(t))
	e.Run(context.Background(), "Calculate 15 squared")

	if got := e.graph.Tasks()[0].Status; got != models.TaskStatusDone {
		t.Errorf("status = %q, want done after retry", got)
	}
	if len(x.runs) != 2 {
		t.Errorf("executor runs = %d, want 2", len(x.runs))
	}

	// The failed attempt leaves feedback in the history for the next
	// prompt.
	found := false
	for _, h := range e.history {
		if h.Instruction == "SYSTEM_FEEDBACK" && strings.Contains(h.Result, "wrong tool") {
			found = true
		}
	}
	if !found {
		t.Error("retry should record SYSTEM_FEEDBACK in history")
	}
}

// countingPlanner overrides only the evaluation call.
type countingPlanner struct {
	inner      *scriptedPlanner
	onEvaluate func() string
}

func (p *countingPlanner) Call(ctx context.Context, req planner.Request) (string, error) {
	if strings.Contains(req.System, "Did this subtask complete") {
		return p.onEvaluate(), nil
	}
	return p.inner.Call(ctx, req)
}

func TestEngineEscalationLadderToSkip(t *testing.T) {
	p := &scriptedPlanner{responses: map[string]string{
		"project manager":                      `{"main_goal": "goal", "tasks": [{"description": "Do the impossible"}]}`,
		"Break this task into atomic subtasks": `{"subtasks": ["attempt the impossible"]}`,
		"Select 1-2 clusters":                  `{"clusters": ["MATH"]}`,
		"Convert this subtask":                 `{"instruction": "try it"}`,
		"Did this subtask complete":            `{"completed": false, "reasoning": "no effect", "next_action": "reformulate"}`,
		"JUDGE'S DIAGNOSIS":                    `{"subtasks": ["attempt the impossible differently"]}`,
		"failed even after retries":            `{"revised_task": "Do something simpler"}`,
		"validating if a task objective":       `{"achieved": false, "evidence": "nothing happened"}`,
	}}
	x := &scriptedExecutor{results: []string{"nothing happened"}}

	e := New(Config{MaxIterations: 100}, p, x, mathCatalog(t))
	e.Run(context.Background(), "Do the impossible")

	tasks := e.graph.Tasks()
	if tasks[0].Status != models.TaskStatusFailed {
		t.Errorf("status = %q, want failed", tasks[0].Status)
	}
	if tasks[0].Description != "Do something simpler" {
		t.Errorf("description = %q, want the revised task", tasks[0].Description)
	}
	if e.escalator.TaskRevisions() > 2 || e.escalator.TodoRevisions() > 1 {
		t.Errorf("revision counters exceeded limits: task=%d todo=%d",
			e.escalator.TaskRevisions(), e.escalator.TodoRevisions())
	}
}

// funcPlanner lets a test script responses on the full request.
type funcPlanner func(req planner.Request) string

func (f funcPlanner) Call(_ context.Context, req planner.Request) (string, error) {
	return f(req), nil
}

func TestEngineRehashedRevisionEscalatesToTaskLevel(t *testing.T) {
	p := funcPlanner(func(req planner.Request) string {
		has := func(s string) bool {
			return strings.Contains(req.System, s) || strings.Contains(req.User, s)
		}
		switch {
		case has("project manager"):
			return `{"main_goal": "goal", "tasks": [{"description": "Do the impossible"}]}`
		case has("Break this task into atomic subtasks"):
			if has("Do something simpler") {
				return `{"subtasks": ["do the simple thing"]}`
			}
			return `{"subtasks": ["attempt the impossible"]}`
		case has("Select 1-2 clusters"):
			return `{"clusters": ["MATH"]}`
		case has("Convert this subtask"):
			if has("do the simple thing") {
				return `{"instruction": "do the simple step"}`
			}
			return `{"instruction": "try the impossible step"}`
		case has("Did this subtask complete"):
			if has("do the simple thing") {
				return `{"completed": true, "reasoning": "done", "next_action": "next_subtask"}`
			}
			return `{"completed": false, "reasoning": "no effect", "next_action": "reformulate"}`
		case has("JUDGE'S DIAGNOSIS"):
			// A rehash: the first item is identical to the failed list.
			return `{"subtasks": ["attempt the impossible"]}`
		case has("failed even after retries"):
			return `{"revised_task": "Do something simpler"}`
		case has("validating if a task objective"):
			return `{"achieved": true, "evidence": "simple step done"}`
		}
		return ""
	})
	x := &scriptedExecutor{results: []string{"nothing happened"}}

	e := New(Config{MaxIterations: 20}, p, x, mathCatalog(t))
	e.Run(context.Background(), "Do the impossible")

	// A rehashed revision must not be re-executed; the engine goes
	// straight to a task-level revision after the retry budget.
	impossible := 0
	for _, run := range x.runs {
		if run == "try the impossible step" {
			impossible++
		}
	}
	if impossible != 3 {
		t.Errorf("identical subtask executed %d times, want 3", impossible)
	}
	if len(x.runs) == 0 || x.runs[len(x.runs)-1] != "do the simple step" {
		t.Errorf("executor runs = %v, want the revised task's step last", x.runs)
	}

	task := e.graph.Tasks()[0]
	if task.Description != "Do something simpler" {
		t.Errorf("description = %q, want the revised task", task.Description)
	}
	if task.Status != models.TaskStatusDone {
		t.Errorf("status = %q, want done", task.Status)
	}
	if e.escalator.TaskRevisions() != 1 {
		t.Errorf("task revisions = %d, want 1", e.escalator.TaskRevisions())
	}
}

func TestEngineBudgetExhaustion(t *testing.T) {
	p := &scriptedPlanner{responses: map[string]string{
		"project manager": `{"main_goal": "goal",
			"tasks": [{"description": "task one"}, {"description": "task two"}]}`,
		"Break this task into atomic subtasks": `{"subtasks": ["step a", "step b", "step c"]}`,
		"Select 1-2 clusters":                  `{"clusters": ["MATH"]}`,
		"Convert this subtask":                 `{"instruction": "do the step"}`,
		"Did this subtask complete":            `{"completed": false, "reasoning": "stuck", "next_action": "reformulate"}`,
		"JUDGE'S DIAGNOSIS":                    `{"subtasks": ["step a", "step b", "step c"]}`,
		"failed even after retries":            `{"revised_task": "task one simplified"}`,
		"validating if a task objective":       `{"achieved": false, "evidence": "none"}`,
	}}
	x := &scriptedExecutor{results: []string{"no progress"}}

	e := New(Config{MaxIterations: 4}, p, x, mathCatalog(t))
	answer := e.Run(context.Background(), "goal")

	if !strings.Contains(answer, "Maximum iterations reached") {
		t.Errorf("answer missing budget warning:\n%s", answer)
	}
	if !strings.Contains(answer, "of 2 tasks") {
		t.Errorf("answer missing task tally:\n%s", answer)
	}
}

func TestEnginePlannerDownStillAnswers(t *testing.T) {
	// Every call decodes to nothing; the run must still finish with a
	// bounded answer and never panic.
	p := &scriptedPlanner{responses: map[string]string{}}
	x := &scriptedExecutor{results: []string{"some output"}}

	e := New(Config{MaxIterations: 5}, p, x, mathCatalog(t))
	answer := e.Run(context.Background(), "Calculate 15 squared")

	if !strings.Contains(answer, "tasks") {
		t.Errorf("answer = %q", answer)
	}
	if e.graph.Goal() != "Calculate 15 squared" {
		t.Errorf("goal = %q, fallback plan should use the raw goal", e.graph.Goal())
	}
}

func TestEngineStallForcesRevision(t *testing.T) {
	revised := false
	p := &hookPlanner{responses: map[string]string{
		"project manager":                      `{"main_goal": "goal", "tasks": [{"description": "Extract the data"}]}`,
		"Break this task into atomic subtasks": `{"subtasks": ["extract the listing"]}`,
		"Select 1-2 clusters":                  `{"clusters": ["MATH"]}`,
		"Convert this subtask":                 `{"instruction": "call extract_links now"}`,
		"Did this subtask complete":            `{"completed": true, "reasoning": "value computed", "next_action": "next_subtask"}`,
		"expert debugging assistant":           `The session was never started. Open the resource first.`,
		"JUDGE'S DIAGNOSIS":                    `{"subtasks": ["use the calculator instead", "report the number"]}`,
		"validating if a task objective":       `{"achieved": true, "evidence": "number reported"}`,
	}, onMatch: func(phrase string) {
		if phrase == "JUDGE'S DIAGNOSIS" {
			revised = true
		}
	}}
	// The first result names a session-bound action with no session
	// started, which is a one-strike stall. After the forced revision
	// the remaining turns are stateless and succeed.
	x := &scriptedExecutor{results: []string{"ran extract_links: nothing found", "calculator result: 225"}}

	e := New(Config{MaxIterations: 6}, p, x, mathCatalog(t))
	e.Run(context.Background(), "Extract the data")

	if !revised {
		t.Fatal("stall should trigger a forced subtask revision")
	}
	if got := e.graph.Tasks()[0].Subtasks; len(got) == 0 || got[0] != "use the calculator instead" {
		t.Errorf("subtasks after forced revision = %v", got)
	}
	if got := e.graph.Tasks()[0].Status; got != models.TaskStatusDone {
		t.Errorf("status = %q, want done after revised plan", got)
	}
	if e.detector.IdenticalCount() != 0 || len(e.detector.Actions()) != 0 {
		t.Error("detector should be reset after forced escalation")
	}
}

// hookPlanner is a scriptedPlanner that reports which phrase matched.
type hookPlanner struct {
	responses map[string]string
	onMatch   func(phrase string)
}

func (p *hookPlanner) Call(_ context.Context, req planner.Request) (string, error) {
	for phrase, response := range p.responses {
		if strings.Contains(req.System, phrase) || strings.Contains(req.User, phrase) {
			if p.onMatch != nil {
				p.onMatch(phrase)
			}
			return response, nil
		}
	}
	return "", nil
}
