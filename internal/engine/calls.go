package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/amcoelho/taskpilot/internal/decode"
	"github.com/amcoelho/taskpilot/internal/planner"
)

// Typed wrappers around the planner interface, one per call shape.
// Every wrapper decodes defensively and falls back to a safe default
// so a malformed or failed call can never crash the run.

// plan is the initial goal decomposition.
type plan struct {
	MainGoal string
	Tasks    []string
}

func (e *Engine) createPlan(ctx context.Context, goal string) plan {
	text, err := e.planner.Call(ctx, planner.Request{
		System:      planSystemPrompt(),
		User:        planUserPrompt(goal),
		Temperature: e.plannerTemperature(),
		MaxTokens:   300,
	})
	if err != nil {
		e.log.Log("plan call failed: %v, using single-task plan", err)
		return plan{MainGoal: goal, Tasks: []string{goal}}
	}

	result, perr := decode.Parse(text)
	if perr != nil {
		e.log.Log("plan decode failed: %v, using single-task plan", perr)
		return plan{MainGoal: goal, Tasks: []string{goal}}
	}

	p := plan{MainGoal: decode.String(result, "main_goal", goal)}
	if rawTasks, ok := result["tasks"].([]any); ok {
		for _, raw := range rawTasks {
			switch t := raw.(type) {
			case map[string]any:
				if desc := decode.String(t, "description", ""); desc != "" {
					p.Tasks = append(p.Tasks, desc)
				}
			case string:
				if t != "" {
					p.Tasks = append(p.Tasks, t)
				}
			}
		}
	}
	if len(p.Tasks) == 0 {
		p.Tasks = []string{goal}
	}
	return p
}

func (e *Engine) createSubtasks(ctx context.Context, taskDescription string, hint []string) []string {
	text, err := e.planner.Call(ctx, planner.Request{
		System:      decomposeSystemPrompt(taskDescription, e.memory.Summary(), hint),
		User:        decomposeUserPrompt(taskDescription),
		Temperature: e.plannerTemperature(),
		MaxTokens:   300,
	})
	if err != nil {
		e.log.Log("decompose call failed: %v, using task as its own subtask", err)
		return []string{taskDescription}
	}

	result, perr := decode.Parse(text)
	if perr != nil {
		e.log.Log("decompose decode failed: %v, using task as its own subtask", perr)
		return []string{taskDescription}
	}

	subtasks := decode.StringList(result, "subtasks")
	if len(subtasks) == 0 {
		return []string{taskDescription}
	}
	return subtasks
}

func (e *Engine) selectClusters(ctx context.Context, subtask string) []string {
	var clusterInfo []string
	for _, name := range e.catalog.Names() {
		clusterInfo = append(clusterInfo, fmt.Sprintf("- %s: %s", name, e.catalog.Describe(name)))
	}
	clustersText := strings.Join(clusterInfo, "\n")

	text, err := e.planner.Call(ctx, planner.Request{
		System:      clusterSelectSystemPrompt(subtask, clustersText),
		User:        clusterSelectUserPrompt(subtask),
		Temperature: e.plannerTemperature(),
		MaxTokens:   200,
	})

	var clusters []string
	if err != nil {
		e.log.Log("cluster selection call failed: %v, using keyword suggestion", err)
	} else {
		result, perr := decode.Parse(text)
		if perr != nil {
			fallback := decode.Fallback(text, []string{decode.FieldClusters, decode.FieldReasoning}, e.fallbackOpts())
			clusters, _ = fallback[decode.FieldClusters].([]string)
		} else {
			clusters = decode.StringList(result, "clusters")
		}
	}

	// Planner output is noisy; keep only known clusters and fall back
	// to the keyword classifier when nothing valid remains.
	clusters = e.catalog.Valid(clusters)
	if len(clusters) == 0 {
		clusters = e.catalog.Suggest(subtask)
	}
	if len(clusters) == 0 {
		clusters = e.catalog.Names()
	}
	return clusters
}

func (e *Engine) formulateInstruction(ctx context.Context, subtask string, toolNames []string) string {
	text, err := e.planner.Call(ctx, planner.Request{
		System:      instructionSystemPrompt(subtask, strings.Join(toolNames, ", ")),
		User:        instructionUserPrompt(subtask),
		Temperature: e.plannerTemperature(),
		MaxTokens:   200,
	})
	if err != nil {
		e.log.Log("instruction call failed: %v, using subtask verbatim", err)
		return subtask
	}

	result, perr := decode.Parse(text)
	if perr != nil {
		fallback := decode.Fallback(text, []string{decode.FieldInstruction}, e.fallbackOpts())
		if instruction, ok := fallback[decode.FieldInstruction].(string); ok && instruction != "" {
			return instruction
		}
		return subtask
	}
	return decode.String(result, "instruction", subtask)
}

// evaluation is the planner's verdict on one executor turn.
type evaluation struct {
	Completed  bool
	Reasoning  string
	NextAction string
}

func (e *Engine) evaluateResult(ctx context.Context, subtask, result string) evaluation {
	text, err := e.planner.Call(ctx, planner.Request{
		System:      evaluateSystemPrompt(subtask, result, e.memory.Summary()),
		User:        evaluateUserPrompt(result),
		Temperature: e.plannerTemperature(),
		MaxTokens:   200,
	})
	if err != nil {
		// Assume completion so a dead planner cannot wedge the run.
		e.log.Log("evaluation call failed: %v, assuming completion", err)
		return evaluation{Completed: true, Reasoning: "evaluation unavailable", NextAction: "next_subtask"}
	}

	parsed, perr := decode.Parse(text)
	if perr != nil {
		fields := []string{decode.FieldCompleted, decode.FieldReasoning, decode.FieldNextAction}
		parsed = decode.Fallback(text, fields, e.fallbackOpts())
	}

	return evaluation{
		Completed:  decode.Bool(parsed, "completed", false),
		Reasoning:  decode.String(parsed, "reasoning", "no reasoning given"),
		NextAction: decode.String(parsed, "next_action", "retry"),
	}
}

func (e *Engine) validateObjective(ctx context.Context, taskDescription string) bool {
	text, err := e.planner.Call(ctx, planner.Request{
		System:      validateSystemPrompt(taskDescription, e.memory.Summary()),
		User:        validateUserPrompt(),
		Temperature: 0.2,
		MaxTokens:   150,
	})
	if err != nil {
		e.log.Log("objective validation call failed: %v, treating as not achieved", err)
		return false
	}

	parsed, perr := decode.Parse(text)
	if perr != nil {
		parsed = decode.Fallback(text, []string{decode.FieldAchieved, decode.FieldEvidence}, e.fallbackOpts())
	}
	return decode.Bool(parsed, "achieved", false)
}

func (e *Engine) reviseSubtasks(ctx context.Context, taskDescription, errorContext string, oldSubtasks []string) []string {
	judgeVerdict := ""
	if idx := strings.Index(errorContext, "EXTERNAL JUDGE ANALYSIS:"); idx >= 0 {
		judgeVerdict = strings.TrimSpace(errorContext[idx+len("EXTERNAL JUDGE ANALYSIS:"):])
	}

	text, err := e.planner.Call(ctx, planner.Request{
		System:      reviseSubtasksSystemPrompt(taskDescription, e.memory.Summary(), judgeVerdict, oldSubtasks),
		User:        reviseSubtasksUserPrompt(taskDescription),
		Temperature: e.plannerTemperature(),
		MaxTokens:   300,
	})
	if err != nil {
		e.log.Log("subtask revision call failed: %v, keeping old subtasks", err)
		return oldSubtasks
	}

	result, perr := decode.Parse(text)
	if perr != nil {
		e.log.Log("subtask revision decode failed: %v, keeping old subtasks", perr)
		return oldSubtasks
	}

	subtasks := decode.StringList(result, "subtasks")
	if len(subtasks) == 0 {
		return oldSubtasks
	}
	return subtasks
}

func (e *Engine) reviseTask(ctx context.Context, taskDescription, errorContext string) string {
	text, err := e.planner.Call(ctx, planner.Request{
		System:      reviseTaskSystemPrompt(taskDescription, errorContext),
		User:        reviseTaskUserPrompt(taskDescription),
		Temperature: e.plannerTemperature(),
		MaxTokens:   150,
	})
	if err != nil {
		e.log.Log("task revision call failed: %v, keeping old description", err)
		return taskDescription
	}

	result, perr := decode.Parse(text)
	if perr != nil {
		return taskDescription
	}
	return decode.String(result, "revised_task", taskDescription)
}

// judge requests an out-of-band diagnosis of a stall. It is a
// separately prompted call because the planner that produced the
// failing plan is a biased evaluator of its own failure.
func (e *Engine) judge(ctx context.Context, taskDescription, currentSubtask string, actionsTaken []string) string {
	verdict, err := e.planner.Call(ctx, planner.Request{
		System:      judgeSystemPrompt(),
		User:        judgeUserPrompt(taskDescription, currentSubtask, e.memory.Summary(), actionsTaken),
		Temperature: 0.2,
		MaxTokens:   400,
	})
	if err != nil {
		return fmt.Sprintf("Judge analysis failed: %v", err)
	}
	return strings.TrimSpace(verdict)
}

func (e *Engine) fallbackOpts() decode.FallbackOptions {
	return decode.FallbackOptions{
		KnownClusters:   e.catalog.Names(),
		DefaultClusters: e.cfg.DefaultClusters,
	}
}
