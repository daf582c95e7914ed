package engine

import (
	"fmt"
	"strings"
)

// Prompt builders for each planner call shape. Every prompt demands a
// JSON answer, but the decode package assumes it will not always get
// one.

func planSystemPrompt() string {
	return `You are a project manager analyzing user requests.

Your job: Break down the user's request into 2-5 HIGH-LEVEL tasks (not detailed steps).

Example:
User: "Search Google for Python creator, find his birth year, calculate his age"
Tasks:
1. Navigate to Google and search for Python creator
2. Find creator's birth year from results
3. Calculate current age from birth year

Respond with JSON:
{
    "main_goal": "brief summary of user's goal",
    "tasks": [
        {"description": "high-level task 1"},
        {"description": "high-level task 2"}
    ]
}

Keep tasks high-level. Subtasks will be created later.`
}

func planUserPrompt(goal string) string {
	return fmt.Sprintf("User request: %s\n\nCreate the TODO list.", goal)
}

func decomposeSystemPrompt(taskDescription, sessionState string, hint []string) string {
	hintText := ""
	if len(hint) > 0 {
		var lines []string
		for i, action := range firstN(hint, 5) {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, action))
		}
		hintText = "\n\nSIMILAR SUCCESSFUL PATTERN (use as inspiration):\n" +
			strings.Join(lines, "\n") +
			"\n\nYou can adapt this pattern to the current task."
	}

	return fmt.Sprintf(`Break this task into atomic subtasks. Each subtask = ONE tool call.

Task: %s
Session: %s%s

RULES:
1. If no session is started and the task needs one, the FIRST subtask MUST open the starting resource
2. Each subtask = exactly ONE action (never combine)
3. Logical order: navigate, then extract, then act
4. Be specific: include exact search terms, link text, values, etc.

Respond with JSON:
{
    "subtasks": ["subtask 1", "subtask 2"]
}`, taskDescription, sessionState, hintText)
}

func decomposeUserPrompt(taskDescription string) string {
	return fmt.Sprintf("Task to break down: %s", taskDescription)
}

func clusterSelectSystemPrompt(subtask, clustersText string) string {
	return fmt.Sprintf(`Select 1-2 clusters needed for this subtask.

CLUSTERS:
%s

Subtask: %s

Respond with JSON:
{
    "clusters": ["CLUSTER1"],
    "reasoning": "brief reason"
}`, clustersText, subtask)
}

func clusterSelectUserPrompt(subtask string) string {
	return fmt.Sprintf("Subtask: %s\n\nWhich cluster(s) contain the tools needed?", subtask)
}

func instructionSystemPrompt(subtask, toolsList string) string {
	return fmt.Sprintf(`Convert this subtask into a specific instruction for tool execution.

Subtask: %s
Available tools: %s

Be specific:
- Include exact terms and values from the subtask
- Name the tool to use when obvious
- For multi-step resources: inspect first, then act

Respond with JSON:
{
    "instruction": "specific instruction"
}`, subtask, toolsList)
}

func instructionUserPrompt(subtask string) string {
	return fmt.Sprintf("Formulate instruction for: %s", subtask)
}

func evaluateSystemPrompt(subtask, result, sessionState string) string {
	return fmt.Sprintf(`Did this subtask complete?

Subtask: %s
Result: %s
Session now: %s

Check:
- Location changed? Content changed? Error message?
- If result says "success" but nothing changed, it is NOT completed

Respond with JSON:
{
    "completed": true/false,
    "reasoning": "brief evidence",
    "next_action": "next_subtask" or "reformulate" or "retry"
}`, subtask, truncate(result, 200), sessionState)
}

func evaluateUserPrompt(result string) string {
	return fmt.Sprintf("Execution result:\n%s\n\nDid the subtask ACTUALLY complete? Provide evidence from session state.", result)
}

func validateSystemPrompt(taskDescription, sessionState string) string {
	return fmt.Sprintf(`You are validating if a task objective was actually achieved.

TASK: %s

CURRENT SESSION STATE:
%s

CHECK FOR CONCRETE EVIDENCE:
- For "open X": the location must be X
- For "search for X": the location must show search results, not the search homepage
- For "review results": the current resource must contain result content
- For "calculate X": the extracted data must contain the computed value

BE STRICT:
- If the task was "search" but the location is still the homepage, it FAILED
- If the task was "review results" but no results are visible, it FAILED
- Only return true if the session state PROVES the objective was achieved

Respond with JSON:
{
    "achieved": true/false,
    "evidence": "concrete evidence from session state"
}`, taskDescription, sessionState)
}

func validateUserPrompt() string {
	return "Was the task objective achieved? Provide evidence."
}

func reviseSubtasksSystemPrompt(taskDescription, sessionState, judgeVerdict string, oldSubtasks []string) string {
	var oldLines []string
	for i, s := range firstN(oldSubtasks, 3) {
		oldLines = append(oldLines, fmt.Sprintf("%d. %s", i+1, s))
	}

	return fmt.Sprintf(`JUDGE'S DIAGNOSIS:
%s

Task: %s
Session: %s

OLD SUBTASKS (FAILED):
%s

CREATE NEW SUBTASKS:
1. MUST be different from old ones
2. If no session is started, the FIRST subtask must open the starting resource
3. Follow the judge's recommendations
4. Each subtask = ONE tool call

Respond with JSON:
{
    "subtasks": ["new subtask 1", "new subtask 2"]
}`, truncate(judgeVerdict, 300), taskDescription, sessionState, strings.Join(oldLines, "\n"))
}

func reviseSubtasksUserPrompt(taskDescription string) string {
	return fmt.Sprintf("Revise subtasks for: %s", taskDescription)
}

func reviseTaskSystemPrompt(taskDescription, errorContext string) string {
	return fmt.Sprintf(`Task '%s' failed even after retries.

%s

Revise the task:
- Break into smaller pieces?
- Add missing prerequisites?
- Change approach?

Respond with JSON:
{
    "revised_task": "simpler, achievable task"
}`, taskDescription, truncate(errorContext, 200))
}

func reviseTaskUserPrompt(taskDescription string) string {
	return fmt.Sprintf("Revise: %s", taskDescription)
}

func judgeSystemPrompt() string {
	return "You are an expert debugging assistant analyzing automation failures."
}

func judgeUserPrompt(taskDescription, currentSubtask, sessionState string, actionsTaken []string) string {
	recent := actionsTaken
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	var lines []string
	for _, a := range recent {
		lines = append(lines, fmt.Sprintf("- %s", a))
	}

	return fmt.Sprintf(`EXTERNAL JUDGE: Analyze this failure.

Task: %s
Stuck on: %s
Session: %s

Recent attempts:
%s

ANALYZE:
1. ROOT CAUSE: What's the fundamental problem?
2. WHY LOOPING: What's missing or wrong?
3. FIX: What should be the FIRST correct action?

Be brief and direct.`, taskDescription, currentSubtask, sessionState, strings.Join(lines, "\n"))
}
