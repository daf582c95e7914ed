package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Escalation actions, in ladder order. Retry is handled by the
// subtask loop itself and never reaches the escalator.
const (
	ActionReviseSubtasks = "revise_subtasks"
	ActionReviseTask     = "revise_task"
	ActionSkip           = "skip_and_continue"
)

// Failure is one recorded attempt failure for a subtask.
type Failure struct {
	// Excerpt is the leading portion of the executor's response.
	Excerpt string
	// Reasoning is the planner's explanation of why it failed.
	Reasoning string
}

// ErrorRecord accumulates failure evidence for one distinct subtask
// text within the current task. Records live until the task is
// replanned.
type ErrorRecord struct {
	Subtask  string
	Attempts int
	Errors   []Failure
}

// Decision is the escalator's verdict for a failed subtask.
type Decision struct {
	Action       string
	ErrorContext string
}

// Escalator implements the revision ladder: revise subtasks while the
// task-level budget lasts, then revise the task once, then skip. Its
// counters are monotonically non-decreasing and never exceed their
// limits; they reset only when a brand-new task begins.
type Escalator struct {
	records []*ErrorRecord

	taskRevisions int
	todoRevisions int
	lastLevel     string

	retryLimit int
	taskLimit  int
	todoLimit  int
}

// NewEscalator creates an escalator with the given budgets.
// Non-positive budgets select the defaults (3 retries, 2 subtask
// revisions, 1 task revision).
func NewEscalator(retryLimit, taskLimit, todoLimit int) *Escalator {
	if retryLimit <= 0 {
		retryLimit = 3
	}
	if taskLimit <= 0 {
		taskLimit = 2
	}
	if todoLimit <= 0 {
		todoLimit = 1
	}
	return &Escalator{
		retryLimit: retryLimit,
		taskLimit:  taskLimit,
		todoLimit:  todoLimit,
	}
}

// Track records one failed attempt for a subtask.
func (e *Escalator) Track(subtask, responseExcerpt, reasoning string) {
	excerpt := responseExcerpt
	if len(excerpt) > 200 {
		cut := 200
		for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
			cut--
		}
		excerpt = excerpt[:cut]
	}
	failure := Failure{Excerpt: excerpt, Reasoning: reasoning}

	for _, r := range e.records {
		if r.Subtask == subtask {
			r.Attempts++
			r.Errors = append(r.Errors, failure)
			return
		}
	}
	e.records = append(e.records, &ErrorRecord{
		Subtask:  subtask,
		Attempts: 1,
		Errors:   []Failure{failure},
	})
}

// Attempts returns the recorded attempt count for a subtask.
func (e *Escalator) Attempts(subtask string) int {
	for _, r := range e.records {
		if r.Subtask == subtask {
			return r.Attempts
		}
	}
	return 0
}

// Decide picks the next rung of the ladder for a subtask that failed
// after its local retry budget.
func (e *Escalator) Decide(subtask string) Decision {
	attempts := e.Attempts(subtask)

	switch {
	case attempts >= e.retryLimit && e.taskRevisions < e.taskLimit:
		e.taskRevisions++
		e.lastLevel = "subtask"
		return Decision{Action: ActionReviseSubtasks, ErrorContext: e.ErrorContext()}

	case e.taskRevisions >= e.taskLimit && e.todoRevisions < e.todoLimit:
		e.todoRevisions++
		e.lastLevel = "task"
		errCtx := e.ErrorContext()
		// The task is being replanned; its failure history starts
		// clean while the revision counters keep their values.
		e.records = nil
		return Decision{Action: ActionReviseTask, ErrorContext: errCtx}

	default:
		return Decision{Action: ActionSkip}
	}
}

// ErrorContext renders the accumulated failure history for revision
// prompts.
func (e *Escalator) ErrorContext() string {
	lines := []string{"ERROR HISTORY (learn from these failures):", ""}

	for i, r := range e.records {
		lines = append(lines, fmt.Sprintf("Failure %d: '%s'", i+1, r.Subtask))
		lines = append(lines, fmt.Sprintf("  Attempts: %d", r.Attempts))
		for j, err := range r.Errors {
			lines = append(lines, fmt.Sprintf("  Attempt %d reasoning: %s", j+1, err.Reasoning))
		}
		lines = append(lines, "")
	}

	lines = append(lines, fmt.Sprintf("Task revisions so far: %d", e.taskRevisions))
	lines = append(lines, fmt.Sprintf("TODO revisions so far: %d", e.todoRevisions))
	return strings.Join(lines, "\n")
}

// LoopContext renders stall evidence for the forced-escalation
// revision prompt.
func (e *Escalator) LoopContext(d *LoopDetector, contextSummary string) string {
	lines := []string{
		"LOOP DETECTED - system intervention required.",
		"",
		fmt.Sprintf("Last %d actions: %v", len(d.Actions()), d.Actions()),
		fmt.Sprintf("Identical action count: %d", d.IdenticalCount()),
		fmt.Sprintf("Precondition failures ignored: %d", d.PreconditionFailures()),
		"",
		fmt.Sprintf("Current session state: %s", contextSummary),
		"",
		"DIAGNOSIS: the executor is stuck trying the same action repeatedly.",
		"The current subtasks are wrong and need complete revision.",
		"",
	}
	return strings.Join(lines, "\n")
}

// TaskRevisions returns the subtask-revision counter.
func (e *Escalator) TaskRevisions() int {
	return e.taskRevisions
}

// TodoRevisions returns the task-revision counter.
func (e *Escalator) TodoRevisions() int {
	return e.todoRevisions
}

// LastLevel returns the most recent escalation level, or "".
func (e *Escalator) LastLevel() string {
	return e.lastLevel
}

// Reset clears all records and counters for a brand-new task.
func (e *Escalator) Reset() {
	e.records = nil
	e.taskRevisions = 0
	e.todoRevisions = 0
	e.lastLevel = ""
}

// TooSimilar reports whether a revised subtask list is effectively the
// same as the failed one: the first items match exactly, or at least
// 70% of the new items are exact or substring matches of old ones.
func TooSimilar(oldSubtasks, newSubtasks []string) bool {
	if len(newSubtasks) > 0 && len(oldSubtasks) > 0 {
		if normalize(newSubtasks[0]) == normalize(oldSubtasks[0]) {
			return true
		}
	}

	matches := 0
	for _, newSt := range newSubtasks {
		newClean := normalize(newSt)
		for _, oldSt := range oldSubtasks {
			oldClean := normalize(oldSt)
			if newClean == oldClean ||
				strings.Contains(oldClean, newClean) ||
				strings.Contains(newClean, oldClean) {
				matches++
				break
			}
		}
	}

	denom := len(newSubtasks)
	if denom == 0 {
		denom = 1
	}
	return float64(matches)/float64(denom) >= 0.7
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
