package engine

import (
	"fmt"
	"strings"

	"github.com/amcoelho/taskpilot/pkg/models"
)

// TaskGraph is the hierarchical plan for one run: a single main goal
// and an ordered list of tasks, each owning an ordered subtask list.
// Tasks are never deleted, only status-transitioned.
type TaskGraph struct {
	mainGoal string
	tasks    []*models.Task
	nextID   int
}

// NewTaskGraph creates an empty plan.
func NewTaskGraph() *TaskGraph {
	return &TaskGraph{}
}

// Initialize sets the main goal. It may be called exactly once per run.
func (g *TaskGraph) Initialize(mainGoal string) error {
	if g.mainGoal != "" {
		return fmt.Errorf("main goal already set to %q", g.mainGoal)
	}
	if strings.TrimSpace(mainGoal) == "" {
		return fmt.Errorf("main goal is empty")
	}
	g.mainGoal = mainGoal
	return nil
}

// Goal returns the main goal.
func (g *TaskGraph) Goal() string {
	return g.mainGoal
}

// AddTask appends a pending task and returns its id. Ids are unique
// and increasing within a run.
func (g *TaskGraph) AddTask(description string) int {
	g.nextID++
	g.tasks = append(g.tasks, &models.Task{
		ID:          g.nextID,
		Description: description,
		Status:      models.TaskStatusPending,
	})
	return g.nextID
}

// Task returns the task with the given id, or nil.
func (g *TaskGraph) Task(id int) *models.Task {
	for _, t := range g.tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Tasks returns all tasks in creation order.
func (g *TaskGraph) Tasks() []*models.Task {
	return g.tasks
}

// SetStatus transitions a task's status.
func (g *TaskGraph) SetStatus(id int, status models.TaskStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	t := g.Task(id)
	if t == nil {
		return fmt.Errorf("unknown task id %d", id)
	}
	t.Status = status
	return nil
}

// SetSubtasks replaces a task's subtask list wholesale, as happens on
// decomposition and on every subtask-level escalation.
func (g *TaskGraph) SetSubtasks(id int, subtasks []string) error {
	t := g.Task(id)
	if t == nil {
		return fmt.Errorf("unknown task id %d", id)
	}
	t.Subtasks = subtasks
	return nil
}

// SetDescription rewrites a task's description after a task-level
// revision.
func (g *TaskGraph) SetDescription(id int, description string) error {
	t := g.Task(id)
	if t == nil {
		return fmt.Errorf("unknown task id %d", id)
	}
	t.Description = description
	return nil
}

// AllTerminal reports whether every task is done or failed.
func (g *TaskGraph) AllTerminal() bool {
	for _, t := range g.tasks {
		if !t.Terminal() {
			return false
		}
	}
	return true
}

// Summary renders the goal plus numbered tasks with status glyphs and
// nested subtasks, used in every prompt for situational awareness.
func (g *TaskGraph) Summary() string {
	if len(g.tasks) == 0 {
		return "No tasks defined yet"
	}

	lines := []string{fmt.Sprintf("MAIN GOAL: %s", g.mainGoal), ""}
	for _, t := range g.tasks {
		lines = append(lines, fmt.Sprintf("%s Task %d: %s [%s]",
			t.Status.Glyph(), t.ID, t.Description, strings.ToUpper(string(t.Status))))
		for i, subtask := range t.Subtasks {
			lines = append(lines, fmt.Sprintf("    %d. %s", i+1, subtask))
		}
	}
	return strings.Join(lines, "\n")
}
