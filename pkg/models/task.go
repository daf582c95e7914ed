package models

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusInProgress indicates the task is being worked on.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusDone indicates the task completed and passed objective validation.
	TaskStatusDone TaskStatus = "done"
	// TaskStatusFailed indicates the task did not achieve its objective.
	TaskStatusFailed TaskStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusDone, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// Glyph returns the status marker used in plan summaries.
func (s TaskStatus) Glyph() string {
	switch s {
	case TaskStatusDone:
		return "[x]"
	case TaskStatusInProgress:
		return "[~]"
	case TaskStatusFailed:
		return "[!]"
	default:
		return "[ ]"
	}
}

// Task is one high-level unit of the plan. Tasks are created by the
// planner's decomposition and never deleted, only status-transitioned.
type Task struct {
	// ID is unique and monotonically increasing within a run.
	ID int `json:"id"`
	// Description is the planner-written summary of the work.
	Description string `json:"description"`
	// Status is the current lifecycle state.
	Status TaskStatus `json:"status"`
	// Subtasks is the ordered list of atomic step descriptions.
	// The list is replaced wholesale when the task is replanned.
	Subtasks []string `json:"subtasks,omitempty"`
}

// Terminal returns true once the task can no longer be worked on.
func (t *Task) Terminal() bool {
	return t.Status == TaskStatusDone || t.Status == TaskStatusFailed
}
