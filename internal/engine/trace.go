package engine

import (
	"github.com/google/uuid"

	"github.com/amcoelho/taskpilot/pkg/models"
)

// Exchange is one instruction/result pair from the run.
type Exchange struct {
	Iteration   int
	Instruction string
	Result      string
}

// Trace is the introspectable record of a run, kept for debugging and
// tests.
type Trace struct {
	RunID     string
	Goal      string
	Exchanges []Exchange
	Tasks     []models.Task
}

func newTrace(goal string) *Trace {
	return &Trace{
		RunID: uuid.New().String(),
		Goal:  goal,
	}
}

// record appends one exchange to the trace.
func (t *Trace) record(iteration int, instruction, result string) {
	t.Exchanges = append(t.Exchanges, Exchange{
		Iteration:   iteration,
		Instruction: instruction,
		Result:      result,
	})
}

// snapshotTasks copies the final task states into the trace.
func (t *Trace) snapshotTasks(tasks []*models.Task) {
	t.Tasks = t.Tasks[:0]
	for _, task := range tasks {
		copied := *task
		copied.Subtasks = append([]string(nil), task.Subtasks...)
		t.Tasks = append(t.Tasks, copied)
	}
}
