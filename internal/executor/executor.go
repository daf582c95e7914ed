// Package executor runs single subtask instructions against the
// executor model, dispatching tool calls to the active tool set.
package executor

import (
	"context"

	"github.com/amcoelho/taskpilot/internal/catalog"
)

// Executor carries out one concrete instruction and returns the
// observed result as text. Implementations must return degraded
// result text rather than panicking; an error here means the call
// itself could not be made.
type Executor interface {
	// SetTools replaces the tool set available to subsequent Run calls.
	SetTools(tools []catalog.Tool)
	// Run executes a single instruction with optional working-memory
	// context and returns the final textual result.
	Run(ctx context.Context, instruction, contextText string) (string, error)
}
