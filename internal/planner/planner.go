// Package planner provides the model client used for planning and
// reasoning calls. The orchestration engine talks to it through the
// Planner interface so tests can substitute a scripted fake.
package planner

import "context"

// Request is a single plain-text completion request.
type Request struct {
	// System is the system prompt.
	System string
	// User is the user message.
	User string
	// Temperature controls sampling. Zero means the model default.
	Temperature float64
	// MaxTokens caps the response length. Zero means 4096.
	MaxTokens int64
}

// Planner produces text responses for orchestration prompts. The
// response may be malformed JSON or free prose; callers decode it
// defensively.
type Planner interface {
	Call(ctx context.Context, req Request) (string, error)
}
