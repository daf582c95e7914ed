package catalog

import "context"

// Tool is the uniform contract every executable tool implements. The
// engine never inspects tool internals; it forwards name, description,
// and schema into prompts and routes arguments to Execute.
type Tool interface {
	// Name is the unique key used in prompts and dispatch.
	Name() string
	// Description tells the executor model what the tool does.
	Description() string
	// Schema is a JSON-Schema-like description of the parameters.
	Schema() map[string]any
	// Execute runs the tool. Failures are returned as errors; the
	// executor converts them into feedback text, never panics.
	Execute(ctx context.Context, args map[string]any) (string, error)
}
