package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/amcoelho/taskpilot/internal/catalog"
	"github.com/amcoelho/taskpilot/internal/planner"
)

const (
	// defaultMaxToolIterations bounds the tool-use loop for a single
	// instruction. Subtask-level retries happen above this layer.
	defaultMaxToolIterations = 8

	// executorTemperature keeps execution deterministic. Creativity
	// belongs to the planning side.
	executorTemperature = 0.1

	executorSystemPrompt = "You are a precise task executor. Carry out the given instruction " +
		"using the available tools. Report exactly what happened, including tool outputs " +
		"and any errors. Do not invent results."
)

// APIExecutor executes instructions through the Anthropic Messages API
// with a tool-use loop. Tool failures are folded into the conversation
// as error results so the model can adjust, never surfaced as Go
// errors.
type APIExecutor struct {
	client *planner.Client

	mu            sync.Mutex
	tools         []catalog.Tool
	byName        map[string]catalog.Tool
	maxIterations int
}

// NewAPIExecutor creates an executor backed by the given client.
// maxToolIterations of 0 selects the default.
func NewAPIExecutor(client *planner.Client, maxToolIterations int) *APIExecutor {
	if maxToolIterations <= 0 {
		maxToolIterations = defaultMaxToolIterations
	}
	return &APIExecutor{
		client:        client,
		byName:        make(map[string]catalog.Tool),
		maxIterations: maxToolIterations,
	}
}

// SetTools replaces the active tool set.
func (e *APIExecutor) SetTools(tools []catalog.Tool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tools = tools
	e.byName = make(map[string]catalog.Tool, len(tools))
	for _, t := range tools {
		e.byName[t.Name()] = t
	}
}

// Run executes a single instruction and returns the final text the
// model produced after its tool calls completed.
func (e *APIExecutor) Run(ctx context.Context, instruction, contextText string) (string, error) {
	e.mu.Lock()
	toolParams := toolDefinitions(e.tools)
	byName := e.byName
	maxIter := e.maxIterations
	e.mu.Unlock()

	user := instruction
	if contextText != "" {
		user = fmt.Sprintf("Context from previous steps:\n%s\n\nInstruction: %s", contextText, instruction)
	}

	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
	}

	var lastText string
	for iteration := 0; iteration < maxIter; iteration++ {
		params := anthropic.MessageNewParams{
			Model:       e.client.Model(),
			MaxTokens:   4096,
			Temperature: anthropic.Float(executorTemperature),
			System: []anthropic.TextBlockParam{
				{Text: executorSystemPrompt},
			},
			Messages: messages,
		}
		if len(toolParams) > 0 {
			params.Tools = toolParams
		}

		resp, err := e.client.Message(ctx, params)
		if err != nil {
			return "", fmt.Errorf("executor call failed: %w", err)
		}

		var assistantBlocks []anthropic.ContentBlockParamUnion
		var toolResultBlocks []anthropic.ContentBlockParamUnion
		var textOutput string

		for _, block := range resp.Content {
			switch variant := block.AsAny().(type) {
			case anthropic.TextBlock:
				textOutput += variant.Text
				assistantBlocks = append(assistantBlocks, anthropic.NewTextBlock(variant.Text))

			case anthropic.ToolUseBlock:
				assistantBlocks = append(assistantBlocks,
					anthropic.NewToolUseBlock(variant.ID, variant.Input, variant.Name))

				content, isError := e.dispatch(ctx, byName, variant.Name, variant.Input)
				toolResultBlocks = append(toolResultBlocks,
					anthropic.NewToolResultBlock(variant.ID, content, isError))
			}
		}

		if textOutput != "" {
			lastText = textOutput
		}

		if resp.StopReason == anthropic.StopReasonEndTurn {
			return textOutput, nil
		}

		messages = append(messages, anthropic.NewAssistantMessage(assistantBlocks...))
		if len(toolResultBlocks) > 0 {
			messages = append(messages, anthropic.NewUserMessage(toolResultBlocks...))
		}
	}

	if lastText != "" {
		return lastText, nil
	}
	return "", fmt.Errorf("tool loop exceeded %d iterations without a final answer", maxIter)
}

// dispatch runs one tool call. Unknown tools and execution failures
// come back as error result text for the model.
func (e *APIExecutor) dispatch(ctx context.Context, byName map[string]catalog.Tool, name string, input json.RawMessage) (string, bool) {
	tool, ok := byName[name]
	if !ok {
		return fmt.Sprintf("Error: unknown tool %q", name), true
	}

	var args map[string]any
	if len(input) > 0 {
		if err := json.Unmarshal(input, &args); err != nil {
			return fmt.Sprintf("Error: invalid tool arguments: %v", err), true
		}
	}
	if args == nil {
		args = map[string]any{}
	}

	result, err := tool.Execute(ctx, args)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), true
	}
	return result, false
}

// toolDefinitions converts catalog tools into API tool schemas.
func toolDefinitions(tools []catalog.Tool) []anthropic.ToolUnionParam {
	params := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schema := t.Schema()

		inputSchema := anthropic.ToolInputSchemaParam{}
		if props, ok := schema["properties"].(map[string]any); ok {
			inputSchema.Properties = props
		}
		if req, ok := schema["required"].([]string); ok {
			inputSchema.Required = req
		}

		params = append(params, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name(),
				Description: anthropic.String(t.Description()),
				InputSchema: inputSchema,
			},
		})
	}
	return params
}
