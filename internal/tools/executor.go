package tools

import (
	"context"
	"regexp"
	"strings"

	"Quill/internal/errs"
)

// ToolCall is one tool invocation, either routed locally or parsed from
// model output.
type ToolCall struct {
	Name  string
	Input string
	// Args are extra diagnostics recorded on a failure.
	Args map[string]any
}

// ToolResult represents the result of a tool execution
type ToolResult struct {
	ToolName string
	Input    string
	Output   string
	Error    error
}

// Format: ```tool:<name>\n<input>\n```
var toolBlockRe = regexp.MustCompile("(?s)```tool:([a-zA-Z_][a-zA-Z0-9_]*)\n(.*?)```")

// ParseToolCalls extracts text-protocol tool calls from a model response.
func ParseToolCalls(response string) []ToolCall {
	var calls []ToolCall
	for _, match := range toolBlockRe.FindAllStringSubmatch(response, -1) {
		calls = append(calls, ToolCall{
			Name:  strings.TrimSpace(match[1]),
			Input: strings.TrimSpace(match[2]),
		})
	}
	return calls
}

// Execute runs a single call. Faults come back as *errs.Error in the result,
// carrying the call input and any extra args for the log.
func (r *Registry) Execute(ctx context.Context, call ToolCall) ToolResult {
	result := ToolResult{ToolName: call.Name, Input: call.Input}
	tool, ok := r.Get(call.Name)
	if !ok {
		result.Error = errs.Newf(errs.ToolError, "tools.execute", "Unknown tool: %s", call.Name)
		return result
	}
	output, err := tool.Execute(ctx, call.Input)
	if err != nil {
		args := map[string]any{"input": call.Input}
		for k, v := range call.Args {
			args[k] = v
		}
		result.Error = errs.Wrap(errs.ToolError, "tools."+call.Name, err, "The tool failed to complete the request").
			WithArgs(args)
		return result
	}
	result.Output = output
	return result
}
