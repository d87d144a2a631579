package tools

import (
	"context"

	"Quill/internal/sandbox"
	"Quill/internal/validate"
	"Quill/pkg/types"
)

// ScriptTool executes Tengo scripts against the conversation's context, so
// variables survive between calls.
type ScriptTool struct {
	exec *sandbox.Executor
	sc   *sandbox.Context
}

// NewScriptTool creates a script tool bound to sc.
func NewScriptTool(exec *sandbox.Executor, sc *sandbox.Context) *ScriptTool {
	return &ScriptTool{exec: exec, sc: sc}
}

func (s *ScriptTool) Name() string {
	return types.ToolScript
}

func (s *ScriptTool) Capability() types.Capability {
	return types.CodeExecution
}

func (s *ScriptTool) Description() string {
	return "Execute scripts written in Tengo (Go-like syntax). Supports variables, loops, functions, " +
		"math helpers (sin, cos, sqrt, pi, ...), statistics helpers (mean, median, std, variance, min, max, sum) " +
		"and print/println/printf. These built-in names cannot be reassigned. Variables persist between calls. " +
		"Printed text is returned; otherwise set the 'output' variable to return a value."
}

func (s *ScriptTool) Execute(ctx context.Context, input string) (string, error) {
	if r := validate.NonEmpty(input); !r.Valid {
		return "", r.Err("tools.script")
	}
	return s.exec.Execute(ctx, s.sc, input)
}

// Context returns the namespace scripts run in.
func (s *ScriptTool) Context() *sandbox.Context {
	return s.sc
}

// Example usage in prompts:
// ```tool:script
// a := 10
// b := 20
// println(a + b)
// ```
