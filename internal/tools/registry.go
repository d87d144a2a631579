package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"Quill/pkg/types"
)

// Tool is one capability handler the agent can dispatch to.
type Tool interface {
	Name() string
	Description() string
	Capability() types.Capability
	Execute(ctx context.Context, input string) (string, error)
}

// Registry holds the tools of one agent.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates a registry holding tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds a tool, replacing any tool with the same name.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

// Get retrieves a tool by name
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// ForCapability returns the tool that handles c.
func (r *Registry) ForCapability(c types.Capability) (Tool, bool) {
	name := c.ToolName()
	if name == "" {
		return nil, false
	}
	return r.Get(name)
}

// All returns the registered tools ordered by name.
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		result = append(result, tool)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

// Names returns all tool names, sorted.
func (r *Registry) Names() []string {
	tools := r.All()
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name()
	}
	return names
}

// FormatToolsForPrompt describes tools for models without function calling.
func FormatToolsForPrompt(tools []Tool) string {
	if len(tools) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("You have access to the following tools:\n\n")
	for _, tool := range tools {
		fmt.Fprintf(&sb, "- **%s**: %s\n", tool.Name(), tool.Description())
	}
	sb.WriteString("\nTo use a tool, write your response in this format:\n")
	sb.WriteString("```tool:<tool_name>\n<input for the tool>\n```\n")
	return sb.String()
}
