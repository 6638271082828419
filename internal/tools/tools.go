// Package tools exposes the session manager through a small closed tool
// registry: exec_command starts or continues executions, write_stdin feeds
// input to live sessions. The tool set is fixed; dispatch is an explicit
// lookup, not an open-ended table.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// ToolSpec describes a tool for schema generation.
type ToolSpec interface {
	Name() string
	Description() string
	Parameters() map[string]interface{}
}

// ToolExecutor runs a tool invocation.
type ToolExecutor interface {
	Execute(ctx context.Context, params map[string]interface{}) *ToolResult
}

// Tool combines spec and executor.
type Tool interface {
	ToolSpec
	ToolExecutor
}

// ToolResult represents the result of a tool execution
type ToolResult struct {
	Result            interface{} `json:"result"`
	Error             string      `json:"error,omitempty"`
	RequiresUserInput bool        `json:"requires_user_input,omitempty"`
}

// Registry holds the fixed tool set.
type Registry struct {
	entries map[string]Tool
}

// NewRegistry builds a registry over the given tools.
func NewRegistry(toolset ...Tool) *Registry {
	entries := make(map[string]Tool, len(toolset))
	for _, tool := range toolset {
		entries[tool.Name()] = tool
	}
	return &Registry{entries: entries}
}

// Execute dispatches one invocation by tool name.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]interface{}) *ToolResult {
	tool, ok := r.entries[name]
	if !ok {
		return &ToolResult{Error: fmt.Sprintf("unknown tool: %s", name)}
	}
	return tool.Execute(ctx, params)
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Spec returns the spec for a registered tool.
func (r *Registry) Spec(name string) (ToolSpec, bool) {
	tool, ok := r.entries[name]
	return tool, ok
}

// Helper function to get string parameter
func GetStringParam(params map[string]interface{}, key string, defaultVal string) string {
	if val, ok := params[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return defaultVal
}

// Helper function to get int parameter
func GetIntParam(params map[string]interface{}, key string, defaultVal int) int {
	if val, ok := params[key]; ok {
		switch v := val.(type) {
		case int:
			return v
		case float64:
			return int(v)
		case json.Number:
			if i, err := v.Int64(); err == nil {
				return int(i)
			}
		}
	}
	return defaultVal
}

// Helper function to get bool parameter
func GetBoolParam(params map[string]interface{}, key string, defaultVal bool) bool {
	if val, ok := params[key]; ok {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return defaultVal
}
