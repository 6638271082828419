package tools

import (
	"context"
	"errors"
	"time"

	"github.com/codefionn/execguard/internal/execsession"
)

const (
	ToolNameExecCommand = "exec_command"
	ToolNameWriteStdin  = "write_stdin"

	defaultExecYieldMs  = 10_000
	defaultStdinYieldMs = 250
	defaultShell        = "bash"
)

// SessionDefaults carries the configured fallbacks applied when a tool
// invocation omits the corresponding parameter. Zero fields fall back to
// the built-in defaults.
type SessionDefaults struct {
	ExecYield       time.Duration
	StdinYield      time.Duration
	MaxOutputTokens int
}

func (d SessionDefaults) withFallbacks() SessionDefaults {
	if d.ExecYield <= 0 {
		d.ExecYield = defaultExecYieldMs * time.Millisecond
	}
	if d.StdinYield <= 0 {
		d.StdinYield = defaultStdinYieldMs * time.Millisecond
	}
	return d
}

// ExecCommandTool starts a command execution session.
type ExecCommandTool struct {
	manager  *execsession.Manager
	defaults SessionDefaults
}

func NewExecCommandTool(manager *execsession.Manager, defaults SessionDefaults) *ExecCommandTool {
	return &ExecCommandTool{manager: manager, defaults: defaults.withFallbacks()}
}

func (t *ExecCommandTool) Name() string {
	return ToolNameExecCommand
}

func (t *ExecCommandTool) Description() string {
	return "Execute a shell command. Returns output captured within yield_time_ms; " +
		"long-running commands keep running and can be continued with write_stdin."
}

func (t *ExecCommandTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"cmd": map[string]interface{}{
				"type":        "string",
				"description": "Shell command to execute",
			},
			"workdir": map[string]interface{}{
				"type":        "string",
				"description": "Working directory (defaults to the session working directory)",
			},
			"shell": map[string]interface{}{
				"type":        "string",
				"description": "Shell binary to run the command with (default: bash)",
			},
			"login": map[string]interface{}{
				"type":        "boolean",
				"description": "Run the shell as a login shell (default: true)",
			},
			"yield_time_ms": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum time to wait for output before yielding (default: 10000)",
			},
			"max_output_tokens": map[string]interface{}{
				"type":        "integer",
				"description": "Truncate returned output to this many tokens",
			},
			"sandbox_permissions": map[string]interface{}{
				"type":        "string",
				"description": "Set to \"escalated\" to request running outside the assigned sandbox constraints",
			},
			"justification": map[string]interface{}{
				"type":        "string",
				"description": "Why escalated permissions are needed",
			},
		},
		"required": []string{"cmd"},
	}
}

func (t *ExecCommandTool) Execute(ctx context.Context, params map[string]interface{}) *ToolResult {
	cmd := GetStringParam(params, "cmd", "")
	if cmd == "" {
		return &ToolResult{Error: "cmd parameter is required"}
	}

	shell := GetStringParam(params, "shell", defaultShell)
	login := GetBoolParam(params, "login", true)
	shellFlag := "-c"
	if login {
		shellFlag = "-lc"
	}

	req := execsession.Request{
		Command:         []string{shell, shellFlag, cmd},
		Workdir:         GetStringParam(params, "workdir", ""),
		EscalateSandbox: GetStringParam(params, "sandbox_permissions", "") == "escalated",
		Justification:   GetStringParam(params, "justification", ""),
		YieldTime:       time.Duration(GetIntParam(params, "yield_time_ms", int(t.defaults.ExecYield/time.Millisecond))) * time.Millisecond,
		MaxOutputTokens: GetIntParam(params, "max_output_tokens", t.defaults.MaxOutputTokens),
	}

	result, err := t.manager.ExecCommand(req)
	if err != nil {
		return execErrorResult(err)
	}
	return &ToolResult{Result: result.Render()}
}

// execErrorResult maps manager errors onto the tool result shape: approval
// deferrals ask for user input, policy rejections and everything else
// surface as plain errors.
func execErrorResult(err error) *ToolResult {
	if errors.Is(err, execsession.ErrApprovalRequired) {
		return &ToolResult{
			Error:             err.Error(),
			RequiresUserInput: true,
		}
	}
	var rejection *execsession.PolicyRejectionError
	if errors.As(err, &rejection) {
		return &ToolResult{Error: rejection.Reason}
	}
	return &ToolResult{Error: err.Error()}
}
