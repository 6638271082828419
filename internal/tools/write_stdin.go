package tools

import (
	"context"
	"time"

	"github.com/codefionn/execguard/internal/execsession"
)

// WriteStdinTool feeds input to a live session started by exec_command.
type WriteStdinTool struct {
	manager  *execsession.Manager
	defaults SessionDefaults
}

func NewWriteStdinTool(manager *execsession.Manager, defaults SessionDefaults) *WriteStdinTool {
	return &WriteStdinTool{manager: manager, defaults: defaults.withFallbacks()}
}

func (t *WriteStdinTool) Name() string {
	return ToolNameWriteStdin
}

func (t *WriteStdinTool) Description() string {
	return "Write characters to a running session's stdin and collect the resulting output. " +
		"Use an empty chars value to just poll for new output."
}

func (t *WriteStdinTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"session_id": map[string]interface{}{
				"type":        "integer",
				"description": "Session id returned by exec_command",
			},
			"chars": map[string]interface{}{
				"type":        "string",
				"description": "Characters to write (default: empty, poll only)",
			},
			"yield_time_ms": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum time to wait for output before yielding (default: 250)",
			},
			"max_output_tokens": map[string]interface{}{
				"type":        "integer",
				"description": "Truncate returned output to this many tokens",
			},
		},
		"required": []string{"session_id"},
	}
}

func (t *WriteStdinTool) Execute(ctx context.Context, params map[string]interface{}) *ToolResult {
	sessionID := GetIntParam(params, "session_id", -1)
	if sessionID < 0 {
		return &ToolResult{Error: "session_id parameter is required"}
	}

	req := execsession.StdinRequest{
		SessionID:       sessionID,
		Chars:           GetStringParam(params, "chars", ""),
		YieldTime:       time.Duration(GetIntParam(params, "yield_time_ms", int(t.defaults.StdinYield/time.Millisecond))) * time.Millisecond,
		MaxOutputTokens: GetIntParam(params, "max_output_tokens", t.defaults.MaxOutputTokens),
	}

	result, err := t.manager.WriteStdin(req)
	if err != nil {
		return execErrorResult(err)
	}
	return &ToolResult{Result: result.Render()}
}
