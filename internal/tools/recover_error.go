package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/codefionn/execguard/internal/recovery"
)

const ToolNameRecoverError = "recover_error"

// RecoverErrorTool classifies a raw tool failure and proposes the next
// action. Transient failures come back with the configured retry schedule
// so the caller can back off without inventing its own.
type RecoverErrorTool struct {
	cwd        string
	maxRetries int
	baseDelay  time.Duration
}

func NewRecoverErrorTool(cwd string, maxRetries int, baseDelay time.Duration) *RecoverErrorTool {
	return &RecoverErrorTool{cwd: cwd, maxRetries: maxRetries, baseDelay: baseDelay}
}

func (t *RecoverErrorTool) Name() string {
	return ToolNameRecoverError
}

func (t *RecoverErrorTool) Description() string {
	return "Classify a failed tool invocation and propose a recovery action " +
		"(glob, grep, corrected path, retry, or advice)."
}

func (t *RecoverErrorTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"message": map[string]interface{}{
				"type":        "string",
				"description": "Raw error message from the failed invocation",
			},
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path the failed invocation targeted, if known",
			},
		},
		"required": []string{"message"},
	}
}

func (t *RecoverErrorTool) Execute(ctx context.Context, params map[string]interface{}) *ToolResult {
	message := GetStringParam(params, "message", "")
	if message == "" {
		return &ToolResult{Error: "message parameter is required"}
	}

	classified := recovery.ParseError(message, GetStringParam(params, "path", ""))
	if classified == nil {
		return &ToolResult{Result: "Not auto-recoverable; surface the error to the user."}
	}

	result := recovery.Recover(classified, t.cwd)
	switch result.Kind {
	case recovery.Retry:
		return &ToolResult{Result: fmt.Sprintf(
			"Transient failure; retry up to %d times with exponential backoff starting at %s.",
			t.maxRetries, t.baseDelay)}
	case recovery.Failed:
		return &ToolResult{Error: result.Reason}
	}
	return &ToolResult{Result: renderAction(result.Action)}
}

func renderAction(action *recovery.Action) string {
	switch action.Kind {
	case recovery.ActionUseGlob:
		return fmt.Sprintf("Target is a directory; list it with glob pattern %q.", action.Pattern)
	case recovery.ActionUseGrep:
		if action.Path != "" {
			return fmt.Sprintf("File not found; search for %q under %q.", action.Pattern, action.Path)
		}
		return fmt.Sprintf("File not found; search for %q.", action.Pattern)
	case recovery.ActionRetryWithPath:
		return fmt.Sprintf("Retry with corrected path %q.", action.Path)
	default:
		return action.Text
	}
}
