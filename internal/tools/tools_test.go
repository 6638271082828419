package tools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codefionn/execguard/internal/execsession"
	"github.com/codefionn/execguard/internal/safety"
	"github.com/codefionn/execguard/internal/sandbox"
	"github.com/codefionn/execguard/internal/trust"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	engine := safety.NewEngine(func([]string) bool { return true }, sandbox.KindNone)
	manager := execsession.NewManager(execsession.Options{
		Engine:           engine,
		ApprovalPolicy:   safety.ApprovalOnRequest,
		SandboxPolicy:    safety.WorkspaceWritePolicy(),
		Cwd:              t.TempDir(),
		DeterministicIDs: true,
	})
	t.Cleanup(manager.TerminateAll)
	return NewRegistry(NewExecCommandTool(manager, SessionDefaults{}), NewWriteStdinTool(manager, SessionDefaults{}))
}

func TestRegistryNames(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t)
	assert.Equal(t, []string{ToolNameExecCommand, ToolNameWriteStdin}, registry.Names())
}

func TestRegistryUnknownTool(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t)
	result := registry.Execute(context.Background(), "launch_missiles", nil)
	assert.Contains(t, result.Error, "unknown tool")
}

func TestExecCommandToolRendersOutput(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t)
	result := registry.Execute(context.Background(), ToolNameExecCommand, map[string]interface{}{
		"cmd": "echo tool-test",
	})
	require.Empty(t, result.Error)

	text, ok := result.Result.(string)
	require.True(t, ok)
	assert.Contains(t, text, "Process exited with code 0")
	assert.Contains(t, text, "Output:")
	assert.Contains(t, text, "tool-test")
	assert.True(t, strings.HasPrefix(text, "Chunk ID: "))
}

func TestExecCommandToolRequiresCmd(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t)
	result := registry.Execute(context.Background(), ToolNameExecCommand, map[string]interface{}{})
	assert.Equal(t, "cmd parameter is required", result.Error)
}

func TestExecCommandToolYieldAndStdin(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t)
	// Non-login shell keeps profile startup noise out of the captured
	// output and off the clock.
	result := registry.Execute(context.Background(), ToolNameExecCommand, map[string]interface{}{
		"cmd":           "cat",
		"login":         false,
		"yield_time_ms": float64(100),
	})
	require.Empty(t, result.Error)

	text := result.Result.(string)
	require.Contains(t, text, "Process running with session ID ")

	idLine := ""
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "Process running with session ID ") {
			idLine = strings.TrimPrefix(line, "Process running with session ID ")
		}
	}
	require.NotEmpty(t, idLine)

	reply := registry.Execute(context.Background(), ToolNameWriteStdin, map[string]interface{}{
		"session_id":    float64(mustAtoi(t, idLine)),
		"chars":         "ping\n",
		"yield_time_ms": float64(1000),
	})
	require.Empty(t, reply.Error)
	assert.Contains(t, reply.Result.(string), "ping")
}

func TestWriteStdinToolUnknownSession(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t)
	result := registry.Execute(context.Background(), ToolNameWriteStdin, map[string]interface{}{
		"session_id": float64(54321),
	})
	assert.Contains(t, result.Error, "unknown session id")
}

func TestExecCommandToolApprovalRequired(t *testing.T) {
	t.Parallel()

	engine := safety.NewEngine(nil, sandbox.KindNone)
	manager := execsession.NewManager(execsession.Options{
		Engine:           engine,
		ApprovalPolicy:   safety.ApprovalUnlessTrusted,
		SandboxPolicy:    safety.WorkspaceWritePolicy(),
		Cwd:              t.TempDir(),
		DeterministicIDs: true,
	})
	registry := NewRegistry(NewExecCommandTool(manager, SessionDefaults{}), NewWriteStdinTool(manager, SessionDefaults{}))

	result := registry.Execute(context.Background(), ToolNameExecCommand, map[string]interface{}{
		"cmd": "make all",
	})
	assert.True(t, result.RequiresUserInput)
	assert.NotEmpty(t, result.Error)
}

func TestExecCommandToolTrustedCommandAutoApproves(t *testing.T) {
	t.Parallel()

	rules, err := trust.ParseRules([]byte("rules:\n  - prefix: [\"ls\"]\n"))
	require.NoError(t, err)
	store := trust.NewStore(rules)

	engine := safety.NewEngine(store.Predicate(), sandbox.KindNone)
	manager := execsession.NewManager(execsession.Options{
		Engine:           engine,
		ApprovalPolicy:   safety.ApprovalNever,
		SandboxPolicy:    safety.ReadOnlyPolicy(),
		Cwd:              t.TempDir(),
		DeterministicIDs: true,
	})
	t.Cleanup(manager.TerminateAll)
	tool := NewExecCommandTool(manager, SessionDefaults{})

	// Untrusted commands are rejected outright under this policy pair.
	denied := tool.Execute(context.Background(), map[string]interface{}{
		"cmd":   "touch forbidden",
		"login": false,
	})
	assert.Contains(t, denied.Error, "auto-rejected because command is not on trusted list")

	// The rule-trusted command runs even though the tool wraps it in a
	// shell invocation.
	result := tool.Execute(context.Background(), map[string]interface{}{
		"cmd":   "ls -la",
		"login": false,
	})
	require.Empty(t, result.Error)
	assert.Contains(t, result.Result.(string), "Process exited with code 0")
}

func TestSessionDefaultsApplied(t *testing.T) {
	t.Parallel()

	engine := safety.NewEngine(func([]string) bool { return true }, sandbox.KindNone)
	manager := execsession.NewManager(execsession.Options{
		Engine:           engine,
		ApprovalPolicy:   safety.ApprovalOnRequest,
		SandboxPolicy:    safety.WorkspaceWritePolicy(),
		Cwd:              t.TempDir(),
		DeterministicIDs: true,
	})
	t.Cleanup(manager.TerminateAll)

	tool := NewExecCommandTool(manager, SessionDefaults{
		ExecYield:       100 * time.Millisecond,
		MaxOutputTokens: 4,
	})

	// The configured yield applies when the invocation omits yield_time_ms.
	result := tool.Execute(context.Background(), map[string]interface{}{
		"cmd":   "sleep 5",
		"login": false,
	})
	require.Empty(t, result.Error)
	assert.Contains(t, result.Result.(string), "Process running with session ID ")

	// The configured output cap applies as well.
	capped := tool.Execute(context.Background(), map[string]interface{}{
		"cmd":   "seq 1 200",
		"login": false,
	})
	require.Empty(t, capped.Error)
	assert.Contains(t, capped.Result.(string), "Original token count: ")
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	n := 0
	for _, r := range strings.TrimSpace(s) {
		require.True(t, r >= '0' && r <= '9')
		n = n*10 + int(r-'0')
	}
	return n
}
