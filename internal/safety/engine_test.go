package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codefionn/execguard/internal/patch"
	"github.com/codefionn/execguard/internal/sandbox"
)

type approvedList [][]string

func (a approvedList) Contains(command []string) bool {
	for _, c := range a {
		if len(c) != len(command) {
			continue
		}
		match := true
		for i := range c {
			if c[i] != command[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func trustLs(command []string) bool {
	return len(command) > 0 && command[0] == "ls"
}

func patchFor(t *testing.T, paths ...string) *patch.Action {
	t.Helper()
	action := &patch.Action{Changes: make(map[string]patch.FileChange)}
	for _, p := range paths {
		action.Paths = append(action.Paths, p)
		action.Changes[p] = patch.FileChange{Kind: patch.Update}
	}
	return action
}

func TestTrustedCommandsSkipTheMatrix(t *testing.T) {
	t.Parallel()

	engine := NewEngine(trustLs, sandbox.KindLandlock)

	// Trust-list hit wins regardless of policy combination.
	for _, approval := range []ApprovalPolicy{ApprovalNever, ApprovalOnFailure, ApprovalOnRequest, ApprovalUnlessTrusted} {
		v := engine.AssessCommand([]string{"ls", "-la"}, approval, ReadOnlyPolicy(), nil, false)
		assert.Equal(t, DecisionAutoApprove, v.Decision, "policy %s", approval)
		assert.Equal(t, sandbox.KindNone, v.Sandbox)
	}

	approved := approvedList{{"cargo", "build"}}
	v := engine.AssessCommand([]string{"cargo", "build"}, ApprovalNever, ReadOnlyPolicy(), approved, false)
	assert.Equal(t, DecisionAutoApprove, v.Decision)
	assert.Equal(t, sandbox.KindNone, v.Sandbox)
}

func TestUnlessTrustedAlwaysAsks(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil, sandbox.KindLandlock)

	for _, policy := range []SandboxPolicy{ReadOnlyPolicy(), WorkspaceWritePolicy(), FullAccessPolicy()} {
		v := engine.AssessCommand([]string{"rm", "-rf", "/"}, ApprovalUnlessTrusted, policy, nil, false)
		assert.Equal(t, DecisionAskUser, v.Decision, "sandbox mode %s", policy.Mode)
	}
}

func TestFullAccessAutoApprovesUnsandboxed(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil, sandbox.KindNone)

	for _, approval := range []ApprovalPolicy{ApprovalNever, ApprovalOnFailure, ApprovalOnRequest} {
		v := engine.AssessCommand([]string{"make"}, approval, FullAccessPolicy(), nil, false)
		assert.Equal(t, DecisionAutoApprove, v.Decision)
		assert.Equal(t, sandbox.KindNone, v.Sandbox)
	}
}

func TestOnRequestEscalation(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil, sandbox.KindLandlock)

	// Escalation request forces a prompt even with a sandbox available.
	v := engine.AssessCommand([]string{"make"}, ApprovalOnRequest, WorkspaceWritePolicy(), nil, true)
	assert.Equal(t, DecisionAskUser, v.Decision)

	v = engine.AssessCommand([]string{"make"}, ApprovalOnRequest, WorkspaceWritePolicy(), nil, false)
	assert.Equal(t, DecisionAutoApprove, v.Decision)
	assert.Equal(t, sandbox.KindLandlock, v.Sandbox)

	noSandbox := NewEngine(nil, sandbox.KindNone)
	v = noSandbox.AssessCommand([]string{"make"}, ApprovalOnRequest, WorkspaceWritePolicy(), nil, false)
	assert.Equal(t, DecisionAskUser, v.Decision)
}

func TestNeverWithoutSandboxRejects(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil, sandbox.KindNone)

	v := engine.AssessCommand([]string{"make"}, ApprovalNever, ReadOnlyPolicy(), nil, false)
	require.Equal(t, DecisionReject, v.Decision)
	assert.Equal(t, "auto-rejected because command is not on trusted list", v.Reason)

	// OnFailure falls back to asking instead of rejecting.
	v = engine.AssessCommand([]string{"make"}, ApprovalOnFailure, ReadOnlyPolicy(), nil, false)
	assert.Equal(t, DecisionAskUser, v.Decision)
}

func TestSandboxedApprovalUsesPlatformKind(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil, sandbox.KindSeatbelt)

	v := engine.AssessCommand([]string{"make"}, ApprovalNever, WorkspaceWritePolicy(), nil, false)
	require.Equal(t, DecisionAutoApprove, v.Decision)
	assert.Equal(t, sandbox.KindSeatbelt, v.Sandbox)
}

func TestAssessCommandIsDeterministic(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil, sandbox.KindLandlock)
	first := engine.AssessCommand([]string{"git", "push"}, ApprovalOnRequest, ReadOnlyPolicy(), nil, false)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, engine.AssessCommand([]string{"git", "push"}, ApprovalOnRequest, ReadOnlyPolicy(), nil, false))
	}
}

func TestEmptyPatchAlwaysRejected(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil, sandbox.KindLandlock)
	empty := &patch.Action{}

	for _, policy := range []SandboxPolicy{ReadOnlyPolicy(), WorkspaceWritePolicy(), FullAccessPolicy()} {
		v := engine.AssessPatch(empty, ApprovalOnRequest, policy, "/work")
		require.Equal(t, DecisionReject, v.Decision)
		assert.Equal(t, "empty patch", v.Reason)
	}
}

func TestPatchUnlessTrustedAsks(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil, sandbox.KindLandlock)
	v := engine.AssessPatch(patchFor(t, "main.go"), ApprovalUnlessTrusted, FullAccessPolicy(), "/work")
	assert.Equal(t, DecisionAskUser, v.Decision)
}

func TestPatchContainedAutoApproves(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil, sandbox.KindLandlock)
	v := engine.AssessPatch(patchFor(t, "src/main.go"), ApprovalOnRequest, WorkspaceWritePolicy(), "/work")
	require.Equal(t, DecisionAutoApprove, v.Decision)
	assert.Equal(t, sandbox.KindLandlock, v.Sandbox)
}

func TestPatchOutsideRootsUnderNeverRejects(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil, sandbox.KindLandlock)
	policy := WorkspaceWritePolicy()
	policy.ExcludeSlashTmp = true
	policy.ExcludeTmpdirEnvVar = true

	v := engine.AssessPatch(patchFor(t, "/etc/passwd"), ApprovalNever, policy, "/work")
	require.Equal(t, DecisionReject, v.Decision)
	assert.Equal(t, "writing outside of the project; rejected by user approval settings", v.Reason)

	// Same patch under on-request asks instead.
	v = engine.AssessPatch(patchFor(t, "/etc/passwd"), ApprovalOnRequest, policy, "/work")
	assert.Equal(t, DecisionAskUser, v.Decision)
}

func TestPatchNoSandboxFullAccessOverride(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil, sandbox.KindNone)

	v := engine.AssessPatch(patchFor(t, "main.go"), ApprovalOnRequest, FullAccessPolicy(), "/work")
	require.Equal(t, DecisionAutoApprove, v.Decision)
	assert.Equal(t, sandbox.KindNone, v.Sandbox)

	// Without the full-access opt-in a missing sandbox means asking.
	v = engine.AssessPatch(patchFor(t, "main.go"), ApprovalOnRequest, WorkspaceWritePolicy(), "/work")
	assert.Equal(t, DecisionAskUser, v.Decision)
}
