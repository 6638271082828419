// Package safety decides whether a requested command or patch may run, and
// under what isolation. Verdicts are closed sum types so callers must handle
// every outcome; the engine itself never performs I/O and never raises.
package safety

import "fmt"

// ApprovalPolicy controls when a human must be asked before running a
// command.
type ApprovalPolicy int

const (
	// ApprovalNever means never ask; untrusted commands without a sandbox
	// are rejected outright.
	ApprovalNever ApprovalPolicy = iota
	// ApprovalOnFailure asks only when sandboxed execution is not possible.
	ApprovalOnFailure
	// ApprovalOnRequest lets the model request escalation explicitly.
	ApprovalOnRequest
	// ApprovalUnlessTrusted asks for everything not on the trusted list.
	ApprovalUnlessTrusted
)

func (p ApprovalPolicy) String() string {
	switch p {
	case ApprovalNever:
		return "never"
	case ApprovalOnFailure:
		return "on-failure"
	case ApprovalOnRequest:
		return "on-request"
	case ApprovalUnlessTrusted:
		return "untrusted"
	default:
		return "unknown"
	}
}

// ParseApprovalPolicy converts the configuration string form.
func ParseApprovalPolicy(s string) (ApprovalPolicy, error) {
	switch s {
	case "never":
		return ApprovalNever, nil
	case "on-failure":
		return ApprovalOnFailure, nil
	case "on-request":
		return ApprovalOnRequest, nil
	case "untrusted", "unless-trusted":
		return ApprovalUnlessTrusted, nil
	default:
		return 0, fmt.Errorf("unknown approval policy %q", s)
	}
}

// SandboxMode is the filesystem scope a sandboxed command is allowed.
type SandboxMode int

const (
	// ModeReadOnly allows no filesystem writes at all.
	ModeReadOnly SandboxMode = iota
	// ModeWorkspaceWrite allows writes under the workspace and configured
	// extra roots.
	ModeWorkspaceWrite
	// ModeDangerFullAccess disables filesystem confinement entirely.
	ModeDangerFullAccess
)

func (m SandboxMode) String() string {
	switch m {
	case ModeReadOnly:
		return "read-only"
	case ModeWorkspaceWrite:
		return "workspace-write"
	case ModeDangerFullAccess:
		return "danger-full-access"
	default:
		return "unknown"
	}
}

// ParseSandboxMode converts the configuration string form.
func ParseSandboxMode(s string) (SandboxMode, error) {
	switch s {
	case "read-only":
		return ModeReadOnly, nil
	case "workspace-write":
		return ModeWorkspaceWrite, nil
	case "danger-full-access":
		return ModeDangerFullAccess, nil
	default:
		return 0, fmt.Errorf("unknown sandbox mode %q", s)
	}
}

// SandboxPolicy is the active sandbox mode plus the workspace-write
// parameters. The extra fields only matter when Mode is ModeWorkspaceWrite.
type SandboxPolicy struct {
	Mode                SandboxMode
	WritableRoots       []string
	NetworkAccess       bool
	ExcludeTmpdirEnvVar bool
	ExcludeSlashTmp     bool
}

// ReadOnlyPolicy returns a policy that permits no writes.
func ReadOnlyPolicy() SandboxPolicy {
	return SandboxPolicy{Mode: ModeReadOnly}
}

// WorkspaceWritePolicy returns a policy allowing writes under the workspace
// and the given extra roots.
func WorkspaceWritePolicy(roots ...string) SandboxPolicy {
	return SandboxPolicy{Mode: ModeWorkspaceWrite, WritableRoots: roots}
}

// FullAccessPolicy returns the unconfined policy.
func FullAccessPolicy() SandboxPolicy {
	return SandboxPolicy{Mode: ModeDangerFullAccess}
}
