package safety

import (
	"github.com/codefionn/execguard/internal/logger"
	"github.com/codefionn/execguard/internal/patch"
	"github.com/codefionn/execguard/internal/sandbox"
)

// TrustPredicate answers whether a command is on the known-safe list. The
// matching rules live with the caller; the engine only consumes the answer.
type TrustPredicate func(command []string) bool

// ApprovedSet holds the commands the user already approved this session.
type ApprovedSet interface {
	Contains(command []string) bool
}

// Engine evaluates commands and patches against the active policies. It is
// stateless apart from the injected collaborators and safe for concurrent
// use.
type Engine struct {
	trusted  TrustPredicate
	platform sandbox.Kind
}

// NewEngine builds an engine. A nil trusted predicate means nothing is
// pre-trusted.
func NewEngine(trusted TrustPredicate, platform sandbox.Kind) *Engine {
	if trusted == nil {
		trusted = func([]string) bool { return false }
	}
	return &Engine{trusted: trusted, platform: platform}
}

// PlatformSandbox returns the sandbox kind the engine was built with.
func (e *Engine) PlatformSandbox() sandbox.Kind {
	return e.platform
}

// AssessCommand produces the verdict for one shell command. Commands on the
// trusted list or already approved by the user run unsandboxed without
// further checks; everything else goes through the policy matrix.
func (e *Engine) AssessCommand(command []string, approval ApprovalPolicy, policy SandboxPolicy, approved ApprovedSet, escalationRequested bool) Verdict {
	if e.trusted(command) || (approved != nil && approved.Contains(command)) {
		return AutoApprove(sandbox.KindNone)
	}
	verdict := e.assessUntrusted(approval, policy, escalationRequested)
	if verdict.Decision == DecisionReject {
		logger.Debug("safety: rejected command %v: %s", command, verdict.Reason)
	}
	return verdict
}

func (e *Engine) assessUntrusted(approval ApprovalPolicy, policy SandboxPolicy, escalationRequested bool) Verdict {
	if approval == ApprovalUnlessTrusted {
		return AskUser()
	}
	if policy.Mode == ModeDangerFullAccess {
		// The user opted out of confinement entirely.
		return AutoApprove(sandbox.KindNone)
	}

	sandboxed := e.platform != sandbox.KindNone
	switch approval {
	case ApprovalOnRequest:
		if escalationRequested {
			return AskUser()
		}
		if sandboxed {
			return AutoApprove(e.platform)
		}
		return AskUser()
	case ApprovalOnFailure:
		if sandboxed {
			return AutoApprove(e.platform)
		}
		return AskUser()
	default: // ApprovalNever
		if sandboxed {
			return AutoApprove(e.platform)
		}
		return Reject("auto-rejected because command is not on trusted list")
	}
}

// AssessPatch produces the verdict for a file patch. Containment of every
// written path inside the writable roots is what allows auto-approval; a
// sandbox is still preferred when available because lexical containment
// cannot see through hard links.
func (e *Engine) AssessPatch(action *patch.Action, approval ApprovalPolicy, policy SandboxPolicy, cwd string) Verdict {
	if action.IsEmpty() {
		return Reject("empty patch")
	}
	if approval == ApprovalUnlessTrusted {
		return AskUser()
	}

	constrained := WritablePathContainment(action, policy, cwd)
	if constrained || approval == ApprovalOnFailure {
		if e.platform != sandbox.KindNone {
			return AutoApprove(e.platform)
		}
		if policy.Mode == ModeDangerFullAccess {
			return AutoApprove(sandbox.KindNone)
		}
		return AskUser()
	}
	if approval == ApprovalNever {
		return Reject("writing outside of the project; rejected by user approval settings")
	}
	return AskUser()
}
