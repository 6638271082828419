package safety

import "github.com/codefionn/execguard/internal/sandbox"

// Decision distinguishes the three verdict shapes.
type Decision int

const (
	// DecisionAutoApprove runs the command, inside Verdict.Sandbox.
	DecisionAutoApprove Decision = iota
	// DecisionAskUser defers to an interactive approval prompt.
	DecisionAskUser
	// DecisionReject refuses the request with Verdict.Reason.
	DecisionReject
)

// Verdict is the engine's answer for one command or patch. Exactly one of
// the three decisions applies; Sandbox is meaningful only for AutoApprove
// and Reason only for Reject.
type Verdict struct {
	Decision Decision
	Sandbox  sandbox.Kind
	Reason   string
}

// AutoApprove builds an approval verdict bound to the given sandbox kind.
func AutoApprove(kind sandbox.Kind) Verdict {
	return Verdict{Decision: DecisionAutoApprove, Sandbox: kind}
}

// AskUser builds a verdict deferring to the user.
func AskUser() Verdict {
	return Verdict{Decision: DecisionAskUser}
}

// Reject builds a rejection with a human-readable reason.
func Reject(reason string) Verdict {
	return Verdict{Decision: DecisionReject, Reason: reason}
}
