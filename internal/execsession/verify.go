package execsession

import (
	"context"
	"time"

	"github.com/codefionn/execguard/internal/logger"
)

// VerificationResult is the outcome of a run-to-completion command.
type VerificationResult struct {
	Output   string
	ExitCode int
	WallTime time.Duration
	TimedOut bool
}

// RunVerification executes argv to completion with a wall-clock timeout.
// On timeout the child is killed rather than left running; the result still
// carries whatever output was captured, with TimedOut set.
func RunVerification(ctx context.Context, argv []string, cwd string, timeout time.Duration) (*VerificationResult, error) {
	start := time.Now()
	sess, err := startSession(argv, cwd)
	if err != nil {
		return nil, err
	}

	deadline := start.Add(timeout)
	var collected []byte
	timedOut := false

	for !sess.HasExited() {
		if ctx.Err() != nil {
			sess.Terminate()
			<-sess.exited
			return nil, ctx.Err()
		}
		if !time.Now().Before(deadline) {
			timedOut = true
			logger.Warn("execsession: verification command timed out after %s, killing it", timeout)
			sess.Terminate()
			break
		}

		pollUntil := time.Now().Add(100 * time.Millisecond)
		if pollUntil.After(deadline) {
			pollUntil = deadline
		}
		collected = append(collected, sess.collectOutput(pollUntil)...)
	}

	// Drain whatever arrived around process exit.
	<-sess.exited
	collected = append(collected, sess.collectOutput(time.Now().Add(postExitGrace))...)

	exitCode := -1
	if code := sess.ExitCode(); code != nil {
		exitCode = *code
	}

	return &VerificationResult{
		Output:   string(collected),
		ExitCode: exitCode,
		WallTime: time.Since(start),
		TimedOut: timedOut,
	}, nil
}
