package execsession

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/codefionn/execguard/internal/audit"
	"github.com/codefionn/execguard/internal/logger"
	"github.com/codefionn/execguard/internal/patch"
	"github.com/codefionn/execguard/internal/safety"
	"github.com/codefionn/execguard/internal/sandbox"
	"github.com/codefionn/execguard/internal/truncate"
)

const (
	minProcessID      = 1000
	processIDSpan     = 99000
	stdinReactionTime = 100 * time.Millisecond
)

// ErrUnknownSession is returned for stdin writes to ids that are not live.
var ErrUnknownSession = errors.New("unknown session id")

// ErrApprovalRequired means the safety engine deferred to the user; the
// caller must obtain approval and retry.
var ErrApprovalRequired = errors.New("command requires user approval")

// PolicyRejectionError carries the safety engine's reason for refusing a
// command or patch.
type PolicyRejectionError struct {
	Reason string
}

func (e *PolicyRejectionError) Error() string {
	return e.Reason
}

// Options configures a Manager.
type Options struct {
	Engine          *safety.Engine
	ApprovalPolicy  safety.ApprovalPolicy
	SandboxPolicy   safety.SandboxPolicy
	Approved        safety.ApprovedSet
	Cwd             string
	MaxSessions     int
	ProtectedRecent int
	// DeterministicIDs allocates sequential ids instead of random ones.
	DeterministicIDs bool
	// HelperPath re-launches sandboxed commands through this binary on
	// Linux. Usually the running executable.
	HelperPath string
	// SandboxBestEffort degrades Landlock gracefully on older kernels
	// instead of refusing to run.
	SandboxBestEffort bool
	// Audit, when set, records verdicts and execution outcomes.
	Audit *audit.Recorder
}

// Request starts one command execution.
type Request struct {
	Command         []string
	Workdir         string
	EscalateSandbox bool
	Justification   string
	YieldTime       time.Duration
	MaxOutputTokens int
}

// StdinRequest feeds input to a live session.
type StdinRequest struct {
	SessionID       int
	Chars           string
	YieldTime       time.Duration
	MaxOutputTokens int
}

type sessionEntry struct {
	id       int
	session  *Session
	command  []string
	lastUsed time.Time
}

type sessionMeta struct {
	id       int
	lastUsed time.Time
	exited   bool
}

// Manager owns the session table. All operations on the table are
// serialized through its mutex; session execution itself is not globally
// locked.
type Manager struct {
	opts Options

	mu       sync.Mutex
	sessions map[int]*sessionEntry
	reserved map[int]struct{}
}

// NewManager builds a Manager. Engine and Cwd are required.
func NewManager(opts Options) *Manager {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 32
	}
	if opts.ProtectedRecent <= 0 {
		opts.ProtectedRecent = 8
	}
	return &Manager{
		opts:     opts,
		sessions: make(map[int]*sessionEntry),
		reserved: make(map[int]struct{}),
	}
}

// AllocateProcessID reserves a fresh session id. Ids are random in
// production so they are not guessable across turns; deterministic mode
// hands out sequential ids for reproducible tests.
func (m *Manager) AllocateProcessID() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		var id int
		if m.opts.DeterministicIDs {
			id = m.nextSequentialIDLocked()
		} else {
			id = minProcessID + rand.IntN(processIDSpan)
		}
		if _, taken := m.reserved[id]; taken {
			continue
		}
		m.reserved[id] = struct{}{}
		return id
	}
}

func (m *Manager) nextSequentialIDLocked() int {
	next := minProcessID
	for id := range m.reserved {
		if id >= next {
			next = id + 1
		}
	}
	return next
}

// ReleaseProcessID returns an id to the pool and drops any session entry
// still attached to it.
func (m *Manager) ReleaseProcessID(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(id)
}

func (m *Manager) removeLocked(id int) *sessionEntry {
	entry := m.sessions[id]
	delete(m.sessions, id)
	delete(m.reserved, id)
	return entry
}

// ExecCommand evaluates the command against the safety engine and, when
// approved, runs it under the verdict's sandbox. A spawn failure is
// reported as a result with exit code 1, never as a panic.
func (m *Manager) ExecCommand(req Request) (*Result, error) {
	id := m.AllocateProcessID()

	if req.EscalateSandbox && m.opts.ApprovalPolicy != safety.ApprovalOnRequest {
		m.ReleaseProcessID(id)
		return nil, fmt.Errorf("escalated permissions requested but approval policy is %s", m.opts.ApprovalPolicy)
	}

	cwd := m.resolveWorkdir(req.Workdir)

	// apply_patch is intercepted before generic spawning so patch
	// containment checks cannot be bypassed via shell exec.
	if body, ok := patch.FromCommand(req.Command); ok {
		return m.execPatch(id, body, cwd)
	}

	verdict := m.opts.Engine.AssessCommand(req.Command, m.opts.ApprovalPolicy, m.opts.SandboxPolicy, m.opts.Approved, req.EscalateSandbox)
	m.recordVerdict(req.Command, verdict)
	switch verdict.Decision {
	case safety.DecisionReject:
		m.ReleaseProcessID(id)
		return nil, &PolicyRejectionError{Reason: verdict.Reason}
	case safety.DecisionAskUser:
		m.ReleaseProcessID(id)
		return nil, ErrApprovalRequired
	}

	argv := req.Command
	if verdict.Sandbox != sandbox.KindNone {
		roots := safety.EffectiveWritableRoots(m.opts.SandboxPolicy, cwd)
		argv = sandbox.WrapCommand(verdict.Sandbox, argv, roots, m.opts.HelperPath, m.opts.SandboxBestEffort)
	}

	start := time.Now()
	sess, err := startSession(argv, cwd)
	if err != nil {
		m.ReleaseProcessID(id)
		logger.Warn("execsession: spawn failed for %v: %v", req.Command, err)
		return &Result{
			WallTime:     time.Since(start),
			ExitCode:     intPtr(1),
			ErrorMessage: err.Error(),
		}, nil
	}

	collected := sess.collectOutput(start.Add(req.YieldTime))
	wallTime := time.Since(start)

	result := m.buildResult(collected, wallTime, req.MaxOutputTokens)
	exitCode := sess.ExitCode()
	if sess.HasExited() || exitCode != nil {
		m.ReleaseProcessID(id)
		result.ExitCode = exitCode
	} else {
		m.storeSession(id, sess, req.Command, start)
		result.SessionID = intPtr(id)
	}
	m.recordExecution(id, req.Command, result.ExitCode, wallTime)
	return result, nil
}

// WriteStdin sends input to a live session and collects the resulting
// output under the same yield semantics as ExecCommand.
func (m *Manager) WriteStdin(req StdinRequest) (*Result, error) {
	m.mu.Lock()
	entry, ok := m.sessions[req.SessionID]
	if !ok {
		m.mu.Unlock()
		return nil, ErrUnknownSession
	}
	entry.lastUsed = time.Now()
	sess := entry.session
	command := entry.command
	m.mu.Unlock()

	if req.Chars != "" {
		if err := sess.WriteInput([]byte(req.Chars)); err != nil {
			return nil, fmt.Errorf("failed to write to stdin: %w", err)
		}
		// Give the process a brief window to react so the poll below is
		// likely to capture its response.
		time.Sleep(stdinReactionTime)
	}

	start := time.Now()
	collected := sess.collectOutput(start.Add(req.YieldTime))
	wallTime := time.Since(start)

	result := m.buildResult(collected, wallTime, req.MaxOutputTokens)
	if sess.HasExited() {
		m.mu.Lock()
		m.removeLocked(req.SessionID)
		m.mu.Unlock()
		result.ExitCode = sess.ExitCode()
	} else {
		result.SessionID = intPtr(req.SessionID)
	}
	m.recordExecution(req.SessionID, command, result.ExitCode, wallTime)
	return result, nil
}

// CloseSession terminates a live session and releases its id.
func (m *Manager) CloseSession(id int) error {
	m.mu.Lock()
	entry := m.removeLocked(id)
	m.mu.Unlock()
	if entry == nil {
		return ErrUnknownSession
	}
	entry.session.Terminate()
	return nil
}

// TerminateAll kills every live session and clears the table.
func (m *Manager) TerminateAll() {
	m.mu.Lock()
	entries := make([]*sessionEntry, 0, len(m.sessions))
	for _, entry := range m.sessions {
		entries = append(entries, entry)
	}
	m.sessions = make(map[int]*sessionEntry)
	m.reserved = make(map[int]struct{})
	m.mu.Unlock()

	for _, entry := range entries {
		entry.session.Terminate()
	}
}

// LiveSessions returns the number of stored sessions.
func (m *Manager) LiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) execPatch(id int, body, cwd string) (*Result, error) {
	defer m.ReleaseProcessID(id)

	start := time.Now()
	parsed, err := patch.Parse(body)
	if err != nil {
		return &Result{
			WallTime:     time.Since(start),
			ExitCode:     intPtr(1),
			ErrorMessage: err.Error(),
		}, nil
	}

	action := parsed.Action()
	verdict := m.opts.Engine.AssessPatch(action, m.opts.ApprovalPolicy, m.opts.SandboxPolicy, cwd)
	m.recordVerdict([]string{"apply_patch"}, verdict)
	switch verdict.Decision {
	case safety.DecisionReject:
		return nil, &PolicyRejectionError{Reason: verdict.Reason}
	case safety.DecisionAskUser:
		return nil, ErrApprovalRequired
	}

	if err := parsed.Apply(cwd); err != nil {
		return &Result{
			WallTime:     time.Since(start),
			ExitCode:     intPtr(1),
			ErrorMessage: err.Error(),
		}, nil
	}
	return &Result{
		WallTime: time.Since(start),
		ExitCode: intPtr(0),
		Output:   fmt.Sprintf("applied patch to %d file(s)", len(action.Paths)),
	}, nil
}

func (m *Manager) buildResult(collected []byte, wallTime time.Duration, maxTokens int) *Result {
	text := string(collected)
	output, originalTokens, truncated := truncate.ToTokens(text, maxTokens)
	result := &Result{
		ChunkID:  generateChunkID(collected, time.Now()),
		WallTime: wallTime,
		Output:   output,
	}
	if truncated {
		result.OriginalTokenCount = intPtr(originalTokens)
	}
	return result
}

func (m *Manager) resolveWorkdir(workdir string) string {
	if workdir == "" {
		return m.opts.Cwd
	}
	if filepath.IsAbs(workdir) {
		return workdir
	}
	return filepath.Join(m.opts.Cwd, workdir)
}

func (m *Manager) storeSession(id int, sess *Session, command []string, startedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pruneSessionsLocked()
	m.sessions[id] = &sessionEntry{
		id:       id,
		session:  sess,
		command:  command,
		lastUsed: startedAt,
	}
}

func (m *Manager) pruneSessionsLocked() {
	if len(m.sessions) < m.opts.MaxSessions {
		return
	}

	meta := make([]sessionMeta, 0, len(m.sessions))
	for id, entry := range m.sessions {
		meta = append(meta, sessionMeta{id: id, lastUsed: entry.lastUsed, exited: entry.session.HasExited()})
	}

	if id, ok := sessionIDToPrune(meta, m.opts.ProtectedRecent); ok {
		if entry := m.removeLocked(id); entry != nil {
			logger.Info("execsession: pruning session %d to stay under the session limit", id)
			entry.session.Terminate()
		}
	}
}

// sessionIDToPrune picks the reclaim victim: the least recently used
// session outside the protected most-recent set, preferring one that has
// already exited.
func sessionIDToPrune(meta []sessionMeta, protectedRecent int) (int, bool) {
	if len(meta) == 0 {
		return 0, false
	}

	byRecency := make([]sessionMeta, len(meta))
	copy(byRecency, meta)
	sort.Slice(byRecency, func(i, j int) bool {
		return byRecency[i].lastUsed.After(byRecency[j].lastUsed)
	})
	protected := make(map[int]struct{}, protectedRecent)
	for i := 0; i < len(byRecency) && i < protectedRecent; i++ {
		protected[byRecency[i].id] = struct{}{}
	}

	lru := make([]sessionMeta, len(meta))
	copy(lru, meta)
	sort.Slice(lru, func(i, j int) bool {
		return lru[i].lastUsed.Before(lru[j].lastUsed)
	})

	for _, s := range lru {
		if _, ok := protected[s.id]; !ok && s.exited {
			return s.id, true
		}
	}
	for _, s := range lru {
		if _, ok := protected[s.id]; !ok {
			return s.id, true
		}
	}
	return 0, false
}

func (m *Manager) recordVerdict(command []string, verdict safety.Verdict) {
	if m.opts.Audit == nil {
		return
	}
	decision := "auto-approve"
	switch verdict.Decision {
	case safety.DecisionAskUser:
		decision = "ask-user"
	case safety.DecisionReject:
		decision = "reject"
	}
	if err := m.opts.Audit.RecordVerdict(command, decision, verdict.Sandbox.String(), verdict.Reason); err != nil {
		logger.Warn("execsession: failed to record verdict: %v", err)
	}
}

func (m *Manager) recordExecution(id int, command []string, exitCode *int, wallTime time.Duration) {
	if m.opts.Audit == nil {
		return
	}
	if err := m.opts.Audit.RecordExecution(id, command, exitCode, wallTime, false); err != nil {
		logger.Warn("execsession: failed to record execution: %v", err)
	}
}
