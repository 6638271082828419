// Package execsession owns the table of live command executions: spawning
// under the safety verdict's sandbox, yield-bounded output collection, stdin
// streaming, and session reclaim.
package execsession

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/codefionn/execguard/internal/logger"
)

// quietEnvOverrides keeps spawned commands from producing interactive or
// colored output that would pollute captured text.
var quietEnvOverrides = [][2]string{
	{"NO_COLOR", "1"},
	{"TERM", "dumb"},
	{"LANG", "C.UTF-8"},
	{"LC_CTYPE", "C.UTF-8"},
	{"LC_ALL", "C.UTF-8"},
	{"COLORTERM", ""},
	{"PAGER", "cat"},
	{"GIT_PAGER", "cat"},
}

func quietEnv() []string {
	env := os.Environ()
	for _, override := range quietEnvOverrides {
		env = append(env, override[0]+"="+override[1])
	}
	return env
}

// outputBuffer accumulates stream chunks from the reader goroutines and
// wakes up at most one waiting collector.
type outputBuffer struct {
	mu     sync.Mutex
	chunks [][]byte
	notify chan struct{}
}

func newOutputBuffer() *outputBuffer {
	return &outputBuffer{notify: make(chan struct{}, 1)}
}

func (b *outputBuffer) append(chunk []byte) {
	b.mu.Lock()
	b.chunks = append(b.chunks, chunk)
	b.mu.Unlock()
	b.wake()
}

func (b *outputBuffer) drain() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	chunks := b.chunks
	b.chunks = nil
	return chunks
}

func (b *outputBuffer) wake() {
	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// Session is one live command execution. Stdin writes are serialized
// through a single writer goroutine since the underlying pipe is not safely
// shareable.
type Session struct {
	cmd    *exec.Cmd
	buf    *outputBuffer
	writer chan []byte

	exited chan struct{}

	mu       sync.Mutex
	exitCode *int

	readers sync.WaitGroup
}

var errSessionClosed = errors.New("session has exited")

// startSession spawns argv with the quiet environment and begins capturing
// stdout and stderr asynchronously.
func startSession(argv []string, cwd string) (*Session, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("missing command line")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = cwd
	cmd.Env = quietEnv()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start command: %w", err)
	}

	s := &Session{
		cmd:    cmd,
		buf:    newOutputBuffer(),
		writer: make(chan []byte, 16),
		exited: make(chan struct{}),
	}

	s.startStreamReader(stdout)
	s.startStreamReader(stderr)
	go s.runWriter(stdin)
	go s.watchExit()

	return s, nil
}

func (s *Session) startStreamReader(reader io.Reader) {
	s.readers.Add(1)
	go func() {
		defer s.readers.Done()
		buf := make([]byte, 4096)
		for {
			n, err := reader.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				s.buf.append(chunk)
			}
			if err != nil {
				if err != io.EOF && !errors.Is(err, io.ErrClosedPipe) && !errors.Is(err, os.ErrClosed) {
					logger.Debug("execsession: stream read error: %v", err)
				}
				break
			}
		}
	}()
}

func (s *Session) runWriter(stdin io.WriteCloser) {
	defer stdin.Close()
	for {
		select {
		case data := <-s.writer:
			if _, err := stdin.Write(data); err != nil {
				logger.Debug("execsession: stdin write error: %v", err)
				return
			}
		case <-s.exited:
			return
		}
	}
}

func (s *Session) watchExit() {
	err := s.cmd.Wait()
	s.readers.Wait()

	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			code = -1
			logger.Debug("execsession: command wait error: %v", err)
		}
	}

	s.mu.Lock()
	s.exitCode = &code
	s.mu.Unlock()
	close(s.exited)
	// Wake any collector still waiting on output.
	s.buf.wake()
}

// WriteInput queues data for the process's stdin.
func (s *Session) WriteInput(data []byte) error {
	select {
	case <-s.exited:
		return errSessionClosed
	case s.writer <- data:
		return nil
	}
}

// ExitCode returns the process's exit code, or nil while it is running.
func (s *Session) ExitCode() *int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitCode
}

// HasExited reports whether the process has terminated.
func (s *Session) HasExited() bool {
	select {
	case <-s.exited:
		return true
	default:
		return false
	}
}

// Terminate kills the underlying process. Safe to call more than once.
func (s *Session) Terminate() {
	if s.HasExited() {
		return
	}
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
}

// postExitGrace is how long collection keeps draining after the process
// exits, so trailing pipe output is not dropped.
const postExitGrace = 50 * time.Millisecond

// collectOutput gathers output until deadline. Yielding at the deadline is
// not cancellation: the process keeps running and later collections resume
// where this one stopped.
func (s *Session) collectOutput(deadline time.Time) []byte {
	var collected []byte
	for {
		chunks := s.buf.drain()
		if len(chunks) == 0 {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				break
			}
			if s.HasExited() {
				grace := remaining
				if grace > postExitGrace {
					grace = postExitGrace
				}
				timer := time.NewTimer(grace)
				select {
				case <-s.buf.notify:
					timer.Stop()
					continue
				case <-timer.C:
				}
				break
			}
			timer := time.NewTimer(remaining)
			select {
			case <-s.buf.notify:
				timer.Stop()
				continue
			case <-timer.C:
			}
			break
		}

		for _, chunk := range chunks {
			collected = append(collected, chunk...)
		}
		if !time.Now().Before(deadline) {
			break
		}
	}
	return collected
}
