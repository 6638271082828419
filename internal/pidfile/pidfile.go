// Package pidfile guards against running two execguard instances over the
// same state directory. Concurrent instances would race on session id
// allocation and the audit database.
package pidfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// ErrAlreadyRunning is returned by Acquire when a live process holds the
// pid file.
var ErrAlreadyRunning = fmt.Errorf("another instance is already running")

// Acquire writes the current pid to path and returns a release function.
// A pid file left behind by a dead process is treated as stale and
// overwritten.
func Acquire(path string) (func(), error) {
	if pid, ok := readPid(path); ok && pid != os.Getpid() && processAlive(pid) {
		return nil, fmt.Errorf("%w (pid %d, %s)", ErrAlreadyRunning, pid, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create pidfile directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		return nil, fmt.Errorf("failed to write pidfile: %w", err)
	}

	release := func() {
		// Only remove the file if it still belongs to us.
		if pid, ok := readPid(path); ok && pid == os.Getpid() {
			os.Remove(path)
		}
	}
	return release, nil
}

func readPid(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// processAlive probes the pid with signal 0. On unix FindProcess always
// succeeds, so the signal probe is what actually checks liveness.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil
}
