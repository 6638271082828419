// Package trust supplies the known-safe command predicate consumed by the
// safety engine: a YAML rule file of trusted command prefixes with live
// reload, plus the per-session set of commands the user already approved.
package trust

import (
	"strings"
	"sync"
)

// Approved records commands the user approved during the current session.
// It only grows; approvals are never withdrawn mid-session.
type Approved struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func NewApproved() *Approved {
	return &Approved{keys: make(map[string]struct{})}
}

// Add marks a command as approved.
func (a *Approved) Add(command []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keys[commandKey(command)] = struct{}{}
}

// Contains reports whether the exact command was approved earlier.
func (a *Approved) Contains(command []string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.keys[commandKey(command)]
	return ok
}

// commandKey joins argv with NUL so ["a b"] and ["a","b"] stay distinct.
func commandKey(command []string) string {
	return strings.Join(command, "\x00")
}
