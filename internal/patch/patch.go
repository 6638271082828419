// Package patch parses unified diffs into a per-file change plan and applies
// them to the filesystem. The change plan is what the safety engine inspects
// for write containment before anything touches disk.
package patch

// ChangeKind describes what a patch does to a single file.
type ChangeKind int

const (
	// Add creates a file that does not exist yet.
	Add ChangeKind = iota
	// Delete removes an existing file.
	Delete
	// Update modifies an existing file in place, optionally moving it.
	Update
)

func (k ChangeKind) String() string {
	switch k {
	case Add:
		return "add"
	case Delete:
		return "delete"
	case Update:
		return "update"
	default:
		return "unknown"
	}
}

// FileChange is the planned change for one target path.
type FileChange struct {
	Kind ChangeKind
	// MoveTo is the destination path for an Update that renames the file.
	MoveTo string
}

// Action is an ordered mapping of target path to change. Order follows the
// order the files appear in the diff.
type Action struct {
	Paths   []string
	Changes map[string]FileChange
}

// IsEmpty reports whether the action touches no files.
func (a *Action) IsEmpty() bool {
	return a == nil || len(a.Paths) == 0
}

// AffectedPaths returns every path the action writes to, including move
// destinations. Used for containment checks.
func (a *Action) AffectedPaths() []string {
	if a == nil {
		return nil
	}
	paths := make([]string, 0, len(a.Paths))
	for _, p := range a.Paths {
		paths = append(paths, p)
		if mv := a.Changes[p].MoveTo; mv != "" {
			paths = append(paths, mv)
		}
	}
	return paths
}
