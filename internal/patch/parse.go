package patch

import (
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

const devNull = "/dev/null"

// Patch is a parsed multi-file unified diff together with the derived
// change plan.
type Patch struct {
	files []*fileDiff
}

type fileDiff struct {
	path   string
	moveTo string
	kind   ChangeKind
	diff   *diff.FileDiff
}

// Parse parses a unified diff covering one or more files.
func Parse(diffText string) (*Patch, error) {
	trimmed := strings.TrimSpace(diffText)
	if trimmed == "" {
		return &Patch{}, nil
	}

	fileDiffs, err := diff.ParseMultiFileDiff([]byte(diffText))
	if err != nil {
		return nil, fmt.Errorf("failed to parse unified diff: %w", err)
	}

	p := &Patch{}
	for _, fd := range fileDiffs {
		orig := stripDiffPrefix(fd.OrigName)
		updated := stripDiffPrefix(fd.NewName)

		entry := &fileDiff{diff: fd}
		switch {
		case orig == devNull:
			entry.path = updated
			entry.kind = Add
		case updated == devNull:
			entry.path = orig
			entry.kind = Delete
		default:
			entry.path = orig
			entry.kind = Update
			if updated != orig {
				entry.moveTo = updated
			}
		}
		if entry.path == "" || entry.path == devNull {
			return nil, fmt.Errorf("diff entry has no usable target path")
		}
		p.files = append(p.files, entry)
	}
	return p, nil
}

// Action returns the ordered change plan for the patch.
func (p *Patch) Action() *Action {
	action := &Action{Changes: make(map[string]FileChange)}
	for _, f := range p.files {
		if _, seen := action.Changes[f.path]; !seen {
			action.Paths = append(action.Paths, f.path)
		}
		action.Changes[f.path] = FileChange{Kind: f.kind, MoveTo: f.moveTo}
	}
	return action
}

// stripDiffPrefix removes the conventional a/ and b/ prefixes git puts on
// diff header paths. /dev/null is left alone.
func stripDiffPrefix(name string) string {
	if name == devNull {
		return name
	}
	if strings.HasPrefix(name, "a/") || strings.HasPrefix(name, "b/") {
		return name[2:]
	}
	return name
}
