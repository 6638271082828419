package patch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// Apply writes the patch to the filesystem. Relative paths resolve against
// cwd. Callers are expected to have passed the patch through the safety
// engine first; Apply performs no containment checks of its own.
func (p *Patch) Apply(cwd string) error {
	for _, f := range p.files {
		target := resolvePath(cwd, f.path)
		switch f.kind {
		case Add:
			content := applyHunks("", f.diff.Hunks)
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("create parent of %s: %w", f.path, err)
			}
			if err := os.WriteFile(target, []byte(content), 0644); err != nil {
				return fmt.Errorf("add %s: %w", f.path, err)
			}
		case Delete:
			if err := os.Remove(target); err != nil {
				return fmt.Errorf("delete %s: %w", f.path, err)
			}
		case Update:
			data, err := os.ReadFile(target)
			if err != nil {
				return fmt.Errorf("update %s: %w", f.path, err)
			}
			content := applyHunks(string(data), f.diff.Hunks)
			dest := target
			if f.moveTo != "" {
				dest = resolvePath(cwd, f.moveTo)
				if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
					return fmt.Errorf("create parent of %s: %w", f.moveTo, err)
				}
			}
			if err := os.WriteFile(dest, []byte(content), 0644); err != nil {
				return fmt.Errorf("update %s: %w", f.path, err)
			}
			if dest != target {
				if err := os.Remove(target); err != nil {
					return fmt.Errorf("remove moved file %s: %w", f.path, err)
				}
			}
		}
	}
	return nil
}

func resolvePath(cwd, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cwd, path)
}

// applyHunks replays unified-diff hunks against original content. Context
// lines are taken from the original so hunks with slightly stale line
// numbers still land.
func applyHunks(original string, hunks []*diff.Hunk) string {
	originalLines := strings.Split(original, "\n")
	if original == "" {
		originalLines = nil
	}

	result := make([]string, 0, len(originalLines))
	currentOrigLine := 0

	for _, hunk := range hunks {
		hunkStartLine := int(hunk.OrigStartLine) - 1
		for currentOrigLine < hunkStartLine && currentOrigLine < len(originalLines) {
			result = append(result, originalLines[currentOrigLine])
			currentOrigLine++
		}

		for _, line := range strings.Split(string(hunk.Body), "\n") {
			if len(line) == 0 {
				continue
			}
			switch line[0] {
			case ' ':
				if currentOrigLine < len(originalLines) {
					result = append(result, originalLines[currentOrigLine])
					currentOrigLine++
				}
			case '-':
				if currentOrigLine < len(originalLines) {
					currentOrigLine++
				}
			case '+':
				result = append(result, line[1:])
			}
		}
	}

	for currentOrigLine < len(originalLines) {
		result = append(result, originalLines[currentOrigLine])
		currentOrigLine++
	}

	// For updates the trailing newline survives as the empty element split
	// off the original; an added file has no original, so restore it from
	// the hunk body.
	if original == "" && len(result) > 0 && len(hunks) > 0 {
		body := hunks[len(hunks)-1].Body
		if len(body) > 0 && body[len(body)-1] == '\n' {
			result = append(result, "")
		}
	}

	return strings.Join(result, "\n")
}
