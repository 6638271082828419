package safety

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/codefionn/execguard/internal/patch"
)

// NormalizePath resolves "." and ".." components lexically, without touching
// the filesystem, so it works for paths that do not exist yet. ".." at the
// start of a relative path is preserved since there is nothing to pop.
func NormalizePath(path string) string {
	if path == "" {
		return "."
	}
	return filepath.Clean(path)
}

// IsPathWritable reports whether path, made absolute against cwd and
// normalized, falls under any of the writable roots. Roots are normalized
// and absolutized the same way before comparison.
func IsPathWritable(path, cwd string, writableRoots []string) bool {
	abs := NormalizePath(absAgainst(path, cwd))
	for _, root := range writableRoots {
		r := NormalizePath(absAgainst(root, cwd))
		if abs == r || strings.HasPrefix(abs, r+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// WritablePathContainment reports whether every path the patch writes,
// including move destinations, stays inside the sandbox policy's writable
// roots. A contained path can still be a hard link to a file outside the
// roots, which is why an available sandbox is preferred even when this
// returns true.
func WritablePathContainment(action *patch.Action, policy SandboxPolicy, cwd string) bool {
	switch policy.Mode {
	case ModeReadOnly:
		return false
	case ModeDangerFullAccess:
		return true
	}

	roots := EffectiveWritableRoots(policy, cwd)
	for _, p := range action.AffectedPaths() {
		if !IsPathWritable(p, cwd, roots) {
			return false
		}
	}
	return true
}

// EffectiveWritableRoots expands a workspace-write policy into the concrete
// root list: the workspace itself, any configured extra roots, and the temp
// directories unless excluded.
func EffectiveWritableRoots(policy SandboxPolicy, cwd string) []string {
	roots := []string{cwd}
	roots = append(roots, policy.WritableRoots...)
	if !policy.ExcludeTmpdirEnvVar {
		if tmpdir := os.Getenv("TMPDIR"); tmpdir != "" {
			roots = append(roots, tmpdir)
		}
	}
	if !policy.ExcludeSlashTmp {
		roots = append(roots, "/tmp")
	}
	return roots
}

func absAgainst(path, cwd string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cwd, path)
}
