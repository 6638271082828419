package recovery

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ActionKind is the closed set of proposed recovery actions.
type ActionKind int

const (
	// ActionUseGlob retries a directory target with a glob pattern.
	ActionUseGlob ActionKind = iota
	// ActionUseGrep searches for a missing file by name.
	ActionUseGrep
	// ActionRetryWithPath retries with a normalized path.
	ActionRetryWithPath
	// ActionSuggest surfaces advice the caller should relay verbatim.
	ActionSuggest
)

// Action is one concrete recovery proposal.
type Action struct {
	Kind    ActionKind
	Pattern string
	Path    string
	Text    string
}

// ResultKind distinguishes the three planner outcomes.
type ResultKind int

const (
	// Recovered carries a concrete Action.
	Recovered ResultKind = iota
	// Failed means the error is understood but not fixable here.
	Failed
	// Retry tells the caller to run the operation again as-is.
	Retry
)

// Result is the planner's answer for one classified error.
type Result struct {
	Kind   ResultKind
	Action *Action
	Reason string
}

const permissionChecklist = "Permission denied. Verify the path exists, " +
	"check permissions on the parent directory, and consider whether the " +
	"file is owned by another user. Do not escalate privileges blindly."

var duplicateSeparators = regexp.MustCompile(`/{2,}`)

// Recover maps a classified error to a recovery plan. Transient errors
// always resolve to Retry so retry loops never stop early on them.
func Recover(err *RecoverableError, cwd string) Result {
	switch err.Kind {
	case KindIsDirectory:
		pattern := err.Path
		if !strings.Contains(pattern, "*") {
			pattern = strings.TrimSuffix(pattern, "/") + "/*"
		}
		return Result{Kind: Recovered, Action: &Action{Kind: ActionUseGlob, Pattern: pattern}}

	case KindFileNotFound:
		action := &Action{Kind: ActionUseGrep, Pattern: fileStem(err.Path)}
		if parent := filepath.Dir(err.Path); parent != "." {
			action.Path = parent
		}
		return Result{Kind: Recovered, Action: action}

	case KindPermissionDenied:
		return Result{Kind: Recovered, Action: &Action{Kind: ActionSuggest, Text: permissionChecklist}}

	case KindInvalidPath:
		normalized := normalizeInvalidPath(err.Text, cwd)
		if _, statErr := os.Stat(normalized); statErr == nil {
			return Result{Kind: Recovered, Action: &Action{Kind: ActionRetryWithPath, Path: normalized}}
		}
		return Result{Kind: Failed, Reason: "path is invalid and cannot be normalized"}

	default: // KindTransient
		return Result{Kind: Retry}
	}
}

// fileStem returns the base name without extension, or the full base name
// when there is no extension.
func fileStem(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		return strings.TrimSuffix(base, ext)
	}
	return base
}

// normalizeInvalidPath collapses duplicate separators, expands a leading ~,
// and makes the result absolute against cwd.
func normalizeInvalidPath(text, cwd string) string {
	path := strings.TrimSpace(text)
	path = duplicateSeparators.ReplaceAllString(path, "/")

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}
	return filepath.Clean(path)
}
