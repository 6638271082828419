// Package recovery turns raw tool failures into recoverable categories and
// proposes corrective actions, with a bounded-retry helper for transient
// errors.
package recovery

import (
	"strings"
)

// ErrorKind is the closed set of recoverable failure categories.
type ErrorKind int

const (
	// KindIsDirectory means a file operation hit a directory.
	KindIsDirectory ErrorKind = iota
	// KindFileNotFound means the target path does not exist.
	KindFileNotFound
	// KindPermissionDenied means access was refused.
	KindPermissionDenied
	// KindInvalidPath means the path itself is malformed.
	KindInvalidPath
	// KindTransient covers timeouts and flaky connections.
	KindTransient
)

// RecoverableError is one classified failure. Path is set for the
// path-shaped kinds; Text carries the raw message for the others.
type RecoverableError struct {
	Kind ErrorKind
	Path string
	Text string
}

// ParseError classifies an error message by case-insensitive substring
// match. contextPath, when known, beats heuristic path extraction. Returns
// nil for messages that match no known category.
func ParseError(message, contextPath string) *RecoverableError {
	lower := strings.ToLower(message)

	pathFor := func() string {
		if contextPath != "" {
			return contextPath
		}
		return extractPath(message)
	}

	switch {
	case strings.Contains(lower, "is a directory") || strings.Contains(lower, "eisdir"):
		return &RecoverableError{Kind: KindIsDirectory, Path: pathFor()}
	case strings.Contains(lower, "no such file") || strings.Contains(lower, "enoent"):
		return &RecoverableError{Kind: KindFileNotFound, Path: pathFor()}
	case strings.Contains(lower, "permission denied") || strings.Contains(lower, "eacces"):
		return &RecoverableError{Kind: KindPermissionDenied, Path: pathFor()}
	case strings.Contains(lower, "invalid path") || strings.Contains(lower, "malformed"):
		// Keep the path portion when one can be found so the planner has
		// something normalizable; fall back to the raw message.
		text := pathFor()
		if text == "" {
			text = message
		}
		return &RecoverableError{Kind: KindInvalidPath, Text: text}
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "connection") || strings.Contains(lower, "temporarily"):
		return &RecoverableError{Kind: KindTransient, Text: message}
	default:
		return nil
	}
}

// extractPath pulls a path out of an error message: a quoted substring
// first, otherwise the first path-looking token after the first colon.
func extractPath(message string) string {
	for _, quote := range []string{`"`, "'", "`"} {
		start := strings.Index(message, quote)
		if start < 0 {
			continue
		}
		rest := message[start+len(quote):]
		end := strings.Index(rest, quote)
		if end > 0 {
			return rest[:end]
		}
	}

	if colon := strings.IndexByte(message, ':'); colon >= 0 {
		for _, token := range strings.Fields(message[colon+1:]) {
			token = strings.Trim(token, ".,;()")
			if strings.ContainsRune(token, '/') || strings.HasPrefix(token, "~") {
				return token
			}
		}
	}
	return ""
}
