//go:build !cgo

package shellparse

import (
	"fmt"
	"strings"
)

// Split without CGo falls back to a conservative tokenizer. Scripts with
// quoting, expansions, or redirects are rejected and therefore treated as
// untrusted, which errs on the safe side.
func Split(script string) ([][]string, error) {
	if strings.ContainsAny(script, "\"'`$<>(){}#\\") {
		return nil, fmt.Errorf("script is not plain bash")
	}

	var commands [][]string
	for _, segment := range splitSegments(script) {
		// Lone & (background jobs) survives the separator rewrite.
		if strings.Contains(segment, "&") {
			return nil, fmt.Errorf("script is not plain bash")
		}
		fields := strings.Fields(segment)
		if len(fields) == 0 {
			return nil, fmt.Errorf("empty command")
		}
		commands = append(commands, fields)
	}
	if len(commands) == 0 {
		return nil, fmt.Errorf("script contains no commands")
	}
	return commands, nil
}

func splitSegments(script string) []string {
	normalized := strings.NewReplacer("&&", "\n", "||", "\n", ";", "\n", "|", "\n").Replace(script)
	var segments []string
	for _, line := range strings.Split(normalized, "\n") {
		if strings.TrimSpace(line) != "" {
			segments = append(segments, line)
		}
	}
	return segments
}
