//go:build darwin

package sandbox

import "os"

const sandboxExecPath = "/usr/bin/sandbox-exec"

// detectKind reports Seatbelt availability. sandbox-exec ships with every
// supported macOS release, but the check keeps behavior sane on stripped
// images.
func detectKind() Kind {
	if _, err := os.Stat(sandboxExecPath); err != nil {
		return KindNone
	}
	return KindSeatbelt
}
