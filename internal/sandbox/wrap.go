package sandbox

import (
	"fmt"
	"strings"
)

// WrapCommand rewrites argv so the command starts inside the given sandbox.
// On macOS the command runs under sandbox-exec with a generated Seatbelt
// profile. On Linux the command is re-launched through helperPath, which is
// expected to apply Landlock restrictions to itself and then exec the real
// command. KindNone returns argv unchanged.
func WrapCommand(kind Kind, argv []string, writableRoots []string, helperPath string, bestEffort bool) []string {
	switch kind {
	case KindSeatbelt:
		wrapped := []string{sandboxExecCommand, "-p", seatbeltProfile(writableRoots), "--"}
		return append(wrapped, argv...)
	case KindLandlock:
		if helperPath == "" {
			return argv
		}
		wrapped := []string{helperPath, "--landlock-helper"}
		if bestEffort {
			wrapped = append(wrapped, "--best-effort")
		}
		for _, root := range writableRoots {
			wrapped = append(wrapped, "--writable="+root)
		}
		wrapped = append(wrapped, "--")
		return append(wrapped, argv...)
	default:
		return argv
	}
}

const sandboxExecCommand = "/usr/bin/sandbox-exec"

// seatbeltProfile builds a deny-writes-by-default Seatbelt policy allowing
// writes only under the given roots.
func seatbeltProfile(writableRoots []string) string {
	var b strings.Builder
	b.WriteString("(version 1)\n")
	b.WriteString("(allow default)\n")
	b.WriteString("(deny file-write*)\n")
	for _, root := range writableRoots {
		fmt.Fprintf(&b, "(allow file-write* (subpath %q))\n", root)
	}
	return b.String()
}
