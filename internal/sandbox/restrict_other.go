//go:build !linux

package sandbox

import "errors"

// RestrictProcess is a stub on platforms without Landlock. Seatbelt
// confinement on macOS wraps the child command line instead of restricting
// the current process, so there is nothing to do here.
func RestrictProcess(writableRoots []string, bestEffort bool) error {
	return errors.New("process restriction is only supported on linux")
}
