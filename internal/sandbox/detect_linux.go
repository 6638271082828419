//go:build linux

package sandbox

import (
	"golang.org/x/sys/unix"

	"github.com/codefionn/execguard/internal/logger"
)

// detectKind probes the kernel for Landlock support. x/sys has no wrapper
// for landlock_create_ruleset, so the probe is a raw syscall: a null
// attribute with LANDLOCK_CREATE_RULESET_VERSION asks the kernel for the
// highest supported ABI without creating anything.
func detectKind() Kind {
	abi, _, errno := unix.Syscall(unix.SYS_LANDLOCK_CREATE_RULESET, 0, 0, unix.LANDLOCK_CREATE_RULESET_VERSION)
	if errno != 0 {
		logger.Debug("sandbox: landlock unavailable: %v", errno)
		return KindNone
	}
	if abi < 1 {
		return KindNone
	}
	logger.Debug("sandbox: landlock ABI v%d detected", abi)
	return KindLandlock
}
