// Package sandbox detects which process-isolation mechanism the host
// platform offers and applies best-effort filesystem restrictions where the
// platform supports it (Landlock on Linux 5.13+, Seatbelt on macOS).
// On other platforms commands run without sandboxing and the safety engine
// has to fall back to asking the user.
package sandbox

// Kind identifies a platform sandbox implementation.
type Kind int

const (
	// KindNone means no sandbox is available on this host.
	KindNone Kind = iota
	// KindSeatbelt is the macOS Seatbelt sandbox (sandbox-exec).
	KindSeatbelt
	// KindLandlock is the Linux Landlock LSM.
	KindLandlock
)

// String returns a human-readable identifier for the sandbox kind.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindSeatbelt:
		return "seatbelt"
	case KindLandlock:
		return "landlock"
	default:
		return "unknown"
	}
}

// Detect returns the sandbox kind available on the current platform, or
// KindNone. The result depends only on the host, so callers may cache it
// for the lifetime of the process.
func Detect() Kind {
	return detectKind()
}
