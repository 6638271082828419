//go:build !linux && !darwin

package sandbox

func detectKind() Kind {
	return KindNone
}
