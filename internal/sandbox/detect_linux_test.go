//go:build linux

package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectKindProbesKernel(t *testing.T) {
	t.Parallel()

	// Whether Landlock is available depends on the kernel; the probe must
	// answer one of the two linux outcomes without failing.
	kind := detectKind()
	assert.Contains(t, []Kind{KindNone, KindLandlock}, kind)
	assert.Equal(t, kind, Detect())
}
