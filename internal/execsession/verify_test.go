package execsession

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunVerificationCompletes(t *testing.T) {
	t.Parallel()

	result, err := RunVerification(context.Background(), []string{"echo", "verified"}, t.TempDir(), 5*time.Second)
	require.NoError(t, err)

	assert.Equal(t, 0, result.ExitCode)
	assert.False(t, result.TimedOut)
	assert.Contains(t, result.Output, "verified")
}

func TestRunVerificationKillsOnTimeout(t *testing.T) {
	t.Parallel()

	start := time.Now()
	result, err := RunVerification(context.Background(), []string{"sleep", "30"}, t.TempDir(), 200*time.Millisecond)
	require.NoError(t, err)

	assert.True(t, result.TimedOut)
	// The child was killed instead of being awaited to completion.
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunVerificationNonZeroExit(t *testing.T) {
	t.Parallel()

	result, err := RunVerification(context.Background(), []string{"sh", "-c", "exit 3"}, t.TempDir(), 5*time.Second)
	require.NoError(t, err)

	assert.Equal(t, 3, result.ExitCode)
	assert.False(t, result.TimedOut)
}

func TestRunVerificationSpawnFailure(t *testing.T) {
	t.Parallel()

	_, err := RunVerification(context.Background(), []string{"/no/such/binary"}, t.TempDir(), time.Second)
	assert.Error(t, err)
}
