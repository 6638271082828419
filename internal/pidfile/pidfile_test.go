package pidfile

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAndRelease(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "execguard.pid")

	release, err := Acquire(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))

	release()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestAcquireOverwritesStalePidfile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "execguard.pid")
	// A pid far above the default pid_max is never alive.
	require.NoError(t, os.WriteFile(path, []byte("999999999"), 0644))

	release, err := Acquire(path)
	require.NoError(t, err)
	defer release()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))
}

func TestAcquireIgnoresGarbageContent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "execguard.pid")
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid"), 0644))

	release, err := Acquire(path)
	require.NoError(t, err)
	defer release()
}
