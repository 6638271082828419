package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.WorkingDir)
	assert.Equal(t, "on-request", cfg.ApprovalPolicy)
	assert.Equal(t, "workspace-write", cfg.Sandbox.Mode)
	assert.Equal(t, 32, cfg.Sessions.MaxSessions)
	assert.Equal(t, 8, cfg.Sessions.ProtectedRecent)
	assert.Equal(t, 10_000, cfg.Sessions.DefaultYieldMs)
	assert.Equal(t, 250, cfg.Sessions.StdinYieldMs)
}

func TestLoadOverridesOnlyProvidedFields(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"approval_policy": "never",
		"sandbox": {"mode": "read-only"},
		"sessions": {"max_sessions": 4}
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "never", cfg.ApprovalPolicy)
	assert.Equal(t, "read-only", cfg.Sandbox.Mode)
	assert.Equal(t, 4, cfg.Sessions.MaxSessions)
	// Untouched fields keep defaults.
	assert.Equal(t, 8, cfg.Sessions.ProtectedRecent)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := DefaultConfig()
	cfg.ApprovalPolicy = "untrusted"
	cfg.Sandbox.WritableRoots = []string{"/srv/data"}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "untrusted", loaded.ApprovalPolicy)
	assert.Equal(t, []string{"/srv/data"}, loaded.Sandbox.WritableRoots)
}
