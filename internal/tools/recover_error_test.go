package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecoverTool(t *testing.T) *RecoverErrorTool {
	t.Helper()
	return NewRecoverErrorTool(t.TempDir(), 3, 500*time.Millisecond)
}

func TestRecoverErrorToolRequiresMessage(t *testing.T) {
	t.Parallel()

	result := newRecoverTool(t).Execute(context.Background(), map[string]interface{}{})
	assert.Contains(t, result.Error, "message parameter is required")
}

func TestRecoverErrorToolIsDirectory(t *testing.T) {
	t.Parallel()

	result := newRecoverTool(t).Execute(context.Background(), map[string]interface{}{
		"message": "read failed: is a directory",
		"path":    "/some/dir",
	})
	require.Empty(t, result.Error)
	assert.Contains(t, result.Result, `"/some/dir/*"`)
}

func TestRecoverErrorToolFileNotFound(t *testing.T) {
	t.Parallel()

	result := newRecoverTool(t).Execute(context.Background(), map[string]interface{}{
		"message": "No such file or directory (os error 2)",
		"path":    "/a/b/file.txt",
	})
	require.Empty(t, result.Error)
	assert.Contains(t, result.Result, `"file"`)
	assert.Contains(t, result.Result, `"/a/b"`)
}

func TestRecoverErrorToolTransientReportsRetrySchedule(t *testing.T) {
	t.Parallel()

	result := newRecoverTool(t).Execute(context.Background(), map[string]interface{}{
		"message": "connection reset by peer",
	})
	require.Empty(t, result.Error)
	assert.Contains(t, result.Result, "retry up to 3 times")
	assert.Contains(t, result.Result, "500ms")
}

func TestRecoverErrorToolInvalidPathNormalizes(t *testing.T) {
	t.Parallel()

	cwd := t.TempDir()
	target := filepath.Join(cwd, "notes.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))

	tool := NewRecoverErrorTool(cwd, 3, 500*time.Millisecond)
	result := tool.Execute(context.Background(), map[string]interface{}{
		"message": "invalid path: " + cwd + "//notes.txt",
	})
	require.Empty(t, result.Error)
	assert.Contains(t, result.Result, target)
}

func TestRecoverErrorToolUnclassified(t *testing.T) {
	t.Parallel()

	result := newRecoverTool(t).Execute(context.Background(), map[string]interface{}{
		"message": "segmentation fault",
	})
	require.Empty(t, result.Error)
	assert.Contains(t, result.Result, "Not auto-recoverable")
}
