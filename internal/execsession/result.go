package execsession

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Result is what a caller gets back from ExecCommand or WriteStdin.
// ExitCode is nil while the process is still running; SessionID is set only
// in that case.
type Result struct {
	ChunkID            string
	WallTime           time.Duration
	ExitCode           *int
	SessionID          *int
	OriginalTokenCount *int
	Output             string
	ErrorMessage       string
}

// Render formats the result as the response text callers relay to the
// model. Line order is fixed; absent fields are omitted.
func (r *Result) Render() string {
	var b strings.Builder
	if r.ChunkID != "" {
		fmt.Fprintf(&b, "Chunk ID: %s\n", r.ChunkID)
	}
	fmt.Fprintf(&b, "Wall time: %.4f seconds\n", r.WallTime.Seconds())
	if r.ExitCode != nil {
		fmt.Fprintf(&b, "Process exited with code %d\n", *r.ExitCode)
	}
	if r.SessionID != nil {
		fmt.Fprintf(&b, "Process running with session ID %d\n", *r.SessionID)
	}
	if r.OriginalTokenCount != nil {
		fmt.Fprintf(&b, "Original token count: %d\n", *r.OriginalTokenCount)
	}
	b.WriteString("Output:\n")
	b.WriteString(r.Output)
	return b.String()
}

// generateChunkID derives a short stable identifier for one output segment.
func generateChunkID(output []byte, at time.Time) string {
	h := xxhash.New()
	_, _ = h.Write(output)
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(at.UnixNano()))
	_, _ = h.Write(ts[:])
	return fmt.Sprintf("%x", h.Sum64())
}

func intPtr(v int) *int {
	return &v
}
