// Package audit persists safety verdicts and execution results to a local
// SQLite database so operators can review what the agent was allowed to run.
package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/codefionn/execguard/internal/redact"
)

// Recorder writes audit rows. Command lines pass through credential
// redaction before they hit disk. Safe for concurrent use; database/sql
// serializes access to the single connection sqlite gives us.
type Recorder struct {
	db       *sql.DB
	dbPath   string
	redactor *redact.Redactor
}

// NewRecorder opens (or creates) the audit database at dbPath.
func NewRecorder(dbPath string) (*Recorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	r := &Recorder{db: db, dbPath: dbPath, redactor: redact.NewRedactor()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return r, nil
}

// Close closes the database connection
func (r *Recorder) Close() error {
	return r.db.Close()
}

func (r *Recorder) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS verdicts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		recorded_at TIMESTAMP NOT NULL,
		command TEXT NOT NULL,
		decision TEXT NOT NULL,
		sandbox TEXT NOT NULL,
		reason TEXT
	);

	CREATE TABLE IF NOT EXISTS executions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		recorded_at TIMESTAMP NOT NULL,
		session_id INTEGER NOT NULL,
		command TEXT NOT NULL,
		exit_code INTEGER,
		wall_time_ms INTEGER NOT NULL,
		timed_out BOOLEAN NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_verdicts_recorded_at ON verdicts(recorded_at);
	CREATE INDEX IF NOT EXISTS idx_executions_session ON executions(session_id);
	`
	_, err := r.db.Exec(schema)
	return err
}

// RecordVerdict stores one safety decision.
func (r *Recorder) RecordVerdict(command []string, decision, sandboxKind, reason string) error {
	line, _ := r.redactor.Apply(strings.Join(command, " "))
	_, err := r.db.Exec(
		`INSERT INTO verdicts (recorded_at, command, decision, sandbox, reason) VALUES (?, ?, ?, ?, ?)`,
		time.Now().UTC(), line, decision, sandboxKind, reason,
	)
	return err
}

// RecordExecution stores the outcome of one finished or yielded run.
// exitCode is nil while the process is still running.
func (r *Recorder) RecordExecution(sessionID int, command []string, exitCode *int, wallTime time.Duration, timedOut bool) error {
	var code sql.NullInt64
	if exitCode != nil {
		code = sql.NullInt64{Int64: int64(*exitCode), Valid: true}
	}
	line, _ := r.redactor.Apply(strings.Join(command, " "))
	_, err := r.db.Exec(
		`INSERT INTO executions (recorded_at, session_id, command, exit_code, wall_time_ms, timed_out) VALUES (?, ?, ?, ?, ?, ?)`,
		time.Now().UTC(), sessionID, line, code, wallTime.Milliseconds(), timedOut,
	)
	return err
}

// VerdictCount returns how many verdicts have been recorded, optionally
// filtered by decision.
func (r *Recorder) VerdictCount(decision string) (int, error) {
	var count int
	var err error
	if decision == "" {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM verdicts`).Scan(&count)
	} else {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM verdicts WHERE decision = ?`, decision).Scan(&count)
	}
	return count, err
}
