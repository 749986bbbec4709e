// Package state provides optional SQLite persistence for execution
// records and metrics snapshots. The orchestrator works without it;
// a nil Store disables persistence entirely.
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stagehand-dev/stagehand/pkg/models"
)

// Store defines the persistence surface the orchestrator and the CLI
// status command depend on. DB is the SQLite implementation.
type Store interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
	// SaveExecution inserts or replaces one execution record.
	SaveExecution(ctx context.Context, exec models.Execution) error
	// ListExecutions returns all stored executions, newest first.
	ListExecutions(ctx context.Context) ([]models.Execution, error)
	// SaveMetricsSnapshot appends one metrics snapshot.
	SaveMetricsSnapshot(ctx context.Context, snap models.MetricsSnapshot) error
	// LatestMetricsSnapshot returns the most recent snapshot, if any.
	LatestMetricsSnapshot(ctx context.Context) (*models.MetricsSnapshot, error)
	// Close releases the underlying connection.
	Close() error
}

// Compile-time verification that DB implements Store.
var _ Store = (*DB)(nil)

// DB wraps an SQLite database connection.
type DB struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// DBPath returns the database path inside the given runtime directory.
func DBPath(runtimeDir string) string {
	return filepath.Join(runtimeDir, "stagehand.db")
}

// Open opens an SQLite database at the given path, creating parent
// directories as needed. WAL mode is enabled for concurrent reads.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &DB{conn: conn, path: path}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn.Close()
}

// Path returns the path to the database file.
func (db *DB) Path() string {
	return db.path
}

// Migrate applies all pending schema migrations.
func (db *DB) Migrate() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var currentVersion int
	row := db.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Executions},
		{2, migrationV2MetricsSnapshots},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Migration SQL statements
const migrationV1Executions = `
CREATE TABLE IF NOT EXISTS executions (
	id TEXT PRIMARY KEY,
	task TEXT NOT NULL,
	status TEXT NOT NULL,
	start_time DATETIME NOT NULL,
	retries INTEGER NOT NULL DEFAULT 0,
	error TEXT,
	results TEXT,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_executions_status ON executions(status);
`

const migrationV2MetricsSnapshots = `
CREATE TABLE IF NOT EXISTS metrics_snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	taken DATETIME NOT NULL,
	snapshot TEXT NOT NULL
);
`

// SaveExecution inserts or replaces one execution record. Phase
// results are stored as a JSON document.
func (db *DB) SaveExecution(ctx context.Context, exec models.Execution) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	results, err := json.Marshal(exec.Results)
	if err != nil {
		return fmt.Errorf("marshal execution results: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO executions (id, task, status, start_time, retries, error, results, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, exec.ID, exec.Task, string(exec.Status), exec.StartTime.UTC(), exec.Retries, exec.Error, string(results))
	if err != nil {
		return fmt.Errorf("save execution %s: %w", exec.ID, err)
	}
	return nil
}

// ListExecutions returns all stored executions, newest first.
func (db *DB) ListExecutions(ctx context.Context) ([]models.Execution, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, task, status, start_time, retries, error, results
		FROM executions ORDER BY start_time DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	var out []models.Execution
	for rows.Next() {
		var exec models.Execution
		var status, results string
		var errText sql.NullString
		if err := rows.Scan(&exec.ID, &exec.Task, &status, &exec.StartTime, &exec.Retries, &errText, &results); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		exec.Status = models.ExecutionStatus(status)
		exec.Error = errText.String
		if results != "" {
			if err := json.Unmarshal([]byte(results), &exec.Results); err != nil {
				return nil, fmt.Errorf("unmarshal results for %s: %w", exec.ID, err)
			}
		}
		out = append(out, exec)
	}
	return out, rows.Err()
}

// SaveMetricsSnapshot appends one metrics snapshot as a JSON document.
func (db *DB) SaveMetricsSnapshot(ctx context.Context, snap models.MetricsSnapshot) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	doc, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal metrics snapshot: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO metrics_snapshots (taken, snapshot) VALUES (?, ?)
	`, snap.Taken.UTC().Format(time.RFC3339Nano), string(doc))
	if err != nil {
		return fmt.Errorf("save metrics snapshot: %w", err)
	}
	return nil
}

// LatestMetricsSnapshot returns the most recent snapshot, or nil when
// none have been stored.
func (db *DB) LatestMetricsSnapshot(ctx context.Context) (*models.MetricsSnapshot, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var doc string
	row := db.conn.QueryRowContext(ctx, `
		SELECT snapshot FROM metrics_snapshots ORDER BY id DESC LIMIT 1
	`)
	if err := row.Scan(&doc); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("load metrics snapshot: %w", err)
	}

	var snap models.MetricsSnapshot
	if err := json.Unmarshal([]byte(doc), &snap); err != nil {
		return nil, fmt.Errorf("unmarshal metrics snapshot: %w", err)
	}
	return &snap, nil
}
