package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"rostergen/internal"
)

const MetaLastOutput = "last_output"

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  inputPath TEXT NOT NULL,
  outputPath TEXT NOT NULL,
  encoding TEXT NOT NULL,
  format TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  status TEXT NOT NULL,
  error TEXT NOT NULL DEFAULT '',
  durationMs INTEGER NOT NULL,
  createdAt TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_traceId ON runs(traceId);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) InsertRun(run internal.RunRecord) (int64, error) {
	countsJSON, err := json.Marshal(run.Counts)
	if err != nil {
		return 0, err
	}
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	res, err := d.conn.Exec(`
INSERT INTO runs (traceId, inputPath, outputPath, encoding, format, countsJson, status, error, durationMs, createdAt)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.TraceID, run.InputPath, run.OutputPath, run.Encoding, run.Format,
		string(countsJSON), string(run.Status), run.Error, run.DurationMs,
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListRuns returns the most recent runs first.
func (d *DB) ListRuns(limit int) ([]internal.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.conn.Query(`
SELECT id, traceId, inputPath, outputPath, encoding, format, countsJson, status, error, durationMs, createdAt
FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []internal.RunRecord{}
	for rows.Next() {
		var (
			run        internal.RunRecord
			countsJSON string
			status     string
			createdAt  string
		)
		if err := rows.Scan(&run.ID, &run.TraceID, &run.InputPath, &run.OutputPath, &run.Encoding, &run.Format,
			&countsJSON, &status, &run.Error, &run.DurationMs, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(countsJSON), &run.Counts); err != nil {
			return nil, fmt.Errorf("run %d counts: %w", run.ID, err)
		}
		run.Status = internal.RunStatus(status)
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			run.CreatedAt = ts
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
