// Package history keeps a local record of export runs in a SQLite
// database under the config directory. It is a convenience log for the
// `history` command; the per-run YAML manifest next to the artifacts
// remains the authoritative record.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/treeship-labs/treeship/internal/manifest"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS runs (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at     TEXT NOT NULL,
    root           TEXT NOT NULL,
    channel        TEXT NOT NULL DEFAULT '',
    artifact_count INTEGER NOT NULL DEFAULT 0,
    total_bytes    INTEGER NOT NULL DEFAULT 0,
    outcome        TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS run_artifacts (
    run_id    INTEGER NOT NULL REFERENCES runs(id),
    file_name TEXT NOT NULL,
    size      INTEGER NOT NULL DEFAULT 0,
    kind      TEXT NOT NULL DEFAULT '',
    status    TEXT NOT NULL DEFAULT '',
    url       TEXT NOT NULL DEFAULT ''
);
`

// DB wraps the run-history database.
type DB struct {
	db *sql.DB
}

// Open opens (and if needed creates) the history database at dbPath.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}

// RunSummary is one row of the `history` listing.
type RunSummary struct {
	ID            int64
	StartedAt     time.Time
	Root          string
	Channel       string
	ArtifactCount int
	TotalBytes    int64
	Outcome       string
}

// Record stores one run, derived from its manifest, and returns the row id.
func (d *DB) Record(m *manifest.RunManifest, outcome string) (int64, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO runs (started_at, root, channel, artifact_count, total_bytes, outcome)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.GeneratedAt.UTC().Format(time.RFC3339), m.Root, m.Channel,
		len(m.Artifacts), m.TotalSizeBytes, outcome,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	// Publish status/URL per artifact, when a result references it.
	urls := make(map[string]string)
	statuses := make(map[string]string)
	for _, p := range m.Published {
		if p.ArtifactRef != "" {
			urls[p.ArtifactRef] = p.RemoteURL
			statuses[p.ArtifactRef] = p.Status
		}
	}

	for _, a := range m.Artifacts {
		if _, err := tx.Exec(
			`INSERT INTO run_artifacts (run_id, file_name, size, kind, status, url)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			runID, a.FileName, a.SizeBytes, a.Kind, statuses[a.FileName], urls[a.FileName],
		); err != nil {
			return 0, fmt.Errorf("insert artifact: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

// Recent returns the most recent runs, newest first.
func (d *DB) Recent(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.Query(
		`SELECT id, started_at, root, channel, artifact_count, total_bytes, outcome
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		var started string
		if err := rows.Scan(&s.ID, &started, &s.Root, &s.Channel,
			&s.ArtifactCount, &s.TotalBytes, &s.Outcome); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.StartedAt, _ = time.Parse(time.RFC3339, started)
		out = append(out, s)
	}
	return out, rows.Err()
}
