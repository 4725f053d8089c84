// Package store keeps validation history in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pmaojo/reclint/internal/reclint/validate"
)

// FileName is the database file inside the persistence directory.
const FileName = "history.db"

// Store handles persistence of validation runs using SQLite.
type Store struct {
	db *sql.DB
}

// Run summarizes one recorded validation run.
type Run struct {
	ID         int64
	StartedAt  time.Time
	Target     string
	Violations int
}

// Key identifies a violation across runs. Positions are left out so that
// edits above a known violation do not make it new.
type Key struct {
	Label   string
	File    string
	Message string
	Found   string
}

// KeyOf returns the baseline key of v.
func KeyOf(v validate.Violation) Key {
	return Key{Label: v.Label, File: v.File, Message: v.Message, Found: v.Found}
}

// NewStore opens or creates history.db in storageDir.
// It creates the directory if it doesn't exist and initializes the schema.
func NewStore(storageDir string) (*Store, error) {
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(storageDir, FileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at INTEGER NOT NULL,
			target TEXT NOT NULL,
			violations INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS violations (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			kind TEXT,
			label TEXT,
			message TEXT,
			file TEXT,
			line INTEGER,
			col INTEGER,
			found TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_violations_run ON violations(run_id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec schema query: %w", err)
		}
	}
	return nil
}

// SaveRun records a run and its violations in one transaction.
func (s *Store) SaveRun(startedAt time.Time, target string, vs []validate.Violation) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO runs (started_at, target, violations) VALUES (?, ?, ?)`,
		startedAt.UnixNano(), target, len(vs))
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO violations (run_id, kind, label, message, file, line, col, found)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for _, v := range vs {
		if _, err := stmt.Exec(id, string(v.Kind), v.Label, v.Message, v.File, v.Line, v.Column, v.Found); err != nil {
			return 0, fmt.Errorf("insert violation: %w", err)
		}
	}

	return id, tx.Commit()
}

// LatestKeys returns the violation keys of the most recent run, or nil when
// nothing was recorded yet.
func (s *Store) LatestKeys() (map[Key]struct{}, error) {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM runs ORDER BY id DESC LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT label, file, message, found FROM violations WHERE run_id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[Key]struct{})
	for rows.Next() {
		var k Key
		if err := rows.Scan(&k.Label, &k.File, &k.Message, &k.Found); err != nil {
			return nil, err
		}
		keys[k] = struct{}{}
	}
	return keys, rows.Err()
}

// ListRuns returns the most recent runs first. A limit of 0 returns all.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	q := `SELECT id, started_at, target, violations FROM runs ORDER BY id DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var nanos int64
		if err := rows.Scan(&r.ID, &nanos, &r.Target, &r.Violations); err != nil {
			return nil, err
		}
		r.StartedAt = time.Unix(0, nanos)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// NewOnly drops every violation whose key is in baseline.
func NewOnly(vs []validate.Violation, baseline map[Key]struct{}) []validate.Violation {
	out := make([]validate.Violation, 0, len(vs))
	for _, v := range vs {
		if _, ok := baseline[KeyOf(v)]; !ok {
			out = append(out, v)
		}
	}
	return out
}
