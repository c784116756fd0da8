// Package state keeps a local history of conversion runs so repeated runs can
// tell which source files changed.
package state

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DB records every processed file per run in dir/state.db.
type DB struct {
	db *sql.DB
}

// Conversion is one file processed within one run.
type Conversion struct {
	RunID     string
	Path      string
	Hash      string
	Mode      string
	Sets      int
	ErrorCode string // empty on success
	CreatedAt time.Time
}

// Open opens (or creates) the SQLite history at dir/state.db.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "state.db"))
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS conversions (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id     TEXT NOT NULL,
		path       TEXT NOT NULL,
		hash       TEXT NOT NULL,
		mode       TEXT NOT NULL,
		sets       INTEGER NOT NULL,
		error_code TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating conversions table: %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS conversions_path_idx ON conversions (path, id)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating conversions index: %w", err)
	}

	return &DB{db: db}, nil
}

// NewRunID returns a fresh identifier grouping the files of one run.
func NewRunID() string {
	return uuid.NewString()
}

// Record stores one conversion. CreatedAt defaults to now.
func (s *DB) Record(c Conversion) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO conversions (run_id, path, hash, mode, sets, error_code, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.RunID, c.Path, c.Hash, c.Mode, c.Sets, c.ErrorCode, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("recording conversion of %s: %w", c.Path, err)
	}
	return nil
}

// LastConversion returns the most recent conversion of path, or nil when the
// file has never been processed.
func (s *DB) LastConversion(path string) (*Conversion, error) {
	c := &Conversion{}
	err := s.db.QueryRow(
		`SELECT run_id, path, hash, mode, sets, error_code, created_at
		 FROM conversions WHERE path = ? ORDER BY id DESC LIMIT 1`,
		path,
	).Scan(&c.RunID, &c.Path, &c.Hash, &c.Mode, &c.Sets, &c.ErrorCode, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying last conversion of %s: %w", path, err)
	}
	return c, nil
}

// Run lists the conversions recorded under runID in insertion order.
func (s *DB) Run(runID string) ([]Conversion, error) {
	rows, err := s.db.Query(
		`SELECT run_id, path, hash, mode, sets, error_code, created_at
		 FROM conversions WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []Conversion
	for rows.Next() {
		var c Conversion
		if err := rows.Scan(&c.RunID, &c.Path, &c.Hash, &c.Mode, &c.Sets, &c.ErrorCode, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Close closes the state database.
func (s *DB) Close() error {
	return s.db.Close()
}

// HashFile computes the SHA-256 hash of a file.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
