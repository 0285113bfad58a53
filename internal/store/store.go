package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Artifact names written by the pipeline stages.
const (
	ArtifactArticles       = "articles"
	ArtifactSectorTopicMap = "sector-topic-map"
	ArtifactFinalContent   = "final-content"
)

// ErrNotReady is returned when a requested artifact has not been produced
// yet. Callers surface it as a retry-later condition, not a failure.
var ErrNotReady = errors.New("artifact not ready")

// Store is a durable key-value blob store for pipeline artifacts, backed by
// a single SQLite table. Writes are last-writer-wins; there is no schema
// migration beyond the table itself.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates or opens the artifact store at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	if _, err := conn.Exec(`
CREATE TABLE IF NOT EXISTS artifacts (
    name TEXT PRIMARY KEY,
    data BLOB NOT NULL,
    updated_at TEXT DEFAULT (datetime('now'))
)`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating artifacts table: %w", err)
	}

	return &Store{conn: conn, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the store file path.
func (s *Store) Path() string {
	return s.path
}

// SaveJSON marshals v and stores it under name, replacing any previous blob.
func (s *Store) SaveJSON(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling artifact %s: %w", name, err)
	}
	_, err = s.conn.Exec(
		`INSERT INTO artifacts (name, data, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		name, data,
	)
	if err != nil {
		return fmt.Errorf("saving artifact %s: %w", name, err)
	}
	return nil
}

// LoadJSON unmarshals the blob stored under name into v. Returns ErrNotReady
// when no such artifact exists.
func (s *Store) LoadJSON(name string, v any) error {
	var data []byte
	err := s.conn.QueryRow("SELECT data FROM artifacts WHERE name = ?", name).Scan(&data)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s", ErrNotReady, name)
	}
	if err != nil {
		return fmt.Errorf("loading artifact %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshaling artifact %s: %w", name, err)
	}
	return nil
}

// ArtifactInfo describes one stored artifact.
type ArtifactInfo struct {
	Name      string
	Size      int
	UpdatedAt string
}

// Stat returns metadata for all stored artifacts, ordered by name.
func (s *Store) Stat() ([]ArtifactInfo, error) {
	rows, err := s.conn.Query(
		"SELECT name, length(data), updated_at FROM artifacts ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []ArtifactInfo
	for rows.Next() {
		var info ArtifactInfo
		if err := rows.Scan(&info.Name, &info.Size, &info.UpdatedAt); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}
