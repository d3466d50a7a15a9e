package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// Store owns the tunes table in a single SQLite database file.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path. Call EnsureSchema before the
// first insert.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// OpenMemory opens an in-memory database. Used by tests. The pool is pinned
// to a single connection: a second one would get its own empty database.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

// Recreate deletes the database file at path and opens a fresh store with the
// schema in place. Ids restart from 1. This is the "full rescan" policy: an
// import run replaces the whole catalog rather than upserting into it.
func Recreate(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove database: %w", err)
	}
	// WAL sidecars from the previous run would resurrect old pages.
	os.Remove(path + "-wal")
	os.Remove(path + "-shm")

	store, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the tunes table if it does not exist. Existing rows
// are never touched.
func (s *Store) EnsureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tunes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			book_id INTEGER,
			reference_number TEXT,
			title TEXT,
			rhythm TEXT,
			key_sig TEXT,
			content TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Insert appends one tune and returns it with the store-assigned id. The row
// is durable when Insert returns.
func (s *Store) Insert(t Tune) (Tune, error) {
	res, err := s.db.Exec(`
		INSERT INTO tunes (book_id, reference_number, title, rhythm, key_sig, content)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.BookID, t.Ref, t.Title, t.Rhythm, t.Key, t.Content)
	if err != nil {
		return Tune{}, fmt.Errorf("insert tune: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Tune{}, fmt.Errorf("insert tune id: %w", err)
	}
	t.ID = id

	return t, nil
}

// LoadAll returns every tune in insertion order. A database without the
// tunes table yields an empty result, not an error, so a fresh process can
// start against a missing or never-imported catalog.
func (s *Store) LoadAll() ([]Tune, error) {
	rows, err := s.db.Query(`
		SELECT id, book_id, reference_number, title, rhythm, key_sig, content
		FROM tunes
		ORDER BY id ASC
	`)
	if err != nil {
		if isMissingTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("query tunes: %w", err)
	}
	defer rows.Close()

	var tunes []Tune
	for rows.Next() {
		var t Tune
		var title, rhythm, key sql.NullString
		if err := rows.Scan(&t.ID, &t.BookID, &t.Ref, &title, &rhythm, &key, &t.Content); err != nil {
			return nil, fmt.Errorf("scan tune: %w", err)
		}
		t.Title = orUnknown(title)
		t.Rhythm = orUnknown(rhythm)
		t.Key = orUnknown(key)
		tunes = append(tunes, t)
	}
	return tunes, rows.Err()
}

func orUnknown(s sql.NullString) string {
	if !s.Valid {
		return "Unknown"
	}
	return s.String
}

// isMissingTable matches the sqlite "no such table" error. The driver has no
// typed error for it, so this is a string match like everyone else's.
func isMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
