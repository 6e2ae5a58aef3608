package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// SQLiteStore persists the collection as a single row of the collections table.
type SQLiteStore struct {
	conn *sql.DB
	key  string
}

// OpenSQLite creates a new database connection and ensures the schema is up to date.
func OpenSQLite(dsn, key string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// A single connection keeps ":memory:" databases coherent and matches the
	// single-writer model of the repository.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	if key == "" {
		key = DefaultKey
	}
	return &SQLiteStore{conn: db, key: key}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// ReadAll returns the stored collection bytes for the store's key.
func (s *SQLiteStore) ReadAll() ([]byte, bool, error) {
	var value []byte
	row := s.conn.QueryRow(`SELECT value FROM collections WHERE key = ?`, s.key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read collection %s: %w", s.key, err)
	}
	return value, true, nil
}

// WriteAll replaces the stored collection bytes for the store's key.
func (s *SQLiteStore) WriteAll(data []byte) error {
	_, err := s.conn.Exec(`
		INSERT INTO collections (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, s.key, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write collection %s: %w", s.key, err)
	}
	return nil
}
