// Package securestore provides encrypted-at-rest key/value persistence
// for the small set of secrets the client keeps across restarts (the
// bearer token and the last active chat session id).
package securestore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

type Store struct {
	db     *sql.DB
	cipher *valueCipher
}

// NewStore opens (creating if needed) the store at path. Values are
// encrypted with a key derived from passphrase; opening an existing
// store with a different passphrase leaves Get returning errors for
// previously written keys.
func NewStore(path, passphrase string) (*Store, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("securestore: passphrase must not be empty")
	}

	if path != ":memory:" && !strings.Contains(path, "mode=memory") {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	// In-memory SQLite gives every connection its own database. Pin a
	// single connection so the schema survives across goroutines.
	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS secure_items (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}

	cipher, err := newValueCipher(passphrase)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, cipher: cipher}, nil
}

// Get returns the decrypted value for key. The second return is false
// when the key has never been set; that is not an error.
func (s *Store) Get(key string) (string, bool, error) {
	var encoded string
	err := s.db.QueryRow(`SELECT value FROM secure_items WHERE key = ?`, key).Scan(&encoded)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q: %w", key, err)
	}

	value, err := s.cipher.decrypt(encoded)
	if err != nil {
		return "", false, fmt.Errorf("failed to decrypt %q: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) Set(key, value string) error {
	encoded, err := s.cipher.encrypt(value)
	if err != nil {
		return fmt.Errorf("failed to encrypt %q: %w", key, err)
	}

	_, err = s.db.Exec(
		`INSERT INTO secure_items (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, encoded,
	)
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM secure_items WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
