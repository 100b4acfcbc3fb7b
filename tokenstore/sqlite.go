/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Tejus Pratap <tejzpr@gmail.com>
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

package tokenstore

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

const (
	keyPushToken = "pushToken"
	keyDeviceID  = "deviceID"
)

// SQLiteStore is a durable Store backed by a single-file SQLite database.
// The registration lives in a two-row key/value table; absence of either
// row means no registration.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// OpenSQLite opens or creates the store database in the given directory
func OpenSQLite(dir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	dbPath := filepath.Join(dir, "voicepush.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store database: %w", err)
	}

	if _, err := db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure store database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS push_state (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create push_state table: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *SQLiteStore) Path() string {
	return s.path
}

// Load returns the stored registration, or (nil, nil) when either key is
// absent.
func (s *SQLiteStore) Load() (*Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokenHex, ok, err := s.get(keyPushToken)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	deviceID, ok, err := s.get(keyDeviceID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	token, err := hex.DecodeString(tokenHex)
	if err != nil {
		return nil, fmt.Errorf("corrupt stored token: %w", err)
	}

	return &Registration{Token: token, DeviceID: deviceID}, nil
}

// Save replaces the stored registration atomically
func (s *SQLiteStore) Save(reg *Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save registration: %w", err)
	}
	defer tx.Rollback()

	const upsert = `INSERT INTO push_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`

	if _, err := tx.Exec(upsert, keyPushToken, hex.EncodeToString(reg.Token)); err != nil {
		return fmt.Errorf("save registration: %w", err)
	}
	if _, err := tx.Exec(upsert, keyDeviceID, reg.DeviceID); err != nil {
		return fmt.Errorf("save registration: %w", err)
	}

	return tx.Commit()
}

// Clear removes the stored registration
func (s *SQLiteStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM push_state WHERE key IN (?, ?)`, keyPushToken, keyDeviceID); err != nil {
		return fmt.Errorf("clear registration: %w", err)
	}
	return nil
}

// get reads a single key, reporting whether it was present
func (s *SQLiteStore) get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM push_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return value, true, nil
}
