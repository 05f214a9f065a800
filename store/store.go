// Copyright (c) 2025 Quillworks.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store reads and writes opaque JSON records in the document tables.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get returns the record stored under key, or ok=false if no record exists.
func (s *Store) Get(key string) (record []byte, ok bool, err error) {
	var raw []byte
	err = s.db.QueryRow(`SELECT record FROM document WHERE key = $1`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return raw, true, nil
}

// Set overwrites the record stored under key. The write is a single-key
// upsert, safe to retry.
func (s *Store) Set(key string, record any) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal %q: %w", key, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO document (key, record, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at
	`, key, raw, time.Now().UTC())

	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Delete removes the record stored under key. Deleting a missing key is not
// an error.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM document WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Append adds one record to an append-only collection.
func (s *Store) Append(collection string, record any) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal %q record: %w", collection, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO collection_record (id, collection, record, appended_at)
		VALUES ($1, $2, $3, $4)
	`, uuid.NewString(), collection, raw, time.Now().UTC())

	if err != nil {
		return fmt.Errorf("append to %q: %w", collection, err)
	}
	return nil
}

// List returns every record in a collection, oldest first.
func (s *Store) List(collection string) ([][]byte, error) {
	rows, err := s.db.Query(`
		SELECT record FROM collection_record
		WHERE collection = $1
		ORDER BY appended_at, id
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", collection, err)
	}
	defer rows.Close()

	var records [][]byte
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan %q record: %w", collection, err)
		}
		records = append(records, raw)
	}
	return records, rows.Err()
}
