// Copyright (c) 2025 Quillworks.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Single-slot documents (current prompt, pending poll, idea pools)
CREATE TABLE IF NOT EXISTS document (
    key TEXT PRIMARY KEY,
    record TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

-- Append-only collections (challenge history)
CREATE TABLE IF NOT EXISTS collection_record (
    id TEXT PRIMARY KEY,
    collection TEXT NOT NULL,
    record TEXT NOT NULL,
    appended_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_collection_record_collection ON collection_record(collection);
`
