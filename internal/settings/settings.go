// Package settings provides SQLite-backed persistence for workspace
// snapshots: open tabs, pinned tabs, expanded folders and the active item.
package settings

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/eihwaz/internal/checksum"
	"github.com/starford/eihwaz/internal/vault"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS workspace (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL DEFAULT '',
	checksum   TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const snapshotKey = "snapshot"

// DB wraps a sql.DB with workspace persistence operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("settings: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("settings: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("settings: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// SaveSnapshot stores the snapshot as JSON. Snapshots are deterministic, so
// an unchanged checksum means the write can be skipped entirely; workspace
// saves fire on every tab or fold interaction and most of them are
// redundant.
func (db *DB) SaveSnapshot(s vault.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("settings: marshal snapshot: %w", err)
	}
	sum := checksum.Sum(data)

	var stored string
	err = db.conn.QueryRow(`SELECT checksum FROM workspace WHERE key = ?`, snapshotKey).Scan(&stored)
	if err == nil && stored == sum {
		return nil
	}

	_, err = db.conn.Exec(`
		INSERT INTO workspace (key, value, checksum, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, snapshotKey, string(data), sum, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("settings: save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored snapshot. The second return is false when
// no snapshot has ever been saved.
func (db *DB) LoadSnapshot() (vault.Snapshot, bool, error) {
	var value string
	err := db.conn.QueryRow(`SELECT value FROM workspace WHERE key = ?`, snapshotKey).Scan(&value)
	if err == sql.ErrNoRows {
		return vault.Snapshot{}, false, nil
	}
	if err != nil {
		return vault.Snapshot{}, false, fmt.Errorf("settings: load snapshot: %w", err)
	}
	var s vault.Snapshot
	if err := json.Unmarshal([]byte(value), &s); err != nil {
		return vault.Snapshot{}, false, fmt.Errorf("settings: decode snapshot: %w", err)
	}
	return s, true, nil
}
