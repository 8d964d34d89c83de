// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database: it lives inside the binary as a single file.
// A keyword pool for a handful of teams is a single-server workload, so there is
// no database server to run. Tests use ":memory:" for a fresh database each time.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so no C compiler is
// needed and cross-compilation keeps working.
//
// LAYOUT:
// One *DB owns the connection pool. Each record kind gets a small typed view
// over the same pool (db.Users(), db.Rooms(), db.Keywords(), db.History()),
// and each view implements one repository interface.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool.
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/synergy.db" → file-based database (persistent)
//   - ":memory:"        → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	dsn := dbPath
	if dbPath != ":memory:" && !strings.Contains(dbPath, "?") {
		// Pragmas in the DSN apply to every pooled connection, not just the
		// one that happens to run the Exec below.
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every new connection to ":memory:" is a brand new empty database,
	// so the pool must never hold more than one.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// sql.Open doesn't connect; Ping surfaces a bad path or permissions now.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers (history, keyword snapshots) run while a draw writes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. Keywords must reference an
	// existing user, so turn them on.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Users returns the user repository view.
func (db *DB) Users() *UserDB { return &UserDB{conn: db.conn} }

// Rooms returns the room repository view.
func (db *DB) Rooms() *RoomDB { return &RoomDB{conn: db.conn} }

// Keywords returns the keyword repository view.
func (db *DB) Keywords() *KeywordDB { return &KeywordDB{conn: db.conn} }

// History returns the history repository view.
func (db *DB) History() *HistoryDB { return &HistoryDB{conn: db.conn} }

// migrate runs all database migrations.
//
// CREATE TABLE IF NOT EXISTS is safe to run on every start. Columns added
// after the first release go through addColumnIfNotExists.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS rooms (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			host_id    TEXT NOT NULL REFERENCES users(id),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating rooms table: %w", err)
	}

	// Phase 1: the global pool. Keywords and history had no room.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS keywords (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id),
			word       TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_keywords_created_at ON keywords(created_at);

		CREATE TABLE IF NOT EXISTS history (
			id         TEXT PRIMARY KEY,
			keyword_a  TEXT NOT NULL,
			keyword_b  TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_history_created_at ON history(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating keywords and history tables: %w", err)
	}

	// Phase 2: optional room scope. NULL room_id means the global pool.
	for _, table := range []string{"keywords", "history"} {
		if err := db.addColumnIfNotExists(table, "room_id", "TEXT REFERENCES rooms(id)"); err != nil {
			return fmt.Errorf("adding room_id to %s: %w", table, err)
		}
	}

	_, err = db.conn.Exec(`
		CREATE INDEX IF NOT EXISTS idx_keywords_room_id ON keywords(room_id);
		CREATE INDEX IF NOT EXISTS idx_history_room_id ON history(room_id);
	`)
	if err != nil {
		return fmt.Errorf("creating room_id indexes: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already exist.
// Makes ALTER TABLE migrations idempotent: safe to run multiple times.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}

// nullable maps the empty string to SQL NULL. Room ids are optional.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// limitClause turns a non-positive limit into SQLite's "no limit" (-1).
func limitClause(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
