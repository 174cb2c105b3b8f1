package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// InitDB opens/creates a SQLite DB file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const sqliteDriverName = "sqlite"

// connPragmas run on every new connection; foreign_keys is per connection
// and ON DELETE CASCADE depends on it.
var connPragmas = []string{
	"journal_mode(WAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

func dsn(path string) string {
	var b strings.Builder
	b.WriteString(path)
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	for _, p := range connPragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

const schemaValves = `
CREATE TABLE IF NOT EXISTS valves (
    number INTEGER PRIMARY KEY CHECK (number BETWEEN 0 AND 255),
    name TEXT NOT NULL,
    automation_status TEXT NOT NULL,
    valve_status TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaScheduleEntries = `
CREATE TABLE IF NOT EXISTS schedule_entries (
    valve_number INTEGER NOT NULL REFERENCES valves(number) ON DELETE CASCADE,
    day INTEGER NOT NULL CHECK (day BETWEEN 0 AND 6),
    begin_s INTEGER NOT NULL,
    end_s INTEGER NOT NULL,
    PRIMARY KEY (valve_number, day, begin_s, end_s)
);
`

const schemaValveEvents = `
CREATE TABLE IF NOT EXISTS valve_events (
    id TEXT PRIMARY KEY,
    occurred_at TIMESTAMP NOT NULL,
    type TEXT NOT NULL,
    valve_number INTEGER NOT NULL,
    message TEXT NOT NULL,
    meta TEXT
);
`

const schemaValveEventsIndex = `
CREATE INDEX IF NOT EXISTS idx_valve_events_occurred_at ON valve_events (occurred_at);
`

const schemaUsers = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaValves,
		schemaScheduleEntries,
		schemaValveEvents,
		schemaValveEventsIndex,
		schemaUsers,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
