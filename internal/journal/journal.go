// Package journal keeps an append-only SQLite record of handled events for
// auditing. Light state is never restored from it.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Entry is one handled event together with the state it left behind.
type Entry struct {
	ID         int64
	Session    string
	Timestamp  time.Time
	Name       string
	Value      int
	Outcome    string
	On         bool
	Brightness float64
	Kelvin     int
}

// Journal appends entries for one process run.
type Journal struct {
	db      *sql.DB
	session string
}

// Open opens the database at path, creates the schema and starts a new session.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}

	return &Journal{db: db, session: uuid.NewString()}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS event_journal (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			name TEXT NOT NULL,
			value INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			light_on INTEGER NOT NULL,
			brightness REAL NOT NULL,
			kelvin INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_journal_ts ON event_journal(timestamp);
		CREATE INDEX IF NOT EXISTS idx_journal_session ON event_journal(session);
	`)
	if err != nil {
		return fmt.Errorf("failed to create event_journal table: %w", err)
	}
	return nil
}

// Session returns the identifier stamped on this run's entries.
func (j *Journal) Session() string {
	return j.session
}

// Append records e under the current session. Timestamp defaults to now.
func (j *Journal) Append(e Entry) error {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := j.db.Exec(`
		INSERT INTO event_journal (session, timestamp, name, value, outcome, light_on, brightness, kelvin)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, j.session, ts.UTC().UnixMilli(), e.Name, e.Value, e.Outcome, e.On, e.Brightness, e.Kelvin)
	if err != nil {
		return fmt.Errorf("failed to append journal entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first, across all sessions.
func (j *Journal) Recent(limit int) ([]*Entry, error) {
	rows, err := j.db.Query(`
		SELECT id, session, timestamp, name, value, outcome, light_on, brightness, kelvin
		FROM event_journal
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&e.ID, &e.Session, &ts, &e.Name, &e.Value, &e.Outcome, &e.On, &e.Brightness, &e.Kelvin); err != nil {
			return nil, err
		}
		e.Timestamp = time.UnixMilli(ts).UTC()
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// DeleteOlderThan removes entries older than retention.
func (j *Journal) DeleteOlderThan(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).UTC().UnixMilli()
	result, err := j.db.Exec(`DELETE FROM event_journal WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
