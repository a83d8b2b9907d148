// Package history records completed store mutations in a sqlite
// database, the standalone stand-in for the host platform's recorder.
package history

import (
	"database/sql"
	"errors"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/frame-vault/framevault/src/pkg/store"
)

const (
	schemaStmt = `
CREATE TABLE IF NOT EXISTS events (
	Id INTEGER PRIMARY KEY AUTOINCREMENT,
	Type TEXT NOT NULL,
	Sequence INTEGER NOT NULL,
	Filename TEXT NOT NULL,
	Count INTEGER NOT NULL,
	Timestamp INTEGER NOT NULL
);
`
	insertStmt = `
INSERT INTO events (Type, Sequence, Filename, Count, Timestamp)
VALUES (?, ?, ?, ?, ?)
`
	recentStmt = `
SELECT
	Id,
	Type,
	Sequence,
	Filename,
	Count,
	Timestamp FROM events ORDER BY Id DESC LIMIT ?
`
)

// Entry is one recorded mutation.
type Entry struct {
	ID        int64           `json:"id"`
	Type      store.EventType `json:"type"`
	Sequence  int             `json:"sequence,omitempty"`
	Filename  string          `json:"filename,omitempty"`
	Count     int             `json:"count,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

type Recorder struct {
	db *sql.DB
}

func Open(path string) (*Recorder, error) {
	db, openErr := sql.Open("sqlite3", path)
	if openErr != nil {
		return nil, openErr
	}

	if _, execErr := db.Exec(schemaStmt); execErr != nil {
		return nil, errors.Join(execErr, db.Close())
	}

	return &Recorder{db: db}, nil
}

// Notify implements store.Notifier. Recording is best-effort: a failed
// insert is logged and never surfaces to the mutation that caused it.
func (r *Recorder) Notify(event store.Event) {
	if _, execErr := r.db.Exec(insertStmt,
		string(event.Type), event.Sequence, event.Filename, event.Count, event.Timestamp); execErr != nil {
		slog.Warn("failed to record history event", "type", event.Type, "error", execErr)
	}
}

// Recent returns up to limit entries, newest first.
func (r *Recorder) Recent(limit int) (result []Entry, err error) {
	preparedStmt, stmtErr := r.db.Prepare(recentStmt)
	if stmtErr != nil {
		return nil, stmtErr
	}
	defer func() {
		if closeErr := preparedStmt.Close(); closeErr != nil {
			if err == nil {
				err = closeErr
			} else {
				err = errors.Join(err, closeErr)
			}
		}
	}()

	rows, rowsErr := preparedStmt.Query(limit)
	if rowsErr != nil {
		return nil, rowsErr
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	entries := []Entry{}
	for rows.Next() {
		var entry Entry
		var eventType string
		if scanErr := rows.Scan(&entry.ID, &eventType, &entry.Sequence,
			&entry.Filename, &entry.Count, &entry.Timestamp); scanErr != nil {
			return nil, scanErr
		}
		entry.Type = store.EventType(eventType)
		entries = append(entries, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}

	return entries, nil
}

func (r *Recorder) Close() error {
	return r.db.Close()
}
