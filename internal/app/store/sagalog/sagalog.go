// Package sagalog is a durable, append-only journal for deletions that span
// the document store and the identity store. Intended deletions are recorded
// before either store is touched and each step is recorded after the store
// confirms it, so a sweep can finish whatever a crashed or partially failed
// run left behind.
package sagalog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Event is one step in the life of an account deletion.
type Event string

const (
	// EventIntent is recorded before the document batch delete is attempted.
	EventIntent Event = "intent"
	// EventDocumentsDeleted is recorded once the batch delete committed.
	EventDocumentsDeleted Event = "documents_deleted"
	// EventAccountDeleted is recorded once the identity store confirmed the delete.
	EventAccountDeleted Event = "account_deleted"
	// EventAbandoned closes an intent whose batch delete never committed.
	EventAbandoned Event = "abandoned"
)

// Entry is an account deletion that has not reached a terminal event.
// RunFinished is false while the run that recorded it may still be working
// on it; StartedAt is the time of its first event.
type Entry struct {
	RunID            string
	AccountID        string
	DocumentsDeleted bool
	RunFinished      bool
	StartedAt        time.Time
}

// Journal is a SQLite-backed deletion journal. It is safe for concurrent use.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the journal database at path and applies the schema.
// Use ":memory:" for a throwaway journal.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sagalog: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sagalog: connect: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sagalog: %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("sagalog: apply schema: %w", err)
	}

	return &Journal{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record appends ev for every account in accountIDs within one transaction.
// Recording the same (run, account, event) twice is a no-op.
func (j *Journal) Record(ctx context.Context, runID string, accountIDs []string, ev Event, detail string) error {
	if len(accountIDs) == 0 {
		return nil
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sagalog: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO deletion_events (run_id, account_id, event, detail, recorded_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (run_id, account_id, event) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("sagalog: prepare: %w", err)
	}
	defer stmt.Close()

	at := j.now().Format(time.RFC3339Nano)
	for _, id := range accountIDs {
		if _, err := stmt.ExecContext(ctx, runID, id, string(ev), detail, at); err != nil {
			return fmt.Errorf("sagalog: record %s %s: %w", ev, id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sagalog: commit: %w", err)
	}
	return nil
}

// FinishRun marks runID as ended. A run that crashed never gets the mark.
// Marking the same run twice is a no-op.
func (j *Journal) FinishRun(ctx context.Context, runID string) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO deletion_runs (run_id, finished_at)
		VALUES (?, ?)
		ON CONFLICT (run_id) DO NOTHING
	`, runID, j.now().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("sagalog: finish run %s: %w", runID, err)
	}
	return nil
}

// Unfinished returns every (run, account) pair without an account_deleted or
// abandoned event, oldest first.
func (j *Journal) Unfinished(ctx context.Context) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT e.run_id,
		       e.account_id,
		       MAX(e.event = 'documents_deleted') AS documents_deleted,
		       MAX(r.run_id IS NOT NULL)          AS run_finished,
		       MIN(e.recorded_at)                 AS started_at
		FROM deletion_events e
		LEFT JOIN deletion_runs r ON r.run_id = e.run_id
		GROUP BY e.run_id, e.account_id
		HAVING SUM(e.event IN ('account_deleted', 'abandoned')) = 0
		ORDER BY MIN(e.seq)
	`)
	if err != nil {
		return nil, fmt.Errorf("sagalog: query unfinished: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e         Entry
			docsDone  int
			finished  int
			startedAt string
		)
		if err := rows.Scan(&e.RunID, &e.AccountID, &docsDone, &finished, &startedAt); err != nil {
			return nil, fmt.Errorf("sagalog: scan: %w", err)
		}
		e.DocumentsDeleted = docsDone == 1
		e.RunFinished = finished == 1
		if t, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			e.StartedAt = t
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sagalog: iterate: %w", err)
	}
	return out, nil
}
