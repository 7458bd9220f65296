// Package archive records completed runs in Postgres so board history can be
// queried after the snapshot file has moved on. Archiving is best-effort: the
// caller logs failures and finishes the run regardless.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"boardwatch/internal/diff"
)

func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(20)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

const schema = `CREATE TABLE IF NOT EXISTS board_runs (
	run_id        TEXT PRIMARY KEY,
	completed_at  TIMESTAMPTZ NOT NULL,
	first_run     BOOLEAN NOT NULL,
	item_count    INTEGER NOT NULL,
	added_count   INTEGER NOT NULL,
	removed_count INTEGER NOT NULL,
	changed_count INTEGER NOT NULL,
	closed_count  INTEGER NOT NULL,
	diff          JSONB NOT NULL,
	summary       TEXT NOT NULL
)`

// EnsureSchema creates the runs table when it does not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure board_runs table: %w", err)
	}
	return nil
}

// RunRecord is one archived pipeline run.
type RunRecord struct {
	RunID       string
	CompletedAt time.Time
	FirstRun    bool
	ItemCount   int
	Diff        diff.Diff
	Summary     string
}

// Archive writes run records.
type Archive struct {
	db *sql.DB
}

func New(db *sql.DB) *Archive {
	return &Archive{db: db}
}

// RecordRun inserts one completed run. Re-recording the same run id replaces
// the previous row so a re-executed run does not fail here.
func (a *Archive) RecordRun(ctx context.Context, record RunRecord) error {
	diffJSON, err := json.Marshal(record.Diff)
	if err != nil {
		return fmt.Errorf("encode diff: %w", err)
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO board_runs (
			run_id, completed_at, first_run, item_count,
			added_count, removed_count, changed_count, closed_count,
			diff, summary
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (run_id) DO UPDATE SET
			completed_at = EXCLUDED.completed_at,
			first_run = EXCLUDED.first_run,
			item_count = EXCLUDED.item_count,
			added_count = EXCLUDED.added_count,
			removed_count = EXCLUDED.removed_count,
			changed_count = EXCLUDED.changed_count,
			closed_count = EXCLUDED.closed_count,
			diff = EXCLUDED.diff,
			summary = EXCLUDED.summary`,
		record.RunID, record.CompletedAt, record.FirstRun, record.ItemCount,
		len(record.Diff.Added), len(record.Diff.Removed), len(record.Diff.Changed), len(record.Diff.Closed),
		diffJSON, record.Summary,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", record.RunID, err)
	}
	return nil
}

// RecentRuns returns the most recent archived runs, newest first.
func (a *Archive) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT run_id, completed_at, first_run, item_count, diff, summary
		FROM board_runs
		ORDER BY completed_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var record RunRecord
		var diffJSON []byte
		if err := rows.Scan(&record.RunID, &record.CompletedAt, &record.FirstRun, &record.ItemCount, &diffJSON, &record.Summary); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if err := json.Unmarshal(diffJSON, &record.Diff); err != nil {
			return nil, fmt.Errorf("decode diff for run %s: %w", record.RunID, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return records, nil
}
