// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger keeps a SQLite history of batch runs and the outcome of
// every document in them.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pdfbatch/internal/batch"
	"github.com/pdiddy/pdfbatch/internal/cache"
	"github.com/pdiddy/pdfbatch/pkg/types"
)

// Ledger is an open history database.
type Ledger struct {
	db *sql.DB
}

// Run is one recorded batch run.
type Run struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Input     string
	OutRoot   string
	Method    types.Method
	Converted int
	Failed    int
	Skipped   int
}

// Open opens or creates the database at path, creating its directory and
// schema as needed.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	l := &Ledger{db: db}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			duration_ns INTEGER NOT NULL,
			input TEXT NOT NULL,
			out_root TEXT NOT NULL,
			method TEXT NOT NULL,
			converted INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			skipped INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			path TEXT NOT NULL,
			rel_dir TEXT,
			status TEXT NOT NULL,
			duration_ns INTEGER NOT NULL,
			error TEXT,
			cache TEXT,
			artifact TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_run_id ON documents(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_path ON documents(path)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores a run and its documents in one transaction.
func (l *Ledger) Record(ctx context.Context, s batch.Summary) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, duration_ns, input, out_root, method, converted, failed, skipped)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.RunID, s.StartedAt.UTC().Format(time.RFC3339Nano), int64(s.Duration), s.Input, s.OutRoot,
		string(s.Method), s.Converted(), s.Failed(), s.Skipped(),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", s.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (run_id, seq, path, rel_dir, status, duration_ns, error, cache, artifact)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing document insert: %w", err)
	}
	defer stmt.Close()
	for i, e := range s.Entries {
		if _, err := stmt.ExecContext(ctx, s.RunID, i, e.Path, e.RelDir, string(e.Status),
			int64(e.Duration), e.Error, string(e.Cache), e.Artifact); err != nil {
			return fmt.Errorf("inserting document %s: %w", e.Path, err)
		}
	}
	return tx.Commit()
}

// Recent returns up to limit runs, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, started_at, duration_ns, input, out_root, method, converted, failed, skipped
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			started  string
			duration int64
			method   string
		)
		if err := rows.Scan(&r.ID, &started, &duration, &r.Input, &r.OutRoot, &method,
			&r.Converted, &r.Failed, &r.Skipped); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("run %s: parsing started_at: %w", r.ID, err)
		}
		r.Duration = time.Duration(duration)
		r.Method = types.Method(method)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Documents returns the entries of run id in discovery order.
func (l *Ledger) Documents(ctx context.Context, id string) ([]batch.Entry, error) {
	return l.entries(ctx, `WHERE run_id = ? ORDER BY seq`, id)
}

// History returns every recorded outcome for the document at path, newest
// run first. Documents are recorded by absolute path, so a relative path is
// resolved against the working directory first.
func (l *Ledger) History(ctx context.Context, path string) ([]batch.Entry, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	return l.entries(ctx, `WHERE path = ? ORDER BY rowid DESC`, abs)
}

func (l *Ledger) entries(ctx context.Context, where string, arg any) ([]batch.Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT path, rel_dir, status, duration_ns, error, cache, artifact FROM documents `+where, arg)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var out []batch.Entry
	for rows.Next() {
		var (
			e                      batch.Entry
			relDir, errText, state sql.NullString
			artifact               sql.NullString
			status                 string
			duration               int64
		)
		if err := rows.Scan(&e.Path, &relDir, &status, &duration, &errText, &state, &artifact); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		e.RelDir = relDir.String
		e.Status = types.DocStatus(status)
		e.Duration = time.Duration(duration)
		e.Error = errText.String
		e.Cache = cache.State(state.String)
		e.Artifact = artifact.String
		out = append(out, e)
	}
	return out, rows.Err()
}
