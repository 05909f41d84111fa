// Package history keeps a SQLite log of selection runs and the tools each
// run attempted, and exports normalized datasets for ad-hoc queries.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcc4mcc/mcc4mcc/internal/selection"
	_ "modernc.org/sqlite"
)

// ErrUnknownRun is returned when finishing a run that was never started.
var ErrUnknownRun = errors.New("unknown run")

// Store is a history database.
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// Open opens or creates the database at path. The parent directory is
// created if needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		examination TEXT NOT NULL,
		instance TEXT NOT NULL,
		policy TEXT NOT NULL,
		prefix TEXT NOT NULL,
		outcome TEXT,
		tool TEXT,
		started_at TEXT NOT NULL,
		finished_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);

	CREATE TABLE IF NOT EXISTS attempts (
		run_id TEXT NOT NULL,
		ordinal INTEGER NOT NULL,
		tool TEXT NOT NULL,
		exit_code INTEGER NOT NULL,
		error TEXT,
		recorded_at TEXT NOT NULL,
		PRIMARY KEY (run_id, ordinal),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RunInfo describes a run when it starts.
type RunInfo struct {
	Examination string
	Instance    string
	Policy      selection.Policy
	Prefix      string
}

// Run is a started run. It records attempts for the selection engine.
type Run struct {
	ID    string
	store *Store
}

// StartRun inserts a new run and returns its handle.
func (s *Store) StartRun(ctx context.Context, info RunInfo) (*Run, error) {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
	INSERT INTO runs (id, examination, instance, policy, prefix, started_at)
	VALUES (?, ?, ?, ?, ?, ?)`,
		id, info.Examination, info.Instance, info.Policy.String(), info.Prefix, s.timestamp(),
	)
	if err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}
	return &Run{ID: id, store: s}, nil
}

// RecordAttempt implements selection.Recorder.
func (r *Run) RecordAttempt(ctx context.Context, a selection.Attempt) error {
	var errText *string
	if a.Err != nil {
		msg := a.Err.Error()
		errText = &msg
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	_, err := r.store.db.ExecContext(ctx, `
	INSERT INTO attempts (run_id, ordinal, tool, exit_code, error, recorded_at)
	VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, a.Ordinal, a.Tool, a.ExitCode, errText, r.store.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// Finish stores the terminal outcome of the run. tool is the successful
// tool, empty when none succeeded.
func (r *Run) Finish(ctx context.Context, outcome, tool string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	res, err := r.store.db.ExecContext(ctx, `
	UPDATE runs SET outcome = ?, tool = ?, finished_at = ? WHERE id = ?`,
		outcome, nullable(tool), r.store.timestamp(), r.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: %w", r.ID, ErrUnknownRun)
	}
	return nil
}

// RunSummary is one row of Recent.
type RunSummary struct {
	ID          string
	Examination string
	Instance    string
	Policy      string
	Prefix      string
	Outcome     string
	Tool        string
	Attempts    int
	StartedAt   time.Time
	FinishedAt  *time.Time
}

// Recent returns the n most recently started runs, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]RunSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
	SELECT r.id, r.examination, r.instance, r.policy, r.prefix,
		COALESCE(r.outcome, ''), COALESCE(r.tool, ''), r.started_at, r.finished_at,
		(SELECT COUNT(*) FROM attempts a WHERE a.run_id = r.id)
	FROM runs r
	ORDER BY r.started_at DESC
	LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			rs       RunSummary
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&rs.ID, &rs.Examination, &rs.Instance, &rs.Policy, &rs.Prefix,
			&rs.Outcome, &rs.Tool, &started, &finished, &rs.Attempts); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if rs.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if finished.Valid {
			t, err := time.Parse(time.RFC3339Nano, finished.String)
			if err != nil {
				return nil, fmt.Errorf("parse finished_at: %w", err)
			}
			rs.FinishedAt = &t
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

// Attempts returns the attempts of a run in order.
func (s *Store) Attempts(ctx context.Context, runID string) ([]selection.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
	SELECT ordinal, tool, exit_code, error FROM attempts WHERE run_id = ? ORDER BY ordinal`, runID)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []selection.Attempt
	for rows.Next() {
		var (
			a       selection.Attempt
			errText sql.NullString
		)
		if err := rows.Scan(&a.Ordinal, &a.Tool, &a.ExitCode, &errText); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if errText.Valid {
			a.Err = errors.New(errText.String)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
