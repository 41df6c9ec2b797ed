package runstore

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	apperrors "git.home.luguber.info/inful/apidoc/internal/foundation/errors"
	"git.home.luguber.info/inful/apidoc/internal/diag"
)

// ErrNotFound is returned when no run exists for the requested id.
var ErrNotFound = errors.New("run not found")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens or creates the run history database.
// Use ":memory:" for an in-memory database, or a file path for persistence.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, apperrors.WrapError(err, apperrors.CategoryStore, "create history directory").Build()
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryStore, "open history database").Build()
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, apperrors.WrapError(err, apperrors.CategoryStore, "initialize history schema").Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		revision TEXT,
		outcome TEXT NOT NULL,
		formats TEXT NOT NULL,
		records INTEGER NOT NULL,
		symbols INTEGER NOT NULL,
		excluded INTEGER NOT NULL,
		diagnostics INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS diagnostics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		symbol TEXT,
		detail TEXT,
		origin TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_diag_run ON diagnostics(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveRun persists a run summary together with its diagnostics.
func (s *SQLiteStore) SaveRun(ctx context.Context, run Run, diags []diag.Diagnostic) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStore, "begin transaction").Build()
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, revision, outcome, formats, records, symbols, excluded, diagnostics)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.Unix(), run.FinishedAt.Unix(), run.Revision, run.Outcome,
		strings.Join(run.Formats, ","), run.Records, run.Symbols, run.Excluded, len(diags),
	)
	if err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStore, "insert run").
			WithContext("run_id", run.ID).
			Build()
	}

	for _, d := range diags {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO diagnostics (run_id, kind, symbol, detail, origin) VALUES (?, ?, ?, ?, ?)",
			run.ID, string(d.Kind), d.Symbol, d.Detail, d.Origin,
		)
		if err != nil {
			return apperrors.WrapError(err, apperrors.CategoryStore, "insert diagnostic").
				WithContext("run_id", run.ID).
				Build()
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStore, "commit run").Build()
	}
	return nil
}

// GetRun retrieves one run and its diagnostics.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (Run, []diag.Diagnostic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, started_at, finished_at, revision, outcome, formats, records, symbols, excluded, diagnostics FROM runs WHERE id = ?",
		id,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, nil, ErrNotFound
	}
	if err != nil {
		return Run{}, nil, apperrors.WrapError(err, apperrors.CategoryStore, "query run").Build()
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT kind, symbol, detail, origin FROM diagnostics WHERE run_id = ? ORDER BY id",
		id,
	)
	if err != nil {
		return Run{}, nil, apperrors.WrapError(err, apperrors.CategoryStore, "query diagnostics").Build()
	}
	defer rows.Close()

	var diags []diag.Diagnostic
	for rows.Next() {
		var d diag.Diagnostic
		var kind string
		if err := rows.Scan(&kind, &d.Symbol, &d.Detail, &d.Origin); err != nil {
			return Run{}, nil, apperrors.WrapError(err, apperrors.CategoryStore, "scan diagnostic").Build()
		}
		d.Kind = diag.Kind(kind)
		diags = append(diags, d)
	}
	return run, diags, rows.Err()
}

// ListRuns retrieves the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, started_at, finished_at, revision, outcome, formats, records, symbols, excluded, diagnostics FROM runs ORDER BY started_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryStore, "query runs").Build()
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, apperrors.WrapError(err, apperrors.CategoryStore, "scan run").Build()
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var started, finished int64
	var formats string
	err := row.Scan(&run.ID, &started, &finished, &run.Revision, &run.Outcome,
		&formats, &run.Records, &run.Symbols, &run.Excluded, &run.Diagnostics)
	if err != nil {
		return Run{}, err
	}
	run.StartedAt = time.Unix(started, 0).UTC()
	run.FinishedAt = time.Unix(finished, 0).UTC()
	if formats != "" {
		run.Formats = strings.Split(formats, ",")
	}
	return run, nil
}
