package validate

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// History is a SQLite database of past runs.
type History struct {
	db *sql.DB
}

// RunRecord is a run as stored in the history.
type RunRecord struct {
	ID        string
	Started   time.Time
	Elapsed   time.Duration
	Grammar   string
	Total     int
	Succeeded int
	Failed    int
}

const historySchema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	started    DATETIME NOT NULL,
	elapsed_ns INTEGER NOT NULL,
	grammar    TEXT NOT NULL,
	total      INTEGER NOT NULL,
	succeeded  INTEGER NOT NULL,
	failed     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	path       TEXT NOT NULL,
	success    INTEGER NOT NULL,
	line       INTEGER,
	col        INTEGER,
	found      TEXT,
	message    TEXT,
	elapsed_ns INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started DESC);
CREATE INDEX IF NOT EXISTS idx_results_path ON results(path);
`

// OpenHistory opens or creates the history database at path.
func OpenHistory(ctx context.Context, path string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, ErrHistory.Wrap(err).With(slog.String("file", path))
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, ErrHistory.Wrap(err).With(slog.String("file", path))
	}

	if _, err := db.ExecContext(ctx, historySchema); err != nil {
		db.Close()

		return nil, ErrHistory.Wrap(err).With(slog.String("file", path))
	}

	return &History{db: db}, nil
}

// Close closes the database.
func (h *History) Close() error { return h.db.Close() }

// Record stores run and its results in one transaction.
func (h *History) Record(ctx context.Context, run *Run) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return ErrHistory.Wrap(err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started, elapsed_ns, grammar, total, succeeded, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID.String(), run.Started.UTC(), int64(run.Elapsed), run.Grammar,
		run.Summary.Total, run.Summary.Succeeded, run.Summary.Failed)
	if err != nil {
		return ErrHistory.Wrap(err).With(slog.String("run", run.ID.String()))
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO results (run_id, path, success, line, col, found, message, elapsed_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return ErrHistory.Wrap(err)
	}
	defer stmt.Close()

	for _, r := range run.Results {
		var line, col, found, message any

		switch {
		case r.Diagnostic != nil:
			line, col = r.Diagnostic.Line, r.Diagnostic.Column
			found, message = r.Diagnostic.Found, r.Diagnostic.Message
		case r.Err != nil:
			message = r.Err.Error()
		}

		_, err := stmt.ExecContext(ctx, run.ID.String(), r.Path, r.Success,
			line, col, found, message, int64(r.Elapsed))
		if err != nil {
			return ErrHistory.Wrap(err).With(slog.String("path", r.Path))
		}
	}

	if err := tx.Commit(); err != nil {
		return ErrHistory.Wrap(err)
	}

	return nil
}

// Recent returns up to limit runs, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, started, elapsed_ns, grammar, total, succeeded, failed
		FROM runs ORDER BY started DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, ErrHistory.Wrap(err)
	}
	defer rows.Close()

	var out []RunRecord

	for rows.Next() {
		var (
			rec     RunRecord
			elapsed int64
		)

		err := rows.Scan(&rec.ID, &rec.Started, &elapsed, &rec.Grammar,
			&rec.Total, &rec.Succeeded, &rec.Failed)
		if err != nil {
			return nil, ErrHistory.Wrap(err)
		}

		rec.Elapsed = time.Duration(elapsed)
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, ErrHistory.Wrap(err)
	}

	return out, nil
}

// Outcomes returns the success of each path recorded for a run.
func (h *History) Outcomes(ctx context.Context, runID string) (map[string]bool, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT path, success FROM results WHERE run_id = ?`, runID)
	if err != nil {
		return nil, ErrHistory.Wrap(err)
	}
	defer rows.Close()

	out := map[string]bool{}

	for rows.Next() {
		var (
			path    string
			success bool
		)

		if err := rows.Scan(&path, &success); err != nil {
			return nil, ErrHistory.Wrap(err)
		}

		out[path] = success
	}

	if err := rows.Err(); err != nil {
		return nil, ErrHistory.Wrap(err)
	}

	return out, nil
}
