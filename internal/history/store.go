package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, openError(cleanPath, "ping sqlite history", err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, openError(cleanPath, "initialize sqlite schema", err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// SaveRun stores the run and its file results in one transaction. A run
// without an ID is assigned a fresh one, which is returned.
func (s *Store) SaveRun(run Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Trigger == "" {
		run.Trigger = TriggerBuild
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = run.StartedAt
	}
	if run.Outcome == "" {
		run.Outcome = OutcomeOK
		if run.Failed > 0 {
			run.Outcome = OutcomeFailed
		}
	}

	err := s.withRetry("save run", func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`
INSERT INTO runs (
  id, trigger_name, commit_hash, started_utc, finished_utc, source, out_dir,
  transpiled_count, copied_count, fresh_count, skipped_count, ignored_count, failed_count, outcome
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
			run.ID,
			run.Trigger,
			run.CommitHash,
			run.StartedAt.UTC().Format(time.RFC3339Nano),
			run.FinishedAt.UTC().Format(time.RFC3339Nano),
			run.Source,
			run.OutDir,
			run.Transpiled,
			run.Copied,
			run.Fresh,
			run.Skipped,
			run.Ignored,
			run.Failed,
			run.Outcome,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
		for _, f := range run.Files {
			if _, err := tx.Exec(`
INSERT INTO file_results (run_id, path, status, error, duration_ms) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(run_id, path) DO UPDATE SET
  status=excluded.status,
  error=excluded.error,
  duration_ms=excluded.duration_ms
`, run.ID, f.Path, f.Status, f.Error, f.Duration.Milliseconds()); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

// RecentRuns returns up to limit runs, newest first. File results are not loaded.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 10
	}

	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.Query(`
SELECT
  id, trigger_name, commit_hash, started_utc, finished_utc, source, out_dir,
  transpiled_count, copied_count, fresh_count, skipped_count, ignored_count, failed_count, outcome
FROM runs
ORDER BY started_utc DESC, id ASC
LIMIT ?
`, limit)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0, limit)
	for rows.Next() {
		var (
			startedRaw  string
			finishedRaw string
			run         Run
		)
		if err := rows.Scan(
			&run.ID,
			&run.Trigger,
			&run.CommitHash,
			&startedRaw,
			&finishedRaw,
			&run.Source,
			&run.OutDir,
			&run.Transpiled,
			&run.Copied,
			&run.Fresh,
			&run.Skipped,
			&run.Ignored,
			&run.Failed,
			&run.Outcome,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		if run.StartedAt, err = parseTime(startedRaw); err != nil {
			return nil, err
		}
		if run.FinishedAt, err = parseTime(finishedRaw); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

// RunFiles returns the file results recorded for a run, ordered by path.
func (s *Store) RunFiles(runID string) ([]FileResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("load file results", func() error {
		var qErr error
		rows, qErr = s.db.Query(`
SELECT path, status, error, duration_ms FROM file_results WHERE run_id = ? ORDER BY path ASC
`, runID)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]FileResult, 0)
	for rows.Next() {
		var (
			f  FileResult
			ms int64
		)
		if err := rows.Scan(&f.Path, &f.Status, &f.Error, &ms); err != nil {
			return nil, fmt.Errorf("scan file result row: %w", err)
		}
		f.Duration = time.Duration(ms) * time.Millisecond
		results = append(results, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file result rows: %w", err)
	}
	return results, nil
}

func parseTime(raw string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse run timestamp %q: %w", raw, err)
	}
	return ts.UTC(), nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func openError(path, op string, err error) error {
	if IsCorruptError(err) {
		return fmt.Errorf("history database %q is corrupt, remove it to start a new journal: %w", path, err)
	}
	return fmt.Errorf("%s %q: %w", op, path, err)
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
