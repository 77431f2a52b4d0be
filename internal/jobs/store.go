package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/Aman-CERP/semdex/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
    job_id          TEXT PRIMARY KEY,
    collection_name TEXT NOT NULL,
    upload_id       TEXT NOT NULL,
    status          TEXT NOT NULL,
    total_records   INTEGER DEFAULT 0,
    processed       INTEGER DEFAULT 0,
    failed          INTEGER DEFAULT 0,
    error_sample    TEXT,
    created_at      TEXT,
    updated_at      TEXT
);
`

// Store persists job rows in SQLite. It exclusively owns the jobs table;
// the pipeline mutates job state only through Upsert.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// NewStore opens (or creates) the job database at path.
// An empty path opens an in-memory store for testing.
// WAL mode allows a status reader to coexist with the single writer.
func NewStore(path string) (*Store, error) {
	dsn := ":memory:"
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeJobStore, err)
	}

	// Single writer prevents lock contention under modernc.org/sqlite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// DSN params may be ignored by modernc.org/sqlite; set pragmas explicitly.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(errors.ErrCodeJobStore, err)
	}

	return &Store{db: db}, nil
}

// Upsert inserts or unconditionally overwrites a job row. Re-submitting the
// same job id overwrites rather than duplicating; created_at is kept from
// the first insert. The call is idempotent for identical arguments.
func (s *Store) Upsert(ctx context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New(errors.ErrCodeJobStore, "job store is closed", nil)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO jobs (job_id, collection_name, upload_id, status,
                          total_records, processed, failed, error_sample,
                          created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(job_id) DO UPDATE SET
            status        = excluded.status,
            total_records = excluded.total_records,
            processed     = excluded.processed,
            failed        = excluded.failed,
            error_sample  = excluded.error_sample,
            updated_at    = excluded.updated_at`,
		job.JobID, job.CollectionName, job.UploadID, string(job.Status),
		job.TotalRecords, job.Processed, job.Failed, nullable(job.ErrorSample),
		now, now)
	if err != nil {
		return errors.Wrap(errors.ErrCodeJobStore, err)
	}
	return nil
}

// Get returns the job row, or nil if no such job exists.
func (s *Store) Get(ctx context.Context, jobID string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT job_id, collection_name, upload_id, status, total_records,
                processed, failed, error_sample, created_at, updated_at
         FROM jobs WHERE job_id = ?`, jobID)

	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeJobStore, err)
	}
	return job, nil
}

// Cancel marks a queued or processing job as cancelled. Returns true on
// success and false, without mutating, when the job is absent or already
// terminal. Guarded in a single statement so a concurrent finalization
// cannot be overwritten.
func (s *Store) Cancel(ctx context.Context, jobID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, updated_at = ?
         WHERE job_id = ? AND status IN (?, ?)`,
		string(StatusCancelled), now, jobID,
		string(StatusQueued), string(StatusProcessing))
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeJobStore, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeJobStore, err)
	}
	return n > 0, nil
}

// ListActive returns all queued or processing jobs, newest first.
func (s *Store) ListActive(ctx context.Context) ([]*Job, error) {
	return s.list(ctx, `
        SELECT job_id, collection_name, upload_id, status, total_records,
               processed, failed, error_sample, created_at, updated_at
        FROM jobs WHERE status IN (?, ?)
        ORDER BY created_at DESC`,
		string(StatusQueued), string(StatusProcessing))
}

// ListRecent returns up to limit jobs: processing first, then queued, then
// everything else by most recent update.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.list(ctx, `
        SELECT job_id, collection_name, upload_id, status, total_records,
               processed, failed, error_sample, created_at, updated_at
        FROM jobs
        ORDER BY
            CASE status
                WHEN 'processing' THEN 0
                WHEN 'queued' THEN 1
                ELSE 2
            END,
            updated_at DESC
        LIMIT ?`, limit)
}

// ListForCollection returns the jobs targeting a collection, newest first.
func (s *Store) ListForCollection(ctx context.Context, collection string) ([]*Job, error) {
	return s.list(ctx, `
        SELECT job_id, collection_name, upload_id, status, total_records,
               processed, failed, error_sample, created_at, updated_at
        FROM jobs WHERE collection_name = ?
        ORDER BY created_at DESC`, collection)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeJobStore, err)
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeJobStore, err)
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanJob(s scanner) (*Job, error) {
	var (
		job         Job
		status      string
		errorSample sql.NullString
		createdAt   string
		updatedAt   string
	)
	err := s.Scan(&job.JobID, &job.CollectionName, &job.UploadID, &status,
		&job.TotalRecords, &job.Processed, &job.Failed, &errorSample,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	job.Status = Status(status)
	job.ErrorSample = errorSample.String
	job.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	job.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &job, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
