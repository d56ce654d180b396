// Package sqlite is a pure-Go relational Storage backend for local
// development and CI, speaking the same schema and transaction protocol as
// internal/storage/postgres but over modernc.org/sqlite — a direct
// dependency the teacher carries but never wires into its own (Postgres-only)
// code paths.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/rezkam/mono/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	job_id         TEXT PRIMARY KEY,
	account_id     TEXT NOT NULL DEFAULT '',
	content        TEXT NOT NULL,
	scheduled_time TEXT NOT NULL,
	priority       TEXT NOT NULL DEFAULT 'NORMAL',
	status         TEXT NOT NULL DEFAULT 'SCHEDULED',
	platform       TEXT NOT NULL DEFAULT 'THREADS',
	max_retries    INTEGER NOT NULL DEFAULT 0,
	retry_count    INTEGER NOT NULL DEFAULT 0,
	created_at     TEXT NOT NULL,
	started_at     TEXT,
	completed_at   TEXT,
	error          TEXT,
	thread_id      TEXT,
	status_message TEXT,
	link_aff       TEXT
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs (status);
CREATE INDEX IF NOT EXISTS idx_jobs_account_status ON jobs (account_id, status);
`

const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"

// Store is a modernc.org/sqlite-backed implementation of storage.Storage.
type Store struct {
	db *sql.DB
}

// New opens (creating if absent) a sqlite database at path and ensures the
// schema exists. Use ":memory:" for ephemeral test databases.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite storage: open: %w", err)
	}
	// A single writer connection avoids SQLITE_BUSY under our
	// single-writer-process model (§5 Non-goals excludes multi-writer
	// coordination anyway).
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite storage: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Save(ctx context.Context, cache map[string]domain.Job) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite storage: begin: %w", err)
	}
	defer tx.Rollback()

	for _, j := range cache {
		if err := upsert(ctx, tx, j); err != nil {
			return fmt.Errorf("sqlite storage: upsert %s: %w", j.JobID, err)
		}
	}

	ids := make([]string, 0, len(cache))
	for id := range cache {
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM jobs`); err != nil {
			return fmt.Errorf("sqlite storage: delete all: %w", err)
		}
	} else {
		query, args := deleteMissingQuery(ids)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("sqlite storage: prune: %w", err)
		}
	}

	return tx.Commit()
}

func deleteMissingQuery(ids []string) (string, []any) {
	placeholders := ""
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		args[i] = id
	}
	return fmt.Sprintf(`DELETE FROM jobs WHERE job_id NOT IN (%s)`, placeholders), args
}

func upsert(ctx context.Context, tx *sql.Tx, j domain.Job) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO jobs (job_id, account_id, content, scheduled_time, priority, status,
			platform, max_retries, retry_count, created_at, started_at, completed_at,
			error, thread_id, status_message, link_aff)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(job_id) DO UPDATE SET
			account_id=excluded.account_id, content=excluded.content,
			scheduled_time=excluded.scheduled_time, priority=excluded.priority,
			status=excluded.status, platform=excluded.platform,
			max_retries=excluded.max_retries, retry_count=excluded.retry_count,
			started_at=excluded.started_at, completed_at=excluded.completed_at,
			error=excluded.error, thread_id=excluded.thread_id,
			status_message=excluded.status_message, link_aff=excluded.link_aff
	`,
		j.JobID, j.AccountID, j.Content, formatTime(&j.Scheduled), string(j.Priority), string(j.Status),
		string(j.Platform), j.MaxRetries, j.RetryCount, formatTime(&j.CreatedAt), formatTime(j.StartedAt), formatTime(j.CompletedAt),
		nullable(j.Error), nullable(j.ThreadID), nullable(j.StatusMessage), nullable(j.LinkAff),
	)
	return err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

const selectColumns = `job_id, account_id, content, scheduled_time, priority, status, platform,
	max_retries, retry_count, created_at, started_at, completed_at, error, thread_id,
	status_message, link_aff`

func (s *Store) LoadAll(ctx context.Context) (map[string]domain.Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM jobs`)
	if err != nil {
		return nil, fmt.Errorf("sqlite storage: load all: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Job)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite storage: scan: %w", err)
		}
		out[j.JobID] = j
	}
	return out, rows.Err()
}

func (s *Store) GetByID(ctx context.Context, jobID string) (domain.Job, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM jobs WHERE job_id = ?`, jobID)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Job{}, false, nil
	}
	if err != nil {
		return domain.Job{}, false, fmt.Errorf("sqlite storage: get by id: %w", err)
	}
	return j, true, nil
}

func (s *Store) ByStatus(ctx context.Context, status domain.Status, limit int) ([]domain.Job, error) {
	query := `SELECT ` + selectColumns + ` FROM jobs WHERE status = ?`
	args := []any{string(status)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite storage: by status: %w", err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (s *Store) ByAccount(ctx context.Context, accountID string, status domain.Status) ([]domain.Job, error) {
	query := `SELECT ` + selectColumns + ` FROM jobs WHERE account_id = ?`
	args := []any{accountID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite storage: by account: %w", err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

type scannable interface {
	Scan(dest ...any) error
}

func scanJob(row scannable) (domain.Job, error) {
	var (
		j                                                           domain.Job
		priority, status, platform, scheduled, created              string
		started, completed, errStr, threadID, statusMsg, linkAff    sql.NullString
	)
	err := row.Scan(
		&j.JobID, &j.AccountID, &j.Content, &scheduled, &priority, &status, &platform,
		&j.MaxRetries, &j.RetryCount, &created, &started, &completed,
		&errStr, &threadID, &statusMsg, &linkAff,
	)
	if err != nil {
		return domain.Job{}, err
	}
	j.Priority = domain.Priority(priority)
	j.Status = domain.Status(status)
	j.Platform = domain.Platform(platform)

	if t, err := parseTime(scheduled); err == nil {
		j.Scheduled = t
	}
	if t, err := parseTime(created); err == nil {
		j.CreatedAt = t
	}
	if started.Valid {
		if t, err := parseTime(started.String); err == nil {
			j.StartedAt = &t
		}
	}
	if completed.Valid {
		if t, err := parseTime(completed.String); err == nil {
			j.CompletedAt = &t
		}
	}
	j.Error = errStr.String
	j.ThreadID = threadID.String
	j.StatusMessage = statusMsg.String
	j.LinkAff = linkAff.String
	return j, nil
}

func scanJobs(rows *sql.Rows) ([]domain.Job, error) {
	var out []domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite storage: scan: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}
