package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rezkam/mono/internal/domain"
)

// Store implements storage.Storage against a single `jobs` table, one
// transaction per Save, matching the upsert-then-prune protocol of §4.B.
type Store struct {
	pool *pgxpool.Pool
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// finalizeTx rolls back on error, commits on success — identical shape to
// the teacher's finalizeTx.
func finalizeTx(ctx context.Context, tx pgx.Tx, err *error) {
	if *err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			slog.ErrorContext(ctx, "rollback failed", "original_error", *err, "rollback_error", rbErr)
			*err = fmt.Errorf("transaction failed: %w (rollback error: %v)", *err, rbErr)
		}
		return
	}
	*err = tx.Commit(ctx)
	if *err != nil {
		slog.ErrorContext(ctx, "transaction commit failed", "error", *err)
	}
}

func (s *Store) executeInTransaction(ctx context.Context, operation string, fn func(tx pgx.Tx) error) (err error) {
	start := time.Now().UTC()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		finalizeTx(ctx, tx, &err)
		if err == nil {
			slog.DebugContext(ctx, "transaction completed", "operation", operation, "duration_ms", time.Since(start).Milliseconds())
		}
	}()

	err = fn(tx)
	return
}

// Save upserts every job in cache and deletes every row not present in
// cache, all inside one transaction.
func (s *Store) Save(ctx context.Context, cache map[string]domain.Job) error {
	return s.executeInTransaction(ctx, "save", func(tx pgx.Tx) error {
		for _, j := range cache {
			if err := upsert(ctx, tx, j); err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("%w: %v", domain.ErrDuplicateContent, err)
				}
				return fmt.Errorf("upsert job %s: %w", j.JobID, err)
			}
		}

		ids := make([]string, 0, len(cache))
		for id := range cache {
			ids = append(ids, id)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM jobs WHERE NOT (job_id = ANY($1))`, ids); err != nil {
			return fmt.Errorf("prune jobs: %w", err)
		}
		return nil
	})
}

func upsert(ctx context.Context, tx pgx.Tx, j domain.Job) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO jobs (job_id, account_id, content, scheduled_time, priority, status,
			platform, max_retries, retry_count, created_at, started_at, completed_at,
			error, thread_id, status_message, link_aff)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (job_id) DO UPDATE SET
			account_id = EXCLUDED.account_id,
			content = EXCLUDED.content,
			scheduled_time = EXCLUDED.scheduled_time,
			priority = EXCLUDED.priority,
			status = EXCLUDED.status,
			platform = EXCLUDED.platform,
			max_retries = EXCLUDED.max_retries,
			retry_count = EXCLUDED.retry_count,
			started_at = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at,
			error = EXCLUDED.error,
			thread_id = EXCLUDED.thread_id,
			status_message = EXCLUDED.status_message,
			link_aff = EXCLUDED.link_aff
	`,
		j.JobID, j.AccountID, j.Content, j.Scheduled, string(j.Priority), string(j.Status),
		string(j.Platform), j.MaxRetries, j.RetryCount, j.CreatedAt, j.StartedAt, j.CompletedAt,
		nullableString(j.Error), nullableString(j.ThreadID), nullableString(j.StatusMessage), nullableString(j.LinkAff),
	)
	return err
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return false
}

const selectColumns = `job_id, account_id, content, scheduled_time, priority, status, platform,
	max_retries, retry_count, created_at, started_at, completed_at, error, thread_id,
	status_message, link_aff`

func scanJob(row pgx.Row) (domain.Job, error) {
	var (
		j                                        domain.Job
		priority, status, platform               string
		errStr, threadID, statusMessage, linkAff *string
	)
	err := row.Scan(
		&j.JobID, &j.AccountID, &j.Content, &j.Scheduled, &priority, &status, &platform,
		&j.MaxRetries, &j.RetryCount, &j.CreatedAt, &j.StartedAt, &j.CompletedAt,
		&errStr, &threadID, &statusMessage, &linkAff,
	)
	if err != nil {
		return domain.Job{}, err
	}
	j.Priority = domain.Priority(priority)
	j.Status = domain.Status(status)
	j.Platform = domain.Platform(platform)
	if errStr != nil {
		j.Error = *errStr
	}
	if threadID != nil {
		j.ThreadID = *threadID
	}
	if statusMessage != nil {
		j.StatusMessage = *statusMessage
	}
	if linkAff != nil {
		j.LinkAff = *linkAff
	}
	return j, nil
}

func (s *Store) LoadAll(ctx context.Context) (map[string]domain.Job, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+selectColumns+` FROM jobs`)
	if err != nil {
		return nil, fmt.Errorf("load all: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Job)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out[j.JobID] = j
	}
	return out, rows.Err()
}

func (s *Store) GetByID(ctx context.Context, jobID string) (domain.Job, bool, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM jobs WHERE job_id = $1`, jobID)
	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Job{}, false, nil
	}
	if err != nil {
		return domain.Job{}, false, fmt.Errorf("get by id: %w", err)
	}
	return j, true, nil
}

func (s *Store) ByStatus(ctx context.Context, status domain.Status, limit int) ([]domain.Job, error) {
	query := `SELECT ` + selectColumns + ` FROM jobs WHERE status = $1`
	args := []any{string(status)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("by status: %w", err)
	}
	defer rows.Close()

	var out []domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *Store) ByAccount(ctx context.Context, accountID string, status domain.Status) ([]domain.Job, error) {
	query := `SELECT ` + selectColumns + ` FROM jobs WHERE account_id = $1`
	args := []any{accountID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("by account: %w", err)
	}
	defer rows.Close()

	var out []domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}
