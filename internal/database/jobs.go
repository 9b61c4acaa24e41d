package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rentline/internal/models"
)

func (db *DB) CreateJob(ctx context.Context, rec *models.JobRecord) error {
	query := `INSERT INTO queue_jobs (job_id, queue, name, payload, status, attempts, last_error, created_at, next_retry_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.conn.ExecContext(ctx, query,
		rec.JobID,
		rec.Queue,
		rec.Name,
		rec.Payload,
		rec.Status,
		rec.Attempts,
		rec.LastError,
		now,
		rec.NextRetryAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	rec.ID = id
	rec.CreatedAt = now

	return nil
}

// DueJobs returns pending jobs and retries whose backoff has elapsed.
func (db *DB) DueJobs(ctx context.Context, queue string, limit int) ([]models.JobRecord, error) {
	query := `SELECT id, job_id, queue, name, payload, status, attempts, last_error, created_at, processed_at, next_retry_at
              FROM queue_jobs
              WHERE queue = ? AND status IN ('pending', 'retry') AND (next_retry_at IS NULL OR next_retry_at <= ?)
              ORDER BY created_at ASC LIMIT ?`
	rows, err := db.conn.QueryContext(ctx, query, queue, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get due jobs: %w", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

func (db *DB) UpdateJobStatus(ctx context.Context, id int64, status, lastError string, nextRetryAt *time.Time) error {
	var query string
	var args []interface{}
	now := time.Now()

	switch status {
	case models.JobStatusRetry:
		query = `UPDATE queue_jobs SET status = ?, last_error = ?, next_retry_at = ?, attempts = attempts + 1 WHERE id = ?`
		args = []interface{}{status, lastError, nextRetryAt, id}
	case models.JobStatusCompleted, models.JobStatusFailed:
		query = `UPDATE queue_jobs SET status = ?, last_error = ?, next_retry_at = ?, processed_at = ?, attempts = attempts + 1 WHERE id = ?`
		args = []interface{}{status, lastError, nextRetryAt, &now, id}
	default:
		query = `UPDATE queue_jobs SET status = ?, last_error = ?, next_retry_at = ? WHERE id = ?`
		args = []interface{}{status, lastError, nextRetryAt, id}
	}

	if _, err := db.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return nil
}

// TrimHistory enforces the bounded retention contract: only the newest
// keepCompleted completed and keepFailed failed records survive per queue.
func (db *DB) TrimHistory(ctx context.Context, queue string, keepCompleted, keepFailed int) error {
	if err := db.trimStatus(ctx, queue, models.JobStatusCompleted, keepCompleted); err != nil {
		return err
	}
	return db.trimStatus(ctx, queue, models.JobStatusFailed, keepFailed)
}

func (db *DB) trimStatus(ctx context.Context, queue, status string, keep int) error {
	if keep < 0 {
		return nil
	}
	query := `DELETE FROM queue_jobs
              WHERE queue = ? AND status = ? AND id NOT IN (
                  SELECT id FROM queue_jobs WHERE queue = ? AND status = ? ORDER BY id DESC LIMIT ?
              )`
	if _, err := db.conn.ExecContext(ctx, query, queue, status, queue, status, keep); err != nil {
		return fmt.Errorf("failed to trim %s history for %s: %w", status, queue, err)
	}
	return nil
}

// FailedJobs returns the retained permanently failed records for inspection.
func (db *DB) FailedJobs(ctx context.Context, queue string) ([]models.JobRecord, error) {
	query := `SELECT id, job_id, queue, name, payload, status, attempts, last_error, created_at, processed_at, next_retry_at
              FROM queue_jobs WHERE queue = ? AND status = 'failed' ORDER BY created_at DESC`
	rows, err := db.conn.QueryContext(ctx, query, queue)
	if err != nil {
		return nil, fmt.Errorf("failed to get failed jobs: %w", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

// CountJobs returns how many records a queue holds in a given status.
func (db *DB) CountJobs(ctx context.Context, queue, status string) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM queue_jobs WHERE queue = ? AND status = ?`, queue, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return count, nil
}

func scanJobs(rows *sql.Rows) ([]models.JobRecord, error) {
	var jobs []models.JobRecord
	for rows.Next() {
		var j models.JobRecord
		var processedAt, nextRetryAt sql.NullTime
		err := rows.Scan(
			&j.ID, &j.JobID, &j.Queue, &j.Name, &j.Payload, &j.Status,
			&j.Attempts, &j.LastError, &j.CreatedAt, &processedAt, &nextRetryAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job record: %w", err)
		}
		if processedAt.Valid {
			j.ProcessedAt = &processedAt.Time
		}
		if nextRetryAt.Valid {
			j.NextRetryAt = &nextRetryAt.Time
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}
