package models

import "time"

// JobRecord is a journal row for a queued job. The journal is the durable
// side of the queue: it tracks attempts, retry scheduling and the bounded
// history of completed/failed jobs.
type JobRecord struct {
	ID          int64      `json:"id"`
	JobID       string     `json:"job_id"`
	Queue       string     `json:"queue"`
	Name        string     `json:"name"`
	Payload     string     `json:"payload"`
	Status      string     `json:"status"`
	Attempts    int        `json:"attempts"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
}
