package domain

import (
	"context"
	"time"

	"rentline/internal/models"
)

// Store combines tagged caching with rate-limit counters. Implementations:
// Redis for shared deployments, in-memory for single-instance and tests,
// and a failover wrapper over both.
type Store interface {
	// GetJSON reads a cached value into out; the bool reports a hit.
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	// SetJSON caches a value under key and associates it with the tags.
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration, tags ...string) error
	// InvalidateTag drops every key associated with the tag.
	InvalidateTag(ctx context.Context, tag string) error
	// CheckRateLimit counts a hit for key and reports whether it is still
	// within limit for the current window.
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// EquipmentAPI is the slice of the upstream client the booking flow needs.
type EquipmentAPI interface {
	ListEquipment(ctx context.Context, limit int) ([]models.Equipment, error)
	GetAvailability(ctx context.Context, equipmentID, startDate, endDate string) (bool, error)
	CreateBooking(ctx context.Context, req models.BookingRequest, equipmentID string, total float64) (*models.Booking, error)
}

// Enqueuer puts a named job onto a named queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, queue, name string, payload any) error
}

// EventPublisher emits domain events for in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload any) error
}

// JobJournal is the durable record of queue jobs, with bounded retention.
type JobJournal interface {
	CreateJob(ctx context.Context, rec *models.JobRecord) error
	DueJobs(ctx context.Context, queue string, limit int) ([]models.JobRecord, error)
	UpdateJobStatus(ctx context.Context, id int64, status, lastError string, nextRetryAt *time.Time) error
	TrimHistory(ctx context.Context, queue string, keepCompleted, keepFailed int) error
	FailedJobs(ctx context.Context, queue string) ([]models.JobRecord, error)
}
