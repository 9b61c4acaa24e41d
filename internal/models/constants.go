package models

const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// BookingStatuses is the fixed set accepted by the status update endpoint.
var BookingStatuses = []string{
	StatusPending,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
}

// Named queues. Jobs land on exactly one of these.
const (
	QueueEmail             = "email"
	QueueNotifications     = "notifications"
	QueueBookingProcessing = "booking-processing"
	QueuePDFGeneration     = "pdf-generation"
	QueueCleanup           = "cleanup"
)

// QueueNames lists every queue a worker must consume.
var QueueNames = []string{
	QueueEmail,
	QueueNotifications,
	QueueBookingProcessing,
	QueuePDFGeneration,
	QueueCleanup,
}

const (
	// JobStatusPending задача ожидает первой попытки
	JobStatusPending = "pending"

	// JobStatusRetry задача ожидает повторной попытки
	JobStatusRetry = "retry"

	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

const (
	// DefaultMaxAttempts попыток на задачу, включая первую
	DefaultMaxAttempts = 3

	// DefaultBackoffBaseMS базовая задержка экспоненциального backoff
	DefaultBackoffBaseMS = 1000

	// KeepCompletedJobs/KeepFailedJobs ограничивают историю задач в журнале
	KeepCompletedJobs = 100
	KeepFailedJobs    = 50

	// DefaultMaxRentalDays максимальный срок аренды
	DefaultMaxRentalDays = 365

	// DefaultCacheTTL время жизни кэша ответов upstream API в секундах
	DefaultCacheTTL = 5 * 60

	// RateLimitRequests количество запросов в окне на клиента
	RateLimitRequests = 60

	// RateLimitWindow окно ограничения частоты запросов в секундах
	RateLimitWindow = 60

	// LivenessHeapLimitBytes предел кучи для liveness-пробы (300MB)
	LivenessHeapLimitBytes = 300 * 1024 * 1024
)

// Cache tags invalidated after a successful booking.
const (
	TagEquipmentAvailability = "equipment-availability"
)
