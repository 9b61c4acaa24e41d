package database

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"rentline/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := NewDB(filepath.Join(t.TempDir(), "jobs.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func makeJob(queue, name string) *models.JobRecord {
	return &models.JobRecord{
		JobID:   fmt.Sprintf("%s-%d", name, time.Now().UnixNano()),
		Queue:   queue,
		Name:    name,
		Payload: `{"booking_number":"RB-1001"}`,
		Status:  models.JobStatusPending,
	}
}

func TestCreateAndFetchDueJobs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rec := makeJob(models.QueueEmail, "booking-confirmation")
	require.NoError(t, db.CreateJob(ctx, rec))
	assert.NotZero(t, rec.ID)

	due, err := db.DueJobs(ctx, models.QueueEmail, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "booking-confirmation", due[0].Name)
	assert.Equal(t, models.JobStatusPending, due[0].Status)

	// Other queues see nothing.
	due, err = db.DueJobs(ctx, models.QueueCleanup, 10)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestRetrySchedulingRespectsBackoff(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rec := makeJob(models.QueuePDFGeneration, "rental-agreement")
	require.NoError(t, db.CreateJob(ctx, rec))

	future := time.Now().Add(time.Hour)
	require.NoError(t, db.UpdateJobStatus(ctx, rec.ID, models.JobStatusRetry, "render failed", &future))

	due, err := db.DueJobs(ctx, models.QueuePDFGeneration, 10)
	require.NoError(t, err)
	assert.Empty(t, due, "retry scheduled in the future must not be due")

	past := time.Now().Add(-time.Second)
	require.NoError(t, db.UpdateJobStatus(ctx, rec.ID, models.JobStatusRetry, "render failed", &past))

	due, err = db.DueJobs(ctx, models.QueuePDFGeneration, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 2, due[0].Attempts, "each retry bumps the attempt count")
	assert.Equal(t, "render failed", due[0].LastError)
}

func TestTerminalStatusSetsProcessedAt(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rec := makeJob(models.QueueEmail, "booking-confirmation")
	require.NoError(t, db.CreateJob(ctx, rec))
	require.NoError(t, db.UpdateJobStatus(ctx, rec.ID, models.JobStatusCompleted, "", nil))

	due, err := db.DueJobs(ctx, models.QueueEmail, 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	count, err := db.CountJobs(ctx, models.QueueEmail, models.JobStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTrimHistory(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		rec := makeJob(models.QueueNotifications, "booking-created")
		require.NoError(t, db.CreateJob(ctx, rec))
		status := models.JobStatusCompleted
		if i%2 == 0 {
			status = models.JobStatusFailed
		}
		require.NoError(t, db.UpdateJobStatus(ctx, rec.ID, status, "", nil))
	}

	require.NoError(t, db.TrimHistory(ctx, models.QueueNotifications, 3, 2))

	completed, err := db.CountJobs(ctx, models.QueueNotifications, models.JobStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, 3, completed)

	failed, err := db.CountJobs(ctx, models.QueueNotifications, models.JobStatusFailed)
	require.NoError(t, err)
	assert.Equal(t, 2, failed)
}

func TestFailedJobsRetainedForInspection(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rec := makeJob(models.QueueBookingProcessing, "finalize-booking")
	require.NoError(t, db.CreateJob(ctx, rec))
	require.NoError(t, db.UpdateJobStatus(ctx, rec.ID, models.JobStatusFailed, "unknown job name: bogus", nil))

	failed, err := db.FailedJobs(ctx, models.QueueBookingProcessing)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "unknown job name: bogus", failed[0].LastError)
	assert.NotNil(t, failed[0].ProcessedAt)
}
