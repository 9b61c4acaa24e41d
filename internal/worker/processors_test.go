package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rentline/internal/models"
	"rentline/internal/queue"
	"rentline/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEmail struct {
	to, subject string
	calls       int
}

func (r *recordingEmail) Send(ctx context.Context, to, toName, subject, plainText, htmlBody string) error {
	r.calls++
	r.to = to
	r.subject = subject
	return nil
}

type recordingPDF struct {
	agreement Agreement
	calls     int
}

func (r *recordingPDF) RenderAgreement(ctx context.Context, agreement Agreement) (string, error) {
	r.calls++
	r.agreement = agreement
	return "/tmp/agreement.pdf", nil
}

type recordingNotifier struct {
	text  string
	calls int
}

func (r *recordingNotifier) Notify(ctx context.Context, text string) error {
	r.calls++
	r.text = text
	return nil
}

type recordingUpdater struct {
	bookingID, status string
	err               error
}

func (r *recordingUpdater) UpdateBookingStatus(ctx context.Context, bookingID, status string) error {
	r.bookingID = bookingID
	r.status = status
	return r.err
}

type fakeJournal struct {
	trimmed []string
}

func (f *fakeJournal) CreateJob(ctx context.Context, rec *models.JobRecord) error { return nil }
func (f *fakeJournal) DueJobs(ctx context.Context, queue string, limit int) ([]models.JobRecord, error) {
	return nil, nil
}
func (f *fakeJournal) UpdateJobStatus(ctx context.Context, id int64, status, lastError string, nextRetryAt *time.Time) error {
	return nil
}
func (f *fakeJournal) TrimHistory(ctx context.Context, queue string, keepCompleted, keepFailed int) error {
	f.trimmed = append(f.trimmed, queue)
	return nil
}
func (f *fakeJournal) FailedJobs(ctx context.Context, queue string) ([]models.JobRecord, error) {
	return nil, nil
}

func testProcessors(t *testing.T) (*Processors, *recordingEmail, *recordingPDF, *recordingNotifier, *recordingUpdater, *fakeJournal) {
	t.Helper()
	logger := zerolog.Nop()
	email := &recordingEmail{}
	pdf := &recordingPDF{}
	notify := &recordingNotifier{}
	updater := &recordingUpdater{}
	journal := &fakeJournal{}
	cleaner := NewCleaner(journal, []string{t.TempDir()}, 30, 0, 0, &logger)
	return NewProcessors(email, pdf, notify, updater, cleaner, &logger), email, pdf, notify, updater, journal
}

func payloadJob(t *testing.T, queueName, jobName string, payload any) queue.Job {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return queue.Job{ID: "job-1", Queue: queueName, Name: jobName, Data: data}
}

func TestHandleEmailConfirmation(t *testing.T) {
	p, email, _, _, _, _ := testProcessors(t)

	job := payloadJob(t, models.QueueEmail, service.JobBookingConfirmation, service.EmailJob{
		To: "ada@example.com", ToName: "Ada", BookingNumber: "RB-1001", Total: 1357.5,
	})

	require.NoError(t, p.HandleEmail(context.Background(), job))
	assert.Equal(t, 1, email.calls)
	assert.Equal(t, "ada@example.com", email.to)
	assert.Contains(t, email.subject, "RB-1001")
}

func TestHandlePDFAgreement(t *testing.T) {
	p, _, pdf, _, _, _ := testProcessors(t)

	job := payloadJob(t, models.QueuePDFGeneration, service.JobRentalAgreement, service.PDFJob{
		BookingNumber: "RB-1001", CustomerName: "Ada", StartDate: "2025-09-01", EndDate: "2025-09-04", Total: 1357.5,
	})

	require.NoError(t, p.HandlePDF(context.Background(), job))
	assert.Equal(t, 1, pdf.calls)
	assert.Equal(t, "RB-1001", pdf.agreement.BookingNumber)
}

func TestHandleNotification(t *testing.T) {
	p, _, _, notify, _, _ := testProcessors(t)

	job := payloadJob(t, models.QueueNotifications, service.JobBookingCreatedNote, service.NotificationJob{
		Text: "New booking RB-1001",
	})

	require.NoError(t, p.HandleNotification(context.Background(), job))
	assert.Equal(t, "New booking RB-1001", notify.text)
}

func TestHandleBookingProcessingConfirms(t *testing.T) {
	p, _, _, _, updater, _ := testProcessors(t)

	job := payloadJob(t, models.QueueBookingProcessing, service.JobFinalizeBooking, service.BookingProcessingJob{
		BookingID: "bk-1", BookingNumber: "RB-1001",
	})

	require.NoError(t, p.HandleBookingProcessing(context.Background(), job))
	assert.Equal(t, "bk-1", updater.bookingID)
	assert.Equal(t, models.StatusConfirmed, updater.status)
}

func TestHandleBookingProcessingPropagatesError(t *testing.T) {
	p, _, _, _, updater, _ := testProcessors(t)
	updater.err = errors.New("upstream 503: unavailable")

	job := payloadJob(t, models.QueueBookingProcessing, service.JobFinalizeBooking, service.BookingProcessingJob{
		BookingID: "bk-1",
	})

	err := p.HandleBookingProcessing(context.Background(), job)
	assert.EqualError(t, err, "upstream 503: unavailable")
}

func TestUnknownJobNamesFail(t *testing.T) {
	p, email, pdf, notify, _, _ := testProcessors(t)

	cases := map[string]queue.Handler{
		models.QueueEmail:             p.HandleEmail,
		models.QueuePDFGeneration:     p.HandlePDF,
		models.QueueNotifications:     p.HandleNotification,
		models.QueueBookingProcessing: p.HandleBookingProcessing,
		models.QueueCleanup:           p.HandleCleanup,
	}
	for queueName, handler := range cases {
		job := queue.Job{ID: "job-x", Queue: queueName, Name: "no-such-job"}
		err := handler(context.Background(), job)
		require.Error(t, err, "queue %s must reject unknown job names", queueName)
		assert.Contains(t, err.Error(), "no-such-job")
	}
	assert.Zero(t, email.calls)
	assert.Zero(t, pdf.calls)
	assert.Zero(t, notify.calls)
}

func TestHandlersCoverEveryQueue(t *testing.T) {
	p, _, _, _, _, _ := testProcessors(t)
	handlers := p.Handlers()
	for _, queueName := range models.QueueNames {
		assert.Contains(t, handlers, queueName)
	}
	assert.Len(t, handlers, len(models.QueueNames))
}

func TestCleanupPurgeJobHistoryTrimsAllQueues(t *testing.T) {
	p, _, _, _, _, journal := testProcessors(t)

	job := queue.Job{ID: "job-c", Queue: models.QueueCleanup, Name: service.JobPurgeJobHistory}
	require.NoError(t, p.HandleCleanup(context.Background(), job))
	assert.ElementsMatch(t, models.QueueNames, journal.trimmed)
}

func TestPurgeExportsRemovesAgedFiles(t *testing.T) {
	logger := zerolog.Nop()
	dir := t.TempDir()

	oldFile := filepath.Join(dir, "bookings-2024.xlsx")
	freshFile := filepath.Join(dir, "bookings-today.xlsx")
	require.NoError(t, os.WriteFile(oldFile, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(freshFile, []byte("x"), 0o644))
	aged := time.Now().AddDate(0, 0, -60)
	require.NoError(t, os.Chtimes(oldFile, aged, aged))

	cleaner := NewCleaner(&fakeJournal{}, []string{dir}, 30, 0, 0, &logger)
	require.NoError(t, cleaner.PurgeExports(context.Background(), 0))

	assert.NoFileExists(t, oldFile)
	assert.FileExists(t, freshFile)
}

func TestPurgeExportsMissingDirIsFine(t *testing.T) {
	logger := zerolog.Nop()
	cleaner := NewCleaner(&fakeJournal{}, []string{filepath.Join(t.TempDir(), "gone")}, 30, 0, 0, &logger)
	assert.NoError(t, cleaner.PurgeExports(context.Background(), 7))
}

func TestAgreementRendererWritesFile(t *testing.T) {
	dir := t.TempDir()
	r := NewAgreementRenderer(dir, "Rentline Equipment", "rentline.example.com")

	path, err := r.RenderAgreement(context.Background(), Agreement{
		BookingNumber: "RB-1001",
		CustomerName:  "Ada Lovelace",
		StartDate:     "2025-09-01",
		EndDate:       "2025-09-04",
		DeliveryCity:  "Saint John",
		Total:         1357.5,
	})
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, filepath.Join(dir, "agreement-RB-1001.pdf"), path)
}
