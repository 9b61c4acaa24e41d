package service

import (
	"context"
	"encoding/json"
	"fmt"

	"rentline/internal/domain"
	"rentline/internal/events"
	"rentline/internal/models"

	"github.com/rs/zerolog"
)

// Job names understood by the queue processors.
const (
	JobBookingConfirmation = "booking-confirmation"
	JobBookingCreatedNote  = "booking-created"
	JobRentalAgreement     = "rental-agreement"
	JobFinalizeBooking     = "finalize-booking"
	JobPurgeJobHistory     = "purge-job-history"
	JobPurgeExports        = "purge-exports"
)

// JobDispatcher turns booking events into queue jobs. It subscribes to the
// in-process bus so the orchestration stays unaware of queue topology.
type JobDispatcher struct {
	jobs   domain.Enqueuer
	logger *zerolog.Logger
}

func NewJobDispatcher(jobs domain.Enqueuer, logger *zerolog.Logger) *JobDispatcher {
	return &JobDispatcher{jobs: jobs, logger: logger}
}

// Register attaches the dispatcher to the bus.
func (d *JobDispatcher) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingCreated, d.onBookingCreated)
}

func (d *JobDispatcher) onBookingCreated(event *events.Event) error {
	var payload events.BookingEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode booking_created payload: %w", err)
	}

	ctx := context.Background()

	enqueue := func(queue, name string, data any) {
		if err := d.jobs.Enqueue(ctx, queue, name, data); err != nil {
			d.logger.Error().Err(err).Str("queue", queue).Str("job", name).
				Str("booking_number", payload.BookingNumber).Msg("enqueue failed")
		}
	}

	enqueue(models.QueueEmail, JobBookingConfirmation, EmailJob{
		To:            payload.CustomerEmail,
		ToName:        payload.CustomerName,
		BookingNumber: payload.BookingNumber,
		Total:         payload.Total,
	})
	enqueue(models.QueuePDFGeneration, JobRentalAgreement, PDFJob{
		BookingNumber: payload.BookingNumber,
		CustomerName:  payload.CustomerName,
		StartDate:     payload.StartDate,
		EndDate:       payload.EndDate,
		DeliveryCity:  payload.DeliveryCity,
		Total:         payload.Total,
	})
	enqueue(models.QueueNotifications, JobBookingCreatedNote, NotificationJob{
		Text: fmt.Sprintf("New booking %s: %s, %s to %s, $%.2f",
			payload.BookingNumber, payload.CustomerName, payload.StartDate, payload.EndDate, payload.Total),
	})
	enqueue(models.QueueBookingProcessing, JobFinalizeBooking, BookingProcessingJob{
		BookingID:     payload.BookingID,
		BookingNumber: payload.BookingNumber,
	})

	return nil
}

// EmailJob is the payload for the email queue.
type EmailJob struct {
	To            string  `json:"to"`
	ToName        string  `json:"to_name"`
	BookingNumber string  `json:"booking_number"`
	Total         float64 `json:"total"`
}

// PDFJob is the payload for the pdf-generation queue.
type PDFJob struct {
	BookingNumber string  `json:"booking_number"`
	CustomerName  string  `json:"customer_name"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	DeliveryCity  string  `json:"delivery_city,omitempty"`
	Total         float64 `json:"total"`
}

// NotificationJob is the payload for the notifications queue.
type NotificationJob struct {
	Text string `json:"text"`
}

// BookingProcessingJob is the payload for the booking-processing queue.
type BookingProcessingJob struct {
	BookingID     string `json:"booking_id"`
	BookingNumber string `json:"booking_number"`
}

// CleanupJob is the payload for the cleanup queue.
type CleanupJob struct {
	OlderThanDays int `json:"older_than_days,omitempty"`
}
