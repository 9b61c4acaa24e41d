package worker

import (
	"context"
	"fmt"

	"rentline/internal/models"
	"rentline/internal/queue"
	"rentline/internal/service"

	"github.com/rs/zerolog"
)

// Processors owns one handler per queue. Job names are matched exactly; an
// unrecognized name is an error so the job goes through the normal
// retry-then-fail path instead of being silently dropped.
type Processors struct {
	email   EmailSender
	pdf     PDFRenderer
	notify  Notifier
	updater BookingUpdater
	cleaner *Cleaner
	logger  *zerolog.Logger
}

func NewProcessors(email EmailSender, pdf PDFRenderer, notify Notifier, updater BookingUpdater, cleaner *Cleaner, logger *zerolog.Logger) *Processors {
	return &Processors{
		email:   email,
		pdf:     pdf,
		notify:  notify,
		updater: updater,
		cleaner: cleaner,
		logger:  logger,
	}
}

// Handlers maps every queue to its handler.
func (p *Processors) Handlers() map[string]queue.Handler {
	return map[string]queue.Handler{
		models.QueueEmail:             p.HandleEmail,
		models.QueuePDFGeneration:     p.HandlePDF,
		models.QueueNotifications:     p.HandleNotification,
		models.QueueBookingProcessing: p.HandleBookingProcessing,
		models.QueueCleanup:           p.HandleCleanup,
	}
}

func (p *Processors) HandleEmail(ctx context.Context, job queue.Job) error {
	switch job.Name {
	case service.JobBookingConfirmation:
		var payload service.EmailJob
		if err := job.Decode(&payload); err != nil {
			return fmt.Errorf("decode email job: %w", err)
		}
		subject := fmt.Sprintf("Booking %s confirmed", payload.BookingNumber)
		plain := fmt.Sprintf("Hi %s,\n\nYour booking %s is confirmed. Total: $%.2f.\n\nThank you!",
			payload.ToName, payload.BookingNumber, payload.Total)
		html := fmt.Sprintf(
			"<html><body><h2>Booking Confirmed</h2><p>Hi %s,</p><p>Your booking <strong>%s</strong> is confirmed.</p><p>Total: <strong>$%.2f</strong></p></body></html>",
			payload.ToName, payload.BookingNumber, payload.Total)
		return p.email.Send(ctx, payload.To, payload.ToName, subject, plain, html)
	default:
		return fmt.Errorf("unknown email job %q", job.Name)
	}
}

func (p *Processors) HandlePDF(ctx context.Context, job queue.Job) error {
	switch job.Name {
	case service.JobRentalAgreement:
		var payload service.PDFJob
		if err := job.Decode(&payload); err != nil {
			return fmt.Errorf("decode pdf job: %w", err)
		}
		path, err := p.pdf.RenderAgreement(ctx, Agreement{
			BookingNumber: payload.BookingNumber,
			CustomerName:  payload.CustomerName,
			StartDate:     payload.StartDate,
			EndDate:       payload.EndDate,
			DeliveryCity:  payload.DeliveryCity,
			Total:         payload.Total,
		})
		if err != nil {
			return err
		}
		if path != "" {
			p.logger.Info().Str("booking_number", payload.BookingNumber).Str("path", path).Msg("agreement rendered")
		}
		return nil
	default:
		return fmt.Errorf("unknown pdf job %q", job.Name)
	}
}

func (p *Processors) HandleNotification(ctx context.Context, job queue.Job) error {
	switch job.Name {
	case service.JobBookingCreatedNote:
		var payload service.NotificationJob
		if err := job.Decode(&payload); err != nil {
			return fmt.Errorf("decode notification job: %w", err)
		}
		return p.notify.Notify(ctx, payload.Text)
	default:
		return fmt.Errorf("unknown notification job %q", job.Name)
	}
}

func (p *Processors) HandleBookingProcessing(ctx context.Context, job queue.Job) error {
	switch job.Name {
	case service.JobFinalizeBooking:
		var payload service.BookingProcessingJob
		if err := job.Decode(&payload); err != nil {
			return fmt.Errorf("decode booking processing job: %w", err)
		}
		if payload.BookingID == "" {
			return fmt.Errorf("booking processing job %q has no booking id", job.ID)
		}
		if err := p.updater.UpdateBookingStatus(ctx, payload.BookingID, models.StatusConfirmed); err != nil {
			return err
		}
		p.logger.Info().Str("booking_number", payload.BookingNumber).Msg("booking finalized")
		return nil
	default:
		return fmt.Errorf("unknown booking processing job %q", job.Name)
	}
}

func (p *Processors) HandleCleanup(ctx context.Context, job queue.Job) error {
	switch job.Name {
	case service.JobPurgeJobHistory:
		return p.cleaner.PurgeJobHistory(ctx)
	case service.JobPurgeExports:
		var payload service.CleanupJob
		if err := job.Decode(&payload); err != nil {
			return fmt.Errorf("decode cleanup job: %w", err)
		}
		return p.cleaner.PurgeExports(ctx, payload.OlderThanDays)
	default:
		return fmt.Errorf("unknown cleanup job %q", job.Name)
	}
}
