package worker

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// EmailSender delivers a booking confirmation to the customer.
type EmailSender interface {
	Send(ctx context.Context, to, toName, subject, plainText, htmlBody string) error
}

// PDFRenderer produces the rental agreement document and returns the path
// it was written to.
type PDFRenderer interface {
	RenderAgreement(ctx context.Context, agreement Agreement) (string, error)
}

// Notifier pushes an operational note to the staff channel.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// BookingUpdater advances a booking through its lifecycle on the backend.
type BookingUpdater interface {
	UpdateBookingStatus(ctx context.Context, bookingID, status string) error
}

// Agreement is everything the rendered rental agreement needs.
type Agreement struct {
	BookingNumber string
	CustomerName  string
	StartDate     string
	EndDate       string
	DeliveryCity  string
	Total         float64
}

// simulateWork blocks for a random interval inside [min, max) or until ctx
// is cancelled. Stub providers use it so queue timing behaves like the real
// integrations would.
func simulateWork(ctx context.Context, min, max time.Duration) {
	d := min
	if max > min {
		d += time.Duration(rand.Int63n(int64(max - min)))
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// StubEmailSender logs instead of sending. Used when no provider is
// configured, and in tests.
type StubEmailSender struct {
	Delay  time.Duration
	Logger *zerolog.Logger
}

func (s *StubEmailSender) Send(ctx context.Context, to, toName, subject, plainText, htmlBody string) error {
	simulateWork(ctx, s.Delay, 4*s.Delay)
	s.Logger.Info().Str("to", to).Str("subject", subject).Msg("email stub: message not sent")
	return nil
}

// StubPDFRenderer pretends the agreement was rendered.
type StubPDFRenderer struct {
	Delay  time.Duration
	Logger *zerolog.Logger
}

func (s *StubPDFRenderer) RenderAgreement(ctx context.Context, agreement Agreement) (string, error) {
	simulateWork(ctx, s.Delay, 4*s.Delay)
	s.Logger.Info().Str("booking_number", agreement.BookingNumber).Msg("pdf stub: agreement not rendered")
	return "", nil
}

// StubNotifier logs the note locally.
type StubNotifier struct {
	Delay  time.Duration
	Logger *zerolog.Logger
}

func (s *StubNotifier) Notify(ctx context.Context, text string) error {
	simulateWork(ctx, s.Delay, 4*s.Delay)
	s.Logger.Info().Str("text", text).Msg("notify stub: message not sent")
	return nil
}
