package service

import (
	"context"
	"time"

	"rentline/internal/client"
	"rentline/internal/domain"
	"rentline/internal/events"
	"rentline/internal/metrics"
	"rentline/internal/models"
	"rentline/internal/pricing"
	"rentline/internal/validation"

	"github.com/rs/zerolog"
)

// ErrorCode classifies booking failures so every layer, down to the UI,
// works with one result shape instead of mixed exceptions and payloads.
type ErrorCode string

const (
	CodeValidation  ErrorCode = "validation"
	CodeNoEquipment ErrorCode = "no_equipment"
	CodeUnavailable ErrorCode = "unavailable"
	CodeUpstream    ErrorCode = "upstream"
	CodeInternal    ErrorCode = "internal"
)

// Fixed operational messages. Upstream failures carry the upstream message
// verbatim instead; unexpected errors get the generic message and a log line.
const (
	MsgNoEquipment = "No equipment is currently available for booking."
	MsgUnavailable = "The selected dates are no longer available. Please try different dates."
	MsgInternal    = "Something went wrong while processing your booking. Please try again later."
)

// Result is the unified outcome of a booking attempt.
type Result struct {
	Success       bool                     `json:"success"`
	Code          ErrorCode                `json:"code,omitempty"`
	Message       string                   `json:"message,omitempty"`
	Fields        validation.FieldErrors   `json:"fields,omitempty"`
	BookingNumber string                   `json:"booking_number,omitempty"`
	Pricing       *models.PricingBreakdown `json:"pricing,omitempty"`
}

func failure(code ErrorCode, message string) Result {
	return Result{Success: false, Code: code, Message: message}
}

// BookingService sequences the booking flow: validation, equipment lookup,
// availability, pricing, upstream creation, cache invalidation, events.
type BookingService struct {
	api           domain.EquipmentAPI
	cache         domain.Store
	bus           domain.EventPublisher
	maxRentalDays int
	logger        *zerolog.Logger
}

func NewBookingService(api domain.EquipmentAPI, cache domain.Store, bus domain.EventPublisher, maxRentalDays int, logger *zerolog.Logger) *BookingService {
	if maxRentalDays <= 0 {
		maxRentalDays = models.DefaultMaxRentalDays
	}
	return &BookingService{
		api:           api,
		cache:         cache,
		bus:           bus,
		maxRentalDays: maxRentalDays,
		logger:        logger,
	}
}

// CreateBooking runs the full flow for one request. It never returns an
// error: every failure mode is folded into the Result so callers surface
// exactly one shape.
func (s *BookingService) CreateBooking(ctx context.Context, req models.BookingRequest) Result {
	if fieldErrs := s.validate(req); fieldErrs.HasErrors() {
		return Result{Success: false, Code: CodeValidation, Message: fieldErrs.First(), Fields: fieldErrs}
	}

	// The fleet holds a single rentable unit; ask for exactly one.
	equipment, err := s.api.ListEquipment(ctx, 1)
	if err != nil {
		s.logger.Error().Err(err).Msg("equipment lookup failed")
		return failure(CodeUpstream, err.Error())
	}
	unit := firstAvailable(equipment)
	if unit == nil {
		return failure(CodeNoEquipment, MsgNoEquipment)
	}

	available, err := s.api.GetAvailability(ctx, unit.ID, req.StartDate, req.EndDate)
	if err != nil {
		s.logger.Error().Err(err).Str("equipment_id", unit.ID).Msg("availability check failed")
		return failure(CodeUpstream, err.Error())
	}
	if !available {
		return failure(CodeUnavailable, MsgUnavailable)
	}

	breakdown, err := pricing.Quote(req.StartDate, req.EndDate, req.DeliveryCity, unit.DailyRate)
	if err != nil {
		// Validation already vetted the dates; reaching this is a bug.
		s.logger.Error().Err(err).Msg("pricing failed after validation")
		return failure(CodeInternal, MsgInternal)
	}

	booking, err := s.api.CreateBooking(ctx, req, unit.ID, breakdown.Total)
	if err != nil {
		s.logger.Error().Err(err).Str("equipment_id", unit.ID).Msg("booking creation failed")
		s.publishFailed(req, unit.ID)
		return failure(CodeUpstream, err.Error())
	}

	s.invalidateAvailability(ctx, req.StartDate, req.EndDate)
	metrics.IncBookingCreated()

	s.publishCreated(booking, req, breakdown)

	s.logger.Info().
		Str("booking_number", booking.BookingNumber).
		Str("equipment_id", unit.ID).
		Float64("total", breakdown.Total).
		Msg("booking created")

	return Result{
		Success:       true,
		BookingNumber: booking.BookingNumber,
		Pricing:       &breakdown,
	}
}

// validate runs both form checkpoints plus the server-side date re-check.
// The client already validated, but the request body is attacker-controlled.
func (s *BookingService) validate(req models.BookingRequest) validation.FieldErrors {
	errs := validation.ValidateDates(req.StartDate, req.EndDate, time.Now())
	for field, msg := range validation.ValidateAddress(req.DeliveryAddress, req.DeliveryCity) {
		if _, ok := errs[field]; !ok {
			errs[field] = msg
		}
	}
	for field, msg := range validation.ValidateContact(req.CustomerName, req.CustomerEmail) {
		if _, ok := errs[field]; !ok {
			errs[field] = msg
		}
	}

	if !errs.HasErrors() {
		start, _ := pricing.ParseDay(req.StartDate)
		end, _ := pricing.ParseDay(req.EndDate)
		if pricing.DaysBetween(start, end) > s.maxRentalDays {
			errs[validation.FieldEndDate] = "Rental period is too long"
		}
	}

	return errs
}

func (s *BookingService) invalidateAvailability(ctx context.Context, startDate, endDate string) {
	for _, tag := range []string{
		models.TagEquipmentAvailability,
		client.AvailabilityRangeTag(startDate, endDate),
	} {
		if err := s.cache.InvalidateTag(ctx, tag); err != nil {
			s.logger.Warn().Err(err).Str("tag", tag).Msg("cache invalidation failed")
		}
	}
}

func (s *BookingService) publishCreated(booking *models.Booking, req models.BookingRequest, breakdown models.PricingBreakdown) {
	payload := events.BookingEventPayload{
		BookingID:     booking.ID,
		BookingNumber: booking.BookingNumber,
		EquipmentID:   booking.EquipmentID,
		Status:        booking.Status,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		CustomerEmail: req.CustomerEmail,
		CustomerName:  req.CustomerName,
		DeliveryCity:  req.DeliveryCity,
		Total:         breakdown.Total,
	}
	if err := s.bus.PublishJSON(events.EventBookingCreated, payload); err != nil {
		s.logger.Error().Err(err).Msg("publish booking_created")
	}
}

func (s *BookingService) publishFailed(req models.BookingRequest, equipmentID string) {
	payload := events.BookingEventPayload{
		EquipmentID:   equipmentID,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		CustomerEmail: req.CustomerEmail,
		CustomerName:  req.CustomerName,
	}
	if err := s.bus.PublishJSON(events.EventBookingFailed, payload); err != nil {
		s.logger.Error().Err(err).Msg("publish booking_failed")
	}
}

func firstAvailable(equipment []models.Equipment) *models.Equipment {
	for i := range equipment {
		if equipment[i].Available {
			return &equipment[i]
		}
	}
	return nil
}
