package pricing

import (
	"fmt"
	"math"
	"time"

	"rentline/internal/models"
)

const (
	// DefaultDailyRate applies when the equipment record carries no rate.
	DefaultDailyRate = 350.0

	// TaxRate is applied to the rental subtotal.
	TaxRate = 0.15

	// DeliveryFee is a flat per-booking charge for transporting equipment
	// to the customer site, charged only when a delivery city is given.
	DeliveryFee = 150.0

	dateLayout = "2006-01-02"
)

// Quote computes the cost breakdown for a rental window. Dates are calendar
// dates in YYYY-MM-DD form and are normalized to midnight on both sides, so
// the day count is always whole calendar days. Quote is pure: no side
// effects, deterministic for a given input.
func Quote(startDate, endDate, deliveryCity string, dailyRate float64) (models.PricingBreakdown, error) {
	start, err := ParseDay(startDate)
	if err != nil {
		return models.PricingBreakdown{}, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	end, err := ParseDay(endDate)
	if err != nil {
		return models.PricingBreakdown{}, fmt.Errorf("invalid end date %q: %w", endDate, err)
	}
	if !end.After(start) {
		return models.PricingBreakdown{}, fmt.Errorf("end date %s is not after start date %s", endDate, startDate)
	}

	if dailyRate <= 0 {
		dailyRate = DefaultDailyRate
	}

	days := DaysBetween(start, end)
	subtotal := dailyRate * float64(days)
	taxes := subtotal * TaxRate

	floatFee := 0.0
	if deliveryCity != "" {
		floatFee = DeliveryFee
	}

	return models.PricingBreakdown{
		DailyRate: dailyRate,
		Days:      days,
		Subtotal:  round2(subtotal),
		Taxes:     round2(taxes),
		FloatFee:  floatFee,
		Total:     round2(subtotal + taxes + floatFee),
	}, nil
}

// ParseDay parses a YYYY-MM-DD date in local time at midnight.
func ParseDay(value string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, value, time.Local)
}

// DaysBetween returns the number of calendar days from start to end. Both
// ends are reduced to their civil date before differencing, so a window
// spanning a DST transition still counts midnight-to-midnight days rather
// than 24-hour blocks of wall-clock time.
func DaysBetween(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s) / (24 * time.Hour))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
