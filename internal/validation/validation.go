package validation

import (
	"fmt"
	"strings"
	"time"

	"rentline/internal/pricing"
)

// Field names match the booking form inputs.
const (
	FieldStartDate       = "startDate"
	FieldEndDate         = "endDate"
	FieldDeliveryAddress = "deliveryAddress"
	FieldDeliveryCity    = "deliveryCity"
	FieldCustomerEmail   = "customerEmail"
	FieldCustomerName    = "customerName"
)

// MaxRentalDays caps the rental window.
const MaxRentalDays = 365

// FieldErrors maps a field name to its first failing rule's message. An
// empty map signals success.
type FieldErrors map[string]string

// HasErrors reports whether any field failed.
func (e FieldErrors) HasErrors() bool { return len(e) > 0 }

// First returns one violation message, for callers that surface a single
// error. Date fields win over address fields; order within a step follows
// form order.
func (e FieldErrors) First() string {
	for _, field := range []string{
		FieldStartDate, FieldEndDate,
		FieldDeliveryAddress, FieldDeliveryCity,
		FieldCustomerName, FieldCustomerEmail,
	} {
		if msg, ok := e[field]; ok {
			return msg
		}
	}
	for _, msg := range e {
		return msg
	}
	return ""
}

// ValidateDates is the date-step checkpoint: start present and not before
// today (local midnight), end present and after start, span within
// MaxRentalDays. First failing rule per field wins.
func ValidateDates(startDate, endDate string, now time.Time) FieldErrors {
	errs := FieldErrors{}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var start, end time.Time
	switch {
	case strings.TrimSpace(startDate) == "":
		errs[FieldStartDate] = "Start date is required"
	default:
		parsed, err := pricing.ParseDay(startDate)
		if err != nil {
			errs[FieldStartDate] = "Start date must be a valid date"
		} else if parsed.Before(today) {
			errs[FieldStartDate] = "Start date cannot be in the past"
		} else {
			start = parsed
		}
	}

	switch {
	case strings.TrimSpace(endDate) == "":
		errs[FieldEndDate] = "End date is required"
	default:
		parsed, err := pricing.ParseDay(endDate)
		if err != nil {
			errs[FieldEndDate] = "End date must be a valid date"
		} else {
			end = parsed
		}
	}

	if !start.IsZero() && !end.IsZero() {
		if !end.After(start) {
			errs[FieldEndDate] = "End date must be after start date"
		} else if pricing.DaysBetween(start, end) > MaxRentalDays {
			errs[FieldEndDate] = fmt.Sprintf("Rental period cannot exceed %d days", MaxRentalDays)
		}
	}

	return errs
}

// ValidateAddress is the address-step checkpoint: both fields must be
// non-blank after trimming.
func ValidateAddress(address, city string) FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(address) == "" {
		errs[FieldDeliveryAddress] = "Delivery address is required"
	}
	if strings.TrimSpace(city) == "" {
		errs[FieldDeliveryCity] = "Delivery city is required"
	}
	return errs
}

// ValidateContact checks the customer identity fields collected alongside
// the address step.
func ValidateContact(name, email string) FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(name) == "" {
		errs[FieldCustomerName] = "Name is required"
	}
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		errs[FieldCustomerEmail] = "Email is required"
	} else if !looksLikeEmail(trimmed) {
		errs[FieldCustomerEmail] = "Email address is invalid"
	}
	return errs
}

func looksLikeEmail(s string) bool {
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	domain := s[at+1:]
	if strings.Contains(domain, "@") || !strings.Contains(domain, ".") {
		return false
	}
	return !strings.ContainsAny(s, " \t")
}
