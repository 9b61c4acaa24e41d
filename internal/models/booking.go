package models

import "time"

// BookingRequest carries raw user input for the booking flow. Dates are
// calendar dates in YYYY-MM-DD form, without time-of-day.
type BookingRequest struct {
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	DeliveryAddress string `json:"delivery_address"`
	DeliveryCity    string `json:"delivery_city"`
	CustomerEmail   string `json:"customer_email"`
	CustomerName    string `json:"customer_name"`
}

// PricingBreakdown is derived from a BookingRequest and an equipment daily
// rate. total = subtotal + taxes + float_fee; subtotal = daily_rate * days.
type PricingBreakdown struct {
	DailyRate float64 `json:"daily_rate"`
	Days      int     `json:"days"`
	Subtotal  float64 `json:"subtotal"`
	Taxes     float64 `json:"taxes"`
	FloatFee  float64 `json:"float_fee"`
	Total     float64 `json:"total"`
}

// Equipment is owned by the upstream booking backend; we only read it.
type Equipment struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Model       string  `json:"model,omitempty"`
	DailyRate   float64 `json:"daily_rate"`
	Available   bool    `json:"available"`
	Description string  `json:"description,omitempty"`
}

// Booking is created by the upstream backend; its lifecycle lives there.
type Booking struct {
	ID            string    `json:"id"`
	BookingNumber string    `json:"booking_number"`
	EquipmentID   string    `json:"equipment_id"`
	Status        string    `json:"status"`
	StartDate     string    `json:"start_date"`
	EndDate       string    `json:"end_date"`
	CustomerEmail string    `json:"customer_email"`
	CustomerName  string    `json:"customer_name"`
	DeliveryCity  string    `json:"delivery_city,omitempty"`
	Total         float64   `json:"total"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// User mirrors the upstream account record returned by /auth/me.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}
