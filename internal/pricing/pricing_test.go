package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteWithDelivery(t *testing.T) {
	breakdown, err := Quote("2025-09-01", "2025-09-04", "Saint John", 350)
	require.NoError(t, err)

	assert.Equal(t, 3, breakdown.Days)
	assert.Equal(t, 1050.0, breakdown.Subtotal)
	assert.Equal(t, 157.5, breakdown.Taxes)
	assert.Equal(t, 150.0, breakdown.FloatFee)
	assert.Equal(t, 1357.5, breakdown.Total)
}

func TestQuoteWithoutDelivery(t *testing.T) {
	breakdown, err := Quote("2099-01-01", "2099-01-02", "", 0)
	require.NoError(t, err)

	assert.Equal(t, 1, breakdown.Days)
	assert.Equal(t, 350.0, breakdown.DailyRate, "zero rate falls back to the default")
	assert.Equal(t, 350.0, breakdown.Subtotal)
	assert.Equal(t, 52.5, breakdown.Taxes)
	assert.Equal(t, 0.0, breakdown.FloatFee)
	assert.Equal(t, 402.5, breakdown.Total)
}

func TestQuoteTotalInvariant(t *testing.T) {
	cases := []struct {
		start, end, city string
		rate             float64
	}{
		{"2025-01-01", "2025-01-02", "", 100},
		{"2025-01-01", "2025-01-15", "Moncton", 425},
		{"2025-06-10", "2026-06-09", "Fredericton", 350},
		{"2025-03-01", "2025-03-08", "", 199.99},
	}

	for _, tc := range cases {
		breakdown, err := Quote(tc.start, tc.end, tc.city, tc.rate)
		require.NoError(t, err)

		assert.InDelta(t, breakdown.Subtotal+breakdown.Taxes+breakdown.FloatFee, breakdown.Total, 0.001)
		assert.InDelta(t, breakdown.DailyRate*float64(breakdown.Days), breakdown.Subtotal, 0.01)
		if tc.city != "" {
			assert.Equal(t, 150.0, breakdown.FloatFee)
		} else {
			assert.Equal(t, 0.0, breakdown.FloatFee)
		}
	}
}

func TestDaysBetweenAcrossDSTTransitions(t *testing.T) {
	loc, err := time.LoadLocation("America/Moncton")
	require.NoError(t, err)

	// The fall-back night makes 2025-11-02 a 25-hour day.
	start := time.Date(2025, time.November, 2, 0, 0, 0, 0, loc)
	end := time.Date(2025, time.November, 3, 0, 0, 0, 0, loc)
	assert.Equal(t, 1, DaysBetween(start, end))

	// The spring-forward night makes 2025-03-09 a 23-hour day.
	start = time.Date(2025, time.March, 9, 0, 0, 0, 0, loc)
	end = time.Date(2025, time.March, 10, 0, 0, 0, 0, loc)
	assert.Equal(t, 1, DaysBetween(start, end))

	start = time.Date(2025, time.October, 30, 0, 0, 0, 0, loc)
	end = time.Date(2025, time.November, 5, 0, 0, 0, 0, loc)
	assert.Equal(t, 6, DaysBetween(start, end))
}

func TestQuoteAcrossFallBack(t *testing.T) {
	loc, err := time.LoadLocation("America/Moncton")
	require.NoError(t, err)
	prev := time.Local
	time.Local = loc
	t.Cleanup(func() { time.Local = prev })

	breakdown, err := Quote("2025-11-02", "2025-11-03", "", 350)
	require.NoError(t, err)

	assert.Equal(t, 1, breakdown.Days, "one calendar day regardless of the extra wall-clock hour")
	assert.Equal(t, 350.0, breakdown.Subtotal)
	assert.Equal(t, 402.5, breakdown.Total)
}

func TestQuoteRejectsInvalidDates(t *testing.T) {
	_, err := Quote("not-a-date", "2025-09-04", "", 350)
	assert.Error(t, err)

	_, err = Quote("2025-09-01", "04/09/2025", "", 350)
	assert.Error(t, err)

	_, err = Quote("2025-09-04", "2025-09-04", "", 350)
	assert.Error(t, err, "zero-length window has no price")

	_, err = Quote("2025-09-04", "2025-09-01", "", 350)
	assert.Error(t, err)
}
