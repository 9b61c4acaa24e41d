package queue

import (
	"math"
	"time"
)

// RetryPolicy controls how failed jobs are redelivered. Delays grow
// geometrically from InitialDelay by BackoffFactor per attempt, capped at
// MaxDelay. A job that exhausts MaxAttempts is dead-lettered.
type RetryPolicy struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// NextDelay returns the wait before the given retry attempt (1-based).
// Unset or nonsensical policy fields fall back to one second and a factor
// of two.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	initial := r.InitialDelay
	if initial <= 0 {
		initial = time.Second
	}
	factor := r.BackoffFactor
	if factor <= 0 {
		factor = 2
	}

	d := time.Duration(float64(initial) * math.Pow(factor, float64(attempt-1)))
	if r.MaxDelay > 0 && d > r.MaxDelay {
		d = r.MaxDelay
	}
	if d <= 0 {
		return time.Second
	}
	return d
}
