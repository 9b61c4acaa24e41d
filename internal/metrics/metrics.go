package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentline",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rentline",
			Name:      "bookings_created_total",
			Help:      "Bookings successfully created upstream.",
		},
	)

	jobsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentline",
			Name:      "jobs_processed_total",
			Help:      "Queue jobs processed, by queue and result.",
		},
		[]string{"queue", "result"},
	)

	jobRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentline",
			Name:      "job_retries_total",
			Help:      "Queue job retry attempts scheduled, by queue.",
		},
		[]string{"queue"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingsCreated, jobsProcessed, jobRetries)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncBookingCreated counts a successful booking creation.
func IncBookingCreated() {
	bookingsCreated.Inc()
}

// IncJobProcessed counts a processed job; result is "completed" or "failed".
func IncJobProcessed(queue, result string) {
	jobsProcessed.WithLabelValues(queue, result).Inc()
}

// IncJobRetry counts a scheduled retry.
func IncJobRetry(queue string) {
	jobRetries.WithLabelValues(queue).Inc()
}
