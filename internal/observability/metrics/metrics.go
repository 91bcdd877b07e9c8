package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "travellistings_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "travellistings_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	bookingDecisions = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "travellistings_booking_create_duration_seconds",
		Help:    "Duration of booking creation attempts by result",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	bookingViolations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "travellistings_booking_violations_total",
		Help: "Count of booking validation violations by kind",
	}, []string{"kind"})

	bookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "travellistings_booking_transitions_total",
		Help: "Count of booking status transition attempts",
	}, []string{"from", "to", "result"})

	ratingCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "travellistings_rating_cache_lookups_total",
		Help: "Rating summary cache lookups by outcome",
	}, []string{"outcome"})

	completionSweeps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "travellistings_completion_sweeps_total",
		Help: "Count of bookings processed by the completion worker by result",
	}, []string{"result"})

	storeCircuitState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "travellistings_store_circuit_state",
		Help: "Store circuit breaker state (0 closed, 1 open, 2 half-open)",
	})

	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "travellistings_events_published_total",
		Help: "Domain events published to the broker by type and result",
	}, []string{"type", "result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveBookingCreate records the duration of a booking attempt with a result label.
func ObserveBookingCreate(result string, duration time.Duration) {
	bookingDecisions.WithLabelValues(result).Observe(duration.Seconds())
}

// ObserveViolation counts one rejected booking rule.
func ObserveViolation(kind string) {
	bookingViolations.WithLabelValues(kind).Inc()
}

// ObserveTransition counts a status transition attempt.
func ObserveTransition(from, to, result string) {
	bookingTransitions.WithLabelValues(from, to, result).Inc()
}

// ObserveRatingCache records a cache hit or miss.
func ObserveRatingCache(hit bool) {
	if hit {
		ratingCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	ratingCacheLookups.WithLabelValues("miss").Inc()
}

// ObserveCompletion counts a booking handled by the completion sweep.
func ObserveCompletion(result string) {
	completionSweeps.WithLabelValues(result).Inc()
}

// SetStoreCircuitState exports the breaker state as a number.
func SetStoreCircuitState(state int) {
	storeCircuitState.Set(float64(state))
}

// ObserveEvent counts a published domain event.
func ObserveEvent(eventType, result string) {
	eventsPublished.WithLabelValues(eventType, result).Inc()
}
