package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zapislon",
			Name:      "booking_created_total",
			Help:      "Count of bookings created by status.",
		},
		[]string{"status"},
	)

	slotConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zapislon",
			Name:      "slot_conflict_total",
			Help:      "Count of rejected booking attempts by conflict reason.",
		},
		[]string{"reason"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zapislon",
			Name:      "booking_transition_total",
			Help:      "Count of booking status transitions.",
		},
		[]string{"from", "to"},
	)

	lockTimeouts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "zapislon",
			Name:      "master_lock_timeout_total",
			Help:      "Count of booking mutations rejected on lock wait timeout.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zapislon",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	availabilityCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zapislon",
			Name:      "availability_cache_total",
			Help:      "Availability cache hits and misses.",
		},
		[]string{"result"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, slotConflicts, transitions,
			lockTimeouts, httpRequests, availabilityCache)
	})
}

func IncBookingCreated(status string) {
	bookingCreated.WithLabelValues(status).Inc()
}

func IncSlotConflict(reason string) {
	slotConflicts.WithLabelValues(reason).Inc()
}

func IncTransition(from, to string) {
	transitions.WithLabelValues(from, to).Inc()
}

func IncLockTimeout() {
	lockTimeouts.Inc()
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncCacheHit() {
	availabilityCache.WithLabelValues("hit").Inc()
}

func IncCacheMiss() {
	availabilityCache.WithLabelValues("miss").Inc()
}
