package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reservationCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yoyaku",
			Name:      "reservation_created_total",
			Help:      "Count of reservations created by area.",
		},
		[]string{"area"},
	)

	reservationCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "yoyaku",
			Name:      "reservation_cancelled_total",
			Help:      "Count of reservations cancelled by customers.",
		},
	)

	reservationRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yoyaku",
			Name:      "reservation_rejected_total",
			Help:      "Count of reservation attempts rejected by reason.",
		},
		[]string{"reason"},
	)

	codeFallback = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "yoyaku",
			Name:      "reservation_code_fallback_total",
			Help:      "Count of reservation codes issued via the timestamp fallback after random generation exhausted its retries.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(reservationCreated, reservationCancelled, reservationRejected, codeFallback)
	})
}

func IncReservationCreated(area string) {
	reservationCreated.WithLabelValues(area).Inc()
}

func IncReservationCancelled() {
	reservationCancelled.Inc()
}

func IncReservationRejected(reason string) {
	reservationRejected.WithLabelValues(reason).Inc()
}

func IncCodeFallback() {
	codeFallback.Inc()
}
